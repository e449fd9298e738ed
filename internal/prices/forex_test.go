package prices

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newForexMockServer serves v8 chart responses keyed by ticker, e.g.
// "EURUSD=X" -> 1.08. Unknown tickers get a chart error payload.
func newForexMockServer(rateMap map[string]float64) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ticker := strings.TrimPrefix(r.URL.Path, "/v8/finance/chart/")
		w.Header().Set("Content-Type", "application/json")

		rate, ok := rateMap[ticker]
		if !ok {
			fmt.Fprintf(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found for %s"}}}`, ticker)
			return
		}
		fmt.Fprintf(w, `{"chart":{"result":[{"meta":{"regularMarketPrice":%f}}],"error":null}}`, rate)
	}))
}

func TestForexClient_Rate_Success(t *testing.T) {
	server := newForexMockServer(map[string]float64{
		"EURUSD=X": 1.08,
		"MYRUSD=X": 0.22,
	})
	defer server.Close()

	client := NewForexClient(server.Client(), server.URL)

	rate, err := client.Rate(context.Background(), "EUR", "USD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rate.Equal(dec("1.08")) {
		t.Errorf("EUR rate = %s, want 1.08", rate)
	}

	rate, err = client.Rate(context.Background(), "myr", "usd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rate.Equal(dec("0.22")) {
		t.Errorf("MYR rate = %s, want 0.22", rate)
	}
}

func TestForexClient_Rate_ChartError(t *testing.T) {
	server := newForexMockServer(map[string]float64{})
	defer server.Close()

	client := NewForexClient(server.Client(), server.URL)
	_, err := client.Rate(context.Background(), "XYZ", "USD")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "forex chart error") {
		t.Errorf("expected chart error, got: %v", err)
	}
}

func TestForexClient_Rate_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewForexClient(server.Client(), server.URL)
	_, err := client.Rate(context.Background(), "EUR", "USD")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "unexpected status 500") {
		t.Errorf("expected error about status 500, got: %v", err)
	}
}

func TestForexClient_Rate_InvalidRate(t *testing.T) {
	server := newForexMockServer(map[string]float64{"EURUSD=X": 0})
	defer server.Close()

	client := NewForexClient(server.Client(), server.URL)
	_, err := client.Rate(context.Background(), "EUR", "USD")
	if err == nil {
		t.Fatal("expected error for zero rate, got nil")
	}
	if !strings.Contains(err.Error(), "invalid forex rate") {
		t.Errorf("expected invalid rate error, got: %v", err)
	}
}
