package portfolio

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"hodltrack/internal/fx"
	"hodltrack/internal/models"
	"hodltrack/internal/prices"
)

// localWindow is the radius of the local reference window: a buy is judged
// against the mean price of all buys within seven days either side of it.
const localWindow = 7 * 24 * time.Hour

// Weights of the composite score.
const (
	timingWeight      = 0.4
	consistencyWeight = 0.3
	performanceWeight = 0.3
)

// DCAInput is the buy-side snapshot the analyzer runs over. Non-buy
// transactions are ignored.
type DCAInput struct {
	Transactions []models.Transaction
	Quote        prices.Quote
	Rates        *fx.Table
	Now          time.Time
}

// ScoreSet holds the component scores and their weighted composite, each on
// a 0 to 10 scale. The composite is rounded to one decimal place.
type ScoreSet struct {
	Timing      float64 `json:"timing"`
	Consistency float64 `json:"consistency"`
	Performance float64 `json:"performance"`
	Overall     float64 `json:"overall"`
}

// TimingAnalysis reports how often purchases landed below their local
// average price, weighted by BTC volume.
type TimingAnalysis struct {
	BelowLocalAvgPct float64 `json:"below_local_avg_pct"`
	BuysAnalyzed     int     `json:"buys_analyzed"`
}

// ConsistencyAnalysis reports purchase cadence over calendar months.
type ConsistencyAnalysis struct {
	ActiveMonths   int     `json:"active_months"`
	TotalMonths    int     `json:"total_months"`
	MissedMonths   int     `json:"missed_months"`
	ActivityPct    float64 `json:"activity_pct"`
	LongestGapDays float64 `json:"longest_gap_days"`
	GapPenalty     float64 `json:"gap_penalty"`
}

// Scenario is a what-if strategy valued at the current price.
type Scenario struct {
	Name         string          `json:"name"`
	BTCAcquired  decimal.Decimal `json:"btc_acquired"`
	CurrentValue decimal.Decimal `json:"current_value"`
	Delta        decimal.Decimal `json:"delta"`
	DeltaPct     float64         `json:"delta_pct"`
}

// Recommendation is one rule-driven suggestion.
type Recommendation struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Analysis is the full DCA strategy report in the reporting currency.
type Analysis struct {
	Currency        string              `json:"currency"`
	Scores          ScoreSet            `json:"scores"`
	Timing          TimingAnalysis      `json:"timing"`
	Consistency     ConsistencyAnalysis `json:"consistency"`
	AvgBuyPrice     decimal.Decimal     `json:"avg_buy_price"`
	CurrentPrice    decimal.Decimal     `json:"current_price"`
	TotalInvested   decimal.Decimal     `json:"total_invested"`
	TotalBTC        decimal.Decimal     `json:"total_btc"`
	CurrentValue    decimal.Decimal     `json:"current_value"`
	Scenarios       []Scenario          `json:"scenarios"`
	Recommendations []Recommendation    `json:"recommendations"`
	Degraded        bool                `json:"degraded"`
}

// buyPoint is one buy with its price normalized into the reporting currency.
type buyPoint struct {
	at       time.Time
	price    decimal.Decimal
	btc      decimal.Decimal
	invested decimal.Decimal
}

// AnalyzeDCA scores the owner's dollar-cost-averaging strategy. An empty
// ledger yields a zero-scored analysis with a single getting-started
// recommendation, never an error.
func AnalyzeDCA(in DCAInput) Analysis {
	a := Analysis{
		Currency:        in.Rates.Target(),
		Degraded:        in.Quote.Fallback || in.Rates.Degraded(),
		Scenarios:       []Scenario{},
		Recommendations: []Recommendation{},
	}

	priceConv := in.Rates.Convert(in.Quote.Price, in.Quote.Currency)
	a.CurrentPrice = priceConv.Amount
	a.Degraded = a.Degraded || priceConv.UsedFallback

	buys, degraded := collectBuys(in)
	a.Degraded = a.Degraded || degraded
	a.Timing.BuysAnalyzed = len(buys)
	if len(buys) == 0 {
		a.Recommendations = append(a.Recommendations, Recommendation{
			Code:    "get_started",
			Message: "No purchases yet. Start with a small recurring buy to begin building your position.",
		})
		return a
	}

	for _, b := range buys {
		a.TotalBTC = a.TotalBTC.Add(b.btc)
		a.TotalInvested = a.TotalInvested.Add(b.invested)
	}
	if a.TotalBTC.IsPositive() {
		weighted := decimal.Zero
		for _, b := range buys {
			weighted = weighted.Add(b.price.Mul(b.btc))
		}
		a.AvgBuyPrice = weighted.Div(a.TotalBTC)
	}
	a.CurrentValue = a.TotalBTC.Mul(a.CurrentPrice)

	a.Timing.BelowLocalAvgPct = belowLocalAvgPct(buys)
	a.Consistency = analyzeConsistency(buys)

	a.Scores.Timing = timingScore(a.Timing.BelowLocalAvgPct)
	a.Scores.Consistency = consistencyScore(a.Consistency)
	a.Scores.Performance = performanceScore(a.AvgBuyPrice, a.CurrentPrice)
	a.Scores.Overall = round1(timingWeight*a.Scores.Timing +
		consistencyWeight*a.Scores.Consistency +
		performanceWeight*a.Scores.Performance)

	a.Scenarios = buildScenarios(buys, a)
	a.Recommendations = buildRecommendations(a)

	return a
}

// collectBuys filters, converts and time-orders the buy transactions. The
// second return reports whether any conversion fell back to the 1.0 rate.
func collectBuys(in DCAInput) ([]buyPoint, bool) {
	buys := make([]buyPoint, 0, len(in.Transactions))
	degraded := false
	for _, tx := range in.Transactions {
		if tx.Kind != models.TransactionKindBuy {
			continue
		}
		unit := in.Rates.Convert(tx.PricePerBTC, tx.Currency)
		total := in.Rates.Convert(tx.TotalAmount, tx.Currency)
		degraded = degraded || unit.UsedFallback || total.UsedFallback
		buys = append(buys, buyPoint{
			at:       tx.Timestamp,
			price:    unit.Amount,
			btc:      tx.BTCAmount,
			invested: total.Amount,
		})
	}
	sort.SliceStable(buys, func(i, j int) bool { return buys[i].at.Before(buys[j].at) })
	return buys, degraded
}

// belowLocalAvgPct compares each buy against the mean price of all buys
// within the local window around it (itself included) and returns the
// BTC-weighted share of volume bought strictly below its local reference.
func belowLocalAvgPct(buys []buyPoint) float64 {
	var totalBTC, belowBTC decimal.Decimal
	for _, b := range buys {
		sum := decimal.Zero
		count := 0
		for _, other := range buys {
			delta := b.at.Sub(other.at)
			if delta < 0 {
				delta = -delta
			}
			if delta <= localWindow {
				sum = sum.Add(other.price)
				count++
			}
		}
		// The buy itself is always in its own window, so count >= 1.
		localRef := sum.Div(decimal.New(int64(count), 0))
		totalBTC = totalBTC.Add(b.btc)
		if b.price.LessThan(localRef) {
			belowBTC = belowBTC.Add(b.btc)
		}
	}
	if !totalBTC.IsPositive() {
		return 0
	}
	return belowBTC.Div(totalBTC).Mul(decimal.New(100, 0)).InexactFloat64()
}

// analyzeConsistency derives calendar-month activity and the longest gap
// between consecutive buys.
func analyzeConsistency(buys []buyPoint) ConsistencyAnalysis {
	c := ConsistencyAnalysis{}

	active := make(map[string]struct{})
	for _, b := range buys {
		active[monthKey(b.at)] = struct{}{}
	}
	c.ActiveMonths = len(active)
	c.TotalMonths = monthSpan(buys[0].at, buys[len(buys)-1].at)
	c.MissedMonths = c.TotalMonths - c.ActiveMonths
	c.ActivityPct = float64(c.ActiveMonths) / float64(c.TotalMonths) * 100

	for i := 1; i < len(buys); i++ {
		gap := buys[i].at.Sub(buys[i-1].at).Hours() / 24
		if gap > c.LongestGapDays {
			c.LongestGapDays = gap
		}
	}
	c.GapPenalty = gapPenalty(c.LongestGapDays)
	return c
}

// gapPenalty ramps from 0 after a 45-day grace period to 15 points at a
// 90-day gap, then on to a hard cap of 30.
func gapPenalty(gapDays float64) float64 {
	switch {
	case gapDays <= 45:
		return 0
	case gapDays <= 90:
		return (gapDays - 45) / 45 * 15
	default:
		extra := (gapDays - 90) / 30 * 5
		if extra > 15 {
			extra = 15
		}
		return 15 + extra
	}
}

// timingScore maps the below-local-average share onto a 0-10 score through
// piecewise-linear bands. More volume bought below local average always
// scores at least as well.
func timingScore(belowPct float64) float64 {
	switch {
	case belowPct >= 50:
		return 10
	case belowPct >= 40:
		return 8.5 + (belowPct-40)/10*1.5
	case belowPct >= 30:
		return 7 + (belowPct-30)/10*1.5
	case belowPct >= 20:
		return 5.5 + (belowPct-20)/10*1.5
	case belowPct >= 10:
		return 4 + (belowPct-10)/10*1.5
	default:
		return 2.5 + belowPct/10*1.5
	}
}

// consistencyScore compresses activity minus gap penalty onto 0-10.
func consistencyScore(c ConsistencyAnalysis) float64 {
	score := c.ActivityPct - c.GapPenalty
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score / 10
}

// performanceScore centers at 5 when the average cost equals the current
// price and moves one point per 10% discount or premium.
func performanceScore(avgBuy, current decimal.Decimal) float64 {
	if !current.IsPositive() || !avgBuy.IsPositive() {
		return 0
	}
	discount := current.Sub(avgBuy).Div(current).InexactFloat64()
	score := 5 + discount*10
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// buildScenarios values the lump-sum and perfect-timing counterfactuals
// against the actual strategy.
func buildScenarios(buys []buyPoint, a Analysis) []Scenario {
	firstPrice := buys[0].price
	minPrice := buys[0].price
	for _, b := range buys[1:] {
		if b.price.LessThan(minPrice) {
			minPrice = b.price
		}
	}

	actual := a.CurrentValue
	scenarios := make([]Scenario, 0, 2)
	scenarios = append(scenarios, scenarioAt("lump_sum", a.TotalInvested, firstPrice, a.CurrentPrice, actual))
	scenarios = append(scenarios, scenarioAt("perfect_timing", a.TotalInvested, minPrice, a.CurrentPrice, actual))
	return scenarios
}

// scenarioAt invests the whole capital at a single entry price.
func scenarioAt(name string, capital, entryPrice, currentPrice, actual decimal.Decimal) Scenario {
	s := Scenario{Name: name}
	if !entryPrice.IsPositive() {
		return s
	}
	s.BTCAcquired = capital.Div(entryPrice)
	s.CurrentValue = s.BTCAcquired.Mul(currentPrice)
	s.Delta = s.CurrentValue.Sub(actual)
	if actual.IsPositive() {
		s.DeltaPct = s.Delta.Div(actual).Mul(decimal.New(100, 0)).InexactFloat64()
	}
	return s
}

// buildRecommendations applies the threshold rules in a fixed order and
// caps the list at five entries.
func buildRecommendations(a Analysis) []Recommendation {
	recs := []Recommendation{}

	if a.Scores.Overall >= 8 {
		recs = append(recs, Recommendation{
			Code:    "strategy_on_track",
			Message: "Your DCA strategy is working well. Keep the current rhythm going.",
		})
	}
	if a.Consistency.MissedMonths > 3 {
		recs = append(recs, Recommendation{
			Code:    "automate_purchases",
			Message: fmt.Sprintf("You skipped buying in %d months. A recurring plan keeps the schedule for you.", a.Consistency.MissedMonths),
		})
	}
	if a.Consistency.LongestGapDays > 60 {
		recs = append(recs, Recommendation{
			Code:    "long_gap_warning",
			Message: fmt.Sprintf("Your longest pause between purchases was %.0f days. Smaller, regular buys smooth out your cost basis.", a.Consistency.LongestGapDays),
		})
	}
	if a.Timing.BelowLocalAvgPct < 25 && a.Timing.BuysAnalyzed >= 3 {
		recs = append(recs, Recommendation{
			Code:    "buy_the_dips",
			Message: "Little of your volume was bought below its local average price. Spreading buys across the week can improve entries.",
		})
	}
	if a.Scores.Performance < 3 {
		recs = append(recs, Recommendation{
			Code:    "underwater_average",
			Message: "Your average cost sits well above the current price. Continuing to buy now brings the average down.",
		})
	}
	if a.Consistency.MissedMonths == 0 && a.Consistency.TotalMonths >= 3 {
		recs = append(recs, Recommendation{
			Code:    "steady_stacker",
			Message: "You bought in every month since you started. Consistency is the hardest part, and you have it.",
		})
	}

	if len(recs) > 5 {
		recs = recs[:5]
	}
	return recs
}
