package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlanFrequency is how often a recurring plan executes.
type PlanFrequency string

const (
	FrequencyDaily    PlanFrequency = "daily"
	FrequencyWeekly   PlanFrequency = "weekly"
	FrequencyBiweekly PlanFrequency = "biweekly"
	FrequencyMonthly  PlanFrequency = "monthly"
)

// RecurringPlan schedules automatic purchases (or sales) of a fixed fiat
// amount of BTC. Scheduling state (NextExecution, ExecutionCount, IsPaused)
// is advanced by the executor; everything else is edited by the user.
// Plans are never deleted physically while ledger rows reference them;
// deletion sets IsActive to false.
type RecurringPlan struct {
	Base
	UserID string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Name   string          `gorm:"not null" json:"name"`
	Kind   TransactionKind `gorm:"not null;default:'buy'" json:"kind"`

	FiatAmount  decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"fiat_amount"`
	Currency    string          `gorm:"not null;default:'USD'" json:"currency"`
	Fee         decimal.Decimal `gorm:"type:numeric(20,8)" json:"fee"`
	FeeCurrency string          `gorm:"not null;default:'USD'" json:"fee_currency"`

	Frequency      PlanFrequency `gorm:"not null" json:"frequency"`
	StartDate      time.Time     `gorm:"not null" json:"start_date"`
	EndDate        *time.Time    `json:"end_date,omitempty"`
	MaxOccurrences *int          `json:"max_occurrences,omitempty"`

	NextExecution  time.Time `gorm:"not null;index" json:"next_execution"`
	ExecutionCount int       `gorm:"not null;default:0" json:"execution_count"`
	IsPaused       bool      `gorm:"not null;default:false" json:"is_paused"`
	IsActive       bool      `gorm:"not null;default:true" json:"is_active"`

	// Optional wallet the generated transactions are attributed to.
	DestinationWalletID *string `gorm:"type:uuid" json:"destination_wallet_id,omitempty"`
}

// Completed reports whether the plan has reached its occurrence limit.
func (p *RecurringPlan) Completed() bool {
	return p.MaxOccurrences != nil && p.ExecutionCount >= *p.MaxOccurrences
}

// Expired reports whether t falls past the plan's end date.
func (p *RecurringPlan) Expired(t time.Time) bool {
	return p.EndDate != nil && t.After(*p.EndDate)
}
