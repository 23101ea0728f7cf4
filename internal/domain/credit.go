package domain

import "time"

// CreditBalance mirrors the per-user balance row owned by the database.
type CreditBalance struct {
	UserID           string
	Credits          float64
	MonthlyAllowance float64
	NextRefillDate   time.Time
}

// Covers reports whether the balance can pay for cost.
func (b CreditBalance) Covers(cost float64) bool {
	return b.Credits >= cost
}

// CreditSettlement is the outcome of a single deduction.
type CreditSettlement struct {
	UserID     string
	RequestID  string
	Charged    float64
	NewBalance float64
	Replayed   bool // the request id had already been settled
}
