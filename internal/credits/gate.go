// Package credits meters paid operations against a monthly credit allowance.
//
// Metering is two-phase: Authorize checks the (refilled) balance against an
// estimate before the work starts, Settle charges the actual cost after it
// succeeded. Settle never re-checks the balance, so a slightly larger actual
// cost may overdraw the account rather than discard completed work.
package credits

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"speechable/internal/domain"
)

// Denial reasons reported in Authorization.Reason.
const (
	ReasonInsufficientCredits = "InsufficientCredits"
	ReasonNoCreditAccount     = "NoCreditAccount"
)

// DefaultUnitRate is the credit price of one unit (one token).
const DefaultUnitRate = 0.001

// Authorization is the outcome of a pre-check.
type Authorization struct {
	Authorized bool    `json:"authorized"`
	UserID     string  `json:"userId,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	Required   float64 `json:"required"`
	Available  float64 `json:"available"`
}

// Settlement is the outcome of a deduction.
type Settlement struct {
	NewBalance     float64 `json:"newBalance"`
	UnitsCharged   float64 `json:"unitsCharged"`
	CreditsCharged float64 `json:"creditsCharged"`
	Replayed       bool    `json:"replayed,omitempty"`
}

// Gate authorizes and settles metered operations.
type Gate struct {
	repo     domain.CreditRepository
	unitRate float64
	logger   zerolog.Logger
}

// NewGate creates a Gate. A non-positive unitRate selects DefaultUnitRate.
func NewGate(repo domain.CreditRepository, unitRate float64, logger zerolog.Logger) *Gate {
	if unitRate <= 0 {
		unitRate = DefaultUnitRate
	}
	return &Gate{repo: repo, unitRate: unitRate, logger: logger}
}

// Cost converts units to credits, rounded to the ledger's precision.
func (g *Gate) Cost(units float64) float64 {
	return roundCredits(units * g.unitRate)
}

// Authorize refills the balance if due and checks it covers estimatedUnits.
// Errors are returned only when the check itself could not run; callers must
// then refuse the operation.
func (g *Gate) Authorize(ctx context.Context, userID string, estimatedUnits float64) (Authorization, error) {
	if strings.TrimSpace(userID) == "" {
		return Authorization{}, domain.ErrUnauthorized
	}
	if estimatedUnits < 0 || math.IsNaN(estimatedUnits) {
		return Authorization{}, fmt.Errorf("%w: negative estimate", domain.ErrInvalidInput)
	}
	required := g.Cost(estimatedUnits)
	balance, err := g.repo.RefillAndGet(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Authorization{UserID: userID, Reason: ReasonNoCreditAccount, Required: required}, nil
		}
		g.logger.Error().Err(err).Str("user_id", userID).Msg("credit check failed")
		return Authorization{}, fmt.Errorf("%w: credit check: %v", domain.ErrServiceUnavailable, err)
	}
	auth := Authorization{
		UserID:    userID,
		Required:  required,
		Available: roundCredits(balance.Credits),
	}
	if !balance.Covers(required) {
		auth.Reason = ReasonInsufficientCredits
		return auth, nil
	}
	auth.Authorized = true
	return auth, nil
}

// Settle charges actualUnits after a successful operation. requestID scopes
// the charge so a retried settle is not billed twice.
func (g *Gate) Settle(ctx context.Context, userID, requestID string, actualUnits float64) (Settlement, error) {
	if strings.TrimSpace(userID) == "" {
		return Settlement{}, domain.ErrUnauthorized
	}
	if actualUnits < 0 || math.IsNaN(actualUnits) {
		return Settlement{}, fmt.Errorf("%w: negative usage", domain.ErrInvalidInput)
	}
	cost := g.Cost(actualUnits)
	res, err := g.repo.Deduct(ctx, userID, requestID, cost)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Settlement{}, err
		}
		g.logger.Error().Err(err).Str("user_id", userID).Str("request_id", requestID).Msg("credit deduction failed")
		return Settlement{}, fmt.Errorf("%w: credit deduction: %v", domain.ErrServiceUnavailable, err)
	}
	units := actualUnits
	if res.Replayed {
		units = res.Charged / g.unitRate
	}
	return Settlement{
		NewBalance:     roundCredits(res.NewBalance),
		UnitsCharged:   units,
		CreditsCharged: roundCredits(res.Charged),
		Replayed:       res.Replayed,
	}, nil
}

// Balance returns the refilled balance for display.
func (g *Gate) Balance(ctx context.Context, userID string) (*domain.CreditBalance, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrUnauthorized
	}
	balance, err := g.repo.RefillAndGet(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: credit balance: %v", domain.ErrServiceUnavailable, err)
	}
	return balance, nil
}

func roundCredits(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
