package handlers

import (
	"errors"
	"net/http"
	"time"

	"speechable/internal/domain"
)

type creditsResponse struct {
	Credits          float64   `json:"credits"`
	MonthlyAllowance float64   `json:"monthlyAllowance"`
	NextRefillDate   time.Time `json:"nextRefillDate"`
}

// GetCredits returns the caller's balance, refilling it first when due.
func (a *App) GetCredits(w http.ResponseWriter, r *http.Request) {
	userID := a.requireUser(w, r)
	if userID == "" {
		return
	}
	balance, err := a.Credits.Balance(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "No credit account")
			return
		}
		a.creditError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, creditsResponse{
		Credits:          balance.Credits,
		MonthlyAllowance: balance.MonthlyAllowance,
		NextRefillDate:   balance.NextRefillDate,
	})
}
