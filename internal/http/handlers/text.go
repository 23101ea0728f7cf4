package handlers

import (
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"speechable/internal/credits"
	"speechable/internal/domain"
	"speechable/internal/middleware"
	"speechable/internal/providers/completion"
)

type textRequest struct {
	Text  string `json:"text"`
	Title string `json:"title"`
}

type textResponse struct {
	Result           string  `json:"result"`
	CreditsUsed      float64 `json:"creditsUsed"`
	CreditsRemaining float64 `json:"creditsRemaining"`
}

type creditDenial struct {
	Error     string  `json:"error"`
	Reason    string  `json:"reason"`
	Required  float64 `json:"required"`
	Available float64 `json:"available"`
}

// TransformText runs a metered LLM transform selected by the {transform}
// route parameter.
func (a *App) TransformText(w http.ResponseWriter, r *http.Request) {
	userID := a.requireUser(w, r)
	if userID == "" {
		return
	}
	transform := completion.Transform(chi.URLParam(r, "transform"))
	if !transform.Valid() {
		a.error(w, http.StatusNotFound, "not_found", "unknown transform")
		return
	}
	var req textRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "text is required")
		return
	}
	if a.Completion == nil {
		a.error(w, http.StatusInternalServerError, "not_configured", "Service not configured")
		return
	}

	inputTokens := credits.EstimateTokens(req.Text + req.Title)
	estimate := math.Ceil(inputTokens * (1 + transform.OutputFactor()))
	auth, err := a.Credits.Authorize(r.Context(), userID, estimate)
	if err != nil {
		a.creditError(w, r, err)
		return
	}
	if !auth.Authorized {
		a.denyCredits(w, auth)
		return
	}

	start := time.Now()
	out, err := a.Completion.Complete(r.Context(), completion.Request{
		Transform: transform,
		Text:      req.Text,
		Title:     req.Title,
		Locale:    middleware.LocaleFromContext(r.Context()),
	})
	props := map[string]any{"estimated_tokens": estimate}
	if out != nil {
		props["total_tokens"] = out.TotalTokens
		props["model"] = out.Model
	}
	a.recordUsage(r, transform.UsageType(), start, err, props)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			a.error(w, http.StatusBadRequest, "invalid_input", err.Error())
			return
		}
		a.internal(w, r, err, "failed to process text")
		return
	}

	units := estimate
	if out.TotalTokens > 0 {
		units = float64(out.TotalTokens)
	}
	used := a.Credits.Cost(units)
	remaining := auth.Available - used
	settled, err := a.settle(r, userID, units)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Float64("units", units).Msg("settle credits failed")
	} else {
		used = settled.CreditsCharged
		remaining = settled.NewBalance
	}

	a.json(w, http.StatusOK, textResponse{
		Result:           out.Text,
		CreditsUsed:      used,
		CreditsRemaining: remaining,
	})
}

// settle charges one authorized transform. The settlement id is minted here,
// never taken from the client, so every transform is charged; it is reused
// only for the single retry so a lost response cannot charge twice.
func (a *App) settle(r *http.Request, userID string, units float64) (credits.Settlement, error) {
	settlementID := uuid.NewString()
	settled, err := a.Credits.Settle(r.Context(), userID, settlementID, units)
	if err == nil || errors.Is(err, domain.ErrNotFound) || r.Context().Err() != nil {
		return settled, err
	}
	a.Logger.Warn().Err(err).Str("user_id", userID).Msg("settle credits failed, retrying")
	return a.Credits.Settle(r.Context(), userID, settlementID, units)
}

func (a *App) denyCredits(w http.ResponseWriter, auth credits.Authorization) {
	status, msg := http.StatusPaymentRequired, "Insufficient credits"
	if auth.Reason == credits.ReasonNoCreditAccount {
		status, msg = http.StatusForbidden, "No credit account"
	}
	a.json(w, status, creditDenial{
		Error:     msg,
		Reason:    auth.Reason,
		Required:  auth.Required,
		Available: auth.Available,
	})
}

func (a *App) creditError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrUnauthorized) {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	a.internal(w, r, err, "credit check failed")
}
