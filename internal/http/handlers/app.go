package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"speechable/internal/credits"
	"speechable/internal/domain"
	"speechable/internal/extractor"
	"speechable/internal/middleware"
	"speechable/internal/ocr"
	"speechable/internal/providers/completion"
)

// URLExtractor imports a web page.
type URLExtractor interface {
	Extract(ctx context.Context, rawURL string) (*extractor.Result, error)
}

// CreditGate meters paid operations.
type CreditGate interface {
	Authorize(ctx context.Context, userID string, estimatedUnits float64) (credits.Authorization, error)
	Settle(ctx context.Context, userID, requestID string, actualUnits float64) (credits.Settlement, error)
	Balance(ctx context.Context, userID string) (*domain.CreditBalance, error)
	Cost(units float64) float64
}

// Completer runs text transforms against a chat-completion API.
type Completer interface {
	Complete(ctx context.Context, req completion.Request) (*completion.Response, error)
}

// ImageRecognizer runs OCR over a batch of images.
type ImageRecognizer interface {
	Process(ctx context.Context, images []ocr.Image) (*ocr.BatchResult, error)
}

// App carries the collaborators shared by all handlers. Completion and Recognizer
// are nil when their upstream is not configured.
type App struct {
	Logger     zerolog.Logger
	Extractor  URLExtractor
	Credits    CreditGate
	Completion Completer
	Recognizer ImageRecognizer
	Documents  domain.DocumentRepository
	Usage      domain.UsageRepository
	Ping       func(ctx context.Context) error
}

const maxJSONBody = 5 << 20

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// error writes {"error": msg, "code": code}.
func (a *App) error(w http.ResponseWriter, status int, code, msg string) {
	a.json(w, status, map[string]string{"error": msg, "code": code})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// requireUser writes 401 and returns "" when the request is anonymous.
func (a *App) requireUser(w http.ResponseWriter, r *http.Request) string {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
	}
	return userID
}

// decodeJSON reads a bounded JSON body into dst.
func (a *App) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "too_large", "request body too large")
			return false
		}
		if errors.Is(err, io.EOF) {
			a.error(w, http.StatusBadRequest, "bad_request", "request body is required")
			return false
		}
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	return true
}

// internal logs err with request context and writes a generic 500.
func (a *App) internal(w http.ResponseWriter, r *http.Request, err error, msg string) {
	a.Logger.Error().
		Err(err).
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Str("path", r.URL.Path).
		Msg(msg)
	a.error(w, http.StatusInternalServerError, "internal", msg)
}

// recordUsage stores an audit event. Failures are logged only.
func (a *App) recordUsage(r *http.Request, kind domain.UsageEventType, start time.Time, err error, props map[string]any) {
	if a.Usage == nil {
		return
	}
	event := domain.UsageEvent{
		UserID:     a.currentUserID(r),
		RequestID:  middleware.RequestIDFromContext(r.Context()),
		Type:       kind,
		Success:    err == nil,
		LatencyMS:  int(time.Since(start).Milliseconds()),
		Properties: props,
	}
	if err != nil {
		if event.Properties == nil {
			event.Properties = map[string]any{}
		}
		event.Properties["error"] = err.Error()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 3*time.Second)
	defer cancel()
	if rerr := a.Usage.RecordUsage(ctx, event); rerr != nil {
		a.Logger.Warn().Err(rerr).Str("type", string(kind)).Msg("record usage failed")
	}
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
