package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"speechable/internal/credits"
	"speechable/internal/domain"
	"speechable/internal/http/handlers"
	"speechable/internal/middleware"
)

const testSecret = "router-secret"

type balanceGate struct {
	credits.Gate
	userID string
}

func (g *balanceGate) Balance(_ context.Context, userID string) (*domain.CreditBalance, error) {
	g.userID = userID
	return &domain.CreditBalance{UserID: userID, Credits: 3, MonthlyAllowance: 10}, nil
}

func newTestRouter(gate handlers.CreditGate) http.Handler {
	app := &handlers.App{Logger: zerolog.Nop(), Credits: gate}
	return NewRouter(app, Options{
		Logger:          zerolog.Nop(),
		JWTSecret:       testSecret,
		CORSOrigins:     []string{"http://localhost:3000"},
		RateLimitPerMin: 100,
	})
}

func bearer(t *testing.T, sub string) string {
	t.Helper()
	token, err := middleware.SignJWT(testSecret, middleware.TokenClaims{Sub: sub, Exp: time.Now().Add(time.Hour).Unix()})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	return "Bearer " + token
}

func TestHealthIsPublic(t *testing.T) {
	h := newTestRouter(&balanceGate{})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Header().Get(middleware.RequestIDHeader) == "" {
		t.Fatal("request id header missing")
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newTestRouter(&balanceGate{})
	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/v1/extract-url"},
		{http.MethodPost, "/v1/extract-pdf"},
		{http.MethodPost, "/v1/ocr"},
		{http.MethodPost, "/v1/text/lecture"},
		{http.MethodGet, "/v1/credits"},
		{http.MethodGet, "/v1/documents"},
		{http.MethodDelete, "/v1/documents/abc"},
	} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(route.method, route.path, nil))
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: status = %d, want 401", route.method, route.path, rr.Code)
		}
	}
}

func TestCreditsRouteUsesTokenSubject(t *testing.T) {
	gate := &balanceGate{}
	h := newTestRouter(gate)

	req := httptest.NewRequest(http.MethodGet, "/v1/credits", nil)
	req.Header.Set("Authorization", bearer(t, "user-42"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if gate.userID != "user-42" {
		t.Fatalf("balance requested for %q", gate.userID)
	}
	var body map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["credits"] != 3.0 {
		t.Fatalf("credits = %#v", body["credits"])
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	h := newTestRouter(&balanceGate{})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/nothing", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
}
