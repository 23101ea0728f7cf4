package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"speechable/internal/credits"
	"speechable/internal/domain"
	"speechable/internal/extractor"
	"speechable/internal/middleware"
	"speechable/internal/ocr"
	"speechable/internal/providers/completion"
)

type stubExtractor struct {
	res *extractor.Result
	err error
	got string
}

func (s *stubExtractor) Extract(_ context.Context, rawURL string) (*extractor.Result, error) {
	s.got = rawURL
	return s.res, s.err
}

type stubGate struct {
	auth      credits.Authorization
	authErr   error
	settle    credits.Settlement
	settleErr error
	balance   *domain.CreditBalance
	balErr    error
	rate      float64

	estimated  float64
	settled    float64
	requestIDs []string
}

func (g *stubGate) Authorize(_ context.Context, userID string, units float64) (credits.Authorization, error) {
	g.estimated = units
	return g.auth, g.authErr
}

func (g *stubGate) Settle(_ context.Context, userID, requestID string, units float64) (credits.Settlement, error) {
	g.settled = units
	g.requestIDs = append(g.requestIDs, requestID)
	return g.settle, g.settleErr
}

func (g *stubGate) Balance(context.Context, string) (*domain.CreditBalance, error) {
	return g.balance, g.balErr
}

func (g *stubGate) Cost(units float64) float64 {
	return units * g.rate
}

type stubCompleter struct {
	resp *completion.Response
	err  error
	got  completion.Request
}

func (c *stubCompleter) Complete(_ context.Context, req completion.Request) (*completion.Response, error) {
	c.got = req
	return c.resp, c.err
}

type stubRecognizer struct {
	res *ocr.BatchResult
	err error
	got []ocr.Image
}

func (s *stubRecognizer) Process(_ context.Context, images []ocr.Image) (*ocr.BatchResult, error) {
	s.got = images
	return s.res, s.err
}

type memoryDocuments struct {
	docs      map[string]*domain.Document
	listed    domain.DocumentFilter
	createErr error
}

func newMemoryDocuments() *memoryDocuments {
	return &memoryDocuments{docs: map[string]*domain.Document{}}
}

func (m *memoryDocuments) Create(_ context.Context, doc *domain.Document) error {
	if m.createErr != nil {
		return m.createErr
	}
	if doc.ID == "" {
		doc.ID = "doc-1"
	}
	doc.CreatedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	doc.UpdatedAt = doc.CreatedAt
	m.docs[doc.ID] = doc
	return nil
}

func (m *memoryDocuments) GetByID(_ context.Context, userID, id string) (*domain.Document, error) {
	doc, ok := m.docs[id]
	if !ok || doc.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func (m *memoryDocuments) List(_ context.Context, userID string, filter domain.DocumentFilter) ([]domain.Document, error) {
	m.listed = filter
	var out []domain.Document
	for _, doc := range m.docs {
		if doc.UserID == userID {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (m *memoryDocuments) Update(ctx context.Context, userID, id string, patch domain.DocumentPatch) (*domain.Document, error) {
	doc, err := m.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		doc.Title = *patch.Title
	}
	if patch.Category != nil {
		doc.Category = *patch.Category
	}
	if patch.Starred != nil {
		doc.Starred = *patch.Starred
	}
	return doc, nil
}

func (m *memoryDocuments) Delete(ctx context.Context, userID, id string) error {
	if _, err := m.GetByID(ctx, userID, id); err != nil {
		return err
	}
	delete(m.docs, id)
	return nil
}

type memoryUsage struct {
	mu     sync.Mutex
	events []domain.UsageEvent
}

func (m *memoryUsage) RecordUsage(_ context.Context, event domain.UsageEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func newTestApp() (*App, *memoryUsage) {
	usage := &memoryUsage{}
	return &App{
		Logger:    zerolog.Nop(),
		Documents: newMemoryDocuments(),
		Usage:     usage,
	}, usage
}

// authedRequest builds a request carrying a user id, a request id and
// optional chi URL params given as key/value pairs.
func authedRequest(method, target string, body io.Reader, params ...string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	ctx := middleware.ContextWithUserID(req.Context(), "user-1")
	ctx = middleware.ContextWithRequestID(ctx, "req-1")
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for i := 0; i+1 < len(params); i += 2 {
			rctx.URLParams.Add(params[i], params[i+1])
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}
