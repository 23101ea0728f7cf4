package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"speechable/internal/domain"
	"speechable/internal/extractor"
)

type documentPayload struct {
	Title            string           `json:"title"`
	Author           string           `json:"author"`
	SourceURL        string           `json:"sourceUrl"`
	SourceKind       string           `json:"sourceKind"`
	Category         string           `json:"category"`
	Starred          bool             `json:"starred"`
	Lang             string           `json:"lang"`
	Text             string           `json:"text"`
	Sections         []domain.Section `json:"sections"`
	ThumbnailDataURL string           `json:"thumbnailDataUrl"`
}

type documentPatchPayload struct {
	Title    *string `json:"title"`
	Category *string `json:"category"`
	Starred  *bool   `json:"starred"`
}

type documentResponse struct {
	ID               string               `json:"id"`
	Title            string               `json:"title"`
	Author           string               `json:"author"`
	SourceURL        string               `json:"sourceUrl"`
	SourceKind       domain.SourceKind    `json:"sourceKind"`
	Category         string               `json:"category"`
	Starred          bool                 `json:"starred"`
	Lang             string               `json:"lang"`
	Text             string               `json:"text,omitempty"`
	ProcessedText    domain.ProcessedText `json:"processed_text"`
	ThumbnailDataURL *string              `json:"thumbnailDataUrl"`
	CreatedAt        time.Time            `json:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt"`
}

func toDocumentResponse(doc *domain.Document, withBody bool) documentResponse {
	resp := documentResponse{
		ID:         doc.ID,
		Title:      doc.Title,
		Author:     doc.Author,
		SourceURL:  doc.SourceURL,
		SourceKind: doc.SourceKind,
		Category:   doc.Category,
		Starred:    doc.Starred,
		Lang:       doc.Lang,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
	resp.ProcessedText.Sections = []domain.Section{}
	if withBody {
		resp.Text = doc.Text
		if doc.Sections != nil {
			resp.ProcessedText.Sections = doc.Sections
		}
	}
	if doc.ThumbnailDataURL != "" {
		thumb := doc.ThumbnailDataURL
		resp.ThumbnailDataURL = &thumb
	}
	return resp
}

// CreateDocument saves an imported document to the caller's library. When no
// sections are supplied they are derived from the text.
func (a *App) CreateDocument(w http.ResponseWriter, r *http.Request) {
	userID := a.requireUser(w, r)
	if userID == "" {
		return
	}
	var req documentPayload
	if !a.decodeJSON(w, r, &req) {
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "title is required")
		return
	}
	kind := domain.SourceKind(strings.ToLower(strings.TrimSpace(req.SourceKind)))
	if kind == "" {
		kind = domain.SourceKindText
	}
	if !kind.Valid() {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid sourceKind")
		return
	}
	if strings.TrimSpace(req.Text) == "" && len(req.Sections) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "text or sections are required")
		return
	}
	if kind == domain.SourceKindURL {
		if _, err := extractor.ParseURL(req.SourceURL); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "invalid sourceUrl")
			return
		}
	}
	sections := req.Sections
	if len(sections) == 0 {
		sections = extractor.BuildSections(extractor.TextBlocks(req.Text), req.Title)
	}

	doc := &domain.Document{
		UserID:           userID,
		Title:            req.Title,
		Author:           strings.TrimSpace(req.Author),
		SourceURL:        strings.TrimSpace(req.SourceURL),
		SourceKind:       kind,
		Category:         strings.TrimSpace(req.Category),
		Starred:          req.Starred,
		Lang:             req.Lang,
		Text:             req.Text,
		Sections:         sections,
		ThumbnailDataURL: req.ThumbnailDataURL,
	}
	if err := a.Documents.Create(r.Context(), doc); err != nil {
		a.internal(w, r, err, "failed to save document")
		return
	}
	a.json(w, http.StatusCreated, toDocumentResponse(doc, true))
}

// ListDocuments returns the caller's library without document bodies.
func (a *App) ListDocuments(w http.ResponseWriter, r *http.Request) {
	userID := a.requireUser(w, r)
	if userID == "" {
		return
	}
	q := r.URL.Query()
	filter := domain.DocumentFilter{Category: strings.TrimSpace(q.Get("category"))}
	if raw := q.Get("starred"); raw != "" {
		starred, err := strconv.ParseBool(raw)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "starred must be a boolean")
			return
		}
		filter.Starred = &starred
	}
	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "limit must be an integer")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "offset must be an integer")
		return
	}

	docs, err := a.Documents.List(r.Context(), userID, filter)
	if err != nil {
		a.internal(w, r, err, "failed to list documents")
		return
	}
	items := make([]documentResponse, 0, len(docs))
	for i := range docs {
		items = append(items, toDocumentResponse(&docs[i], false))
	}
	a.json(w, http.StatusOK, map[string]any{"documents": items})
}

func (a *App) GetDocument(w http.ResponseWriter, r *http.Request) {
	userID := a.requireUser(w, r)
	if userID == "" {
		return
	}
	doc, err := a.Documents.GetByID(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		a.documentError(w, r, err, "failed to load document")
		return
	}
	a.json(w, http.StatusOK, toDocumentResponse(doc, true))
}

// UpdateDocument applies a partial update of title, category and starred.
func (a *App) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	userID := a.requireUser(w, r)
	if userID == "" {
		return
	}
	var req documentPatchPayload
	if !a.decodeJSON(w, r, &req) {
		return
	}
	patch := domain.DocumentPatch{Title: req.Title, Category: req.Category, Starred: req.Starred}
	if patch.Empty() {
		a.error(w, http.StatusBadRequest, "bad_request", "nothing to update")
		return
	}
	if patch.Title != nil {
		title := trimmed(patch.Title)
		if title == "" {
			a.error(w, http.StatusBadRequest, "bad_request", "title cannot be empty")
			return
		}
		patch.Title = &title
	}
	if patch.Category != nil {
		category := trimmed(patch.Category)
		patch.Category = &category
	}

	doc, err := a.Documents.Update(r.Context(), userID, chi.URLParam(r, "id"), patch)
	if err != nil {
		a.documentError(w, r, err, "failed to update document")
		return
	}
	a.json(w, http.StatusOK, toDocumentResponse(doc, true))
}

func (a *App) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	userID := a.requireUser(w, r)
	if userID == "" {
		return
	}
	if err := a.Documents.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		a.documentError(w, r, err, "failed to delete document")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) documentError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "document not found")
	case errors.Is(err, domain.ErrInvalidInput):
		a.error(w, http.StatusBadRequest, "bad_request", "invalid document id")
	default:
		a.internal(w, r, err, msg)
	}
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
