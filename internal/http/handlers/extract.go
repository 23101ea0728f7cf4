package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"speechable/internal/domain"
	"speechable/internal/extractor"
)

type extractURLRequest struct {
	URL string `json:"url"`
}

type extractResponse struct {
	Title             string               `json:"title"`
	Author            string               `json:"author"`
	Text              string               `json:"text"`
	Description       string               `json:"description"`
	Image             *string              `json:"image"`
	SiteName          string               `json:"siteName"`
	Lang              string               `json:"lang"`
	ProcessedText     domain.ProcessedText `json:"processed_text"`
	ScreenshotDataURL *string              `json:"screenshotDataUrl"`
}

func newExtractResponse(title, author, text, description, siteName, lang string, sections []domain.Section, screenshot string) extractResponse {
	if sections == nil {
		sections = []domain.Section{}
	}
	resp := extractResponse{
		Title:         title,
		Author:        author,
		Text:          text,
		Description:   description,
		SiteName:      siteName,
		Lang:          lang,
		ProcessedText: domain.ProcessedText{Sections: sections},
	}
	if screenshot != "" {
		resp.ScreenshotDataURL = &screenshot
	}
	return resp
}

// ExtractURL imports a web page and returns its narratable sections.
func (a *App) ExtractURL(w http.ResponseWriter, r *http.Request) {
	if a.requireUser(w, r) == "" {
		return
	}
	var req extractURLRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}
	if req.URL == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "url is required")
		return
	}

	start := time.Now()
	res, err := a.Extractor.Extract(r.Context(), req.URL)
	a.recordUsage(r, domain.UsageExtractURL, start, err, map[string]any{"url": req.URL})
	if err != nil {
		a.writeImportError(w, r, err, "failed to extract content")
		return
	}

	a.json(w, http.StatusOK, newExtractResponse(
		res.Title, res.Author, res.Text, res.Description, res.SiteName, res.Lang,
		res.Sections, res.ScreenshotDataURL,
	))
}

// fetchFailure forwards the upstream HTTP status of a failed page fetch.
type fetchFailure struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Status int    `json:"status"`
}

// writeImportError maps extraction failures to client-facing errors.
func (a *App) writeImportError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var fetchErr *extractor.FetchError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		a.error(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, domain.ErrNoContent):
		a.error(w, http.StatusBadRequest, "no_content", "no readable content found")
	case errors.As(err, &fetchErr):
		a.json(w, http.StatusBadRequest, fetchFailure{
			Error:  fmt.Sprintf("failed to fetch the page: status %d", fetchErr.Status),
			Code:   "fetch_failed",
			Status: fetchErr.Status,
		})
	case errors.Is(err, domain.ErrUpstreamFailure):
		a.error(w, http.StatusBadRequest, "fetch_failed", fallback)
	default:
		a.internal(w, r, err, fallback)
	}
}
