// Package extractor turns a web page into titled sections of narratable text.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"speechable/internal/domain"
)

// MinTextLength is the shortest plain text accepted as real content.
const MinTextLength = 50

// Result is the outcome of a URL import.
type Result struct {
	Title             string
	Author            string
	Text              string
	Description       string
	SiteName          string
	Lang              string
	Sections          []domain.Section
	ScreenshotDataURL string
}

// Options wires the collaborators of an Extractor. Fetcher defaults to an
// HTTPFetcher and Extractors to readability followed by trafilatura. A nil
// Screenshotter disables thumbnails.
type Options struct {
	Fetcher           Fetcher
	Extractors        []ContentExtractor
	Screenshotter     Screenshotter
	ScreenshotTimeout time.Duration
	Logger            zerolog.Logger
}

// Extractor runs the URL import pipeline. It keeps no per-request state.
type Extractor struct {
	fetcher           Fetcher
	extractors        []ContentExtractor
	screenshotter     Screenshotter
	screenshotTimeout time.Duration
	logger            zerolog.Logger
}

// New creates an Extractor.
func New(opts Options) *Extractor {
	e := &Extractor{
		fetcher:           opts.Fetcher,
		extractors:        opts.Extractors,
		screenshotter:     opts.Screenshotter,
		screenshotTimeout: opts.ScreenshotTimeout,
		logger:            opts.Logger,
	}
	if e.fetcher == nil {
		e.fetcher = NewHTTPFetcher()
	}
	if len(e.extractors) == 0 {
		e.extractors = []ContentExtractor{NewReadabilityExtractor(), NewTrafilaturaExtractor()}
	}
	if e.screenshotTimeout <= 0 {
		e.screenshotTimeout = DefaultNavigationTimeout + 5*time.Second
	}
	return e
}

// Extract fetches rawURL, strips boilerplate and splits the main content into
// sections. The screenshot step is best effort and never fails the import.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (*Result, error) {
	pageURL, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	body, err := e.fetcher.Fetch(ctx, pageURL.String())
	if err != nil {
		return nil, err
	}

	content, err := e.extractContent(body, pageURL)
	if err != nil {
		return nil, err
	}

	blocks, err := CollectBlocks(content.HTML)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNoContent, err)
	}

	res := &Result{
		Title:       content.Title,
		Author:      content.Byline,
		Text:        content.Text,
		Description: content.Excerpt,
		SiteName:    content.SiteName,
		Lang:        content.Lang,
		Sections:    BuildSections(blocks, content.Title),
	}
	res.ScreenshotDataURL = e.screenshot(ctx, pageURL.String())
	return res, nil
}

func (e *Extractor) extractContent(body []byte, pageURL *url.URL) (*Content, error) {
	var errs []error
	for _, ex := range e.extractors {
		content, err := ex.ExtractContent(body, pageURL)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if utf8.RuneCountInString(content.Text) < MinTextLength {
			errs = append(errs, fmt.Errorf("text too short: %d characters", utf8.RuneCountInString(content.Text)))
			continue
		}
		return content, nil
	}
	e.logger.Debug().Err(errors.Join(errs...)).Str("url", pageURL.String()).Msg("content extraction failed")
	return nil, fmt.Errorf("%w: could not extract readable content", domain.ErrNoContent)
}

func (e *Extractor) screenshot(ctx context.Context, pageURL string) string {
	if e.screenshotter == nil {
		return ""
	}
	shotCtx, cancel := context.WithTimeout(ctx, e.screenshotTimeout)
	defer cancel()
	dataURL, err := e.screenshotter.Capture(shotCtx, pageURL)
	if err != nil {
		e.logger.Warn().Err(err).Str("url", pageURL).Msg("screenshot failed")
		return ""
	}
	return dataURL
}

// ParseURL accepts absolute http(s) URLs only.
func ParseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: url is required", domain.ErrInvalidInput)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid url format", domain.ErrInvalidInput)
	}
	if !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid url format", domain.ErrInvalidInput)
	}
	return u, nil
}
