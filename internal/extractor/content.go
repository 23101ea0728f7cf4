package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
	"golang.org/x/text/language"
)

// Content is the main body of a page with its metadata, chrome removed.
type Content struct {
	Title    string
	Byline   string
	Excerpt  string
	SiteName string
	Lang     string
	HTML     string
	Text     string
}

// ContentExtractor strips navigation and boilerplate from a page.
type ContentExtractor interface {
	ExtractContent(rawHTML []byte, pageURL *url.URL) (*Content, error)
}

var errEmptyContent = errors.New("empty content")

// ReadabilityExtractor uses go-readability.
type ReadabilityExtractor struct{}

// NewReadabilityExtractor creates a ReadabilityExtractor.
func NewReadabilityExtractor() *ReadabilityExtractor {
	return &ReadabilityExtractor{}
}

// ExtractContent runs the readability algorithm over rawHTML.
func (e *ReadabilityExtractor) ExtractContent(rawHTML []byte, pageURL *url.URL) (*Content, error) {
	if len(bytes.TrimSpace(rawHTML)) == 0 {
		return nil, errEmptyContent
	}
	article, err := readability.FromReader(bytes.NewReader(rawHTML), pageURL)
	if err != nil {
		return nil, fmt.Errorf("readability: %w", err)
	}
	if strings.TrimSpace(article.Content) == "" {
		return nil, errEmptyContent
	}
	return &Content{
		Title:    strings.TrimSpace(article.Title),
		Byline:   strings.TrimSpace(article.Byline),
		Excerpt:  strings.TrimSpace(article.Excerpt),
		SiteName: strings.TrimSpace(article.SiteName),
		Lang:     normalizeLang(article.Language),
		HTML:     article.Content,
		Text:     strings.TrimSpace(article.TextContent),
	}, nil
}

// TrafilaturaExtractor uses go-trafilatura. It copes with some layouts that
// readability scores poorly, so it serves as the fallback.
type TrafilaturaExtractor struct{}

// NewTrafilaturaExtractor creates a TrafilaturaExtractor.
func NewTrafilaturaExtractor() *TrafilaturaExtractor {
	return &TrafilaturaExtractor{}
}

// ExtractContent runs trafilatura over rawHTML.
func (e *TrafilaturaExtractor) ExtractContent(rawHTML []byte, pageURL *url.URL) (*Content, error) {
	if len(bytes.TrimSpace(rawHTML)) == 0 {
		return nil, errEmptyContent
	}
	result, err := trafilatura.Extract(bytes.NewReader(rawHTML), trafilatura.Options{
		OriginalURL:    pageURL,
		EnableFallback: true,
	})
	if err != nil {
		return nil, fmt.Errorf("trafilatura: %w", err)
	}
	if result == nil || result.ContentNode == nil {
		return nil, errEmptyContent
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, result.ContentNode); err != nil {
		return nil, fmt.Errorf("trafilatura: render content: %w", err)
	}
	return &Content{
		Title:    strings.TrimSpace(result.Metadata.Title),
		Byline:   strings.TrimSpace(result.Metadata.Author),
		Excerpt:  strings.TrimSpace(result.Metadata.Description),
		SiteName: strings.TrimSpace(result.Metadata.Sitename),
		Lang:     normalizeLang(result.Metadata.Language),
		HTML:     buf.String(),
		Text:     strings.TrimSpace(result.ContentText),
	}, nil
}

// normalizeLang canonicalises a BCP 47 tag ("EN_us" -> "en-US"). Unparseable
// values are dropped.
func normalizeLang(raw string) string {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "_", "-"))
	if raw == "" {
		return ""
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return ""
	}
	return tag.String()
}

var (
	_ ContentExtractor = (*ReadabilityExtractor)(nil)
	_ ContentExtractor = (*TrafilaturaExtractor)(nil)
)
