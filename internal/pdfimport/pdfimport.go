// Package pdfimport turns the text layer of a PDF into narratable sections.
//
// Only embedded text is read. Image-only (scanned) PDFs yield
// domain.ErrNoContent and should go through OCR instead.
package pdfimport

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"speechable/internal/domain"
	"speechable/internal/extractor"
)

// MaxFileSize bounds accepted uploads.
const MaxFileSize = 20 << 20

// shortLine is the rune length under which a line ending in sentence
// punctuation closes its paragraph.
const shortLine = 60

// Document is the result of importing one PDF.
type Document struct {
	Title     string
	Author    string
	Text      string
	PageCount int
	Sections  []domain.Section
}

// Parse reads data as a PDF. fileName provides the title when the PDF
// metadata has none.
func Parse(data []byte, fileName string) (*Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty pdf", domain.ErrInvalidInput)
	}
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("%w: pdf exceeds %d bytes", domain.ErrInvalidInput, MaxFileSize)
	}
	var (
		pages         []string
		numPages      int
		title, author string
	)
	err := recoverMalformed(func() error {
		r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return err
		}
		numPages = r.NumPage()
		pages = pageTexts(r)
		info := r.Trailer().Key("Info")
		title = strings.TrimSpace(info.Key("Title").Text())
		author = strings.TrimSpace(info.Key("Author").Text())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %v", domain.ErrInvalidInput, err)
	}
	if title == "" {
		title = TitleFromFileName(fileName)
	}
	paragraphs := Paragraphs(pages)
	text := strings.Join(paragraphs, "\n\n")
	if utf8.RuneCountInString(text) < extractor.MinTextLength {
		return nil, fmt.Errorf("%w: no text layer found", domain.ErrNoContent)
	}

	blocks := make([]extractor.Block, 0, len(paragraphs))
	for _, p := range paragraphs {
		blocks = append(blocks, extractor.Block{Text: p})
	}
	return &Document{
		Title:     title,
		Author:    author,
		Text:      text,
		PageCount: numPages,
		Sections:  extractor.BuildSections(blocks, title),
	}, nil
}

// pageTexts returns the plain text of every page that has content. Pages
// whose text cannot be decoded are skipped.
func pageTexts(r *pdf.Reader) []string {
	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages = append(pages, text)
	}
	return pages
}

// recoverMalformed runs fn and turns a panic into an error. The pdf reader
// panics on malformed cross-reference tables, streams and fonts.
func recoverMalformed(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()
	return fn()
}

// TitleFromFileName derives a display title from an upload name.
func TitleFromFileName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	base = strings.Join(strings.Fields(base), " ")
	if base == "" || base == "." {
		return "Untitled document"
	}
	return base
}

// Paragraphs joins wrapped lines of page text into paragraphs. A paragraph
// ends at a blank line, at a page break, or after a short line that ends a
// sentence. Words hyphenated across a line break are rejoined.
func Paragraphs(pages []string) []string {
	var (
		out     []string
		current strings.Builder
	)
	flush := func() {
		if p := strings.TrimSpace(current.String()); p != "" {
			out = append(out, p)
		}
		current.Reset()
	}
	for _, page := range pages {
		for _, raw := range strings.Split(page, "\n") {
			line := strings.Join(strings.Fields(raw), " ")
			if line == "" {
				flush()
				continue
			}
			appendLine(&current, line)
			if utf8.RuneCountInString(line) < shortLine && endsSentence(line) {
				flush()
			}
		}
		flush()
	}
	return out
}

func appendLine(b *strings.Builder, line string) {
	if b.Len() == 0 {
		b.WriteString(line)
		return
	}
	prev := b.String()
	if strings.HasSuffix(prev, "-") && len(prev) > 1 {
		r, _ := utf8.DecodeLastRuneInString(prev[:len(prev)-1])
		first, _ := utf8.DecodeRuneInString(line)
		if unicode.IsLetter(r) && unicode.IsLower(first) {
			b.Reset()
			b.WriteString(prev[:len(prev)-1])
			b.WriteString(line)
			return
		}
	}
	b.WriteString(" ")
	b.WriteString(line)
}

func endsSentence(line string) bool {
	r, _ := utf8.DecodeLastRuneInString(line)
	switch r {
	case '.', '!', '?', ':', '…':
		return true
	}
	return false
}
