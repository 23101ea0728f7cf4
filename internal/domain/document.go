package domain

import "time"

// SourceKind records how a document entered the library.
type SourceKind string

const (
	SourceKindURL  SourceKind = "url"
	SourceKindPDF  SourceKind = "pdf"
	SourceKindOCR  SourceKind = "ocr"
	SourceKindText SourceKind = "text"
)

// Valid reports whether k is a known source kind.
func (k SourceKind) Valid() bool {
	switch k {
	case SourceKindURL, SourceKindPDF, SourceKindOCR, SourceKindText:
		return true
	}
	return false
}

// Document is a saved library entry owned by a single user.
type Document struct {
	ID               string
	UserID           string
	Title            string
	Author           string
	SourceURL        string
	SourceKind       SourceKind
	Category         string
	Starred          bool
	Lang             string
	Text             string
	Sections         []Section
	ThumbnailDataURL string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DocumentFilter narrows library listings.
type DocumentFilter struct {
	Category string
	Starred  *bool
	Limit    int
	Offset   int
}

// DocumentPatch carries the mutable fields of a document. Nil means unchanged.
type DocumentPatch struct {
	Title    *string
	Category *string
	Starred  *bool
}

// Empty reports whether the patch changes nothing.
func (p DocumentPatch) Empty() bool {
	return p.Title == nil && p.Category == nil && p.Starred == nil
}
