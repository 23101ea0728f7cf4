package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"speechable/internal/domain"
	"speechable/internal/infra"
	"speechable/internal/sqlinline"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// DocumentRepositoryPG implements domain.DocumentRepository.
type DocumentRepositoryPG struct {
	db infra.SQLExecutor
}

// NewDocumentRepository creates a DocumentRepositoryPG.
func NewDocumentRepository(db infra.SQLExecutor) *DocumentRepositoryPG {
	return &DocumentRepositoryPG{db: db}
}

// Create inserts doc, assigning an id when missing.
func (r *DocumentRepositoryPG) Create(ctx context.Context, doc *domain.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	sections := doc.Sections
	if sections == nil {
		sections = []domain.Section{}
	}
	sectionsJSON, err := json.Marshal(sections)
	if err != nil {
		return fmt.Errorf("encode sections: %w", err)
	}
	row := r.db.QueryRow(ctx, sqlinline.QInsertDocument,
		doc.ID,
		doc.UserID,
		doc.Title,
		doc.Author,
		doc.SourceURL,
		string(doc.SourceKind),
		doc.Category,
		doc.Starred,
		doc.Lang,
		doc.Text,
		sectionsJSON,
		doc.ThumbnailDataURL,
	)
	if err := row.Scan(&doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// GetByID returns the user's document or domain.ErrNotFound.
func (r *DocumentRepositoryPG) GetByID(ctx context.Context, userID, id string) (*domain.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	return scanDocument(r.db.QueryRow(ctx, sqlinline.QSelectDocument, id, userID))
}

// List returns the user's documents, newest first, without bodies.
func (r *DocumentRepositoryPG) List(ctx context.Context, userID string, filter domain.DocumentFilter) ([]domain.Document, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := max(filter.Offset, 0)
	rows, err := r.db.Query(ctx, sqlinline.QListDocuments, userID, filter.Category, filter.Starred, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	docs := []domain.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Update applies patch and returns the stored document.
func (r *DocumentRepositoryPG) Update(ctx context.Context, userID, id string, patch domain.DocumentPatch) (*domain.Document, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	return scanDocument(r.db.QueryRow(ctx, sqlinline.QUpdateDocument, id, userID, patch.Title, patch.Category, patch.Starred))
}

// Delete removes the document. Missing documents yield domain.ErrNotFound.
func (r *DocumentRepositoryPG) Delete(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	tag, err := r.db.Exec(ctx, sqlinline.QDeleteDocument, id, userID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var (
		d            domain.Document
		kind         string
		sectionsJSON []byte
	)
	err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.Title,
		&d.Author,
		&d.SourceURL,
		&kind,
		&d.Category,
		&d.Starred,
		&d.Lang,
		&d.Text,
		&sectionsJSON,
		&d.ThumbnailDataURL,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	d.SourceKind = domain.SourceKind(kind)
	d.Sections = []domain.Section{}
	if len(sectionsJSON) > 0 {
		if err := json.Unmarshal(sectionsJSON, &d.Sections); err != nil {
			return nil, fmt.Errorf("decode sections: %w", err)
		}
	}
	return &d, nil
}

var _ domain.DocumentRepository = (*DocumentRepositoryPG)(nil)
