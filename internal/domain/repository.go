package domain

import "context"

// CreditRepository wraps the two atomic credit procedures plus a read.
type CreditRepository interface {
	// RefillAndGet locks the balance row, refills it when due and returns it.
	RefillAndGet(ctx context.Context, userID string) (*CreditBalance, error)
	// Deduct subtracts amount without checking sufficiency. A request id that
	// was already settled is not charged twice.
	Deduct(ctx context.Context, userID, requestID string, amount float64) (*CreditSettlement, error)
}

// DocumentRepository persists the user's document library.
type DocumentRepository interface {
	Create(ctx context.Context, doc *Document) error
	GetByID(ctx context.Context, userID, id string) (*Document, error)
	List(ctx context.Context, userID string, filter DocumentFilter) ([]Document, error)
	Update(ctx context.Context, userID, id string, patch DocumentPatch) (*Document, error)
	Delete(ctx context.Context, userID, id string) error
}

// UsageRepository records metered events for auditing.
type UsageRepository interface {
	RecordUsage(ctx context.Context, event UsageEvent) error
}
