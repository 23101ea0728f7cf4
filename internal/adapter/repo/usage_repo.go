package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"speechable/internal/domain"
	"speechable/internal/infra"
	"speechable/internal/sqlinline"
)

// UsageRepositoryPG implements domain.UsageRepository.
type UsageRepositoryPG struct {
	db infra.SQLExecutor
}

// NewUsageRepository creates a UsageRepositoryPG.
func NewUsageRepository(db infra.SQLExecutor) *UsageRepositoryPG {
	return &UsageRepositoryPG{db: db}
}

// RecordUsage inserts an audit row.
func (r *UsageRepositoryPG) RecordUsage(ctx context.Context, event domain.UsageEvent) error {
	properties := event.Properties
	if properties == nil {
		properties = map[string]any{}
	}
	props, err := json.Marshal(properties)
	if err != nil {
		return fmt.Errorf("encode usage properties: %w", err)
	}
	var userID *string
	if event.UserID != "" {
		userID = &event.UserID
	}
	if _, err := r.db.Exec(ctx, sqlinline.QInsertUsageEvent, userID, event.RequestID, string(event.Type), event.Success, event.LatencyMS, props); err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

var _ domain.UsageRepository = (*UsageRepositoryPG)(nil)
