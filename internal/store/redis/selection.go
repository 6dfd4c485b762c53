package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/wakebell/wakebell/internal/domain"
)

// selectionRecord is the persisted form of domain.SelectionRecord.
type selectionRecord struct {
	Version int            `json:"version"`
	Days    map[string]int `json:"days"`
}

// SaveSelection stores the per-day selection record.
func (s *Store) SaveSelection(ctx context.Context, rec *domain.SelectionRecord) error {
	data, err := json.Marshal(selectionRecord{
		Version: schemaVersion,
		Days:    rec.Days,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal selection record: %w", err)
	}

	if err := s.client.Set(ctx, KeySelection, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save selection record: %w", err)
	}

	return nil
}

// LoadSelection retrieves the selection record.
// A missing, malformed or wrong-version record reads as an empty record.
func (s *Store) LoadSelection(ctx context.Context) (*domain.SelectionRecord, error) {
	data, err := s.client.Get(ctx, KeySelection).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.NewSelectionRecord(), nil
		}
		return nil, fmt.Errorf("failed to get selection record: %w", err)
	}

	var rec selectionRecord
	if err := json.Unmarshal(data, &rec); err != nil || rec.Version != schemaVersion || rec.Days == nil {
		return domain.NewSelectionRecord(), nil
	}

	return &domain.SelectionRecord{Days: rec.Days}, nil
}
