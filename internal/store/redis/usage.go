package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Usage is the persisted play statistics for one content item.
type Usage struct {
	Count    int
	LastUsed string // YYYY-MM-DD, "" if never played
}

type usageRecord struct {
	Version  int    `json:"version"`
	Number   int    `json:"number"`
	Count    int    `json:"count"`
	LastUsed string `json:"last_used,omitempty"`
}

// SaveUsage stores the usage record for a content item.
func (s *Store) SaveUsage(ctx context.Context, number int, u Usage) error {
	data, err := json.Marshal(usageRecord{
		Version:  schemaVersion,
		Number:   number,
		Count:    u.Count,
		LastUsed: u.LastUsed,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal usage record: %w", err)
	}

	if err := s.client.Set(ctx, UsageKey(number), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save usage record: %w", err)
	}

	if err := s.client.SAdd(ctx, KeyAllUsage, number).Err(); err != nil {
		return fmt.Errorf("failed to add usage to set: %w", err)
	}

	return nil
}

// LoadAllUsage retrieves every usage record, keyed by content number.
// Undecodable entries are skipped.
func (s *Store) LoadAllUsage(ctx context.Context) (map[int]Usage, error) {
	members, err := s.client.SMembers(ctx, KeyAllUsage).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get usage numbers: %w", err)
	}

	usages := make(map[int]Usage, len(members))
	for _, raw := range members {
		n, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}

		data, err := s.client.Get(ctx, UsageKey(n)).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("failed to get usage record: %w", err)
		}

		var rec usageRecord
		if err := json.Unmarshal(data, &rec); err != nil || rec.Version != schemaVersion {
			continue
		}
		usages[n] = Usage{Count: rec.Count, LastUsed: rec.LastUsed}
	}

	return usages, nil
}
