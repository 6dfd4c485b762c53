package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wakebell/wakebell/internal/domain"
)

// snoozeRecord is the persisted form of domain.SnoozeState.
// Versioned so a future schema change cannot be mis-parsed silently.
type snoozeRecord struct {
	Version           int   `json:"version"`
	AlarmID           int64 `json:"alarm_id"`
	DeadlineMs        int64 `json:"deadline_ms"`
	Count             int   `json:"count"`
	OriginalTriggerMs int64 `json:"original_trigger_ms"`
	Active            bool  `json:"active"`
}

// SaveSnooze stores an alarm's snooze state.
func (s *Store) SaveSnooze(ctx context.Context, st *domain.SnoozeState) error {
	rec := snoozeRecord{
		Version:           schemaVersion,
		AlarmID:           st.AlarmID,
		DeadlineMs:        st.Deadline.UnixMilli(),
		Count:             st.Count,
		OriginalTriggerMs: st.OriginalTrigger.UnixMilli(),
		Active:            st.Active,
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal snooze state: %w", err)
	}

	if err := s.client.Set(ctx, SnoozeKey(st.AlarmID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save snooze state: %w", err)
	}

	if err := s.client.SAdd(ctx, KeyAllSnooze, st.AlarmID).Err(); err != nil {
		return fmt.Errorf("failed to add snooze to set: %w", err)
	}

	return nil
}

// LoadSnooze retrieves an alarm's snooze state.
// A missing, malformed or wrong-version record reads as (nil, nil).
func (s *Store) LoadSnooze(ctx context.Context, alarmID int64) (*domain.SnoozeState, error) {
	data, err := s.client.Get(ctx, SnoozeKey(alarmID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get snooze state: %w", err)
	}

	return decodeSnooze(data), nil
}

// ListSnooze retrieves every persisted snooze state.
// Entries that fail to decode are skipped.
func (s *Store) ListSnooze(ctx context.Context) ([]*domain.SnoozeState, error) {
	ids, err := s.client.SMembers(ctx, KeyAllSnooze).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get snooze ids: %w", err)
	}

	states := make([]*domain.SnoozeState, 0, len(ids))
	for _, raw := range ids {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		st, err := s.LoadSnooze(ctx, id)
		if err != nil || st == nil {
			continue
		}
		states = append(states, st)
	}

	return states, nil
}

// DeleteSnooze removes an alarm's snooze state entirely.
func (s *Store) DeleteSnooze(ctx context.Context, alarmID int64) error {
	if err := s.client.Del(ctx, SnoozeKey(alarmID)).Err(); err != nil {
		return fmt.Errorf("failed to delete snooze state: %w", err)
	}

	if err := s.client.SRem(ctx, KeyAllSnooze, alarmID).Err(); err != nil {
		return fmt.Errorf("failed to remove snooze from set: %w", err)
	}

	return nil
}

func decodeSnooze(data []byte) *domain.SnoozeState {
	var rec snoozeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil
	}
	if rec.Version != schemaVersion {
		return nil
	}
	return &domain.SnoozeState{
		AlarmID:         rec.AlarmID,
		Deadline:        time.UnixMilli(rec.DeadlineMs),
		Count:           rec.Count,
		OriginalTrigger: time.UnixMilli(rec.OriginalTriggerMs),
		Active:          rec.Active,
	}
}
