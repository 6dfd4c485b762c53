package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// AlarmMeta is the engine-owned overlay for an alarm definition:
// the pieces the core is allowed to mutate. The alarm file stays the
// source of truth for everything else.
type AlarmMeta struct {
	LastTriggered *time.Time
	Disabled      bool
}

type alarmMetaRecord struct {
	Version         int    `json:"version"`
	AlarmID         int64  `json:"alarm_id"`
	LastTriggeredMs *int64 `json:"last_triggered_ms,omitempty"`
	Disabled        bool   `json:"disabled"`
}

// SaveAlarmMeta stores the mutable overlay for one alarm.
func (s *Store) SaveAlarmMeta(ctx context.Context, alarmID int64, meta AlarmMeta) error {
	rec := alarmMetaRecord{
		Version:  schemaVersion,
		AlarmID:  alarmID,
		Disabled: meta.Disabled,
	}
	if meta.LastTriggered != nil {
		ms := meta.LastTriggered.UnixMilli()
		rec.LastTriggeredMs = &ms
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal alarm meta: %w", err)
	}

	if err := s.client.Set(ctx, AlarmMetaKey(alarmID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save alarm meta: %w", err)
	}

	if err := s.client.SAdd(ctx, KeyAllAlarmMeta, alarmID).Err(); err != nil {
		return fmt.Errorf("failed to add alarm meta to set: %w", err)
	}

	return nil
}

// LoadAllAlarmMeta retrieves every persisted overlay, keyed by alarm id.
// Undecodable entries are skipped.
func (s *Store) LoadAllAlarmMeta(ctx context.Context) (map[int64]AlarmMeta, error) {
	ids, err := s.client.SMembers(ctx, KeyAllAlarmMeta).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get alarm meta ids: %w", err)
	}

	metas := make(map[int64]AlarmMeta, len(ids))
	for _, raw := range ids {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}

		data, err := s.client.Get(ctx, AlarmMetaKey(id)).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("failed to get alarm meta: %w", err)
		}

		var rec alarmMetaRecord
		if err := json.Unmarshal(data, &rec); err != nil || rec.Version != schemaVersion {
			continue
		}

		meta := AlarmMeta{Disabled: rec.Disabled}
		if rec.LastTriggeredMs != nil {
			t := time.UnixMilli(*rec.LastTriggeredMs)
			meta.LastTriggered = &t
		}
		metas[id] = meta
	}

	return metas, nil
}

// DeleteAlarmMeta removes the overlay for one alarm (on alarm deletion).
func (s *Store) DeleteAlarmMeta(ctx context.Context, alarmID int64) error {
	if err := s.client.Del(ctx, AlarmMetaKey(alarmID)).Err(); err != nil {
		return fmt.Errorf("failed to delete alarm meta: %w", err)
	}

	if err := s.client.SRem(ctx, KeyAllAlarmMeta, alarmID).Err(); err != nil {
		return fmt.Errorf("failed to remove alarm meta from set: %w", err)
	}

	return nil
}
