package redis

import (
	"github.com/redis/go-redis/v9"
)

// schemaVersion is embedded in every persisted record. A record with an
// unknown version decodes as "absent" instead of failing the load.
const schemaVersion = 1

// Store handles Redis operations for snooze state, selection history,
// alarm metadata and content usage.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store.
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}
