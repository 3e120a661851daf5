package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MemoryStatusCache adapts MemoryStore to the status cache surface used by
// the API layer. It is the fallback when Redis is not configured.
type MemoryStatusCache struct {
	store *MemoryStore
	ttl   time.Duration
}

func NewMemoryStatusCache(store *MemoryStore, ttl time.Duration) *MemoryStatusCache {
	return &MemoryStatusCache{store: store, ttl: ttl}
}

func (c *MemoryStatusCache) SetStatus(ctx context.Context, sessionID uuid.UUID, snapshot interface{}) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	c.store.Set(statusKey(sessionID), string(data), c.ttl)
	return nil
}

func (c *MemoryStatusCache) GetStatus(ctx context.Context, sessionID uuid.UUID) ([]byte, bool, error) {
	value, ok := c.store.Get(statusKey(sessionID))
	if !ok {
		return nil, false, nil
	}
	return []byte(value), true, nil
}
