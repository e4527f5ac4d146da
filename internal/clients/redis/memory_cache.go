package redis

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	types "github.com/lucavoss/adeptly-backend/internal/domain"
)

type memoryEntry struct {
	live      types.LiveSession
	expiresAt time.Time
}

// MemorySessionCache is an in-process SessionCache with the same TTL semantics
// as the redis implementation. Used in tests and single-node local runs.
type MemorySessionCache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]memoryEntry
	now     func() time.Time
}

func NewMemorySessionCache() *MemorySessionCache {
	return &MemorySessionCache{
		entries: make(map[uuid.UUID]memoryEntry),
		now:     time.Now,
	}
}

// SetClock overrides the time source; tests use it to step past TTLs without
// sleeping.
func (c *MemorySessionCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *MemorySessionCache) Get(ctx context.Context, sessionID uuid.UUID) (*types.LiveSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[sessionID]
	if !ok {
		return nil, nil
	}
	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		delete(c.entries, sessionID)
		return nil, nil
	}
	cp := entry.live
	cp.TaskOrder = append([]uuid.UUID(nil), entry.live.TaskOrder...)
	cp.RecentCorrect = append([]bool(nil), entry.live.RecentCorrect...)
	return &cp, nil
}

func (c *MemorySessionCache) Set(ctx context.Context, live *types.LiveSession, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *live
	cp.TaskOrder = append([]uuid.UUID(nil), live.TaskOrder...)
	cp.RecentCorrect = append([]bool(nil), live.RecentCorrect...)
	entry := memoryEntry{live: cp}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.entries[live.SessionID] = entry
	return nil
}

func (c *MemorySessionCache) Delete(ctx context.Context, sessionID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, sessionID)
	return nil
}

func (c *MemorySessionCache) Close() error { return nil }
