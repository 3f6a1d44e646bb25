package cache

import (
	"context"
	"sync"
	"time"

	"guestbook/backend/internal/models"
)

// EntryCache holds the recent-entries list between writes.
//
// Every invalidation bumps a generation counter. A reader takes the
// generation before querying the database and passes it to SetRecent, which
// stores nothing if an invalidation happened in between, so a list read
// before an insert can never be cached after it.
type EntryCache interface {
	// GetRecent returns the cached list and whether it was present
	GetRecent(ctx context.Context) ([]models.Entry, bool, error)
	// Generation returns the current invalidation generation
	Generation(ctx context.Context) (uint64, error)
	// SetRecent stores entries only if the generation is still gen
	SetRecent(ctx context.Context, gen uint64, entries []models.Entry) error
	// InvalidateRecent drops the list and bumps the generation
	InvalidateRecent(ctx context.Context) error
}

const (
	recentKey     = "guestbook:recent"
	generationKey = "guestbook:recent:generation"
)

// Item represents a cached item with expiration
type Item struct {
	Value      []models.Entry
	Expiration int64
}

// Expired checks if the cache item has expired
func (item Item) Expired() bool {
	if item.Expiration == 0 {
		return false
	}
	return time.Now().UnixNano() > item.Expiration
}

// MemoryCache is a thread-safe in-process cache with expiration
type MemoryCache struct {
	items             map[string]Item
	mu                sync.RWMutex
	defaultExpiration time.Duration
	generation        uint64
}

var _ EntryCache = (*MemoryCache)(nil)

// NewMemoryCache creates a cache whose entries live for ttl (0 means forever)
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		items:             make(map[string]Item),
		defaultExpiration: ttl,
	}
}

// GetRecent returns a copy of the cached list
func (c *MemoryCache) GetRecent(ctx context.Context) ([]models.Entry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, found := c.items[recentKey]
	if !found || item.Expired() {
		return nil, false, nil
	}

	return append([]models.Entry(nil), item.Value...), true, nil
}

// Generation returns the current invalidation generation
func (c *MemoryCache) Generation(ctx context.Context) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation, nil
}

// SetRecent stores a copy of entries with the default expiration, unless the
// list was invalidated after gen was read
func (c *MemoryCache) SetRecent(ctx context.Context, gen uint64, entries []models.Entry) error {
	var exp int64
	if c.defaultExpiration > 0 {
		exp = time.Now().Add(c.defaultExpiration).UnixNano()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return nil
	}

	c.items[recentKey] = Item{
		Value:      append([]models.Entry(nil), entries...),
		Expiration: exp,
	}
	return nil
}

// InvalidateRecent drops the cached list
func (c *MemoryCache) InvalidateRecent(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	delete(c.items, recentKey)
	return nil
}

// Noop never caches anything
type Noop struct{}

var _ EntryCache = Noop{}

func (Noop) GetRecent(context.Context) ([]models.Entry, bool, error) { return nil, false, nil }
func (Noop) Generation(context.Context) (uint64, error)              { return 0, nil }
func (Noop) SetRecent(context.Context, uint64, []models.Entry) error { return nil }
func (Noop) InvalidateRecent(context.Context) error                  { return nil }
