package distributor

import (
	"context"
	"encoding/json"
	"time"

	"github.com/LastZactionHero/part-finder/pkg/models"
	"github.com/LastZactionHero/part-finder/pkg/store"
)

// DefaultCacheMaxAge is the age bound applied to cache reads unless a
// caller overrides it, per spec.md §4.2 (max_age_seconds=86400).
const DefaultCacheMaxAge = 24 * time.Hour

// Cache is a read-through cache of distributor search responses keyed
// by (search_term, search_type). It is implemented at the Store layer
// per spec.md §5's "Shared resources" note, and never lets a database
// failure propagate to its caller.
type Cache struct {
	store   *store.Store
	maxAge  time.Duration
}

// NewCache wraps a Store with the cache's age bound.
func NewCache(s *store.Store, maxAge time.Duration) *Cache {
	if maxAge <= 0 {
		maxAge = DefaultCacheMaxAge
	}
	return &Cache{store: s, maxAge: maxAge}
}

// Get returns the cached payload for (term, searchType), or false on a
// miss (including a miss manufactured from a swallowed database error).
func (c *Cache) Get(ctx context.Context, term string, searchType models.SearchType) (json.RawMessage, bool) {
	return c.store.GetCachedResponse(ctx, term, searchType, c.maxAge)
}

// Put upserts the (term, searchType) cache row, replacing any earlier
// payload for that key. Failures are logged and swallowed by the
// Store layer; Put never returns an error to the caller.
func (c *Cache) Put(ctx context.Context, term string, searchType models.SearchType, payload json.RawMessage) {
	c.store.PutCachedResponse(ctx, term, searchType, payload)
}
