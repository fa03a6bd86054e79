package service

import (
	"sync"

	"drape/leon/admin-service/biz/domain"
)

// LocationCache memoizes resolved user locations for the lifetime of the
// process. Unbounded on purpose: the user population is small and a stale
// entry is merely an old city on the map, never a correctness problem. The
// persisted copy on users_meta survives restarts.
type LocationCache struct {
	mu sync.RWMutex
	m  map[string]*domain.Location
}

func NewLocationCache() *LocationCache {
	return &LocationCache{m: map[string]*domain.Location{}}
}

func (c *LocationCache) Get(userID string) *domain.Location {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.m[userID]
}

func (c *LocationCache) Put(userID string, loc *domain.Location) {
	if loc == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[userID] = loc
}
