// Package cache keeps rendered schedule pages. Simulations never change
// after creation, so a page only leaves the cache by TTL or when its
// simulation is purged.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"credit-simulator/internal/model"
)

// ScheduleCache stores schedule pages keyed by simulation, page and size.
type ScheduleCache interface {
	GetPage(ctx context.Context, simulationID int64, page, size int) (*model.SchedulePage, bool)
	SetPage(ctx context.Context, p *model.SchedulePage) error
	Invalidate(ctx context.Context, simulationID int64) error
}

func pageKey(simulationID int64, page, size int) string {
	return fmt.Sprintf("schedule:%d:%d:%d", simulationID, page, size)
}

func simulationPattern(simulationID int64) string {
	return fmt.Sprintf("schedule:%d:*", simulationID)
}

type memoryEntry struct {
	page      model.SchedulePage
	expiresAt time.Time
}

// MemoryCache is a process-local ScheduleCache.
type MemoryCache struct {
	mu   sync.RWMutex
	ttl  time.Duration
	data map[int64]map[string]memoryEntry
	now  func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:  ttl,
		data: make(map[int64]map[string]memoryEntry),
		now:  time.Now,
	}
}

func (c *MemoryCache) GetPage(ctx context.Context, simulationID int64, page, size int) (*model.SchedulePage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.data[simulationID][pageKey(simulationID, page, size)]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().After(entry.expiresAt) {
		return nil, false
	}
	p := entry.page
	return &p, true
}

func (c *MemoryCache) SetPage(ctx context.Context, p *model.SchedulePage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	pages, ok := c.data[p.SimulationID]
	if !ok {
		pages = make(map[string]memoryEntry)
		c.data[p.SimulationID] = pages
	}
	pages[pageKey(p.SimulationID, p.Page, p.Size)] = memoryEntry{
		page:      *p,
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

func (c *MemoryCache) Invalidate(ctx context.Context, simulationID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, simulationID)
	return nil
}
