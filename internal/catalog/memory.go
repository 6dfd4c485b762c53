package catalog

import (
	"sort"
	"sync"
	"time"

	"github.com/wakebell/wakebell/internal/domain"
)

// UsageStat carries the persisted play statistics merged into the catalog.
type UsageStat struct {
	Count    int
	LastUsed string
}

// Memory provides in-memory storage and lookup for catalog items.
// Usage counts survive reloads: Update carries them over by number.
type Memory struct {
	mu         sync.RWMutex
	items      map[int]*domain.ContentItem
	lastReload time.Time

	// persist, when set, is called after every MarkUsed so play
	// statistics reach durable storage.
	persist func(number, count int, lastUsed string)
}

// NewMemory creates a new memory catalog
func NewMemory() *Memory {
	return &Memory{
		items: make(map[int]*domain.ContentItem),
	}
}

// OnUsagePersist installs the hook invoked after each MarkUsed.
func (c *Memory) OnUsagePersist(fn func(number, count int, lastUsed string)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.persist = fn
}

// Update replaces all items in the catalog, preserving usage statistics
// of items that survive the reload.
func (c *Memory) Update(items []*domain.ContentItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := make(map[int]*domain.ContentItem, len(items))
	for _, item := range items {
		cp := *item
		if prev, ok := c.items[item.Number]; ok {
			cp.UsageCount = prev.UsageCount
			cp.LastUsed = prev.LastUsed
		}
		next[cp.Number] = &cp
	}
	c.items = next
	c.lastReload = time.Now()
}

// ApplyUsage merges persisted play statistics into the catalog.
func (c *Memory) ApplyUsage(usage map[int]UsageStat) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for number, u := range usage {
		if item, ok := c.items[number]; ok {
			item.UsageCount = u.Count
			item.LastUsed = u.LastUsed
		}
	}
}

// ListAvailable returns playable items ordered by number.
func (c *Memory) ListAvailable() []*domain.ContentItem {
	c.mu.RLock()
	defer c.mu.RUnlock()

	items := make([]*domain.ContentItem, 0, len(c.items))
	for _, item := range c.items {
		if item.Available {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Number < items[j].Number })
	return items
}

// ByNumber retrieves an item by catalog number, nil when unknown.
func (c *Memory) ByNumber(number int) *domain.ContentItem {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.items[number]
}

// MarkUsed increments the usage counter for an item and records the date.
func (c *Memory) MarkUsed(number int, date string) {
	c.mu.Lock()
	item, ok := c.items[number]
	if !ok {
		c.mu.Unlock()
		return
	}
	item.UsageCount++
	item.LastUsed = date
	count := item.UsageCount
	persist := c.persist
	c.mu.Unlock()

	if persist != nil {
		persist(number, count, date)
	}
}

// Count returns the number of items in the catalog.
func (c *Memory) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// GetLastReload returns the timestamp of the last catalog reload.
func (c *Memory) GetLastReload() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.lastReload
}
