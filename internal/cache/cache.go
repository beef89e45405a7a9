// Package cache implements the in-memory, FIFO-bounded result cache
// (A6/ResultCache collaborator, spec.md §6), keyed by backtest id. No
// suitable third-party FIFO/LRU cache library appears anywhere in the
// retrieved corpus for a pure in-process cache (Redis/BigCache-class
// libraries there all assume an external process, which an in-memory
// cache explicitly does not need), so this component is stdlib-only —
// container/list plus sync.Mutex — documented as the one justified
// exception in the project's dependency ledger.
package cache

import (
	"container/list"
	"sync"

	"github.com/contactkeval/option-replay/internal/aggregate"
	"github.com/contactkeval/option-replay/internal/metrics"
)

type entry struct {
	id     string
	result *aggregate.BacktestResult
}

// ResultCache is a FIFO-bounded, thread-safe cache of backtest results.
// Concurrent Put/Get calls are serialized by a single mutex, per spec.md
// §5 "concurrent insertions/lookups are serialized by the cache's own
// locking".
type ResultCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	byID     map[string]*list.Element
}

// New constructs a ResultCache bounded by capacity entries. A capacity of
// zero or less is treated as unbounded.
func New(capacity int) *ResultCache {
	return &ResultCache{
		capacity: capacity,
		order:    list.New(),
		byID:     make(map[string]*list.Element),
	}
}

// Put inserts or replaces the result for id, evicting the oldest entry by
// insertion order if capacity is exceeded.
func (c *ResultCache) Put(id string, result *aggregate.BacktestResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.byID[id]; ok {
		el.Value.(*entry).result = result
		c.order.MoveToBack(el)
		return
	}

	el := c.order.PushBack(&entry{id: id, result: result})
	c.byID[id] = el

	if c.capacity > 0 && c.order.Len() > c.capacity {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.byID, oldest.Value.(*entry).id)
		metrics.CacheEvictionsTotal.Inc()
	}
}

// Get returns the cached result for id, if present.
func (c *ResultCache) Get(id string) (*aggregate.BacktestResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	return el.Value.(*entry).result, true
}

// AllValues returns every cached result, oldest insertion first.
func (c *ResultCache) AllValues() []*aggregate.BacktestResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*aggregate.BacktestResult, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*entry).result)
	}
	return out
}

// Clear empties the cache.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.byID = make(map[string]*list.Element)
}

// Size returns the current number of cached entries.
func (c *ResultCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.order.Len()
}
