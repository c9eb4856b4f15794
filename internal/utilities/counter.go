package utilities

import (
	"sync"
	"sync/atomic"

	"github.com/antonio-alexander/go-employee-crud/internal/data"
)

// Counter tracks cache hits and misses per key (e.g. employee_read)
type Counter interface {
	Read(key string) (hitCount, missCount int)
	ReadAll() *data.CacheCounters
	IncrementHit(key string) (hitCount int)
	IncrementMiss(key string) (missCount int)
	Reset()
}

type hitMiss struct {
	hits   atomic.Int64
	misses atomic.Int64
}

type hitMissCounter struct {
	sync.RWMutex
	keys map[string]*hitMiss
}

func NewCounter() Counter {
	return &hitMissCounter{keys: make(map[string]*hitMiss)}
}

// lookup returns the entry for key, creating it when create is true;
// increments only need the read lock once the key exists
func (c *hitMissCounter) lookup(key string, create bool) *hitMiss {
	c.RLock()
	entry, found := c.keys[key]
	c.RUnlock()
	if found || !create {
		return entry
	}

	c.Lock()
	defer c.Unlock()

	if entry, found = c.keys[key]; !found {
		entry = &hitMiss{}
		c.keys[key] = entry
	}
	return entry
}

func (c *hitMissCounter) Read(key string) (int, int) {
	entry := c.lookup(key, false)
	if entry == nil {
		return 0, 0
	}
	return int(entry.hits.Load()), int(entry.misses.Load())
}

func (c *hitMissCounter) ReadAll() *data.CacheCounters {
	c.RLock()
	defer c.RUnlock()

	counters := &data.CacheCounters{
		CounterHits:   make(map[string]int, len(c.keys)),
		CounterMisses: make(map[string]int, len(c.keys)),
	}
	for key, entry := range c.keys {
		counters.CounterHits[key] = int(entry.hits.Load())
		counters.CounterMisses[key] = int(entry.misses.Load())
	}
	return counters
}

func (c *hitMissCounter) IncrementHit(key string) int {
	return int(c.lookup(key, true).hits.Add(1))
}

func (c *hitMissCounter) IncrementMiss(key string) int {
	return int(c.lookup(key, true).misses.Add(1))
}

func (c *hitMissCounter) Reset() {
	c.Lock()
	defer c.Unlock()

	c.keys = make(map[string]*hitMiss)
}
