package cache

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// The cache holds results keyed by position hash and search depth, such as
// perft node counts. It is bounded: once full, it is emptied and refilled.
// Safe for concurrent use.

type Key struct {
	Hash  uint64
	Depth int
}

type Cache[V any] struct {
	sync.Mutex
	objects  map[Key]V
	capacity int

	lookups atomic.Uint64
	hits    atomic.Uint64
	resets  atomic.Uint64
}

// New creates a cache holding at most capacity entries. A capacity of zero
// or less disables storage; every lookup misses.
func New[V any](capacity int) *Cache[V] {
	c := &Cache[V]{capacity: capacity}
	if capacity > 0 {
		c.objects = make(map[Key]V, capacity)
	}
	return c
}

func (c *Cache[V]) Get(k Key) (V, bool) {
	c.lookups.Add(1)
	c.Lock()
	defer c.Unlock()
	obj, ok := c.objects[k]
	if ok {
		c.hits.Add(1)
	}
	return obj, ok
}

func (c *Cache[V]) Put(k Key, v V) {
	if c.capacity <= 0 {
		return
	}
	c.Lock()
	defer c.Unlock()
	if _, ok := c.objects[k]; !ok && len(c.objects) >= c.capacity {
		log.Debug().Int("capacity", c.capacity).Msg("cache-full-resetting")
		clear(c.objects)
		c.resets.Add(1)
	}
	c.objects[k] = v
}

// Load returns the cached value for k, computing and storing it with
// loadFunc on a miss. The lock is not held while loadFunc runs, so it may
// use the cache itself.
func (c *Cache[V]) Load(k Key, loadFunc func() (V, error)) (V, error) {
	if obj, ok := c.Get(k); ok {
		return obj, nil
	}
	obj, err := loadFunc()
	if err != nil {
		return obj, err
	}
	c.Put(k, obj)
	return obj, nil
}

func (c *Cache[V]) Len() int {
	c.Lock()
	defer c.Unlock()
	return len(c.objects)
}

type Stats struct {
	Lookups uint64 `yaml:"lookups"`
	Hits    uint64 `yaml:"hits"`
	Resets  uint64 `yaml:"resets"`
}

func (c *Cache[V]) Stats() Stats {
	return Stats{
		Lookups: c.lookups.Load(),
		Hits:    c.hits.Load(),
		Resets:  c.resets.Load(),
	}
}
