package cache

import (
	"errors"
	"sync"
	"testing"

	"github.com/matryer/is"
)

func TestLoadCaches(t *testing.T) {
	is := is.New(t)
	c := New[uint64](10)
	calls := 0
	load := func() (uint64, error) {
		calls++
		return 42, nil
	}
	k := Key{Hash: 0xdead, Depth: 3}
	v, err := c.Load(k, load)
	is.NoErr(err)
	is.Equal(v, uint64(42))
	v, err = c.Load(k, load)
	is.NoErr(err)
	is.Equal(v, uint64(42))
	is.Equal(calls, 1)

	// Same hash, different depth is a different entry.
	_, ok := c.Get(Key{Hash: 0xdead, Depth: 2})
	is.True(!ok)

	st := c.Stats()
	is.Equal(st.Lookups, uint64(3))
	is.Equal(st.Hits, uint64(1))
}

func TestLoadError(t *testing.T) {
	is := is.New(t)
	c := New[int](10)
	boom := errors.New("boom")
	_, err := c.Load(Key{Hash: 1}, func() (int, error) { return 0, boom })
	is.True(errors.Is(err, boom))
	is.Equal(c.Len(), 0)
}

func TestBounded(t *testing.T) {
	is := is.New(t)
	c := New[int](4)
	for i := 0; i < 4; i++ {
		c.Put(Key{Hash: uint64(i)}, i)
	}
	is.Equal(c.Len(), 4)
	// Overwriting an existing key does not reset.
	c.Put(Key{Hash: 2}, 20)
	is.Equal(c.Len(), 4)
	c.Put(Key{Hash: 99}, 99)
	is.Equal(c.Len(), 1)
	is.Equal(c.Stats().Resets, uint64(1))
}

func TestDisabled(t *testing.T) {
	is := is.New(t)
	c := New[int](0)
	c.Put(Key{Hash: 1}, 1)
	_, ok := c.Get(Key{Hash: 1})
	is.True(!ok)
}

func TestConcurrentUse(t *testing.T) {
	is := is.New(t)
	c := New[int](1000)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c.Put(Key{Hash: uint64(w*100 + i)}, i)
				c.Get(Key{Hash: uint64(i)})
			}
		}(w)
	}
	wg.Wait()
	is.Equal(c.Len(), 800)
}
