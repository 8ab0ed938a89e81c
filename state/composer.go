package state

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
)

type composeKey struct {
	a, b uint64
}

// Composer memoizes RenderState composition. The same scene initial state
// is composed under every target of a frame, so results repeat heavily.
//
// Composer is safe for concurrent use.
type Composer struct {
	cache  *lru.Cache
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewComposer creates a composer remembering up to size results.
func NewComposer(size int) (*Composer, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Composer{cache: c}, nil
}

// Compose returns a.Compose(b), from cache when possible.
func (c *Composer) Compose(a, b *RenderState) *RenderState {
	if b.Present() == 0 {
		return a.orEmpty()
	}
	if a.Present() == 0 {
		return b.orEmpty()
	}
	key := composeKey{a.Fingerprint(), b.Fingerprint()}
	if v, ok := c.cache.Get(key); ok {
		c.hits.Add(1)
		return v.(*RenderState)
	}
	c.misses.Add(1)
	r := a.Compose(b)
	c.cache.Add(key, r)
	return r
}

// Len returns the number of cached results.
func (c *Composer) Len() int { return c.cache.Len() }

// Purge drops every cached result.
func (c *Composer) Purge() { c.cache.Purge() }

// Stats returns the hit and miss counts.
func (c *Composer) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}
