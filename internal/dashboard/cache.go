package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache keeps the last loaded view per session key. Concurrent misses for
// the same key share one Load. Invalidate drops the view and makes any
// in-flight load unable to store its result.
type Cache struct {
	agg *Aggregator
	ttl time.Duration
	now func() time.Time

	group singleflight.Group

	mu       sync.Mutex
	key      string
	view     *View
	loadedAt time.Time
	gen      uint64
}

func NewCache(agg *Aggregator, ttl time.Duration) *Cache {
	return &Cache{agg: agg, ttl: ttl, now: time.Now}
}

// View returns the cached view for key or loads a fresh one. Views with a
// required-list failure are returned but not cached.
func (c *Cache) View(ctx context.Context, key string) (*View, error) {
	c.mu.Lock()
	if c.view != nil && c.key == key && (c.ttl <= 0 || c.now().Sub(c.loadedAt) < c.ttl) {
		v := c.view.snapshot()
		c.mu.Unlock()
		return &v, nil
	}
	gen := c.gen
	c.mu.Unlock()

	res, err, _ := c.group.Do(fmt.Sprintf("%s#%d", key, gen), func() (any, error) {
		view, err := c.agg.Load(context.WithoutCancel(ctx), nil)
		if err == nil {
			c.mu.Lock()
			if c.gen == gen {
				c.key, c.view, c.loadedAt = key, view, c.now()
			}
			c.mu.Unlock()
		}
		return view, err
	})
	view := res.(*View).snapshot()
	return &view, err
}

// Invalidate forces the next View to load.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.gen++
	c.view = nil
	c.mu.Unlock()
}
