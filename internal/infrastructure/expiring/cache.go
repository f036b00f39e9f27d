// Package expiring provides the process-wide in-memory cache: string keys,
// arbitrary values, per-entry TTL, bulk invalidation by key matcher and a
// read-through GetOrSet. Expired entries are dropped lazily on read and
// proactively by a background sweep.
package expiring

import (
	"context"
	"regexp"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/avatarctic/newsletter-saas/internal/core/ports"
)

const (
	DefaultTTL           = 5 * time.Minute
	DefaultSweepInterval = time.Minute
)

// Config controls cache defaults.
type Config struct {
	// DefaultTTL applies when Set or GetOrSet is called with ttl <= 0.
	DefaultTTL time.Duration
	// SweepInterval is the period of the background expiry scan. Negative disables the sweeper.
	SweepInterval time.Duration
	// Coalesce makes concurrent GetOrSet misses on one key share a single producer call.
	Coalesce bool
}

type entry struct {
	value     any
	expiresAt time.Time
}

// expired reports whether the entry is absent at now. An entry is live strictly before expiresAt.
func (e *entry) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// Cache implements ports.ExpiringCache. It is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*entry

	defaultTTL time.Duration
	coalesce   bool
	group      singleflight.Group
	logger     *logrus.Logger
	now        func() time.Time

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

var _ ports.ExpiringCache = (*Cache)(nil)

// New creates a cache and starts its sweeper. Call Close to stop the sweeper.
func New(cfg Config, logger *logrus.Logger) *Cache {
	ttl := cfg.DefaultTTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	interval := cfg.SweepInterval
	if interval == 0 {
		interval = DefaultSweepInterval
	}
	c := &Cache{
		entries:    make(map[string]*entry),
		defaultTTL: ttl,
		coalesce:   cfg.Coalesce,
		logger:     logger,
		now:        time.Now,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	if interval > 0 {
		go c.sweepLoop(interval)
	} else {
		close(c.done)
	}
	return c
}

// Get returns the live value for key. A stale entry is deleted as a side effect.
func (c *Cache) Get(key string) (any, bool) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		cacheMisses.Inc()
		return nil, false
	}
	if e.expired(now) {
		c.mu.Lock()
		// Re-check: a concurrent Set may have replaced the entry.
		if cur, ok := c.entries[key]; ok && cur.expired(now) {
			delete(c.entries, key)
			cacheEvictions.WithLabelValues("expired").Inc()
		}
		c.mu.Unlock()
		cacheMisses.Inc()
		return nil, false
	}
	cacheHits.Inc()
	return e.value, true
}

// Has reports presence with the same lazy-expiry semantics as Get.
func (c *Cache) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Set stores value under key, replacing any existing entry.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	e := &entry{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
}

// Delete removes key and reports whether it was present.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	_, ok := c.entries[key]
	if ok {
		delete(c.entries, key)
	}
	c.mu.Unlock()
	if ok {
		cacheEvictions.WithLabelValues("deleted").Inc()
	}
	return ok
}

// DeletePattern compiles pattern as a regular expression and deletes every
// held key it matches (unanchored). A malformed pattern is returned as an error
// and nothing is deleted.
func (c *Cache) DeletePattern(pattern string) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, err
	}
	return c.DeleteMatching(Regexp{re: re}), nil
}

// DeleteMatching deletes every held key selected by m and returns the count.
func (c *Cache) DeleteMatching(m ports.KeyMatcher) int {
	if m == nil {
		return 0
	}
	c.mu.Lock()
	n := 0
	for k := range c.entries {
		if m.Match(k) {
			delete(c.entries, k)
			n++
		}
	}
	c.mu.Unlock()
	if n > 0 {
		cacheEvictions.WithLabelValues("deleted").Add(float64(n))
	}
	return n
}

// GetOrSet returns the cached value for key, or calls producer, stores its
// result for ttl and returns it. A producer error is returned unchanged and
// nothing is cached.
//
// Without Coalesce, concurrent misses on the same key each call producer.
// With Coalesce, they share the first caller's call (and its context).
func (c *Cache) GetOrSet(ctx context.Context, key string, ttl time.Duration, producer func(context.Context) (any, error)) (any, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	if !c.coalesce {
		return c.produce(ctx, key, ttl, producer)
	}
	// The shared call outlives any single caller, so it must not inherit one caller's cancellation.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		return c.produce(shared, key, ttl, producer)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) produce(ctx context.Context, key string, ttl time.Duration, producer func(context.Context) (any, error)) (any, error) {
	v, err := producer(ctx)
	if err != nil {
		cacheProducerFailures.Inc()
		if c.logger != nil {
			c.logger.WithFields(logrus.Fields{"key": key}).WithError(err).Error("cache: producer failed, nothing cached")
		}
		return nil, err
	}
	c.Set(key, v, ttl)
	return v, nil
}

// Clear empties the store.
func (c *Cache) Clear() {
	c.mu.Lock()
	n := len(c.entries)
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{"removed": n}).Info("cache: cleared")
	}
}

// Stats counts entries; MemoryUsage is the process heap in bytes.
func (c *Cache) Stats() ports.CacheStats {
	now := c.now()
	var st ports.CacheStats
	c.mu.RLock()
	st.TotalEntries = len(c.entries)
	for _, e := range c.entries {
		if e.expired(now) {
			st.ExpiredEntries++
		}
	}
	c.mu.RUnlock()
	st.ActiveEntries = st.TotalEntries - st.ExpiredEntries

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	st.MemoryUsage = ms.HeapAlloc
	return st
}

// Sweep deletes every expired entry and returns how many were removed.
func (c *Cache) Sweep() int {
	now := c.now()
	c.mu.Lock()
	n := 0
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
			n++
		}
	}
	remaining := len(c.entries)
	c.mu.Unlock()
	cacheEntries.Set(float64(remaining))
	if n > 0 {
		cacheEvictions.WithLabelValues("sweep").Add(float64(n))
	}
	return n
}

func (c *Cache) sweepLoop(interval time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if n := c.Sweep(); n > 0 && c.logger != nil {
				c.logger.WithFields(logrus.Fields{"removed": n}).Debug("cache: swept expired entries")
			}
		}
	}
}

// Close stops the sweeper. The cache remains usable.
func (c *Cache) Close() error {
	c.closeOnce.Do(func() { close(c.stop) })
	<-c.done
	return nil
}
