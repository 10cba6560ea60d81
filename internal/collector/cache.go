package collector

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"ValueSentinel/internal/model"
)

const (
	DefaultCacheTTL        = 5 * time.Minute
	DefaultCacheMaxEntries = 256

	// sharedFetchTimeout bounds an upstream fetch that no longer belongs to
	// a single caller.
	sharedFetchTimeout = 30 * time.Second
)

type cacheEntry struct {
	data     model.StockData
	storedAt time.Time
}

// CachedFetcher wraps a Fetcher with a time-bounded, size-bounded cache keyed
// by upper-case ticker. Concurrent misses for one ticker share one fetch,
// which outlives any single caller's cancellation.
type CachedFetcher struct {
	next       Fetcher
	ttl        time.Duration
	maxEntries int
	log        zerolog.Logger
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

// NewCachedFetcher creates a cache in front of next. Non-positive ttl or
// maxEntries fall back to the defaults.
func NewCachedFetcher(next Fetcher, ttl time.Duration, maxEntries int, log zerolog.Logger) *CachedFetcher {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultCacheMaxEntries
	}
	return &CachedFetcher{
		next:       next,
		ttl:        ttl,
		maxEntries: maxEntries,
		log:        log.With().Str("component", "cache").Logger(),
		now:        time.Now,
		entries:    make(map[string]cacheEntry),
	}
}

func (c *CachedFetcher) Name() string { return c.next.Name() + "+cache" }

func (c *CachedFetcher) FetchStockData(ctx context.Context, ticker string) (*model.StockData, error) {
	key := strings.ToUpper(strings.TrimSpace(ticker))
	if key == "" {
		return nil, ErrEmptyTicker
	}

	if data, ok := c.lookup(key); ok {
		c.log.Debug().Str("ticker", key).Msg("cache hit")
		return data, nil
	}
	c.log.Debug().Str("ticker", key).Msg("cache miss, fetching")

	ch := c.group.DoChan(key, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()
		data, err := c.next.FetchStockData(fctx, key)
		if err != nil {
			return nil, err
		}
		c.store(key, *data)
		return *data, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		data := res.Val.(model.StockData)
		return &data, nil
	}
}

// Len returns the number of cached entries, fresh or not.
func (c *CachedFetcher) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Purge drops expired entries.
func (c *CachedFetcher) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for k, e := range c.entries {
		if now.Sub(e.storedAt) >= c.ttl {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

func (c *CachedFetcher) lookup(key string) (*model.StockData, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	data := e.data
	return &data, true
}

func (c *CachedFetcher) store(key string, data model.StockData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}
	c.entries[key] = cacheEntry{data: data, storedAt: c.now()}
}

// evictOldest must be called with mu held.
func (c *CachedFetcher) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.storedAt.Before(oldest) {
			oldestKey, oldest = k, e.storedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
		c.log.Debug().Str("ticker", oldestKey).Msg("evicted oldest cache entry")
	}
}
