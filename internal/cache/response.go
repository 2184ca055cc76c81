// Package cache provides the response cache and the in-memory page cache.
package cache

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/usestring/kotoba-mcp/internal/metrics"
	"github.com/usestring/kotoba-mcp/internal/storage"
)

// LedgerKey is the reserved storage key holding the insertion-order ledger.
const LedgerKey = "__kotoba_response_cache_keys"

// cachedResponse is the stored form of a response body.
type cachedResponse struct {
	ExpireTime int64           `json:"expireTime"` // unix ms; 0 never matches
	JSON       json.RawMessage `json:"json"`
}

// Stats is a point-in-time view of cache activity.
type Stats struct {
	Keys          int   `json:"keys"`
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Expired       int64 `json:"expired"`
	Evictions     int64 `json:"evictions"`
	WriteFailures int64 `json:"write_failures"`
}

// ResponseCache is a best-effort, capacity-bounded cache of API response
// bodies keyed by request URL, persisted in a storage.Store.
//
// Eviction is FIFO by insertion, not LRU: when the store reports it is out of
// space, the oldest half of the previously inserted keys is removed and the
// write is retried. Expired entries are treated as absent and are only
// removed by eviction. No method returns an error; storage failures degrade
// to cache misses and skipped writes.
type ResponseCache struct {
	store         storage.Store
	defaultMaxAge time.Duration
	now           func() time.Time
	metrics       *metrics.Metrics

	mu     sync.Mutex
	ledger []string
	stats  Stats
}

// ResponseOption configures a ResponseCache.
type ResponseOption func(*ResponseCache)

// WithDefaultMaxAge sets the max age used when a response has no max-age.
func WithDefaultMaxAge(d time.Duration) ResponseOption {
	return func(c *ResponseCache) {
		c.defaultMaxAge = d
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ResponseOption {
	return func(c *ResponseCache) {
		c.now = now
	}
}

// WithMetrics records cache activity to m.
func WithMetrics(m *metrics.Metrics) ResponseOption {
	return func(c *ResponseCache) {
		c.metrics = m
	}
}

// NewResponseCache creates a cache over store, reloading any ledger a
// previous instance persisted there.
func NewResponseCache(store storage.Store, opts ...ResponseOption) *ResponseCache {
	c := &ResponseCache{
		store:         store,
		defaultMaxAge: DefaultMaxAge,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ledger = c.loadLedger()
	return c
}

func (c *ResponseCache) loadLedger() []string {
	raw, ok, err := c.store.Get(LedgerKey)
	if err != nil || !ok {
		return nil
	}
	var keys []string
	if err := json.Unmarshal(raw, &keys); err != nil {
		slog.Debug("discarding unreadable cache ledger", slog.String("error", err.Error()))
		return nil
	}
	return keys
}

// Get returns the cached body for key, or false if it is absent, expired,
// unreadable, or storage is unavailable.
func (c *ResponseCache) Get(key string) (json.RawMessage, bool) {
	raw, ok, err := c.store.Get(key)
	if err != nil {
		slog.Debug("response cache read failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		c.recordLookup("miss")
		return nil, false
	}
	if !ok {
		c.recordLookup("miss")
		return nil, false
	}

	var entry cachedResponse
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.recordLookup("miss")
		return nil, false
	}
	if entry.ExpireTime <= c.now().UnixMilli() {
		c.recordLookup("expired")
		return nil, false
	}

	c.recordLookup("hit")
	return entry.JSON, true
}

// Put caches body under key with an expiry derived from the response's Date
// and Cache-Control headers.
func (c *ResponseCache) Put(key string, body json.RawMessage, header http.Header) {
	c.PutWithExpiry(key, body, ExpireTime(header, c.defaultMaxAge))
}

// PutWithExpiry caches body under key until expireTime (unix ms).
func (c *ResponseCache) PutWithExpiry(key string, body json.RawMessage, expireTime int64) {
	value, err := json.Marshal(cachedResponse{ExpireTime: expireTime, JSON: body})
	if err != nil {
		slog.Debug("response cache encode failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.ledger = append(removeKey(c.ledger, key), key)

	for {
		err := c.write(key, value)
		if err == nil {
			return
		}
		if !storage.IsQuotaExceeded(err) {
			slog.Debug("response cache write skipped",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
			c.abandon(key)
			return
		}

		// FIFO half-clear: drop the older half of the ledger, never the key being written.
		previous := len(c.ledger) - 1
		if previous == 0 {
			slog.Debug("response cache full with nothing left to evict",
				slog.String("key", key),
				slog.Int("bytes", len(value)),
			)
			c.abandon(key)
			return
		}
		c.evictOldest((previous + 1) / 2)
	}
}

// write stores the entry then persists the ledger.
func (c *ResponseCache) write(key string, value []byte) error {
	if err := c.store.Set(key, value); err != nil {
		return err
	}
	return c.persistLedger()
}

func (c *ResponseCache) persistLedger() error {
	raw, err := json.Marshal(c.ledger)
	if err != nil {
		return err
	}
	return c.store.Set(LedgerKey, raw)
}

// evictOldest removes the first n ledger keys and their entries.
// The caller holds c.mu.
func (c *ResponseCache) evictOldest(n int) {
	victims := c.ledger[:n]
	for _, k := range victims {
		if err := c.store.Delete(k); err != nil {
			slog.Debug("response cache eviction delete failed",
				slog.String("key", k),
				slog.String("error", err.Error()),
			)
		}
	}
	c.ledger = append([]string(nil), c.ledger[n:]...)
	c.stats.Evictions += int64(n)
	c.metrics.CacheEvicted(n)

	slog.Debug("response cache evicted entries",
		slog.Int("evicted", n),
		slog.Int("remaining", len(c.ledger)),
	)
}

// abandon drops key after a failed write. The caller holds c.mu.
func (c *ResponseCache) abandon(key string) {
	c.ledger = removeKey(c.ledger, key)
	_ = c.store.Delete(key)
	_ = c.persistLedger()
	c.stats.WriteFailures++
	c.metrics.CacheWriteFailed()
}

// Len returns the number of keys in the ledger.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ledger)
}

// Keys returns the ledger in insertion order, oldest first.
func (c *ResponseCache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.ledger...)
}

// Stats returns a snapshot of cache activity.
func (c *ResponseCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Keys = len(c.ledger)
	return s
}

func (c *ResponseCache) recordLookup(result string) {
	c.mu.Lock()
	switch result {
	case "hit":
		c.stats.Hits++
	case "expired":
		c.stats.Expired++
	default:
		c.stats.Misses++
	}
	c.mu.Unlock()
	c.metrics.CacheLookup(result)
}

func removeKey(keys []string, key string) []string {
	out := keys[:0:0]
	for _, k := range keys {
		if k != key {
			out = append(out, k)
		}
	}
	return out
}
