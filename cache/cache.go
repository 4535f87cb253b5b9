package cache

import (
	"context"
	"path"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"cosmossdk.io/log"
)

// NoExpiry marks an entry that never expires on its own.
const NoExpiry = time.Duration(-1)

// Service is the key/value substrate shared by the spending-plan registry
// and the memoization decorator. Keys follow the collection-prefix pattern
// {collection}:{identifier}[:{sub-key}].
type Service interface {
	Get(ctx context.Context, key, caller string) (string, bool)
	Set(ctx context.Context, key, value, caller string, ttl time.Duration)
	Delete(ctx context.Context, key, caller string)
	Keys(ctx context.Context, pattern, caller string) []string
	Clear(ctx context.Context)
}

type entry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// LocalCache is an in-process Service bounded by an LRU. Per-entry TTLs are
// enforced on read; the LRU cap bounds memory for entries that never get
// read again.
type LocalCache struct {
	mtx    sync.Mutex
	store  *lru.Cache[string, entry]
	logger log.Logger
}

// NewLocalCache creates a cache holding at most maxEntries values.
func NewLocalCache(maxEntries int, logger log.Logger) (*LocalCache, error) {
	store, err := lru.New[string, entry](maxEntries)
	if err != nil {
		return nil, err
	}
	return &LocalCache{
		store:  store,
		logger: logger.With(log.ModuleKey, "cache"),
	}, nil
}

// Get returns the live value for key, evicting it when expired.
func (c *LocalCache) Get(_ context.Context, key, caller string) (string, bool) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	e, ok := c.store.Get(key)
	if !ok {
		return "", false
	}
	if e.expired(time.Now()) {
		c.store.Remove(key)
		c.logger.Debug("cache entry expired", "key", key, "caller", caller)
		return "", false
	}
	return e.value, true
}

// Set stores value under key. A ttl of NoExpiry keeps the entry until LRU
// eviction or explicit deletion.
func (c *LocalCache) Set(_ context.Context, key, value, caller string, ttl time.Duration) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	e := entry{value: value}
	if ttl != NoExpiry {
		e.expiresAt = time.Now().Add(ttl)
	}
	c.store.Add(key, e)
	c.logger.Debug("cache set", "key", key, "caller", caller, "ttl", ttl)
}

// Delete removes key if present.
func (c *LocalCache) Delete(_ context.Context, key, caller string) {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.store.Remove(key) {
		c.logger.Debug("cache delete", "key", key, "caller", caller)
	}
}

// Keys returns all live keys matching pattern. Patterns use path.Match
// syntax with ':' treated as a literal, e.g. "hbarSpendingPlan:*:amountSpent".
func (c *LocalCache) Keys(_ context.Context, pattern, caller string) []string {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	now := time.Now()
	var matched []string
	for _, key := range c.store.Keys() {
		e, ok := c.store.Peek(key)
		if !ok || e.expired(now) {
			continue
		}
		if matchKey(pattern, key) {
			matched = append(matched, key)
		}
	}
	c.logger.Debug("cache keys", "pattern", pattern, "caller", caller, "matched", len(matched))
	return matched
}

// Clear drops every entry.
func (c *LocalCache) Clear(_ context.Context) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.store.Purge()
}

// matchKey applies the glob pattern segment-wise over ':' so '*' never
// crosses a collection boundary.
func matchKey(pattern, key string) bool {
	pp := strings.Split(pattern, ":")
	kp := strings.Split(key, ":")
	if len(pp) != len(kp) {
		return false
	}
	for i := range pp {
		ok, err := path.Match(pp[i], kp[i])
		if err != nil || !ok {
			return false
		}
	}
	return true
}
