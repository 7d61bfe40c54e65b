package cache

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Stats is a point-in-time cache statistics snapshot.
type Stats struct {
	Size    int     `json:"size"`
	MaxSize int     `json:"max_size"`
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

type entry struct {
	value    any
	storedAt time.Time
	ttl      time.Duration
}

// ResponseCache is a TTL key/value store bounded by entry count. Eviction
// is oldest-insertion-first (FIFO), deliberately not LRU: a read never
// refreshes an entry's position. Expired entries are treated as absent and
// removed lazily on Get.
type ResponseCache struct {
	mu         sync.Mutex
	entries    map[string]entry
	order      []string // insertion order, oldest first
	maxSize    int
	defaultTTL time.Duration
	hits       uint64
	misses     uint64
	now        func() time.Time
}

// New creates a ResponseCache holding at most maxSize entries.
func New(maxSize int, defaultTTL time.Duration) *ResponseCache {
	if maxSize <= 0 {
		maxSize = 500
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &ResponseCache{
		entries:    make(map[string]entry),
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Get returns the live value for key, or (nil, false) for absent or
// expired entries.
func (c *ResponseCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if c.now().Sub(e.storedAt) > e.ttl {
		c.removeLocked(key)
		c.misses++
		return nil, false
	}
	c.hits++
	return e.value, true
}

// Set stores value under key. ttl <= 0 uses the default. At capacity the
// single oldest-inserted entry is evicted first.
func (c *ResponseCache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		if len(c.entries) >= c.maxSize && len(c.order) > 0 {
			c.removeLocked(c.order[0])
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = entry{value: value, storedAt: c.now(), ttl: ttl}
}

// Clear removes every entry. Hit/miss counters are kept.
func (c *ResponseCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
	c.order = c.order[:0]
}

// CleanupExpired removes all expired entries and returns how many went.
func (c *ResponseCache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if now.Sub(e.storedAt) > e.ttl {
			c.removeLocked(key)
			removed++
		}
	}
	return removed
}

// Stats returns a snapshot of current cache statistics.
func (c *ResponseCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Size:    len(c.entries),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

func (c *ResponseCache) removeLocked(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Key builds a deterministic cache key from an endpoint and its parameter
// set. Parameters are sorted so identical logical requests collide on the
// same key regardless of call order.
func Key(endpoint string, params map[string]string) string {
	if len(params) == 0 {
		return endpoint
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(endpoint)
	for _, k := range keys {
		b.WriteByte(':')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return b.String()
}
