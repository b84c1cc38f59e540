package smartrouter

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"strings"
	"sync"
	"time"
)

// Cache stores completed responses keyed by conversation fingerprint.
// Implementations must be safe for concurrent use. A miss is reported as
// ok=false with a nil error; errors are reserved for backend failures.
type Cache interface {
	Lookup(ctx context.Context, key string) (Response, bool, error)
	Store(ctx context.Context, key string, resp Response, ttl time.Duration) error
	Purge(ctx context.Context) (int, error)
	Close() error
}

// Fingerprint derives a stable cache key from a conversation and the active
// strategy. Every field is length-prefixed before hashing so that different
// message boundaries never produce the same key.
func Fingerprint(messages []Message, strategy Strategy) string {
	h := sha256.New()
	writeFrame(h, []byte(strategy))
	for _, m := range messages {
		writeFrame(h, []byte(m.Role))
		writeFrame(h, []byte(strings.TrimSpace(m.Content)))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeFrame(h hash.Hash, b []byte) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(b)))
	h.Write(n[:])
	h.Write(b)
}

const cachePurgeEvery = 128

type cacheEntry struct {
	resp    Response
	expires time.Time
}

// MemoryCache is the default in-process Cache. Expired entries are treated
// as misses immediately and reclaimed lazily, either by Purge or after every
// cachePurgeEvery stores.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	stores  int
}

var _ Cache = (*MemoryCache)(nil)

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]cacheEntry)}
}

func (c *MemoryCache) Lookup(_ context.Context, key string) (Response, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !time.Now().Before(e.expires) {
		return Response{}, false, nil
	}
	return e.resp, true, nil
}

func (c *MemoryCache) Store(_ context.Context, key string, resp Response, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{resp: resp, expires: time.Now().Add(ttl)}
	c.stores++
	if c.stores%cachePurgeEvery == 0 {
		c.purgeLocked(time.Now())
	}
	return nil
}

// Purge removes all expired entries and reports how many were dropped.
func (c *MemoryCache) Purge(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.purgeLocked(time.Now()), nil
}

func (c *MemoryCache) purgeLocked(now time.Time) int {
	dropped := 0
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
			dropped++
		}
	}
	return dropped
}

// Len reports the number of entries currently held, including expired ones
// not yet reclaimed.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *MemoryCache) Close() error { return nil }
