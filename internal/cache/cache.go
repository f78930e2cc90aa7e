// Package cache stores fetched page bodies between runs so repeated imports
// within a short period do not hit venue sites again.
package cache

import (
	"errors"
	"sync"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// ErrMiss is returned by Get when the key is not cached
var ErrMiss = errors.New("cache miss")

// Cache is a byte cache with per-entry expiration
type Cache interface {
	// Get retrieves a value; ErrMiss when absent
	Get(key string) ([]byte, error)

	// Set stores a value for the given duration
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(key string) error
}

// MemcacheCache implements Cache on memcached
type MemcacheCache struct {
	client *memcache.Client
}

// NewMemcache creates a cache backed by the given memcached servers
func NewMemcache(servers ...string) *MemcacheCache {
	return &MemcacheCache{client: memcache.New(servers...)}
}

// Ping checks that a memcached server is reachable
func (m *MemcacheCache) Ping() error {
	return m.client.Ping()
}

// Get retrieves a value from memcache
func (m *MemcacheCache) Get(key string) ([]byte, error) {
	item, err := m.client.Get(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return item.Value, nil
}

// maxRelativeExpiration is the longest TTL memcached accepts as relative.
// Larger values are read as an absolute Unix timestamp.
const maxRelativeExpiration = 30 * 24 * time.Hour

// Set stores a value in memcache with an expiration time
func (m *MemcacheCache) Set(key string, value []byte, expiration time.Duration) error {
	return m.client.Set(&memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: expirationSeconds(expiration, time.Now()),
	})
}

// expirationSeconds converts a TTL to memcached's Expiration field. TTLs over
// thirty days become an absolute Unix time; zero or negative means no expiry.
func expirationSeconds(ttl time.Duration, now time.Time) int32 {
	switch {
	case ttl <= 0:
		return 0
	case ttl > maxRelativeExpiration:
		return int32(now.Add(ttl).Unix())
	case ttl < time.Second:
		return 1
	default:
		return int32(ttl / time.Second)
	}
}

// Delete removes a value from memcache
func (m *MemcacheCache) Delete(key string) error {
	err := m.client.Delete(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil
	}
	return err
}

// Memory is an in-process Cache, used when no memcached is configured
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// NewMemory creates an empty in-process cache
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry), now: time.Now}
}

// Get retrieves a value, treating expired entries as missing
func (m *Memory) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, key)
		return nil, ErrMiss
	}
	return append([]byte(nil), e.value...), nil
}

// Set stores a value; a non-positive expiration never expires
func (m *Memory) Set(key string, value []byte, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{value: append([]byte(nil), value...)}
	if expiration > 0 {
		e.expires = m.now().Add(expiration)
	}
	m.entries[key] = e
	return nil
}

// Delete removes a value
func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}
