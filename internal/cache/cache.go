// Package cache memoizes aggregate queries.
//
// Values are opaque byte slices so a cached result can never be mutated
// through a shared reference. Keys are built with the helpers in keys.go and
// encode every parameter that changes a result; InvalidatePattern takes glob
// patterns in path.Match syntax.
package cache

import (
	"context"
	"path"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"bookkeeper/internal/logger"
)

// Cache is the contract the engine consumes
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
	InvalidatePattern(pattern string) int
}

type entry struct {
	value   []byte
	expires time.Time
}

// Memory is an in-process TTL cache
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
	log     zerolog.Logger
}

// NewMemory creates an empty in-memory cache
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
		log:     logger.WithComponent("cache"),
	}
}

// WithClock replaces the time source, for tests
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

// Get returns a copy of the value if present and not expired
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || !m.now().Before(e.expires) {
		return nil, false
	}
	return append([]byte(nil), e.value...), true
}

// Set stores a copy of value. A non-positive ttl stores nothing.
func (m *Memory) Set(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	m.mu.Lock()
	m.entries[key] = entry{value: append([]byte(nil), value...), expires: m.now().Add(ttl)}
	m.mu.Unlock()
}

// InvalidatePattern drops every key matching pattern and returns how many
// were dropped
func (m *Memory) InvalidatePattern(pattern string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := 0
	for key := range m.entries {
		if ok, err := path.Match(pattern, key); err != nil {
			m.log.Warn().Err(err).Str("pattern", pattern).Msg("Invalid cache pattern")
			return dropped
		} else if ok {
			delete(m.entries, key)
			dropped++
		}
	}
	if dropped > 0 {
		m.log.Debug().Str("pattern", pattern).Int("dropped", dropped).Msg("Cache entries invalidated")
	}
	return dropped
}

// Purge removes expired entries
func (m *Memory) Purge() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	purged := 0
	for key, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, key)
			purged++
		}
	}
	return purged
}

// Len returns the number of stored entries, expired ones included
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// StartJanitor purges expired entries every interval until ctx is done
func (m *Memory) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.Purge(); n > 0 {
					m.log.Debug().Int("purged", n).Msg("Expired cache entries purged")
				}
			}
		}
	}()
}

// Noop never stores anything
type Noop struct{}

func (Noop) Get(string) ([]byte, bool)         { return nil, false }
func (Noop) Set(string, []byte, time.Duration) {}
func (Noop) InvalidatePattern(string) int      { return 0 }
