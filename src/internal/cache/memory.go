package cache

import (
	"sync"
	"time"
)

type memEntry struct {
	value    []byte
	storedAt time.Time
}

// Memory is a goroutine-safe in-process cache.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memEntry
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: map[string]memEntry{}}
}

func (m *Memory) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *Memory) Get(key string, ttl time.Duration) ([]byte, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || !fresh(e.storedAt, m.now(), ttl) {
		return nil, false
	}
	return append([]byte(nil), e.value...), true
}

func (m *Memory) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memEntry{value: append([]byte(nil), value...), storedAt: m.now()}
	return nil
}
