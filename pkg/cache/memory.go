package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultMemoryCapacity is the fast tier's entry limit.
const DefaultMemoryCapacity = 100

type memoryEntry struct {
	value     any
	createdAt time.Time
	expiresAt time.Time // zero means no expiry
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryTier is the capacity-bounded in-process tier. When full it evicts
// the least-recently-inserted entry (FIFO, not LRU: a read does not renew
// an entry's position).
type MemoryTier struct {
	mu       sync.Mutex
	entries  map[string]memoryEntry
	order    []string // insertion order for FIFO eviction
	capacity int

	now func() time.Time
}

// NewMemoryTier creates a memory tier; capacity <= 0 selects the default.
func NewMemoryTier(capacity int) *MemoryTier {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}

	return &MemoryTier{
		entries:  make(map[string]memoryEntry),
		capacity: capacity,
		now:      time.Now,
	}
}

func (m *MemoryTier) Name() string { return "memory" }

func (m *MemoryTier) Get(_ context.Context, key string) (any, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}

	if entry.expired(m.now()) {
		m.removeLocked(key)

		return nil, false, nil
	}

	return entry.value, true, nil
}

func (m *MemoryTier) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	entry := memoryEntry{value: value, createdAt: now}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}

	if _, exists := m.entries[key]; !exists {
		for len(m.entries) >= m.capacity && len(m.order) > 0 {
			m.removeLocked(m.order[0])
		}

		m.order = append(m.order, key)
	}

	m.entries[key] = entry

	return nil
}

func (m *MemoryTier) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.removeLocked(key)

	return nil
}

func (m *MemoryTier) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]memoryEntry)
	m.order = nil

	return nil
}

func (m *MemoryTier) Cleanup(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0

	for key, entry := range m.entries {
		if entry.expired(now) {
			m.removeLocked(key)

			removed++
		}
	}

	return removed, nil
}

// Len reports the current entry count, expired entries included.
func (m *MemoryTier) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.entries)
}

func (m *MemoryTier) removeLocked(key string) {
	if _, ok := m.entries[key]; !ok {
		return
	}

	delete(m.entries, key)

	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)

			break
		}
	}
}
