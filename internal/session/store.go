package session

import (
	"context"
	"sync"
	"time"

	"github.com/filedesk/filedesk/internal/auth"
	"github.com/filedesk/filedesk/internal/cache"
)

// Store persists identities under hashed session keys.
// LoadSession returns cache.ErrCacheMiss for unknown or expired keys.
// *cache.Cache satisfies it.
type Store interface {
	SaveSession(ctx context.Context, key string, id auth.Identity, ttl time.Duration) error
	LoadSession(ctx context.Context, key string) (*auth.Identity, error)
	DeleteSession(ctx context.Context, key string) error
}

var _ Store = (*cache.Cache)(nil)

type memoryEntry struct {
	id        auth.Identity
	expiresAt time.Time
}

// MemoryStore is an in-process Store for tests and single-node development.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// SaveSession implements Store.
func (m *MemoryStore) SaveSession(_ context.Context, key string, id auth.Identity, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{id: id, expiresAt: m.now().Add(ttl)}
	return nil
}

// LoadSession implements Store.
func (m *MemoryStore) LoadSession(_ context.Context, key string) (*auth.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	if !m.now().Before(entry.expiresAt) {
		delete(m.entries, key)
		return nil, cache.ErrCacheMiss
	}
	id := entry.id
	return &id, nil
}

// DeleteSession implements Store.
func (m *MemoryStore) DeleteSession(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
