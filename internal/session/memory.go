package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Sancus/donate-wagtail/internal/domain"
)

// MemoryStore is a process-local Store used when no Redis address is
// configured, and by tests. Sessions are kept JSON-encoded so the round trip
// matches what the Redis store does.
type MemoryStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	data map[string]memoryEntry
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// NewMemoryStore creates an in-memory session store with the given TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:  ttl,
		data: make(map[string]memoryEntry),
	}
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.data[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if time.Now().After(entry.expiresAt) {
		delete(m.data, id)
		return nil, domain.ErrSessionNotFound
	}

	var sess Session
	if err := json.Unmarshal(entry.payload, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &sess, nil
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, sess *Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[sess.ID] = memoryEntry{
		payload:   payload,
		expiresAt: time.Now().Add(m.ttl),
	}
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}
