package store

import (
	"context"
	"sync"
	"time"

	"github.com/ordervox/ordervox/internal/order"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory implementation of [Store]. It is the
// default backend for local runs and testing; sessions do not survive a
// restart.
type MemStore struct {
	mu       sync.RWMutex
	sessions map[string]order.Session
	orders   []order.FinalOrder
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{
		sessions: make(map[string]order.Session),
	}
}

// Create implements [Store.Create].
func (m *MemStore) Create(ctx context.Context, s order.Session) (order.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sessions[s.CallID]; ok {
		return existing, nil
	}
	s.Version = 1
	m.sessions[s.CallID] = s
	return s, nil
}

// Load implements [Store.Load].
func (m *MemStore) Load(ctx context.Context, callID string) (order.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[callID]
	if !ok {
		return order.Session{}, ErrNotFound
	}
	return s, nil
}

// Save implements [Store.Save].
func (m *MemStore) Save(ctx context.Context, s order.Session) (order.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.sessions[s.CallID]
	if !ok {
		return order.Session{}, ErrNotFound
	}
	if stored.Version != s.Version {
		return order.Session{}, ErrConflict
	}
	s.Version++
	s.UpdatedAt = time.Now().UTC()
	m.sessions[s.CallID] = s
	return s, nil
}

// SaveOrder implements [Store.SaveOrder].
func (m *MemStore) SaveOrder(ctx context.Context, fo order.FinalOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.orders = append(m.orders, fo)
	return nil
}

// Ping implements [Store.Ping]. Memory is always reachable.
func (m *MemStore) Ping(ctx context.Context) error { return nil }

// Orders returns a copy of all finalized orders, oldest first.
func (m *MemStore) Orders() []order.FinalOrder {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]order.FinalOrder, len(m.orders))
	copy(out, m.orders)
	return out
}
