package hostgate

import (
	"context"
	"sync"
)

// MemoryStore is a Store that keeps the persisted value in memory.
// It backs the gate in tests and when no data directory is available.
type MemoryStore struct {
	mu    sync.Mutex
	value string
	saves int
	err   error
}

// NewMemoryStore creates a MemoryStore holding the given initial value.
func NewMemoryStore(value string) *MemoryStore {
	return &MemoryStore{value: value}
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, nil
}

// Save implements Store. It fails with the error set by FailWith, if any.
func (m *MemoryStore) Save(_ context.Context, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.value = value
	m.saves++
	return nil
}

// Value returns the currently stored value.
func (m *MemoryStore) Value() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value
}

// Saves returns how many successful writes happened.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// FailWith makes every subsequent Save return err. Pass nil to recover.
func (m *MemoryStore) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}
