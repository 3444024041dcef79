package storage

import (
	"context"
	"sync"
)

// MemoryStore is the fallback when the SQLite file cannot be opened. Nothing
// survives the process.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[Scope]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[Scope]map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, scope Scope, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[scope][key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(_ context.Context, scope Scope, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[scope] == nil {
		m.data[scope] = make(map[string]string)
	}
	m.data[scope][key] = value
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, scope Scope, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[scope], key)
	return nil
}

func (m *MemoryStore) ClearScope(_ context.Context, scope Scope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, scope)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
