package credentials

import (
	"context"
	"sync"
)

// MemoryStore — потокобезопасное хранилище в памяти процесса.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}

	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()

	return nil
}

func (m *MemoryStore) Remove(_ context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()

	return nil
}

var _ Store = (*MemoryStore)(nil)
