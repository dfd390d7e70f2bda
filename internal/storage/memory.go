package storage

import (
	"bytes"
	"context"
	"sync"
)

// MemoryArea keeps values in process memory. Stores opened on the same
// MemoryArea see each other's writes through Watch.
type MemoryArea struct {
	mu       sync.RWMutex
	values   map[string][]byte
	closed   bool
	watchers WatcherSet
}

func NewMemoryArea() *MemoryArea {
	return &MemoryArea{values: make(map[string][]byte)}
}

func (m *MemoryArea) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, false, ErrContextInvalidated
	}
	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(v), true, nil
}

func (m *MemoryArea) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrContextInvalidated
	}
	m.values[key] = bytes.Clone(value)
	m.mu.Unlock()

	m.watchers.Notify(key, bytes.Clone(value))
	return nil
}

func (m *MemoryArea) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrContextInvalidated
	}
	_, existed := m.values[key]
	delete(m.values, key)
	m.mu.Unlock()

	if existed {
		m.watchers.Notify(key, nil)
	}
	return nil
}

func (m *MemoryArea) Watch(key string, fn func(value []byte)) func() {
	return m.watchers.Add(key, fn)
}

// Close invalidates the area; later calls fail with ErrContextInvalidated.
func (m *MemoryArea) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
