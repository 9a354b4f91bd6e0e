package store

import (
	"context"
	"maps"
	"sync"
)

// Memory is an in-process KV. Its contents are lost on exit.
type Memory struct {
	mu    sync.Mutex
	items map[string]string
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]string)}
}

// Get implements KV.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(key)
}

// Put implements KV.
func (m *Memory) Put(ctx context.Context, entries map[string]string) error {
	return m.Update(ctx, putAll(entries))
}

// Update implements KV.
func (m *Memory) Update(_ context.Context, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := fn(m.get)
	if err != nil {
		return err
	}
	maps.Copy(m.items, entries)
	return nil
}

// Close implements KV.
func (m *Memory) Close() error { return nil }

func (m *Memory) get(key string) (string, bool, error) {
	v, ok := m.items[key]
	return v, ok, nil
}
