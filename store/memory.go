package store

import (
	"context"
	"sync"
)

// Memory keeps values in process memory. Nothing survives a restart.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Read(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}

	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (m *Memory) Write(ctx context.Context, key string, data []byte) error {
	b := make([]byte, len(data))
	copy(b, data)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = b
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return nil
}
