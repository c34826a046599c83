package repository

import (
	"context"
	"sync"
)

var _ Backend = (*MemoryBackend)(nil)

// MemoryBackend keeps collections in process memory. Used by tests and by
// STORAGE_BACKEND=memory for throwaway demo runs.
type MemoryBackend struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{blobs: make(map[string][]byte)}
}

func (m *MemoryBackend) Load(_ context.Context, collection string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	body, ok := m.blobs[collection]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), body...), nil
}

func (m *MemoryBackend) Save(_ context.Context, collection string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[collection] = append([]byte(nil), body...)
	return nil
}

func (m *MemoryBackend) Ping(context.Context) error { return nil }

func (m *MemoryBackend) Close() error { return nil }
