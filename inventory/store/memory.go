// Package store provides inventory.Store implementations.
package store

import (
	"context"
	"sync"

	"github.com/warp/parts-ledger/inventory"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu    sync.RWMutex
	blobs map[string][]byte

	// FailSave, when set, is returned by Save instead of writing.
	FailSave error
	// FailLoad, when set, is returned by Load.
	FailLoad error
}

var _ inventory.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

// Load returns a copy of the blob under key.
func (m *Memory) Load(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailLoad != nil {
		return nil, false, m.FailLoad
	}
	b, ok := m.blobs[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), b...), true, nil
}

// Save writes all entries atomically.
func (m *Memory) Save(_ context.Context, entries ...inventory.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailSave != nil {
		return m.FailSave
	}
	for _, e := range entries {
		m.blobs[e.Key] = append([]byte(nil), e.Value...)
	}
	return nil
}

// Put seeds a raw blob, bypassing encoding. Used to load fixtures.
func (m *Memory) Put(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), value...)
}

// Keys returns the number of stored keys.
func (m *Memory) Keys() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}

func (m *Memory) Close() error { return nil }
