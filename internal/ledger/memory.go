package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type memoryEntry struct {
	key     string
	payload []byte
}

// Memory is an in-process, thread-safe Client implementation. It is primarily
// useful for testing and for single-process deployments that do not need
// durability across restarts.
type Memory struct {
	mu      sync.RWMutex
	streams map[string][]memoryEntry
}

// NewMemory creates an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{streams: make(map[string][]memoryEntry)}
}

// Append implements Client.
func (m *Memory) Append(_ context.Context, stream, key string, payload []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := make([]byte, len(payload))
	copy(p, payload)
	m.streams[stream] = append(m.streams[stream], memoryEntry{key: key, payload: p})
	return uuid.New().String(), nil
}

// ListForKey implements Client.
func (m *Memory) ListForKey(_ context.Context, stream, key string) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var payloads [][]byte
	for _, e := range m.streams[stream] {
		if e.key == key {
			payloads = append(payloads, e.payload)
		}
	}
	return payloads, nil
}

// ListAll implements Client. Entries come back in append order.
func (m *Memory) ListAll(_ context.Context, stream string) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := m.streams[stream]
	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, Item{Key: e.key, Payload: e.payload})
	}
	return items, nil
}
