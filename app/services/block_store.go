package services

import (
	"context"
	"sort"
	"sync"
)

// BlockStats describes the blocking index.
type BlockStats struct {
	Blocks  int64 `json:"blocks"`
	Members int64 `json:"members"`
}

// BlockStore maps near-dupe keys to the IDs of records that produced them.
type BlockStore interface {
	// Add appends record IDs to the block of key.
	Add(ctx context.Context, key string, recordIDs ...string) error

	// Members returns the sorted record IDs of key; a missing key is empty.
	Members(ctx context.Context, key string) ([]string, error)

	Delete(ctx context.Context, key string) error

	Clear(ctx context.Context) error

	Stats(ctx context.Context) (*BlockStats, error)

	Close() error
}

// MemoryBlockStore is the process-local BlockStore used when Redis is not
// configured.
type MemoryBlockStore struct {
	mu     sync.RWMutex
	blocks map[string]map[string]struct{}
}

var _ BlockStore = (*MemoryBlockStore)(nil)

func NewMemoryBlockStore() *MemoryBlockStore {
	return &MemoryBlockStore{blocks: make(map[string]map[string]struct{})}
}

func (m *MemoryBlockStore) Add(ctx context.Context, key string, recordIDs ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.blocks[key]
	if !ok {
		b = make(map[string]struct{}, len(recordIDs))
		m.blocks[key] = b
	}
	for _, id := range recordIDs {
		b[id] = struct{}{}
	}
	return nil
}

func (m *MemoryBlockStore) Members(ctx context.Context, key string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.blocks[key]))
	for id := range m.blocks[key] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryBlockStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blocks, key)
	return nil
}

func (m *MemoryBlockStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = make(map[string]map[string]struct{})
	return nil
}

func (m *MemoryBlockStore) Stats(ctx context.Context) (*BlockStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &BlockStats{Blocks: int64(len(m.blocks))}
	for _, b := range m.blocks {
		stats.Members += int64(len(b))
	}
	return stats, nil
}

func (m *MemoryBlockStore) Close() error { return nil }
