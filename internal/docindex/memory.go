package docindex

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryIndex is an exact flat L2 index held in process memory. Chunk IDs
// are insertion positions.
type MemoryIndex struct {
	dimensions int

	mu      sync.RWMutex
	chunks  []Chunk
	vectors [][]float32
}

func NewMemoryIndex(dimensions int) *MemoryIndex {
	return &MemoryIndex{dimensions: dimensions}
}

func (m *MemoryIndex) Add(ctx context.Context, entries []Entry) ([]int64, error) {
	for _, entry := range entries {
		if len(entry.Vector) != m.dimensions {
			return nil, fmt.Errorf("%w: index has %d, entry %q has %d", ErrDimensionMismatch, m.dimensions, entry.Filename, len(entry.Vector))
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(entries))
	for _, entry := range entries {
		id := int64(len(m.chunks))
		vector := make([]float32, len(entry.Vector))
		copy(vector, entry.Vector)
		m.chunks = append(m.chunks, Chunk{ID: id, Filename: entry.Filename, Content: entry.Content})
		m.vectors = append(m.vectors, vector)
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *MemoryIndex) Search(ctx context.Context, vector []float32, k int) ([]Neighbor, error) {
	if len(vector) != m.dimensions {
		return nil, fmt.Errorf("%w: index has %d, query has %d", ErrDimensionMismatch, m.dimensions, len(vector))
	}
	if k <= 0 {
		return []Neighbor{}, nil
	}

	m.mu.RLock()
	neighbors := make([]Neighbor, len(m.vectors))
	for i, candidate := range m.vectors {
		neighbors[i] = Neighbor{ID: int64(i), Distance: SquaredL2(vector, candidate)}
	}
	m.mu.RUnlock()

	sort.SliceStable(neighbors, func(i, j int) bool { return neighbors[i].Distance < neighbors[j].Distance })
	if len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	return neighbors, nil
}

func (m *MemoryIndex) Size(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks), nil
}

func (m *MemoryIndex) Chunk(_ context.Context, id int64) (Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id < 0 || id >= int64(len(m.chunks)) {
		return Chunk{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return m.chunks[id], nil
}
