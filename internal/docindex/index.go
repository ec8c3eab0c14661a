package docindex

import (
	"context"
	"errors"
)

var (
	ErrNotFound          = errors.New("chunk not found")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Chunk is one indexed unit of text. IDs are assigned by the index, stay
// stable for its lifetime and are never reused.
type Chunk struct {
	ID       int64  `json:"id"`
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type Entry struct {
	Filename string
	Content  string
	Vector   []float32
}

// Neighbor is a search hit. Distance is squared Euclidean distance.
type Neighbor struct {
	ID       int64
	Distance float64
}

type Index interface {
	Add(ctx context.Context, entries []Entry) ([]int64, error)
	Search(ctx context.Context, vector []float32, k int) ([]Neighbor, error)
	Size(ctx context.Context) (int, error)
	Chunk(ctx context.Context, id int64) (Chunk, error)
}

func SquaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
