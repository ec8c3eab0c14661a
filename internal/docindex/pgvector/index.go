package pgvector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	pgv "github.com/pgvector/pgvector-go"

	"github.com/hybridqa/hybridqa/internal/docindex"
)

const (
	insertChunkSQL = `INSERT INTO document_chunks (filename, content, embedding) VALUES ($1, $2, $3) RETURNING id`
	searchSQL      = `SELECT id, embedding <-> $1 AS distance FROM document_chunks ORDER BY embedding <-> $1 LIMIT $2`
	countSQL       = `SELECT COUNT(*) FROM document_chunks`
	chunkSQL       = `SELECT filename, content FROM document_chunks WHERE id = $1`
)

// Index stores chunks and their embeddings in PostgreSQL using the
// pgvector extension, so the corpus survives restarts.
type Index struct {
	db         *sql.DB
	dimensions int
}

func New(db *sql.DB, dimensions int) *Index {
	return &Index{db: db, dimensions: dimensions}
}

func (i *Index) Add(ctx context.Context, entries []docindex.Entry) ([]int64, error) {
	for _, entry := range entries {
		if len(entry.Vector) != i.dimensions {
			return nil, fmt.Errorf("%w: index has %d, entry %q has %d", docindex.ErrDimensionMismatch, i.dimensions, entry.Filename, len(entry.Vector))
		}
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ids := make([]int64, 0, len(entries))
	for _, entry := range entries {
		var id int64
		if err := tx.QueryRowContext(ctx, insertChunkSQL, entry.Filename, entry.Content, pgv.NewVector(entry.Vector)).Scan(&id); err != nil {
			return nil, fmt.Errorf("insert chunk %q: %w", entry.Filename, err)
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit chunks: %w", err)
	}
	return ids, nil
}

func (i *Index) Search(ctx context.Context, vector []float32, k int) ([]docindex.Neighbor, error) {
	if len(vector) != i.dimensions {
		return nil, fmt.Errorf("%w: index has %d, query has %d", docindex.ErrDimensionMismatch, i.dimensions, len(vector))
	}
	if k <= 0 {
		return []docindex.Neighbor{}, nil
	}

	rows, err := i.db.QueryContext(ctx, searchSQL, pgv.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	neighbors := make([]docindex.Neighbor, 0, k)
	for rows.Next() {
		var neighbor docindex.Neighbor
		var distance float64
		if err := rows.Scan(&neighbor.ID, &distance); err != nil {
			return nil, fmt.Errorf("scan neighbor: %w", err)
		}
		// <-> is Euclidean distance; callers expect it squared.
		neighbor.Distance = distance * distance
		neighbors = append(neighbors, neighbor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate neighbors: %w", err)
	}
	return neighbors, nil
}

func (i *Index) Size(ctx context.Context) (int, error) {
	var count int
	if err := i.db.QueryRowContext(ctx, countSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return count, nil
}

func (i *Index) Chunk(ctx context.Context, id int64) (docindex.Chunk, error) {
	chunk := docindex.Chunk{ID: id}
	err := i.db.QueryRowContext(ctx, chunkSQL, id).Scan(&chunk.Filename, &chunk.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return docindex.Chunk{}, fmt.Errorf("%w: %d", docindex.ErrNotFound, id)
	}
	if err != nil {
		return docindex.Chunk{}, fmt.Errorf("load chunk %d: %w", id, err)
	}
	return chunk, nil
}
