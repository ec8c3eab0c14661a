// Package retrieve finds the single most relevant indexed passage for a
// question.
package retrieve

import (
	"context"
	"log/slog"

	"github.com/hybridqa/hybridqa/internal/docindex"
	"github.com/hybridqa/hybridqa/internal/embedding"
	"github.com/hybridqa/hybridqa/internal/observability"
)

type Passage struct {
	ChunkID  int64
	Filename string
	Content  string
	Score    float64
}

// Score maps a squared L2 distance into (0, 1]. Smaller distances score
// higher and an exact match scores 1.
func Score(distance float64) float64 {
	if distance < 0 {
		distance = 0
	}
	return 1 / (1 + distance)
}

type Retriever struct {
	embedder embedding.Provider
	index    docindex.Index
	logger   *slog.Logger
}

func New(embedder embedding.Provider, index docindex.Index, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{embedder: embedder, index: index, logger: logger}
}

// Retrieve returns nil when nothing can be found. Index and embedding
// failures are logged and treated as an empty index.
func (r *Retriever) Retrieve(ctx context.Context, question string) *Passage {
	passage, err := r.retrieve(ctx, question)
	if err != nil {
		r.logger.WarnContext(ctx, "passage_retrieval_failed", slog.Any("error", err))
	}
	if passage == nil {
		observability.IncrementRetrievalEmpty()
	}
	return passage
}

func (r *Retriever) retrieve(ctx context.Context, question string) (*Passage, error) {
	if r == nil || r.index == nil || r.embedder == nil {
		return nil, nil
	}
	size, err := r.index.Size(ctx)
	if err != nil || size == 0 {
		return nil, err
	}

	vector, err := embedding.EmbedOne(ctx, r.embedder, question)
	if err != nil {
		return nil, err
	}
	neighbors, err := r.index.Search(ctx, vector, 1)
	if err != nil || len(neighbors) == 0 {
		return nil, err
	}
	best := neighbors[0]
	chunk, err := r.index.Chunk(ctx, best.ID)
	if err != nil {
		return nil, err
	}
	return &Passage{
		ChunkID:  chunk.ID,
		Filename: chunk.Filename,
		Content:  chunk.Content,
		Score:    Score(best.Distance),
	}, nil
}
