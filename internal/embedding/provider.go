package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/hybridqa/hybridqa/internal/config"
)

// Provider turns texts into fixed-size vectors. The same provider must be
// used at ingestion and query time for distances to be meaningful.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Name() string
}

func NewProvider(cfg config.EmbeddingConfig) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case config.EmbeddingProviderHash, "":
		return NewHashProvider(cfg.Dimensions)
	case config.EmbeddingProviderOpenAI:
		return NewOpenAIProvider(OpenAIConfig{
			BaseURL:    cfg.BaseURL,
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Timeout:    cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}

// EmbedOne is a convenience for single-text callers.
func EmbedOne(ctx context.Context, provider Provider, text string) ([]float32, error) {
	vectors, err := provider.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedding provider returned %d vectors for 1 text", len(vectors))
	}
	return vectors[0], nil
}
