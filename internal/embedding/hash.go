package embedding

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/zeebo/xxh3"
)

// HashProvider embeds text locally by hashing word unigrams and bigrams
// into a signed bag-of-features vector, then L2-normalizing it. Texts that
// share vocabulary land close together.
type HashProvider struct {
	dimensions int
}

func NewHashProvider(dimensions int) (*HashProvider, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("embedding dimensions must be positive, got %d", dimensions)
	}
	return &HashProvider{dimensions: dimensions}, nil
}

func (p *HashProvider) Dimensions() int {
	return p.dimensions
}

func (p *HashProvider) Name() string {
	return fmt.Sprintf("hash-%d", p.dimensions)
}

func (p *HashProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors[i] = p.embed(text)
	}
	return vectors, nil
}

func (p *HashProvider) embed(text string) []float32 {
	vector := make([]float32, p.dimensions)
	tokens := tokenize(text)
	for i, token := range tokens {
		p.add(vector, token, 1)
		if i > 0 {
			p.add(vector, tokens[i-1]+" "+token, 0.5)
		}
	}
	normalize(vector)
	return vector
}

func (p *HashProvider) add(vector []float32, feature string, weight float32) {
	h := xxh3.HashString(feature)
	index := int(h % uint64(p.dimensions))
	if h&(1<<63) != 0 {
		weight = -weight
	}
	vector[index] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func normalize(vector []float32) {
	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vector {
		vector[i] /= norm
	}
}
