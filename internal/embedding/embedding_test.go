package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hybridqa/hybridqa/internal/config"
)

func TestHashProviderIsDeterministicAndNormalized(t *testing.T) {
	provider, err := NewHashProvider(64)
	if err != nil {
		t.Fatalf("NewHashProvider() error = %v", err)
	}
	vectors, err := provider.Embed(context.Background(), []string{"Alice knows Go and Kubernetes", "Alice knows Go and Kubernetes"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors[0]) != 64 {
		t.Fatalf("len = %d", len(vectors[0]))
	}
	var sum float64
	for i, v := range vectors[0] {
		if v != vectors[1][i] {
			t.Fatalf("component %d differs: %v vs %v", i, v, vectors[1][i])
		}
		sum += float64(v) * float64(v)
	}
	if math.Abs(sum-1) > 1e-5 {
		t.Fatalf("squared norm = %v, want 1", sum)
	}
}

func TestHashProviderRanksSharedVocabularyCloser(t *testing.T) {
	provider, _ := NewHashProvider(384)
	vectors, err := provider.Embed(context.Background(), []string{
		"what is alice's github link",
		"Alice Smith resume. GitHub link: github.com/alice. Email alice@example.com",
		"Quarterly revenue grew in the northern sales region",
	})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	near := squaredDistance(vectors[0], vectors[1])
	far := squaredDistance(vectors[0], vectors[2])
	if near >= far {
		t.Fatalf("near = %v, far = %v; expected resume closer than sales text", near, far)
	}
}

func TestHashProviderEmptyTextIsZeroVector(t *testing.T) {
	provider, _ := NewHashProvider(8)
	vectors, _ := provider.Embed(context.Background(), []string{"  ...  "})
	for _, v := range vectors[0] {
		if v != 0 {
			t.Fatalf("vector = %v, want zeros", vectors[0])
		}
	}
}

func TestOpenAIProviderEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		var payload struct {
			Input []string `json:"input"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if len(payload.Input) != 2 {
			t.Fatalf("input = %#v", payload.Input)
		}
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0,1]},{"index":0,"embedding":[1,0]}]}`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(OpenAIConfig{BaseURL: server.URL, APIKey: "k", Dimensions: 2})
	if err != nil {
		t.Fatalf("NewOpenAIProvider() error = %v", err)
	}
	vectors, err := provider.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if vectors[0][0] != 1 || vectors[1][1] != 1 {
		t.Fatalf("vectors = %v", vectors)
	}
}

func TestOpenAIProviderRejectsDimensionMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[1,0,0]}]}`))
	}))
	defer server.Close()

	provider, _ := NewOpenAIProvider(OpenAIConfig{BaseURL: server.URL, APIKey: "k", Dimensions: 2})
	if _, err := provider.Embed(context.Background(), []string{"a"}); err == nil {
		t.Fatal("Embed() expected dimension mismatch error")
	}
}

func TestNewProviderSelectsByConfig(t *testing.T) {
	provider, err := NewProvider(config.EmbeddingConfig{Provider: config.EmbeddingProviderHash, Dimensions: 16})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if provider.Name() != "hash-16" || provider.Dimensions() != 16 {
		t.Fatalf("provider = %s/%d", provider.Name(), provider.Dimensions())
	}
	if _, err := NewProvider(config.EmbeddingConfig{Provider: "python", Dimensions: 16}); err == nil {
		t.Fatal("NewProvider() expected error for unknown provider")
	}
	if _, err := NewProvider(config.EmbeddingConfig{Provider: config.EmbeddingProviderOpenAI, Dimensions: 16}); err == nil {
		t.Fatal("NewProvider() expected error without api key")
	}
}

func squaredDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return sum
}
