package retrieve

import (
	"context"
	"errors"
	"testing"

	"github.com/hybridqa/hybridqa/internal/docindex"
	"github.com/hybridqa/hybridqa/internal/embedding"
)

func TestScore(t *testing.T) {
	if got := Score(0); got != 1 {
		t.Fatalf("Score(0) = %f, want 1", got)
	}
	if got := Score(-0.5); got != 1 {
		t.Fatalf("Score(-0.5) = %f, want 1", got)
	}
	previous := Score(0)
	for _, d := range []float64{0.01, 0.5, 1, 2, 10, 1000} {
		current := Score(d)
		if current >= previous || current <= 0 {
			t.Fatalf("Score(%f) = %f, previous %f", d, current, previous)
		}
		previous = current
	}
}

func TestRetrieveBestPassage(t *testing.T) {
	ctx := context.Background()
	provider, err := embedding.NewHashProvider(64)
	if err != nil {
		t.Fatalf("NewHashProvider() error = %v", err)
	}
	index := docindex.NewMemoryIndex(64)
	texts := map[string]string{
		"alice.txt": "Alice Smith GitHub github.com/alice email alice@example.com",
		"bob.txt":   "Bob Jones quarterly performance review notes",
	}
	for _, name := range []string{"alice.txt", "bob.txt"} {
		vector, err := embedding.EmbedOne(ctx, provider, texts[name])
		if err != nil {
			t.Fatalf("EmbedOne() error = %v", err)
		}
		if _, err := index.Add(ctx, []docindex.Entry{{Filename: name, Content: texts[name], Vector: vector}}); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	passage := New(provider, index, nil).Retrieve(ctx, texts["alice.txt"])
	if passage == nil {
		t.Fatal("expected a passage")
	}
	if passage.Filename != "alice.txt" || passage.Content != texts["alice.txt"] {
		t.Fatalf("passage = %+v", passage)
	}
	if passage.Score < 0.999 {
		t.Fatalf("Score = %f, want ~1 for identical text", passage.Score)
	}
}

func TestRetrieveEmptyOrUnavailable(t *testing.T) {
	ctx := context.Background()
	provider, _ := embedding.NewHashProvider(8)

	if got := New(provider, docindex.NewMemoryIndex(8), nil).Retrieve(ctx, "anything"); got != nil {
		t.Fatalf("empty index returned %+v", got)
	}
	if got := New(provider, nil, nil).Retrieve(ctx, "anything"); got != nil {
		t.Fatalf("nil index returned %+v", got)
	}
	if got := New(provider, failingIndex{}, nil).Retrieve(ctx, "anything"); got != nil {
		t.Fatalf("failing index returned %+v", got)
	}
}

type failingIndex struct{}

func (failingIndex) Add(context.Context, []docindex.Entry) ([]int64, error) {
	return nil, errors.New("down")
}

func (failingIndex) Search(context.Context, []float32, int) ([]docindex.Neighbor, error) {
	return nil, errors.New("down")
}

func (failingIndex) Size(context.Context) (int, error) { return 0, errors.New("down") }

func (failingIndex) Chunk(context.Context, int64) (docindex.Chunk, error) {
	return docindex.Chunk{}, errors.New("down")
}
