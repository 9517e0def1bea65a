package retrieval_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fabfab/shop-agent/embeddings"
	"github.com/fabfab/shop-agent/faults"
	"github.com/fabfab/shop-agent/retrieval"
)

type stubEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (s *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	results := make([][]float32, len(texts))
	for i, text := range texts {
		vec, ok := s.vectors[text]
		if !ok {
			return nil, errors.New("no stub vector for: " + text)
		}
		results[i] = vec
	}
	return results, nil
}

var _ embeddings.Embedder = (*stubEmbedder)(nil)

func TestBuildEmptyChunks(t *testing.T) {
	_, err := retrieval.Build(context.Background(), &stubEmbedder{}, nil)
	if !errors.Is(err, faults.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestBuildSingleChunkSupportsK1(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"only chunk": {1, 0},
	}}

	ix, err := retrieval.Build(context.Background(), embedder, []string{"only chunk"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hits, err := ix.Search(context.Background(), "only chunk", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].Chunk != "only chunk" {
		t.Fatalf("unexpected hit: %q", hits[0].Chunk)
	}
}

func TestSearchOwnTextRanksFirst(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"alpha chunk": {1, 0, 0},
		"beta chunk":  {0, 1, 0},
		"gamma chunk": {0.6, 0.6, 0},
	}}

	ix, err := retrieval.Build(context.Background(), embedder, []string{"alpha chunk", "beta chunk", "gamma chunk"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hits, err := ix.Search(context.Background(), "alpha chunk", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if hits[0].Chunk != "alpha chunk" {
		t.Fatalf("expected own text at rank 1, got %q", hits[0].Chunk)
	}
	if hits[0].Score < 0.999 {
		t.Fatalf("expected near-identity similarity at rank 1, got %f", hits[0].Score)
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Fatalf("hits not sorted by descending similarity at %d", i)
		}
	}
}

func TestSearchTruncatesToK(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"a": {1, 0}, "b": {0.9, 0.1}, "c": {0, 1},
	}}

	ix, err := retrieval.Build(context.Background(), embedder, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hits, err := ix.Search(context.Background(), "a", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
}

func TestSearchQueryDimensionMismatch(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"a":     {1, 0},
		"query": {1, 0, 0},
	}}

	ix, err := retrieval.Build(context.Background(), embedder, []string{"a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := ix.Search(context.Background(), "query", 1); err == nil {
		t.Fatal("expected error for mismatched query dimension")
	}
}

func TestBuildRejectsInconsistentDimensions(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"a": {1, 0},
		"b": {1, 0, 0},
	}}

	if _, err := retrieval.Build(context.Background(), embedder, []string{"a", "b"}); err == nil {
		t.Fatal("expected error for inconsistent chunk dimensions")
	}
}

func TestRebuildReplacesContents(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"old": {1, 0},
		"new": {0, 1},
	}}

	ix, err := retrieval.Build(context.Background(), embedder, []string{"old"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := ix.Rebuild(context.Background(), []string{"new"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hits, err := ix.Search(context.Background(), "old", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, hit := range hits {
		if hit.Chunk == "old" {
			t.Fatal("rebuild did not replace previous contents")
		}
	}
	if ix.Len() != 1 {
		t.Fatalf("expected 1 chunk after rebuild, got %d", ix.Len())
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	ix := retrieval.NewMemoryIndex(&stubEmbedder{})
	if _, err := ix.Search(context.Background(), "anything", 1); err == nil {
		t.Fatal("expected error when searching an empty index")
	}
}
