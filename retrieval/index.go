// Package retrieval stores chunk embeddings and answers nearest-neighbor
// queries over them. Indexes have no incremental update path: any change to
// the underlying records requires a wholesale Rebuild.
package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/fabfab/shop-agent/embeddings"
	"github.com/fabfab/shop-agent/faults"
)

const DefaultTopK = 4

// Hit is one retrieved chunk with its similarity to the query, higher is
// more relevant.
type Hit struct {
	Chunk string
	Score float64
}

type Index interface {
	// Rebuild replaces the entire index contents with the given chunks.
	Rebuild(ctx context.Context, chunks []string) error
	// Search embeds the query and returns the top-k chunks by similarity
	// descending.
	Search(ctx context.Context, query string, k int) ([]Hit, error)
}

// MemoryIndex is an exact brute-force cosine index held in memory. It is
// read-only between rebuilds and safe to share across queries without
// locking once built.
type MemoryIndex struct {
	embedder  embeddings.Embedder
	chunks    []string
	vectors   [][]float32
	dimension int
}

func NewMemoryIndex(embedder embeddings.Embedder) *MemoryIndex {
	return &MemoryIndex{embedder: embedder}
}

// Build constructs a ready-to-query in-memory index from chunks.
func Build(ctx context.Context, embedder embeddings.Embedder, chunks []string) (*MemoryIndex, error) {
	ix := NewMemoryIndex(embedder)
	if err := ix.Rebuild(ctx, chunks); err != nil {
		return nil, err
	}
	return ix, nil
}

func (ix *MemoryIndex) Rebuild(ctx context.Context, chunks []string) error {
	if len(chunks) == 0 {
		return fmt.Errorf("build retrieval index: %w", faults.ErrEmptyInput)
	}

	vecs, err := ix.embedder.Embed(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embed %d chunks: %w", len(chunks), err)
	}
	if len(vecs) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: have %d chunks, %d vectors", len(chunks), len(vecs))
	}

	dimension := len(vecs[0])
	for i, v := range vecs {
		if len(v) != dimension {
			return fmt.Errorf("chunk %d embedding dimension mismatch: expected %d, got %d", i, dimension, len(v))
		}
	}

	stored := make([]string, len(chunks))
	copy(stored, chunks)

	ix.chunks = stored
	ix.vectors = vecs
	ix.dimension = dimension
	return nil
}

func (ix *MemoryIndex) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	if len(ix.chunks) == 0 {
		return nil, fmt.Errorf("retrieval index is empty")
	}
	if k <= 0 {
		k = DefaultTopK
	}

	qvec, err := embeddings.EmbedOne(ctx, ix.embedder, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(qvec) != ix.dimension {
		return nil, fmt.Errorf("query embedding dimension mismatch: expected %d, got %d", ix.dimension, len(qvec))
	}

	hits := make([]Hit, len(ix.chunks))
	for i := range ix.chunks {
		hits[i] = Hit{
			Chunk: ix.chunks[i],
			Score: embeddings.Cosine(qvec, ix.vectors[i]),
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Len reports how many chunks the index holds.
func (ix *MemoryIndex) Len() int {
	return len(ix.chunks)
}

var _ Index = (*MemoryIndex)(nil)
