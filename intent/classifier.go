// Package intent classifies free-text queries into one of the chatbot's
// handling routes using a nearest-centroid classifier over prototype
// embeddings. There is no training step; centroids are computed once at
// construction and are immutable afterwards.
package intent

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/fabfab/shop-agent/embeddings"
)

type Intent string

const (
	SearchDB        Intent = "SEARCH_DB"
	CustomerHistory Intent = "CUSTOMER_HISTORY"
	Support         Intent = "SUPPORT"
)

// Order fixes the enumeration order. On equal similarity the first listed
// intent wins; documented behavior, not load-bearing.
var Order = []Intent{SearchDB, CustomerHistory, Support}

// fallbackConfidence is reported when classification degrades to the
// default route because the embedding service failed.
const fallbackConfidence = 0.5

// Result tags its origin so callers can tell a normally classified query
// from one routed via the degraded fallback.
type Result struct {
	Intent     Intent
	Confidence float64
	Degraded   bool
}

type Classifier struct {
	embedder  embeddings.Embedder
	centroids map[Intent][]float32
	logger    *log.Logger
}

// NewClassifier builds a classifier from the default prototype lists.
// Construction embeds every example utterance once; failure here is fatal
// and must abort startup.
func NewClassifier(ctx context.Context, embedder embeddings.Embedder, logger *log.Logger) (*Classifier, error) {
	return NewClassifierWithPrototypes(ctx, embedder, DefaultPrototypes(), logger)
}

func NewClassifierWithPrototypes(ctx context.Context, embedder embeddings.Embedder, prototypes map[Intent][]string, logger *log.Logger) (*Classifier, error) {
	if logger == nil {
		logger = log.Default()
	}

	centroids := make(map[Intent][]float32, len(prototypes))
	dimension := 0

	for _, it := range Order {
		examples := prototypes[it]
		if len(examples) == 0 {
			return nil, fmt.Errorf("intent %s has no example utterances", it)
		}

		vecs, err := embedder.Embed(ctx, examples)
		if err != nil {
			return nil, fmt.Errorf("embed %s prototypes: %w", it, err)
		}
		if len(vecs) != len(examples) {
			return nil, fmt.Errorf("embedding count mismatch for %s: have %d examples, %d vectors", it, len(examples), len(vecs))
		}

		c, err := centroid(vecs)
		if err != nil {
			return nil, fmt.Errorf("compute %s centroid: %w", it, err)
		}
		if dimension == 0 {
			dimension = len(c)
		} else if len(c) != dimension {
			return nil, fmt.Errorf("centroid dimension mismatch for %s: expected %d, got %d", it, dimension, len(c))
		}
		centroids[it] = c
	}

	logger.Printf("intent classifier ready: %d intents, dimension %d", len(centroids), dimension)

	return &Classifier{
		embedder:  embedder,
		centroids: centroids,
		logger:    logger,
	}, nil
}

// Classify scores the query against every intent centroid and returns the
// best match. When the embedding call fails the chat loop must stay
// responsive, so the classifier falls back to the default SEARCH_DB route
// with a fixed low confidence and marks the result degraded instead of
// propagating the error.
func (c *Classifier) Classify(ctx context.Context, query string) Result {
	vec, err := embeddings.EmbedOne(ctx, c.embedder, query)
	if err != nil {
		c.logger.Printf("intent embedding failed, routing to %s: %v", SearchDB, err)
		return Result{Intent: SearchDB, Confidence: fallbackConfidence, Degraded: true}
	}

	best := Order[0]
	bestScore := math.Inf(-1)
	for _, it := range Order {
		score := embeddings.Cosine(vec, c.centroids[it])
		if score > bestScore {
			best = it
			bestScore = score
		}
	}

	return Result{Intent: best, Confidence: bestScore}
}

func centroid(vecs [][]float32) ([]float32, error) {
	if len(vecs) == 0 {
		return nil, fmt.Errorf("no vectors")
	}

	dimension := len(vecs[0])
	if dimension == 0 {
		return nil, fmt.Errorf("zero-length vector")
	}

	sum := make([]float64, dimension)
	for _, v := range vecs {
		if len(v) != dimension {
			return nil, fmt.Errorf("vector dimension mismatch: expected %d, got %d", dimension, len(v))
		}
		for i, value := range v {
			sum[i] += float64(value)
		}
	}

	mean := make([]float32, dimension)
	for i := range sum {
		mean[i] = float32(sum[i] / float64(len(vecs)))
	}
	return mean, nil
}
