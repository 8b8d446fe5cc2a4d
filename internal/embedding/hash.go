package embedding

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/hyperjump/jobscout/internal/vector"
)

// HashEmbedder is a deterministic, offline embedder. Each term is hashed into a
// signed bucket, so texts sharing vocabulary score higher under inner product.
// Texts with no terms fall back to a vector derived from the whole-string hash.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder returns an embedder that produces vectors of the given dimensions.
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed returns a unit-length vector for text.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	emb := make([]float32, e.dimensions)
	terms := Terms(text)
	if len(terms) == 0 {
		h := HashString(text)
		for i := range emb {
			emb[i] = float32(math.Sin(float64(h*(i+1)))*0.1 + 0.01)
		}
		vector.Normalize(emb)
		return emb, nil
	}
	for _, term := range terms {
		f := fnv.New64a()
		_, _ = f.Write([]byte(term))
		sum := f.Sum64()
		bucket := int(sum % uint64(e.dimensions))
		if sum&(1<<63) != 0 {
			emb[bucket] -= 1
		} else {
			emb[bucket] += 1
		}
	}
	vector.Normalize(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimension.
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for HashEmbedder.
func (e *HashEmbedder) Close() error {
	return nil
}
