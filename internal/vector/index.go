// Package vector stores chunk embeddings and answers inner-product similarity queries.
package vector

import (
	"context"
	"io"
)

// Index defines vector storage and similarity search.
type Index interface {
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*Result, error)
	WriteTo(w io.Writer) (int64, error)
	Size() int
	Dimensions() int
}

// Result is a single vector search hit. ID is the chunk ID.
type Result struct {
	ID    string
	Score float64 // inner product; cosine similarity for normalized vectors
}
