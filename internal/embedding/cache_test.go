package embedding

import (
	"context"
	"sync"
	"testing"
)

func TestEmbeddingCache_GetSet(t *testing.T) {
	c := NewEmbeddingCache(2)
	if v, ok := c.Get("a"); ok || v != nil {
		t.Fatal("expected miss")
	}
	c.Set("a", []float32{1, 2, 3})
	v, ok := c.Get("a")
	if !ok || len(v) != 3 || v[0] != 1 {
		t.Errorf("Get: got %v, %v", v, ok)
	}
	c.Set("b", []float32{4, 5})
	c.Get("a")               // a is now most recent
	c.Set("c", []float32{6}) // evicts b
	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("expected a to remain")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d", c.Len())
	}
}

type countingEmbedder struct {
	*HashEmbedder
	mu      sync.Mutex
	batches [][]string
	singles int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.mu.Lock()
	c.singles++
	c.mu.Unlock()
	return c.HashEmbedder.Embed(ctx, text)
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.mu.Lock()
	c.batches = append(c.batches, append([]string(nil), texts...))
	c.mu.Unlock()
	return c.HashEmbedder.EmbedBatch(ctx, texts)
}

func TestCachedEmbedder(t *testing.T) {
	inner := &countingEmbedder{HashEmbedder: NewHashEmbedder(16)}
	e := NewCachedEmbedder(inner, 10)
	ctx := context.Background()

	if _, err := e.EmbedBatch(ctx, []string{"a", "b"}); err != nil {
		t.Fatal(err)
	}
	out, err := e.EmbedBatch(ctx, []string{"b", "c", "a"})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 || out[0] == nil || out[1] == nil || out[2] == nil {
		t.Fatalf("out = %v", out)
	}
	if len(inner.batches) != 2 || len(inner.batches[1]) != 1 || inner.batches[1][0] != "c" {
		t.Errorf("only uncached texts should reach the inner embedder: %v", inner.batches)
	}

	_, _ = e.Embed(ctx, "q")
	_, _ = e.Embed(ctx, "q")
	if inner.singles != 1 {
		t.Errorf("query embedded %d times, want 1", inner.singles)
	}
	if e.Dimensions() != 16 {
		t.Errorf("Dimensions() = %d", e.Dimensions())
	}
}

type extraVectorEmbedder struct {
	*HashEmbedder
}

func (e extraVectorEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := e.HashEmbedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	return append(vecs, make([]float32, e.Dimensions())), nil
}

func TestCachedEmbedder_MismatchedBatch(t *testing.T) {
	e := NewCachedEmbedder(extraVectorEmbedder{NewHashEmbedder(8)}, 10)
	if _, err := e.EmbedBatch(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected error when inner embedder returns extra vectors")
	}
	if _, ok := e.docs.Get("a"); ok {
		t.Error("mismatched batch should not be cached")
	}
}
