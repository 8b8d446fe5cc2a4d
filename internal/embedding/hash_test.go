package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/hyperjump/jobscout/internal/config"
)

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i] * b[i])
	}
	return s
}

func TestHashEmbedder(t *testing.T) {
	e := NewHashEmbedder(128)
	ctx := context.Background()

	a, _ := e.Embed(ctx, "Python SQL data engineer")
	b, _ := e.Embed(ctx, "python sql data engineer")
	if dot(a, b) < 0.999 {
		t.Errorf("case should not matter, dot = %f", dot(a, b))
	}
	if n := math.Sqrt(dot(a, a)); math.Abs(n-1) > 1e-5 {
		t.Errorf("norm = %f, want 1", n)
	}

	related, _ := e.Embed(ctx, "Data engineer with Python")
	unrelated, _ := e.Embed(ctx, "pastry chef bakery croissant")
	if dot(a, related) <= dot(a, unrelated) {
		t.Errorf("shared terms should score higher: related=%f unrelated=%f", dot(a, related), dot(a, unrelated))
	}

	empty, _ := e.Embed(ctx, "   ")
	if len(empty) != 128 {
		t.Errorf("empty text dims = %d", len(empty))
	}
	if NewHashEmbedder(0).Dimensions() != 384 {
		t.Error("default dims should be 384")
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	e, err := New(ctx, config.EmbeddingConfig{Provider: "hash", Dimensions: 32, CacheSize: 5}, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := e.(*CachedEmbedder); !ok {
		t.Errorf("got %T, want *CachedEmbedder", e)
	}
	if e.Dimensions() != 32 {
		t.Errorf("Dimensions() = %d", e.Dimensions())
	}

	if _, err := New(ctx, config.EmbeddingConfig{Provider: "gemini"}, "", nil); err == nil {
		t.Error("gemini without key should fail")
	}
	if _, err := New(ctx, config.EmbeddingConfig{Provider: "word2vec"}, "", nil); err == nil {
		t.Error("unknown provider should fail")
	}
}
