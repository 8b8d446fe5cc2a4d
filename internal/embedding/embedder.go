// Package embedding turns text into vectors through Gemini, a local ONNX model or a
// deterministic hash, with an LRU cache in front.
package embedding

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/hyperjump/jobscout/internal/config"
)

// Embedder produces vector embeddings for text.
// Embed is used for queries and EmbedBatch for documents; providers that
// distinguish the two tasks may embed them differently.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// New builds the embedder named by cfg.Provider, wrapped in a cache of cfg.CacheSize entries.
func New(ctx context.Context, cfg config.EmbeddingConfig, apiKey string, logger *zap.Logger) (Embedder, error) {
	var (
		inner Embedder
		err   error
	)
	switch strings.ToLower(cfg.Provider) {
	case "gemini":
		inner, err = NewGeminiEmbedder(ctx, apiKey, cfg.Model, cfg.Dimensions)
	case "onnx":
		inner, err = NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens)
	case "hash", "":
		inner = NewHashEmbedder(cfg.Dimensions)
	default:
		return nil, errors.Newf("unknown embedding provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Info("embedder ready",
			zap.String("provider", cfg.Provider),
			zap.Int("dimensions", inner.Dimensions()))
	}
	if cfg.CacheSize <= 0 {
		return inner, nil
	}
	return NewCachedEmbedder(inner, cfg.CacheSize), nil
}
