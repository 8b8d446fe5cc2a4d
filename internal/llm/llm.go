// Package llm generates answers from prompts.
package llm

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/hyperjump/jobscout/internal/config"
)

// Generator turns a prompt into text.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// New returns the generator named by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (Generator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini", "":
		return NewGeminiGenerator(ctx, cfg.APIKey, cfg.Model, cfg.Temperature)
	case "offline":
		if logger != nil {
			logger.Warn("offline generator in use, answers only list retrieved postings")
		}
		return Offline{}, nil
	default:
		return nil, errors.Newf("unknown llm provider %q", cfg.Provider)
	}
}

// Offline answers every prompt with "NA". Retrieved sources are still attached by the caller.
type Offline struct{}

// GenerateContent returns "NA".
func (Offline) GenerateContent(context.Context, string) (string, error) { return "NA", nil }
