// Package corpus persists ingested job postings and reads them back in insertion order.
package corpus

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/hyperjump/jobscout/internal/config"
	"github.com/hyperjump/jobscout/internal/models"
)

// Store is an append-only store of job postings.
type Store interface {
	// Append validates p and persists it. Invalid postings return *models.ValidationError.
	Append(ctx context.Context, p *models.JobPosting) error
	// ReadAll returns every posting in insertion order.
	ReadAll(ctx context.Context) ([]*models.JobPosting, error)
	Count(ctx context.Context) (int, error)
	// Location describes where the corpus lives (file path or DSN host).
	Location() string
	Close() error
}

// Open returns the Store selected by cfg.CorpusBackend.
func Open(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (Store, error) {
	switch strings.ToLower(cfg.CorpusBackend) {
	case "", "csv":
		return NewCSVStore(cfg.CorpusPath, WithLogger(logger))
	case "sqlite":
		return NewSQLiteStore(cfg.DatabasePath)
	case "postgres", "postgresql":
		if cfg.PostgresDSN == "" {
			return nil, errors.WithHint(
				errors.New("postgres corpus backend requires a DSN"),
				"set storage.postgres_dsn or DATABASE_URL",
			)
		}
		return NewPGStore(ctx, cfg.PostgresDSN)
	default:
		return nil, errors.Newf("unknown corpus backend %q", cfg.CorpusBackend)
	}
}

// Page returns postings[offset:offset+limit], clamped to the slice bounds.
func Page(postings []*models.JobPosting, offset, limit int) []*models.JobPosting {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(postings) {
		return []*models.JobPosting{}
	}
	end := len(postings)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return postings[offset:end]
}
