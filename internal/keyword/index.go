// Package keyword provides full-text search over the job corpus.
package keyword

import (
	"context"

	"github.com/hyperjump/jobscout/internal/models"
)

// SearchOptions tunes a keyword search. Nil means defaults.
type SearchOptions struct {
	// TitleBoost multiplies matches in the title field. Values <= 1 mean no boost.
	TitleBoost float64
	// Fuzziness is the edit distance tolerated per term (0 disables fuzzy matching).
	Fuzziness int
	// Highlight selects the fragment style: "html", "ansi" or "" for none.
	Highlight string
}

// Index is a keyword index of postings.
type Index interface {
	Sync(ctx context.Context, postings []*models.JobPosting) (int, error)
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Hit, error)
	DocCount() (uint64, error)
	Close() error
}

// Hit is a single keyword search hit.
type Hit struct {
	JobID     string
	Score     float64
	Fragments []string
}
