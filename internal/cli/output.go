// Package cli formats answers, search results and status for the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/hyperjump/jobscout/internal/app"
	"github.com/hyperjump/jobscout/internal/models"
)

// OutputFormat selects how results are written.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact is one line per posting.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat validates a --output value.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	default:
		return "", errors.Newf("unknown output format %q; use text, compact, or json", s)
	}
}

// WriteAnswer writes a generated answer and its sources.
func WriteAnswer(w io.Writer, res *models.QueryResult, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, res)
	case OutputCompact:
		fmt.Fprintln(w, strings.TrimSpace(res.Answer))
		for _, s := range res.Sources {
			writeCompact(w, s)
		}
		return nil
	default:
		fmt.Fprintln(w, res.Render())
		return nil
	}
}

// WriteSources writes keyword search results.
func WriteSources(w io.Writer, query string, sources []*models.Source, format OutputFormat) error {
	switch format {
	case OutputJSON:
		if sources == nil {
			sources = []*models.Source{}
		}
		return writeJSON(w, map[string]any{"query": query, "results": sources})
	case OutputCompact:
		for _, s := range sources {
			writeCompact(w, s)
		}
		return nil
	}
	fmt.Fprintf(w, "\nFound %d postings for %q\n\n", len(sources), query)
	for i, s := range sources {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "%d. %s at %s | Score: %.4f\n", i+1, s.Title, s.Company, s.Score)
		fmt.Fprintf(w, "Job ID: %s\n", s.JobID)
		fmt.Fprintf(w, "Link: %s\n", s.Link)
		if s.Snippet != "" {
			fmt.Fprintf(w, "\n%s\n", Truncate(s.Snippet, 300))
		}
		fmt.Fprintln(w)
	}
	return nil
}

func writeCompact(w io.Writer, s *models.Source) {
	fmt.Fprintf(w, "%s\t%.4f\t%s\t%s\t%s\n", s.JobID, s.Score, TruncateWords(s.Title, 8), s.Company, s.Link)
}

// WriteStatus writes corpus and index status.
func WriteStatus(w io.Writer, st *app.Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	fmt.Fprintf(w, "corpus_backend:     %s\n", st.CorpusBackend)
	fmt.Fprintf(w, "corpus_location:    %s\n", st.CorpusLocation)
	fmt.Fprintf(w, "postings:           %d   # rows in the corpus, duplicates included\n", st.Postings)
	fmt.Fprintf(w, "keyword_docs:       %d   # unique postings in the keyword index\n", st.KeywordDocs)
	if st.DiskUsageBytes > 0 {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # corpus + indexes on disk\n", st.DiskUsageBytes)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "# semantic index")
	fmt.Fprintf(w, "index_dir:          %s\n", st.IndexDir)
	if st.Index == nil {
		fmt.Fprintln(w, "index:              not built")
	} else {
		fmt.Fprintf(w, "indexed_postings:   %d\n", st.Index.Postings)
		fmt.Fprintf(w, "chunks:             %d\n", st.Index.Chunks)
		fmt.Fprintf(w, "built_at:           %s\n", st.Index.BuiltAt.Format("2006-01-02 15:04:05 MST"))
		fmt.Fprintf(w, "fingerprint:        %s\n", Truncate(st.Index.Fingerprint, 16))
	}
	fmt.Fprintf(w, "embedding:          %s (%d dims)\n", st.Embedding, st.Dimensions)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Truncate truncates s to maxLen runes and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 || len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
