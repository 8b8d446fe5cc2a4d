package models

import (
	"fmt"
	"strings"
)

// Source is a retrieved posting used as evidence for an answer.
type Source struct {
	JobID   string  `json:"job_id"`
	Title   string  `json:"title"`
	Company string  `json:"company"`
	Link    string  `json:"link"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet,omitempty"`
}

// QueryResult is the generated answer plus the postings it was conditioned on.
type QueryResult struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Sources   []*Source `json:"sources"`
	Retrieved int       `json:"retrieved"`
}

// Render returns the answer text followed by a "Sources:" list of the retrieved postings.
func (r *QueryResult) Render() string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.TrimSpace(r.Answer))
	if len(r.Sources) == 0 {
		return b.String()
	}
	b.WriteString("\n\nSources:\n")
	for _, s := range r.Sources {
		fmt.Fprintf(&b, "- Job ID: %s | Title: %s | Link: %s\n", s.JobID, s.Title, s.Link)
	}
	return strings.TrimRight(b.String(), "\n")
}
