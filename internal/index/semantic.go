package index

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/hyperjump/jobscout/internal/embedding"
	"github.com/hyperjump/jobscout/internal/models"
	"github.com/hyperjump/jobscout/internal/vector"
	"github.com/hyperjump/jobscout/pkg/utils"
)

const snippetLen = 280

// SemanticIndex is a loaded index ready for retrieval.
type SemanticIndex struct {
	manifest   Manifest
	postings   []*models.JobPosting
	chunks     []Chunk
	chunkByID  map[string]int
	vectors    *vector.MemoryIndex
	embedder   embedding.Embedder
	candidates int
}

func newSemanticIndex(man Manifest, snap *postingsSnapshot, vecs *vector.MemoryIndex, e embedding.Embedder, candidates int) *SemanticIndex {
	byID := make(map[string]int, len(snap.Chunks))
	for i, c := range snap.Chunks {
		byID[c.ID] = i
	}
	return &SemanticIndex{
		manifest:   man,
		postings:   snap.Postings,
		chunks:     snap.Chunks,
		chunkByID:  byID,
		vectors:    vecs,
		embedder:   e,
		candidates: candidates,
	}
}

// Passage is a retrieved posting with the text of its best-matching chunk.
type Passage struct {
	Source *models.Source
	Text   string
}

// Retrieve embeds text and returns up to k postings, best first. A posting scores
// as its best-matching chunk.
func (s *SemanticIndex) Retrieve(ctx context.Context, text string, k int) ([]Passage, error) {
	if k <= 0 {
		return nil, nil
	}
	q, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, errors.Wrap(err, "failed to embed query")
	}
	hits, err := s.vectors.Search(ctx, q, max(s.candidates, k*4))
	if err != nil {
		return nil, err
	}
	seen := make(map[int]bool)
	var out []Passage
	for _, h := range hits {
		ci, ok := s.chunkByID[h.ID]
		if !ok {
			continue
		}
		c := s.chunks[ci]
		if seen[c.Posting] {
			continue
		}
		seen[c.Posting] = true
		p := s.postings[c.Posting]
		out = append(out, Passage{
			Source: &models.Source{
				JobID:   p.ID,
				Title:   p.Title,
				Company: p.Company,
				Link:    p.Link,
				Score:   h.Score,
				Snippet: utils.TruncateForLog(c.Text, snippetLen),
			},
			Text: c.Text,
		})
		if len(out) == k {
			break
		}
	}
	return out, nil
}

// Search is Retrieve without the chunk texts.
func (s *SemanticIndex) Search(ctx context.Context, text string, k int) ([]*models.Source, error) {
	passages, err := s.Retrieve(ctx, text, k)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Source, len(passages))
	for i, p := range passages {
		out[i] = p.Source
	}
	return out, nil
}

// Manifest returns the build metadata.
func (s *SemanticIndex) Manifest() Manifest { return s.manifest }

// Postings returns the indexed postings in corpus order.
func (s *SemanticIndex) Postings() []*models.JobPosting { return s.postings }

// Size returns the number of indexed chunks.
func (s *SemanticIndex) Size() int { return s.vectors.Size() }
