package keyword

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/hyperjump/jobscout/internal/models"
)

const (
	defaultTitleBoost = 3.0
	batchSize         = 500
)

var textFields = []string{"title", "company", "location", "description"}

// BleveIndex implements Index with Bleve.
type BleveIndex struct {
	index  bleve.Index
	logger *zap.Logger
}

// NewBleveIndex creates or opens a Bleve index at path. If the mapping changes,
// remove the directory; the next Sync refills it from the corpus.
func NewBleveIndex(path string, logger *zap.Logger) (*BleveIndex, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := os.Stat(path); err == nil {
		idx, err := bleve.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open keyword index")
		}
		return &BleveIndex{index: idx, logger: logger}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create keyword index dir")
	}
	idx, err := bleve.New(path, postingMapping())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create keyword index")
	}
	return &BleveIndex{index: idx, logger: logger}, nil
}

// postingMapping uses the standard analyzer (lowercase, no stemming) so skill
// names like "go" or "c++" are not mangled.
func postingMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()
	for _, f := range textFields {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = standard.Name
		doc.AddFieldMappingsAt(f, fm)
	}
	doc.AddFieldMappingsAt("job_id", bleve.NewKeywordFieldMapping())
	doc.AddFieldMappingsAt("date", bleve.NewKeywordFieldMapping())
	im.DefaultMapping = doc
	return im
}

// Sync indexes postings. Postings are immutable and keyed by ID, so the index is
// in sync when it holds as many documents as there are distinct IDs. Returns the
// number of documents written.
func (b *BleveIndex) Sync(ctx context.Context, postings []*models.JobPosting) (int, error) {
	seen := make(map[string]bool, len(postings))
	unique := make([]*models.JobPosting, 0, len(postings))
	for _, p := range postings {
		if !seen[p.ID] {
			seen[p.ID] = true
			unique = append(unique, p)
		}
	}
	count, err := b.index.DocCount()
	if err != nil {
		return 0, errors.Wrap(err, "failed to count keyword documents")
	}
	if count == uint64(len(unique)) {
		return 0, nil
	}

	batch := b.index.NewBatch()
	written := 0
	for _, p := range unique {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		if err := batch.Index(p.ID, map[string]any{
			"job_id":      p.ID,
			"title":       p.Title,
			"company":     p.Company,
			"location":    p.Location,
			"description": p.Description,
			"date":        p.Date,
		}); err != nil {
			return written, errors.Wrapf(err, "failed to index posting %s", p.ID)
		}
		if batch.Size() >= batchSize {
			if err := b.index.Batch(batch); err != nil {
				return written, errors.Wrap(err, "failed to write keyword batch")
			}
			written += batch.Size()
			batch.Reset()
		}
	}
	if batch.Size() > 0 {
		n := batch.Size()
		if err := b.index.Batch(batch); err != nil {
			return written, errors.Wrap(err, "failed to write keyword batch")
		}
		written += n
	}
	b.logger.Info("keyword index synced", zap.Int("postings", len(unique)), zap.Int("written", written))
	return written, nil
}

// Search matches query against every text field, with title matches boosted.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Hit, error) {
	if strings.TrimSpace(query) == "" || limit <= 0 {
		return nil, nil
	}
	titleBoost, fuzziness, highlight := defaultTitleBoost, 0, ""
	if opts != nil {
		if opts.TitleBoost > 1 {
			titleBoost = opts.TitleBoost
		}
		fuzziness = opts.Fuzziness
		highlight = opts.Highlight
	}

	fieldQueries := make([]blevequery.Query, 0, len(textFields))
	for _, f := range textFields {
		mq := bleve.NewMatchQuery(query)
		mq.SetField(f)
		if fuzziness > 0 {
			mq.SetFuzziness(fuzziness)
		}
		if f == "title" {
			mq.SetBoost(titleBoost)
		}
		fieldQueries = append(fieldQueries, mq)
	}
	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(fieldQueries...), limit, 0, false)
	if highlight != "" {
		req.Highlight = bleve.NewHighlightWithStyle(highlight)
		req.Highlight.AddField("title")
		req.Highlight.AddField("description")
	}
	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "keyword search failed")
	}

	out := make([]*Hit, len(res.Hits))
	for i, h := range res.Hits {
		hit := &Hit{JobID: h.ID, Score: h.Score}
		fields := make([]string, 0, len(h.Fragments))
		for f := range h.Fragments {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		for _, f := range fields {
			hit.Fragments = append(hit.Fragments, h.Fragments[f]...)
		}
		out[i] = hit
	}
	return out, nil
}

// DocCount returns the number of indexed postings.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

// Resolve maps hits onto postings, dropping hits whose posting is unknown.
func Resolve(hits []*Hit, postings []*models.JobPosting) []*models.Source {
	byID := make(map[string]*models.JobPosting, len(postings))
	for _, p := range postings {
		if _, ok := byID[p.ID]; !ok {
			byID[p.ID] = p
		}
	}
	out := make([]*models.Source, 0, len(hits))
	for _, h := range hits {
		p, ok := byID[h.JobID]
		if !ok {
			continue
		}
		out = append(out, &models.Source{
			JobID:   p.ID,
			Title:   p.Title,
			Company: p.Company,
			Link:    p.Link,
			Score:   h.Score,
			Snippet: strings.Join(h.Fragments, " … "),
		})
	}
	return out
}
