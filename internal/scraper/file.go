package scraper

import (
	"bufio"
	"context"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
)

// PageSize is the number of records reported per OnBatchMetrics call.
const PageSize = 25

// FileScraper replays JSON-lines records from a file. Each line is a models.RawRecord.
// The whole file is treated as the result of the search.
type FileScraper struct {
	Path string
}

// NewFileScraper returns a scraper reading path.
func NewFileScraper(path string) *FileScraper {
	return &FileScraper{Path: path}
}

// Run emits every record in the file, honoring q.Filters.Limit per location.
func (s *FileScraper) Run(ctx context.Context, q Query, h Handler) error {
	f, err := os.Open(s.Path)
	if err != nil {
		return errors.Wrapf(err, "failed to open scrape file %s", s.Path)
	}
	defer f.Close()

	perLocation := map[string]int{}
	var batch pageStats
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		rec, err := decodeRecord(text)
		if err != nil {
			batch.failed++
			h.OnError(errors.Wrapf(err, "line %d", line))
			batch.flushIfFull(h, q)
			continue
		}
		if rec.Query == "" {
			rec.Query = q.Title
		}
		key := strings.ToLower(strings.TrimSpace(rec.Location))
		if q.Filters.Limit > 0 && perLocation[key] >= q.Filters.Limit {
			batch.skipped++
			batch.flushIfFull(h, q)
			continue
		}
		perLocation[key]++
		h.OnRecord(rec)
		batch.processed++
		batch.flushIfFull(h, q)
	}
	if err := sc.Err(); err != nil {
		return errors.Wrap(err, "failed to read scrape file")
	}
	batch.flush(h, q)
	h.OnComplete()
	return nil
}
