package scraper

import (
	"encoding/json"

	"github.com/hyperjump/jobscout/internal/models"
)

type pageStats struct {
	processed, failed, skipped int
}

func (b *pageStats) total() int { return b.processed + b.failed + b.skipped }

func (b *pageStats) flushIfFull(h Handler, q Query) {
	if b.total() >= PageSize {
		b.flush(h, q)
	}
}

func (b *pageStats) flush(h Handler, q Query) {
	if b.total() == 0 {
		return
	}
	h.OnBatchMetrics(models.BatchMetrics{
		Query:          q.Title,
		Processed:      b.processed,
		Failed:         b.failed,
		SkippedRecords: b.skipped,
	})
	*b = pageStats{}
}

func decodeRecord(line string) (models.RawRecord, error) {
	var rec models.RawRecord
	err := json.Unmarshal([]byte(line), &rec)
	return rec, err
}
