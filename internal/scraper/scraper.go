// Package scraper defines the callback contract between job scrapers and ingestion.
package scraper

import (
	"context"

	"github.com/hyperjump/jobscout/internal/config"
	"github.com/hyperjump/jobscout/internal/models"
)

// Handler receives events from one scrape session.
type Handler interface {
	OnRecord(rec models.RawRecord)
	OnError(err error)
	// OnBatchMetrics is called once per scraped page.
	OnBatchMetrics(m models.BatchMetrics)
	// OnComplete ends the session. Nothing is delivered after it.
	OnComplete()
}

// Scraper runs one scrape session and reports through h.
// Run returns a non-nil error only when the session could not be carried out.
type Scraper interface {
	Run(ctx context.Context, q Query, h Handler) error
}

// Filters narrow a search.
type Filters struct {
	// Relevance is recent or relevant.
	Relevance string `json:"relevance"`
	// Time is day, week, month or any.
	Time string `json:"time"`
	// Type lists job types such as full-time or contract.
	Type []string `json:"type"`
	// Limit caps postings per location.
	Limit int `json:"limit"`
}

// FiltersFromConfig returns the configured default filters.
func FiltersFromConfig(cfg config.ScrapeConfig) Filters {
	types := make([]string, len(cfg.Type))
	copy(types, cfg.Type)
	return Filters{
		Relevance: cfg.Relevance,
		Time:      cfg.Time,
		Type:      types,
		Limit:     cfg.Limit,
	}
}

// Query is one search: a title across a set of locations.
type Query struct {
	Title     string   `json:"title"`
	Locations []string `json:"locations"`
	Filters   Filters  `json:"filters"`
}

// Funcs adapts plain functions to Handler. Nil fields are ignored.
type Funcs struct {
	Record   func(models.RawRecord)
	Error    func(error)
	Metrics  func(models.BatchMetrics)
	Complete func()
}

func (f Funcs) OnRecord(rec models.RawRecord) {
	if f.Record != nil {
		f.Record(rec)
	}
}

func (f Funcs) OnError(err error) {
	if f.Error != nil {
		f.Error(err)
	}
}

func (f Funcs) OnBatchMetrics(m models.BatchMetrics) {
	if f.Metrics != nil {
		f.Metrics(m)
	}
}

func (f Funcs) OnComplete() {
	if f.Complete != nil {
		f.Complete()
	}
}
