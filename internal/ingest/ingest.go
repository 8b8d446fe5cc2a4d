// Package ingest drives a scraper session and appends validated postings to the corpus.
package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/jobscout/internal/corpus"
	"github.com/hyperjump/jobscout/internal/models"
	"github.com/hyperjump/jobscout/internal/scraper"
)

var (
	// ErrIngestionStall means the scraper did not signal completion within the timeout.
	ErrIngestionStall = errors.New("ingestion stalled")
	// ErrIngestionFailed means the scraper gave up before completing the session.
	ErrIngestionFailed = errors.New("ingestion failed")
)

// DefaultTimeout is the completion watchdog used when none is configured.
const DefaultTimeout = 10 * time.Minute

// Report summarizes one scrape session.
type Report struct {
	SessionID uuid.UUID     `json:"session_id"`
	Title     string        `json:"title"`
	Locations []string      `json:"locations"`
	Accepted  int           `json:"accepted"`
	Rejected  int           `json:"rejected"`
	Errors    int           `json:"errors"`
	Pages     int           `json:"pages"`
	Completed bool          `json:"completed"`
	Duration  time.Duration `json:"duration"`
}

// Adapter bridges a Scraper to a corpus Store. Sessions are serialized.
type Adapter struct {
	store   corpus.Store
	scraper scraper.Scraper
	timeout time.Duration
	logger  *zap.Logger
	mu      sync.Mutex
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithTimeout sets the completion watchdog.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// NewAdapter returns an adapter appending records from s into store.
func NewAdapter(store corpus.Store, s scraper.Scraper, opts ...Option) *Adapter {
	a := &Adapter{store: store, scraper: s, timeout: DefaultTimeout, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Ingest runs exactly one scrape session for jobTitle across locations.
// Record-level problems are logged and counted; the session fails only on a stall,
// a scraper failure before completion, or ctx cancellation. The report is returned
// in every case with the counts gathered so far.
func (a *Adapter) Ingest(ctx context.Context, jobTitle string, locations []string, filters scraper.Filters) (*Report, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	start := time.Now()
	s := &session{
		store: a.store,
		done:  make(chan struct{}),
		report: Report{
			SessionID: uuid.New(),
			Title:     jobTitle,
			Locations: locations,
		},
	}
	s.logger = a.logger.With(zap.String("session", s.report.SessionID.String()))
	s.logger.Info("scrape session started",
		zap.String("title", jobTitle),
		zap.Strings("locations", locations),
		zap.Duration("timeout", a.timeout))

	sctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.ctx = sctx

	q := scraper.Query{Title: jobTitle, Locations: locations, Filters: filters}
	runErr := make(chan error, 1)
	go func() { runErr <- a.scraper.Run(sctx, q, s) }()

	watchdog := time.NewTimer(a.timeout)
	defer watchdog.Stop()

	var err error
wait:
	for {
		select {
		case <-s.done:
			break wait
		case rerr := <-runErr:
			runErr = nil
			if rerr != nil && !s.isComplete() {
				err = errors.Mark(errors.Wrap(rerr, "scraper run"), ErrIngestionFailed)
				break wait
			}
			// A clean return without OnComplete still waits for the signal or the watchdog.
		case <-watchdog.C:
			err = errors.WithHint(
				errors.Wrapf(ErrIngestionStall, "no completion signal within %s", a.timeout),
				"the job site may be slow or blocking requests; try again later")
			break wait
		case <-ctx.Done():
			err = errors.Wrap(ctx.Err(), "scrape session cancelled")
			break wait
		}
	}
	report := s.close()
	report.Duration = time.Since(start)

	fields := []zap.Field{
		zap.Int("accepted", report.Accepted),
		zap.Int("rejected", report.Rejected),
		zap.Int("errors", report.Errors),
		zap.Int("pages", report.Pages),
		zap.Duration("duration", report.Duration),
	}
	if err != nil {
		s.logger.Error("scrape session failed", append(fields, zap.Error(err))...)
		return &report, err
	}
	s.logger.Info("scrape session completed", fields...)
	return &report, nil
}

// session is the Handler for one Ingest call. Hooks after close are ignored.
type session struct {
	ctx    context.Context
	store  corpus.Store
	logger *zap.Logger

	mu       sync.Mutex
	closed   bool
	done     chan struct{}
	doneOnce sync.Once
	report   Report
}

func (s *session) OnRecord(rec models.RawRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	p := rec.ToPosting()
	if err := p.Validate(); err != nil {
		s.report.Rejected++
		s.logger.Warn("record rejected",
			zap.String("job_id", p.ID),
			zap.String("link", p.Link),
			zap.Error(err))
		return
	}
	if err := s.store.Append(s.ctx, p); err != nil {
		s.report.Errors++
		s.logger.Error("failed to append posting", zap.String("job_id", p.ID), zap.Error(err))
		return
	}
	s.report.Accepted++
	s.logger.Debug("posting appended",
		zap.String("job_id", p.ID),
		zap.String("title", p.Title),
		zap.String("company", p.Company),
		zap.Int("description_len", len(p.Description)))
}

func (s *session) OnError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.report.Errors++
	s.logger.Warn("scraper error", zap.Error(err))
}

func (s *session) OnBatchMetrics(m models.BatchMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.report.Pages++
	s.logger.Info("scrape page metrics",
		zap.String("location", m.Location),
		zap.Int("processed", m.Processed),
		zap.Int("failed", m.Failed),
		zap.Int("missed", m.MissedRecords),
		zap.Int("skipped", m.SkippedRecords))
}

func (s *session) OnComplete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.report.Completed = true
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *session) isComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report.Completed
}

func (s *session) close() Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return s.report
}
