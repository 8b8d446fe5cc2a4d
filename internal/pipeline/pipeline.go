// Package pipeline runs one question end to end: scrape, index, parse the résumé, answer.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/hyperjump/jobscout/internal/index"
	"github.com/hyperjump/jobscout/internal/ingest"
	"github.com/hyperjump/jobscout/internal/models"
	"github.com/hyperjump/jobscout/internal/query"
	"github.com/hyperjump/jobscout/internal/scrapecache"
	"github.com/hyperjump/jobscout/internal/scraper"
)

// Ingester runs a scrape session into the corpus.
type Ingester interface {
	Ingest(ctx context.Context, jobTitle string, locations []string, filters scraper.Filters) (*ingest.Report, error)
}

// Indexer builds and loads the semantic index.
type Indexer interface {
	EnsureIndex(ctx context.Context) (index.Status, error)
	Load(ctx context.Context) (*index.SemanticIndex, error)
}

// DocumentParser turns an uploaded file into text.
type DocumentParser interface {
	Parse(ctx context.Context, path string) (*models.ParsedDocument, error)
}

// Stage names a pipeline step.
type Stage string

const (
	StageScrape Stage = "scrape"
	StageIndex  Stage = "index"
	StageResume Stage = "resume"
	StageQuery  Stage = "query"
)

var stageMessages = map[Stage]string{
	StageScrape: "Error during job scraping: ",
	StageIndex:  "Error during vector storage creation: ",
	StageResume: "Error while reading your résumé: ",
	StageQuery:  "Error during query processing: ",
}

// StageError is a failure in one pipeline step.
type StageError struct {
	Stage Stage
	Cause error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Cause) }

func (e *StageError) Unwrap() error { return e.Cause }

// Message is the user-facing text for the failure, with any hints appended.
func (e *StageError) Message() string {
	msg := stageMessages[e.Stage] + e.Cause.Error()
	if hints := errors.FlattenHints(e.Cause); hints != "" {
		msg += " (" + strings.ReplaceAll(hints, "\n--\n", "; ") + ")"
	}
	return msg
}

// Request is one question from a user.
type Request struct {
	JobTitle string `json:"job_title"`
	// Locations is a comma-separated list.
	Locations  string `json:"locations"`
	ResumePath string `json:"resume_path,omitempty"`
	Question   string `json:"question"`
}

// ParseLocations splits a comma-separated list, trimming entries and dropping empty ones.
func ParseLocations(s string) []string {
	var out []string
	for _, loc := range strings.Split(s, ",") {
		if loc = strings.TrimSpace(loc); loc != "" {
			out = append(out, loc)
		}
	}
	return out
}

// Session owns the collaborators for one user. Requests are handled one at a time.
type Session struct {
	cache   *scrapecache.Cache
	ingest  Ingester
	indexes Indexer
	parser  DocumentParser
	engine  *query.Engine
	filters scraper.Filters
	logger  *zap.Logger

	mu     sync.Mutex
	loaded *index.SemanticIndex
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFilters sets the search filters passed to every scrape.
func WithFilters(f scraper.Filters) Option {
	return func(s *Session) { s.filters = f }
}

// WithCache replaces the scrape cache.
func WithCache(c *scrapecache.Cache) Option {
	return func(s *Session) {
		if c != nil {
			s.cache = c
		}
	}
}

// NewSession returns a Session over the given collaborators.
func NewSession(ing Ingester, indexes Indexer, parser DocumentParser, engine *query.Engine, opts ...Option) *Session {
	s := &Session{
		cache:   scrapecache.New(),
		ingest:  ing,
		indexes: indexes,
		parser:  parser,
		engine:  engine,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run answers req. Errors are *StageError.
func (s *Session) Run(ctx context.Context, req Request) (*models.QueryResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	title := strings.TrimSpace(req.JobTitle)
	locations := ParseLocations(req.Locations)

	switch {
	case title == "":
		s.logger.Info("no job title given, querying existing corpus")
	case !s.cache.ShouldScrape(title, locations):
		s.logger.Info("inputs unchanged, skipping job scraping",
			zap.String("title", title), zap.Strings("locations", locations))
	default:
		s.logger.Info("inputs changed, scraping jobs",
			zap.String("title", title), zap.Strings("locations", locations))
		if _, err := s.ingest.Ingest(ctx, title, locations, s.filters); err != nil {
			return nil, &StageError{Stage: StageScrape, Cause: err}
		}
		s.cache.MarkScraped(title, locations)
	}

	if _, err := s.refresh(ctx); err != nil {
		return nil, &StageError{Stage: StageIndex, Cause: err}
	}

	var doc *models.ParsedDocument
	if req.ResumePath != "" {
		var err error
		if doc, err = s.parser.Parse(ctx, req.ResumePath); err != nil {
			return nil, &StageError{Stage: StageResume, Cause: err}
		}
	}

	if s.loaded == nil {
		idx, err := s.indexes.Load(ctx)
		if err != nil {
			return nil, &StageError{Stage: StageQuery, Cause: err}
		}
		s.loaded = idx
	}
	res, err := s.engine.Answer(ctx, s.loaded, doc, req.Question)
	if err != nil {
		return nil, &StageError{Stage: StageQuery, Cause: err}
	}
	return res, nil
}

// Answer is Run with errors rendered as user-facing text.
func (s *Session) Answer(ctx context.Context, req Request) string {
	res, err := s.Run(ctx, req)
	if err != nil {
		return ErrorMessage(err)
	}
	return res.Render()
}

// ErrorMessage renders err the way Answer does.
func ErrorMessage(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Message()
	}
	return "Error: " + err.Error()
}

// RefreshIndex brings the index up to date with the corpus.
func (s *Session) RefreshIndex(ctx context.Context) (index.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh(ctx)
}

func (s *Session) refresh(ctx context.Context) (index.Status, error) {
	status, err := s.indexes.EnsureIndex(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info("vector storage is ready", zap.Stringer("status", status))
	if status != index.StatusAlreadyExists {
		s.loaded = nil
	}
	return status, nil
}
