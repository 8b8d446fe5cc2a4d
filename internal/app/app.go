// Package app wires the configured collaborators into a running jobscout instance.
package app

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/hyperjump/jobscout/internal/config"
	"github.com/hyperjump/jobscout/internal/corpus"
	"github.com/hyperjump/jobscout/internal/docparse"
	"github.com/hyperjump/jobscout/internal/embedding"
	"github.com/hyperjump/jobscout/internal/extract"
	"github.com/hyperjump/jobscout/internal/index"
	"github.com/hyperjump/jobscout/internal/ingest"
	"github.com/hyperjump/jobscout/internal/keyword"
	"github.com/hyperjump/jobscout/internal/llm"
	"github.com/hyperjump/jobscout/internal/models"
	"github.com/hyperjump/jobscout/internal/pipeline"
	"github.com/hyperjump/jobscout/internal/query"
	"github.com/hyperjump/jobscout/internal/scraper"
	"github.com/hyperjump/jobscout/internal/scraper/linkedin"
	"github.com/hyperjump/jobscout/internal/watcher"
	"github.com/hyperjump/jobscout/pkg/utils"
)

// Components holds every long-lived collaborator.
type Components struct {
	Config   *config.Config
	Store    corpus.Store
	Embedder embedding.Embedder
	Indexes  *index.Manager
	Keyword  *keyword.BleveIndex
	Ingest   *ingest.Adapter
	Parser   *docparse.Adapter
	Engine   *query.Engine
	Session  *pipeline.Session
	Logger   *zap.Logger
}

type overrides struct {
	scraper   scraper.Scraper
	generator llm.Generator
	embedder  embedding.Embedder
}

// Option replaces a default collaborator.
type Option func(*overrides)

// WithScraper replaces the configured scraper.
func WithScraper(s scraper.Scraper) Option { return func(o *overrides) { o.scraper = s } }

// WithGenerator replaces the configured generator.
func WithGenerator(g llm.Generator) Option { return func(o *overrides) { o.generator = g } }

// WithEmbedder replaces the configured embedder.
func WithEmbedder(e embedding.Embedder) Option { return func(o *overrides) { o.embedder = e } }

// Initialize builds the components described by cfg. Close releases them.
func Initialize(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (_ *Components, err error) {
	logger = utils.OrNop(logger)
	var o overrides
	for _, opt := range opts {
		opt(&o)
	}
	c := &Components{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	if c.Store, err = corpus.Open(ctx, cfg.Storage, logger); err != nil {
		return nil, errors.Wrap(err, "failed to initialize corpus store")
	}

	c.Embedder = o.embedder
	if c.Embedder == nil {
		if c.Embedder, err = embedding.New(ctx, cfg.Embedding, cfg.LLM.APIKey, logger); err != nil {
			return nil, errors.Wrap(err, "failed to initialize embedder")
		}
	}

	c.Indexes = index.NewManager(c.Store, c.Embedder, cfg.Storage.IndexDir, cfg.Index,
		index.WithLogger(logger), index.WithCandidates(cfg.Query.Candidates))

	if c.Keyword, err = keyword.NewBleveIndex(cfg.Storage.KeywordIndexPath, logger); err != nil {
		return nil, errors.Wrap(err, "failed to initialize keyword index")
	}

	s := o.scraper
	if s == nil {
		if s, err = newScraper(cfg.Scrape, logger); err != nil {
			return nil, err
		}
	}
	c.Ingest = ingest.NewAdapter(c.Store, s, ingest.WithLogger(logger), ingest.WithTimeout(cfg.Scrape.Timeout))

	maxUpload := int64(cfg.Server.MaxUploadMB) << 20
	c.Parser = docparse.NewAdapter(extract.NewExtractor(maxUpload), logger)

	gen := o.generator
	if gen == nil {
		if gen, err = llm.New(ctx, cfg.LLM, logger); err != nil {
			return nil, errors.Wrap(err, "failed to initialize generator")
		}
	}
	c.Engine = query.NewEngine(gen, query.WithLogger(logger), query.WithTopK(cfg.Query.TopK))

	c.Session = pipeline.NewSession(c.Ingest, c.Indexes, c.Parser, c.Engine,
		pipeline.WithLogger(logger), pipeline.WithFilters(scraper.FiltersFromConfig(cfg.Scrape)))
	return c, nil
}

func newScraper(cfg config.ScrapeConfig, logger *zap.Logger) (scraper.Scraper, error) {
	switch strings.ToLower(cfg.Source) {
	case "linkedin", "":
		return linkedin.New(cfg, linkedin.WithLogger(logger)), nil
	case "file":
		if cfg.FilePath == "" {
			return nil, errors.WithHint(errors.New("scrape.file_path is required for the file source"),
				"point scrape.file_path at a JSON-lines file of records")
		}
		return scraper.NewFileScraper(cfg.FilePath), nil
	default:
		return nil, errors.Newf("unknown scrape source %q", cfg.Source)
	}
}

// Close releases the store, embedder and keyword index.
func (c *Components) Close() {
	if c.Keyword != nil {
		_ = c.Keyword.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

// SearchPostings runs a keyword search over the corpus, syncing the keyword index first.
func (c *Components) SearchPostings(ctx context.Context, q string, limit int, opts *keyword.SearchOptions) ([]*models.Source, error) {
	postings, err := c.Store.ReadAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read corpus")
	}
	if _, err := c.Keyword.Sync(ctx, postings); err != nil {
		return nil, err
	}
	hits, err := c.Keyword.Search(ctx, q, limit, opts)
	if err != nil {
		return nil, err
	}
	return keyword.Resolve(hits, postings), nil
}

// Status describes the corpus and the indexes.
type Status struct {
	CorpusBackend  string          `json:"corpus_backend"`
	CorpusLocation string          `json:"corpus_location"`
	Postings       int             `json:"postings"`
	IndexDir       string          `json:"index_dir"`
	Index          *index.Manifest `json:"index,omitempty"`
	KeywordDocs    uint64          `json:"keyword_docs"`
	DiskUsageBytes int64           `json:"disk_usage_bytes"`
	Embedding      string          `json:"embedding_provider"`
	Dimensions     int             `json:"embedding_dimensions"`
}

// Status reports corpus and index state. A missing index is not an error.
func (c *Components) Status(ctx context.Context) (*Status, error) {
	n, err := c.Store.Count(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count postings")
	}
	st := &Status{
		CorpusBackend:  c.Config.Storage.CorpusBackend,
		CorpusLocation: c.Store.Location(),
		Postings:       n,
		IndexDir:       c.Indexes.Dir(),
		Embedding:      c.Config.Embedding.Provider,
		Dimensions:     c.Embedder.Dimensions(),
	}
	man, err := c.Indexes.ReadManifest()
	switch {
	case err == nil:
		st.Index = man
	case !errors.Is(err, index.ErrIndexMissing):
		return nil, err
	}
	if st.KeywordDocs, err = c.Keyword.DocCount(); err != nil {
		return nil, errors.Wrap(err, "failed to count keyword documents")
	}
	paths := []string{c.Config.Storage.IndexDir, c.Config.Storage.KeywordIndexPath}
	if c.Config.Storage.CorpusBackend != "postgres" {
		paths = append(paths, c.Store.Location())
	}
	if st.DiskUsageBytes, err = utils.DiskUsageBytes(paths...); err != nil {
		c.Logger.Warn("disk usage unavailable", zap.Error(err))
	}
	return st, nil
}

// Watch refreshes the semantic and keyword indexes whenever the corpus file changes.
// It returns nil when the backend has no local file or watching is disabled.
func (c *Components) Watch(ctx context.Context) (*watcher.Watcher, error) {
	if !c.Config.Watch.EnabledOrDefault() || c.Config.Storage.CorpusBackend == "postgres" {
		return nil, nil
	}
	w := watcher.New([]string{c.Store.Location()}, func() { c.refresh(ctx) },
		watcher.WithLogger(c.Logger), watcher.WithDebounce(c.Config.Watch.Debounce))
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	c.Logger.Info("watching corpus", zap.String("path", c.Store.Location()))
	return w, nil
}

func (c *Components) refresh(ctx context.Context) {
	start := time.Now()
	status, err := c.Session.RefreshIndex(ctx)
	if err != nil {
		if errors.Is(err, index.ErrEmptyCorpus) {
			return
		}
		c.Logger.Error("index refresh failed", zap.Error(err))
		return
	}
	postings, err := c.Store.ReadAll(ctx)
	if err == nil {
		_, err = c.Keyword.Sync(ctx, postings)
	}
	if err != nil {
		c.Logger.Error("keyword index refresh failed", zap.Error(err))
	}
	c.Logger.Info("indexes refreshed", zap.Stringer("status", status), zap.Duration("duration", time.Since(start)))
}
