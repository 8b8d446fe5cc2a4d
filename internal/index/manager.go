// Package index builds, persists and loads the semantic index over the job corpus.
package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/jobscout/internal/config"
	"github.com/hyperjump/jobscout/internal/corpus"
	"github.com/hyperjump/jobscout/internal/embedding"
	"github.com/hyperjump/jobscout/internal/models"
	"github.com/hyperjump/jobscout/internal/vector"
)

// Status is the outcome of EnsureIndex.
type Status int

const (
	StatusBuilt Status = iota + 1
	StatusRebuilt
	StatusAlreadyExists
)

func (s Status) String() string {
	switch s {
	case StatusBuilt:
		return "built"
	case StatusRebuilt:
		return "rebuilt"
	case StatusAlreadyExists:
		return "already exists"
	default:
		return "unknown"
	}
}

var (
	// ErrIndexMissing means no index has been persisted yet.
	ErrIndexMissing = errors.New("index missing")
	// ErrEmptyCorpus means there is nothing to index.
	ErrEmptyCorpus = errors.New("corpus is empty")
)

// Manager owns the persisted index directory.
type Manager struct {
	store           corpus.Store
	embedder        embedding.Embedder
	dir             string
	chunker         *Chunker
	chunkSize       int
	chunkOverlap    int
	batchSize       int
	workers         int
	candidates      int
	rebuildOnChange bool
	logger          *zap.Logger
	mu              sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithCandidates sets how many chunks a search pulls before aggregating to postings.
func WithCandidates(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.candidates = n
		}
	}
}

// NewManager returns a manager persisting the index for store under dir.
func NewManager(store corpus.Store, embedder embedding.Embedder, dir string, cfg config.IndexConfig, opts ...Option) *Manager {
	m := &Manager{
		store:           store,
		embedder:        embedder,
		dir:             dir,
		chunker:         NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		batchSize:       max(cfg.BatchSize, 1),
		workers:         max(cfg.Workers, 1),
		candidates:      50,
		rebuildOnChange: cfg.RebuildOnChangeOrDefault(),
		logger:          zap.NewNop(),
	}
	m.chunkSize, m.chunkOverlap = m.chunker.chunkSize, m.chunker.chunkOverlap
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dir returns the persist directory.
func (m *Manager) Dir() string { return m.dir }

// EnsureIndex builds the index when none is persisted. When one exists it is kept,
// unless rebuild-on-change is enabled and the corpus or embedder no longer matches
// the manifest, in which case it is rebuilt and swapped in atomically.
func (m *Manager) EnsureIndex(ctx context.Context) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, err := os.Stat(m.dir)
	exists := err == nil
	if err != nil && !os.IsNotExist(err) {
		return 0, errors.Wrapf(err, "failed to stat index dir %s", m.dir)
	}

	if exists && !m.rebuildOnChange {
		m.logger.Info("index already exists", zap.String("dir", m.dir))
		return StatusAlreadyExists, nil
	}

	postings, err := m.store.ReadAll(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to read corpus")
	}
	fp := Fingerprint(postings)

	if exists {
		man, err := readManifest(m.dir)
		switch {
		case err != nil:
			m.logger.Warn("index manifest unreadable, rebuilding", zap.String("dir", m.dir), zap.Error(err))
		case m.upToDate(man, fp, len(postings)):
			m.logger.Info("index already exists", zap.String("dir", m.dir), zap.Int("postings", man.Postings))
			return StatusAlreadyExists, nil
		default:
			m.logger.Info("corpus changed since last build, rebuilding index",
				zap.Int("indexed", man.CorpusCount),
				zap.Int("corpus", len(postings)))
		}
	}

	if len(postings) == 0 {
		return 0, errors.WithHint(ErrEmptyCorpus, "scrape some postings first")
	}
	if err := m.build(ctx, postings, fp); err != nil {
		return 0, err
	}
	if exists {
		return StatusRebuilt, nil
	}
	return StatusBuilt, nil
}

func (m *Manager) upToDate(man *Manifest, fp string, count int) bool {
	return man.Version == formatVersion &&
		man.Fingerprint == fp &&
		man.CorpusCount == count &&
		man.Dimensions == m.embedder.Dimensions() &&
		man.ChunkSize == m.chunkSize &&
		man.ChunkOverlap == m.chunkOverlap
}

// Load reads the persisted index. It returns ErrIndexMissing when nothing has been built.
func (m *Manager) Load(ctx context.Context) (*SemanticIndex, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	man, err := readManifest(m.dir)
	if os.IsNotExist(err) {
		return nil, errors.WithHint(
			errors.Wrapf(ErrIndexMissing, "no index in %s", m.dir),
			"build the index first")
	}
	if err != nil {
		return nil, err
	}
	if man.Dimensions != m.embedder.Dimensions() {
		return nil, errors.WithHint(
			errors.Newf("index has %d dimensions, embedder produces %d", man.Dimensions, m.embedder.Dimensions()),
			"rebuild the index after changing the embedding provider")
	}
	snap, err := readPostings(m.dir)
	if err != nil {
		return nil, err
	}
	vecs, err := vector.LoadMemoryIndex(filepath.Join(m.dir, vectorsFile))
	if err != nil {
		return nil, err
	}
	if vecs.Size() != len(snap.Chunks) {
		return nil, errors.Newf("index is inconsistent: %d vectors for %d chunks", vecs.Size(), len(snap.Chunks))
	}
	return newSemanticIndex(*man, snap, vecs, m.embedder, m.candidates), nil
}

func (m *Manager) build(ctx context.Context, all []*models.JobPosting, fp string) error {
	start := time.Now()
	postings := Dedup(all)

	var chunks []Chunk
	for i, p := range postings {
		for j, text := range ChunkPosting(m.chunker, p) {
			chunks = append(chunks, Chunk{ID: fmt.Sprintf("%s#%d", p.ID, j), Posting: i, Text: text})
		}
	}

	vectors, err := m.embedChunks(ctx, chunks)
	if err != nil {
		return err
	}
	vecs, err := vector.NewMemoryIndex(m.embedder.Dimensions())
	if err != nil {
		return err
	}
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}
	if err := vecs.Add(ctx, ids, vectors); err != nil {
		return errors.Wrap(err, "failed to add vectors")
	}

	man := Manifest{
		Version:      formatVersion,
		Fingerprint:  fp,
		CorpusCount:  len(all),
		Postings:     len(postings),
		Chunks:       len(chunks),
		Dimensions:   m.embedder.Dimensions(),
		ChunkSize:    m.chunkSize,
		ChunkOverlap: m.chunkOverlap,
		BuiltAt:      time.Now().UTC(),
	}
	if err := m.persist(man, &postingsSnapshot{Postings: postings, Chunks: chunks}, vecs); err != nil {
		return err
	}
	m.logger.Info("index built",
		zap.String("dir", m.dir),
		zap.Int("postings", len(postings)),
		zap.Int("duplicates", len(all)-len(postings)),
		zap.Int("chunks", len(chunks)),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// embedChunks embeds chunk texts in batches with at most m.workers batches in flight.
// Results keep chunk order.
func (m *Manager) embedChunks(ctx context.Context, chunks []Chunk) ([][]float32, error) {
	out := make([][]float32, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for start := 0; start < len(chunks); start += m.batchSize {
		start, end := start, min(start+m.batchSize, len(chunks))
		g.Go(func() error {
			texts := make([]string, 0, end-start)
			for _, c := range chunks[start:end] {
				texts = append(texts, c.Text)
			}
			vecs, err := m.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return errors.Wrapf(err, "failed to embed chunks %d-%d", start, end)
			}
			if len(vecs) != len(texts) {
				return errors.Newf("embedder returned %d vectors for %d texts", len(vecs), len(texts))
			}
			copy(out[start:end], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// persist writes the index into a sibling temp directory and swaps it into place.
// A previous index is moved aside first and restored if the swap fails.
func (m *Manager) persist(man Manifest, snap *postingsSnapshot, vecs *vector.MemoryIndex) error {
	parent, base := filepath.Dir(m.dir), filepath.Base(m.dir)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return errors.Wrap(err, "failed to create index parent dir")
	}
	tmp, err := os.MkdirTemp(parent, "."+base+"-build-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp index dir")
	}
	defer os.RemoveAll(tmp)

	if err := vecs.Save(filepath.Join(tmp, vectorsFile)); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(tmp, postingsFile), snap); err != nil {
		return errors.Wrap(err, "failed to write postings snapshot")
	}
	// The manifest goes last: its presence marks a complete index.
	if err := writeJSON(filepath.Join(tmp, manifestFile), man); err != nil {
		return errors.Wrap(err, "failed to write manifest")
	}

	var backup string
	if _, err := os.Stat(m.dir); err == nil {
		backup = filepath.Join(parent, fmt.Sprintf(".%s-old-%d", base, time.Now().UnixNano()))
		if err := os.Rename(m.dir, backup); err != nil {
			return errors.Wrap(err, "failed to move previous index aside")
		}
	}
	if err := os.Rename(tmp, m.dir); err != nil {
		if backup != "" {
			_ = os.Rename(backup, m.dir)
		}
		return errors.Wrap(err, "failed to swap in new index")
	}
	if backup != "" {
		if err := os.RemoveAll(backup); err != nil {
			m.logger.Warn("failed to remove previous index", zap.String("path", backup), zap.Error(err))
		}
	}
	return nil
}

// ReadManifest returns the persisted manifest, or ErrIndexMissing when nothing has been built.
func (m *Manager) ReadManifest() (*Manifest, error) {
	man, err := readManifest(m.dir)
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrIndexMissing, "no index in %s", m.dir)
	}
	return man, err
}
