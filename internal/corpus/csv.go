package corpus

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/hyperjump/jobscout/internal/models"
)

// CSVStore keeps the corpus in memory and rewrites the whole CSV snapshot on every append.
// The snapshot is written to a temp file in the same directory and renamed into place.
// When another process replaces the file, the next call reloads it before reading or appending.
type CSVStore struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger

	// persisted mirrors the snapshot last read or written; pending holds postings
	// whose write failed and that go out with the next successful write.
	persisted []*models.JobPosting
	pending   []*models.JobPosting
	seen      fileState
}

type fileState struct {
	exists  bool
	size    int64
	modTime time.Time
}

func (f fileState) same(o fileState) bool {
	return f.exists == o.exists && f.size == o.size && f.modTime.Equal(o.modTime)
}

func statFile(path string) (fileState, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fileState{}, nil
	}
	if err != nil {
		return fileState{}, errors.Wrap(err, "failed to stat corpus")
	}
	return fileState{exists: true, size: info.Size(), modTime: info.ModTime()}, nil
}

// Option configures a CSVStore.
type Option func(*CSVStore)

// WithLogger sets the logger for snapshot writes.
func WithLogger(l *zap.Logger) Option {
	return func(s *CSVStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewCSVStore opens the corpus at path, loading any existing snapshot.
// A missing file is an empty corpus; the parent directory is created.
func NewCSVStore(path string, opts ...Option) (*CSVStore, error) {
	s := &CSVStore{path: path, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(err, "failed to create corpus directory")
		}
	}
	if err := s.reload(); err != nil {
		return nil, err
	}
	if len(s.persisted) > 0 {
		s.logger.Info("loaded corpus snapshot", zap.String("path", path), zap.Int("postings", len(s.persisted)))
	}
	return s, nil
}

func (s *CSVStore) reload() error {
	st, err := statFile(s.path)
	if err != nil {
		return err
	}
	postings, err := readCSV(s.path)
	if err != nil {
		return err
	}
	s.persisted = postings
	s.seen = st
	return nil
}

// syncLocked reloads the snapshot if its size or mtime moved since the last read or write.
func (s *CSVStore) syncLocked() error {
	st, err := statFile(s.path)
	if err != nil {
		return err
	}
	if st.same(s.seen) {
		return nil
	}
	if err := s.reload(); err != nil {
		return errors.Wrapf(err, "failed to reload corpus %s", s.path)
	}
	s.logger.Debug("corpus snapshot changed on disk, reloaded",
		zap.String("path", s.path), zap.Int("postings", len(s.persisted)))
	return nil
}

func (s *CSVStore) all() []*models.JobPosting {
	out := make([]*models.JobPosting, 0, len(s.persisted)+len(s.pending))
	out = append(out, s.persisted...)
	return append(out, s.pending...)
}

func readCSV(path string) ([]*models.JobPosting, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to open corpus")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read corpus header")
	}
	// Snapshots written with a leading index column shift every field by one.
	shift := 0
	if len(header) == len(models.CSVHeader)+1 {
		shift = 1
	}
	var out []*models.JobPosting
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read corpus %s", path)
		}
		if len(row) <= shift {
			continue
		}
		out = append(out, models.PostingFromRow(row[shift:]))
	}
	return out, nil
}

// Append validates p, adds it to the in-memory corpus and rewrites the snapshot.
// On a write error the posting stays in memory and is persisted by the next successful write.
func (s *CSVStore) Append(ctx context.Context, p *models.JobPosting) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.syncLocked(); err != nil {
		return err
	}
	cp := *p
	s.pending = append(s.pending, &cp)
	postings := s.all()
	if err := s.writeSnapshot(postings); err != nil {
		return errors.Wrapf(err, "failed to write corpus snapshot %s", s.path)
	}
	s.persisted = postings
	s.pending = nil
	st, err := statFile(s.path)
	if err != nil {
		return err
	}
	s.seen = st
	return nil
}

func (s *CSVStore) writeSnapshot(postings []*models.JobPosting) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".corpus-*.csv")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)
	if err := w.Write(models.CSVHeader); err != nil {
		_ = tmp.Close()
		return err
	}
	for _, p := range postings {
		if err := w.Write(p.Row()); err != nil {
			_ = tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return err
	}
	s.logger.Debug("corpus snapshot written", zap.String("path", s.path), zap.Int("postings", len(postings)))
	return nil
}

// ReadAll returns the postings in insertion order.
func (s *CSVStore) ReadAll(ctx context.Context) ([]*models.JobPosting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.syncLocked(); err != nil {
		return nil, err
	}
	return s.all(), nil
}

// Count returns the number of postings.
func (s *CSVStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.syncLocked(); err != nil {
		return 0, err
	}
	return len(s.persisted) + len(s.pending), nil
}

// Location returns the snapshot path.
func (s *CSVStore) Location() string { return s.path }

// Close is a no-op; every append is already on disk.
func (s *CSVStore) Close() error { return nil }
