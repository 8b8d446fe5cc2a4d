package corpus

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hyperjump/jobscout/internal/models"
)

// PGStore implements Store on PostgreSQL. Postings are keyed by job_id; the first write wins.
type PGStore struct {
	pool *pgxpool.Pool
	host string
}

var _ Store = (*PGStore)(nil)

// NewPGStore connects to dsn and creates the postings table if needed.
func NewPGStore(ctx context.Context, dsn string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to postgres")
	}
	_, err = pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS postings (
  seq BIGSERIAL PRIMARY KEY,
  job_id TEXT NOT NULL UNIQUE,
  location TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL,
  company TEXT NOT NULL,
  posted_date TEXT NOT NULL DEFAULT '',
  link TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  ingested_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`)
	if err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "failed to initialize postgres schema")
	}
	host := pool.Config().ConnConfig.Host
	return &PGStore{pool: pool, host: host}, nil
}

const pgInsert = `
INSERT INTO postings (job_id, location, title, company, posted_date, link, description)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (job_id) DO NOTHING`

// Append inserts p unless a posting with the same ID already exists.
func (s *PGStore) Append(ctx context.Context, p *models.JobPosting) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, pgInsert,
		p.ID, p.Location, p.Title, p.Company, p.Date, p.Link, p.Description); err != nil {
		return errors.Wrapf(err, "failed to insert posting %s", p.ID)
	}
	return nil
}

// AppendAll inserts postings in one batch. Invalid postings abort the batch before anything is sent.
func (s *PGStore) AppendAll(ctx context.Context, postings []*models.JobPosting) error {
	b := &pgx.Batch{}
	for _, p := range postings {
		if err := p.Validate(); err != nil {
			return err
		}
		b.Queue(pgInsert, p.ID, p.Location, p.Title, p.Company, p.Date, p.Link, p.Description)
	}
	br := s.pool.SendBatch(ctx, b)
	defer br.Close()
	for range postings {
		if _, err := br.Exec(); err != nil {
			return errors.Wrap(err, "failed to insert posting batch")
		}
	}
	return nil
}

// ReadAll returns every posting ordered by insertion sequence.
func (s *PGStore) ReadAll(ctx context.Context) ([]*models.JobPosting, error) {
	rows, err := s.pool.Query(ctx, `
SELECT job_id, location, title, company, posted_date, link, description
FROM postings
ORDER BY seq`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query postings")
	}
	defer rows.Close()

	var out []*models.JobPosting
	for rows.Next() {
		var p models.JobPosting
		if err := rows.Scan(&p.ID, &p.Location, &p.Title, &p.Company, &p.Date, &p.Link, &p.Description); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// Count returns the number of stored postings.
func (s *PGStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM postings`).Scan(&n)
	return n, err
}

// Location returns the postgres host.
func (s *PGStore) Location() string { return "postgres://" + s.host }

// Close closes the pool.
func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}
