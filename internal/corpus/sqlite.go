package corpus

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/jobscout/internal/models"
)

// SQLiteStore implements Store using SQLite. Postings are keyed by job_id; the first write wins.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(err, "failed to create database directory")
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to enable WAL")
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to initialize schema")
	}

	return &SQLiteStore{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS postings (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT NOT NULL UNIQUE,
		location TEXT,
		title TEXT NOT NULL,
		company TEXT NOT NULL,
		posted_date TEXT,
		link TEXT NOT NULL,
		description TEXT,
		ingested_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_postings_ingested_at ON postings(ingested_at);
	`
	_, err := db.Exec(schema)
	return err
}

// Append inserts p unless a posting with the same ID already exists.
func (s *SQLiteStore) Append(ctx context.Context, p *models.JobPosting) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO postings (job_id, location, title, company, posted_date, link, description, ingested_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Location, p.Title, p.Company, p.Date, p.Link, p.Description, time.Now(),
	)
	if err != nil {
		return errors.Wrapf(err, "failed to insert posting %s", p.ID)
	}
	return nil
}

// ReadAll returns every posting ordered by insertion sequence.
func (s *SQLiteStore) ReadAll(ctx context.Context) ([]*models.JobPosting, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT job_id, location, title, company, posted_date, link, description
		 FROM postings ORDER BY seq`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query postings")
	}
	defer rows.Close()

	var out []*models.JobPosting
	for rows.Next() {
		var p models.JobPosting
		var loc, date, desc sql.NullString
		if err := rows.Scan(&p.ID, &loc, &p.Title, &p.Company, &date, &p.Link, &desc); err != nil {
			return nil, err
		}
		p.Location, p.Date, p.Description = loc.String, date.String, desc.String
		out = append(out, &p)
	}
	return out, rows.Err()
}

// Count returns the number of stored postings.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM postings").Scan(&n)
	return n, err
}

// Location returns the database path.
func (s *SQLiteStore) Location() string { return s.path }

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
