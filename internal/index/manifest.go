package index

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/hyperjump/jobscout/internal/models"
)

const (
	manifestFile = "manifest.json"
	postingsFile = "postings.json"
	vectorsFile  = "vectors.bin"

	formatVersion = 1
)

// Manifest describes a persisted index and the corpus it was built from.
type Manifest struct {
	Version      int       `json:"version"`
	Fingerprint  string    `json:"fingerprint"`
	CorpusCount  int       `json:"corpus_count"`
	Postings     int       `json:"postings"`
	Chunks       int       `json:"chunks"`
	Dimensions   int       `json:"dimensions"`
	ChunkSize    int       `json:"chunk_size"`
	ChunkOverlap int       `json:"chunk_overlap"`
	BuiltAt      time.Time `json:"built_at"`
}

// Chunk is one embedded window of a posting.
type Chunk struct {
	ID      string `json:"id"`
	Posting int    `json:"posting"`
	Text    string `json:"text"`
}

type postingsSnapshot struct {
	Postings []*models.JobPosting `json:"postings"`
	Chunks   []Chunk              `json:"chunks"`
}

func readManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, "failed to parse manifest")
	}
	return &m, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func readPostings(dir string) (*postingsSnapshot, error) {
	data, err := os.ReadFile(filepath.Join(dir, postingsFile))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read postings snapshot")
	}
	var s postingsSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "failed to parse postings snapshot")
	}
	return &s, nil
}
