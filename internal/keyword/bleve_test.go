package keyword

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/jobscout/internal/models"
)

var postings = []*models.JobPosting{
	{ID: "1", Title: "Platform Engineer", Company: "Acme", Location: "Berlin", Link: "https://x/1",
		Description: "Operate Kubernetes clusters and write Go services."},
	{ID: "2", Title: "Data Analyst", Company: "Globex", Location: "Remote", Link: "https://x/2",
		Description: "SQL dashboards. Some exposure to platform teams."},
	{ID: "3", Title: "Kubernetes Specialist", Company: "Initech", Location: "Munich", Link: "https://x/3",
		Description: "Consulting role."},
}

func newIndex(t *testing.T) *BleveIndex {
	t.Helper()
	idx, err := NewBleveIndex(filepath.Join(t.TempDir(), "sub", "keyword.bleve"), nil)
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	if _, err := idx.Sync(context.Background(), postings); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	return idx
}

func TestBleveIndex_SearchFindsDescription(t *testing.T) {
	idx := newIndex(t)
	hits, err := idx.Search(context.Background(), "dashboards", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].JobID != "2" {
		t.Fatalf("hits = %+v", hits)
	}
}

func TestBleveIndex_TitleBoost(t *testing.T) {
	idx := newIndex(t)
	hits, err := idx.Search(context.Background(), "kubernetes", 10, &SearchOptions{TitleBoost: 5})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].JobID != "3" {
		t.Errorf("title match should rank first, got %s", hits[0].JobID)
	}
}

func TestBleveIndex_Fuzzy(t *testing.T) {
	idx := newIndex(t)
	ctx := context.Background()
	hits, err := idx.Search(ctx, "dashbords", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("exact search should not match a typo, got %+v", hits)
	}
	hits, err = idx.Search(ctx, "dashbords", 10, &SearchOptions{Fuzziness: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].JobID != "2" {
		t.Errorf("fuzzy hits = %+v", hits)
	}
}

func TestBleveIndex_Highlight(t *testing.T) {
	idx := newIndex(t)
	hits, err := idx.Search(context.Background(), "dashboards", 10, &SearchOptions{Highlight: "html"})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || len(hits[0].Fragments) == 0 {
		t.Fatalf("hits = %+v", hits)
	}
	if !strings.Contains(hits[0].Fragments[0], "<mark>dashboards</mark>") {
		t.Errorf("fragment = %q", hits[0].Fragments[0])
	}
}

func TestBleveIndex_SyncIdempotentAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keyword.bleve")
	ctx := context.Background()
	idx, err := NewBleveIndex(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	dup := *postings[0]
	dup.Title = "Duplicate"
	n, err := idx.Sync(ctx, append(append([]*models.JobPosting{}, postings...), &dup))
	if err != nil || n != 3 {
		t.Fatalf("first Sync = %d, %v", n, err)
	}
	if n, err := idx.Sync(ctx, postings); err != nil || n != 0 {
		t.Fatalf("second Sync = %d, %v", n, err)
	}
	if err := idx.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("index path should exist: %v", err)
	}

	reopened, err := NewBleveIndex(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	count, err := reopened.DocCount()
	if err != nil || count != 3 {
		t.Fatalf("DocCount = %d, %v", count, err)
	}
	hits, err := reopened.Search(ctx, "duplicate", 10, nil)
	if err != nil || len(hits) != 0 {
		t.Errorf("duplicate posting should not be indexed: %+v, %v", hits, err)
	}
}

func TestResolve(t *testing.T) {
	hits := []*Hit{{JobID: "3", Score: 2, Fragments: []string{"a", "b"}}, {JobID: "missing", Score: 1}}
	got := Resolve(hits, postings)
	if len(got) != 1 || got[0].Link != "https://x/3" || got[0].Snippet != "a … b" {
		t.Errorf("Resolve() = %+v", got)
	}
}
