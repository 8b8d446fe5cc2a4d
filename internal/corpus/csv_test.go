package corpus

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/jobscout/internal/models"
)

func posting(i int) *models.JobPosting {
	return &models.JobPosting{
		ID:          fmt.Sprintf("job-%d", i),
		Location:    "Berlin",
		Title:       fmt.Sprintf("Engineer %d", i),
		Company:     "Acme",
		Date:        "2024-05-01",
		Link:        fmt.Sprintf("https://example.com/jobs/%d", i),
		Description: "Python, SQL, \"quoted\", commas, and\nnewlines",
	}
}

func TestCSVStore_AppendReadAllOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "jobs.csv")
	store, err := NewCSVStore(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	const n = 5
	for i := 0; i < n; i++ {
		if err := store.Append(ctx, posting(i)); err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
	}
	got, err := store.ReadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != n {
		t.Fatalf("ReadAll() = %d postings, want %d", len(got), n)
	}
	for i, p := range got {
		if p.ID != fmt.Sprintf("job-%d", i) {
			t.Errorf("postings[%d].ID = %s", i, p.ID)
		}
	}
	if c, _ := store.Count(ctx); c != n {
		t.Errorf("Count() = %d", c)
	}
}

func TestCSVStore_SnapshotSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.csv")
	ctx := context.Background()
	store, err := NewCSVStore(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := store.Append(ctx, posting(i)); err != nil {
			t.Fatal(err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "Job_ID,Location,Title,Company,Date,Link,Description\n") {
		t.Errorf("unexpected header: %q", strings.SplitN(string(data), "\n", 2)[0])
	}

	reopened, err := NewCSVStore(path)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := reopened.ReadAll(ctx)
	if len(got) != 3 {
		t.Fatalf("reopened corpus has %d postings, want 3", len(got))
	}
	if *got[2] != *posting(2) {
		t.Errorf("round trip mismatch: %+v", got[2])
	}
	if err := reopened.Append(ctx, posting(3)); err != nil {
		t.Fatal(err)
	}
	if c, _ := reopened.Count(ctx); c != 4 {
		t.Errorf("corpus should keep growing across sessions, got %d", c)
	}
}

func TestCSVStore_LeadingIndexColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.csv")
	content := ",Job_ID,Location,Title,Company,Date,Link,Description\n0,1,Berlin,Engineer,Acme,2024-01-01,https://x/1,desc\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	store, err := NewCSVStore(path)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := store.ReadAll(context.Background())
	if len(got) != 1 || got[0].ID != "1" || got[0].Link != "https://x/1" {
		t.Errorf("unexpected postings: %+v", got)
	}
}

func TestCSVStore_RejectsInvalid(t *testing.T) {
	store, err := NewCSVStore(filepath.Join(t.TempDir(), "jobs.csv"))
	if err != nil {
		t.Fatal(err)
	}
	p := posting(1)
	p.Company = ""
	err = store.Append(context.Background(), p)
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Append() = %v, want ValidationError", err)
	}
	if c, _ := store.Count(context.Background()); c != 0 {
		t.Errorf("invalid posting stored")
	}
}

func TestCSVStore_WriteFailureKeepsMemory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "corpus")
	store, err := NewCSVStore(filepath.Join(dir, "jobs.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := store.Append(ctx, posting(1)); err == nil {
		t.Fatal("expected write error when directory is gone")
	}
	if c, _ := store.Count(ctx); c != 1 {
		t.Errorf("in-memory postings lost on write failure: %d", c)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := store.Append(ctx, posting(2)); err != nil {
		t.Fatal(err)
	}
	reopened, err := NewCSVStore(filepath.Join(dir, "jobs.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if c, _ := reopened.Count(ctx); c != 2 {
		t.Errorf("next snapshot should include earlier posting, got %d", c)
	}
}

func TestPage(t *testing.T) {
	var all []*models.JobPosting
	for i := 0; i < 5; i++ {
		all = append(all, posting(i))
	}
	tests := []struct {
		offset, limit, want int
	}{
		{0, 2, 2},
		{4, 10, 1},
		{5, 10, 0},
		{-1, 0, 5},
	}
	for _, tt := range tests {
		if got := Page(all, tt.offset, tt.limit); len(got) != tt.want {
			t.Errorf("Page(%d,%d) = %d, want %d", tt.offset, tt.limit, len(got), tt.want)
		}
	}
}

func TestCSVStore_SeesWritesFromOtherInstance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.csv")
	ctx := context.Background()
	cli, err := NewCSVStore(path)
	if err != nil {
		t.Fatal(err)
	}
	server, err := NewCSVStore(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := cli.Append(ctx, posting(1)); err != nil {
		t.Fatal(err)
	}
	got, err := server.ReadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "job-1" {
		t.Fatalf("server ReadAll() = %d postings, want job-1", len(got))
	}

	if err := server.Append(ctx, posting(2)); err != nil {
		t.Fatal(err)
	}
	if err := cli.Append(ctx, posting(3)); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewCSVStore(path)
	if err != nil {
		t.Fatal(err)
	}
	all, _ := reopened.ReadAll(ctx)
	var ids []string
	for _, p := range all {
		ids = append(ids, p.ID)
	}
	if strings.Join(ids, ",") != "job-1,job-2,job-3" {
		t.Errorf("on-disk corpus = %v, want [job-1 job-2 job-3]", ids)
	}
	if c, _ := server.Count(ctx); c != 3 {
		t.Errorf("server Count() = %d, want 3", c)
	}
}
