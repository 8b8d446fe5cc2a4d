package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/jobscout/internal/app"
	"github.com/hyperjump/jobscout/internal/index"
	"github.com/hyperjump/jobscout/internal/models"
)

func sampleSources() []*models.Source {
	return []*models.Source{
		{JobID: "1", Title: "Go Engineer", Company: "Acme", Link: "https://x/1", Score: 0.91, Snippet: "Build <mark>Go</mark> services"},
		{JobID: "2", Title: "SRE", Company: "Initech", Link: "https://x/2", Score: 0.5},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{" compact ", OutputCompact, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteAnswer(t *testing.T) {
	res := &models.QueryResult{Question: "q", Answer: " Job 1 fits. ", Sources: sampleSources(), Retrieved: 2}

	var text bytes.Buffer
	if err := WriteAnswer(&text, res, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(text.String(), "Job 1 fits.\n\nSources:\n") {
		t.Errorf("text output = %q", text.String())
	}

	var compact bytes.Buffer
	if err := WriteAnswer(&compact, res, OutputCompact); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(compact.String()), "\n")
	if len(lines) != 3 || lines[1] != "1\t0.9100\tGo Engineer\tAcme\thttps://x/1" {
		t.Errorf("compact lines = %q", lines)
	}

	var js bytes.Buffer
	if err := WriteAnswer(&js, res, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.QueryResult
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, js.String())
	}
	if len(decoded.Sources) != 2 || decoded.Retrieved != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWriteSources(t *testing.T) {
	var text bytes.Buffer
	if err := WriteSources(&text, "go", sampleSources(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := text.String()
	for _, want := range []string{`Found 2 postings for "go"`, "1. Go Engineer at Acme", "Job ID: 2", "Build <mark>Go</mark> services"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}

	var js bytes.Buffer
	if err := WriteSources(&js, "nothing", nil, OutputJSON); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(js.String(), `"results": []`) {
		t.Errorf("empty results should encode as []: %s", js.String())
	}
}

func TestWriteStatus(t *testing.T) {
	st := &app.Status{
		CorpusBackend:  "csv",
		CorpusLocation: "/data/jobs.csv",
		Postings:       12,
		IndexDir:       "/data/storage",
		KeywordDocs:    10,
		Embedding:      "hash",
		Dimensions:     384,
	}
	var buf bytes.Buffer
	if err := WriteStatus(&buf, st, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "index:              not built") {
		t.Errorf("missing not-built line:\n%s", buf.String())
	}

	st.Index = &index.Manifest{Postings: 10, Chunks: 31, Fingerprint: "abcdef0123456789abcdef", BuiltAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	buf.Reset()
	if err := WriteStatus(&buf, st, OutputText); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"chunks:             31", "fingerprint:        abcdef0123456789...", "embedding:          hash (384 dims)"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("missing %q:\n%s", want, buf.String())
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		s    string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"longer text", 6, "longer..."},
		{"héllo wörld", 5, "héllo..."},
		{"any", 0, "any"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.s, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.s, tt.max, got, tt.want)
		}
	}
	if got := TruncateWords("one two three four", 2); got != "one two..." {
		t.Errorf("TruncateWords = %q", got)
	}
}
