package docparse

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/hyperjump/jobscout/internal/extract"
)

type converterFunc func(ctx context.Context, path string) ([]string, error)

func (f converterFunc) Convert(ctx context.Context, path string) ([]string, error) {
	return f(ctx, path)
}

func TestAdapter_Parse(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name     string
		chunks   []string
		err      error
		want     string
		wantErr  error
		wantPErr bool
	}{
		{name: "first chunk wins", chunks: []string{" page one ", "page two"}, want: "page one"},
		{name: "converter failure", err: boom, wantErr: boom, wantPErr: true},
		{name: "no chunks", wantErr: ErrNoText, wantPErr: true},
		{name: "blank first chunk", chunks: []string{"  ", "page two"}, wantErr: ErrNoText, wantPErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAdapter(converterFunc(func(context.Context, string) ([]string, error) {
				return tt.chunks, tt.err
			}), nil)
			doc, err := a.Parse(context.Background(), "/tmp/cv.PDF")
			if tt.wantPErr {
				var pe *ParseError
				if !errors.As(err, &pe) {
					t.Fatalf("err = %v, want *ParseError", err)
				}
				if pe.Path != "/tmp/cv.PDF" {
					t.Errorf("Path = %q", pe.Path)
				}
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want cause %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if doc.Text != tt.want || doc.Format != "pdf" || len(doc.Chunks) != len(tt.chunks) {
				t.Errorf("doc = %+v", doc)
			}
		})
	}
}

func TestAdapter_ParseWithExtractor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cv.txt")
	if err := os.WriteFile(path, []byte("Go, Kubernetes, 8 years"), 0600); err != nil {
		t.Fatal(err)
	}
	a := NewAdapter(extract.NewExtractor(0), nil)
	doc, err := a.Parse(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Text != "Go, Kubernetes, 8 years" {
		t.Errorf("Text = %q", doc.Text)
	}

	bad := filepath.Join(dir, "cv.pptx")
	if err := os.WriteFile(bad, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	_, err = a.Parse(context.Background(), bad)
	var pe *ParseError
	if !errors.As(err, &pe) || !errors.Is(err, extract.ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ParseError wrapping ErrUnsupportedFormat", err)
	}
}
