package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/jobscout/internal/app"
	"github.com/hyperjump/jobscout/internal/models"
)

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"golang"}, "golang"},
		{"multiple words", []string{"data", "engineer"}, "data engineer"},
		{"single quoted phrase", []string{"data engineer"}, "data engineer"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildQuery(tt.args); got != tt.expected {
				t.Errorf("buildQuery(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestValidateResumePath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "cv.txt")
	if err := os.WriteFile(file, []byte("cv"), 0600); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"empty is optional", "", false},
		{"existing file", file, false},
		{"directory", dir, true},
		{"missing", filepath.Join(dir, "nope.pdf"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := validateResumePath(tt.path); (err != nil) != tt.wantErr {
				t.Errorf("validateResumePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
	if err := validateQuestion("   "); err == nil {
		t.Error("blank question should be rejected")
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
storage:
  corpus_path: "./jobs.csv"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
	if filepath.Base(cfg.Storage.CorpusPath) != "jobs.csv" || !filepath.IsAbs(cfg.Storage.CorpusPath) {
		t.Errorf("corpus path = %s", cfg.Storage.CorpusPath)
	}
}

func TestLoadConfig_defaultsWhenNoFile(t *testing.T) {
	if _, err := os.Stat(defaultConfigPath); err == nil {
		t.Skip("system config present")
	}
	t.Chdir(t.TempDir())

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != "" {
		t.Errorf("resolved = %q, want empty", resolved)
	}
	if cfg.Query.TopK != 2 || cfg.Storage.CorpusBackend != "csv" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}

	if _, _, err := loadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("explicit missing path should fail")
	}
}

func TestSearchViaHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/postings/search" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		if q.Get("q") != "data engineer" || q.Get("limit") != "5" || q.Get("fuzzy") != "true" {
			http.Error(w, "bad query "+r.URL.RawQuery, http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"query":   q.Get("q"),
			"results": []*models.Source{{JobID: "42", Title: "Data Engineer"}},
		})
	}))
	defer srv.Close()

	got, err := searchViaHTTP(context.Background(), srv.URL, "data engineer", 5, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].JobID != "42" {
		t.Errorf("results = %+v", got)
	}

	if _, err := searchViaHTTP(context.Background(), srv.URL, "other", 5, false); err == nil || !strings.Contains(err.Error(), "400") {
		t.Errorf("expected 400 error, got %v", err)
	}
}

func TestStatusViaHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(app.Status{CorpusBackend: "sqlite", Postings: 7})
	}))
	defer srv.Close()

	st, err := statusViaHTTP(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if st.CorpusBackend != "sqlite" || st.Postings != 7 {
		t.Errorf("status = %+v", st)
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if out.String() != "jobscout version dev\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "secret")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := writeDefaultConfig(path, false); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "secret") {
		t.Error("api key from environment written to file")
	}

	cfg, _, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Query.TopK != 2 || cfg.Storage.CorpusBackend != "csv" {
		t.Errorf("unexpected config: %+v", cfg)
	}

	if err := writeDefaultConfig(path, false); err == nil {
		t.Error("existing file should not be overwritten without force")
	}
	if err := writeDefaultConfig(path, true); err != nil {
		t.Errorf("force overwrite: %v", err)
	}
}
