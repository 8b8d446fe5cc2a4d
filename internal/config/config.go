// Package config provides configuration loading and structs for the jobscout pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Query     QueryConfig     `yaml:"query"`
	LLM       LLMConfig       `yaml:"llm"`
	Scrape    ScrapeConfig    `yaml:"scrape"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
}

// StorageConfig holds the corpus backend and on-disk locations.
type StorageConfig struct {
	// CorpusBackend is one of csv, sqlite or postgres.
	CorpusBackend    string `yaml:"corpus_backend"`
	CorpusPath       string `yaml:"corpus_path"`
	DatabasePath     string `yaml:"database_path"`
	PostgresDSN      string `yaml:"postgres_dsn"`
	IndexDir         string `yaml:"index_dir"`
	KeywordIndexPath string `yaml:"keyword_index_path"`
	ResumesDir       string `yaml:"resumes_dir"`
}

// EmbeddingConfig selects and tunes the embedder.
type EmbeddingConfig struct {
	// Provider is one of gemini, onnx or hash.
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// IndexConfig holds chunking and build settings for the semantic index.
type IndexConfig struct {
	ChunkSize       int   `yaml:"chunk_size"`
	ChunkOverlap    int   `yaml:"chunk_overlap"`
	BatchSize       int   `yaml:"batch_size"`
	Workers         int   `yaml:"workers"`
	RebuildOnChange *bool `yaml:"rebuild_on_change"`
}

// RebuildOnChangeOrDefault reports whether a changed corpus triggers a rebuild; defaults to true when unset.
func (c *IndexConfig) RebuildOnChangeOrDefault() bool {
	if c.RebuildOnChange != nil {
		return *c.RebuildOnChange
	}
	return true
}

// QueryConfig holds retrieval settings.
type QueryConfig struct {
	TopK int `yaml:"top_k"`
	// Candidates is how many chunks are pulled before aggregating to postings.
	Candidates int `yaml:"candidates"`
}

// LLMConfig holds generation settings.
type LLMConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	// Temperature is left to the model default when unset; 0 is deterministic.
	Temperature *float32 `yaml:"temperature,omitempty"`
}

// ScrapeConfig holds scraping collaborator settings.
type ScrapeConfig struct {
	// Source is linkedin or file.
	Source          string        `yaml:"source"`
	FilePath        string        `yaml:"file_path"`
	Timeout         time.Duration `yaml:"timeout"`
	SlowMo          time.Duration `yaml:"slow_mo"`
	PageLoadTimeout time.Duration `yaml:"page_load_timeout"`
	UseBrowser      bool          `yaml:"use_browser"`
	Headless        *bool         `yaml:"headless"`
	Relevance       string        `yaml:"relevance"`
	Time            string        `yaml:"time"`
	Type            []string      `yaml:"type"`
	Limit           int           `yaml:"limit"`
	UserAgent       string        `yaml:"user_agent"`
}

// HeadlessOrDefault returns whether the browser runs headless; defaults to true when unset.
func (s *ScrapeConfig) HeadlessOrDefault() bool {
	if s.Headless != nil {
		return *s.Headless
	}
	return true
}

// WatchConfig controls the corpus watcher used by serve.
type WatchConfig struct {
	Enabled  *bool         `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// EnabledOrDefault returns whether the corpus watcher runs; defaults to true when unset.
func (w *WatchConfig) EnabledOrDefault() bool {
	if w.Enabled != nil {
		return *w.Enabled
	}
	return true
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	ApplyEnv(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.CorpusPath = expandPath(cfg.Storage.CorpusPath, configDir)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.IndexDir = expandPath(cfg.Storage.IndexDir, configDir)
	cfg.Storage.KeywordIndexPath = expandPath(cfg.Storage.KeywordIndexPath, configDir)
	cfg.Storage.ResumesDir = expandPath(cfg.Storage.ResumesDir, configDir)
	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	}
	if cfg.Scrape.FilePath != "" {
		cfg.Scrape.FilePath = expandPath(cfg.Scrape.FilePath, configDir)
	}

	return &cfg, nil
}

// Default returns a config with defaults applied and relative paths resolved
// against the working directory. Used when no config file exists.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	ApplyEnv(&cfg)
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	cfg.Storage.CorpusPath = expandPath(cfg.Storage.CorpusPath, wd)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, wd)
	cfg.Storage.IndexDir = expandPath(cfg.Storage.IndexDir, wd)
	cfg.Storage.KeywordIndexPath = expandPath(cfg.Storage.KeywordIndexPath, wd)
	cfg.Storage.ResumesDir = expandPath(cfg.Storage.ResumesDir, wd)
	return &cfg
}

// ApplyEnv fills secrets and DSNs from the environment when the file leaves them empty.
func ApplyEnv(cfg *Config) {
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.Storage.PostgresDSN == "" {
		cfg.Storage.PostgresDSN = os.Getenv("DATABASE_URL")
	}
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
