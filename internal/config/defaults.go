package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 20
	}
	if cfg.Storage.CorpusBackend == "" {
		cfg.Storage.CorpusBackend = "csv"
	}
	if cfg.Storage.CorpusPath == "" {
		cfg.Storage.CorpusPath = "./data/jobs.csv"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./data/jobs.db"
	}
	if cfg.Storage.IndexDir == "" {
		cfg.Storage.IndexDir = "./storage"
	}
	if cfg.Storage.KeywordIndexPath == "" {
		cfg.Storage.KeywordIndexPath = "./data/keyword.bleve"
	}
	if cfg.Storage.ResumesDir == "" {
		cfg.Storage.ResumesDir = "./resumes"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "gemini"
	}
	if cfg.Embedding.Model == "" && cfg.Embedding.Provider == "gemini" {
		cfg.Embedding.Model = "text-embedding-004"
	}
	if cfg.Embedding.Dimensions == 0 {
		if cfg.Embedding.Provider == "gemini" {
			cfg.Embedding.Dimensions = 768
		} else {
			cfg.Embedding.Dimensions = 384
		}
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Index.ChunkSize == 0 {
		cfg.Index.ChunkSize = 512
	}
	if cfg.Index.ChunkOverlap == 0 {
		cfg.Index.ChunkOverlap = 50
	}
	if cfg.Index.BatchSize == 0 {
		cfg.Index.BatchSize = 32
	}
	if cfg.Index.Workers == 0 {
		cfg.Index.Workers = 4
	}
	if cfg.Query.TopK == 0 {
		cfg.Query.TopK = 2
	}
	if cfg.Query.Candidates == 0 {
		cfg.Query.Candidates = 50
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "gemini"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gemini-2.5-flash"
	}
	if cfg.Scrape.Source == "" {
		cfg.Scrape.Source = "linkedin"
	}
	if cfg.Scrape.Timeout == 0 {
		cfg.Scrape.Timeout = 10 * time.Minute
	}
	if cfg.Scrape.SlowMo == 0 {
		cfg.Scrape.SlowMo = 500 * time.Millisecond
	}
	if cfg.Scrape.PageLoadTimeout == 0 {
		cfg.Scrape.PageLoadTimeout = 40 * time.Second
	}
	if cfg.Scrape.Relevance == "" {
		cfg.Scrape.Relevance = "recent"
	}
	if cfg.Scrape.Time == "" {
		cfg.Scrape.Time = "month"
	}
	if cfg.Scrape.Type == nil {
		cfg.Scrape.Type = []string{"full-time"}
	}
	if cfg.Scrape.Limit == 0 {
		cfg.Scrape.Limit = 10
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 400 * time.Millisecond
	}
}
