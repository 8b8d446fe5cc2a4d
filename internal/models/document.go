package models

// ParsedDocument is the text extracted from an uploaded file. Text is the first chunk.
type ParsedDocument struct {
	Path   string   `json:"path"`
	Format string   `json:"format"`
	Text   string   `json:"text"`
	Chunks []string `json:"chunks,omitempty"`
}
