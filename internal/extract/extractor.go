// Package extract turns résumé files into plain text.
package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrUnsupportedFormat is returned for extensions with no extractor.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Extractor extracts plain text from résumé documents.
type Extractor struct {
	maxBytes int64
}

// NewExtractor returns an Extractor that refuses files larger than maxBytes (0 means no limit).
func NewExtractor(maxBytes int64) *Extractor {
	return &Extractor{maxBytes: maxBytes}
}

// Formats lists the extensions Extract understands.
func Formats() []string {
	return []string{".pdf", ".docx", ".xlsx", ".odt", ".rtf", ".txt", ".md"}
}

// Convert extracts path and returns the document as a single chunk.
func (e *Extractor) Convert(ctx context.Context, path string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text, err := e.Extract(path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return []string{text}, nil
}

// Extract reads the file at path and returns its text content.
func (e *Extractor) Extract(path string) (string, error) {
	if e.maxBytes > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return "", errors.Wrap(err, "stat document")
		}
		if info.Size() > e.maxBytes {
			return "", errors.Newf("document is %d bytes, limit is %d", info.Size(), e.maxBytes)
		}
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, "read document")
	}
	return e.ExtractBytes(content, strings.ToLower(filepath.Ext(path)))
}

// ExtractBytes extracts text from content based on ext, which includes the leading dot.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch ext {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".xlsx":
		return extractExcel(content)
	case ".odt", ".rtf":
		return extractWithCat(content, ext)
	case ".txt", ".md", "":
		return extractPlain(content)
	default:
		return "", errors.WithHintf(
			errors.Wrapf(ErrUnsupportedFormat, "extension %q", ext),
			"supported formats: %s", strings.Join(Formats(), ", "))
	}
}
