// Package docparse turns an uploaded résumé into a models.ParsedDocument.
package docparse

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/hyperjump/jobscout/internal/models"
)

// Converter yields the text chunks of a document file.
type Converter interface {
	Convert(ctx context.Context, path string) ([]string, error)
}

// ParseError reports a document that could not be turned into text.
type ParseError struct {
	Path  string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", filepath.Base(e.Path), e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// ErrNoText is the cause when a converter returns no usable text.
var ErrNoText = errors.New("document contains no text")

// Adapter parses documents through a Converter.
type Adapter struct {
	converter Converter
	logger    *zap.Logger
}

// NewAdapter returns an Adapter over c.
func NewAdapter(c Converter, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{converter: c, logger: logger}
}

// Parse converts path and keeps the first chunk as the document text. Any failure
// is returned as *ParseError.
func (a *Adapter) Parse(ctx context.Context, path string) (*models.ParsedDocument, error) {
	chunks, err := a.converter.Convert(ctx, path)
	if err != nil {
		return nil, &ParseError{Path: path, Cause: err}
	}
	if len(chunks) == 0 || strings.TrimSpace(chunks[0]) == "" {
		return nil, &ParseError{Path: path, Cause: ErrNoText}
	}
	doc := &models.ParsedDocument{
		Path:   path,
		Format: strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		Text:   strings.TrimSpace(chunks[0]),
		Chunks: chunks,
	}
	a.logger.Debug("parsed document",
		zap.String("path", path),
		zap.String("format", doc.Format),
		zap.Int("chunks", len(chunks)),
		zap.Int("chars", len(doc.Text)))
	return doc, nil
}
