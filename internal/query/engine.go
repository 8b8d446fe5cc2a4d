// Package query answers questions over the semantic index with a generator.
package query

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/hyperjump/jobscout/internal/index"
	"github.com/hyperjump/jobscout/internal/llm"
	"github.com/hyperjump/jobscout/internal/models"
	"github.com/hyperjump/jobscout/pkg/utils"
)

//go:embed prompt.md
var promptTemplate string

// DefaultTopK is the number of postings retrieved per question.
const DefaultTopK = 2

const defaultMaxLogLen = 200

// Stage names the step a QueryFailure happened in.
type Stage string

const (
	StageRetrieval  Stage = "retrieval"
	StageGeneration Stage = "generation"
)

// QueryFailure wraps a retrieval or generation error.
type QueryFailure struct {
	Stage Stage
	Cause error
}

func (e *QueryFailure) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Cause)
}

func (e *QueryFailure) Unwrap() error { return e.Cause }

// Retriever finds the passages most relevant to a question.
type Retriever interface {
	Retrieve(ctx context.Context, text string, k int) ([]index.Passage, error)
}

// Engine builds the prompt from retrieved postings and the résumé and generates an answer.
type Engine struct {
	generator llm.Generator
	topK      int
	logger    *zap.Logger
	maxLogLen int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTopK sets how many postings are retrieved.
func WithTopK(k int) Option {
	return func(e *Engine) {
		if k > 0 {
			e.topK = k
		}
	}
}

// NewEngine returns an Engine generating with g.
func NewEngine(g llm.Generator, opts ...Option) *Engine {
	e := &Engine{generator: g, topK: DefaultTopK, logger: zap.NewNop(), maxLogLen: defaultMaxLogLen}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Answer retrieves postings for question, prompts the generator with them and the
// résumé, and returns the answer with the retrieved postings as sources. doc may be nil.
func (e *Engine) Answer(ctx context.Context, r Retriever, doc *models.ParsedDocument, question string) (*models.QueryResult, error) {
	question = strings.TrimSpace(question)
	passages, err := r.Retrieve(ctx, question, e.topK)
	if err != nil {
		return nil, &QueryFailure{Stage: StageRetrieval, Cause: err}
	}

	cv := ""
	if doc != nil {
		cv = doc.Text
	}
	prompt := BuildPrompt(passages, cv, question)
	e.logger.Debug("generate content request",
		zap.Int("passages", len(passages)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, e.maxLogLen)))

	answer, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, &QueryFailure{Stage: StageGeneration, Cause: err}
	}
	e.logger.Debug("generate content response",
		zap.Int("response_length", utf8.RuneCountInString(answer)),
		zap.String("response_preview", utils.TruncateForLog(answer, e.maxLogLen)))

	sources := make([]*models.Source, len(passages))
	for i, p := range passages {
		sources[i] = p.Source
	}
	return &models.QueryResult{
		Question:  question,
		Answer:    strings.TrimSpace(answer),
		Sources:   sources,
		Retrieved: len(passages),
	}, nil
}

// BuildPrompt fills the prompt template. Each passage is numbered so the model can cite it.
func BuildPrompt(passages []index.Passage, cv, question string) string {
	var b strings.Builder
	for i, p := range passages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s", i+1, strings.TrimSpace(p.Text))
	}
	context := b.String()
	if context == "" {
		context = "(no postings retrieved)"
	}
	return strings.NewReplacer(
		"{{CONTEXT}}", context,
		"{{CV}}", strings.TrimSpace(cv),
		"{{QUESTION}}", question,
	).Replace(promptTemplate)
}
