package embedding

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"google.golang.org/genai"

	"github.com/hyperjump/jobscout/internal/vector"
)

const (
	defaultGeminiEmbeddingModel = "text-embedding-004"
	// geminiBatchLimit is the most contents one EmbedContent call accepts.
	geminiBatchLimit = 100

	taskQuery    = "RETRIEVAL_QUERY"
	taskDocument = "RETRIEVAL_DOCUMENT"
)

type embedModels interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// GeminiEmbedder embeds text through the Gemini API. Returned vectors are unit length.
type GeminiEmbedder struct {
	models     embedModels
	model      string
	dimensions int
}

// NewGeminiEmbedder creates an embedder for the Gemini API backend.
func NewGeminiEmbedder(ctx context.Context, apiKey, model string, dimensions int) (*GeminiEmbedder, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.WithHint(errors.New("gemini api key is required"), "set llm.api_key or GEMINI_API_KEY")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create genai client")
	}
	return newGeminiEmbedder(client.Models, model, dimensions), nil
}

func newGeminiEmbedder(m embedModels, model string, dimensions int) *GeminiEmbedder {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultGeminiEmbeddingModel
	}
	if dimensions <= 0 {
		dimensions = 768
	}
	return &GeminiEmbedder{models: m, model: model, dimensions: dimensions}
}

// Embed embeds a retrieval query.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.embed(ctx, []string{text}, taskQuery)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds documents, splitting into API-sized requests.
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += geminiBatchLimit {
		end := min(start+geminiBatchLimit, len(texts))
		vecs, err := e.embed(ctx, texts[start:end], taskDocument)
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (e *GeminiEmbedder) embed(ctx context.Context, texts []string, task string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{Text: t}}}
	}
	dim := int32(e.dimensions)
	resp, err := e.models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType:             task,
		OutputDimensionality: &dim,
	})
	if err != nil {
		return nil, errors.Wrap(err, "embed content")
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, errors.Newf("gemini returned %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}
	out := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, errors.Newf("gemini returned an empty embedding at %d", i)
		}
		vec := make([]float32, len(emb.Values))
		copy(vec, emb.Values)
		// reduced output dimensionality comes back unnormalized
		vector.Normalize(vec)
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the requested output dimensionality.
func (e *GeminiEmbedder) Dimensions() int { return e.dimensions }

// Close is a no-op; the genai client holds no resources that need releasing.
func (e *GeminiEmbedder) Close() error { return nil }
