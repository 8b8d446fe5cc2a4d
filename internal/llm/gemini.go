package llm

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"google.golang.org/genai"
)

const defaultModel = "gemini-2.5-flash"

type contentModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator sends prompts to the Gemini API.
type GeminiGenerator struct {
	models      contentModels
	modelName   string
	temperature *float32
}

// NewGeminiGenerator creates a generator for the Gemini API backend. A nil temperature keeps the model default.
func NewGeminiGenerator(ctx context.Context, apiKey, model string, temperature *float32) (*GeminiGenerator, error) {
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
	return newGeminiGenerator(client.Models, model, temperature), nil
}

func newGeminiGenerator(m contentModels, model string, temperature *float32) *GeminiGenerator {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	g := &GeminiGenerator{models: m, modelName: model}
	if temperature != nil {
		g.temperature = genai.Ptr(*temperature)
	}
	return g
}

// GenerateContent returns the text parts of the response, one per line.
func (g *GeminiGenerator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}
	var cfg *genai.GenerateContentConfig
	if g.temperature != nil {
		cfg = &genai.GenerateContentConfig{Temperature: g.temperature}
	}
	resp, err := g.models.GenerateContent(ctx, g.modelName, genai.Text(prompt), cfg)
	if err != nil {
		return "", errors.Wrap(err, "generate content")
	}

	var parts []string
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			if text := strings.TrimSpace(part.Text); text != "" {
				parts = append(parts, text)
			}
		}
	}
	if len(parts) == 0 {
		return "", errors.New("gemini api returned empty response")
	}
	return strings.Join(parts, "\n"), nil
}

// Model returns the model name.
func (g *GeminiGenerator) Model() string { return g.modelName }
