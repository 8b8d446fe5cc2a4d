package llm

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"

	"github.com/hyperjump/jobscout/internal/config"
)

type fakeModels struct {
	resp   *genai.GenerateContentResponse
	err    error
	model  string
	prompt string
	config *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{nil, {Content: content}}}
}

func TestGeminiGenerator_GenerateContent(t *testing.T) {
	tests := []struct {
		name    string
		resp    *genai.GenerateContentResponse
		err     error
		want    string
		wantErr bool
	}{
		{name: "joins parts", resp: textResponse(" first ", "", "second"), want: "first\nsecond"},
		{name: "empty response", resp: textResponse("  "), wantErr: true},
		{name: "api error", err: errors.New("quota"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeModels{resp: tt.resp, err: tt.err}
			g := newGeminiGenerator(fake, "", nil)
			got, err := g.GenerateContent(context.Background(), "  prompt  ")
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if fake.model != defaultModel || fake.prompt != "prompt" || fake.config != nil {
				t.Errorf("request = %q %q %+v", fake.model, fake.prompt, fake.config)
			}
		})
	}
}

func TestGeminiGenerator_Temperature(t *testing.T) {
	tests := []struct {
		name string
		temp float32
	}{
		{"explicit", 0.2},
		{"deterministic zero", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeModels{resp: textResponse("ok")}
			g := newGeminiGenerator(fake, "gemini-2.5-pro", genai.Ptr(tt.temp))
			if _, err := g.GenerateContent(context.Background(), "p"); err != nil {
				t.Fatal(err)
			}
			if fake.config == nil || fake.config.Temperature == nil || *fake.config.Temperature != tt.temp {
				t.Errorf("config = %+v", fake.config)
			}
			if g.Model() != "gemini-2.5-pro" {
				t.Errorf("Model() = %q", g.Model())
			}
		})
	}
}

func TestGeminiGenerator_EmptyPrompt(t *testing.T) {
	fake := &fakeModels{resp: textResponse("ok")}
	if _, err := newGeminiGenerator(fake, "", nil).GenerateContent(context.Background(), " "); err == nil {
		t.Error("expected error for empty prompt")
	}
}

func TestNew(t *testing.T) {
	if _, err := New(context.Background(), config.LLMConfig{Provider: "gemini"}, nil); err == nil {
		t.Error("gemini without api key should fail")
	}
	if _, err := New(context.Background(), config.LLMConfig{Provider: "nope"}, nil); err == nil {
		t.Error("unknown provider should fail")
	}
	g, err := New(context.Background(), config.LLMConfig{Provider: "offline"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out, _ := g.GenerateContent(context.Background(), "q"); out != "NA" {
		t.Errorf("offline answer = %q", out)
	}
}
