package llm

import (
	"context"
	"errors"
	"fmt"
	"os"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiAPIAdapter uses the Gemini API through the genai SDK.
type GeminiAPIAdapter struct {
	client      *genai.Client
	model       string
	maxTokens   int
	temperature float64
}

// geminiAPIKey returns the first Gemini key found in the environment.
func geminiAPIKey() string {
	for _, name := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// NewGeminiAPIAdapter creates a Gemini API adapter. baseURL overrides the
// API endpoint when non-empty.
func NewGeminiAPIAdapter(ctx context.Context, config Config, baseURL string) (*GeminiAPIAdapter, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = geminiAPIKey()
	}
	if apiKey == "" {
		return nil, &AuthError{Provider: ProviderGemini, Err: errors.New("GEMINI_API_KEY not set")}
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	model := config.Model
	if model == "" {
		model = defaultGeminiModel
	}
	maxTokens := config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 8192
	}

	return &GeminiAPIAdapter{
		client:      client,
		model:       model,
		maxTokens:   maxTokens,
		temperature: config.Temperature,
	}, nil
}

func (a *GeminiAPIAdapter) Name() string {
	return ProviderGemini
}

func (a *GeminiAPIAdapter) IsAvailable() bool {
	return geminiAPIKey() != ""
}

func (a *GeminiAPIAdapter) Generate(ctx context.Context, req Request) (string, error) {
	model := req.Model
	if model == "" {
		model = a.model
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = a.maxTokens
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = a.temperature
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(temperature)),
		MaxOutputTokens: int32(maxTokens),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := a.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", classifyStatus(ProviderGemini, apiErr.Code, err)
		}
		return "", classifyMessage(ProviderGemini, fmt.Errorf("GenAI generate failed: %w", err))
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("GenAI returned no text content")
	}
	return text, nil
}
