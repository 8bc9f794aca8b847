package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-sonnet-4-5-20250929"

// AnthropicAPIAdapter uses the Anthropic API directly.
// Fallback when Claude CLI is not available.
type AnthropicAPIAdapter struct {
	client      anthropic.Client
	model       string
	maxTokens   int
	temperature float64
}

// NewAnthropicAPIAdapter creates an Anthropic API adapter. Extra request
// options are appended to the client options. The SDK's own retries are
// disabled; rate limits surface as *RateLimitError.
func NewAnthropicAPIAdapter(config Config, opts ...option.RequestOption) (*AnthropicAPIAdapter, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, &AuthError{Provider: ProviderAnthropic, Err: errors.New("ANTHROPIC_API_KEY not set")}
	}

	clientOpts := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	client := anthropic.NewClient(clientOpts...)

	model := config.Model
	if model == "" {
		model = defaultAnthropicModel
	}

	maxTokens := config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 8192
	}

	return &AnthropicAPIAdapter{
		client:      client,
		model:       model,
		maxTokens:   maxTokens,
		temperature: config.Temperature,
	}, nil
}

func (a *AnthropicAPIAdapter) Name() string {
	return ProviderAnthropic
}

func (a *AnthropicAPIAdapter) IsAvailable() bool {
	return os.Getenv("ANTHROPIC_API_KEY") != ""
}

func (a *AnthropicAPIAdapter) Generate(ctx context.Context, req Request) (string, error) {
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

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		Temperature: anthropic.Float(temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", classifyStatus(ProviderAnthropic, apiErr.StatusCode, err)
		}
		return "", classifyMessage(ProviderAnthropic, fmt.Errorf("anthropic API error: %w", err))
	}

	// Extract text from response
	var output strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			output.WriteString(block.Text)
		}
	}
	if output.Len() == 0 {
		return "", fmt.Errorf("anthropic API returned no text content")
	}
	return output.String(), nil
}
