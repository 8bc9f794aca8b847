package llm

import (
	"context"
	"time"

	"github.com/dhabedank/stageprompt/internal/retry"
)

// Request is one text generation call.
type Request struct {
	// System is the system prompt (optional).
	System string

	// Prompt is the user prompt.
	Prompt string

	// Model overrides the adapter's default model when set.
	Model string

	// MaxTokens limits response length. Zero uses the adapter default.
	MaxTokens int

	// Temperature is the sampling temperature.
	Temperature float64
}

// Adapter is the interface all LLM adapters must implement.
type Adapter interface {
	// Name returns the adapter identifier for logging.
	Name() string

	// IsAvailable checks if this adapter can be used (CLI installed, API key set, etc.)
	IsAvailable() bool

	// Generate sends the request and returns the raw response text.
	// Rate limits are reported as *RateLimitError, credential failures
	// as *AuthError.
	Generate(ctx context.Context, req Request) (string, error)
}

// Adapter names accepted by the provider setting.
const (
	ProviderAuto      = "auto"
	ProviderClaudeCLI = "claude-cli"
	ProviderCodexCLI  = "codex-cli"
	ProviderAnthropic = "anthropic-api"
	ProviderGemini    = "gemini-api"
)

// Config holds configuration for LLM adapters.
type Config struct {
	// Provider selects an adapter by name. Empty or "auto" detects one.
	Provider string `yaml:"provider"`

	// PreferCLI prefers CLI tools (claude, codex) over API when available.
	PreferCLI bool `yaml:"prefer_cli"`

	// Model specifies which model to use (optional, adapter chooses default).
	Model string `yaml:"model"`

	// StageModels overrides Model per stage order (1..5).
	StageModels map[int]string `yaml:"stage_models"`

	// SuggestionModel is used for the follow-up improvement request.
	// Falls back to the stage model.
	SuggestionModel string `yaml:"suggestion_model"`

	// APIKey for direct API access (optional if CLI is used).
	APIKey string `yaml:"-"`

	// MaxTokens limits response length.
	MaxTokens int `yaml:"max_tokens"`

	// Temperature is passed to adapters that support it.
	Temperature float64 `yaml:"temperature"`

	// MaxAttempts bounds generation attempts per stage.
	MaxAttempts int `yaml:"max_attempts"`

	// RateLimitBackoff is waited before re-sending a rate-limited request.
	RateLimitBackoff time.Duration `yaml:"rate_limit_backoff"`

	// Suggestions enables the follow-up improvement request per stage.
	Suggestions bool `yaml:"suggestions"`
}

// ModelForStage returns the model to use for a given stage order.
// Falls back to the default Model if no stage-specific model is set.
func (c Config) ModelForStage(stage int) string {
	if m := c.StageModels[stage]; m != "" {
		return m
	}
	return c.Model
}

// ModelForSuggestions returns the model for the follow-up request of a stage.
func (c Config) ModelForSuggestions(stage int) string {
	if c.SuggestionModel != "" {
		return c.SuggestionModel
	}
	return c.ModelForStage(stage)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:         ProviderAuto,
		PreferCLI:        true, // Use CLI tools when available (already authenticated)
		MaxTokens:        8192,
		Temperature:      0.7,
		MaxAttempts:      retry.DefaultMaxAttempts,
		RateLimitBackoff: 5 * time.Second,
		Suggestions:      true,
	}
}
