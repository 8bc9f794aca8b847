package llm

import (
	"context"
	"fmt"
	"os/exec"
)

// ModelInfo describes an available model.
type ModelInfo struct {
	ID          string // Model identifier (e.g., "claude-opus-4-5-20251101")
	Name        string // Human-readable name (e.g., "Claude Opus 4.5")
	Description string // Brief description
	Provider    string // Provider name (e.g., "anthropic", "openai", "google")
}

// claudeModels lists Claude models available via CLI or API.
var claudeModels = []ModelInfo{
	{ID: "claude-opus-4-5-20251101", Name: "Claude Opus 4.5", Description: "Premium model, maximum intelligence ($5/$25 per MTok)", Provider: "anthropic"},
	{ID: "claude-sonnet-4-5-20250929", Name: "Claude Sonnet 4.5", Description: "Best balance of speed and capability ($3/$15 per MTok)", Provider: "anthropic"},
	{ID: "claude-haiku-4-5-20251001", Name: "Claude Haiku 4.5", Description: "Fastest, most cost-effective ($1/$5 per MTok)", Provider: "anthropic"},
	{ID: "claude-sonnet-4-20250514", Name: "Claude Sonnet 4", Description: "Previous balanced model ($3/$15 per MTok)", Provider: "anthropic"},
}

// codexModels lists Codex/OpenAI models available via CLI.
var codexModels = []ModelInfo{
	{ID: "o3", Name: "O3", Description: "Most capable reasoning model", Provider: "openai"},
	{ID: "o3-mini", Name: "O3 Mini", Description: "Fast reasoning model", Provider: "openai"},
	{ID: "gpt-4o", Name: "GPT-4o", Description: "Fast multimodal model", Provider: "openai"},
	{ID: "gpt-4o-mini", Name: "GPT-4o Mini", Description: "Most cost-effective", Provider: "openai"},
}

// geminiModels lists Gemini models available via API key.
var geminiModels = []ModelInfo{
	{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro", Description: "Strongest Gemini reasoning ($1.25/$10 per MTok)", Provider: "google"},
	{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", Description: "Fast and inexpensive ($0.30/$2.50 per MTok)", Provider: "google"},
}

// AvailableModels returns models grouped by provider based on available
// CLIs and API keys.
func AvailableModels() map[string][]ModelInfo {
	result := make(map[string][]ModelInfo)

	if _, err := exec.LookPath("claude"); err == nil {
		result["anthropic"] = claudeModels
	} else if (&AnthropicAPIAdapter{}).IsAvailable() {
		result["anthropic"] = claudeModels
	}

	if _, err := exec.LookPath("codex"); err == nil {
		result["openai"] = codexModels
	}

	if geminiAPIKey() != "" {
		result["google"] = geminiModels
	}

	return result
}

// AllModels returns a flat list of all available models.
func AllModels() []ModelInfo {
	available := AvailableModels()
	var result []ModelInfo

	// Claude models first (preferred)
	for _, provider := range []string{"anthropic", "openai", "google"} {
		result = append(result, available[provider]...)
	}
	return result
}

// NewAdapter builds the adapter named by config.Provider, or detects the
// best available one when the provider is empty or "auto".
func NewAdapter(ctx context.Context, config Config) (Adapter, error) {
	switch config.Provider {
	case "", ProviderAuto:
		return DetectBestAdapter(ctx, config)
	case ProviderClaudeCLI:
		a := NewClaudeCLIAdapter(config)
		if !a.IsAvailable() {
			return nil, fmt.Errorf("claude CLI not found in PATH")
		}
		return a, nil
	case ProviderCodexCLI:
		a := NewCodexCLIAdapter(config)
		if !a.IsAvailable() {
			return nil, fmt.Errorf("codex CLI not found in PATH")
		}
		return a, nil
	case ProviderAnthropic:
		a, err := NewAnthropicAPIAdapter(config)
		if err != nil {
			return nil, err
		}
		return a, nil
	case ProviderGemini:
		a, err := NewGeminiAPIAdapter(ctx, config, "")
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want auto, %s, %s, %s or %s)",
			config.Provider, ProviderClaudeCLI, ProviderCodexCLI, ProviderAnthropic, ProviderGemini)
	}
}

// DetectBestAdapter finds the best available LLM adapter.
// Priority: Claude CLI > Codex CLI > Anthropic API > Gemini API
func DetectBestAdapter(ctx context.Context, config Config) (Adapter, error) {
	// Try Claude CLI first (preferred - already authenticated)
	if config.PreferCLI {
		claude := NewClaudeCLIAdapter(config)
		if claude.IsAvailable() {
			return claude, nil
		}

		codex := NewCodexCLIAdapter(config)
		if codex.IsAvailable() {
			return codex, nil
		}
	}

	if anthropic, err := NewAnthropicAPIAdapter(config); err == nil {
		return anthropic, nil
	}

	if geminiAPIKey() != "" || config.APIKey != "" {
		if gemini, err := NewGeminiAPIAdapter(ctx, config, ""); err == nil {
			return gemini, nil
		}
	}

	return nil, &AuthError{
		Provider: ProviderAuto,
		Err:      fmt.Errorf("no LLM adapter available - install Claude Code, Codex, or set ANTHROPIC_API_KEY or GEMINI_API_KEY"),
	}
}

// ListAvailableAdapters returns all adapters that could be used.
func ListAvailableAdapters(config Config) []string {
	available := []string{}

	if NewClaudeCLIAdapter(config).IsAvailable() {
		available = append(available, ProviderClaudeCLI)
	}
	if NewCodexCLIAdapter(config).IsAvailable() {
		available = append(available, ProviderCodexCLI)
	}
	if (&AnthropicAPIAdapter{}).IsAvailable() {
		available = append(available, ProviderAnthropic)
	}
	if geminiAPIKey() != "" {
		available = append(available, ProviderGemini)
	}
	return available
}
