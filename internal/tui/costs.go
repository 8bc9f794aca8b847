package tui

import (
	"fmt"

	"github.com/dhabedank/stageprompt/internal/core"
)

// ModelPricing contains pricing per 1M tokens for various models.
// Prices are in USD. Updated: 2026-01-30 from https://docs.anthropic.com/en/docs/about-claude/models
var ModelPricing = map[string]struct {
	InputPer1M  float64
	OutputPer1M float64
}{
	// Claude 4.5 models (latest)
	"claude-opus-4-5-20251101":   {InputPer1M: 5.0, OutputPer1M: 25.0},
	"claude-sonnet-4-5-20250929": {InputPer1M: 3.0, OutputPer1M: 15.0},
	"claude-haiku-4-5-20251001":  {InputPer1M: 1.0, OutputPer1M: 5.0},

	// Claude 4.x legacy models
	"claude-opus-4-1-20250805": {InputPer1M: 15.0, OutputPer1M: 75.0},
	"claude-sonnet-4-20250514": {InputPer1M: 3.0, OutputPer1M: 15.0},
	"claude-opus-4-20250514":   {InputPer1M: 15.0, OutputPer1M: 75.0},

	// Claude 3.x legacy models
	"claude-3-7-sonnet-20250219": {InputPer1M: 3.0, OutputPer1M: 15.0},
	"claude-3-haiku-20240307":    {InputPer1M: 0.25, OutputPer1M: 1.25},

	// OpenAI models
	"gpt-4o":      {InputPer1M: 2.5, OutputPer1M: 10.0},
	"gpt-4o-mini": {InputPer1M: 0.15, OutputPer1M: 0.60},
	"gpt-4-turbo": {InputPer1M: 10.0, OutputPer1M: 30.0},
	"o1":          {InputPer1M: 15.0, OutputPer1M: 60.0},
	"o1-mini":     {InputPer1M: 1.10, OutputPer1M: 4.40},
	"o3":          {InputPer1M: 10.0, OutputPer1M: 40.0},
	"o3-mini":     {InputPer1M: 1.10, OutputPer1M: 4.40},
	"codex":       {InputPer1M: 15.0, OutputPer1M: 60.0},

	// Gemini models
	"gemini-2.5-pro":   {InputPer1M: 1.25, OutputPer1M: 10.0},
	"gemini-2.5-flash": {InputPer1M: 0.30, OutputPer1M: 2.50},

	// Fallback for unknown models (use conservative estimate)
	"default": {InputPer1M: 5.0, OutputPer1M: 15.0},
}

// EstimateTokens estimates token count from character count.
// Uses the approximation that 1 token ≈ 4 characters.
func EstimateTokens(chars int) int {
	if chars <= 0 {
		return 0
	}
	return chars / 4
}

// EstimateCost calculates the estimated cost for a model given token counts.
// Returns cost in USD.
func EstimateCost(model string, inputTokens, outputTokens int) float64 {
	pricing, ok := ModelPricing[model]
	if !ok {
		pricing = ModelPricing["default"]
	}

	inputCost := float64(inputTokens) * pricing.InputPer1M / 1_000_000
	outputCost := float64(outputTokens) * pricing.OutputPer1M / 1_000_000

	return inputCost + outputCost
}

// Rough sizes used to estimate a stage before it runs.
const (
	instructionChars      = 2400 // composed instructions around the section
	outputTokensPerPrompt = 350
)

// StageEstimate is the predicted token use and cost of one stage.
type StageEstimate struct {
	Stage        int
	Title        string
	Model        string
	InputTokens  int
	OutputTokens int
	Cost         float64
}

// EstimateStages predicts every stage of a run over document. modelFor
// returns the model used for a stage order; counts overrides the prompt
// count per stage.
func EstimateStages(stages []core.StageTemplate, document string, modelFor func(stage int) string, counts map[int]int) []StageEstimate {
	estimates := make([]StageEstimate, 0, len(stages))
	for _, tmpl := range stages {
		model := modelFor(tmpl.Order)
		if model == "" {
			model = "default"
		}
		prompts := tmpl.MaxPrompts
		if n := counts[tmpl.Order]; n > 0 {
			prompts = n
		}
		in := EstimateTokens(len(core.SectionFor(tmpl, document)) + instructionChars)
		out := prompts * outputTokensPerPrompt
		estimates = append(estimates, StageEstimate{
			Stage:        tmpl.Order,
			Title:        tmpl.Title,
			Model:        model,
			InputTokens:  in,
			OutputTokens: out,
			Cost:         EstimateCost(model, in, out),
		})
	}
	return estimates
}

// TotalCost sums the estimated cost of all stages.
func TotalCost(estimates []StageEstimate) float64 {
	var total float64
	for _, e := range estimates {
		total += e.Cost
	}
	return total
}

// FormatCost formats a cost in USD for display.
// Uses appropriate precision based on the magnitude.
func FormatCost(cost float64) string {
	if cost < 0.001 {
		return fmt.Sprintf("$%.4f", cost)
	}
	if cost < 0.01 {
		return fmt.Sprintf("$%.3f", cost)
	}
	if cost < 1.0 {
		return fmt.Sprintf("$%.2f", cost)
	}
	return fmt.Sprintf("$%.2f", cost)
}

// FormatTokens formats a token count for display.
// Uses k suffix for thousands.
func FormatTokens(tokens int) string {
	if tokens < 1000 {
		return fmt.Sprintf("%d", tokens)
	}
	if tokens < 10000 {
		return fmt.Sprintf("%.1fk", float64(tokens)/1000)
	}
	return fmt.Sprintf("%dk", tokens/1000)
}
