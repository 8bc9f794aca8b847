package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dhabedank/stageprompt/internal/core"
	"github.com/dhabedank/stageprompt/internal/retry"
)

// stageSystemPrompt is sent with every stage request.
const stageSystemPrompt = `You are a senior technical lead turning a product requirements document into development prompts.

You write prompts that a developer (or coding assistant) can execute one at a time, in order.
You follow the output format exactly. You never add commentary outside the prompts.`

// genState is the state of one stage generation.
type genState int

const (
	stateComposing genState = iota
	stateRequesting
	stateValidating
	stateAccepted
	stateRetrying
	stateFailed
)

func (s genState) String() string {
	switch s {
	case stateComposing:
		return "composing"
	case stateRequesting:
		return "requesting"
	case stateValidating:
		return "validating"
	case stateAccepted:
		return "accepted"
	case stateRetrying:
		return "retrying"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Attempt outcomes reported to the Recorder.
const (
	OutcomeAccepted = "accepted"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// Knowledge biases requests and transforms accepted output.
// *knowledge.Engine satisfies it.
type Knowledge interface {
	HintsFor(section string) []string
	Apply(content string) (string, []core.AppliedTransform)
}

// Recorder receives generation metrics. *metrics.Collector satisfies it.
type Recorder interface {
	ObserveAttempt(stage int, outcome string)
	ObserveProviderError(provider, kind string)
	ObserveStage(stage int, outcome string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAttempt(int, string)              {}
func (nopRecorder) ObserveProviderError(string, string)     {}
func (nopRecorder) ObserveStage(int, string, time.Duration) {}

// GeneratorOption configures a PromptGenerator.
type GeneratorOption func(*PromptGenerator)

// WithKnowledge sets the knowledge engine used for hints and output transforms.
func WithKnowledge(k Knowledge) GeneratorOption {
	return func(g *PromptGenerator) { g.knowledge = k }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) GeneratorOption {
	return func(g *PromptGenerator) { g.metrics = r }
}

// WithDebugDir sets where the last raw response of a failed stage is written.
func WithDebugDir(dir string) GeneratorOption {
	return func(g *PromptGenerator) { g.debugDir = dir }
}

// PromptGenerator implements core.StageGenerator on top of an Adapter.
type PromptGenerator struct {
	adapter   Adapter
	config    Config
	knowledge Knowledge
	metrics   Recorder
	logger    *zap.Logger
	debugDir  string
	sleep     func(ctx context.Context, d time.Duration) error
}

var _ core.StageGenerator = (*PromptGenerator)(nil)

// NewPromptGenerator creates a generator for the five delivery stages.
func NewPromptGenerator(adapter Adapter, config Config, logger *zap.Logger, opts ...GeneratorOption) *PromptGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = retry.DefaultMaxAttempts
	}
	g := &PromptGenerator{
		adapter:  adapter,
		config:   config,
		metrics:  nopRecorder{},
		logger:   logger.Named("generator"),
		debugDir: os.TempDir(),
		sleep:    retry.Wait,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// draft is the raw text of one attempt and its validation.
type draft struct {
	raw        string
	validation core.ValidationResult
}

// rejectedDraft is returned by an attempt whose output failed validation.
type rejectedDraft struct {
	draft
	expected int
}

func (e *rejectedDraft) Error() string {
	if len(e.validation.Errors) > 0 {
		return "invalid output: " + strings.Join(e.validation.Errors, "; ")
	}
	return fmt.Sprintf("invalid output: expected %d but found %d prompts", e.expected, e.validation.PromptCount)
}

// GenerateStage produces exactly the expected number of prompts for a stage,
// retrying invalid output up to the configured attempt budget.
func (g *PromptGenerator) GenerateStage(ctx context.Context, tmpl core.StageTemplate, document string, opts core.StageOptions) (*core.GenerationResult, error) {
	start := time.Now()
	expected := core.ExpectedCount(tmpl, opts.PromptCount)
	logger := g.logger.With(
		zap.Int("stage", tmpl.Order),
		zap.Int("expected", expected),
		zap.String("adapter", g.adapter.Name()),
	)

	section := core.SectionFor(tmpl, document)
	hints := append([]string(nil), opts.ContextHints...)
	if g.knowledge != nil {
		hints = append(hints, g.knowledge.HintsFor(section)...)
	}
	model := g.config.ModelForStage(tmpl.Order)

	res := retry.Attempt(ctx, g.config.MaxAttempts, func(ctx context.Context, attempt int) (draft, error) {
		return g.attempt(ctx, logger.With(zap.Int("attempt", attempt)), attempt, tmpl, section, hints, expected, model)
	}, g.shouldRetry)

	if !res.Succeeded() {
		g.transition(logger, stateFailed, zap.Int("attempts", res.Attempts), zap.Error(res.Err))
		g.metrics.ObserveStage(tmpl.Order, OutcomeError, time.Since(start))

		var rejected *rejectedDraft
		if errors.As(res.Err, &rejected) {
			g.writeDebug(logger, tmpl.Order, rejected.raw)
			return nil, &core.StageError{
				Stage:    tmpl.Order,
				Expected: expected,
				Actual:   rejected.validation.PromptCount,
				Attempts: res.Attempts,
				Errors:   rejected.validation.Errors,
			}
		}
		return nil, fmt.Errorf("generation failed after %d attempt(s): %w", res.Attempts, res.Err)
	}

	content := res.Value.raw
	validation := res.Value.validation
	var applied []core.AppliedTransform
	if g.knowledge != nil {
		content, validation, applied = g.transform(logger, tmpl.Order, expected, content, validation)
	}

	prompts := core.Categorize(content)
	result := &core.GenerationResult{
		Stage:          tmpl.Order,
		RawContent:     content,
		Prompts:        prompts,
		Validation:     validation,
		RequestedCount: expected,
		ActualCount:    len(prompts),
		Attempts:       res.Attempts,
		Applied:        applied,
	}
	if g.config.Suggestions {
		result.Suggestions = g.suggest(ctx, logger, tmpl, prompts)
	}

	g.metrics.ObserveStage(tmpl.Order, OutcomeAccepted, time.Since(start))
	logger.Info("stage accepted",
		zap.Int("attempts", res.Attempts),
		zap.Int("prompts", len(prompts)),
		zap.Int("warnings", len(validation.Warnings)),
		zap.Int("applied", len(applied)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// attempt runs one compose, request and validate cycle.
func (g *PromptGenerator) attempt(ctx context.Context, logger *zap.Logger, n int, tmpl core.StageTemplate, section string, hints []string, expected int, model string) (draft, error) {
	g.transition(logger, stateComposing)
	analysis := core.AnalyzeContent(section, expected)
	req := core.GenerationRequest{
		Stage:           tmpl.Order,
		DocumentSection: section,
		Instructions:    core.ComposeInstructions(tmpl, analysis, expected),
		ContextHints:    hints,
		MaxPromptCount:  expected,
	}

	g.transition(logger, stateRequesting, zap.String("model", model), zap.String("complexity", string(analysis.Complexity)))
	raw, err := g.adapter.Generate(ctx, Request{
		System:      stageSystemPrompt,
		Prompt:      core.BuildPromptText(req),
		Model:       model,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		g.metrics.ObserveAttempt(tmpl.Order, OutcomeError)
		g.recordProviderError(err)
		if !g.shouldRetry(err) {
			return draft{}, err
		}
		g.transition(logger, stateRetrying, zap.Error(err))
		if IsRateLimit(err) && n < g.config.MaxAttempts {
			logger.Warn("rate limited, backing off", zap.Duration("backoff", g.config.RateLimitBackoff))
			if werr := g.sleep(ctx, g.config.RateLimitBackoff); werr != nil {
				return draft{}, werr
			}
		}
		return draft{}, err
	}

	g.transition(logger, stateValidating)
	d := draft{raw: raw, validation: core.ValidateOutput(raw, tmpl.Order, expected)}
	if !d.validation.IsValid || d.validation.PromptCount != expected {
		g.metrics.ObserveAttempt(tmpl.Order, OutcomeInvalid)
		g.transition(logger, stateRetrying,
			zap.Int("found", d.validation.PromptCount),
			zap.Strings("errors", d.validation.Errors),
		)
		return d, &rejectedDraft{draft: d, expected: expected}
	}

	g.metrics.ObserveAttempt(tmpl.Order, OutcomeAccepted)
	g.transition(logger, stateAccepted)
	return d, nil
}

// shouldRetry decides whether another attempt is worth making. Invalid
// output, rate limits and transient provider failures are retried.
// Credentials and cancellation are not.
func (g *PromptGenerator) shouldRetry(err error) bool {
	var rejected *rejectedDraft
	switch {
	case errors.As(err, &rejected), IsRateLimit(err):
		return true
	case IsAuth(err):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	default:
		return retry.IsRetryable(err)
	}
}

// transform applies knowledge and rules to accepted output. A transform that
// breaks the output grammar is discarded.
func (g *PromptGenerator) transform(logger *zap.Logger, stage, expected int, content string, validation core.ValidationResult) (string, core.ValidationResult, []core.AppliedTransform) {
	transformed, applied := g.knowledge.Apply(content)
	if len(applied) == 0 {
		return content, validation, nil
	}
	revalidated := core.ValidateOutput(transformed, stage, expected)
	if !revalidated.IsValid || revalidated.PromptCount != expected {
		logger.Warn("discarding knowledge transform that broke the output format",
			zap.Strings("errors", revalidated.Errors))
		return content, validation, nil
	}
	for _, a := range applied {
		logger.Debug("applied transform",
			zap.String("id", a.ID),
			zap.String("kind", a.Kind),
			zap.String("impact", string(a.Impact)),
		)
	}
	return transformed, revalidated, applied
}

// suggest asks for improvement ideas on an accepted stage. Failures are
// logged and never fail the stage.
func (g *PromptGenerator) suggest(ctx context.Context, logger *zap.Logger, tmpl core.StageTemplate, prompts []core.CategorizedPrompt) string {
	out, err := g.adapter.Generate(ctx, Request{
		Prompt:      core.BuildSuggestionsPrompt(tmpl, prompts),
		Model:       g.config.ModelForSuggestions(tmpl.Order),
		MaxTokens:   1024,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		g.recordProviderError(err)
		logger.Warn("suggestions unavailable", zap.Error(err))
		return ""
	}
	return strings.TrimSpace(out)
}

func (g *PromptGenerator) recordProviderError(err error) {
	kind := "other"
	switch {
	case IsRateLimit(err):
		kind = "rate_limit"
	case IsAuth(err):
		kind = "auth"
	}
	g.metrics.ObserveProviderError(g.adapter.Name(), kind)
}

func (g *PromptGenerator) transition(logger *zap.Logger, s genState, fields ...zap.Field) {
	logger.Debug("generation state", append([]zap.Field{zap.Stringer("state", s)}, fields...)...)
}

// writeDebug saves the last rejected response for inspection.
func (g *PromptGenerator) writeDebug(logger *zap.Logger, stage int, raw string) {
	if raw == "" || g.debugDir == "" {
		return
	}
	path := filepath.Join(g.debugDir, fmt.Sprintf("stageprompt-stage%d-debug.txt", stage))
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		logger.Warn("could not write debug output", zap.Error(err))
		return
	}
	logger.Info("wrote rejected output", zap.String("path", path))
}
