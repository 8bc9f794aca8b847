package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dhabedank/stageprompt/internal/retry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RunState is the lifecycle state of a Service run.
type RunState int

const (
	StateIdle RunState = iota
	StateAnalyzing
	StateGenerating
	StateFormatting
	StateDone
	StateFailed
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAnalyzing:
		return "analyzing"
	case StateGenerating:
		return "generating"
	case StateFormatting:
		return "formatting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Progress percentages for the fixed phases of a run.
const (
	progressAnalyzeStart = 10
	progressAnalyzeEnd   = 30
	progressStagesEnd    = 90
	progressDone         = 100
)

// ServiceConfig controls pacing and per-stage overrides.
type ServiceConfig struct {
	// InterStageDelay is waited before every stage after the first one of a run.
	InterStageDelay time.Duration

	// RateLimitBackoff is waited before retrying a rate-limited stage once.
	RateLimitBackoff time.Duration

	// PromptCounts overrides the prompt count per stage order (1..5).
	PromptCounts map[int]int
}

// DefaultServiceConfig returns the pacing used by the CLI.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		InterStageDelay:  2 * time.Second,
		RateLimitBackoff: 5 * time.Second,
	}
}

// RunRequest starts or resumes a five-stage run for one project.
type RunRequest struct {
	// ProjectID identifies the project. A new ID is assigned when empty.
	ProjectID string

	// Document is persisted before generation. When its Content is empty the
	// stored document of ProjectID is used instead.
	Document Document

	// FromStage resumes at a later stage (1..5). Zero means stage 1.
	FromStage int

	// Progress receives (label, percent) updates. May be nil.
	Progress ProgressFunc
}

// StageOutcome summarizes one accepted and persisted stage.
type StageOutcome struct {
	Stage       int                `json:"stage"`
	Title       string             `json:"title"`
	Version     int                `json:"version"`
	Attempts    int                `json:"attempts"`
	Prompts     int                `json:"prompts"`
	Warnings    []string           `json:"warnings,omitempty"`
	Suggestions string             `json:"suggestions,omitempty"`
	Applied     []AppliedTransform `json:"applied,omitempty"`
	Duration    time.Duration      `json:"duration"`
}

// RunResult is returned by a completed run.
type RunResult struct {
	RunID     string         `json:"run_id"`
	ProjectID string         `json:"project_id"`
	Stages    []StageOutcome `json:"stages"`
	Records   []PromptRecord `json:"records"` // All stored records of the project
}

// Service orchestrates the five stages for a project: it persists the
// document, generates each stage in order, and saves every accepted stage
// through the versioned prompt store.
type Service struct {
	catalog   *Catalog
	generator StageGenerator
	prompts   PromptStore
	documents DocumentStore
	config    ServiceConfig
	logger    *zap.Logger

	// sleep waits for d or until ctx is done. Replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error

	mu    sync.Mutex
	state RunState
	stage int
}

// NewService creates a service. A nil logger is replaced by a no-op logger.
func NewService(generator StageGenerator, prompts PromptStore, documents DocumentStore, config ServiceConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		catalog:   DefaultCatalog(),
		generator: generator,
		prompts:   prompts,
		documents: documents,
		config:    config,
		logger:    logger,
		sleep:     retry.Wait,
	}
}

// State returns the current run state and, while generating, the stage order.
func (s *Service) State() (RunState, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.stage
}

func (s *Service) setState(state RunState, stage int) {
	s.mu.Lock()
	s.state, s.stage = state, stage
	s.mu.Unlock()
	s.logger.Debug("run state", zap.Stringer("state", state), zap.Int("stage", stage))
}

// Run executes the stages sequentially. It aborts on the first stage that
// cannot be recovered; stages accepted before that remain persisted.
func (s *Service) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	report := newProgressReporter(req.Progress)
	s.setState(StateAnalyzing, 0)
	report.emit("analyzing", progressAnalyzeStart)

	from := req.FromStage
	if from == 0 {
		from = 1
	}
	if from < 1 || from > StageCount {
		s.setState(StateFailed, 0)
		return nil, fmt.Errorf("from stage %d: %w", req.FromStage, ErrUnknownStage)
	}

	projectID := req.ProjectID
	if projectID == "" {
		projectID = uuid.NewString()
	}
	result := &RunResult{RunID: uuid.NewString(), ProjectID: projectID}
	logger := s.logger.With(zap.String("project", projectID), zap.String("run", result.RunID))

	content, err := s.prepareDocument(ctx, projectID, req.Document)
	if err != nil {
		s.setState(StateFailed, 0)
		return nil, err
	}

	hints, err := s.earlierStageHints(ctx, projectID, from)
	if err != nil {
		s.setState(StateFailed, 0)
		return nil, err
	}
	report.emit("analyzing", progressAnalyzeEnd)

	stages := s.catalog.Stages()[from-1:]
	// Stages report one point inside each end of their span.
	span := float64(progressStagesEnd-progressAnalyzeEnd) / float64(len(stages))

	for i, tmpl := range stages {
		if i > 0 && s.config.InterStageDelay > 0 {
			if err := s.sleep(ctx, s.config.InterStageDelay); err != nil {
				s.setState(StateFailed, tmpl.Order)
				return nil, fmt.Errorf("waiting before %s: %w", tmpl.Label(), err)
			}
		}

		s.setState(StateGenerating, tmpl.Order)
		report.emit(tmpl.Label(), progressAnalyzeEnd+int(span*float64(i))+1)
		logger.Info("generating stage", zap.Int("stage", tmpl.Order), zap.String("title", tmpl.Title))

		start := time.Now()
		opts := StageOptions{
			PromptCount:  s.config.PromptCounts[tmpl.Order],
			ContextHints: hints,
		}
		gen, err := s.generateStage(ctx, logger, tmpl, content, opts)
		if err != nil {
			s.setState(StateFailed, tmpl.Order)
			logger.Error("stage failed", zap.Int("stage", tmpl.Order), zap.Error(err))
			return nil, fmt.Errorf("stage %d (%s) failed: %w", tmpl.Order, tmpl.Title, err)
		}

		records, err := s.prompts.Save(ctx, projectID, tmpl.Order, gen.Prompts)
		if err != nil {
			s.setState(StateFailed, tmpl.Order)
			return nil, fmt.Errorf("saving stage %d: %w", tmpl.Order, err)
		}

		outcome := StageOutcome{
			Stage:       tmpl.Order,
			Title:       tmpl.Title,
			Attempts:    gen.Attempts,
			Prompts:     len(records),
			Warnings:    gen.Validation.Warnings,
			Suggestions: gen.Suggestions,
			Applied:     gen.Applied,
			Duration:    time.Since(start),
		}
		if len(records) > 0 {
			outcome.Version = records[0].Version
		}
		result.Stages = append(result.Stages, outcome)
		hints = append(hints, stageHints(tmpl, gen.Prompts)...)

		report.emit(tmpl.Label(), progressAnalyzeEnd+int(span*float64(i+1))-1)
		logger.Info("stage saved",
			zap.Int("stage", tmpl.Order),
			zap.Int("version", outcome.Version),
			zap.Int("prompts", outcome.Prompts),
			zap.Int("attempts", outcome.Attempts))
	}

	s.setState(StateFormatting, 0)
	report.emit("formatting", progressStagesEnd)
	records, err := s.prompts.GetAll(ctx, projectID)
	if err != nil {
		s.setState(StateFailed, 0)
		return nil, fmt.Errorf("loading stored prompts: %w", err)
	}
	result.Records = records

	s.setState(StateDone, 0)
	report.emit("done", progressDone)
	return result, nil
}

// generateStage calls the generator, retrying once after the backoff when
// the provider reports a rate limit.
func (s *Service) generateStage(ctx context.Context, logger *zap.Logger, tmpl StageTemplate, content string, opts StageOptions) (*GenerationResult, error) {
	gen, err := s.generator.GenerateStage(ctx, tmpl, content, opts)
	if err == nil || !IsRateLimited(err) {
		return gen, err
	}

	logger.Warn("stage rate limited, backing off",
		zap.Int("stage", tmpl.Order),
		zap.Duration("backoff", s.config.RateLimitBackoff))
	if err := s.sleep(ctx, s.config.RateLimitBackoff); err != nil {
		return nil, err
	}
	return s.generator.GenerateStage(ctx, tmpl, content, opts)
}

func (s *Service) prepareDocument(ctx context.Context, projectID string, doc Document) (string, error) {
	if doc.Content != "" {
		doc.ProjectID = projectID
		if doc.UploadedAt.IsZero() {
			doc.UploadedAt = time.Now()
		}
		if err := s.documents.SaveDocument(ctx, doc); err != nil {
			return "", fmt.Errorf("saving document: %w", err)
		}
		return doc.Content, nil
	}

	stored, err := s.documents.GetDocument(ctx, projectID)
	if err != nil {
		return "", fmt.Errorf("loading document: %w", err)
	}
	if stored == nil || stored.Content == "" {
		return "", fmt.Errorf("project %s: %w", projectID, ErrEmptyDocument)
	}
	return stored.Content, nil
}

// earlierStageHints rebuilds the context hints of stages before from when a
// run is resumed.
func (s *Service) earlierStageHints(ctx context.Context, projectID string, from int) ([]string, error) {
	if from <= 1 {
		return nil, nil
	}
	records, err := s.prompts.GetAll(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading earlier stages: %w", err)
	}

	var hints []string
	for _, r := range records {
		if r.Stage >= from {
			continue
		}
		tmpl, err := s.catalog.Stage(r.Stage)
		if err != nil {
			continue
		}
		hints = append(hints, stageHint(tmpl, r.Title))
	}
	return hints, nil
}

func stageHints(tmpl StageTemplate, prompts []CategorizedPrompt) []string {
	hints := make([]string, 0, len(prompts))
	for _, p := range prompts {
		hints = append(hints, stageHint(tmpl, p.Title))
	}
	return hints
}

func stageHint(tmpl StageTemplate, title string) string {
	return fmt.Sprintf("Already planned in %s: %s", tmpl.Label(), title)
}

// progressReporter forwards progress updates, dropping any that would not
// advance the percentage.
type progressReporter struct {
	fn   ProgressFunc
	last int
}

func newProgressReporter(fn ProgressFunc) *progressReporter {
	return &progressReporter{fn: fn, last: -1}
}

func (r *progressReporter) emit(stage string, percent int) {
	if r.fn == nil || percent <= r.last {
		return
	}
	r.last = percent
	r.fn(stage, percent)
}
