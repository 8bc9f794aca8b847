package core

import (
	"context"
	"errors"
)

// The interfaces below are implemented by internal/llm and internal/store.
// They are defined here to avoid import cycles.

// StageGenerator produces one accepted stage of prompts.
type StageGenerator interface {
	GenerateStage(ctx context.Context, tmpl StageTemplate, document string, opts StageOptions) (*GenerationResult, error)
}

// PromptStore persists versioned prompt sets per (project, stage).
type PromptStore interface {
	Save(ctx context.Context, projectID string, stage int, prompts []CategorizedPrompt) ([]PromptRecord, error)
	GetAll(ctx context.Context, projectID string) ([]PromptRecord, error)
	Clear(ctx context.Context, projectID string) error
}

// RecordStore is the raw record persistence underneath a PromptStore.
// Replacing a stage discards its previous contents.
type RecordStore interface {
	ReplaceStagePrompts(ctx context.Context, projectID string, stage int, records []PromptRecord) error
	ReadStagePrompts(ctx context.Context, projectID string, stage int) ([]PromptRecord, error)
	ClearProject(ctx context.Context, projectID string) error
}

// DocumentStore persists the source document of a project.
type DocumentStore interface {
	SaveDocument(ctx context.Context, doc Document) error
	// GetDocument returns nil, nil when the project has no document.
	GetDocument(ctx context.Context, projectID string) (*Document, error)
}

// ProgressFunc receives a stage label and a completion percentage (0-100).
type ProgressFunc func(stage string, percent int)

// RateLimited is implemented by provider errors that signal rate limiting.
type RateLimited interface {
	RateLimited() bool
}

// IsRateLimited reports whether err (or anything it wraps) is a rate-limit
// signal from the generation provider.
func IsRateLimited(err error) bool {
	var rl RateLimited
	return errors.As(err, &rl) && rl.RateLimited()
}
