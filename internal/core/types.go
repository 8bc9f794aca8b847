package core

import (
	"fmt"
	"time"
)

// StageType selects the stage-specific guidance appended to instructions.
type StageType string

const (
	StageTypeOverview     StageType = "overview"
	StageTypeRequirements StageType = "requirements"
	StageTypeTimeline     StageType = "timeline"
	StageTypeBudget       StageType = "budget"
)

// StageCount is the fixed number of delivery stages.
const StageCount = 5

// StageTemplate defines one delivery stage. Templates are built once by
// DefaultCatalog and never mutated.
type StageTemplate struct {
	Type             StageType `json:"type" yaml:"type"`
	Title            string    `json:"title" yaml:"title"`
	PromptTemplate   string    `json:"prompt_template" yaml:"prompt_template"`     // Stage-level request text
	RelevantSections []string  `json:"relevant_sections" yaml:"relevant_sections"` // Lower-case heading fragments
	Order            int       `json:"order" yaml:"order"`                         // 1..5
	MaxPrompts       int       `json:"max_prompts" yaml:"max_prompts"`             // Expected prompt count
	Topic            string    `json:"topic,omitempty" yaml:"topic,omitempty"`     // Stage 2-5 focus description
}

// IsFoundation reports whether this is stage 1, which carries the
// brand-identity-first rules.
func (t StageTemplate) IsFoundation() bool {
	return t.Order == 1
}

// Label is the human readable stage identifier used in progress reports.
func (t StageTemplate) Label() string {
	return fmt.Sprintf("Stage %d: %s", t.Order, t.Title)
}

// Complexity is the heuristic complexity tier of a document section.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// ContentAnalysis is derived from a document section for one attempt.
type ContentAnalysis struct {
	KeyTopics            []string   `json:"key_topics"`   // Sorted, deduplicated
	Complexity           Complexity `json:"complexity"`   // low/medium/high
	SuggestedPromptCount int        `json:"suggested_prompt_count"`
	Dependencies         []string   `json:"dependencies"` // Ordering constraints found in the text
}

// GenerationRequest is built per attempt and handed to the provider.
type GenerationRequest struct {
	Stage           int      `json:"stage"`
	DocumentSection string   `json:"document_section"`
	Instructions    string   `json:"instructions"`
	ContextHints    []string `json:"context_hints,omitempty"`
	MaxPromptCount  int      `json:"max_prompt_count"`
}

// ParsedPrompt is one Prompt/Objective/Prompt/Outcome unit extracted from
// generated text.
type ParsedPrompt struct {
	Ordinal   int    `json:"ordinal"` // 1-based within the stage
	Title     string `json:"title"`
	Objective string `json:"objective"`
	Body      string `json:"prompt"`
	Outcome   string `json:"outcome"`
}

// WellFormed reports whether all four text fields are present.
func (p ParsedPrompt) WellFormed() bool {
	return p.Title != "" && p.Objective != "" && p.Body != "" && p.Outcome != ""
}

// ValidationResult is the outcome of validating generated text.
// Errors block acceptance; warnings never do.
type ValidationResult struct {
	IsValid     bool     `json:"is_valid"`
	Errors      []string `json:"errors,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
	PromptCount int      `json:"prompt_count"`
}

// Category is one of the five fixed prompt categories.
type Category string

const (
	CategoryCore           Category = "core"
	CategoryInfrastructure Category = "infrastructure"
	CategoryUX             Category = "ux"
	CategoryIntegration    Category = "integration"
	CategoryOptimization   Category = "optimization"
)

// Categories lists the categories in priority order.
var Categories = []Category{
	CategoryCore,
	CategoryInfrastructure,
	CategoryUX,
	CategoryIntegration,
	CategoryOptimization,
}

// Priority returns 1 (core) through 5 (optimization); unknown categories sort last.
func (c Category) Priority() int {
	for i, cat := range Categories {
		if cat == c {
			return i + 1
		}
	}
	return len(Categories) + 1
}

// CategorizedPrompt is a parsed prompt with its assigned category.
type CategorizedPrompt struct {
	ParsedPrompt
	Category Category `json:"category"`
}

// PromptRecord is the durable, versioned form of a categorized prompt.
// Only the versioned store creates these.
type PromptRecord struct {
	CategorizedPrompt
	ProjectID           string    `json:"project_id"`
	Stage               int       `json:"stage"`   // 1..5
	Version             int       `json:"version"` // >= 1, per (project, stage)
	PromptNumberInStage int       `json:"prompt_number_in_stage"`
	GlobalPromptNumber  int       `json:"global_prompt_number"`
	CreatedAt           time.Time `json:"created_at"`
}

// KnowledgeType classifies a user-supplied knowledge source.
type KnowledgeType string

const (
	KnowledgeDocument KnowledgeType = "document"
	KnowledgeRule     KnowledgeType = "rule"
	KnowledgeExample  KnowledgeType = "example"
)

// KnowledgeSource is background text, a rule list or an example used to
// bias generation or post-process output.
type KnowledgeSource struct {
	ID       string        `json:"id" yaml:"id"`
	Type     KnowledgeType `json:"type" yaml:"type"`
	Content  string        `json:"content" yaml:"content"`
	Priority int           `json:"priority" yaml:"priority"`
}

// RuleType classifies a configuration rule.
type RuleType string

const (
	RuleConstraint  RuleType = "constraint"
	RuleEnhancement RuleType = "enhancement"
	RuleRequirement RuleType = "requirement"
)

// ConfigurationRule is a structured rule with an optional condition and a
// mini-DSL action applied to draft content.
type ConfigurationRule struct {
	ID          string   `json:"id" yaml:"id"`
	Type        RuleType `json:"type" yaml:"type"`
	Description string   `json:"description" yaml:"description"`
	Condition   string   `json:"condition,omitempty" yaml:"condition,omitempty"`
	Action      string   `json:"action" yaml:"action"`
	Priority    int      `json:"priority" yaml:"priority"`
}

// Impact grades how much a transform changed the content.
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// AppliedTransform records one applied knowledge source or rule.
type AppliedTransform struct {
	ID        string  `json:"id"`
	Kind      string  `json:"kind"` // "knowledge" or "rule"
	Type      string  `json:"type"`
	Impact    Impact  `json:"impact"`
	Relevance float64 `json:"relevance,omitempty"`
}

// Document is the uploaded requirements document persisted before a run.
type Document struct {
	ProjectID   string    `json:"project_id"`
	Name        string    `json:"name"`
	Content     string    `json:"content"`
	ContentType string    `json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// GenerationResult bundles everything produced for an accepted stage.
type GenerationResult struct {
	Stage          int                 `json:"stage"`
	RawContent     string              `json:"raw_content"`
	Prompts        []CategorizedPrompt `json:"prompts"`
	Validation     ValidationResult    `json:"validation"`
	RequestedCount int                 `json:"requested_count"`
	ActualCount    int                 `json:"actual_count"`
	Attempts       int                 `json:"attempts"`
	Suggestions    string              `json:"suggestions,omitempty"`
	Applied        []AppliedTransform  `json:"applied,omitempty"`
}

// StageOptions carries per-run settings from the service to the generator.
type StageOptions struct {
	// PromptCount overrides the template's MaxPrompts when > 0 (clamped to 1..20).
	PromptCount int

	// ContextHints are extra lines placed before the document section,
	// typically the accepted titles of earlier stages.
	ContextHints []string
}

// Prompt count bounds for caller overrides.
const (
	MinPromptCount = 1
	MaxPromptCount = 20
)

// ExpectedCount resolves the prompt count a stage must produce.
func ExpectedCount(tmpl StageTemplate, override int) int {
	n := tmpl.MaxPrompts
	if override > 0 {
		n = override
	}
	if n < MinPromptCount {
		n = MinPromptCount
	}
	if n > MaxPromptCount {
		n = MaxPromptCount
	}
	return n
}
