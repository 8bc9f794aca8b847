package core

import "fmt"

// Stage 1: Core Features. The first prompt establishes the product itself.
const coreFeaturesTemplate = `Produce the CORE FEATURES development prompts for this project.

Start from the product's identity: who it is for, what it is called, what it
looks and sounds like, and why it exists. Then cover the core features one at a
time, in the order a developer would build them.`

// Stage 2: User Interface.
const userInterfaceTemplate = `Produce the USER INTERFACE development prompts for this project.

Cover screens, navigation, layout, component structure, accessibility and the
interaction flow between screens. Reuse the brand identity established in the
core features stage.`

// Stage 3: Data Management.
const dataManagementTemplate = `Produce the DATA MANAGEMENT development prompts for this project.

Cover the data model, persistence, validation, state management and how data
moves between the interface and storage.`

// Stage 4: Performance.
const performanceTemplate = `Produce the PERFORMANCE development prompts for this project.

Cover load time, caching, query efficiency, resource usage and the
infrastructure needed to keep the product fast as it grows.`

// Stage 5: Testing.
const testingTemplate = `Produce the TESTING development prompts for this project.

Cover unit, integration and end-to-end tests, test data, continuous
integration and the release checklist, in the order they should be done.`

// defaultTemplates is the fixed stage registry, ordered 1..5.
var defaultTemplates = [StageCount]StageTemplate{
	{
		Type:             StageTypeOverview,
		Title:            "Core Features",
		PromptTemplate:   coreFeaturesTemplate,
		RelevantSections: []string{"overview", "introduction", "summary", "purpose", "goal", "feature", "scope", "brand"},
		Order:            1,
		MaxPrompts:       5,
	},
	{
		Type:             StageTypeRequirements,
		Title:            "User Interface",
		PromptTemplate:   userInterfaceTemplate,
		RelevantSections: []string{"user interface", "ui", "ux", "design", "screen", "user experience", "brand"},
		Order:            2,
		MaxPrompts:       5,
		Topic:            "user interface: screens, navigation, layout, components and accessibility",
	},
	{
		Type:             StageTypeRequirements,
		Title:            "Data Management",
		PromptTemplate:   dataManagementTemplate,
		RelevantSections: []string{"data", "model", "database", "storage", "schema", "api", "integration"},
		Order:            3,
		MaxPrompts:       5,
		Topic:            "data management: data model, persistence, validation and state",
	},
	{
		Type:             StageTypeBudget,
		Title:            "Performance",
		PromptTemplate:   performanceTemplate,
		RelevantSections: []string{"performance", "scalability", "infrastructure", "deployment", "budget", "non-functional"},
		Order:            4,
		MaxPrompts:       4,
		Topic:            "performance: load time, caching, query efficiency and scaling",
	},
	{
		Type:             StageTypeTimeline,
		Title:            "Testing",
		PromptTemplate:   testingTemplate,
		RelevantSections: []string{"testing", "quality", "acceptance", "timeline", "milestone", "release"},
		Order:            5,
		MaxPrompts:       4,
		Topic:            "testing: unit, integration and end-to-end tests, CI and release",
	},
}

// Catalog is the read-only registry of stage templates.
type Catalog struct {
	templates [StageCount]StageTemplate
}

// DefaultCatalog returns the five built-in stages.
func DefaultCatalog() *Catalog {
	return &Catalog{templates: defaultTemplates}
}

// Stages returns copies of all templates ordered 1..5.
func (c *Catalog) Stages() []StageTemplate {
	out := make([]StageTemplate, 0, StageCount)
	for _, t := range c.templates {
		out = append(out, cloneTemplate(t))
	}
	return out
}

// Stage returns a copy of the template for stage n.
func (c *Catalog) Stage(n int) (StageTemplate, error) {
	if n < 1 || n > StageCount {
		return StageTemplate{}, fmt.Errorf("%w: %d", ErrUnknownStage, n)
	}
	return cloneTemplate(c.templates[n-1]), nil
}

func cloneTemplate(t StageTemplate) StageTemplate {
	t.RelevantSections = append([]string(nil), t.RelevantSections...)
	return t
}
