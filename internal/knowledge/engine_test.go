package knowledge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhabedank/stageprompt/internal/core"
)

func TestRelevance(t *testing.T) {
	tests := []struct {
		name   string
		source string
		draft  string
		want   float64
	}{
		{"empty source", "", "anything", 0},
		{"only stop words", "the and for", "the and for", 0},
		{"identical", "Postgres storage layer", "postgres STORAGE layer", 1},
		{"half", "postgres redis", "use postgres", 0.5},
		{"short tokens ignored", "db is ok postgres", "postgres", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Relevance(tt.source, tt.draft), 1e-9)
		})
	}
}

func TestImpactOf(t *testing.T) {
	assert.Equal(t, core.ImpactLow, ImpactOf("Use React for the frontend", "Use Vue for the frontend"))
	assert.Equal(t, core.ImpactMedium, ImpactOf("0123456789", "0123456789AB"))
	assert.Equal(t, core.ImpactHigh, ImpactOf("0123456789", "0123456789ABC"))
	assert.Equal(t, core.ImpactHigh, ImpactOf("", "x"))
	assert.Equal(t, core.ImpactLow, ImpactOf("", ""))
}

func TestEngineReplaceRule(t *testing.T) {
	e, err := NewEngine(nil, []core.ConfigurationRule{
		{ID: "vue", Type: core.RuleConstraint, Action: "replace: React -> Vue"},
	}, nil)
	require.NoError(t, err)

	out, applied := e.Apply("Use React for the frontend")
	assert.Equal(t, "Use Vue for the frontend", out)
	require.Len(t, applied, 1)
	assert.Equal(t, core.AppliedTransform{ID: "vue", Kind: KindRule, Type: "constraint", Impact: core.ImpactLow}, applied[0])
}

func TestEnginePassThrough(t *testing.T) {
	var nilEngine *Engine
	out, applied := nilEngine.Apply("text")
	assert.Equal(t, "text", out)
	assert.Nil(t, applied)

	e, err := NewEngine(nil, nil, nil)
	require.NoError(t, err)
	assert.True(t, e.Empty())
	out, applied = e.Apply("text")
	assert.Equal(t, "text", out)
	assert.Nil(t, applied)
	assert.Nil(t, e.HintsFor("text"))
}

const loginDraft = "Prompt 1: Login\nObjective: Build the login form for members.\nPrompt:\n- Create the login form\nOutcome: Members can log in.\n"

func TestEngineDocumentEnrichment(t *testing.T) {
	e, err := NewEngine([]core.KnowledgeSource{
		{ID: "auth", Type: core.KnowledgeDocument, Content: "Members log in with email. Passwords are hashed."},
	}, nil, nil)
	require.NoError(t, err)

	out, applied := e.Apply(loginDraft)
	assert.Equal(t, "Prompt 1: Login\nObjective: Build the login form for members.\nPrompt:\n- Create the login form\nAdditional Context:\n- Members log in with email.\nOutcome: Members can log in.\n", out)
	require.Len(t, applied, 1)
	assert.Equal(t, KindKnowledge, applied[0].Kind)
	assert.Equal(t, "document", applied[0].Type)
	assert.InDelta(t, 0.4, applied[0].Relevance, 1e-9)

	// The grammar survives enrichment.
	prompts := core.ParsePrompts(out)
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0].Body, "Members log in with email.")
	assert.Equal(t, "Members can log in.", prompts[0].Outcome)
}

func TestEnginePrependRuleReachesParsedPrompts(t *testing.T) {
	e, err := NewEngine(nil, []core.ConfigurationRule{
		{ID: "ts", Type: core.RuleEnhancement, Action: "prepend: Use TypeScript throughout."},
		{ID: "vue", Type: core.RuleConstraint, Action: "replace: React -> Vue"},
	}, nil)
	require.NoError(t, err)

	out, applied := e.Apply("Intro.\n" + loginDraft)
	require.Len(t, applied, 1)
	assert.Equal(t, "ts", applied[0].ID)
	assert.True(t, strings.HasPrefix(out, "Intro.\n"))

	prompts := core.ParsePrompts(out)
	require.Len(t, prompts, 1)
	assert.Equal(t, "Use TypeScript throughout.\n- Create the login form", prompts[0].Body)
	assert.Equal(t, "Members can log in.", prompts[0].Outcome)
}

func TestEngineSkipsIrrelevantSources(t *testing.T) {
	e, err := NewEngine([]core.KnowledgeSource{
		{ID: "office", Type: core.KnowledgeDocument, Content: "The office is in Berlin. Lunch is at noon."},
	}, nil, nil)
	require.NoError(t, err)

	out, applied := e.Apply(loginDraft)
	assert.Equal(t, loginDraft, out)
	assert.Empty(t, applied)
}

func TestEngineRuleSourceAnnotation(t *testing.T) {
	e, err := NewEngine([]core.KnowledgeSource{
		{ID: "db", Type: core.KnowledgeRule, Content: "- Postgres: version 16"},
	}, nil, nil)
	require.NoError(t, err)

	out, applied := e.Apply("Use Postgres for storage. Postgres backups run nightly.")
	assert.Equal(t, "Use Postgres (version 16) for storage. Postgres backups run nightly.", out)
	require.Len(t, applied, 1)

	// Already annotated content is left alone.
	again, applied := e.Apply(out)
	assert.Equal(t, out, again)
	assert.Empty(t, applied)
}

func TestEngineExampleSubstitution(t *testing.T) {
	e, err := NewEngine([]core.KnowledgeSource{
		{ID: "style", Type: core.KnowledgeExample, Content: "Tailwind CSS for the dark theme"},
	}, nil, nil)
	require.NoError(t, err)

	out, applied := e.Apply("Style the page with Tailwind and add a dark theme.")
	assert.Equal(t, "Style the page with Tailwind CSS and add a dark theme.", out)
	require.Len(t, applied, 1)
	assert.Equal(t, "example", applied[0].Type)
}

func TestExamplePatternsLimit(t *testing.T) {
	patterns := examplePatterns("alpha beta gamma delta epsilon zeta theta iota kappa")
	assert.Len(t, patterns, maxExamplePatterns)
	assert.Equal(t, bigram{"alpha", "beta"}, patterns[0])
}

func TestEngineRulesRunByPriority(t *testing.T) {
	e, err := NewEngine(nil, []core.ConfigurationRule{
		{ID: "to-beta", Type: core.RuleConstraint, Action: "replace: gamma -> beta", Priority: 1},
		{ID: "to-gamma", Type: core.RuleConstraint, Action: "replace: alpha -> gamma", Priority: 5},
	}, nil)
	require.NoError(t, err)

	out, applied := e.Apply("alpha")
	assert.Equal(t, "beta", out)
	require.Len(t, applied, 2)
	assert.Equal(t, "to-gamma", applied[0].ID)
	assert.Equal(t, "to-beta", applied[1].ID)
}

func TestEngineHintsFor(t *testing.T) {
	e, err := NewEngine([]core.KnowledgeSource{
		{ID: "auth", Type: core.KnowledgeDocument, Content: "Members log in with email. Passwords are hashed."},
		{ID: "office", Type: core.KnowledgeDocument, Content: "The office is in Berlin."},
	}, nil, nil)
	require.NoError(t, err)

	hints := e.HintsFor("Members log in with email")
	assert.Equal(t, []string{"document auth: Members log in with email."}, hints)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "knowledge.yaml")
	content := `sources:
  - id: auth
    type: document
    priority: 10
    content: Members log in with email.
rules:
  - id: vue
    type: constraint
    action: "replace: React -> Vue"
    priority: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	f, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sources, 1)
	assert.Equal(t, core.KnowledgeDocument, f.Sources[0].Type)
	assert.Equal(t, 10, f.Sources[0].Priority)
	require.Len(t, f.Rules, 1)
	assert.Equal(t, "replace: React -> Vue", f.Rules[0].Action)

	e, err := Load(path, nil)
	require.NoError(t, err)
	out, _ := e.Apply("Use React")
	assert.Equal(t, "Use Vue", out)
}

func TestLoadFileInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "sources: [unterminated"},
		{"missing id", "sources:\n  - type: document\n    content: x\n"},
		{"duplicate id", "sources:\n  - {id: a, type: document, content: x}\n  - {id: a, type: rule, content: y}\n"},
		{"bad source type", "sources:\n  - {id: a, type: slides, content: x}\n"},
		{"empty content", "sources:\n  - {id: a, type: document}\n"},
		{"bad rule action", "rules:\n  - {id: r, type: constraint, action: 'explode: now'}\n"},
		{"bad rule type", "rules:\n  - {id: r, type: wish, action: 'append: x'}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "k.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := LoadFile(path)
			assert.Error(t, err)
		})
	}

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
