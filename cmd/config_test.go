package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhabedank/stageprompt/internal/core"
)

const sampleConfig = `provider: anthropic-api
model: claude-sonnet-4-5-20250929
stage_models:
  2: claude-haiku-4-5-20251001
  5: gemini-2.5-flash
suggestion_model: claude-haiku-4-5-20251001
temperature: 0
max_attempts: 4
prompt_counts:
  4: 6
inter_stage_delay: 500ms
rate_limit_backoff: 10s
suggestions: false
db_path: /tmp/prompts.db
log_format: json
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func noneChanged(string) bool { return false }

func TestReadConfigFile(t *testing.T) {
	cfg, err := readConfigFile(writeTemp(t, "config.yaml", sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "anthropic-api", cfg.Provider)
	assert.Equal(t, map[int]string{2: "claude-haiku-4-5-20251001", 5: "gemini-2.5-flash"}, cfg.StageModels)
	assert.Equal(t, map[int]int{4: 6}, cfg.PromptCounts)
	assert.Equal(t, 500*time.Millisecond, cfg.InterStageDelay)
	assert.Equal(t, 10*time.Second, cfg.RateLimitBackoff)
	require.NotNil(t, cfg.Temperature)
	assert.Zero(t, *cfg.Temperature)
	require.NotNil(t, cfg.Suggestions)
	assert.False(t, *cfg.Suggestions)
}

func TestReadConfigFileErrors(t *testing.T) {
	_, err := readConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = readConfigFile(writeTemp(t, "bad.yaml", "stage_models: [unclosed"))
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestApplyConfig(t *testing.T) {
	cfg, err := readConfigFile(writeTemp(t, "config.yaml", sampleConfig))
	require.NoError(t, err)

	s := defaultSettings()
	cfg.apply(&s, noneChanged)

	llmConfig, err := s.llmConfig()
	require.NoError(t, err)
	assert.Equal(t, "anthropic-api", llmConfig.Provider)
	assert.Equal(t, "claude-sonnet-4-5-20250929", llmConfig.ModelForStage(1))
	assert.Equal(t, "claude-haiku-4-5-20251001", llmConfig.ModelForStage(2))
	assert.Equal(t, "gemini-2.5-flash", llmConfig.ModelForStage(5))
	assert.Equal(t, 4, llmConfig.MaxAttempts)
	assert.Zero(t, llmConfig.Temperature)
	assert.False(t, llmConfig.Suggestions)
	assert.Equal(t, 10*time.Second, llmConfig.RateLimitBackoff)

	svcConfig, err := s.serviceConfig()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, svcConfig.InterStageDelay)
	assert.Equal(t, map[int]int{4: 6}, svcConfig.PromptCounts)

	assert.Equal(t, "/tmp/prompts.db", s.DBPath)
	assert.Equal(t, "json", s.LogFormat)
}

func TestApplyConfigFlagsWin(t *testing.T) {
	cfg, err := readConfigFile(writeTemp(t, "config.yaml", sampleConfig))
	require.NoError(t, err)

	s := defaultSettings()
	s.Provider = "claude-cli"
	s.StageModels = map[string]string{"3": "o3"}
	s.LogFormat = "console"
	changed := func(name string) bool {
		return name == "llm" || name == "stage-model" || name == "log-format"
	}
	cfg.apply(&s, changed)

	assert.Equal(t, "claude-cli", s.Provider)
	assert.Equal(t, map[string]string{"3": "o3"}, s.StageModels)
	assert.Equal(t, "console", s.LogFormat)
	// Unchanged flags still take file values.
	assert.Equal(t, "claude-sonnet-4-5-20250929", s.Model)
}

func TestDefaultSettings(t *testing.T) {
	s := defaultSettings()
	llmConfig, err := s.llmConfig()
	require.NoError(t, err)
	assert.Equal(t, "auto", llmConfig.Provider)
	assert.True(t, llmConfig.Suggestions)
	assert.Equal(t, 3, llmConfig.MaxAttempts)

	svcConfig, err := s.serviceConfig()
	require.NoError(t, err)
	assert.Equal(t, core.DefaultServiceConfig().InterStageDelay, svcConfig.InterStageDelay)
	assert.Empty(t, svcConfig.PromptCounts)
	assert.True(t, strings.HasSuffix(s.DBPath, filepath.Join(".stageprompt", "prompts.db")))
}

func TestStageKeyedValidation(t *testing.T) {
	tests := []struct {
		name    string
		counts  map[string]int
		wantErr string
	}{
		{"valid", map[string]int{"1": 3, "5": 20}, ""},
		{"stage zero", map[string]int{"0": 3}, `stage "0" must be 1-5`},
		{"stage six", map[string]int{"6": 3}, `stage "6" must be 1-5`},
		{"not a number", map[string]int{"ui": 3}, `stage "ui" must be 1-5`},
		{"count too high", map[string]int{"2": 21}, "stage 2 count 21 must be 1-20"},
		{"count zero", map[string]int{"2": 0}, "stage 2 count 0 must be 1-20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := defaultSettings()
			s.PromptCounts = tt.counts
			_, err := s.serviceConfig()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestFindConfigFileExplicit(t *testing.T) {
	assert.Equal(t, "custom.yaml", findConfigFile("custom.yaml"))
}

func TestApplySelection(t *testing.T) {
	cfg := &fileConfig{Provider: "gemini-api", StageModels: map[int]string{3: "old"}}
	applySelection(cfg, []string{"a", "", "c", "d", "e", "cheap"})

	assert.Equal(t, map[int]string{1: "a", 3: "c", 4: "d", 5: "e"}, cfg.StageModels)
	assert.Equal(t, "cheap", cfg.SuggestionModel)
	assert.Equal(t, "gemini-api", cfg.Provider)
}

func TestWriteConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), configFileName)
	cfg := &fileConfig{StageModels: map[int]string{1: "a"}, SuggestionModel: "b", InterStageDelay: time.Second}
	require.NoError(t, writeConfigFile(path, cfg))

	got, err := readConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestSetupSteps(t *testing.T) {
	steps := setupSteps()
	require.Len(t, steps, core.StageCount+1)
	assert.Equal(t, "Stage 1: Core Features", steps[0])
	assert.Equal(t, "Suggestions", steps[core.StageCount])
}

func TestRenderStages(t *testing.T) {
	out := renderStages(core.DefaultCatalog().Stages(), func(stage int) string {
		if stage == 2 {
			return "ui-model"
		}
		return ""
	}, map[int]int{4: 7})

	assert.Contains(t, out, "Stage 2: User Interface")
	assert.Contains(t, out, "ui-model")
	assert.Contains(t, out, "adapter default")
	assert.Contains(t, out, "Prompts:  7")
	assert.Equal(t, core.StageCount, strings.Count(out, "Sections:"))
}

func TestReadDocument(t *testing.T) {
	doc, err := readDocument(nil)
	require.NoError(t, err)
	assert.Empty(t, doc.Content)

	path := writeTemp(t, "prd.md", "# Overview\nA todo app.\n")
	doc, err = readDocument([]string{path})
	require.NoError(t, err)
	assert.Equal(t, "prd.md", doc.Name)
	assert.Equal(t, "text/markdown", doc.ContentType)
	assert.Contains(t, doc.Content, "A todo app.")

	_, err = readDocument([]string{writeTemp(t, "empty.txt", "  \n")})
	assert.ErrorIs(t, err, core.ErrEmptyDocument)

	_, err = readDocument([]string{filepath.Join(t.TempDir(), "nope.md")})
	assert.ErrorContains(t, err, "document file not found")
}

func TestExplainRunError(t *testing.T) {
	defer func(old string) { projectID = old }(projectID)
	projectID = "demo"

	stageErr := &core.StageError{Stage: 3, Expected: 5, Actual: 4, Attempts: 3}
	err := explainRunError(fmt.Errorf("stage 3 (Data Management) failed: %w", stageErr))
	assert.ErrorIs(t, err, stageErr)
	assert.Contains(t, err.Error(), "--project demo --from-stage 3")

	plain := errors.New("boom")
	assert.Equal(t, plain, explainRunError(plain))
}

func TestCreateOutputAdapter(t *testing.T) {
	defer func(old string) { outputFormat = old }(outputFormat)

	for _, format := range []string{"table", "json", "markdown"} {
		outputFormat = format
		adapter, _, err := createOutputAdapter()
		require.NoError(t, err, format)
		assert.Equal(t, format, adapter.Name())
	}

	outputFormat = "xml"
	_, _, err := createOutputAdapter()
	assert.ErrorContains(t, err, "unknown output format: xml")
}
