package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/dhabedank/stageprompt/internal/core"
	"github.com/dhabedank/stageprompt/internal/llm"
	"github.com/dhabedank/stageprompt/internal/version"
	"gopkg.in/yaml.v3"
)

const configFileName = ".stageprompt.yaml"

// fileConfig is the on-disk configuration. Zero values mean "not set".
type fileConfig struct {
	Provider         string         `yaml:"provider,omitempty"`
	Model            string         `yaml:"model,omitempty"`
	StageModels      map[int]string `yaml:"stage_models,omitempty"`
	SuggestionModel  string         `yaml:"suggestion_model,omitempty"`
	MaxTokens        int            `yaml:"max_tokens,omitempty"`
	Temperature      *float64       `yaml:"temperature,omitempty"`
	MaxAttempts      int            `yaml:"max_attempts,omitempty"`
	PromptCounts     map[int]int    `yaml:"prompt_counts,omitempty"`
	InterStageDelay  time.Duration  `yaml:"inter_stage_delay,omitempty"`
	RateLimitBackoff time.Duration  `yaml:"rate_limit_backoff,omitempty"`
	Suggestions      *bool          `yaml:"suggestions,omitempty"`
	DBPath           string         `yaml:"db_path,omitempty"`
	KnowledgeFile    string         `yaml:"knowledge_file,omitempty"`
	LogFormat        string         `yaml:"log_format,omitempty"`
}

// settings are the effective values after defaults, config file and flags.
type settings struct {
	Provider         string
	Model            string
	StageModels      map[string]string // flag form: "2=claude-haiku-..."
	SuggestionModel  string
	MaxTokens        int
	Temperature      float64
	MaxAttempts      int
	PromptCounts     map[string]int // flag form: "4=6"
	InterStageDelay  time.Duration
	RateLimitBackoff time.Duration
	NoSuggestions    bool
	DBPath           string
	KnowledgeFile    string
	LogFormat        string
}

func defaultSettings() settings {
	llmDefaults := llm.DefaultConfig()
	svcDefaults := core.DefaultServiceConfig()
	return settings{
		Provider:         llmDefaults.Provider,
		MaxTokens:        llmDefaults.MaxTokens,
		Temperature:      llmDefaults.Temperature,
		MaxAttempts:      llmDefaults.MaxAttempts,
		InterStageDelay:  svcDefaults.InterStageDelay,
		RateLimitBackoff: svcDefaults.RateLimitBackoff,
		DBPath:           defaultDBPath(),
		LogFormat:        "console",
	}
}

func defaultDBPath() string {
	return filepath.Join(version.StateDir(), "prompts.db")
}

// findConfigFile returns explicit if set, else .stageprompt.yaml in the
// working directory, else ~/.stageprompt.yaml. Empty means none exists.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName
	}
	if home, err := os.UserHomeDir(); err == nil {
		homePath := filepath.Join(home, configFileName)
		if _, err := os.Stat(homePath); err == nil {
			return homePath
		}
	}
	return ""
}

func readConfigFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

func writeConfigFile(path string, cfg *fileConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// apply copies file values into s for every flag the user did not set.
func (c *fileConfig) apply(s *settings, changed func(name string) bool) {
	if !changed("llm") && c.Provider != "" {
		s.Provider = c.Provider
	}
	if !changed("model") && c.Model != "" {
		s.Model = c.Model
	}
	if !changed("stage-model") && len(c.StageModels) > 0 {
		s.StageModels = make(map[string]string, len(c.StageModels))
		for stage, model := range c.StageModels {
			s.StageModels[strconv.Itoa(stage)] = model
		}
	}
	if !changed("suggestion-model") && c.SuggestionModel != "" {
		s.SuggestionModel = c.SuggestionModel
	}
	if !changed("max-tokens") && c.MaxTokens > 0 {
		s.MaxTokens = c.MaxTokens
	}
	if !changed("temperature") && c.Temperature != nil {
		s.Temperature = *c.Temperature
	}
	if !changed("max-attempts") && c.MaxAttempts > 0 {
		s.MaxAttempts = c.MaxAttempts
	}
	if !changed("prompt-count") && len(c.PromptCounts) > 0 {
		s.PromptCounts = make(map[string]int, len(c.PromptCounts))
		for stage, n := range c.PromptCounts {
			s.PromptCounts[strconv.Itoa(stage)] = n
		}
	}
	if !changed("delay") && c.InterStageDelay > 0 {
		s.InterStageDelay = c.InterStageDelay
	}
	if !changed("backoff") && c.RateLimitBackoff > 0 {
		s.RateLimitBackoff = c.RateLimitBackoff
	}
	if !changed("no-suggestions") && c.Suggestions != nil {
		s.NoSuggestions = !*c.Suggestions
	}
	if !changed("db") && c.DBPath != "" {
		s.DBPath = c.DBPath
	}
	if !changed("knowledge") && c.KnowledgeFile != "" {
		s.KnowledgeFile = c.KnowledgeFile
	}
	if !changed("log-format") && c.LogFormat != "" {
		s.LogFormat = c.LogFormat
	}
}

// stageKeyed converts "N" keys to stage orders, rejecting anything outside 1..5.
func stageKeyed[V any](flag string, in map[string]V) (map[int]V, error) {
	out := make(map[int]V, len(in))
	for key, v := range in {
		stage, err := strconv.Atoi(key)
		if err != nil || stage < 1 || stage > core.StageCount {
			return nil, fmt.Errorf("--%s: stage %q must be 1-%d", flag, key, core.StageCount)
		}
		out[stage] = v
	}
	return out, nil
}

// llmConfig builds the adapter configuration.
func (s settings) llmConfig() (llm.Config, error) {
	stageModels, err := stageKeyed("stage-model", s.StageModels)
	if err != nil {
		return llm.Config{}, err
	}
	config := llm.DefaultConfig()
	config.Provider = s.Provider
	config.Model = s.Model
	config.StageModels = stageModels
	config.SuggestionModel = s.SuggestionModel
	config.MaxTokens = s.MaxTokens
	config.Temperature = s.Temperature
	config.MaxAttempts = s.MaxAttempts
	config.RateLimitBackoff = s.RateLimitBackoff
	config.Suggestions = !s.NoSuggestions
	return config, nil
}

// serviceConfig builds the orchestrator configuration.
func (s settings) serviceConfig() (core.ServiceConfig, error) {
	counts, err := stageKeyed("prompt-count", s.PromptCounts)
	if err != nil {
		return core.ServiceConfig{}, err
	}
	for stage, n := range counts {
		if n < core.MinPromptCount || n > core.MaxPromptCount {
			return core.ServiceConfig{}, fmt.Errorf("--prompt-count: stage %d count %d must be %d-%d",
				stage, n, core.MinPromptCount, core.MaxPromptCount)
		}
	}
	return core.ServiceConfig{
		InterStageDelay:  s.InterStageDelay,
		RateLimitBackoff: s.RateLimitBackoff,
		PromptCounts:     counts,
	}, nil
}

// sortedStages returns the keys of a stage map in order.
func sortedStages[V any](m map[int]V) []int {
	stages := make([]int, 0, len(m))
	for stage := range m {
		stages = append(stages, stage)
	}
	sort.Ints(stages)
	return stages
}
