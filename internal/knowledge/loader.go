package knowledge

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/dhabedank/stageprompt/internal/core"
)

// File is the on-disk form of a knowledge file:
//
//	sources:
//	  - id: brand
//	    type: document
//	    priority: 10
//	    content: |
//	      Acme uses a calm blue palette.
//	rules:
//	  - id: vue
//	    type: constraint
//	    condition: react
//	    action: "replace: React -> Vue"
//	    priority: 5
type File struct {
	Sources []core.KnowledgeSource   `yaml:"sources"`
	Rules   []core.ConfigurationRule `yaml:"rules"`
}

// LoadFile reads and validates a knowledge file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge file %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid knowledge file %s: %w", path, err)
	}
	return &f, nil
}

// Validate checks ids, types and content.
func (f *File) Validate() error {
	seen := make(map[string]bool)
	for i, s := range f.Sources {
		field := fmt.Sprintf("sources[%d]", i)
		if s.ID == "" {
			return &core.ValidationError{Field: field + ".id", Message: "is required"}
		}
		if seen[s.ID] {
			return &core.ValidationError{Field: field + ".id", Message: fmt.Sprintf("duplicate id %q", s.ID)}
		}
		seen[s.ID] = true
		switch s.Type {
		case core.KnowledgeDocument, core.KnowledgeRule, core.KnowledgeExample:
		default:
			return &core.ValidationError{Field: field + ".type", Message: fmt.Sprintf("unknown type %q", s.Type)}
		}
		if s.Content == "" {
			return &core.ValidationError{Field: field + ".content", Message: "is required"}
		}
	}

	for i, r := range f.Rules {
		if r.ID == "" {
			return &core.ValidationError{Field: fmt.Sprintf("rules[%d].id", i), Message: "is required"}
		}
		if _, err := CompileRule(r); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a knowledge file and builds an engine from it.
func Load(path string, logger *zap.Logger) (*Engine, error) {
	f, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return NewEngine(f.Sources, f.Rules, logger)
}
