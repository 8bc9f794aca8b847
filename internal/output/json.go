package output

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dhabedank/stageprompt/internal/core"
)

// JSONAdapter outputs prompt records as JSON grouped by stage.
type JSONAdapter struct {
	outputPath string
	dryRun     bool
}

// NewJSONAdapter creates a JSON adapter.
func NewJSONAdapter(config Config) *JSONAdapter {
	return &JSONAdapter{
		outputPath: config.OutputPath,
		dryRun:     config.DryRun,
	}
}

func (a *JSONAdapter) Name() string {
	return "json"
}

func (a *JSONAdapter) IsAvailable() (bool, error) {
	return true, nil // Always available
}

type jsonStage struct {
	Stage   int                 `json:"stage"`
	Title   string              `json:"title"`
	Version int                 `json:"version"`
	Prompts []core.PromptRecord `json:"prompts"`
}

type jsonExport struct {
	ProjectID string      `json:"project_id"`
	Total     int         `json:"total_prompts"`
	Stages    []jsonStage `json:"stages"`
}

func (a *JSONAdapter) Export(records []core.PromptRecord, config Config) (*ExportResult, error) {
	doc := jsonExport{Total: len(records), Stages: []jsonStage{}}
	if len(records) > 0 {
		doc.ProjectID = records[0].ProjectID
	}
	for _, g := range groupByStage(records) {
		doc.Stages = append(doc.Stages, jsonStage{Stage: g.Stage, Title: g.Title, Version: g.Version, Prompts: g.Records})
	}

	output, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}

	w := config.writer()
	if a.dryRun {
		fmt.Fprintln(w, "[dry-run] Would write:")
		fmt.Fprintln(w, string(output))
	} else if a.outputPath != "" {
		if err := os.WriteFile(a.outputPath, output, 0644); err != nil {
			return nil, fmt.Errorf("failed to write file: %w", err)
		}
		fmt.Fprintf(w, "Prompts written to %s\n", a.outputPath)
	} else {
		fmt.Fprintln(w, string(output))
	}

	return listResult(records, func(r core.PromptRecord) string {
		return fmt.Sprintf("prompt-%d", r.GlobalPromptNumber)
	}), nil
}
