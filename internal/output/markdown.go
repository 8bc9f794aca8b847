package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/dhabedank/stageprompt/internal/core"
)

// MarkdownAdapter renders prompt records as a Markdown document, one section
// per stage.
type MarkdownAdapter struct {
	outputPath string
	dryRun     bool
}

// NewMarkdownAdapter creates a Markdown adapter.
func NewMarkdownAdapter(config Config) *MarkdownAdapter {
	return &MarkdownAdapter{outputPath: config.OutputPath, dryRun: config.DryRun}
}

func (a *MarkdownAdapter) Name() string {
	return "markdown"
}

func (a *MarkdownAdapter) IsAvailable() (bool, error) {
	return true, nil
}

func (a *MarkdownAdapter) Export(records []core.PromptRecord, config Config) (*ExportResult, error) {
	doc := RenderMarkdown(records, config.IncludeBody)

	w := config.writer()
	switch {
	case a.dryRun:
		fmt.Fprintln(w, "[dry-run] Would write:")
		fmt.Fprint(w, doc)
	case a.outputPath != "":
		if err := os.WriteFile(a.outputPath, []byte(doc), 0644); err != nil {
			return nil, fmt.Errorf("failed to write file: %w", err)
		}
		fmt.Fprintf(w, "Prompts written to %s\n", a.outputPath)
	default:
		fmt.Fprint(w, doc)
	}

	return listResult(records, func(r core.PromptRecord) string {
		return fmt.Sprintf("prompt-%d", r.GlobalPromptNumber)
	}), nil
}

// RenderMarkdown formats records grouped by stage. Without body only the
// numbered titles are listed.
func RenderMarkdown(records []core.PromptRecord, includeBody bool) string {
	var b strings.Builder
	b.WriteString("# Development Prompts\n")

	if len(records) == 0 {
		b.WriteString("\nNo prompts generated yet.\n")
		return b.String()
	}

	for _, g := range groupByStage(records) {
		fmt.Fprintf(&b, "\n## Stage %d: %s (version %d)\n", g.Stage, g.Title, g.Version)
		for _, r := range g.Records {
			if !includeBody {
				fmt.Fprintf(&b, "\n%d. %s `%s`", r.GlobalPromptNumber, r.Title, r.Category)
				continue
			}
			fmt.Fprintf(&b, "\n### %d. %s\n\n", r.GlobalPromptNumber, r.Title)
			fmt.Fprintf(&b, "*Category: %s*\n\n", r.Category)
			fmt.Fprintf(&b, "**Objective:** %s\n\n", r.Objective)
			fmt.Fprintf(&b, "**Prompt:**\n\n%s\n\n", r.Body)
			fmt.Fprintf(&b, "**Outcome:** %s\n", r.Outcome)
		}
		if !includeBody {
			b.WriteString("\n")
		}
	}
	return b.String()
}
