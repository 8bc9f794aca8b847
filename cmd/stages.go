package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhabedank/stageprompt/internal/core"
	"github.com/dhabedank/stageprompt/internal/tui"
)

// StagesCmd prints the stage catalog with the configured model and prompt
// count of each stage.
var StagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "Show the five stages and their settings",
	Args:  cobra.NoArgs,
	RunE:  runStages,
}

func runStages(cmd *cobra.Command, args []string) error {
	llmConfig, err := opts.llmConfig()
	if err != nil {
		return err
	}
	svcConfig, err := opts.serviceConfig()
	if err != nil {
		return err
	}
	fmt.Print(renderStages(core.DefaultCatalog().Stages(), llmConfig.ModelForStage, svcConfig.PromptCounts))
	return nil
}

func renderStages(stages []core.StageTemplate, modelFor func(int) string, counts map[int]int) string {
	var b strings.Builder
	for _, tmpl := range stages {
		count := tmpl.MaxPrompts
		if n := counts[tmpl.Order]; n > 0 {
			count = n
		}
		model := modelFor(tmpl.Order)
		if model == "" {
			model = "adapter default"
		}

		fmt.Fprintf(&b, "%s  %s\n", tui.StageStyle.Render(tmpl.Label()), tui.HelpStyle.Render(string(tmpl.Type)))
		fmt.Fprintf(&b, "  Prompts:  %d\n", count)
		fmt.Fprintf(&b, "  Model:    %s\n", tui.ModelStyle.Render(model))
		fmt.Fprintf(&b, "  Sections: %s\n", strings.Join(tmpl.RelevantSections, ", "))
		if tmpl.Topic != "" {
			fmt.Fprintf(&b, "  Focus:    %s\n", tmpl.Topic)
		}
	}
	return b.String()
}
