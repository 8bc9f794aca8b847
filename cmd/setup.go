package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dhabedank/stageprompt/internal/core"
	"github.com/dhabedank/stageprompt/internal/llm"
	"github.com/dhabedank/stageprompt/internal/tui"
)

var resetConfig bool

// SetupCmd represents the setup command.
var SetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive configuration wizard",
	Long: `Configure stageprompt with an interactive wizard.

This wizard helps you select a model for each of the five stages and one
for the follow-up suggestions. A cheaper model often works well for the
later stages and for suggestions.

Configuration is saved to ~/.stageprompt.yaml. Other settings already in
that file are kept.`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

func init() {
	SetupCmd.Flags().BoolVar(&resetConfig, "reset", false, "Reset configuration to defaults")
}

// setupSteps are the wizard pages: one per stage, then suggestions.
func setupSteps() []string {
	steps := make([]string, 0, core.StageCount+1)
	for _, tmpl := range core.DefaultCatalog().Stages() {
		steps = append(steps, tmpl.Label())
	}
	return append(steps, "Suggestions")
}

func runSetup(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath()

	// Handle reset
	if resetConfig {
		if err := os.Remove(configPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove config: %w", err)
		}
		fmt.Println(tui.SuccessStyle.Render("✓") + " Configuration reset to defaults")
		fmt.Printf("  Removed: %s\n", configPath)
		return nil
	}

	// Check for available models
	models := llm.AllModels()
	if len(models) == 0 {
		return fmt.Errorf("no LLM providers detected. Install Claude Code or Codex CLI, or set ANTHROPIC_API_KEY or GEMINI_API_KEY")
	}

	// Run the wizard
	p := tea.NewProgram(newSetupModel(models, setupSteps()))
	m, err := p.Run()
	if err != nil {
		return fmt.Errorf("wizard failed: %w", err)
	}

	finalModel := m.(setupModel)
	if finalModel.cancelled {
		fmt.Println("Setup cancelled")
		return nil
	}

	config := &fileConfig{}
	if _, err := os.Stat(configPath); err == nil {
		if config, err = readConfigFile(configPath); err != nil {
			return err
		}
	}
	applySelection(config, finalModel.selectedModels)

	if err := writeConfigFile(configPath, config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println(tui.SuccessStyle.Render("✓") + " Configuration saved to " + configPath)
	fmt.Println()
	fmt.Println("Selected models:")
	for _, stage := range sortedStages(config.StageModels) {
		fmt.Printf("  Stage %d:     %s\n", stage, tui.ModelStyle.Render(config.StageModels[stage]))
	}
	fmt.Printf("  Suggestions: %s\n", tui.ModelStyle.Render(config.SuggestionModel))

	return nil
}

// applySelection stores the wizard choices: one model per stage, then the
// suggestion model. Empty choices leave the file untouched.
func applySelection(config *fileConfig, selected []string) {
	if config.StageModels == nil {
		config.StageModels = make(map[int]string)
	}
	for i, model := range selected {
		if model == "" {
			continue
		}
		if i < core.StageCount {
			config.StageModels[i+1] = model
		} else {
			config.SuggestionModel = model
		}
	}
}

func getConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return configFileName
	}
	return filepath.Join(home, configFileName)
}

// Bubble Tea model for the setup wizard

type setupModel struct {
	step           int // index into steps
	steps          []string
	lists          []list.Model
	selectedModels []string
	cancelled      bool
	width          int
	height         int
}

type modelItem struct {
	info llm.ModelInfo
}

func (m modelItem) Title() string       { return m.info.Name }
func (m modelItem) Description() string { return m.info.Description }
func (m modelItem) FilterValue() string { return m.info.Name }

func newSetupModel(models []llm.ModelInfo, steps []string) setupModel {
	items := make([]list.Item, len(models))
	for i, m := range models {
		items[i] = modelItem{info: m}
	}

	lists := make([]list.Model, len(steps))

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(tui.ColorPrimary)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(tui.ColorMuted)

	for i, step := range steps {
		l := list.New(items, delegate, 60, 14)
		l.Title = "Select model for " + step
		l.SetShowStatusBar(false)
		l.SetFilteringEnabled(false)
		l.Styles.Title = tui.TitleStyle
		lists[i] = l
	}

	return setupModel{
		step:           0,
		steps:          steps,
		lists:          lists,
		selectedModels: make([]string, len(steps)),
	}
}

func (m setupModel) Init() tea.Cmd {
	return nil
}

func (m setupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for i := range m.lists {
			m.lists[i].SetWidth(msg.Width)
			m.lists[i].SetHeight(msg.Height - 4)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.cancelled = true
			return m, tea.Quit

		case "enter":
			// Select current item
			if item, ok := m.lists[m.step].SelectedItem().(modelItem); ok {
				m.selectedModels[m.step] = item.info.ID
			}

			// Move to next step or finish
			m.step++
			if m.step >= len(m.steps) {
				return m, tea.Quit
			}
			return m, nil

		case "left", "h":
			if m.step > 0 {
				m.step--
			}
			return m, nil
		}
	}

	// Update current list
	var cmd tea.Cmd
	m.lists[m.step], cmd = m.lists[m.step].Update(msg)
	return m, cmd
}

func (m setupModel) View() string {
	if m.cancelled || m.step >= len(m.steps) {
		return ""
	}

	// Progress indicator
	progress := "\n  "
	for i := range m.steps {
		s := fmt.Sprintf("%d", i+1)
		if i == len(m.steps)-1 {
			s = "Suggestions"
		}
		if i == m.step {
			progress += tui.SelectedStyle.Render(fmt.Sprintf("[%s]", s))
		} else if i < m.step {
			progress += tui.SuccessStyle.Render(fmt.Sprintf("✓ %s", s))
		} else {
			progress += tui.UnselectedStyle.Render(fmt.Sprintf("○ %s", s))
		}
		if i < len(m.steps)-1 {
			progress += " → "
		}
	}
	progress += "\n\n"

	// Help text
	help := tui.HelpStyle.Render("\n  ↑/↓: navigate • enter: select • ←: back • q: quit")

	return progress + m.lists[m.step].View() + help
}
