package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dhabedank/stageprompt/internal/core"
)

// ProgressMsg carries one progress update of a run.
type ProgressMsg struct {
	Label   string
	Percent int
}

// DoneMsg ends the display. Err is nil when the run succeeded.
type DoneMsg struct {
	Err error
}

// Reporter adapts a send function (usually tea.Program.Send) to the
// service's progress callback.
func Reporter(send func(tea.Msg)) core.ProgressFunc {
	return func(label string, percent int) {
		send(ProgressMsg{Label: label, Percent: percent})
	}
}

// ProgressDisplay is a Bubble Tea model for showing generation progress.
type ProgressDisplay struct {
	spinner   spinner.Model
	bar       progress.Model
	label     string
	percent   int
	completed []string
	started   time.Time
	now       func() time.Time
	done      bool
	err       error
	quitting  bool
}

// NewProgressDisplay creates a new progress display.
func NewProgressDisplay() *ProgressDisplay {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return &ProgressDisplay{
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		label:   "starting",
		started: time.Now(),
		now:     time.Now,
	}
}

// Err returns the error the run finished with, if any.
func (p *ProgressDisplay) Err() error {
	return p.err
}

// Cancelled reports whether the user quit before the run finished.
func (p *ProgressDisplay) Cancelled() bool {
	return p.quitting && !p.done
}

// Init implements tea.Model.
func (p *ProgressDisplay) Init() tea.Cmd {
	return p.spinner.Tick
}

// Update implements tea.Model.
func (p *ProgressDisplay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			p.quitting = true
			return p, tea.Quit
		}

	case tea.WindowSizeMsg:
		p.bar.Width = min(msg.Width-10, 60)
		return p, nil

	case ProgressMsg:
		// A stage is complete once the run moves past its label.
		if msg.Label != p.label && isStageLabel(p.label) {
			p.completed = append(p.completed, p.label)
		}
		p.label = msg.Label
		p.percent = msg.Percent
		return p, nil

	case DoneMsg:
		p.done = true
		p.err = msg.Err
		return p, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		return p, cmd
	}

	return p, nil
}

// View implements tea.Model.
func (p *ProgressDisplay) View() string {
	var b strings.Builder
	for _, label := range p.completed {
		fmt.Fprintf(&b, "%s %s\n", SuccessStyle.Render("✓"), StageStyle.Render(label))
	}

	elapsed := p.now().Sub(p.started).Truncate(time.Second)
	switch {
	case p.done && p.err != nil:
		fmt.Fprintf(&b, "%s %s  %s\n", ErrorStyle.Render("✗"), StageStyle.Render(p.label), ErrorStyle.Render(p.err.Error()))
	case p.done:
		fmt.Fprintf(&b, "%s %s  %s\n", SuccessStyle.Render("✓"), TitleStyle.Render("Generation complete"), HelpStyle.Render(elapsed.String()))
	case p.quitting:
		fmt.Fprintf(&b, "%s\n", WarningStyle.Render("Cancelled"))
	default:
		fmt.Fprintf(&b, "%s %s  %s\n", p.spinner.View(), StageStyle.Render(p.label), HelpStyle.Render(elapsed.String()))
		fmt.Fprintf(&b, "  %s\n", p.bar.ViewAs(float64(p.percent)/100))
		b.WriteString(HelpStyle.Render("  q to cancel"))
		b.WriteString("\n")
	}
	return b.String()
}

func isStageLabel(label string) bool {
	return strings.HasPrefix(label, "Stage ")
}

// RenderProgress returns a progress line (non-interactive mode).
func RenderProgress(label string, percent int) string {
	return fmt.Sprintf("%s [%3d%%] %s",
		SpinnerStyle.Render("→"),
		percent,
		StageStyle.Render(label),
	)
}

// RenderStageOutcome returns a line for a persisted stage (non-interactive mode).
func RenderStageOutcome(o core.StageOutcome, model string) string {
	line := fmt.Sprintf("%s %s  v%d  %d prompts  %d attempt(s)  %s",
		SuccessStyle.Render("✓"),
		StageStyle.Render(fmt.Sprintf("Stage %d: %s", o.Stage, o.Title)),
		o.Version,
		o.Prompts,
		o.Attempts,
		HelpStyle.Render(o.Duration.Truncate(time.Second).String()),
	)
	if model != "" {
		line += "  " + ModelStyle.Render(model)
	}
	for _, w := range o.Warnings {
		line += "\n    " + WarningStyle.Render("! "+w)
	}
	return line
}

// RenderSummary returns a summary of a finished run (non-interactive mode).
func RenderSummary(result *core.RunResult, elapsed time.Duration) string {
	var prompts int
	for _, s := range result.Stages {
		prompts += s.Prompts
	}

	return fmt.Sprintf("\n%s\n  Project: %s  Stages: %d  New prompts: %d  Stored: %d  Time: %s\n",
		TitleStyle.Render("Generation Complete"),
		result.ProjectID,
		len(result.Stages),
		prompts,
		len(result.Records),
		elapsed.Truncate(time.Second).String(),
	)
}

// RenderEstimates lists the predicted cost of each stage.
func RenderEstimates(estimates []StageEstimate) string {
	var b strings.Builder
	b.WriteString(SubtitleStyle.Render("Estimated cost") + "\n")
	for _, e := range estimates {
		fmt.Fprintf(&b, "  Stage %d: %-16s %s  ~%s in / ~%s out  %s\n",
			e.Stage,
			e.Title,
			ModelStyle.Render(e.Model),
			FormatTokens(e.InputTokens),
			FormatTokens(e.OutputTokens),
			CostStyle.Render(FormatCost(e.Cost)),
		)
	}
	fmt.Fprintf(&b, "  Total: %s\n", CostStyle.Render(FormatCost(TotalCost(estimates))))
	return b.String()
}
