package output

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strings"

	"github.com/dhabedank/stageprompt/internal/core"
)

// issueIDPattern extracts an issue ID from bd output (e.g., "beads-test-a3f8"
// or "myproject-x7f2"). Beads uses <prefix>-<hash> where prefix is set
// during bd init.
var issueIDPattern = regexp.MustCompile(`\b[\w-]+-[a-z0-9]{2,}\b`)

// BeadsAdapter creates issues in beads using the bd CLI: one epic per stage
// and one task per prompt.
type BeadsAdapter struct {
	workingDir  string
	dryRun      bool
	includeBody bool
	run         func(dir string, args ...string) ([]byte, error)
	dryCount    int
}

// NewBeadsAdapter creates a Beads adapter.
func NewBeadsAdapter(config Config) *BeadsAdapter {
	return &BeadsAdapter{
		workingDir:  config.WorkingDir,
		dryRun:      config.DryRun,
		includeBody: config.IncludeBody,
		run:         runBd,
	}
}

func (a *BeadsAdapter) Name() string {
	return "beads"
}

func (a *BeadsAdapter) IsAvailable() (bool, error) {
	if _, err := a.run(a.workingDir, "--version"); err != nil {
		return false, nil
	}
	return true, nil
}

func (a *BeadsAdapter) Export(records []core.PromptRecord, config Config) (*ExportResult, error) {
	result := &ExportResult{
		Created:      []ExportedItem{},
		Failed:       []FailedItem{},
		Dependencies: []Dependency{},
		Stats:        Stats{Categories: make(map[core.Category]int)},
	}
	w := config.writer()

	prevEpic := ""
	for _, g := range groupByStage(records) {
		title := fmt.Sprintf("Stage %d: %s", g.Stage, g.Title)
		epicID, err := a.create(w, title, fmt.Sprintf("Version %d, %d prompts.", g.Version, len(g.Records)), "epic", 1)
		if err != nil {
			result.Failed = append(result.Failed, FailedItem{Type: "stage", Title: title, Error: err.Error()})
			continue
		}
		result.Created = append(result.Created, ExportedItem{ExternalID: epicID, Type: "stage", Title: title, Stage: g.Stage})
		result.Stats.Stages++

		// Each stage builds on the one before it.
		if prevEpic != "" {
			if err := a.addDependency(w, prevEpic, epicID, "blocks"); err == nil {
				result.Dependencies = append(result.Dependencies, Dependency{From: prevEpic, To: epicID, Type: "blocks"})
				result.Stats.Dependencies++
			}
		}
		prevEpic = epicID

		for _, r := range g.Records {
			taskID, err := a.create(w, r.Title, a.description(r), "task", priorityFor(r.Category))
			if err != nil {
				result.Failed = append(result.Failed, FailedItem{Type: "prompt", Title: r.Title, Error: err.Error()})
				continue
			}
			result.Created = append(result.Created, ExportedItem{
				ExternalID:       taskID,
				Type:             "prompt",
				Title:            r.Title,
				Stage:            r.Stage,
				GlobalNumber:     r.GlobalPromptNumber,
				ParentExternalID: epicID,
			})
			result.Stats.Prompts++
			result.Stats.Categories[r.Category]++

			if err := a.addDependency(w, epicID, taskID, "parent-child"); err == nil {
				result.Dependencies = append(result.Dependencies, Dependency{From: epicID, To: taskID, Type: "parent-child"})
				result.Stats.Dependencies++
			}
		}
	}

	return result, nil
}

func (a *BeadsAdapter) description(r core.PromptRecord) string {
	desc := r.Objective
	if a.includeBody {
		desc += fmt.Sprintf("\n\n**Prompt:**\n%s\n\n**Outcome:** %s", r.Body, r.Outcome)
	}
	return desc + fmt.Sprintf("\n\n**Category:** %s", r.Category)
}

func (a *BeadsAdapter) create(w io.Writer, title, description, itemType string, priority int) (string, error) {
	args := []string{
		"create",
		title,
		"--description", description,
		"--priority", fmt.Sprintf("%d", priority),
		"--type", itemType,
	}

	if a.dryRun {
		fmt.Fprintf(w, "[dry-run] bd create %q --type %s --priority %d\n", title, itemType, priority)
		a.dryCount++
		return fmt.Sprintf("dry-%d", a.dryCount), nil
	}

	output, err := a.run(a.workingDir, args...)
	if err != nil {
		return "", err
	}

	match := issueIDPattern.FindString(string(output))
	if match == "" {
		return "", fmt.Errorf("could not extract issue ID from: %s", string(output))
	}
	return match, nil
}

func (a *BeadsAdapter) addDependency(w io.Writer, fromID, toID, depType string) error {
	if a.dryRun {
		fmt.Fprintf(w, "[dry-run] bd dep add %s %s %s\n", fromID, depType, toID)
		return nil
	}
	_, err := a.run(a.workingDir, "dep", "add", fromID, depType, toID)
	return err
}

func runBd(dir string, args ...string) ([]byte, error) {
	cmd := exec.Command("bd", args...)
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("bd %s failed: %s", args[0], strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("bd %s failed: %w", args[0], err)
	}
	return output, nil
}

// priorityFor maps a category to a beads priority (0 is highest).
func priorityFor(c core.Category) int {
	p := c.Priority() - 1
	if p > 3 {
		p = 3
	}
	return p
}
