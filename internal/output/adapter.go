package output

import (
	"io"
	"os"
	"sort"

	"github.com/dhabedank/stageprompt/internal/core"
)

// ExportedItem is one item written to the target.
type ExportedItem struct {
	ExternalID       string // ID assigned by the target (e.g., bd-a3f8)
	Type             string // "stage" or "prompt"
	Title            string
	Stage            int
	GlobalNumber     int    // Prompts only
	ParentExternalID string // empty for stages
}

// FailedItem represents an item that could not be exported.
type FailedItem struct {
	Type  string
	Title string
	Error string
}

// Dependency represents a relationship between exported items.
type Dependency struct {
	From string // external ID
	To   string // external ID
	Type string // "blocks" or "parent-child"
}

// Stats provides summary statistics.
type Stats struct {
	Stages       int
	Prompts      int
	Dependencies int
	Categories   map[core.Category]int
}

// ExportResult is the result of exporting a project's prompts.
type ExportResult struct {
	Created      []ExportedItem
	Failed       []FailedItem
	Dependencies []Dependency
	Stats        Stats
}

// Adapter is the interface all output adapters must implement.
type Adapter interface {
	// Name returns the adapter identifier for logging.
	Name() string

	// IsAvailable checks if the adapter can be used (e.g., CLI installed).
	IsAvailable() (bool, error)

	// Export writes a project's current prompt records to the target.
	Export(records []core.PromptRecord, config Config) (*ExportResult, error)
}

// Config configures output adapter behavior.
type Config struct {
	// WorkingDir for CLI-based adapters.
	WorkingDir string

	// OutputPath is the file written by file adapters. Empty writes to Writer.
	OutputPath string

	// Writer receives output when OutputPath is empty. Defaults to stdout.
	Writer io.Writer

	// DryRun previews without creating items.
	DryRun bool

	// IncludeBody adds objective, prompt and outcome text where the format
	// would otherwise list titles only.
	IncludeBody bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		WorkingDir:  ".",
		Writer:      os.Stdout,
		DryRun:      false,
		IncludeBody: true,
	}
}

func (c Config) writer() io.Writer {
	if c.Writer == nil {
		return os.Stdout
	}
	return c.Writer
}

// stageGroup is one stage's records in prompt order.
type stageGroup struct {
	Stage   int
	Title   string
	Version int
	Records []core.PromptRecord
}

// groupByStage groups records by stage, both in ascending order.
func groupByStage(records []core.PromptRecord) []stageGroup {
	byStage := make(map[int][]core.PromptRecord)
	for _, r := range records {
		byStage[r.Stage] = append(byStage[r.Stage], r)
	}

	catalog := core.DefaultCatalog()
	groups := make([]stageGroup, 0, len(byStage))
	for stage, recs := range byStage {
		sort.SliceStable(recs, func(i, j int) bool {
			return recs[i].PromptNumberInStage < recs[j].PromptNumberInStage
		})
		g := stageGroup{Stage: stage, Records: recs, Title: "Unknown"}
		if tmpl, err := catalog.Stage(stage); err == nil {
			g.Title = tmpl.Title
		}
		for _, r := range recs {
			if r.Version > g.Version {
				g.Version = r.Version
			}
		}
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Stage < groups[j].Stage })
	return groups
}

// listResult builds the result for adapters that write every record as is.
func listResult(records []core.PromptRecord, idFor func(core.PromptRecord) string) *ExportResult {
	result := &ExportResult{
		Created:      []ExportedItem{},
		Failed:       []FailedItem{},
		Dependencies: []Dependency{},
		Stats:        Stats{Categories: make(map[core.Category]int)},
	}
	for _, g := range groupByStage(records) {
		result.Stats.Stages++
		for _, r := range g.Records {
			result.Created = append(result.Created, ExportedItem{
				ExternalID:   idFor(r),
				Type:         "prompt",
				Title:        r.Title,
				Stage:        r.Stage,
				GlobalNumber: r.GlobalPromptNumber,
			})
			result.Stats.Prompts++
			result.Stats.Categories[r.Category]++
		}
	}
	return result
}
