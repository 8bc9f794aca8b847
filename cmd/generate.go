package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dhabedank/stageprompt/internal/core"
	"github.com/dhabedank/stageprompt/internal/knowledge"
	"github.com/dhabedank/stageprompt/internal/llm"
	"github.com/dhabedank/stageprompt/internal/metrics"
	"github.com/dhabedank/stageprompt/internal/output"
	"github.com/dhabedank/stageprompt/internal/store"
	"github.com/dhabedank/stageprompt/internal/tui"
)

var (
	projectID     string
	fromStage     int
	outputFormat  string
	outputPath    string
	dryRun        bool
	showMetrics   bool
	interactive   bool
	includeBodies bool
	debugDir      string
)

// GenerateCmd represents the generate command.
var GenerateCmd = &cobra.Command{
	Use:   "generate [document-file]",
	Short: "Generate the five stages of prompts for a document",
	Long: `Generate development prompts for a requirements document.

Each stage (Core Features, User Interface, Data Management, Performance,
Testing) is generated in order. A stage is accepted only when every prompt
has a title, objective, prompt and outcome and the number of prompts matches
the stage's count; otherwise it is retried.

Accepted stages are stored as new versions under the project. Without a
document file, --project reuses the document stored with that project, which
together with --from-stage resumes a failed run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	f := GenerateCmd.Flags()
	f.StringVarP(&projectID, "project", "p", "", "Project ID (default: new ID)")
	f.IntVar(&fromStage, "from-stage", 1, "Start at this stage (1-5)")

	// LLM options
	f.StringVarP(&opts.Provider, "llm", "l", opts.Provider, "LLM provider (auto/claude-cli/codex-cli/anthropic-api/gemini-api)")
	f.StringVarP(&opts.Model, "model", "m", "", "Model to use (provider-specific)")
	f.StringToStringVar(&opts.StageModels, "stage-model", nil, "Model per stage, e.g. 2=claude-haiku-4-5-20251001")
	f.StringVar(&opts.SuggestionModel, "suggestion-model", "", "Model for the follow-up suggestions (can be faster/cheaper)")
	f.IntVar(&opts.MaxTokens, "max-tokens", opts.MaxTokens, "Maximum response tokens")
	f.Float64Var(&opts.Temperature, "temperature", opts.Temperature, "Sampling temperature")
	f.IntVar(&opts.MaxAttempts, "max-attempts", opts.MaxAttempts, "Generation attempts per stage")
	f.BoolVar(&opts.NoSuggestions, "no-suggestions", false, "Skip the follow-up suggestions request")

	// Pacing and counts
	f.StringToIntVar(&opts.PromptCounts, "prompt-count", nil, "Prompt count per stage, e.g. 4=6 (1-20)")
	f.DurationVar(&opts.InterStageDelay, "delay", opts.InterStageDelay, "Pause between stages")
	f.DurationVar(&opts.RateLimitBackoff, "backoff", opts.RateLimitBackoff, "Wait before retrying a rate-limited request")
	f.StringVar(&opts.KnowledgeFile, "knowledge", "", "YAML file of knowledge sources and rules")

	// Output options
	f.StringVarP(&outputFormat, "output", "o", "table", "Export after the run (table/json/markdown/beads/none)")
	f.StringVar(&outputPath, "output-path", "", "Output file for json and markdown")
	f.BoolVar(&includeBodies, "body", false, "Include prompt bodies in markdown and beads output")
	f.BoolVar(&dryRun, "dry-run", false, "Show the stages and estimated cost without calling the LLM")
	f.BoolVar(&showMetrics, "metrics", false, "Print generation metrics after the run")
	f.BoolVar(&interactive, "tui", false, "Show an interactive progress display")
	f.StringVar(&debugDir, "debug-dir", "", "Write the last raw response of a failed stage to this directory")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	doc, err := readDocument(args)
	if err != nil {
		return err
	}
	if doc.Content == "" && projectID == "" {
		return fmt.Errorf("a document file or --project is required")
	}
	if projectID == "" {
		projectID = uuid.NewString()
	}

	llmConfig, err := opts.llmConfig()
	if err != nil {
		return err
	}
	svcConfig, err := opts.serviceConfig()
	if err != nil {
		return err
	}

	db, err := store.NewSQLiteStore(opts.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer db.Close()

	if dryRun {
		return printEstimate(ctx, db, doc, llmConfig, svcConfig)
	}

	adapter, err := llm.NewAdapter(ctx, llmConfig)
	if err != nil {
		return fmt.Errorf("failed to create LLM adapter: %w", err)
	}
	fmt.Printf("Using LLM: %s\n", adapter.Name())

	collector := metrics.New()
	genOpts := []llm.GeneratorOption{llm.WithRecorder(collector)}
	if debugDir != "" {
		genOpts = append(genOpts, llm.WithDebugDir(debugDir))
	}
	if opts.KnowledgeFile != "" {
		engine, err := knowledge.Load(opts.KnowledgeFile, logger)
		if err != nil {
			return fmt.Errorf("failed to load knowledge: %w", err)
		}
		genOpts = append(genOpts, llm.WithKnowledge(engine))
		fmt.Printf("Using knowledge: %s\n", opts.KnowledgeFile)
	}
	generator := llm.NewPromptGenerator(adapter, llmConfig, logger, genOpts...)

	prompts := store.NewVersioned(db, store.NewCounterCache())
	service := core.NewService(generator, prompts, db, svcConfig, logger)

	req := core.RunRequest{
		ProjectID: projectID,
		Document:  doc,
		FromStage: fromStage,
	}
	fmt.Printf("Project: %s\n", projectID)

	start := time.Now()
	var result *core.RunResult
	if interactive {
		result, err = runWithDisplay(ctx, service, req)
	} else {
		req.Progress = func(label string, percent int) {
			fmt.Println(tui.RenderProgress(label, percent))
		}
		result, err = service.Run(ctx, req)
	}
	if err != nil {
		return explainRunError(err)
	}

	fmt.Println()
	for _, stage := range result.Stages {
		fmt.Println(tui.RenderStageOutcome(stage, llmConfig.ModelForStage(stage.Stage)))
		if stage.Suggestions != "" {
			fmt.Println(tui.HelpStyle.Render(indent(stage.Suggestions, "    ")))
		}
	}
	fmt.Print(tui.RenderSummary(result, time.Since(start)))

	if showMetrics {
		summary, err := collector.Summary()
		if err != nil {
			logger.Warn("metrics summary failed", zap.Error(err))
		} else {
			fmt.Println("\n--- Metrics ---")
			fmt.Print(summary)
		}
	}

	return exportRecords(result.Records)
}

// readDocument loads the document file when one is given.
func readDocument(args []string) (core.Document, error) {
	if len(args) == 0 {
		return core.Document{}, nil
	}
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return core.Document{}, fmt.Errorf("document file not found: %s", path)
		}
		return core.Document{}, fmt.Errorf("failed to read document: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return core.Document{}, fmt.Errorf("%s: %w", path, core.ErrEmptyDocument)
	}
	return core.Document{
		Name:        filepath.Base(path),
		Content:     string(data),
		ContentType: contentType(path),
		UploadedAt:  time.Now(),
	}, nil
}

func contentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return "text/markdown"
	default:
		return "text/plain"
	}
}

// printEstimate lists the stages that would run and their estimated cost.
func printEstimate(ctx context.Context, documents core.DocumentStore, doc core.Document, llmConfig llm.Config, svcConfig core.ServiceConfig) error {
	content := doc.Content
	if content == "" {
		stored, err := documents.GetDocument(ctx, projectID)
		if err != nil {
			return fmt.Errorf("failed to load document: %w", err)
		}
		if stored == nil {
			return fmt.Errorf("project %s: %w", projectID, core.ErrEmptyDocument)
		}
		content = stored.Content
	}
	if fromStage < 1 || fromStage > core.StageCount {
		return fmt.Errorf("--from-stage %d: %w", fromStage, core.ErrUnknownStage)
	}

	stages := core.DefaultCatalog().Stages()[fromStage-1:]
	estimates := tui.EstimateStages(stages, content, llmConfig.ModelForStage, svcConfig.PromptCounts)
	fmt.Println("[dry-run] No LLM calls made.")
	fmt.Print(tui.RenderEstimates(estimates))
	return nil
}

// runWithDisplay runs the service while a Bubble Tea program renders its
// progress. Quitting the display cancels the run.
func runWithDisplay(ctx context.Context, service *core.Service, req core.RunRequest) (*core.RunResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	display := tui.NewProgressDisplay()
	program := tea.NewProgram(display)
	req.Progress = tui.Reporter(program.Send)

	type outcome struct {
		result *core.RunResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := service.Run(ctx, req)
		program.Send(tui.DoneMsg{Err: err})
		done <- outcome{result, err}
	}()

	if _, err := program.Run(); err != nil {
		cancel()
		<-done
		return nil, fmt.Errorf("progress display failed: %w", err)
	}
	if display.Cancelled() {
		cancel()
	}
	out := <-done
	return out.result, out.err
}

// explainRunError adds the resume command to stage failures.
func explainRunError(err error) error {
	var stageErr *core.StageError
	if errors.As(err, &stageErr) {
		return fmt.Errorf("%w\n\nEarlier stages were saved. Resume with:\n  stageprompt generate --project %s --from-stage %d",
			err, projectID, stageErr.Stage)
	}
	return err
}

// exportRecords writes the stored records with the selected output adapter.
func exportRecords(records []core.PromptRecord) error {
	if outputFormat == "none" {
		return nil
	}
	adapter, config, err := createOutputAdapter()
	if err != nil {
		return fmt.Errorf("failed to create output adapter: %w", err)
	}

	fmt.Println()
	result, err := adapter.Export(records, config)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if len(result.Failed) > 0 {
		fmt.Printf("\nFailed to export %d items:\n", len(result.Failed))
		for _, f := range result.Failed {
			fmt.Printf("  - %s %q: %s\n", f.Type, f.Title, f.Error)
		}
	}
	return nil
}

func createOutputAdapter() (output.Adapter, output.Config, error) {
	config := output.DefaultConfig()
	config.OutputPath = outputPath
	config.DryRun = dryRun
	config.IncludeBody = includeBodies

	switch outputFormat {
	case "table":
		return output.NewTableAdapter(), config, nil
	case "json":
		return output.NewJSONAdapter(config), config, nil
	case "markdown", "md":
		return output.NewMarkdownAdapter(config), config, nil
	case "beads":
		adapter := output.NewBeadsAdapter(config)
		available, _ := adapter.IsAvailable()
		if !available {
			return nil, config, fmt.Errorf("Beads not available - run 'bd init' first")
		}
		return adapter, config, nil
	default:
		return nil, config, fmt.Errorf("unknown output format: %s", outputFormat)
	}
}

func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
