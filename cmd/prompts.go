package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhabedank/stageprompt/internal/store"
	"github.com/dhabedank/stageprompt/internal/tui"
)

// PromptsCmd groups the commands that read or clear stored prompts.
var PromptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "List, export or clear stored prompts",
}

var promptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Export the current prompts of a project",
	Long: `Print the latest version of every stage of a project, ordered by stage
and prompt number. Records saved before version tracking get version 1, their
position numbers and a category on read.`,
	Args: cobra.NoArgs,
	RunE: runPromptsList,
}

var promptsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every stored prompt of a project",
	Long: `Delete all prompts of a project. The next generated stage starts again at
version 1 and global prompt number 1. The stored document is kept.`,
	Args: cobra.NoArgs,
	RunE: runPromptsClear,
}

var promptsProjectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects with stored prompts or documents",
	Args:  cobra.NoArgs,
	RunE:  runPromptsProjects,
}

func init() {
	for _, c := range []*cobra.Command{promptsListCmd, promptsClearCmd} {
		c.Flags().StringVarP(&projectID, "project", "p", "", "Project ID")
		_ = c.MarkFlagRequired("project")
	}
	promptsListCmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format (table/json/markdown/beads)")
	promptsListCmd.Flags().StringVar(&outputPath, "output-path", "", "Output file for json and markdown")
	promptsListCmd.Flags().BoolVar(&includeBodies, "body", false, "Include prompt bodies in markdown and beads output")
	promptsListCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview without writing files or creating issues")

	PromptsCmd.AddCommand(promptsListCmd, promptsClearCmd, promptsProjectsCmd)
}

func openPromptStore() (*store.SQLiteStore, *store.Versioned, error) {
	db, err := store.NewSQLiteStore(opts.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	return db, store.NewVersioned(db, store.NewCounterCache()), nil
}

func runPromptsList(cmd *cobra.Command, args []string) error {
	db, prompts, err := openPromptStore()
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := prompts.GetAll(cmd.Context(), projectID)
	if err != nil {
		return fmt.Errorf("failed to load prompts: %w", err)
	}
	if len(records) == 0 {
		fmt.Printf("No prompts stored for project %s\n", projectID)
		return nil
	}
	return exportRecords(records)
}

func runPromptsClear(cmd *cobra.Command, args []string) error {
	db, prompts, err := openPromptStore()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := prompts.Clear(cmd.Context(), projectID); err != nil {
		return fmt.Errorf("failed to clear prompts: %w", err)
	}
	fmt.Println(tui.SuccessStyle.Render("✓") + " Cleared prompts of project " + projectID)
	return nil
}

func runPromptsProjects(cmd *cobra.Command, args []string) error {
	db, err := store.NewSQLiteStore(opts.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer db.Close()

	projects, err := db.Projects(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}
	if len(projects) == 0 {
		fmt.Println("No projects yet")
		return nil
	}
	for _, p := range projects {
		fmt.Println(p)
	}
	return nil
}
