package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dhabedank/stageprompt/internal/logging"
	"github.com/dhabedank/stageprompt/internal/version"
)

var (
	configFile string
	verbose    bool
	opts       = defaultSettings()

	// logger is replaced in PersistentPreRunE.
	logger = zap.NewNop()
)

// NewRootCmd builds the stageprompt command tree.
func NewRootCmd(release string) *cobra.Command {
	root := &cobra.Command{
		Use:   "stageprompt",
		Short: "Turn requirements documents into staged, validated development prompts",
		Long: `stageprompt reads a requirements document and asks an LLM for development
prompts in five stages (Core Features, User Interface, Data Management,
Performance, Testing). Every stage is validated, retried when the output is
malformed or has the wrong number of prompts, and stored as a new version.`,
		Version:       release,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initialize(cmd); err != nil {
				return err
			}
			if home, err := os.UserHomeDir(); err == nil && cmd.Name() != "setup" {
				if version.IsFirstRun(home, version.StateDir()) {
					version.PrintFirstRunNotice(os.Stderr, version.StateDir())
				}
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			version.PrintUpdateNotice(os.Stderr, version.NewChecker().CheckForUpdate(ctx, release))
			_ = logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ./.stageprompt.yaml or ~/.stageprompt.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging on stderr")
	root.PersistentFlags().StringVar(&opts.LogFormat, "log-format", opts.LogFormat, "Log format (console/json)")
	root.PersistentFlags().StringVar(&opts.DBPath, "db", opts.DBPath, "SQLite database for prompts and documents")

	root.AddCommand(GenerateCmd, PromptsCmd, StagesCmd, SetupCmd)
	return root
}

// initialize loads .env and the config file, then builds the logger.
func initialize(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	path := findConfigFile(configFile)
	if path != "" {
		cfg, err := readConfigFile(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg.apply(&opts, cmd.Flags().Changed)
	}

	l, err := logging.New(verbose, opts.LogFormat)
	if err != nil {
		return err
	}
	logger = l
	if path != "" {
		logger.Debug("loaded config", zap.String("path", path))
	}
	return nil
}
