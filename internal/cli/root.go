// Package cli provides the command-line interface for rulestack.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rulestack-labs/rulestack/internal/config"
	"github.com/rulestack-labs/rulestack/internal/store"
)

// Version information (set at build time).
var Version = "0.1.0"

var (
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rulestack",
		Short: "Rulestack - Rulebook Project Importer",
		Long: `Rulestack imports event-driven automation projects from git repositories.

It clones a repository, discovers rulebook files under its rulebooks/
directory, expands their event-source declarations, and stores the
resulting project with an archived snapshot of the repository tree.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			var err error
			cfg, err = config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level := slog.LevelInfo
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./rulestack.yaml)")
	rootCmd.PersistentFlags().String("state", "", "Path to the project database")
	rootCmd.PersistentFlags().String("git-bin", "", "Path to the git executable")
	rootCmd.PersistentFlags().Int("clone-depth", 0, "Shallow clone depth for imports")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(newImportCommand())
	rootCmd.AddCommand(newProjectsCommand())
	rootCmd.AddCommand(newRulebooksCommand())
	rootCmd.AddCommand(newArchiveCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// openStore opens the project database and runs pending migrations.
// The returned cleanup must be called (typically via defer).
func openStore() (*store.SQLiteStore, func(), error) {
	stateDir := filepath.Dir(cfg.StatePath)
	if stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	st := store.NewSQLiteStore()
	if err := st.Open(cfg.StatePath); err != nil {
		return nil, nil, err
	}
	if err := st.Migrate(); err != nil {
		st.Close()
		return nil, nil, err
	}
	return st, func() { _ = st.Close() }, nil
}
