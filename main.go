package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dpf-ci/dpf-version/pkg/config"
	"github.com/dpf-ci/dpf-version/pkg/logger"
)

var (
	configPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "dpf-version",
		Short:         "DPF version diff and update engine",
		Long:          "Compare DOCA Platform Framework releases and advance a manifest tree to a new release",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add global flags for configuration
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration JSON file (optional)")

	// Add commands
	rootCmd.AddCommand(NewSnapshotCommand())
	rootCmd.AddCommand(NewCompareCommand())
	rootCmd.AddCommand(NewUpdateCommand())
	rootCmd.AddCommand(NewDocsCommand())
	rootCmd.AddCommand(NewHistoryCommand())
	rootCmd.AddCommand(NewVersionCommand())

	// Set up context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Set up persistent pre-run to initialize config and logger
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Skip config loading for version command
		if cmd.Name() == "version" {
			return nil
		}

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// Setup logger and update context
		ctx := logger.SetupLogger(cmd.Context(), cfg.Log.Level, cfg.Log.Dir)
		cmd.SetContext(ctx)
		return nil
	}

	// Execute command with context
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Command execution failed: %v\n", err)
		os.Exit(1)
	}
}
