package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/vbonduro/pantry/internal/config"
	"github.com/vbonduro/pantry/internal/logging"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "pantry",
	Short: "Pantry inventory tracker",
	Long: `Pantry tracks a household's food inventory per user. Items are edited
locally and synced to the configured document store in atomic batches.
Photos are classified by a vision model and recipes are suggested from the
current inventory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file merged into the environment before loading config")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// setup loads configuration and initializes the logger shared by every
// subcommand. The returned cleanup closes the log file.
func setup() (*config.Config, *slog.Logger, func(), error) {
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, nil, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, cleanup, nil
}
