package main

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		database, dialect, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		if err := database.Close(); err != nil {
			logger.Warn("failed to close database", "error", err)
		}
		logger.Info("migrations applied", "driver", string(dialect))
		return nil
	},
}
