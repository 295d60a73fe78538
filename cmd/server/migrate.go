package main

import (
	"database/sql"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"linguaformula/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the attempt history schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd, database.MigrateUp)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the last migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd, database.MigrateDown)
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
}

func withDB(cmd *cobra.Command, fn func(*sql.DB, *zap.Logger) error) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := database.Open(cmd.Context(), cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db, log)
}
