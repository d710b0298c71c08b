package cmd

import (
	"context"
	"database/sql"

	"github.com/vibast-solutions/ms-go-posts/config"
	"github.com/vibast-solutions/ms-go-posts/migrations"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(_ *cobra.Command, _ []string) error {
		return withMigrationDB(migrations.Up)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE: func(_ *cobra.Command, _ []string) error {
		return withMigrationDB(migrations.Down)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the status of every migration",
	RunE: func(_ *cobra.Command, _ []string) error {
		return withMigrationDB(migrations.Status)
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)
}

func withMigrationDB(run func(ctx context.Context, db *sql.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err = configureLogging(cfg); err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err = run(context.Background(), db); err != nil {
		return err
	}
	logrus.Info("Migration command finished")
	return nil
}
