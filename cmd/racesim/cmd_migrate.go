package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lawnchairsociety/racesim/internal/database"
	"github.com/lawnchairsociety/racesim/internal/logger"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy stored runs from SQLite to PostgreSQL",
		Long: `Copy every run from a SQLite results store into the PostgreSQL store
described by the database.postgres section of the config file.

Runs already present in PostgreSQL are skipped, so the command can be repeated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sqlitePath, _ := cmd.Flags().GetString("sqlite")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if sqlitePath == "" {
				sqlitePath = cfg.Database.SQLitePath
			}

			src, err := database.Open(sqlitePath)
			if err != nil {
				return fmt.Errorf("open SQLite store: %w", err)
			}
			defer src.Close()

			pgConfig := cfg.Store()
			pgConfig.Driver = string(database.DialectPostgres)
			dst, err := database.OpenWithConfig(pgConfig)
			if err != nil {
				return fmt.Errorf("open PostgreSQL store: %w", err)
			}
			defer dst.Close()

			logger.Info("Copying runs",
				"sqlite", sqlitePath,
				"postgres_host", pgConfig.Postgres.Host,
				"postgres_database", pgConfig.Postgres.Database,
				"dry_run", dryRun)

			n, err := database.CopyRuns(cmd.Context(), src, dst, dryRun)
			if err != nil {
				return err
			}

			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "%d runs would be copied (dry run)\n", n)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Copied %d runs\n", n)
			}
			return nil
		},
	}

	cmd.Flags().String("sqlite", "", "Path to the SQLite store (default: database.sqlite_path)")
	cmd.Flags().Bool("dry-run", false, "Count the runs that would be copied without writing")

	return cmd
}
