package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fastygo/studio/internal/config"
	pgInfra "github.com/fastygo/studio/internal/infrastructure/postgres"
	sqliteInfra "github.com/fastygo/studio/internal/infrastructure/sqlite"
)

func newMigrateCmd() *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Bring the storage schema up to date",
		Long:  "Applies pending Postgres migrations (or rolls back one with --down). For SQLite the embedded schema is created in place.",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment()
			if err != nil {
				return err
			}
			defer env.logger.Sync()

			switch env.cfg.Storage.Driver {
			case config.DriverPostgres:
				direction := pgInfra.Up
				if down {
					direction = pgInfra.Down
				}
				if err := pgInfra.Migrate(env.cfg, direction, env.logger); err != nil {
					return fmt.Errorf("migrating: %w", err)
				}
			case config.DriverSQLite:
				if down {
					return fmt.Errorf("--down is only supported for postgres")
				}
				db, err := sqliteInfra.Open(cmd.Context(), env.cfg.Storage.SQLitePath, env.logger)
				if err != nil {
					return err
				}
				defer db.Close()
				if err := sqliteInfra.EnsureSchema(cmd.Context(), db); err != nil {
					return fmt.Errorf("creating schema: %w", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s schema is up to date\n", env.cfg.Storage.Driver)
			return nil
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "Roll back the latest migration")
	return cmd
}
