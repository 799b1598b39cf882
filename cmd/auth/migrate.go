package main

import (
	"github.com/aussiebroadwan/sessionauth/internal/auth/app"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Apply all pending migrations to the configured store. Already applied migrations are skipped.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}

			cmd.Println("Connecting to database...")
			st, err := app.OpenStore(cmd.Context(), cfg)
			if err != nil {
				return oops.Code("DB_CONNECT_FAILED").With("store_backend", cfg.StoreBackend).Wrap(err)
			}
			defer st.Close()

			cmd.Println("Running migrations...")
			if err := st.ApplyMigrations(); err != nil {
				return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
			}

			cmd.Println("Migrations completed successfully")
			return nil
		},
	}
}
