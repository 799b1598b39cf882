package main

import (
	"github.com/aussiebroadwan/sessionauth/internal/auth/app"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Long: `Open and migrate the store, then serve the account API, health,
metrics and docs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}

			application, err := app.New(cmd.Context(), cfg, app.NewLogger(cfg))
			if err != nil {
				return oops.Code("APP_INIT_FAILED").Wrap(err)
			}
			return application.Run(cmd.Context())
		},
	}
}
