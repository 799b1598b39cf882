package main

import (
	"github.com/spf13/cobra"
)

// NewTokenCmd creates the session token subcommands.
func NewTokenCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage session tokens",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "revoke <token>",
		Short: "Revoke a session token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(cmd, load)
			if err != nil {
				return err
			}
			defer application.Close()

			if err := application.Auth().RevokeToken(cmd.Context(), args[0]); err != nil {
				return err
			}

			cmd.Println("Token revoked")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete every expired session token now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := openApp(cmd, load)
			if err != nil {
				return err
			}
			defer application.Close()

			n, err := application.PurgeExpiredTokens(cmd.Context())
			if err != nil {
				return err
			}

			cmd.Printf("Purged %d expired token(s)\n", n)
			return nil
		},
	})

	return cmd
}
