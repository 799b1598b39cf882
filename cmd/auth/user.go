package main

import (
	"time"

	"github.com/aussiebroadwan/sessionauth/internal/auth/service"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// NewUserCmd creates the user administration subcommands.
func NewUserCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	cmd.AddCommand(newUserCreateCmd(load))
	cmd.AddCommand(newUserSetCmd(load))
	cmd.AddCommand(newUserShowCmd(load))
	cmd.AddCommand(newUserDeleteCmd(load))

	return cmd
}

func newUserCreateCmd(load configLoader) *cobra.Command {
	var (
		superuser     bool
		active        bool
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user",
		Long: `Create a user account.

Without --active the account follows active_on_register, the same default
self-registration uses.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := promptPassword(cmd, passwordStdin)
			if err != nil {
				return err
			}

			application, err := openApp(cmd, load)
			if err != nil {
				return err
			}
			defer application.Close()

			params := service.RegisterParams{
				Username:  args[0],
				Password:  password,
				Superuser: superuser,
			}
			if cmd.Flags().Changed("active") {
				params.Active = &active
			}

			u, err := application.Auth().RegisterUser(cmd.Context(), params)
			if err != nil {
				return err
			}

			cmd.Printf("Created user %s (%s)\n", u.Username, u.ID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&superuser, "superuser", false, "grant the superuser flag")
	cmd.Flags().BoolVar(&active, "active", false, "set the active flag instead of using active_on_register")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from the first line of stdin")

	return cmd
}

func newUserSetCmd(load configLoader) *cobra.Command {
	var (
		active        bool
		superuser     bool
		password      bool
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "set <username>",
		Short: "Change a user's flags or password",
		Long: `Change a user's flags or password. Only the options given are applied.
Deactivating a user or changing their password ends all of their sessions.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("active") && !flags.Changed("superuser") && !password {
				return oops.Code("NOTHING_TO_DO").Hint("pass --active, --superuser or --password").
					Errorf("no changes requested")
			}

			var newPassword string
			if password {
				pw, err := promptPassword(cmd, passwordStdin)
				if err != nil {
					return err
				}
				newPassword = pw
			}

			application, err := openApp(cmd, load)
			if err != nil {
				return err
			}
			defer application.Close()

			ctx := cmd.Context()
			users := application.Users()
			username := args[0]

			if flags.Changed("active") {
				if err := users.SetActive(ctx, username, active); err != nil {
					return err
				}
			}
			if flags.Changed("superuser") {
				if err := users.SetSuperuser(ctx, username, superuser); err != nil {
					return err
				}
			}
			if password {
				if err := users.SetPassword(ctx, username, newPassword); err != nil {
					return err
				}
			}

			cmd.Printf("Updated user %s\n", username)
			return nil
		},
	}

	cmd.Flags().BoolVar(&active, "active", true, "set the active flag")
	cmd.Flags().BoolVar(&superuser, "superuser", false, "set the superuser flag")
	cmd.Flags().BoolVar(&password, "password", false, "prompt for a new password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "with --password, read it from the first line of stdin")

	return cmd
}

func newUserShowCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "show <username>",
		Short: "Show a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(cmd, load)
			if err != nil {
				return err
			}
			defer application.Close()

			u, err := application.Users().GetByUsername(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			cmd.Printf("id:         %s\n", u.ID)
			cmd.Printf("username:   %s\n", u.Username)
			cmd.Printf("active:     %t\n", u.Active)
			cmd.Printf("superuser:  %t\n", u.Superuser)
			cmd.Printf("created_on: %s\n", u.CreatedOn.Format(time.RFC3339))
			return nil
		},
	}
}

func newUserDeleteCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete a user and all of their sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := openApp(cmd, load)
			if err != nil {
				return err
			}
			defer application.Close()

			if err := application.Users().Delete(cmd.Context(), args[0]); err != nil {
				return err
			}

			cmd.Printf("Deleted user %s\n", args[0])
			return nil
		},
	}
}
