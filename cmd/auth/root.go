package main

import (
	"log/slog"

	"github.com/aussiebroadwan/sessionauth/internal/auth/app"
	"github.com/aussiebroadwan/sessionauth/pkg/slogx"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the auth CLI.
func NewRootCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Session authentication service",
		Long: `Session authentication service: user credentials and opaque,
sliding-expiry session tokens over HTTP.

Settings come from the environment, then the --config YAML file, then
flags given on the command line.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")
	app.BindFlags(cmd.PersistentFlags())

	load := func(cmd *cobra.Command) (app.Config, error) {
		return app.Load(configFile, cmd.Flags())
	}

	cmd.AddCommand(NewServeCmd(load))
	cmd.AddCommand(NewMigrateCmd(load))
	cmd.AddCommand(NewUserCmd(load))
	cmd.AddCommand(NewTokenCmd(load))

	return cmd
}

// configLoader resolves the layered configuration for the running command.
type configLoader func(cmd *cobra.Command) (app.Config, error)

// cliLogger sends logs to stderr so command output on stdout stays clean.
func cliLogger(cmd *cobra.Command, cfg app.Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "sessionauth-cli",
		Version: app.BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Output:  cmd.ErrOrStderr(),
	})
}

// openApp builds the application for a one-shot admin command.
func openApp(cmd *cobra.Command, load configLoader) (*app.Application, error) {
	cfg, err := load(cmd)
	if err != nil {
		return nil, err
	}
	return app.New(cmd.Context(), cfg, cliLogger(cmd, cfg))
}
