// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/holomush/holoauth/internal/config"
	"github.com/holomush/holoauth/internal/logging"
	"github.com/holomush/holoauth/internal/xdg"
)

// NewRootCmd creates the root command for the holoauth CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "holoauth",
		Short: "holoauth - account and session service",
		Long: `holoauth issues RS256 access and refresh tokens, tracks login sessions,
and runs the email verification and password reset flows.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "config file path (YAML, default $XDG_CONFIG_HOME/holoauth/config.yaml)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewKeysCmd())
	cmd.AddCommand(NewSessionsCmd())

	return cmd
}

// loadConfig reads the configuration with the command's flags on top.
// Without --config, $XDG_CONFIG_HOME/holoauth/config.yaml is used if present.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file, err := cmd.Flags().GetString("config")
	if err != nil {
		file = ""
	}
	if file == "" {
		if file, err = xdg.FindConfigFile(); err != nil {
			return nil, err
		}
	}
	return config.Load(config.LoadOptions{File: file, Flags: cmd.Flags()})
}

// setupLogging installs the process logger writing to the command's stderr.
func setupLogging(cmd *cobra.Command, cfg config.LogConfig) (*slog.Logger, error) {
	return logging.SetDefault(logging.Config{
		Version: version,
		Format:  cfg.Format,
		Level:   cfg.Level,
		Writer:  cmd.ErrOrStderr(),
	})
}
