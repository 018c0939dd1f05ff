// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"errors"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/holoauth/internal/auth"
)

// NewSessionsCmd creates the sessions subcommand.
func NewSessionsCmd() *cobra.Command {
	return newSessionsCmd(nil)
}

func newSessionsCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Administer login sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "revoke <session-id>",
		Short: "Invalidate a session so its refresh tokens stop working",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := ulid.Parse(args[0])
			if err != nil {
				return oops.Code("INVALID_SESSION_ID").With("input", args[0]).Wrap(err)
			}
			return revokeSession(cmd, deps, id)
		},
	})

	return cmd
}

func revokeSession(cmd *cobra.Command, deps *Deps, id ulid.ULID) error {
	deps = deps.withDefaults()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Database.Validate(); err != nil {
		return err
	}
	logger, err := setupLogging(cmd, cfg.Log)
	if err != nil {
		return oops.Code("LOGGING_SETUP_FAILED").Wrap(err)
	}

	repos, err := deps.RepositoryFactory(cmd.Context(), cfg.Database, logger)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("driver", cfg.Database.Driver).Wrap(err)
	}
	defer repos.Close()

	if err := repos.Sessions.Invalidate(cmd.Context(), id); err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return oops.Code("SESSION_NOT_FOUND").With("session_id", id.String()).Errorf("session %s does not exist", id)
		}
		return oops.Code("SESSION_REVOKE_FAILED").With("session_id", id.String()).Wrap(err)
	}

	cmd.Printf("Revoked session %s\n", id)
	return nil
}
