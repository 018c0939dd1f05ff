// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/holoauth/internal/token"
)

// NewKeysCmd creates the keys subcommand.
func NewKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage token signing keys",
	}
	cmd.AddCommand(newKeysGenerateCmd())
	return cmd
}

func newKeysGenerateCmd() *cobra.Command {
	var bits int

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate access and refresh signing key pairs",
		Long: `Generate two RSA key pairs, one for access tokens and one for refresh
tokens, and print them as environment assignments. Each value is a
base64-encoded PEM block.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, role := range []token.KeyRole{token.RoleAccess, token.RoleRefresh} {
				priv, pub, err := token.GenerateKeyPair(bits)
				if err != nil {
					return oops.With("role", role.String()).Wrap(err)
				}
				prefix := keyEnvPrefix(role)
				cmd.Printf("%s_PRIVATE_KEY=%s\n", prefix, token.EncodeKey(priv))
				cmd.Printf("%s_PUBLIC_KEY=%s\n", prefix, token.EncodeKey(pub))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&bits, "bits", token.MinKeyBits, "RSA key size in bits")

	return cmd
}

func keyEnvPrefix(role token.KeyRole) string {
	if role == token.RoleRefresh {
		return "HOLOAUTH_TOKENS__REFRESH"
	}
	return "HOLOAUTH_TOKENS__ACCESS"
}
