// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package token signs and verifies the short-lived access tokens and the
// long-lived refresh tokens issued by holoauth.
//
// Each KeyRole has its own RSA key pair. Signing needs the private half and is
// only available on Signer; Verifier holds public keys alone so it can be
// embedded in components that must never mint credentials.
package token

import (
	"github.com/golang-jwt/jwt/v5"
)

// Issuer is stamped into every token and required on verification.
const Issuer = "holoauth"

// KeyRole selects the key pair used to sign or verify a token.
type KeyRole int

// Key roles.
const (
	RoleAccess KeyRole = iota + 1
	RoleRefresh
)

// String returns the role name used in logs and error context.
func (r KeyRole) String() string {
	switch r {
	case RoleAccess:
		return "access"
	case RoleRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

// audience scopes a token to one role so an access token can never be
// replayed as a refresh token even if both roles share a key.
func (r KeyRole) audience() string {
	return Issuer + ":" + r.String()
}

// Claims is implemented by the claim sets this package knows how to sign.
type Claims interface {
	jwt.Claims
	registered() *jwt.RegisteredClaims
	role() KeyRole
	complete() bool
}

// AccessClaims is a point-in-time snapshot of the user's public identity.
type AccessClaims struct {
	UserID   string `json:"uid"`
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
	jwt.RegisteredClaims
}

func (c *AccessClaims) registered() *jwt.RegisteredClaims { return &c.RegisteredClaims }
func (c *AccessClaims) role() KeyRole                     { return RoleAccess }
func (c *AccessClaims) complete() bool                    { return c.UserID != "" }

// RefreshClaims names a session and nothing else, so it never carries stale
// user data.
type RefreshClaims struct {
	SessionID string `json:"session"`
	jwt.RegisteredClaims
}

func (c *RefreshClaims) registered() *jwt.RegisteredClaims { return &c.RegisteredClaims }
func (c *RefreshClaims) role() KeyRole                     { return RoleRefresh }
func (c *RefreshClaims) complete() bool                    { return c.SessionID != "" }
