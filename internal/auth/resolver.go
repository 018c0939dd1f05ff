// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"

	"github.com/holomush/holoauth/internal/token"
)

// AccessVerifier verifies access tokens. *token.Verifier satisfies it.
type AccessVerifier interface {
	VerifyAccess(raw string) (*token.AccessClaims, error)
}

// Refresher exchanges a refresh token for a new access token.
// *Service satisfies it.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

var (
	_ AccessVerifier = (*token.Verifier)(nil)
	_ Refresher      = (*Service)(nil)
)

// Identity is the outcome of resolving a request's credentials.
type Identity struct {
	// Claims is nil for anonymous requests.
	Claims *token.AccessClaims
	// RefreshedAccessToken is set when the identity came from a transparent
	// refresh. The client should replace its stored access token with it.
	RefreshedAccessToken string
}

// Anonymous reports whether no identity was resolved.
func (i Identity) Anonymous() bool {
	return i.Claims == nil
}

// IdentityResolver attaches an identity to inbound requests.
type IdentityResolver struct {
	verifier  AccessVerifier
	refresher Refresher
	logger    *slog.Logger
}

// NewIdentityResolver creates an IdentityResolver.
func NewIdentityResolver(verifier AccessVerifier, refresher Refresher, opts ...Option) (*IdentityResolver, error) {
	if verifier == nil {
		return nil, oops.Code("RESOLVER_INVALID").Errorf("access verifier is required")
	}
	if refresher == nil {
		return nil, oops.Code("RESOLVER_INVALID").Errorf("refresher is required")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		return nil, oops.Code("RESOLVER_INVALID").Errorf("logger is required")
	}
	return &IdentityResolver{verifier: verifier, refresher: refresher, logger: o.logger}, nil
}

// Resolve verifies accessToken and falls back to a transparent refresh with
// refreshToken. Failing to resolve is not an error: the request stays
// anonymous.
func (r *IdentityResolver) Resolve(ctx context.Context, accessToken, refreshToken string) Identity {
	if accessToken != "" {
		claims, err := r.verifier.VerifyAccess(accessToken)
		if err == nil {
			return Identity{Claims: claims}
		}
	}

	if refreshToken == "" {
		return Identity{}
	}

	refreshed, err := r.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		if !errors.Is(err, ErrRefreshRejected) {
			r.logger.Warn("transparent refresh failed",
				"event", "identity_refresh_failed",
				"error", err.Error(),
			)
		}
		return Identity{}
	}

	claims, err := r.verifier.VerifyAccess(refreshed)
	if err != nil {
		r.logger.Warn("refreshed access token failed verification",
			"event", "identity_refresh_unverifiable",
			"error", err.Error(),
		)
		return Identity{}
	}
	return Identity{Claims: claims, RefreshedAccessToken: refreshed}
}
