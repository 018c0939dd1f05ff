// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package token

import (
	"crypto/rsa"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// ErrInvalidToken is the single failure kind for malformed, expired, and
// badly signed tokens. Callers reject all three the same way.
var ErrInvalidToken = errors.New("invalid token")

// KeyPair is the signing and verification key for one role.
type KeyPair struct {
	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
}

// Option configures a Signer or Verifier.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source used for issued-at, expiry, and
// verification.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Verifier checks tokens against the public keys of each role.
type Verifier struct {
	keys map[KeyRole]*rsa.PublicKey
	now  func() time.Time
}

// NewVerifier creates a Verifier from the access and refresh public keys.
func NewVerifier(access, refresh *rsa.PublicKey, opts ...Option) (*Verifier, error) {
	if access == nil {
		return nil, oops.Code("TOKEN_KEY_MISSING").With("role", RoleAccess.String()).Errorf("access public key is required")
	}
	if refresh == nil {
		return nil, oops.Code("TOKEN_KEY_MISSING").With("role", RoleRefresh.String()).Errorf("refresh public key is required")
	}
	o := buildOptions(opts)
	return &Verifier{
		keys: map[KeyRole]*rsa.PublicKey{
			RoleAccess:  access,
			RoleRefresh: refresh,
		},
		now: o.now,
	}, nil
}

// Verify parses raw into claims and checks signature, issuer, audience, and
// expiry for the given role. Every failure returns an error wrapping
// ErrInvalidToken.
func (v *Verifier) Verify(raw string, role KeyRole, claims Claims) error {
	key, ok := v.keys[role]
	if !ok {
		return invalid(role, "unknown key role")
	}
	if raw == "" {
		return invalid(role, "empty token")
	}
	if claims.role() != role {
		return invalid(role, "claims do not belong to role")
	}

	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(role.audience()),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return invalid(role, err.Error())
	}
	if !claims.complete() {
		return invalid(role, "required claim missing")
	}
	return nil
}

// VerifyAccess verifies an access token and returns its claims.
func (v *Verifier) VerifyAccess(raw string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := v.Verify(raw, RoleAccess, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefresh verifies a refresh token and returns its claims.
func (v *Verifier) VerifyRefresh(raw string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := v.Verify(raw, RoleRefresh, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func invalid(role KeyRole, reason string) error {
	return oops.Code("TOKEN_INVALID").
		With("role", role.String()).
		With("reason", reason).
		Wrap(ErrInvalidToken)
}

// Signer mints tokens. It embeds a Verifier for the matching public keys.
type Signer struct {
	*Verifier
	keys map[KeyRole]*rsa.PrivateKey
}

// NewSigner creates a Signer from the key pairs of both roles.
func NewSigner(access, refresh KeyPair, opts ...Option) (*Signer, error) {
	if access.Private == nil {
		return nil, oops.Code("TOKEN_KEY_MISSING").With("role", RoleAccess.String()).Errorf("access private key is required")
	}
	if refresh.Private == nil {
		return nil, oops.Code("TOKEN_KEY_MISSING").With("role", RoleRefresh.String()).Errorf("refresh private key is required")
	}
	verifier, err := NewVerifier(access.Public, refresh.Public, opts...)
	if err != nil {
		return nil, err
	}
	return &Signer{
		Verifier: verifier,
		keys: map[KeyRole]*rsa.PrivateKey{
			RoleAccess:  access.Private,
			RoleRefresh: refresh.Private,
		},
	}, nil
}

// Sign stamps issuer, audience, issued-at, and expiry onto claims and signs
// them with the private key of role.
func (s *Signer) Sign(claims Claims, role KeyRole, ttl time.Duration) (string, error) {
	key, ok := s.keys[role]
	if !ok {
		return "", oops.Code("TOKEN_SIGN_FAILED").With("role", role.String()).Errorf("unknown key role")
	}
	if claims.role() != role {
		return "", oops.Code("TOKEN_SIGN_FAILED").With("role", role.String()).Errorf("claims do not belong to role")
	}
	if ttl <= 0 {
		return "", oops.Code("TOKEN_SIGN_FAILED").With("role", role.String()).With("ttl", ttl.String()).Errorf("ttl must be positive")
	}

	now := s.now()
	reg := claims.registered()
	reg.Issuer = Issuer
	reg.Audience = jwt.ClaimStrings{role.audience()}
	reg.IssuedAt = jwt.NewNumericDate(now)
	reg.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").With("role", role.String()).Wrap(err)
	}
	return signed, nil
}
