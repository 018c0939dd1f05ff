// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/holoauth/internal/token"
)

// TokenIssuer signs new tokens and verifies refresh tokens.
// *token.Signer satisfies it.
type TokenIssuer interface {
	Sign(claims token.Claims, role token.KeyRole, ttl time.Duration) (string, error)
	VerifyRefresh(raw string) (*token.RefreshClaims, error)
}

var _ TokenIssuer = (*token.Signer)(nil)

// Tokens is the credential pair returned by a successful login.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Service provides login, refresh, and logout.
type Service struct {
	users    UserRepository
	sessions SessionRepository
	hasher   PasswordHasher
	tokens   TokenIssuer
	logger   *slog.Logger
	metrics  MetricsRecorder

	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewAuthService creates a new Service.
func NewAuthService(
	users UserRepository,
	sessions SessionRepository,
	hasher PasswordHasher,
	tokens TokenIssuer,
	opts ...Option,
) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("users repository is required")
	}
	if sessions == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("sessions repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("token issuer is required")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("logger is required")
	}
	if o.metrics == nil {
		o.metrics = noopMetrics{}
	}
	if o.accessTTL <= 0 || o.refreshTTL <= 0 {
		return nil, oops.Code("AUTH_SERVICE_INVALID").
			With("access_ttl", o.accessTTL.String()).
			With("refresh_ttl", o.refreshTTL.String()).
			Errorf("token lifetimes must be positive")
	}

	return &Service{
		users:      users,
		sessions:   sessions,
		hasher:     hasher,
		tokens:     tokens,
		logger:     o.logger,
		metrics:    o.metrics,
		accessTTL:  o.accessTTL,
		refreshTTL: o.refreshTTL,
		now:        o.now,
	}, nil
}

// Login authenticates a user by email and password, opens a session, and
// returns an access token plus a refresh token naming that session.
//
// Unknown emails and wrong passwords fail identically. An unverified account
// is rejected with its own message before the password is checked.
func (s *Service) Login(ctx context.Context, email, password, userAgent string) (*Tokens, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Same cost as a wrong password.
			_, _ = ValidatePassword(s.hasher, dummyPasswordHash, password) //nolint:errcheck // result is irrelevant
			s.metrics.RecordLogin(ResultInvalidCredentials)
			return nil, invalidCredentials()
		}
		s.metrics.RecordLogin(ResultError)
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	if !user.Verified {
		s.metrics.RecordLogin(ResultUnverified)
		return nil, oops.Code("AUTH_UNVERIFIED").
			With("user_id", user.ID.String()).
			Public(MsgPleaseVerify).
			Wrap(ErrUnverified)
	}

	valid, err := ValidatePassword(s.hasher, user.PasswordHash, password)
	if err != nil {
		s.metrics.RecordLogin(ResultError)
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			With("user_id", user.ID.String()).
			Wrap(err)
	}
	if !valid {
		s.metrics.RecordLogin(ResultInvalidCredentials)
		return nil, invalidCredentials()
	}

	session, err := NewSession(user.ID, userAgent, s.now())
	if err != nil {
		s.metrics.RecordLogin(ResultError)
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "create session").
			Wrap(err)
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		s.metrics.RecordLogin(ResultError)
		return nil, oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "persist session").
			With("user_id", user.ID.String()).
			Wrap(err)
	}

	access, err := s.tokens.Sign(user.AccessClaims(), token.RoleAccess, s.accessTTL)
	if err != nil {
		s.metrics.RecordLogin(ResultError)
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "sign access token").
			Wrap(err)
	}
	refresh, err := s.tokens.Sign(&token.RefreshClaims{SessionID: session.ID.String()}, token.RoleRefresh, s.refreshTTL)
	if err != nil {
		s.metrics.RecordLogin(ResultError)
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "sign refresh token").
			Wrap(err)
	}

	s.metrics.RecordLogin(ResultSuccess)
	return &Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a refresh token for a new access token built from the
// user's current state. The refresh token and its session are not rotated.
//
// A bad token, a missing or invalidated session, and a missing user are
// indistinguishable to the caller. Storage and signing failures are not
// rejections and do not wrap ErrRefreshRejected.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return "", s.refreshFailed("verify refresh token", err)
	}

	sessionID, err := ulid.Parse(claims.SessionID)
	if err != nil {
		return "", s.refreshFailed("parse session id", err)
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", s.refreshFailed("get session", err)
		}
		return "", s.refreshError("get session", err)
	}
	if !session.Valid {
		return "", s.refreshFailed("check session", errors.New("session is invalid"))
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", s.refreshFailed("get user", err)
		}
		return "", s.refreshError("get user", err)
	}

	access, err := s.tokens.Sign(user.AccessClaims(), token.RoleAccess, s.accessTTL)
	if err != nil {
		return "", s.refreshError("sign access token", err)
	}

	s.metrics.RecordRefresh(ResultSuccess)
	return access, nil
}

// Logout invalidates a session. Invalidating an already invalid session is
// not an error.
func (s *Service) Logout(ctx context.Context, sessionID ulid.ULID) error {
	if err := s.sessions.Invalidate(ctx, sessionID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("SESSION_NOT_FOUND").
				With("session_id", sessionID.String()).
				Wrap(err)
		}
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "invalidate session").
			With("session_id", sessionID.String()).
			Wrap(err)
	}
	return nil
}

// LogoutToken invalidates the session named by a refresh token. A token
// naming a session that no longer exists is treated as already logged out.
func (s *Service) LogoutToken(ctx context.Context, refreshToken string) error {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return logoutRejected(err)
	}
	sessionID, err := ulid.Parse(claims.SessionID)
	if err != nil {
		return logoutRejected(err)
	}

	err = s.Logout(ctx, sessionID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

func (s *Service) refreshFailed(operation string, cause error) error {
	s.metrics.RecordRefresh(ResultRejected)
	s.logger.Debug("refresh rejected",
		"operation", operation,
		"error", cause,
	)
	return oops.Code("AUTH_REFRESH_FAILED").
		With("operation", operation).
		With("cause", cause.Error()).
		Public(MsgRefreshFailed).
		Wrap(ErrRefreshRejected)
}

func (s *Service) refreshError(operation string, err error) error {
	s.metrics.RecordRefresh(ResultError)
	return oops.Code("AUTH_REFRESH_FAILED").
		With("operation", operation).
		Wrap(err)
}

func logoutRejected(cause error) error {
	return oops.Code("AUTH_LOGOUT_REJECTED").
		With("cause", cause.Error()).
		Public(MsgLogoutFailed).
		Wrap(ErrLogoutRejected)
}

func invalidCredentials() error {
	return oops.Code("AUTH_INVALID_CREDENTIALS").
		Public(MsgInvalidCredentials).
		Wrap(ErrInvalidCredentials)
}
