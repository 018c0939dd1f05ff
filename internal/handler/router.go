// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package handler exposes the auth services over HTTP with gin.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	"github.com/holomush/holoauth/internal/auth"
)

// SessionService is the login, refresh, and logout surface.
type SessionService interface {
	Login(ctx context.Context, email, password, userAgent string) (*auth.Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	LogoutToken(ctx context.Context, refreshToken string) error
}

// AccountService is the registration, verification, and reset surface.
type AccountService interface {
	Register(ctx context.Context, reg auth.Registration) (*auth.User, error)
	Verify(ctx context.Context, userID, code string) (string, error)
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, userID, code, newPassword string) error
}

// IdentityResolver resolves request credentials to an identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, accessToken, refreshToken string) auth.Identity
}

var (
	_ SessionService   = (*auth.Service)(nil)
	_ AccountService   = (*auth.AccountService)(nil)
	_ IdentityResolver = (*auth.IdentityResolver)(nil)
)

// Option configures the router.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	observer RequestObserver
}

// WithLogger sets the logger for request and error logs.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRequestMetrics records request counts and latencies.
func WithRequestMetrics(observer RequestObserver) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// handlers holds the route dependencies.
type handlers struct {
	sessions  SessionService
	accounts  AccountService
	validator *validator
	logger    *slog.Logger
}

// NewRouter builds the HTTP surface:
//
//	GET    /healthcheck
//	POST   /api/sessions
//	POST   /api/sessions/refresh
//	DELETE /api/sessions
//	POST   /api/users
//	GET    /api/users/verify/:id/:verificationCode
//	POST   /api/users/forgotpassword
//	POST   /api/users/resetpassword/:id/:passwordResetCode
//	GET    /api/users/me
func NewRouter(sessions SessionService, accounts AccountService, resolver IdentityResolver, opts ...Option) (*gin.Engine, error) {
	if sessions == nil {
		return nil, oops.Code("ROUTER_INVALID").Errorf("session service is required")
	}
	if accounts == nil {
		return nil, oops.Code("ROUTER_INVALID").Errorf("account service is required")
	}
	if resolver == nil {
		return nil, oops.Code("ROUTER_INVALID").Errorf("identity resolver is required")
	}

	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		return nil, oops.Code("ROUTER_INVALID").Errorf("logger is required")
	}

	v, err := newValidator()
	if err != nil {
		return nil, err
	}

	h := &handlers{
		sessions:  sessions,
		accounts:  accounts,
		validator: v,
		logger:    o.logger,
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(o.logger, o.observer))

	r.GET("/healthcheck", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// Session routes consume the refresh token themselves and never
	// resolve an identity from it.
	sessionRoutes := r.Group("/api/sessions")
	sessionRoutes.POST("", h.createSession)
	sessionRoutes.POST("/refresh", h.refreshSession)
	sessionRoutes.DELETE("", h.deleteSession)

	users := r.Group("/api/users", identityMiddleware(resolver))
	users.POST("", h.createUser)
	users.GET("/verify/:id/:verificationCode", h.verifyUser)
	users.POST("/forgotpassword", h.forgotPassword)
	users.POST("/resetpassword/:id/:passwordResetCode", h.resetPassword)
	users.GET("/me", h.currentUser)

	return r, nil
}

// bind validates the request body against schema and decodes it into dst.
// On failure it writes the response and returns false.
func (h *handlers) bind(c *gin.Context, schema string, dst any) bool {
	body, err := c.GetRawData()
	if err != nil {
		writeError(c, h.logger, oops.Code("REQUEST_INVALID").Public("Invalid request body").Wrap(errInvalidRequest))
		return false
	}
	if err := h.validator.decode(schema, body, dst); err != nil {
		writeError(c, h.logger, err)
		return false
	}
	return true
}
