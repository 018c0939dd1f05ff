// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	"github.com/holomush/holoauth/internal/auth"
	"github.com/holomush/holoauth/pkg/errutil"
)

// Messages owned by the HTTP layer.
const (
	MsgInternal          = "Internal server error"
	MsgPasswordsMismatch = "Passwords do not match"
)

var errInvalidRequest = errors.New("invalid request")

// statusFor maps a service error to its response status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errInvalidRequest), errors.Is(err, auth.ErrResetRejected):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrRefreshRejected),
		errors.Is(err, auth.ErrLogoutRejected):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrUnverified):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrDuplicateEmail):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes the public message of err as plain text. Server errors
// are logged with their oops code and context.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		errutil.LogErrorContext(c.Request.Context(), logger, slog.LevelError, "request failed", err)
	}
	c.String(status, oops.GetPublic(err, MsgInternal))
}
