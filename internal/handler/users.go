// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/holomush/holoauth/internal/auth"
)

func (h *handlers) createUser(c *gin.Context) {
	var req CreateUserRequest
	if !h.bind(c, "create-user", &req) {
		return
	}
	if req.Password != req.PasswordConfirmation {
		c.String(http.StatusBadRequest, MsgPasswordsMismatch)
		return
	}

	_, err := h.accounts.Register(c.Request.Context(), auth.Registration{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.String(http.StatusOK, auth.MsgUserCreated)
}

func (h *handlers) verifyUser(c *gin.Context) {
	msg, err := h.accounts.Verify(c.Request.Context(), c.Param("id"), c.Param("verificationCode"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.String(http.StatusOK, msg)
}

func (h *handlers) forgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if !h.bind(c, "forgot-password", &req) {
		return
	}

	msg, err := h.accounts.RequestPasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.String(http.StatusOK, msg)
}

func (h *handlers) resetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !h.bind(c, "reset-password", &req) {
		return
	}
	if req.Password != req.PasswordConfirmation {
		c.String(http.StatusBadRequest, MsgPasswordsMismatch)
		return
	}

	err := h.accounts.ResetPassword(c.Request.Context(), c.Param("id"), c.Param("passwordResetCode"), req.Password)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.String(http.StatusOK, auth.MsgPasswordUpdated)
}

// currentUser returns the resolved claims, or an empty body for anonymous
// callers.
func (h *handlers) currentUser(c *gin.Context) {
	identity := CurrentIdentity(c)
	if identity.Anonymous() {
		c.Status(http.StatusOK)
		return
	}
	c.JSON(http.StatusOK, identity.Claims)
}
