// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/holomush/holoauth/internal/auth"
)

// refreshResponse is the body of a successful refresh.
type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

func (h *handlers) createSession(c *gin.Context) {
	var req CreateSessionRequest
	if !h.bind(c, "create-session", &req) {
		return
	}

	tokens, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password, c.Request.UserAgent())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

func (h *handlers) refreshSession(c *gin.Context) {
	access, err := h.sessions.Refresh(c.Request.Context(), c.GetHeader(HeaderRefresh))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, refreshResponse{AccessToken: access})
}

func (h *handlers) deleteSession(c *gin.Context) {
	if err := h.sessions.LogoutToken(c.Request.Context(), c.GetHeader(HeaderRefresh)); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.String(http.StatusOK, auth.MsgLoggedOut)
}
