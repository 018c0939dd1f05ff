// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handler

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/holomush/holoauth/internal/auth"
)

// Credential headers.
const (
	HeaderAuthorization = "Authorization"
	HeaderRefresh       = "x-refresh"
	HeaderAccessToken   = "x-access-token"
)

const identityKey = "holoauth.identity"

// RequestObserver records per-request metrics.
// *observability.Metrics satisfies it.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// identityMiddleware resolves the caller's identity before the user route handlers run.
// A transparently refreshed access token is returned in x-access-token.
func identityMiddleware(resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := resolver.Resolve(c.Request.Context(), bearerToken(c), c.GetHeader(HeaderRefresh))
		if identity.RefreshedAccessToken != "" {
			c.Header(HeaderAccessToken, identity.RefreshedAccessToken)
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// CurrentIdentity returns the identity resolved for the request. It is
// anonymous when no credentials resolved.
func CurrentIdentity(c *gin.Context) auth.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}
	}
	identity, _ := v.(auth.Identity)
	return identity
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader(HeaderAuthorization)
	scheme, raw, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(raw)
}

// requestLogger logs each request once it completes and feeds the request
// metrics. Routes are labeled by their pattern, never the raw path, so ids
// and codes in URLs stay out of logs.
func requestLogger(logger *slog.Logger, observer RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		if observer != nil {
			observer.ObserveRequest(c.Request.Method, route, status, elapsed)
		}
		logger.LogAttrs(c.Request.Context(), slog.LevelInfo, "http request",
			slog.String("method", c.Request.Method),
			slog.String("route", route),
			slog.Int("status", status),
			slog.Duration("latency", elapsed),
		)
	}
}
