// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"log/slog"
	"time"
)

// Default token lifetimes.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Outcome labels passed to MetricsRecorder.
const (
	ResultSuccess            = "success"
	ResultInvalidCredentials = "invalid_credentials"
	ResultUnverified         = "unverified"
	ResultRejected           = "rejected"
	ResultError              = "error"
)

// MetricsRecorder counts authentication outcomes.
type MetricsRecorder interface {
	RecordLogin(result string)
	RecordRefresh(result string)
}

type noopMetrics struct{}

func (noopMetrics) RecordLogin(string)   {}
func (noopMetrics) RecordRefresh(string) {}

// Option configures the services in this package.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	metrics    MetricsRecorder
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func defaultOptions() options {
	return options{
		logger:     slog.Default(),
		metrics:    noopMetrics{},
		accessTTL:  DefaultAccessTTL,
		refreshTTL: DefaultRefreshTTL,
		now:        time.Now,
	}
}

// WithLogger sets the logger used for best-effort failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets the recorder for login and refresh outcomes.
func WithMetrics(m MetricsRecorder) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithTokenTTL sets the access and refresh token lifetimes.
func WithTokenTTL(access, refresh time.Duration) Option {
	return func(o *options) {
		o.accessTTL = access
		o.refreshTTL = refresh
	}
}

// WithClock overrides the time source for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}
