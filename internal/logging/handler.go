// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package logging builds the service's slog logger: service and version on
// every record, OpenTelemetry trace ids when present, and credential-bearing
// attributes redacted.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel/trace"
)

// ServiceName is the service attribute of every record.
const ServiceName = "holoauth"

// Redacted replaces the value of sensitive attributes.
const Redacted = "[REDACTED]"

// sensitiveKeys never reach a log sink with their values.
var sensitiveKeys = map[string]struct{}{
	"password":              {},
	"password_confirmation": {},
	"password_hash":         {},
	"code":                  {},
	"verification_code":     {},
	"password_reset_code":   {},
	"access_token":          {},
	"refresh_token":         {},
	"authorization":         {},
	"x-refresh":             {},
	"private_key":           {},
}

// Config selects the logger's output.
type Config struct {
	Version string
	// Format is "json" or "text". Empty means json.
	Format string
	// Level is debug, info, warn, or error. Empty means info.
	Level string
	// Writer defaults to os.Stderr.
	Writer io.Writer
}

// traceHandler wraps a slog.Handler to add service and trace context.
type traceHandler struct {
	handler slog.Handler
	version string
}

// Handle adds service, version, and trace ids, and redacts sensitive attrs.
func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	out.AddAttrs(
		slog.String("service", ServiceName),
		slog.String("version", h.version),
	)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(redact(a))
		return true
	})

	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.HasTraceID() {
		out.AddAttrs(slog.String("trace_id", spanCtx.TraceID().String()))
	}
	if spanCtx.HasSpanID() {
		out.AddAttrs(slog.String("span_id", spanCtx.SpanID().String()))
	}

	//nolint:wrapcheck // Handler interface requires unwrapped error passthrough
	return h.handler.Handle(ctx, out)
}

// Enabled reports whether the wrapped handler handles level.
func (h *traceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// WithAttrs returns a new handler with the given attributes, redacted.
func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = redact(a)
	}
	return &traceHandler{handler: h.handler.WithAttrs(clean), version: h.version}
}

// WithGroup returns a new handler with the given group.
func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{handler: h.handler.WithGroup(name), version: h.version}
}

func redact(a slog.Attr) slog.Attr {
	if _, ok := sensitiveKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, Redacted)
	}
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		clean := make([]any, len(group))
		for i, ga := range group {
			clean[i] = redact(ga)
		}
		return slog.Group(a.Key, clean...)
	}
	return a
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, oops.Code("LOG_LEVEL_INVALID").With("level", level).Errorf("unknown log level %q", level)
	}
}

// New creates a configured slog.Logger.
func New(cfg Config) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: level}
	var base slog.Handler
	switch cfg.Format {
	case "", "json":
		base = slog.NewJSONHandler(w, opts)
	case "text":
		base = slog.NewTextHandler(w, opts)
	default:
		return nil, oops.Code("LOG_FORMAT_INVALID").With("format", cfg.Format).Errorf("unknown log format %q", cfg.Format)
	}

	return slog.New(&traceHandler{handler: base, version: cfg.Version}), nil
}

// SetDefault builds a logger from cfg and installs it as the slog default.
func SetDefault(cfg Config) (*slog.Logger, error) {
	logger, err := New(cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}
