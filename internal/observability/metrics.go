// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/holomush/holoauth/internal/auth"
)

// mailFailures is package level so mail adapters can count failures without
// holding a Metrics.
var mailFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "holoauth_mail_failures_total",
		Help: "Total number of account emails that could not be handed off, by kind",
	},
	[]string{"kind"},
)

// RecordMailFailure increments the mail failure counter for kind.
func RecordMailFailure(kind string) {
	mailFailures.WithLabelValues(kind).Inc()
}

// Metrics contains the holoauth Prometheus collectors.
type Metrics struct {
	LoginsTotal     *prometheus.CounterVec
	RefreshesTotal  *prometheus.CounterVec
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

var _ auth.MetricsRecorder = (*Metrics)(nil)

// NewMetrics creates the holoauth collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "holoauth_logins_total",
				Help: "Total number of login attempts by result",
			},
			[]string{"result"},
		),
		RefreshesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "holoauth_refreshes_total",
				Help: "Total number of access token refreshes by result",
			},
			[]string{"result"},
		),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "holoauth_http_requests_total",
				Help: "Total number of HTTP requests by method, route, and status",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "holoauth_http_request_duration_seconds",
				Help:    "HTTP request latency by method and route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	reg.MustRegister(m.LoginsTotal, m.RefreshesTotal, m.RequestsTotal, m.RequestDuration)
	reg.MustRegister(mailFailures)

	return m
}

// RecordLogin counts a login outcome.
func (m *Metrics) RecordLogin(result string) {
	m.LoginsTotal.WithLabelValues(result).Inc()
}

// RecordRefresh counts a refresh outcome.
func (m *Metrics) RecordRefresh(result string) {
	m.RefreshesTotal.WithLabelValues(result).Inc()
}

// ObserveRequest counts an HTTP request and records its latency. route is
// the matched route pattern, never the raw path, to bound label cardinality.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
