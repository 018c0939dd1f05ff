// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"net"

	"github.com/holomush/holoauth/internal/auth"
	"github.com/holomush/holoauth/internal/auth/memory"
	"github.com/holomush/holoauth/internal/auth/postgres"
	"github.com/holomush/holoauth/internal/config"
	"github.com/holomush/holoauth/internal/mail"
	"github.com/holomush/holoauth/internal/observability"
	"github.com/holomush/holoauth/internal/store"
)

// Repositories is an opened user and session store.
type Repositories struct {
	Users    auth.UserRepository
	Sessions auth.SessionRepository
	// Ready backs the readiness probe.
	Ready observability.ReadinessChecker
	// Close releases the store's connections.
	Close func()
}

// Mailer is an email collaborator that holds resources.
type Mailer interface {
	auth.Mailer
	Close() error
}

// Migrator wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Steps(n int) error
	Force(version int) error
	Status() (store.Status, error)
	Close() error
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

// Deps contains injectable dependencies for the commands.
// All fields with nil values will use their default implementations.
type Deps struct {
	// RepositoryFactory opens the store selected by cfg.Driver.
	// Default: openRepositories
	RepositoryFactory func(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*Repositories, error)

	// MigratorFactory creates a migrator for a database URL.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)

	// MailerFactory creates the email collaborator selected by cfg.Driver.
	// Default: openMailer
	MailerFactory func(cfg config.MailConfig, logger *slog.Logger) (Mailer, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, ready observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer

	// Listen opens the API listener.
	// Default: net.Listen
	Listen func(network, address string) (net.Listener, error)
}

func (d *Deps) withDefaults() *Deps {
	out := Deps{}
	if d != nil {
		out = *d
	}
	if out.RepositoryFactory == nil {
		out.RepositoryFactory = openRepositories
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(databaseURL string) (Migrator, error) {
			m, err := store.NewMigrator(databaseURL)
			if err != nil {
				return nil, err
			}
			return m, nil
		}
	}
	if out.MailerFactory == nil {
		out.MailerFactory = openMailer
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker, logger *slog.Logger) ObservabilityServer {
			return observability.NewServer(addr, ready, logger)
		}
	}
	if out.Listen == nil {
		out.Listen = net.Listen
	}
	return &out
}

// openRepositories opens the memory store or connects to PostgreSQL.
func openRepositories(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*Repositories, error) {
	if cfg.Driver == config.DriverMemory {
		s := memory.NewStore()
		return &Repositories{
			Users:    s.Users(),
			Sessions: s.Sessions(),
			Ready:    func(context.Context) error { return nil },
			Close:    func() {},
		}, nil
	}

	pool, err := store.Connect(ctx, cfg.URL,
		store.WithConnectAttempts(cfg.ConnectAttempts),
		store.WithConnectDelay(cfg.ConnectDelay),
		store.WithConnectLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return &Repositories{
		Users:    postgres.NewUserRepository(pool),
		Sessions: postgres.NewSessionRepository(pool),
		Ready:    pool.Ping,
		Close:    pool.Close,
	}, nil
}

// openMailer creates the Kafka publisher or the logging no-op sink.
func openMailer(cfg config.MailConfig, logger *slog.Logger) (Mailer, error) {
	if cfg.Driver == config.MailKafka {
		m, err := mail.NewKafkaMailer(mail.KafkaConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			From:    cfg.From,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	return mail.NewNoopMailer(logger), nil
}
