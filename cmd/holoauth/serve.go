// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/holoauth/internal/auth"
	"github.com/holomush/holoauth/internal/config"
	"github.com/holomush/holoauth/internal/handler"
	"github.com/holomush/holoauth/internal/token"
)

// serveOptions holds flags specific to the serve command.
type serveOptions struct {
	migrate bool
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return newServeCmd(nil)
}

func newServeCmd(deps *Deps) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API for login, token refresh, logout, registration,
email verification, and password reset.

The default mail driver is noop: verification and password reset emails are
logged by kind and recipient and then dropped, so their codes never reach
users. Set mail.driver to kafka (HOLOAUTH_MAIL__DRIVER=kafka) to publish them
for delivery.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, cfg, opts, deps)
		},
	}

	cmd.Flags().BoolVar(&opts.migrate, "migrate", false, "apply pending database migrations before serving")

	return cmd
}

// runServe runs the API until ctx is cancelled or a server fails.
func runServe(ctx context.Context, cmd *cobra.Command, cfg *config.Config, opts *serveOptions, deps *Deps) error {
	deps = deps.withDefaults()

	if err := cfg.Validate(); err != nil {
		return oops.Code("CONFIG_INVALID").With("operation", "validate configuration").Wrap(err)
	}

	logger, err := setupLogging(cmd, cfg.Log)
	if err != nil {
		return oops.Code("LOGGING_SETUP_FAILED").Wrap(err)
	}

	if cfg.Database.Driver == config.DriverPostgres && cfg.Mail.Driver == config.MailNoop {
		logger.Warn("mail driver is noop, verification and reset codes will not be delivered",
			"event", "mail_delivery_disabled",
			"database_driver", cfg.Database.Driver,
			"mail_driver", cfg.Mail.Driver,
		)
	}

	signer, err := loadSigner(cfg.Tokens)
	if err != nil {
		return err
	}

	if opts.migrate {
		if cfg.Database.Driver != config.DriverPostgres {
			logger.Info("skipping migrations", "driver", cfg.Database.Driver)
		} else if err := autoMigrate(cfg.Database.URL, deps.MigratorFactory, logger); err != nil {
			return err
		}
	}

	repos, err := deps.RepositoryFactory(ctx, cfg.Database, logger)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("driver", cfg.Database.Driver).Wrap(err)
	}
	defer repos.Close()
	logger.Info("store ready", "driver", cfg.Database.Driver)

	mailer, err := deps.MailerFactory(cfg.Mail, logger)
	if err != nil {
		return oops.Code("MAIL_SETUP_FAILED").With("driver", cfg.Mail.Driver).Wrap(err)
	}
	defer func() {
		if closeErr := mailer.Close(); closeErr != nil {
			logger.Warn("failed to close mailer", "error", closeErr)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	authOpts := []auth.Option{
		auth.WithLogger(logger),
		auth.WithTokenTTL(cfg.Tokens.AccessTTL, cfg.Tokens.RefreshTTL),
	}
	routerOpts := []handler.Option{handler.WithLogger(logger)}

	var obsServer ObservabilityServer
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, repos.Ready, logger)
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.Code("OBSERVABILITY_START_FAILED").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability", logger)
		logger.Info("observability server started", "addr", obsServer.Addr())

		if m := obsServer.Metrics(); m != nil {
			authOpts = append(authOpts, auth.WithMetrics(m))
			routerOpts = append(routerOpts, handler.WithRequestMetrics(m))
		}
	}

	router, err := buildRouter(repos, signer, mailer, authOpts, routerOpts)
	if err != nil {
		stopObservability(obsServer, logger)
		return err
	}

	listener, err := deps.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		stopObservability(obsServer, logger)
		return oops.Code("HTTP_LISTEN_FAILED").With("addr", cfg.HTTP.Addr).Wrap(err)
	}

	httpServer := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errChan := make(chan error, 1)
	go func() {
		if serveErr := httpServer.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
		close(errChan)
	}()

	cmd.Println("holoauth started")
	logger.Info("http server listening", "addr", listener.Addr().String())

	var serveErr error
	select {
	case err, ok := <-errChan:
		if ok {
			serveErr = oops.Code("HTTP_SERVE_FAILED").Wrap(err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping http server", "error", err)
	}
	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return serveErr
}

// loadSigner parses both key pairs into a token signer.
func loadSigner(cfg config.TokensConfig) (*token.Signer, error) {
	access, err := token.LoadKeyPair(cfg.AccessPrivateKey, cfg.AccessPublicKey)
	if err != nil {
		return nil, oops.Code("TOKEN_KEYS_INVALID").With("role", token.RoleAccess.String()).Wrap(err)
	}
	refresh, err := token.LoadKeyPair(cfg.RefreshPrivateKey, cfg.RefreshPublicKey)
	if err != nil {
		return nil, oops.Code("TOKEN_KEYS_INVALID").With("role", token.RoleRefresh.String()).Wrap(err)
	}
	return token.NewSigner(access, refresh)
}

// buildRouter wires the services over repos into the HTTP router.
func buildRouter(
	repos *Repositories,
	signer *token.Signer,
	mailer auth.Mailer,
	authOpts []auth.Option,
	routerOpts []handler.Option,
) (*gin.Engine, error) {
	hasher := auth.NewArgon2idHasher()

	sessions, err := auth.NewAuthService(repos.Users, repos.Sessions, hasher, signer, authOpts...)
	if err != nil {
		return nil, err
	}
	accounts, err := auth.NewAccountService(repos.Users, hasher, mailer, authOpts...)
	if err != nil {
		return nil, err
	}
	resolver, err := auth.NewIdentityResolver(signer.Verifier, sessions, authOpts...)
	if err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	return handler.NewRouter(sessions, accounts, resolver, routerOpts...)
}

// autoMigrate applies pending migrations before the store is opened.
func autoMigrate(databaseURL string, factory func(string) (Migrator, error), logger *slog.Logger) error {
	migrator, err := factory(databaseURL)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Warn("failed to close migrator", "error", closeErr)
		}
	}()

	if err := migrator.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "apply migrations").Wrap(err)
	}
	logger.Info("migrations applied")
	return nil
}

func stopObservability(s ObservabilityServer, logger *slog.Logger) {
	if s == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		logger.Warn("failed to stop observability server during cleanup", "error", err)
	}
}

// monitorServerErrors cancels ctx when a server reports an error. It exits
// when the channel is closed or ctx is done.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			logger.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
