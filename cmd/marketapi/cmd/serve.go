package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"github.com/gigmarket/marketapi/internal/auth"
	"github.com/gigmarket/marketapi/internal/config"
	"github.com/gigmarket/marketapi/internal/db/bunx"
	"github.com/gigmarket/marketapi/internal/middleware"
	"github.com/gigmarket/marketapi/internal/repository"
	"github.com/gigmarket/marketapi/internal/server"
	"github.com/gigmarket/marketapi/internal/services/iam"
	"github.com/gigmarket/marketapi/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the marketapi HTTP server",
	Long:  `Starts the HTTP server with the authentication gate, dashboard entry routes and /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		shutdownTelemetry, err := telemetry.Init(ctx, cfg.Observability, logger.WithName("telemetry"))
		if err != nil {
			return fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTelemetry(sctx); err != nil {
				logger.Error(err, "telemetry shutdown failed")
			}
		}()

		db, err := bunx.NewDB(ctx, cfg.DatabaseURL, cfg.MaxDBConnections)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer bunx.Close(db)
		logger.Info("connected to database")

		handler, err := buildHandler(cfg, db)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:         cfg.ServerAddr,
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting server", "addr", cfg.ServerAddr, "url", cfg.ServerURL)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("shutting down gracefully", "signal", sig.String())

			sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := srv.Shutdown(sctx); err != nil {
				srv.Close()
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}

			logger.Info("server stopped")
			return nil
		}
	},
}

// buildHandler wires repositories, the resolver chain and both gates into the router.
func buildHandler(cfg *config.Config, db *bun.DB) (http.Handler, error) {
	if !cfg.Auth.EnforceSessionExpiry {
		logger.Info("WARNING: persisted session expiry is not enforced (auth.enforce_session_expiry=false)")
	}

	dir, err := demoDirectory(cfg.Auth)
	if err != nil {
		return nil, err
	}

	metrics := telemetry.NewAuthMetrics()
	sessions := repository.NewBunSessionRepository(db)
	subscriptions := repository.NewBunSubscriptionRepository(db)

	resolver := iam.NewResolver(logger, metrics,
		iam.NewPersistedStrategy(sessions, iam.PersistedConfig{
			LookupTimeout: cfg.Auth.LookupTimeout,
			EnforceExpiry: cfg.Auth.EnforceSessionExpiry,
		}),
		iam.NewSyntheticStrategy(dir, cfg.Auth.SyntheticHorizon, nil),
	)

	authn, err := middleware.NewAuthnMiddleware(middleware.AuthnDependencies{
		Extractor: auth.NewExtractor(
			auth.WithCookieNames(cfg.Auth.PrimaryCookie, cfg.Auth.LegacyCookie),
			auth.WithQueryParam(cfg.Auth.QueryParam),
		),
		Resolver:  resolver,
		LoginPath: cfg.Auth.LoginPath,
		Logger:    logger,
		Metrics:   metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("configure authentication middleware: %w", err)
	}

	subscription := middleware.NewSubscriptionMiddleware(middleware.SubscriptionDependencies{
		Checker: iam.NewSubscriptionChecker(subscriptions, iam.SubscriptionConfig{
			LookupTimeout: cfg.Subscription.LookupTimeout,
			CacheTTL:      cfg.Subscription.CacheTTL,
			CacheSize:     cfg.Subscription.CacheSize,
		}, metrics),
		Logger:  logger,
		Metrics: metrics,
	})

	healthHandler := func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := db.PingContext(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"status":"degraded","database":false}`)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"ok","database":true}`)
	}

	return server.NewRouter(server.RouterOptions{
		Authn:         authn,
		Subscription:  subscription,
		Metrics:       metrics,
		Logger:        logger,
		HealthHandler: healthHandler,
	}), nil
}

// demoDirectory builds the directory from auth.demo_identities, or the
// built-in fixtures when none are configured.
func demoDirectory(a config.AuthConfig) (*auth.DemoDirectory, error) {
	if len(a.DemoIdentities) == 0 {
		return auth.DefaultDemoDirectory(), nil
	}
	identities := make([]auth.DemoIdentity, 0, len(a.DemoIdentities))
	for _, c := range a.DemoIdentities {
		role, err := auth.ParseRole(c.Role)
		if err != nil {
			return nil, fmt.Errorf("auth.demo_identities: subject %d: %w", c.SubjectID, err)
		}
		identities = append(identities, auth.DemoIdentity{
			SubjectID: c.SubjectID,
			FirstName: c.FirstName,
			LastName:  c.LastName,
			Email:     c.Email,
			Role:      role,
			Verified:  c.Verified,
		})
	}
	dir, err := auth.NewDemoDirectory(identities)
	if err != nil {
		return nil, fmt.Errorf("auth.demo_identities: %w", err)
	}
	return dir, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
