package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"marketplace/internal/cache"
	"marketplace/internal/config"
	"marketplace/internal/http/handlers"
	applog "marketplace/internal/log"
	"marketplace/internal/payments"
	"marketplace/internal/repos"
	"marketplace/internal/telemetry"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applog.Init(applog.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	logger := applog.Logger()
	logger.WithFields(logrus.Fields{
		"address": cfg.Address,
		"db_dsn":  cfg.DBDSN,
		"app_url": cfg.AppURL,
		"fee_pct": cfg.PlatformFeePercentage.String(),
		"redis":   cfg.RedisURL != "",
		"otel":    cfg.OTelExporter,
	}).Info("config.loaded")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Options{
		ServiceName: "marketplace",
		Exporter:    cfg.OTelExporter,
		Endpoint:    cfg.OTelEndpoint,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.WithError(err).Warn("telemetry.shutdown.fail")
		}
	}()

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	if cfg.SeedDemo {
		if err := repos.SeedDemo(ctx, db); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	var categoryCache cache.Cache
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			// The catalog works without a cache; only the category tree is cached.
			logger.WithError(err).Warn("cache.redis.unavailable")
		} else {
			defer rc.Close()
			categoryCache = rc
		}
	}

	if cfg.StripeSecretKey == "" {
		logger.Warn("payments.stripe.no_key")
	}
	provider := payments.NewStripe(cfg.StripeSecretKey, cfg.StripeWebhookSecret)

	app := handlers.NewApp(cfg, handlers.NewDeps(db, cfg, provider, categoryCache))

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("address", cfg.Address).Info("server.start")
		errCh <- app.Listen(cfg.Address)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("server.shutdown")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
