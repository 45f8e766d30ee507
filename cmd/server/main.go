package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gdugdh24/spark-backend/internal/config"
	"github.com/gdugdh24/spark-backend/internal/infrastructure/container"
	"github.com/gdugdh24/spark-backend/internal/infrastructure/database"
	"github.com/gdugdh24/spark-backend/internal/infrastructure/logger"
	"github.com/gdugdh24/spark-backend/internal/infrastructure/tracing"
)

const sessionPurgeInterval = time.Hour

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Server.IsProduction())
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", zap.Error(err))
		os.Exit(1)
	}

	log.Info("server exited properly")
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Server.Env,
			AttachStacktrace: true,
		}); err != nil {
			return fmt.Errorf("failed to init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	shutdownTracing, err := tracing.Setup(ctx, &cfg.Tracing, cfg.Server.Env)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("failed to flush traces", zap.Error(err))
		}
	}()

	app, err := container.NewContainer(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error("error closing application", zap.Error(err))
		}
	}()

	if err := database.Migrate(app.DB, cfg.Database.MigrationsPath, log); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(app.Server.Start)

	g.Go(func() error {
		<-gctx.Done()
		return app.Server.Shutdown(context.Background())
	})

	g.Go(func() error {
		ticker := time.NewTicker(sessionPurgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				n, err := app.Auth.PurgeExpiredSessions(gctx)
				if err != nil {
					log.Warn("failed to purge sessions", zap.Error(err))
					continue
				}
				if n > 0 {
					log.Info("purged expired sessions", zap.Int64("count", n))
				}
			}
		}
	})

	return g.Wait()
}
