package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-tracker/internal/api/http"
	"github.com/spec-kit/helpdesk-tracker/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-tracker/internal/config"
	"github.com/spec-kit/helpdesk-tracker/internal/events"
	"github.com/spec-kit/helpdesk-tracker/internal/observability"
	"github.com/spec-kit/helpdesk-tracker/internal/persistence"
	"github.com/spec-kit/helpdesk-tracker/internal/service"
	"github.com/spec-kit/helpdesk-tracker/internal/store"
	"github.com/spec-kit/helpdesk-tracker/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var session persistence.SessionStore
	if err := redis.Ping(ctx); err != nil {
		logger.Warn("redis unavailable, falling back to in-memory session store", zap.Error(err))
		session = persistence.NewMemorySessionStore()
	} else {
		session = persistence.NewRedisSessionStore(redis, cfg.Storage.KeyPrefix, cfg.Storage.SessionTTL(), logger, metrics)
	}

	notifier := events.NewNotifier()
	ticketStore := store.New(store.Dependencies{
		Session:  session,
		Notifier: notifier,
		Logger:   logger,
		Metrics:  metrics,
	})
	ticketStore.Restore(ctx)

	activityLog := service.NewActivityLog(notifier, logger)
	worker.StartActivityWorker(activityLog)
	defer activityLog.Close()

	preferences := store.NewPreferences(session)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, redis, metrics),
		Tickets:     handlers.NewTicketsHandler(ticketStore),
		Preferences: handlers.NewPreferencesHandler(preferences),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
