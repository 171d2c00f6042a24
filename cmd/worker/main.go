package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GyabaahFelix/lynqed-backend/internal/notifications"
	"github.com/GyabaahFelix/lynqed-backend/internal/snapshot"
	"github.com/GyabaahFelix/lynqed-backend/internal/vendors"
	"github.com/GyabaahFelix/lynqed-backend/pkg/config"
	"github.com/GyabaahFelix/lynqed-backend/pkg/db"
	"github.com/GyabaahFelix/lynqed-backend/pkg/logger"
	"github.com/GyabaahFelix/lynqed-backend/pkg/metrics"
	"github.com/GyabaahFelix/lynqed-backend/pkg/outbox"
	"github.com/GyabaahFelix/lynqed-backend/pkg/outbox/idempotency"
	"github.com/GyabaahFelix/lynqed-backend/pkg/pubsub"
	"github.com/GyabaahFelix/lynqed-backend/pkg/redis"
)

const consumerIdempotencyTTL = 48 * time.Hour

// The worker runs the outbox publisher, the entity cache refresher with
// its change-feed consumer, and the notification fan-out consumer.
func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer pubsubClient.Close()

	registry := prometheus.NewRegistry()
	refreshMetrics := metrics.NewRefreshMetrics(registry)
	consumerMetrics := metrics.NewConsumerMetrics(registry)

	idempotencyManager, err := idempotency.NewManager(redisClient, consumerIdempotencyTTL)
	if err != nil {
		logg.Error(ctx, "failed to create idempotency manager", err)
		os.Exit(1)
	}

	publisher, err := outbox.NewPublisher(outbox.PublisherParams{
		Config: cfg.Outbox,
		Logger: logg,
		DB:     dbClient,
		PubSub: pubsubClient,
		Repo:   outbox.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(ctx, "failed to create outbox publisher", err)
		os.Exit(1)
	}

	snapshotSource, err := snapshot.NewDBSource(dbClient)
	if err != nil {
		logg.Error(ctx, "failed to create snapshot source", err)
		os.Exit(1)
	}
	snapshotService, err := snapshot.NewService(snapshot.ServiceParams{
		Source:  snapshotSource,
		Cache:   snapshot.NewCache(),
		Metrics: refreshMetrics,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create snapshot service", err)
		os.Exit(1)
	}

	snapshotConsumer, err := snapshot.NewConsumer(
		snapshotService,
		pubsubClient.SnapshotSubscription(),
		idempotencyManager,
		consumerMetrics,
		logg,
	)
	if err != nil {
		logg.Error(ctx, "failed to create snapshot consumer", err)
		os.Exit(1)
	}

	notificationConsumer, err := notifications.NewConsumer(
		notifications.NewRepository(dbClient.DB()),
		vendors.NewRepository(dbClient.DB()),
		pubsubClient.NotificationsSubscription(),
		idempotencyManager,
		consumerMetrics,
		logg,
	)
	if err != nil {
		logg.Error(ctx, "failed to create notification consumer", err)
		os.Exit(1)
	}

	startCtx := logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(startCtx, "starting worker")

	metricsServer := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && ctx.Err() == nil {
				logg.Error(logg.WithField(ctx, "component", name), "worker component stopped", err)
				stop()
			}
		}()
	}

	run("outbox-publisher", publisher.Run)
	run("snapshot-refresher", func(ctx context.Context) error {
		snapshotService.Run(ctx)
		return nil
	})
	run("snapshot-consumer", snapshotConsumer.Run)
	run("notification-consumer", notificationConsumer.Run)

	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "metrics server stopped unexpectedly", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
	wg.Wait()
	logg.Info(context.Background(), "worker stopped")
}
