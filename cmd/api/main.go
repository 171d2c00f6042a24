package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GyabaahFelix/lynqed-backend/api/routes"
	"github.com/GyabaahFelix/lynqed-backend/internal/cart"
	checkoutsvc "github.com/GyabaahFelix/lynqed-backend/internal/checkout"
	"github.com/GyabaahFelix/lynqed-backend/internal/delivery"
	"github.com/GyabaahFelix/lynqed-backend/internal/identity"
	"github.com/GyabaahFelix/lynqed-backend/internal/media"
	"github.com/GyabaahFelix/lynqed-backend/internal/notifications"
	"github.com/GyabaahFelix/lynqed-backend/internal/orders"
	"github.com/GyabaahFelix/lynqed-backend/internal/products"
	"github.com/GyabaahFelix/lynqed-backend/internal/snapshot"
	"github.com/GyabaahFelix/lynqed-backend/internal/users"
	"github.com/GyabaahFelix/lynqed-backend/internal/vendors"
	"github.com/GyabaahFelix/lynqed-backend/pkg/auth/session"
	"github.com/GyabaahFelix/lynqed-backend/pkg/config"
	"github.com/GyabaahFelix/lynqed-backend/pkg/db"
	"github.com/GyabaahFelix/lynqed-backend/pkg/logger"
	"github.com/GyabaahFelix/lynqed-backend/pkg/metrics"
	"github.com/GyabaahFelix/lynqed-backend/pkg/migrate"
	"github.com/GyabaahFelix/lynqed-backend/pkg/outbox"
	"github.com/GyabaahFelix/lynqed-backend/pkg/redis"
	"github.com/GyabaahFelix/lynqed-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap cloud storage", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing cloud storage", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	vendorRepo := vendors.NewRepository(dbClient.DB())
	productRepo := products.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())
	deliveryRepo := delivery.NewRepository(dbClient.DB())
	notificationRepo := notifications.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	userService, err := users.NewService(users.ServiceParams{
		DB:       dbClient,
		Repo:     userRepo,
		Outbox:   outboxService,
		Sessions: sessionManager,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create user service", err)
		os.Exit(1)
	}

	vendorService, err := vendors.NewService(vendors.ServiceParams{
		DB:         dbClient,
		VendorRepo: vendorRepo,
		UserRepo:   userRepo,
		Outbox:     outboxService,
	})
	if err != nil {
		logg.Error(ctx, "failed to create vendor service", err)
		os.Exit(1)
	}

	productService, err := products.NewService(products.ServiceParams{
		DB:          dbClient,
		ProductRepo: productRepo,
		VendorRepo:  vendorRepo,
		Outbox:      outboxService,
	})
	if err != nil {
		logg.Error(ctx, "failed to create product service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		CartRepo:    cartRepo,
		ProductRepo: productRepo,
		Mirror:      redisClient,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create cart service", err)
		os.Exit(1)
	}

	identityService, err := identity.NewService(identity.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		RoleStore:      redisClient,
		Cart:           cartService,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create identity service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		DB:          dbClient,
		CartRepo:    cartRepo,
		OrderRepo:   orderRepo,
		ProductRepo: productRepo,
		VendorRepo:  vendorRepo,
		Outbox:      outboxService,
		Mirror:      redisClient,
		Config:      cfg.Checkout,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		DB:         dbClient,
		Repo:       orderRepo,
		VendorRepo: vendorRepo,
		Riders:     deliveryRepo,
		Outbox:     outboxService,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create order service", err)
		os.Exit(1)
	}

	deliveryService, err := delivery.NewService(delivery.ServiceParams{
		DB:       dbClient,
		Repo:     deliveryRepo,
		UserRepo: userRepo,
		Jobs:     orderRepo,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create delivery service", err)
		os.Exit(1)
	}

	notificationService, err := notifications.NewService(notifications.ServiceParams{
		Repo: notificationRepo,
	})
	if err != nil {
		logg.Error(ctx, "failed to create notification service", err)
		os.Exit(1)
	}

	mediaService, err := media.NewService(gcsClient.BucketHandle(gcsClient.DefaultBucket()), logg)
	if err != nil {
		logg.Error(ctx, "failed to create media service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()

	snapshotSource, err := snapshot.NewDBSource(dbClient)
	if err != nil {
		logg.Error(ctx, "failed to create snapshot source", err)
		os.Exit(1)
	}
	snapshotService, err := snapshot.NewService(snapshot.ServiceParams{
		Source:  snapshotSource,
		Cache:   snapshot.NewCache(),
		Metrics: metrics.NewRefreshMetrics(registry),
		Logger:  logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create snapshot service", err)
		os.Exit(1)
	}
	go snapshotService.Run(ctx)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	startCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(startCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:         cfg,
			Logger:         logg,
			DB:             dbClient,
			Redis:          redisClient,
			Session:        sessionManager,
			Identity:       identityService,
			Users:          userService,
			Vendors:        vendorService,
			Products:       productService,
			Cart:           cartService,
			Checkout:       checkoutService,
			Orders:         orderService,
			Delivery:       deliveryService,
			Notifications:  notificationService,
			Media:          mediaService,
			Snapshot:       snapshotService,
			MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
		logg.Info(context.Background(), "api server stopped")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(startCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	}
}
