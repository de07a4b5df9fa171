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
	"github.com/rs/zerolog"

	"github.com/mnldiecast/storefront-backend/api/controllers"
	"github.com/mnldiecast/storefront-backend/api/routes"
	"github.com/mnldiecast/storefront-backend/internal/cart"
	"github.com/mnldiecast/storefront-backend/internal/catalog"
	"github.com/mnldiecast/storefront-backend/internal/orders"
	"github.com/mnldiecast/storefront-backend/pkg/config"
	"github.com/mnldiecast/storefront-backend/pkg/db"
	"github.com/mnldiecast/storefront-backend/pkg/env"
	"github.com/mnldiecast/storefront-backend/pkg/instance"
	"github.com/mnldiecast/storefront-backend/pkg/logger"
	"github.com/mnldiecast/storefront-backend/pkg/metrics"
	"github.com/mnldiecast/storefront-backend/pkg/migrate"
	"github.com/mnldiecast/storefront-backend/pkg/pubsub"
	"github.com/mnldiecast/storefront-backend/pkg/redis"
)

func main() {
	bootLogg := logger.New(logger.Options{ServiceName: "storefront-api", Level: zerolog.InfoLevel})
	ctx := context.Background()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLogg.Error(ctx, "loading config failed", err)
		os.Exit(1)
	}

	logg := logger.New(logger.Options{
		ServiceName: "storefront-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"instance": instance.GetID(),
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "connecting to database failed", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "auto-migration failed", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "connecting to redis failed", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	storefrontMetrics := metrics.NewStorefrontMetrics(prometheus.DefaultRegisterer)

	variantRepo := catalog.NewRepository(dbClient.DB())
	remoteCarts := cart.NewRemoteBackend(dbClient.DB())
	guestCarts := cart.NewGuestBackend(redisClient, cfg.Cart.GuestTTL)
	broadcaster := cart.NewRedisBroadcaster(redisClient, logg)

	cartService, err := cart.NewService(remoteCarts, guestCarts, variantRepo, broadcaster, storefrontMetrics, logg, cfg.Cart)
	if err != nil {
		logg.Error(ctx, "wiring cart service failed", err)
		os.Exit(1)
	}

	var notifier orders.Notifier = orders.NoopNotifier{}
	if cfg.ApprovalsEnabled() {
		psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(ctx, "connecting to pub/sub failed", err)
			os.Exit(1)
		}
		defer psClient.Close()
		notifier = orders.NewPubSubNotifier(psClient, logg)
	} else {
		logg.Warn(ctx, "approvals publishing disabled; orders will wait in the queue")
	}

	orderRepo := orders.NewRepository(dbClient.DB())
	orderService, err := orders.NewService(dbClient, orderRepo, cartService, notifier, storefrontMetrics, logg)
	if err != nil {
		logg.Error(ctx, "wiring order service failed", err)
		os.Exit(1)
	}

	listenCtx, stopListen := context.WithCancel(ctx)
	defer stopListen()
	go func() {
		err := broadcaster.Listen(listenCtx, func(event cart.ChangeEvent) {
			logg.Debug(logg.WithFields(listenCtx, map[string]any{
				"key": event.Key,
				"op":  event.Op,
			}), "cart changed on another instance")
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "cart change listener stopped", err)
		}
	}()
	go func() {
		err := broadcaster.ListenStock(listenCtx, func(event cart.StockEvent) {
			if err := cartService.ReclampVariant(listenCtx, event.VariantID); err != nil {
				logg.Error(logg.WithVariantID(listenCtx, event.VariantID.String()), "re-clamping carts after stock change failed", err)
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "stock change listener stopped", err)
		}
	}()

	router := routes.NewRouter(cfg, logg, map[string]controllers.Pinger{
		"database": dbClient,
		"redis":    redisClient,
	}, cartService, orderService)

	// Platform-injected PORT wins over configured port.
	port := env.Get("PORT", cfg.App.Port)
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(logg.WithField(ctx, "port", port), "storefront api listening")
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "http server failed", err)
			os.Exit(1)
		}
	case sig := <-sigCh:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")
		stopListen()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}

	logg.Info(ctx, "storefront api stopped")
}
