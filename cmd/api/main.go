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
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/shopcart/api/routes"
	"github.com/angelmondragon/shopcart/internal/cart"
	"github.com/angelmondragon/shopcart/pkg/config"
	"github.com/angelmondragon/shopcart/pkg/logger"
	"github.com/angelmondragon/shopcart/pkg/metrics"
	"github.com/angelmondragon/shopcart/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

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

	var closers []func() error
	deps := routes.Deps{
		Config:   cfg,
		Logger:   logg,
		Metrics:  metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),
		Gatherer: routes.MetricsHandler(),
	}

	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		closers = append(closers, redisClient.Close)
		deps.Redis = redisClient
	} else {
		logg.Warn(ctx, "redis not configured, idempotency replay and write throttling disabled")
	}

	cartService, err := cart.NewService(cart.NewMemoryRepository())
	if err != nil {
		logg.Error(ctx, "failed to create cart service", err)
		os.Exit(1)
	}
	deps.CartService = cartService

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		logg.Info(ctx, "shutting down api server")
		return server.Shutdown(shutdownCtx)
	})

	runErr := group.Wait()
	for _, closeFn := range closers {
		runErr = multierr.Append(runErr, closeFn())
	}
	if runErr != nil {
		logg.Error(ctx, "api server stopped unexpectedly", runErr)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}
