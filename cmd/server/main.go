// Command server starts the PathFinder HTTP API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	httpserver "github.com/pathfinderhq/pathfinder-backend/internal/adapter/httpserver"
	"github.com/pathfinderhq/pathfinder-backend/internal/adapter/observability"
	"github.com/pathfinderhq/pathfinder-backend/internal/adapter/queue/redpanda"
	"github.com/pathfinderhq/pathfinder-backend/internal/adapter/ratelimit"
	"github.com/pathfinderhq/pathfinder-backend/internal/adapter/repo/mongodb"
	"github.com/pathfinderhq/pathfinder-backend/internal/app"
	"github.com/pathfinderhq/pathfinder-backend/internal/config"
	"github.com/pathfinderhq/pathfinder-backend/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	// Infra: Mongo client
	ctx := context.Background()
	client, err := mongodb.Connect(ctx, cfg.MongoURI)
	if err != nil {
		slog.Error("mongo connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	db := client.Database(cfg.MongoDB)
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		slog.Error("mongo index setup failed", slog.Any("error", err))
		os.Exit(1)
	}

	// Repositories
	subRepo := mongodb.NewSubmissionRepo(db)
	userRepo := mongodb.NewUserRepo(db)
	interRepo := mongodb.NewInteractionRepo(db)

	// Queue producer
	producer, err := redpanda.NewProducer(cfg.KafkaBrokers)
	if err != nil {
		slog.Error("redpanda producer connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := producer.Close(); err != nil {
			slog.Error("failed to close queue producer", slog.Any("error", err))
		}
	}()

	// Redis: distributed submit limiter, optional
	var (
		rdb         *redis.Client
		submitLimit func(http.Handler) http.Handler
	)
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid redis url", slog.Any("error", err))
			os.Exit(1)
		}
		rdb = redis.NewClient(opt)
		limiter := ratelimit.New(rdb, "rl:submit", cfg.SubmitRateLimitPerMin)
		submitLimit = limiter.Middleware(httpserver.ClientIP, func(w http.ResponseWriter, r *http.Request, err error) {
			httpserver.WriteError(w, r, err, nil)
		})
	}

	// Usecases
	submitSvc := usecase.NewSubmitService(subRepo, producer)
	resultSvc := usecase.NewResultService(subRepo, cfg.DemoMode)
	analyticsSvc := usecase.NewAnalyticsService(subRepo, interRepo)
	adminSvc := usecase.NewAdminService(userRepo)

	// Readiness checks
	dbCheck, redisCheck, kafkaCheck := app.BuildReadinessChecks(
		app.PingerFunc(func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) }),
		redisPinger(rdb),
		app.PingerFunc(producer.Ping),
	)

	sessions := httpserver.NewSessionManager(cfg)
	srv := httpserver.NewServer(cfg, submitSvc, resultSvc, analyticsSvc, adminSvc, userRepo, sessions, dbCheck, redisCheck, kafkaCheck)

	handler := app.BuildRouter(cfg, srv, interRepo, submitLimit)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}

func redisPinger(rdb *redis.Client) app.Pinger {
	if rdb == nil {
		return nil
	}
	return app.PingerFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
}
