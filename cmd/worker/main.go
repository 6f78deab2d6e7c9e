// Command worker runs the background analysis consumer. It pulls quiz
// analysis tasks from Redpanda, calls the AI provider, and writes terminal
// submission statuses.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pathfinderhq/pathfinder-backend/internal/adapter/ai/openrouter"
	"github.com/pathfinderhq/pathfinder-backend/internal/adapter/observability"
	"github.com/pathfinderhq/pathfinder-backend/internal/adapter/queue/redpanda"
	"github.com/pathfinderhq/pathfinder-backend/internal/adapter/repo/mongodb"
	"github.com/pathfinderhq/pathfinder-backend/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	// The worker exposes its own /metrics so job-queue instrumentation is
	// scrapeable independently of the API process.
	observability.InitMetrics()
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":9090", mux); err != nil {
			slog.Error("worker metrics server error", slog.Any("error", err))
		}
	}()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	slog.Info("starting worker", slog.String("env", cfg.AppEnv))

	ctx := context.Background()
	client, err := mongodb.Connect(ctx, cfg.MongoURI)
	if err != nil {
		slog.Error("mongo connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	subRepo := mongodb.NewSubmissionRepo(client.Database(cfg.MongoDB))
	aicl := openrouter.New(cfg)

	consumer, err := redpanda.NewConsumer(cfg, subRepo, aicl)
	if err != nil {
		slog.Error("redpanda consumer init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := consumer.Close(); err != nil {
			slog.Error("failed to close consumer", slog.Any("error", err))
		}
	}()

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := consumer.Start(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("consumer stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("worker stopped")
}
