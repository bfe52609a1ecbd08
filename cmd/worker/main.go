package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/nikhilbhutani/langcoach/internal/config"
	"github.com/nikhilbhutani/langcoach/internal/persistence"
	"github.com/nikhilbhutani/langcoach/internal/queue"
	"github.com/nikhilbhutani/langcoach/internal/queue/workers"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to read .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidatePersistence(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// The API server owns migrations.
	backend, err := persistence.Open(context.Background(), cfg, false)
	if err != nil {
		slog.Error("failed to open store", "backend", cfg.Persistence.Backend, "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: cfg.Worker.Concurrency,
			Logger:      queue.NewLogger(logger),
		},
	)

	registry := queue.NewHandlersRegistry()

	sessionWorker := workers.NewSessionWorker(backend.Store)
	registry.RegisterFunc(queue.TypeSessionRecord, sessionWorker.ProcessTask)

	slog.Info("starting worker",
		"concurrency", cfg.Worker.Concurrency,
		"tasks", registry.Types(),
	)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
