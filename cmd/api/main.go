package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/langcoach/internal/api"
	"github.com/nikhilbhutani/langcoach/internal/api/handlers"
	"github.com/nikhilbhutani/langcoach/internal/cache"
	"github.com/nikhilbhutani/langcoach/internal/coach"
	"github.com/nikhilbhutani/langcoach/internal/config"
	"github.com/nikhilbhutani/langcoach/internal/metrics"
	"github.com/nikhilbhutani/langcoach/internal/persistence"
	"github.com/nikhilbhutani/langcoach/internal/queue"
	"github.com/nikhilbhutani/langcoach/internal/session"
	"github.com/nikhilbhutani/langcoach/internal/stt"
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
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	backend, err := persistence.Open(ctx, cfg, true)
	if err != nil {
		slog.Error("failed to open store", "backend", cfg.Persistence.Backend, "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	// Redis is optional for the direct recorder: the catalog cache falls
	// back to the store when it is down.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, running without cache", "error", err)
	}
	defer rdb.Close()

	catalog := cache.NewLanguageCatalog(backend.Store, cache.NewCache(rdb), cfg.Persistence.LanguageCacheTTL)
	if err := catalog.Invalidate(ctx); err != nil {
		slog.Debug("language cache not invalidated", "error", err)
	}

	var recorder session.Recorder
	switch cfg.Persistence.SessionRecorder {
	case "queue":
		qc := queue.NewClient(cfg.Redis)
		defer qc.Close()
		recorder = session.NewQueueRecorder(qc)
	default:
		recorder = session.NewDirectRecorder(backend.Store)
	}

	sttProvider, err := stt.NewFromConfig(cfg.STT)
	if err != nil {
		slog.Error("failed to configure transcription", "error", err)
		os.Exit(1)
	}
	if err := sttProvider.Validate(); err != nil {
		slog.Warn("transcription provider not ready, requests will fail", "provider", sttProvider.Name(), "error", err)
	}

	coachGW := coach.NewGateway(cfg.Coach)
	if !coachGW.Enabled() {
		slog.Info("coach replies disabled", "provider", cfg.Coach.Provider)
	}

	router := api.NewRouter(cfg, api.Deps{
		Store:     backend.Store,
		Languages: catalog,
		Recorder:  recorder,
		STT:       sttProvider,
		Coach:     coachGW,
		Metrics:   metrics.New(prometheus.DefaultRegisterer),
		Readiness: map[string]handlers.Pinger{
			"store": backend.Store,
			"redis": handlers.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
		},
	})
	handler := router.Setup()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // transcription of long recordings
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server",
			"addr", cfg.Addr(),
			"persistence", cfg.Persistence.Backend,
			"recorder", cfg.Persistence.SessionRecorder,
			"stt", sttProvider.Name(),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
