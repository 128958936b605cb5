package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"authcallback/internal/auth"
	"authcallback/internal/auth/adapter/callback"
	"authcallback/internal/auth/adapter/defaults"
	"authcallback/internal/auth/adapter/httpapi"
	"authcallback/internal/auth/adapter/inmem"
	"authcallback/internal/auth/middleware"
	"authcallback/internal/auth/resolver"
	"authcallback/internal/platform/config"
	"authcallback/internal/platform/server"
	"authcallback/internal/platform/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// Logging
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry
	shutdown, err := telemetry.Setup(context.Background(), "authd")
	if err != nil {
		slog.Error("telemetry setup failed", "error", err)
		os.Exit(1)
	}

	metrics, err := telemetry.NewAuthMetrics()
	if err != nil {
		slog.Error("metrics initialization failed", "error", err)
		os.Exit(1)
	}

	// Resolution pipeline: shared HTTP client, default-record loader and
	// the mock/live/default policy on top of them.
	httpClient := &http.Client{Timeout: 15 * time.Second}
	callbackClient, err := callback.NewClient(cfg.CallbackURI, httpClient, metrics)
	if err != nil {
		slog.Error("callback client initialization failed", "error", err)
		os.Exit(1)
	}
	loader := defaults.NewLoader(cfg.DefaultRecordPath())
	res := resolver.New(cfg.UseMockService, callbackClient, loader, metrics)
	provider := auth.NewProvider(res)

	// Sessions and rate limiting
	sessions := inmem.NewSessionStore(cfg.SessionTTL, time.Now)
	rl := inmem.NewRateLimiter(cfg.RateLimit.Rate, cfg.RateLimit.Burst, time.Now)
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sessions.Cleanup()
				rl.Cleanup()
			}
		}
	}()

	// Assemble middleware chain
	router := httpapi.NewRouter(provider, sessions, metrics)
	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.MetricsHandler())
	const maxBodyBytes = 64 << 10 // credentials are small
	mux.Handle("/", middleware.Chain(
		router,
		middleware.Metrics(metrics),
		middleware.RequestID,
		middleware.Logging(logger),
		middleware.Recovery,
		middleware.MaxBodySize(maxBodyBytes),
		middleware.RateLimit(rl, metrics),
	))

	// Start server
	srv := server.New(cfg.ListenAddr, mux)

	slog.Info("authd starting",
		"addr", cfg.ListenAddr,
		"callback_uri", cfg.CallbackURI,
		"use_mock_service", cfg.UseMockService,
		"default_record_path", cfg.DefaultRecordPath(),
		"session_ttl", cfg.SessionTTL,
	)

	if err := srv.Run(ctx); err != nil {
		slog.Error("server error", "error", err)
	}

	if err := shutdown(context.Background()); err != nil {
		slog.Error("telemetry shutdown error", "error", err)
	}
}
