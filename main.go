// Package main runs the peer-messaging relay.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clarity-platform/peer-relay/internal"
	"github.com/clarity-platform/peer-relay/internal/handler"
	"github.com/clarity-platform/peer-relay/internal/presence"
	ratelimiter "github.com/clarity-platform/peer-relay/internal/rate_limiter"
	"github.com/clarity-platform/peer-relay/internal/relay"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}
	setupLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}

	tokenSecret := os.Getenv("JWT_SECRET")
	if tokenSecret == "" {
		slog.Error("JWT_SECRET environment variable is not set")
		os.Exit(1)
	}

	// Mirrors the frontend URL the platform serves the chat UI from; empty
	// disables the origin check for local development.
	allowedOrigin := os.Getenv("ALLOWED_ORIGIN")

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector())
	metrics := relay.NewMetrics(promReg)

	registry := presence.NewRegistry()
	engine := relay.NewEngine(registry, metrics)

	limiter := ratelimiter.NewIPRateLimiter(30, time.Minute, ratelimiter.CleanupOpts{
		TTL:      5 * time.Minute,
		Interval: time.Minute,
	})
	defer limiter.Cancel()

	mux := chi.NewRouter()
	mux.Get("/", handler.ServeRoot())
	mux.Get("/healthz", handler.ServeHealthz())
	mux.Get("/stats", handler.ServeStats(engine))
	mux.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	mux.Method(http.MethodGet, "/ws",
		limiter.Middleware(internal.Middleware(handler.ServeWs(engine, allowedOrigin), tokenSecret, metrics)))

	server := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("relay starting", "addr", server.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown signal received; shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}

	slog.Info("relay stopped")
}

func setupLogger() {
	level := slog.LevelInfo
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}
