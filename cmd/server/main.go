// Command main is the entry point for the Threadboard forum API.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"threadboard/internal/bootstrap"
	"threadboard/internal/config"
	"threadboard/internal/middleware"
	"threadboard/internal/observability"
	"threadboard/internal/oracle"
	"threadboard/internal/search"
	"threadboard/internal/server"
)

// @title Threadboard API
// @version 1.0
// @description Community forum API with threads, replies, likes and AI-assisted answers.

// @contact.name API Support
// @contact.email support@threadboard.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:5000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.Logger = middleware.NewLogger(cfg.Env)

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "threadboard-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampler,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	ctx := context.Background()
	db, rdb, err := bootstrap.InitRuntime(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	guard := bootstrap.NewGuard()
	deps := server.Deps{Config: cfg, DB: db, Redis: rdb, Background: guard.Go}

	var meili *search.Meili
	if cfg.MeiliURL != "" {
		meili = search.NewMeili(cfg.MeiliURL, cfg.MeiliAPIKey)
		deps.Search = meili
		guard.Go("search-health", meili.Monitor)
	}

	if cfg.GeminiAPIKey != "" {
		gemini, gerr := oracle.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if gerr != nil {
			middleware.Logger.Warn("AI assistant disabled", slog.String("error", gerr.Error()))
		} else {
			deps.Oracle = gemini
		}
	} else {
		middleware.Logger.Warn("GEMINI_API_KEY not set; AI endpoints will report the service as unavailable")
	}

	srv, err := server.NewServer(deps)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	sigCtx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Start() }()

	stopErr := bootstrap.AwaitStop(sigCtx, guard, serveErr)
	stopSignals()
	if stopErr != nil {
		middleware.Logger.Error("Server stopping after failure", slog.String("error", stopErr.Error()))
	} else {
		middleware.Logger.Info("Shutting down server")
	}

	// everything below finishes before main returns so spans and close errors are not lost
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		middleware.Logger.Error("Server shutdown error", slog.String("error", err.Error()))
	}
	if meili != nil {
		meili.Close()
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		middleware.Logger.Error("Tracing shutdown error", slog.String("error", err.Error()))
	}

	if stopErr != nil {
		cancel()
		os.Exit(1)
	}
}
