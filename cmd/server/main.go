// Dragon Haven - focus companion server
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

	"github.com/dragonhaven/server/internal/api"
	"github.com/dragonhaven/server/internal/config"
	"github.com/dragonhaven/server/internal/genai"
	"github.com/dragonhaven/server/internal/middleware"
	"github.com/dragonhaven/server/internal/session"
	"github.com/dragonhaven/server/internal/store"
	"github.com/dragonhaven/server/internal/stream"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	state := repo.Load(context.Background())
	slog.Info("State loaded", "dragons", len(state.Dragons), "points", state.UserPoints)

	// Generative asset client is optional; without it the evolution ritual
	// is skipped and stage commits happen directly.
	var gen genai.Generator
	if cfg.AIEnabled() {
		client, err := genai.NewClient(genai.ClientConfig{
			APIKey:       cfg.GeminiAPIKey,
			PollInterval: cfg.VideoPollInterval,
		}, logger)
		if err != nil {
			slog.Warn("Failed to initialize generation client, cinematics disabled", "error", err)
		} else {
			defer client.Close()
			gen = client
			slog.Info("Generation client initialized")
		}
	} else {
		slog.Info("Cinematic evolutions disabled (GEMINI_API_KEY not set)")
	}

	hub := stream.NewHub()

	engine := session.New(state, repo, gen, hub, session.Config{
		RewardPoints:          cfg.SessionRewardPoints,
		UnlockCost:            cfg.UnlockCostPoints,
		MinSessionMinutes:     cfg.MinSessionMinutes,
		DefaultSessionMinutes: cfg.DefaultSessionMinutes,
	}, logger)
	defer engine.Close()

	// Initialize handlers.
	apiHandler := api.NewHandler(engine)
	wsHandler := stream.NewWebSocketHandler(hub, cfg.FrontendURL, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{"*"}))

	apiHandler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.Get("/ws/events", wsHandler.ServeHTTP)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // websocket streams stay open indefinitely
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
