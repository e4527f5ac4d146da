package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lucavoss/adeptly-backend/internal/app"
	redisclient "github.com/lucavoss/adeptly-backend/internal/clients/redis"
	"github.com/lucavoss/adeptly-backend/internal/content"
	"github.com/lucavoss/adeptly-backend/internal/data/db"
	"github.com/lucavoss/adeptly-backend/internal/data/repos"
	"github.com/lucavoss/adeptly-backend/internal/http/handlers"
	"github.com/lucavoss/adeptly-backend/internal/jobs"
	"github.com/lucavoss/adeptly-backend/internal/observability"
	"github.com/lucavoss/adeptly-backend/internal/platform/logger"
	"github.com/lucavoss/adeptly-backend/internal/server"
	"github.com/lucavoss/adeptly-backend/internal/services"
)

func main() {
	_ = godotenv.Load()

	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	cfg, err := app.LoadConfig(log)
	if err != nil {
		log.Fatal("Config load failed", "error", err)
	}

	// Tracing
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "adeptly-backend",
		Environment: os.Getenv("APP_ENV"),
		Version:     os.Getenv("APP_VERSION"),
	})

	// Durable store
	dbService, err := db.New(log)
	if err != nil {
		log.Fatal("Database init failed", "error", err)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		log.Fatal("Auto migration failed", "error", err)
	}
	gdb := dbService.DB()

	// Session cache
	cache, err := redisclient.NewSessionCache(log)
	if err != nil {
		log.Fatal("Redis init failed", "error", err)
	}
	defer cache.Close()

	// Repos
	log.Info("Setting up repos...")
	skillStateRepo := repos.NewSkillStateRepo(gdb, log)
	sessionRepo := repos.NewSessionRepo(gdb, log)
	taskRepo := repos.NewTaskRepo(gdb, log)
	suggestionRepo := repos.NewSuggestionRepo(gdb, log)
	progressRepo := repos.NewSubjectProgressRepo(gdb, log)

	// Content provider: static task bank behind a hard timeout.
	provider := content.NewTimeoutProvider(content.NewStaticProvider(), cfg.ContentTimeout, log)

	// Services
	log.Info("Setting up services...")
	sequencer := services.NewSequencer(cfg, nil, log)
	sessionService := services.NewSessionService(cfg, skillStateRepo, sessionRepo, taskRepo, suggestionRepo, cache, provider, sequencer, log)
	reviewService := services.NewReviewService(cfg, suggestionRepo, log)
	progressService := services.NewProgressService(cfg, skillStateRepo, taskRepo, progressRepo, log)
	recommender := services.NewRecommender(cfg, suggestionRepo, log)

	// Background jobs
	sweeper := jobs.NewSweeper(cfg, sessionRepo, sessionService, reviewService, progressService, log)
	if err := sweeper.Start(ctx); err != nil {
		log.Fatal("Job scheduler failed", "error", err)
	}
	defer sweeper.Stop()

	// HTTP
	router := server.NewRouter(server.RouterConfig{
		Log:                   log,
		HealthHandler:         handlers.NewHealthHandler(),
		SessionHandler:        handlers.NewSessionHandler(sessionService, log),
		SuggestionHandler:     handlers.NewSuggestionHandler(reviewService, log),
		RecommendationHandler: handlers.NewRecommendationHandler(recommender, log),
		ProgressHandler:       handlers.NewProgressHandler(progressService, skillStateRepo, log),
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}
	go func() {
		log.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown failed", "error", err)
	}
	if otelShutdown != nil {
		if err := otelShutdown(shutdownCtx); err != nil {
			log.Error("Otel shutdown failed", "error", err)
		}
	}
	log.Info("Bye")
}
