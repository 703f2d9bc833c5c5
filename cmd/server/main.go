package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-local/internal/config"
	"github.com/stemsi/exstem-local/internal/handler"
	"github.com/stemsi/exstem-local/internal/logger"
	"github.com/stemsi/exstem-local/internal/repository"
	"github.com/stemsi/exstem-local/internal/router"
	"github.com/stemsi/exstem-local/internal/service"
	"github.com/stemsi/exstem-local/internal/validator"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("addr", cfg.Addr()).
		Str("mode", cfg.GinMode).
		Str("storage", string(cfg.StorageDriver)).
		Msg("Starting ExStem")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Open Storage ──────────────────────────────────────────────────
	kv, closeStore, err := repository.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Error().Err(err).Msg("Storage close error")
		}
	}()

	// ─── Initialize Services ──────────────────────────────────────────
	// Load seeds the catalog on first run and restores the active student.
	dataService := service.NewDataService(kv, log)
	if err := dataService.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load local data")
	}
	sessionService := service.NewExamSessionService(dataService, cfg.TickInterval, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:    handler.NewAuthHandler(dataService, sessionService),
		Exam:    handler.NewExamHandler(dataService),
		Session: handler.NewSessionHandler(sessionService, dataService),
		Attempt: handler.NewAttemptHandler(dataService),
		WS:      handler.NewWSHandler(sessionService, dataService, log, cfg.AllowedOrigins),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the countdown. A session still in progress is abandoned
	// unrecorded, the same as leaving the exam.
	sessionService.Close()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
