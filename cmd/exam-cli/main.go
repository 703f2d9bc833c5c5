package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-local/internal/config"
	"github.com/stemsi/exstem-local/internal/logger"
	"github.com/stemsi/exstem-local/internal/repository"
	"github.com/stemsi/exstem-local/internal/service"
	"github.com/stemsi/exstem-local/internal/validator"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	var logLevel string
	flag.StringVar(&logLevel, "log-level", "warn", "Log level for diagnostics on stderr")
	flag.StringVar(&cfg.SQLitePath, "db", cfg.SQLitePath, "Path to the SQLite data file")
	flag.Parse()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(logLevel, "pretty")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx := context.Background()

	// ─── Open Storage ──────────────────────────────────────────────────
	kv, closeStore, err := repository.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer closeStore()

	// ─── Initialize Services ──────────────────────────────────────────
	data := service.NewDataService(kv, log)
	if err := data.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load local data")
	}
	runner := service.NewExamSessionService(data, cfg.TickInterval, log)
	defer runner.Close()

	// ─── Run ───────────────────────────────────────────────────────────
	ui := newUI(data, runner, os.Stdin, os.Stdout, terminalWidth())
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		// Ctrl-C abandons any running exam, like the exit command.
		<-quit
		runner.Close()
		closeStore()
		fmt.Println()
		os.Exit(130)
	}()

	if err := ui.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Terminal client stopped")
		os.Exit(1)
	}
}

// terminalWidth sizes separators to stdout, falling back to 60 columns when
// output is not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return min(w, 100)
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
