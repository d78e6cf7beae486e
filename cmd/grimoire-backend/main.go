// ABOUTME: Entry point for the grimoire development backend server
// ABOUTME: Serves the document Q&A API with canned answers for local work

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/2389/grimoire/internal/auth"
	"github.com/2389/grimoire/internal/backend"
	"github.com/2389/grimoire/internal/config"
)

// Version is set by goreleaser at build time.
var version = "dev"

func main() {
	addr := flag.String("addr", "localhost:8090", "HTTP listen address")
	configPath := flag.String("config", "", "Config file path (default: grimoire config)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *addr, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, addr, configPath string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	logger := setupLogger(cfg.Logging)

	var verifier auth.TokenVerifier
	if cfg.Auth.JWTSecret != "" {
		verifier = auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	}

	srv := backend.NewServer(backend.DemoAnswerer{}, verifier, logger)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	gray := color.New(color.FgHiBlack)
	green := color.New(color.FgGreen)
	gray.Printf("grimoire-backend %s\n", version)
	green.Print("  ▶ ")
	fmt.Printf("Listening:  http://%s\n", addr)
	green.Print("  ▶ ")
	if verifier != nil {
		fmt.Println("Auth:       Bearer token required")
	} else {
		fmt.Println("Auth:       disabled")
	}
	fmt.Println()

	logger.Info("starting grimoire-backend", "addr", addr, "auth", verifier != nil)

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
