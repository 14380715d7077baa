package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ance-ai/metered-gateway/internal/auth"
	"github.com/ance-ai/metered-gateway/internal/config"
	"github.com/ance-ai/metered-gateway/internal/gateway"
	"github.com/ance-ai/metered-gateway/internal/ledger"
	"github.com/ance-ai/metered-gateway/internal/server"
	"github.com/ance-ai/metered-gateway/internal/storage"
	"github.com/ance-ai/metered-gateway/internal/storage/memory"
	"github.com/ance-ai/metered-gateway/internal/storage/sqlite"
	"github.com/ance-ai/metered-gateway/internal/telemetry"
	"github.com/ance-ai/metered-gateway/internal/tokens"
	openai "github.com/ance-ai/metered-gateway/internal/upstream/openai"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		log.Fatalf("%v", err)
	}
}

// run holds everything that needs cleanup on the way out; log.Fatalf in main
// would skip the deferred store and tracer shutdown.
func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	shutdownTracer, err := telemetry.InitTracer("metered-gateway", logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracer: %w", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	var store storage.Store
	switch cfg.Storage.Type {
	case "memory":
		store = memory.New()
	default:
		store, err = sqlite.New(cfg.Storage.SQLite.Path)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
	}
	defer store.Close()

	creds := auth.NewCredentials(store, cfg.Billing.QuotaCeiling, cfg.Billing.CycleLength)
	tokenSvc := auth.NewTokenService(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	adminKey := auth.NewAdminKey(cfg.Admin.KeyHash)
	ldg := ledger.New(store)

	completion := openai.New(cfg.OpenAI.APIKey,
		openai.WithBaseURL(cfg.OpenAI.BaseURL),
		openai.WithModel(cfg.OpenAI.Model),
		openai.WithTimeout(cfg.OpenAI.Timeout),
	)

	gw := gateway.New(ldg, completion, tokens.NewCounter(), completion.Model(), logger)

	srv := server.New(cfg.Server.Port, cfg.Server.RequestTimeout, logger, server.Deps{
		Credentials: creds,
		Tokens:      tokenSvc,
		AdminKey:    adminKey,
		Ledger:      ldg,
		Gateway:     gw,
	})

	logger.Info("gateway configured",
		slog.String("storage", cfg.Storage.Type),
		slog.String("model", completion.Model()),
		slog.Bool("admin_enabled", adminKey.Enabled()),
		slog.Bool("token_expiry", cfg.Auth.TokenTTL > 0),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-sigChan:
		logger.Info("shutdown signal received, stopping gateway", slog.String("signal", sig.String()))
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	logger.Info("gateway shutdown complete")
	return nil
}
