// Command posd is the festivals-pos device agent: it owns the local store,
// replays offline payments to the authoritative server and serves the
// localhost ops API the POS UI talks to.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mimi6060/festivals-pos/internal/config"
	"github.com/mimi6060/festivals-pos/internal/container"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	if err := run(); err != nil {
		log.Fatalf("posd: %v", err)
	}
}

func run() error {
	// Best effort: provisioned devices carry a .env next to the binary.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	if cfg.App.Version == "dev" {
		cfg.App.Version = Version
	}

	c := container.New(cfg)

	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelInit()
	if err := c.Initialize(initCtx); err != nil {
		return err
	}

	logger := c.Logger()
	logger.Info("🚀 Starting festivals-pos agent",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"device_id", cfg.Device.ID,
		"store", cfg.Store.Path,
		"ops_addr", cfg.Ops.Addr,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	// The HTTP server blocks until SIGINT/SIGTERM.
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- c.Server().Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		cancel()
		_ = shutdown(c)
		return fmt.Errorf("ops API server: %w", err)
	case sig := <-quit:
		logger.Info("Received shutdown signal", "signal", sig.String())
	}

	// Stop intake first, then drain: UI requests end, in-flight replay
	// attempts get their grace period, the store closes last.
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()
	if err := c.Server().Shutdown(shutdownCtx); err != nil {
		logger.Error("ops API shutdown failed", "error", err)
	}

	cancel()
	if err := shutdown(c); err != nil {
		return err
	}

	logger.Info("👋 festivals-pos agent stopped")
	return nil
}

func shutdown(c *container.Container) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return c.Shutdown(ctx)
}
