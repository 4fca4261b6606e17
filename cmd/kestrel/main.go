// Kestrel - Loan underwriting committee engine.
// Copyright (c) 2025 opensource.finance
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/opensource-finance/kestrel/internal/api"
	"github.com/opensource-finance/kestrel/internal/bus"
	"github.com/opensource-finance/kestrel/internal/cache"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/gateway"
	"github.com/opensource-finance/kestrel/internal/orchestrator"
	"github.com/opensource-finance/kestrel/internal/runstore"
	"github.com/opensource-finance/kestrel/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("KESTREL_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Log startup
	slog.Info("starting kestrel",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	cfg := domain.DefaultConfig()

	// Check for distributed mode via environment
	if os.Getenv("KESTREL_TIER") == "distributed" {
		cfg = domain.DistributedConfig()
		slog.Info("running in distributed mode")
	}
	applyEnvOverrides(cfg)

	slog.Info("configuration loaded",
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
		"gateway_online", cfg.Gateway.APIKey != "",
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize the gateway. No API key selects the offline generator so the
	// workflow never requires network access.
	var gw domain.Gateway
	if cfg.Gateway.APIKey != "" {
		gw = gateway.NewAnthropic(cfg.Gateway, logger)
		slog.Info("gateway initialized", "mode", "anthropic", "model", cfg.Gateway.Model)
	} else {
		gw = gateway.NewOffline()
		slog.Info("gateway initialized", "mode", "offline")
	}
	if cfg.Gateway.CacheTTL > 0 {
		gw = gateway.NewCached(gw, cacheImpl, time.Duration(cfg.Gateway.CacheTTL)*time.Second, logger)
		slog.Info("gateway response cache enabled", "ttl_seconds", cfg.Gateway.CacheTTL)
	}

	// Initialize run store
	store := runstore.New()

	// Initialize Orchestrator
	orch, err := orchestrator.New(gw, orchestrator.NewRand(cfg.Seed), busImpl, store, logger)
	if err != nil {
		slog.Error("failed to initialize orchestrator", "error", err)
		os.Exit(1)
	}
	slog.Info("orchestrator initialized", "seed", cfg.Seed)

	// Initialize async Worker (bus-driven submissions)
	var asyncWorker *worker.Worker
	if os.Getenv("KESTREL_ASYNC_WORKER") == "true" {
		asyncWorker = worker.NewWorker(busImpl, orch)
		if err := asyncWorker.Start(); err != nil {
			slog.Error("failed to start async worker", "error", err)
		} else {
			slog.Info("async worker started")
		}
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, orch, store, cacheImpl, busImpl, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("kestrel is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop async worker first
	if asyncWorker != nil {
		if err := asyncWorker.Stop(); err != nil {
			slog.Error("failed to stop async worker", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("kestrel shutdown complete")
}

// applyEnvOverrides layers environment settings over the base configuration.
func applyEnvOverrides(cfg *domain.Config) {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		cfg.Gateway.APIKey = key
	}
	if model := os.Getenv("KESTREL_MODEL"); model != "" {
		cfg.Gateway.Model = model
	}
	if addr := os.Getenv("KESTREL_REDIS_ADDR"); addr != "" {
		cfg.Cache.Type = "redis"
		cfg.Cache.RedisAddr = addr
	}
	if url := os.Getenv("KESTREL_NATS_URL"); url != "" {
		cfg.EventBus.Type = "nats"
		cfg.EventBus.NATSUrl = url
	}
	if seed := os.Getenv("KESTREL_SEED"); seed != "" {
		if v, err := strconv.ParseInt(seed, 10, 64); err == nil {
			cfg.Seed = v
		} else {
			slog.Warn("ignoring invalid KESTREL_SEED", "value", seed)
		}
	}
	if port := os.Getenv("KESTREL_PORT"); port != "" {
		if v, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = v
		} else {
			slog.Warn("ignoring invalid KESTREL_PORT", "value", port)
		}
	}
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════╗")
	fmt.Println("  ║               🦅 KESTREL                  ║")
	fmt.Println("  ║     Loan Underwriting Committee           ║")
	fmt.Println("  ║      Five analysts, one decision.         ║")
	fmt.Println("  ╚═══════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /applications/evaluate - Run the underwriting workflow")
	fmt.Println("    GET  /runs                  - List workflow runs")
	fmt.Println("    GET  /runs/{id}             - Get a workflow run by ID")
	fmt.Println("    GET  /strategies            - List risk strategies")
	fmt.Println("    GET  /health                - Health check")
	fmt.Println()
}
