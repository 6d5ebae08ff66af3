// Donation Service
//
// This is the main entry point for the donation payment service.
// It wires up all dependencies and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Sancus/donate-wagtail/config"
	"github.com/Sancus/donate-wagtail/internal/api"
	"github.com/Sancus/donate-wagtail/internal/domain"
	"github.com/Sancus/donate-wagtail/internal/donate"
	"github.com/Sancus/donate-wagtail/internal/logging"
	"github.com/Sancus/donate-wagtail/internal/notify"
	"github.com/Sancus/donate-wagtail/internal/platform/braintree"
	"github.com/Sancus/donate-wagtail/internal/platform/pagestore"
	"github.com/Sancus/donate-wagtail/internal/platform/redisstore"
	"github.com/Sancus/donate-wagtail/internal/session"
)

func main() {
	logger := logging.New()
	logger.Info("starting donation service")

	// Load configuration
	cfg := config.Load()
	if err := validateConfig(cfg); err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// Wire up dependencies (manual dependency injection)
	//
	// Infrastructure Layer
	var sessions session.Store
	var queue domain.TaskQueue
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		sessions = redisstore.NewSessionStore(rdb, cfg.Session.TTL)
		queue = redisstore.NewQueue(rdb)
	} else {
		logger.Warn("REDIS_ADDR not set; sessions are in-process and jobs are logged instead of queued")
		sessions = session.NewMemoryStore(cfg.Session.TTL)
		queue = notify.NewLogQueue(logger)
	}

	pages, err := pagestore.Open(cfg.Pages.DBPath)
	if err != nil {
		logger.Error("failed to open page store", "path", cfg.Pages.DBPath, "error", err)
		os.Exit(1)
	}
	defer pages.Close()

	if cfg.Pages.SeedFile != "" {
		count, err := pages.SeedFromFile(context.Background(), cfg.Pages.SeedFile)
		if err != nil {
			logger.Error("failed to seed page store", "path", cfg.Pages.SeedFile, "error", err)
			os.Exit(1)
		}
		logger.Info("page store seeded", "pages", count)
	}

	gateway := braintree.NewClient(braintree.Config{
		Environment: cfg.Gateway.Environment,
		MerchantID:  cfg.Gateway.MerchantID,
		PublicKey:   cfg.Gateway.PublicKey,
		PrivateKey:  cfg.Gateway.PrivateKey,
	})

	// Service Layer
	donations := donate.NewService(gateway, cfg.Gateway.MerchantAccounts, cfg.Gateway.Plans, logger)
	dispatcher := notify.NewDispatcher(queue, logger)

	// API Layer
	handler := api.NewHandler(donations, pages, dispatcher, logger)
	router := api.SetupRouter(handler, sessions, cfg.Session.Secret, cfg.Session.TTL, logger, cfg.Server.GinMode)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "gateway_env", cfg.Gateway.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
	}
	logger.Info("shutdown complete")
}

// validateConfig checks that required configuration values are set.
func validateConfig(cfg *config.Config) error {
	if cfg.Gateway.MerchantID == "" || cfg.Gateway.PublicKey == "" || cfg.Gateway.PrivateKey == "" {
		return fmt.Errorf("BRAINTREE_MERCHANT_ID, BRAINTREE_PUBLIC_KEY and BRAINTREE_PRIVATE_KEY are required")
	}
	if cfg.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if len(cfg.Gateway.MerchantAccounts) == 0 {
		return fmt.Errorf("BRAINTREE_MERCHANT_ACCOUNTS must map at least one currency")
	}
	if len(cfg.Gateway.Plans) == 0 {
		return fmt.Errorf("BRAINTREE_PLANS must map at least one currency")
	}
	return nil
}
