package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/supptracker-server/internal/api"
	"github.com/supptracker-server/internal/cache"
	"github.com/supptracker-server/internal/config"
	"github.com/supptracker-server/internal/service"
	"github.com/supptracker-server/internal/store"
)

func main() {
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}
	cfg := configManager.GetConfig()

	logger := newLogger(cfg.Logging)

	st := store.New(cfg.Data.Dir, cfg.Data.RulesFile, logger)
	if err := st.Load(); err != nil {
		logger.WithError(err).Fatal("Failed to load data snapshot")
	}

	svc, err := service.NewRiskService(st, logger, cfg.Cache.ScoreCacheSize, cfg.Limits.MaxStackSize)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create risk service")
	}

	// The response cache is optional; running without Redis only costs
	// repeat scoring work.
	var respCache *cache.ResponseCache
	if cfg.Cache.RedisEnabled {
		respCache, err = cache.New(cfg.Cache.RedisURL, cfg.Cache.ResponseTTL)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect response cache")
		}
		defer respCache.Close()
	}

	server := api.NewServer(cfg, svc, respCache, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
	logger.Info("Server stopped")
}

func newLogger(cfg config.LoggingConfig) *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
