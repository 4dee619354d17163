package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"credit-simulator/internal/app"
	"credit-simulator/internal/config"
	"credit-simulator/internal/handler"
	"credit-simulator/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := app.NewLogger(cfg.LogLevel)
	ctx := context.Background()

	store, closeStore, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to open storage: %v", err)
	}
	defer closeStore()

	scheduleCache, closeCache := app.OpenCache(ctx, cfg, logger)
	defer closeCache()

	logger.Info("Initializing services...")
	simulationService := app.NewSimulationService(store, scheduleCache, cfg, logger)
	rateClient := service.NewReferenceRateClient(cfg.ReferenceRateURL, cfg.ReferenceRateMargin, logger)

	var tokens handler.TokenParser
	if cfg.JWTSecret != "" {
		tokens = service.NewTokenService(cfg.JWTSecret, cfg.TokenExpiry, logger)
	} else {
		logger.Warn("JWT_SECRET is not set, the API is served without authentication")
	}

	simulationHandler := handler.NewSimulationHandler(simulationService, rateClient, logger)
	router := handler.NewRouter(simulationHandler, tokens, logger)

	c := cron.New()
	if cfg.Retention > 0 {
		logger.WithFields(logrus.Fields{
			"schedule":  cfg.RetentionCron,
			"retention": cfg.Retention.String(),
		}).Info("Scheduling retention job")
		_, err = c.AddFunc(cfg.RetentionCron, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if _, err := simulationService.PurgeExpired(jobCtx, cfg.Retention); err != nil {
				logger.WithError(err).Error("Retention job failed")
			}
		})
		if err != nil {
			logger.Fatalf("Invalid RETENTION_CRON: %v", err)
		}
	}
	c.Start()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	<-c.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	logger.Info("Server stopped")
}
