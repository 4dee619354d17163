// Package app builds the shared dependencies of the server and the CLI from
// a loaded configuration.
package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"credit-simulator/internal/cache"
	"credit-simulator/internal/config"
	"credit-simulator/internal/repository"
	"credit-simulator/internal/service"
)

const driverMemory = "memory"

// NewLogger returns a JSON logrus logger at the configured level.
func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.WithField("level", level).Warn("Unknown log level, using info")
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// OpenStore connects to the configured database and makes sure the schema
// exists. The returned func releases the connection.
func OpenStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (repository.Store, func(), error) {
	if cfg.DBDriver == driverMemory {
		logger.Warn("Using in-memory storage, simulations are lost on restart")
		return repository.NewMemoryRepository(), func() {}, nil
	}

	dialect, err := repository.ParseDialect(cfg.DBDriver)
	if err != nil {
		return nil, nil, err
	}

	dsn := cfg.DBPath
	if dialect == repository.DialectPostgres {
		dsn = repository.PostgresDSN(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
	}

	db, err := repository.Open(ctx, dialect, dsn, logger)
	if err != nil {
		return nil, nil, err
	}

	repo := repository.NewSimulationRepository(db, dialect, logger)
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to prepare schema: %w", err)
	}

	return repo, func() { db.Close() }, nil
}

// OpenCache uses Redis when REDIS_ADDR is set and falls back to process
// memory otherwise, or when Redis is unreachable.
func OpenCache(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (cache.ScheduleCache, func()) {
	if cfg.RedisAddr == "" {
		return cache.NewMemoryCache(cfg.CacheTTL), func() {}
	}

	rc, err := cache.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.CacheTTL, logger)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, caching schedules in memory")
		return cache.NewMemoryCache(cfg.CacheTTL), func() {}
	}
	return rc, func() { rc.Close() }
}

// NewSimulationService wires storage, cache and notifications.
func NewSimulationService(store repository.Store, scheduleCache cache.ScheduleCache, cfg *config.Config, logger *logrus.Logger) *service.SimulationService {
	emailSender := service.NewEmailSender(service.SMTPSettings{
		Host:               cfg.SMTPHost,
		Port:               cfg.SMTPPort,
		User:               cfg.SMTPUser,
		Password:           cfg.SMTPPassword,
		From:               cfg.SMTPFrom,
		Enabled:            cfg.EmailSenderEnabled,
		InsecureSkipVerify: cfg.SMTPInsecure,
	}, logger)

	return service.NewSimulationService(store, scheduleCache, emailSender, cfg.DefaultDebtCapacity, logger)
}
