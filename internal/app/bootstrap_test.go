package app

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"credit-simulator/internal/cache"
	"credit-simulator/internal/config"
	"credit-simulator/internal/repository"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestNewLogger(t *testing.T) {
	if got := NewLogger("debug").GetLevel(); got != logrus.DebugLevel {
		t.Errorf("expected debug, got %s", got)
	}
	if got := NewLogger("loud").GetLevel(); got != logrus.InfoLevel {
		t.Errorf("expected info fallback, got %s", got)
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		store, closeFn, err := OpenStore(ctx, &config.Config{DBDriver: "memory"}, quietLogger())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer closeFn()
		if _, ok := store.(*repository.MemoryRepository); !ok {
			t.Errorf("expected a memory repository, got %T", store)
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := &config.Config{DBDriver: "sqlite", DBPath: filepath.Join(t.TempDir(), "sim.db")}
		store, closeFn, err := OpenStore(ctx, cfg, quietLogger())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer closeFn()
		if err := store.Ping(ctx); err != nil {
			t.Errorf("unexpected ping error: %v", err)
		}
	})

	t.Run("unknown driver", func(t *testing.T) {
		if _, _, err := OpenStore(ctx, &config.Config{DBDriver: "oracle"}, quietLogger()); err == nil {
			t.Errorf("expected an error")
		}
	})
}

func TestOpenCache_WithoutRedis(t *testing.T) {
	c, closeFn := OpenCache(context.Background(), &config.Config{}, quietLogger())
	defer closeFn()
	if _, ok := c.(*cache.MemoryCache); !ok {
		t.Errorf("expected a memory cache, got %T", c)
	}
}
