package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"doodleduel/internal/config"
	"doodleduel/internal/store"
	redisstore "doodleduel/internal/store/redis"
	sqlitestore "doodleduel/internal/store/sqlite"
	httpTransport "doodleduel/internal/transport/http"
	"doodleduel/internal/transport/ws"
	"doodleduel/internal/upload"
)

const staleSweepInterval = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := cfg.Logging.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	logger.Info("starting doodleduel room host",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"store", cfg.Store.Backend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	images, err := upload.NewDisk(cfg.Upload.Dir, cfg.Upload.BaseURL, cfg.Upload.MaxBytes, logger)
	if err != nil {
		logger.Error("failed to prepare uploads", "error", err)
		os.Exit(1)
	}

	hub := ws.NewHub(logger)
	server := httpTransport.NewServer(cfg, st, hub, images, logger)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}

// openStore builds the configured backend and returns its cleanup
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		st := redisstore.New(client, cfg.Store.RedisKeyPrefix, cfg.Store.RoomTTL, logger)
		return st, func() { client.Close() }, nil

	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Store.SQLitePath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		st, err := sqlitestore.Open(cfg.Store.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		go sweepStale(ctx, st, cfg.Store.RoomTTL, logger)
		return st, func() { st.Close() }, nil

	default:
		st := store.NewMemory(logger)
		return st, st.Close, nil
	}
}

// sweepStale deletes SQLite rooms untouched for longer than ttl
func sweepStale(ctx context.Context, st *sqlitestore.Store, ttl time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(staleSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := st.DeleteStale(ctx, time.Now().Add(-ttl))
			if err != nil {
				logger.Warn("stale room sweep failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("stale rooms cleaned up", "count", n)
			}
		}
	}
}
