package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Sync    SyncConfig
	Store   StoreConfig
	Upload  UploadConfig
	Logging LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port string `env:"PORT" envDefault:"8080"`
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Env  string `env:"ENV" envDefault:"development"` // "development" or "production"

	// Per-client request budget on the store host
	RateLimit float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`
}

// SyncConfig holds the client synchronization timings
type SyncConfig struct {
	PollInterval    time.Duration `env:"SYNC_POLL_INTERVAL" envDefault:"1s"`
	StuckTimeout    time.Duration `env:"SYNC_STUCK_TIMEOUT" envDefault:"10s"`
	KickedDebounce  time.Duration `env:"SYNC_KICKED_DEBOUNCE" envDefault:"2s"`
	ClosedCountdown time.Duration `env:"SYNC_CLOSED_COUNTDOWN" envDefault:"3s"`
	RequestTimeout  time.Duration `env:"SYNC_REQUEST_TIMEOUT" envDefault:"5s"`
}

// StoreConfig selects and configures the room store backend
type StoreConfig struct {
	Backend        string        `env:"STORE_BACKEND" envDefault:"memory"`
	RedisAddr      string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	RedisDB        int           `env:"REDIS_DB" envDefault:"0"`
	RedisKeyPrefix string        `env:"REDIS_KEY_PREFIX" envDefault:"dd:"`
	RoomTTL        time.Duration `env:"ROOM_TTL" envDefault:"24h"`
	SQLitePath     string        `env:"SQLITE_PATH" envDefault:"data/rooms.db"`
}

// UploadConfig configures image storage on the host
type UploadConfig struct {
	Dir      string `env:"UPLOAD_DIR" envDefault:"data/uploads"`
	BaseURL  string `env:"UPLOAD_BASE_URL" envDefault:"/uploads"`
	MaxBytes int64  `env:"UPLOAD_MAX_BYTES" envDefault:"5242880"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"` // "json" or "text"
}

// Load reads an optional .env file, then parses the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse builds the configuration from environment variables with defaults
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendRedis, BackendSQLite:
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	if c.Sync.PollInterval <= 0 {
		return fmt.Errorf("config: poll interval must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// GetAddr returns the server address in host:port format
func (c *Config) GetAddr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// NewLogger builds the process logger from the logging settings
func (c LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLogLevel(c.Level),
	}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLogLevel maps a level name to a slog level, defaulting to info
func ParseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
