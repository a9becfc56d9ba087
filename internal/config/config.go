// Package config loads application configuration from environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store backends accepted by STORE_BACKEND.
const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

// Config holds all runtime configuration values. Each leaf field maps to
// one environment variable.
type Config struct {
	Env          string `env:"APP_ENV" envDefault:"dev"`
	Port         int    `env:"APP_PORT" envDefault:"8080"`
	StoreBackend string `env:"STORE_BACKEND" envDefault:"mysql"`

	DB           DBConfig
	Redis        RedisConfig
	Queue        QueueConfig
	JWT          JWTConfig
	RateLimit    RateLimitConfig
	Tx           TxConfig
	Mail         MailConfig
	Log          LogConfig
	Announcement AnnouncementConfig
}

// DBConfig describes the MySQL connection.
type DBConfig struct {
	User         string `env:"DB_USER" envDefault:"root"`
	Password     string `env:"DB_PASS"`
	Host         string `env:"DB_HOST" envDefault:"127.0.0.1"`
	Port         int    `env:"DB_PORT" envDefault:"3306"`
	Name         string `env:"DB_NAME" envDefault:"conference_central"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	Migrate      bool   `env:"DB_MIGRATE" envDefault:"true"`
}

// QueueConfig points at RabbitMQ. An empty URL disables task publishing.
type QueueConfig struct {
	URL      string `env:"RABBITMQ_URL"`
	Name     string `env:"RABBITMQ_QUEUE" envDefault:"conference_tasks"`
	Prefetch int    `env:"RABBITMQ_PREFETCH" envDefault:"10"`
}

// JWTConfig holds the HS256 secret shared with the identity provider.
type JWTConfig struct {
	Secret       string `env:"JWT_SECRET,required,notEmpty"`
	AccessTTLMin int    `env:"ACCESS_TOKEN_TTL_MIN" envDefault:"60"`
}

// AccessTTL returns the access-token lifetime.
func (j JWTConfig) AccessTTL() time.Duration {
	return time.Duration(j.AccessTTLMin) * time.Minute
}

// TxConfig bounds retries of contended transactions.
type TxConfig struct {
	MaxAttempts    int           `env:"TX_MAX_ATTEMPTS" envDefault:"5"`
	InitialBackoff time.Duration `env:"TX_INITIAL_BACKOFF" envDefault:"20ms"`
}

// MailConfig configures the confirmation e-mail outbox.
type MailConfig struct {
	OutboxPath string `env:"MAIL_OUTBOX_PATH" envDefault:"logs/outbox.log"`
	From       string `env:"MAIL_FROM" envDefault:"noreply@conference-central.local"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Format string `env:"LOG_FORMAT" envDefault:"text"`
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
}

// SlogLevel parses Level, falling back to info.
func (l LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// AnnouncementConfig controls the in-process refresh ticker of serve.
// Zero disables the ticker; an external scheduler can then call the
// cron endpoint (enabled by CRON_SECRET) or the refresh-announcement
// command.
type AnnouncementConfig struct {
	Interval   time.Duration `env:"ANNOUNCEMENT_INTERVAL" envDefault:"0s"`
	CronSecret string        `env:"CRON_SECRET"`
}

// Load reads .env (when present) and the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse builds a Config from the process environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	switch cfg.StoreBackend {
	case StoreMySQL, StoreMemory:
	default:
		return Config{}, fmt.Errorf("parse env: unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
	if cfg.Tx.MaxAttempts < 1 {
		cfg.Tx.MaxAttempts = 1
	}
	cfg.RateLimit.normalize()
	return cfg, nil
}
