// internal/config/config.go
package config

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/unclebandit/jetmatch-backend/internal/db"
	"github.com/unclebandit/jetmatch-backend/internal/model"
	"github.com/unclebandit/jetmatch-backend/internal/scoring"
)

type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	// DBDriver is postgres, sqlite or memory.
	DBDriver    string `env:"DB_DRIVER" envDefault:"postgres"`
	DatabaseURL string `env:"DATABASE_URL"`
	DBUser      string `env:"DB_USER"`
	DBPassword  string `env:"DB_PASSWORD"`
	DBHost      string `env:"DB_HOST" envDefault:"localhost"`
	DBPort      string `env:"DB_PORT" envDefault:"5432"`
	DBName      string `env:"DB_NAME"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"data/jetmatch.db"`

	// Empty RedisURL keeps snapshots in process memory.
	RedisURL    string        `env:"REDIS_URL"`
	SnapshotTTL time.Duration `env:"SNAPSHOT_TTL" envDefault:"720h"`

	// Empty AMQPURL uses the in-process queue.
	AMQPURL        string `env:"AMQP_URL"`
	WorkerPoolSize int    `env:"WORKER_POOL_SIZE" envDefault:"4"`

	MetricsFeedURL string  `env:"METRICS_FEED_URL"`
	MetricsFeedRPS float64 `env:"METRICS_FEED_RPS" envDefault:"5"`

	ValuationPolicyPath    string        `env:"VALUATION_POLICY_PATH" envDefault:"config/valuation.yaml"`
	DefaultApplicantStatus string        `env:"DEFAULT_APPLICANT_STATUS" envDefault:"pending"`
	StaleAfter             time.Duration `env:"STALE_AFTER" envDefault:"168h"`
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}
	return Parse()
}

// Parse reads the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite", "memory":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres, sqlite or memory, got %q", c.DBDriver)
	}
	if !model.ApplicantStatus(c.DefaultApplicantStatus).Valid() {
		return fmt.Errorf("DEFAULT_APPLICANT_STATUS %q is not an applicant status", c.DefaultApplicantStatus)
	}
	if c.WorkerPoolSize < 1 {
		return fmt.Errorf("WORKER_POOL_SIZE must be at least 1, got %d", c.WorkerPoolSize)
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = scoring.DefaultStaleAfter
	}
	return nil
}

// Dialect maps DBDriver to a SQL dialect; memory has none.
func (c *Config) Dialect() (db.Dialect, bool) {
	switch c.DBDriver {
	case "postgres":
		return db.Postgres, true
	case "sqlite":
		return db.SQLite, true
	}
	return "", false
}

// DSN returns DATABASE_URL, or builds one from the DB_* pieces.
func (c *Config) DSN() string {
	if c.DBDriver == "sqlite" {
		return c.SQLitePath
	}
	if strings.TrimSpace(c.DatabaseURL) != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}
