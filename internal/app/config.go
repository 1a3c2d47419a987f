package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the dashboard server.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	SalesAPIURL     string        `envconfig:"SALES_API_URL" default:"http://127.0.0.1:5000"`
	SalesAPITimeout time.Duration `envconfig:"SALES_API_TIMEOUT" default:"0"`

	DashboardDefaultStart   string        `envconfig:"DASHBOARD_DEFAULT_START" default:"2024-01-01"`
	DashboardDefaultEnd     string        `envconfig:"DASHBOARD_DEFAULT_END" default:"2024-03-31"`
	DashboardSettleTimeout  time.Duration `envconfig:"DASHBOARD_SETTLE_TIMEOUT" default:"2s"`
	DashboardViewIdleTTL    time.Duration `envconfig:"DASHBOARD_VIEW_IDLE_TTL" default:"30m"`
	DashboardSweepInterval  time.Duration `envconfig:"DASHBOARD_SWEEP_INTERVAL" default:"1m"`
	DashboardRefreshSeconds int           `envconfig:"DASHBOARD_REFRESH_SECONDS" default:"1"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"720h"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true"`
}

// LoadConfig reads configuration from the environment. A .env file in the
// working directory is applied first without overriding variables that are
// already set.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret must be provided")
	}
	if cfg.CSRFSecret == "" {
		return nil, errors.New("csrf secret must be provided")
	}
	if cfg.SalesAPIURL == "" {
		return nil, errors.New("sales api url must be provided")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
