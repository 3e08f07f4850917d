// Package config loads runtime settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	SessionSQL    = "sql"
	SessionMemory = "memory"
	SessionRedis  = "redis"
)

type Config struct {
	Port     string `env:"PORT, default=3000"`
	Env      string `env:"APP_ENV, default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`
	// LogFormat is "text" or "json". Empty picks json in production.
	LogFormat   string `env:"LOG_FORMAT"`
	DatabaseURL string `env:"DATABASE_URL, default=neurocalm.db"`

	Session SessionConfig
	Redis   RedisConfig
	Mail    MailConfig

	OTPTTL      time.Duration `env:"OTP_TTL, default=10m"`
	DedupWindow time.Duration `env:"DEDUP_WINDOW, default=10s"`
	RateLimit   int           `env:"RATE_LIMIT, default=10"`
	// MetricsAddr is the listen address of the Prometheus endpoint, kept off
	// the public port.
	MetricsAddr string `env:"METRICS_ADDR, default=127.0.0.1:9090"`
}

type SessionConfig struct {
	Secret  string        `env:"SESSION_SECRET"`
	Backend string        `env:"SESSION_BACKEND, default=sql"`
	TTL     time.Duration `env:"SESSION_TTL, default=24h"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB, default=0"`
}

type MailConfig struct {
	User          string `env:"EMAIL_USER"`
	Password      string `env:"EMAIL_PASS"`
	From          string `env:"EMAIL_FROM"`
	SMTPHost      string `env:"SMTP_HOST, default=smtp.gmail.com"`
	SMTPPort      int    `env:"SMTP_PORT, default=587"`
	PostmarkToken string `env:"POSTMARK_TOKEN"`
}

// Load reads .env if present, then the process environment.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration through l and validates it.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	cfg.Session.Backend = strings.ToLower(strings.TrimSpace(cfg.Session.Backend))
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Env {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("invalid APP_ENV %q", c.Env)
	}
	switch c.Session.Backend {
	case SessionSQL, SessionMemory, SessionRedis:
	default:
		return fmt.Errorf("invalid SESSION_BACKEND %q", c.Session.Backend)
	}
	if c.Session.TTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if err := c.validateMetricsAddr(); err != nil {
		return err
	}
	if c.Production() {
		if len(c.Session.Secret) < 32 {
			return errors.New("SESSION_SECRET must be at least 32 characters in production")
		}
		if c.Session.Backend == SessionMemory {
			return errors.New("SESSION_BACKEND=memory is not allowed in production")
		}
	}
	return nil
}

func (c *Config) validateMetricsAddr() error {
	_, port, err := net.SplitHostPort(c.MetricsAddr)
	if err != nil {
		return fmt.Errorf("invalid METRICS_ADDR %q: %w", c.MetricsAddr, err)
	}
	if port == c.Port {
		return fmt.Errorf("METRICS_ADDR %q must not share the application port", c.MetricsAddr)
	}
	return nil
}

func (c *Config) Production() bool {
	return c.Env == EnvProduction
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// JSONLogs reports whether logs should be written as JSON.
func (c *Config) JSONLogs() bool {
	if c.LogFormat != "" {
		return strings.EqualFold(c.LogFormat, "json")
	}
	return c.Production()
}

// DevSecret is used to sign cookies in development when SESSION_SECRET is unset.
const DevSecret = "neurocalm-development-secret-do-not-use"

func (c *Config) SessionSecret() []byte {
	if c.Session.Secret == "" {
		return []byte(DevSecret)
	}
	return []byte(c.Session.Secret)
}
