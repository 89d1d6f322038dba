package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	Persistence string `env:"PERSISTENCE" envDefault:"postgres"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	MagicLinkSecret     string `env:"MAGIC_LINK_SECRET" envDefault:"dev-secret-change-me"`
	PortalSessionSecret string `env:"PORTAL_SESSION_SECRET" envDefault:"dev-secret-change-me"`
	OperatorAPIToken    string `env:"OPERATOR_API_TOKEN"`
	WebhookSecret       string `env:"WEBHOOK_SECRET"`

	MagicLinkTTLMinutes   int `env:"MAGIC_LINK_TTL_MINUTES" envDefault:"30"`
	PortalSessionTTLHours int `env:"PORTAL_SESSION_TTL_HOURS" envDefault:"24"`

	PortalRateLimitPerMin int `env:"PORTAL_RATE_LIMIT_PER_MIN" envDefault:"60"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) MagicLinkTTL() time.Duration {
	return time.Duration(c.MagicLinkTTLMinutes) * time.Minute
}

func (c *Config) PortalSessionTTL() time.Duration {
	return time.Duration(c.PortalSessionTTLHours) * time.Hour
}

func (c *Config) UsesPostgres() bool {
	return c.Persistence == "postgres"
}

func (c *Config) Validate(isProduction bool) error {
	switch c.Persistence {
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when PERSISTENCE=postgres")
		}
	case "memory":
		if isProduction {
			log.Warn().Msg("PERSISTENCE=memory in production: all data is lost on restart")
		}
	default:
		return fmt.Errorf("PERSISTENCE must be postgres or memory, got %q", c.Persistence)
	}

	if isProduction {
		if err := validateSecret("MAGIC_LINK_SECRET", c.MagicLinkSecret); err != nil {
			return err
		}
		if err := validateSecret("PORTAL_SESSION_SECRET", c.PortalSessionSecret); err != nil {
			return err
		}
		if c.OperatorAPIToken == "" {
			return fmt.Errorf("OPERATOR_API_TOKEN is required in production")
		}
		if c.WebhookSecret == "" {
			log.Warn().Msg("WEBHOOK_SECRET is empty in production: webhook signature verification disabled")
		}
		if c.RedisURL == "" {
			log.Warn().Msg("REDIS_URL is empty in production: portal rate limiting disabled")
		} else if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
