package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port               int    `env:"PORT" envDefault:"8080"`
	DatabaseURL        string `env:"DATABASE_URL,required"`
	RedisURL           string `env:"REDIS_URL,required"`
	TikTokClientKey    string `env:"TIKTOK_CLIENT_KEY,required"`
	TikTokClientSecret string `env:"TIKTOK_CLIENT_SECRET,required"`
	AppBaseURL         string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
	TokenSigningSecret string `env:"TOKEN_SIGNING_SECRET,required"`
	CronSecret         string `env:"CRON_SECRET"`
	IngestSchedule     string `env:"INGEST_SCHEDULE" envDefault:"0 3 * * *"`
	LogLevel           string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// RedirectURI is the OAuth callback URL registered with TikTok for this app.
func (c *Config) RedirectURI() string {
	return strings.TrimSuffix(c.AppBaseURL, "/") + "/api/auth/tiktok/callback"
}

func (c *Config) Validate(isProduction bool) error {
	if isProduction {
		if err := validateSecret("TOKEN_SIGNING_SECRET", c.TokenSigningSecret); err != nil {
			return err
		}
		if c.CronSecret == "" {
			log.Warn().Msg("CRON_SECRET is empty in production: /api/cron is unauthenticated")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		if !strings.HasPrefix(c.AppBaseURL, "https://") {
			log.Warn().Msg("APP_BASE_URL is not https in production: OAuth cookies will not be marked secure")
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
