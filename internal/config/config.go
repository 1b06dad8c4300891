package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakTokens = []string{
	"change-me", "dev-token-change-me", "secret", "admin", "password",
}

type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisURL    string `env:"REDIS_URL,required"`

	// AppBaseURL is the public origin printed on stickers; resolve outcomes
	// redirect to <AppBaseURL>/qr/<CODE>.
	AppBaseURL string `env:"APP_BASE_URL" envDefault:"https://stckr.io"`

	AdminToken string `env:"ADMIN_TOKEN"`

	ResolveRateLimitPerMin int `env:"RESOLVE_RATE_LIMIT_PER_MIN" envDefault:"120"`
	ClaimRateLimitPerMin   int `env:"CLAIM_RATE_LIMIT_PER_MIN" envDefault:"60"`

	ScanRetentionDays int `env:"SCAN_RETENTION_DAYS" envDefault:"90"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) ScanRetention() time.Duration {
	return time.Duration(c.ScanRetentionDays) * 24 * time.Hour
}

func (c *Config) Validate(isProduction bool) error {
	if isProduction {
		if err := validateToken("ADMIN_TOKEN", c.AdminToken); err != nil {
			return err
		}
		if c.AppBaseURL == "" {
			return fmt.Errorf("APP_BASE_URL must be set in production")
		}
	} else if c.AdminToken == "" {
		log.Warn().Msg("ADMIN_TOKEN is empty: admin endpoints disabled")
	}
	return nil
}

func validateToken(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -hex 32)", name)
	}
	for _, weak := range knownWeakTokens {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong token in production", name)
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
