package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Netflix/go-env"
)

const (
	PricingProviderAmadeus = "amadeus"
	PricingProviderFake    = "fake"

	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

type Config struct {
	DatabaseDSN        string `env:"DATABASE_DSN,required=true"`
	DBMaxOpenConns     int    `env:"DB_MAX_OPEN_CONNS,default=25"`
	DBMaxIdleConns     int    `env:"DB_MAX_IDLE_CONNS,default=5"`
	DBConnMaxLifetimeM int    `env:"DB_CONN_MAX_LIFETIME_MIN,default=60"`

	LogLevel string `env:"LOG_LEVEL,default=info"`
	APIPort  int    `env:"API_PORT,default=8080"`

	SchedulerEnabled          bool `env:"SCHEDULER_ENABLED,default=true"`
	SchedulerIntervalMinutes  int  `env:"SCHEDULER_INTERVAL_MINUTES,default=60"`
	SchedulerRunOnStart       bool `env:"SCHEDULER_RUN_ON_START,default=true"`
	SchedulerRespectFrequency bool `env:"SCHEDULER_RESPECT_FREQUENCY,default=false"`
	WorkerConcurrency         int  `env:"WORKER_CONCURRENCY,default=8"`
	ProviderTimeoutSec        int  `env:"PROVIDER_TIMEOUT_SEC,default=15"`
	SendTimeoutSec            int  `env:"SEND_TIMEOUT_SEC,default=10"`

	PricingProvider     string `env:"PRICING_PROVIDER,default=amadeus"`
	AmadeusBaseURL      string `env:"AMADEUS_BASE_URL,default=https://test.api.amadeus.com"`
	AmadeusClientID     string `env:"AMADEUS_CLIENT_ID"`
	AmadeusClientSecret string `env:"AMADEUS_CLIENT_SECRET"`
	AmadeusMaxOffers    int    `env:"AMADEUS_MAX_OFFERS,default=5"`

	EmailSender             string `env:"EMAIL_SENDER"`
	EmailPassword           string `env:"EMAIL_PASSWORD"`
	SMTPServer              string `env:"SMTP_SERVER,default=smtp.gmail.com"`
	SMTPPort                int    `env:"SMTP_PORT,default=587"`
	FirebaseCredentialsFile string `env:"FIREBASE_CREDENTIALS_FILE,default=firebase-service-account.json"`

	RateLimitBackend   string `env:"RATE_LIMIT_BACKEND,default=memory"`
	RedisURL           string `env:"REDIS_URL"`
	RedisPoolSize      int    `env:"REDIS_POOL_SIZE,default=0"`
	EmailRateLimit     int    `env:"EMAIL_RATE_LIMIT,default=100"`
	PushRateLimit      int    `env:"PUSH_RATE_LIMIT,default=1000"`
	RateLimitWindowSec int    `env:"RATE_LIMIT_WINDOW_SEC,default=3600"`

	StalePendingAfterMin  int `env:"STALE_PENDING_AFTER_MIN,default=30"`
	StaleSweepIntervalSec int `env:"STALE_SWEEP_INTERVAL_SEC,default=300"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.PricingProvider = strings.ToLower(strings.TrimSpace(cfg.PricingProvider))
	cfg.RateLimitBackend = strings.ToLower(strings.TrimSpace(cfg.RateLimitBackend))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects settings the engine cannot run with. Missing email or push
// credentials are not errors; those channels fail per send instead.
func (c *Config) Validate() error {
	var errs []error

	positive := []struct {
		key   string
		value int
	}{
		{"DB_MAX_OPEN_CONNS", c.DBMaxOpenConns},
		{"DB_CONN_MAX_LIFETIME_MIN", c.DBConnMaxLifetimeM},
		{"SCHEDULER_INTERVAL_MINUTES", c.SchedulerIntervalMinutes},
		{"WORKER_CONCURRENCY", c.WorkerConcurrency},
		{"PROVIDER_TIMEOUT_SEC", c.ProviderTimeoutSec},
		{"SEND_TIMEOUT_SEC", c.SendTimeoutSec},
		{"AMADEUS_MAX_OFFERS", c.AmadeusMaxOffers},
		{"RATE_LIMIT_WINDOW_SEC", c.RateLimitWindowSec},
		{"STALE_PENDING_AFTER_MIN", c.StalePendingAfterMin},
		{"STALE_SWEEP_INTERVAL_SEC", c.StaleSweepIntervalSec},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", p.key, p.value))
		}
	}
	if c.DBMaxIdleConns < 0 {
		errs = append(errs, fmt.Errorf("DB_MAX_IDLE_CONNS must not be negative, got %d", c.DBMaxIdleConns))
	}
	if c.RedisPoolSize < 0 {
		errs = append(errs, fmt.Errorf("REDIS_POOL_SIZE must not be negative, got %d", c.RedisPoolSize))
	}
	if c.EmailRateLimit < 0 {
		errs = append(errs, fmt.Errorf("EMAIL_RATE_LIMIT must not be negative, got %d", c.EmailRateLimit))
	}
	if c.PushRateLimit < 0 {
		errs = append(errs, fmt.Errorf("PUSH_RATE_LIMIT must not be negative, got %d", c.PushRateLimit))
	}

	switch c.PricingProvider {
	case PricingProviderAmadeus, PricingProviderFake:
	default:
		errs = append(errs, fmt.Errorf("unknown PRICING_PROVIDER %q", c.PricingProvider))
	}

	switch c.RateLimitBackend {
	case RateLimitBackendMemory:
	case RateLimitBackendRedis:
		if strings.TrimSpace(c.RedisURL) == "" {
			errs = append(errs, errors.New("REDIS_URL is required when RATE_LIMIT_BACKEND=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown RATE_LIMIT_BACKEND %q", c.RateLimitBackend))
	}

	return errors.Join(errs...)
}

func (c *Config) DBConnMaxLifetime() time.Duration {
	return time.Duration(c.DBConnMaxLifetimeM) * time.Minute
}

func (c *Config) SchedulerInterval() time.Duration {
	return time.Duration(c.SchedulerIntervalMinutes) * time.Minute
}

func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.ProviderTimeoutSec) * time.Second
}

func (c *Config) SendTimeout() time.Duration {
	return time.Duration(c.SendTimeoutSec) * time.Second
}

func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSec) * time.Second
}

func (c *Config) StalePendingAfter() time.Duration {
	return time.Duration(c.StalePendingAfterMin) * time.Minute
}

func (c *Config) StaleSweepInterval() time.Duration {
	return time.Duration(c.StaleSweepIntervalSec) * time.Second
}
