package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env         string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port        string `env:"PORT" envDefault:"8080" validate:"required"`
	MetricsPort string `env:"METRICS_PORT" envDefault:"9090" validate:"required"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	Backend string `env:"BACKEND" envDefault:"memory" validate:"oneof=memory redis postgres dynamo"`

	RedisAddr   string `env:"REDIS_ADDR" validate:"required_if=Backend redis"`
	DatabaseURL string `env:"DATABASE_URL" validate:"required_if=Backend postgres"`

	DynamoRegion      string `env:"DYNAMO_REGION" envDefault:"us-east-1"`
	DynamoEndpoint    string `env:"DYNAMO_ENDPOINT"`
	AWSAccessKeyID    string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey      string `env:"AWS_SECRET_ACCESS_KEY"`
	DynamoTablePrefix string `env:"DYNAMO_TABLE_PREFIX" envDefault:"ott_"`

	ExpiresIn            time.Duration `env:"OTT_EXPIRES_IN" envDefault:"3m" validate:"min=0"`
	DisableClientRequest bool          `env:"OTT_DISABLE_CLIENT_REQUEST" envDefault:"false"`
	StoreToken           string        `env:"OTT_STORE_TOKEN" envDefault:"plain" validate:"oneof=plain hashed"`
	CreateSession        bool          `env:"OTT_CREATE_SESSION" envDefault:"true"`
	SessionLifetime      time.Duration `env:"SESSION_LIFETIME" envDefault:"168h" validate:"gt=0"`

	CookieName   string `env:"COOKIE_NAME" envDefault:"ott_session" validate:"required"`
	CookieDomain string `env:"COOKIE_DOMAIN"`
	CookieSecure bool   `env:"COOKIE_SECURE" envDefault:"true"`

	JWTSecret      string   `env:"JWT_SECRET" validate:"omitempty,min=32"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	AuditEnabled bool `env:"AUDIT_ENABLED" envDefault:"false"`

	// Local development only: seeds one user and session into the in-memory stores.
	SeedUserID       string `env:"SEED_USER_ID"`
	SeedUserEmail    string `env:"SEED_USER_EMAIL" validate:"omitempty,email"`
	SeedSessionToken string `env:"SEED_SESSION_TOKEN"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
