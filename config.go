package goOTT

import (
	"errors"
	"strings"
	"time"
)

// Config defines a public type used by goOTT APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	OneTimeToken OneTimeTokenConfig
	Session      SessionConfig
	Verification VerificationConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

/*
====================================
ONE-TIME TOKEN CONFIG
====================================
*/

// StorageMode selects how a logical token is transformed before it is used as
// a storage key.
type StorageMode string

const (
	// StorePlain stores the token as issued.
	StorePlain StorageMode = "plain"
	// StoreHashed stores the unpadded base64url SHA-256 digest of the token.
	StoreHashed StorageMode = "hashed"
	// StoreCustomHasher stores the output of the hasher registered with [Builder.WithTokenHasher].
	StoreCustomHasher StorageMode = "custom-hasher"
)

// OneTimeTokenConfig defines a public type used by goOTT APIs.
//
// OneTimeTokenConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type OneTimeTokenConfig struct {
	// ExpiresIn is the token lifetime. Zero issues tokens that are already expired.
	ExpiresIn time.Duration
	// DisableClientRequest rejects generation for calls marked with [WithClientRequest].
	DisableClientRequest bool
	StoreToken           StorageMode
	// CreateSession mints a successor session on redemption instead of
	// returning the original one.
	CreateSession bool
	// TokenLength is the length of tokens produced by the default generator.
	TokenLength int
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by goOTT APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	RedisPrefix string
	Lifetime    time.Duration
}

/*
====================================
VERIFICATION STORE CONFIG
====================================
*/

// VerificationConfig defines a public type used by goOTT APIs.
//
// VerificationConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type VerificationConfig struct {
	RedisPrefix string
	// RetentionGrace keeps expired records readable for this long so that a
	// late redemption reports expiry rather than an unknown token.
	RetentionGrace time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig defines a public type used by goOTT APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by goOTT APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULTS
====================================
*/

const (
	defaultExpiresIn      = 3 * time.Minute
	defaultTokenLength    = 32
	minTokenLength        = 22
	defaultSessionTTL     = 7 * 24 * time.Hour
	defaultRetentionGrace = 10 * time.Minute
)

// DefaultConfig returns the configuration used by [New]: three-minute plain
// tokens, client requests allowed, successor sessions minted on redemption.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		OneTimeToken: OneTimeTokenConfig{
			ExpiresIn:            defaultExpiresIn,
			DisableClientRequest: false,
			StoreToken:           StorePlain,
			CreateSession:        true,
			TokenLength:          defaultTokenLength,
		},
		Session: SessionConfig{
			RedisPrefix: "ott:s",
			Lifetime:    defaultSessionTTL,
		},
		Verification: VerificationConfig{
			RedisPrefix:    "ott:v",
			RetentionGrace: defaultRetentionGrace,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid field, or nil. It does not modify c.
func (c *Config) Validate() error {
	// One-time token
	if c.OneTimeToken.ExpiresIn < 0 {
		return errors.New("OneTimeToken ExpiresIn must be >= 0")
	}
	switch c.OneTimeToken.StoreToken {
	case StorePlain, StoreHashed, StoreCustomHasher:
	default:
		return errors.New("OneTimeToken StoreToken must be plain, hashed or custom-hasher")
	}
	if c.OneTimeToken.TokenLength < minTokenLength {
		return errors.New("OneTimeToken TokenLength must be >= 22")
	}

	// Session
	if c.Session.Lifetime <= 0 {
		return errors.New("Session Lifetime must be > 0")
	}
	if strings.TrimSpace(c.Session.RedisPrefix) == "" {
		return errors.New("Session RedisPrefix must not be empty")
	}

	// Verification
	if strings.TrimSpace(c.Verification.RedisPrefix) == "" {
		return errors.New("Verification RedisPrefix must not be empty")
	}
	if c.Verification.RetentionGrace < 0 {
		return errors.New("Verification RetentionGrace must be >= 0")
	}
	if c.Verification.RedisPrefix == c.Session.RedisPrefix {
		return errors.New("Verification and Session RedisPrefix must differ")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
