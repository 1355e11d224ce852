package goOTT

import (
	"errors"
	"time"

	internalaudit "github.com/MrEthical07/goOTT/internal/audit"
	"github.com/MrEthical07/goOTT/session"
	"github.com/MrEthical07/goOTT/verification"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Builder defines a public type used by goOTT APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	verifications VerificationStore
	sessions      SessionStore
	userProvider  UserProvider
	transport     SessionTransport
	generator     TokenGenerator
	hasher        TokenHasher
	auditSink     AuditSink
	logger        *zap.Logger
	clock         func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration. Call it before the other
// With methods that adjust individual fields.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis backs both the verification store and the session store with
// client, keyed by the prefixes in [Config.Verification] and [Config.Session].
// Stores registered explicitly with [Builder.WithVerificationStore] or
// [Builder.WithSessionStore] take precedence.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithVerificationStore sets the store one-time token records are kept in.
func (b *Builder) WithVerificationStore(store VerificationStore) *Builder {
	b.verifications = store
	return b
}

// WithSessionStore sets the store durable sessions are resolved from and
// successor sessions are saved to.
func (b *Builder) WithSessionStore(store SessionStore) *Builder {
	b.sessions = store
	return b
}

// WithUserProvider sets the directory used to resolve a session's user.
// It is required.
func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.userProvider = up
	return b
}

// WithSessionTransport sets the collaborator that establishes a successor
// session as the caller's active session.
func (b *Builder) WithSessionTransport(t SessionTransport) *Builder {
	b.transport = t
	return b
}

// WithTokenGenerator replaces the default 32-character alphanumeric generator.
func (b *Builder) WithTokenGenerator(g TokenGenerator) *Builder {
	b.generator = g
	return b
}

// WithTokenHasher registers the hasher used by [StoreCustomHasher].
func (b *Builder) WithTokenHasher(h TokenHasher) *Builder {
	b.hasher = h
	return b
}

// WithAuditSink sets the sink that receives audit events when
// [AuditConfig.Enabled] is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the logger for anomalies that are not surfaced to callers.
// The default discards everything.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides the time source used for expiry decisions and session
// timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, resolves the stores and storage
// transform, and returns a ready Engine. It fails when the configuration is
// invalid or a required store, user provider or custom hasher is missing.
//
// A Builder can be built once; a second call returns an error. Build is not
// safe for concurrent use.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// -------- STORES --------
	verifications := b.verifications
	sessions := b.sessions
	if b.redis != nil {
		if verifications == nil {
			verifications = verification.NewRedisStore(b.redis, cfg.Verification.RedisPrefix, cfg.Verification.RetentionGrace)
		}
		if sessions == nil {
			sessions = session.NewRedisStore(b.redis, cfg.Session.RedisPrefix)
		}
	}
	if verifications == nil {
		return nil, errors.New("verification store or redis client required")
	}
	if sessions == nil {
		return nil, errors.New("session store or redis client required")
	}
	if b.userProvider == nil {
		return nil, errors.New("user provider required")
	}

	// -------- STORAGE TRANSFORM --------
	storage, err := NewTokenStorage(cfg.OneTimeToken.StoreToken, b.hasher)
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("module", "goOTT"))

	now := b.clock
	if now == nil {
		now = time.Now
	}

	engine := &Engine{
		config:        cfg,
		storage:       storage,
		verifications: verifications,
		sessions:      sessions,
		users:         b.userProvider,
		transport:     b.transport,
		generator:     b.generator,
		metrics:       NewMetrics(cfg.Metrics),
		logger:        logger,
		now:           now,
	}

	// -------- AUDIT --------
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		OnDrop: func(total uint64) {
			// logged at 1, 2, 4, 8, ... drops
			if total&(total-1) == 0 {
				logger.Warn("audit events dropped", zap.Uint64("total", total))
			}
		},
	}, b.auditSink)

	engine.flows.OneTimeToken = engine.oneTimeTokenFlowDeps()

	b.built = true

	return engine, nil
}
