package goOTT

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	internalaudit "github.com/MrEthical07/goOTT/internal/audit"
	"github.com/MrEthical07/goOTT/internal/flows"
	"github.com/MrEthical07/goOTT/session"
	"go.uber.org/zap"
)

// Engine issues and redeems one-time tokens.
//
// Engine instances are created by [Builder.Build] and are safe for concurrent
// use. The only goroutine an Engine owns is the optional audit dispatcher,
// released by [Engine.Close].
type Engine struct {
	config        Config
	storage       TokenStorage
	verifications VerificationStore
	sessions      SessionStore
	users         UserProvider
	transport     SessionTransport
	generator     TokenGenerator
	audit         *internalaudit.Dispatcher
	metrics       *Metrics
	logger        *zap.Logger
	now           func() time.Time
	flows         flows.Deps
}

// Close drains and stops the audit dispatcher and flushes the logger. It is
// safe to call on a nil Engine and more than once.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
	if e.logger != nil {
		_ = e.logger.Sync()
	}
}

// AuditDropped returns how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the engine counters and histograms. It is
// safe for concurrent use.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Config returns a copy of the configuration the engine was built with.
func (e *Engine) Config() Config {
	if e == nil {
		return defaultConfig()
	}
	return cloneConfig(e.config)
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// ResolveSession turns a durable session token into the authenticated
// (session, user) pair. Unknown or expired sessions and sessions whose user no
// longer exists yield [ErrSessionNotFound]; other store failures are wrapped
// in [ErrStoreUnavailable].
func (e *Engine) ResolveSession(ctx context.Context, sessionToken string) (AuthSession, error) {
	if e == nil || e.sessions == nil || e.users == nil {
		return AuthSession{}, ErrEngineNotReady
	}
	sessionToken = strings.TrimSpace(sessionToken)
	if sessionToken == "" {
		return AuthSession{}, ErrSessionNotFound
	}

	sess, err := e.sessions.FindSessionByToken(ctx, sessionToken)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return AuthSession{}, ErrSessionNotFound
		}
		return AuthSession{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if sess == nil || !sess.Live(e.now()) {
		return AuthSession{}, ErrSessionNotFound
	}

	user, err := e.users.GetUserByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, session.ErrUserNotFound) {
			return AuthSession{}, ErrSessionNotFound
		}
		return AuthSession{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if user == nil {
		return AuthSession{}, ErrSessionNotFound
	}

	return AuthSession{Session: sess, User: user}, nil
}
