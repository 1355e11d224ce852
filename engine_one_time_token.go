package goOTT

import (
	"context"
	"time"

	"github.com/MrEthical07/goOTT/internal"
	"github.com/MrEthical07/goOTT/internal/flows"
	"github.com/MrEthical07/goOTT/session"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GenerateOneTimeToken issues a single-use token bound to auth's session and
// returns it. The token is valid for [OneTimeTokenConfig.ExpiresIn] and can be
// redeemed once with [Engine.VerifyOneTimeToken].
//
// It fails with [ErrForbidden] when DisableClientRequest is set and ctx was
// marked by [WithClientRequest], with [ErrUnauthenticated] when auth carries
// no session, and with an internal error when the generator, the storage
// transform or the verification store fails. The current session is never
// modified.
func (e *Engine) GenerateOneTimeToken(ctx context.Context, auth AuthSession) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	return flows.RunGenerateOneTimeToken(ctx, auth.Session, auth.User, e.flows.OneTimeToken)
}

// VerifyOneTimeToken redeems token exactly once.
//
// The record is consumed before the bound session is resolved. Of any number
// of concurrent redemptions of the same token at most one succeeds; the rest
// fail with [ErrInvalidToken]. With CreateSession enabled a successor session
// is minted, handed to the configured [SessionTransport], and returned together
// with its durable token; otherwise the original session is returned and
// Token is nil.
func (e *Engine) VerifyOneTimeToken(ctx context.Context, token string) (*VerifyResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricVerifyLatency, time.Since(start))
		}()
	}

	res, err := flows.RunVerifyOneTimeToken(ctx, token, e.flows.OneTimeToken)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{
		Session: res.Session,
		User:    res.User,
		Token:   res.Token,
	}, nil
}

func (e *Engine) oneTimeTokenFlowDeps() flows.OneTimeTokenDeps {
	cfg := e.config.OneTimeToken

	deps := flows.OneTimeTokenDeps{
		ExpiresIn:            cfg.ExpiresIn,
		DisableClientRequest: cfg.DisableClientRequest,
		CreateSession:        cfg.CreateSession,
		SessionLifetime:      e.config.Session.Lifetime,
		IdentifierPrefix:     IdentifierPrefix,
		Now:                  e.now,
		IsClientRequest:      IsClientRequest,
		ClientIPFromContext:  clientIPFromContext,
		UserAgentFromContext: userAgentFromContext,
		GenerateToken: func(ctx context.Context, sess *session.Session, user *session.User) (string, error) {
			if e.generator != nil {
				return e.generator(ctx, AuthSession{Session: sess, User: user})
			}
			return internal.NewToken(cfg.TokenLength)
		},
		StoreKey:           e.storage.StoreKey,
		CreateVerification: e.verifications.CreateVerification,
		FindVerification:   e.verifications.FindVerification,
		DeleteVerification: e.verifications.DeleteVerification,
		ResolveSession: func(ctx context.Context, token string) (*session.Session, *session.User, error) {
			auth, err := e.ResolveSession(ctx, token)
			if err != nil {
				return nil, nil, err
			}
			return auth.Session, auth.User, nil
		},
		NewSessionID:    func() string { return uuid.NewString() },
		NewSessionToken: internal.NewSessionToken,
		SaveSession:     e.sessions.SaveSession,
		LogCleanupFailure: func(_ context.Context, identifier string, err error) {
			e.logger.Warn("expired one-time token cleanup failed",
				zap.String("identifier_prefix", IdentifierPrefix),
				zap.Int("identifier_len", len(identifier)),
				zap.Error(err),
			)
		},
		MetricInc: func(id int) {
			e.metricInc(MetricID(id))
		},
		EmitAudit: e.emitAudit,
		Metrics: flows.OneTimeTokenMetrics{
			Generated:         int(MetricOneTimeTokenGenerated),
			GenerateForbidden: int(MetricOneTimeTokenGenerateForbidden),
			GenerateFailure:   int(MetricOneTimeTokenGenerateFailure),
			Verified:          int(MetricOneTimeTokenVerified),
			Invalid:           int(MetricOneTimeTokenInvalid),
			Expired:           int(MetricOneTimeTokenExpired),
			ReplayRejected:    int(MetricOneTimeTokenReplayRejected),
			SessionNotFound:   int(MetricOneTimeTokenSessionNotFound),
			VerifyFailure:     int(MetricOneTimeTokenVerifyFailure),
			SessionCreated:    int(MetricSessionCreated),
		},
		Events: flows.OneTimeTokenEvents{
			Generate: auditEventOneTimeTokenGenerate,
			Verify:   auditEventOneTimeTokenVerify,
			Replay:   auditEventOneTimeTokenReplay,
			Expired:  auditEventOneTimeTokenExpired,
		},
		Errors: flows.OneTimeTokenErrors{
			EngineNotReady:   ErrEngineNotReady,
			Forbidden:        ErrForbidden,
			Unauthenticated:  ErrUnauthenticated,
			InvalidInput:     ErrInvalidInput,
			InvalidToken:     ErrInvalidToken,
			TokenExpired:     ErrTokenExpired,
			SessionNotFound:  ErrSessionNotFound,
			TokenGeneration:  ErrTokenGeneration,
			StoreUnavailable: ErrStoreUnavailable,
			SessionCreation:  ErrSessionCreation,
			SessionTransport: ErrSessionTransport,
		},
	}

	if e.transport != nil {
		deps.SetSession = func(ctx context.Context, sess *session.Session, user *session.User) error {
			return e.transport.SetSession(ctx, AuthSession{Session: sess, User: user})
		}
	}

	return deps
}
