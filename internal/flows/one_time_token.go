package flows

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goOTT/session"
	"github.com/MrEthical07/goOTT/verification"
)

type OneTimeTokenMetrics struct {
	Generated         int
	GenerateForbidden int
	GenerateFailure   int
	Verified          int
	Invalid           int
	Expired           int
	ReplayRejected    int
	SessionNotFound   int
	VerifyFailure     int
	SessionCreated    int
}

type OneTimeTokenEvents struct {
	Generate string
	Verify   string
	Replay   string
	Expired  string
}

type OneTimeTokenErrors struct {
	EngineNotReady   error
	Forbidden        error
	Unauthenticated  error
	InvalidInput     error
	InvalidToken     error
	TokenExpired     error
	SessionNotFound  error
	TokenGeneration  error
	StoreUnavailable error
	SessionCreation  error
	SessionTransport error
}

// OneTimeTokenDeps carries configuration and collaborators for the issue and
// redeem flows. The root engine builds it once per call.
type OneTimeTokenDeps struct {
	ExpiresIn            time.Duration
	DisableClientRequest bool
	CreateSession        bool
	SessionLifetime      time.Duration
	IdentifierPrefix     string

	Now                  func() time.Time
	IsClientRequest      func(context.Context) bool
	ClientIPFromContext  func(context.Context) string
	UserAgentFromContext func(context.Context) string

	GenerateToken func(context.Context, *session.Session, *session.User) (string, error)
	StoreKey      func(context.Context, string) (string, error)

	CreateVerification func(context.Context, verification.Record) error
	FindVerification   func(context.Context, string) (*verification.Record, error)
	DeleteVerification func(context.Context, verification.Record) error

	// ResolveSession returns Errors.SessionNotFound when the session or its
	// user no longer resolves.
	ResolveSession  func(context.Context, string) (*session.Session, *session.User, error)
	NewSessionID    func() string
	NewSessionToken func() (string, error)
	SaveSession     func(context.Context, *session.Session) error
	// SetSession is optional.
	SetSession func(context.Context, *session.Session, *session.User) error

	LogCleanupFailure func(context.Context, string, error)

	MetricInc func(int)
	EmitAudit func(context.Context, string, bool, string, string, error, func() map[string]string)

	Metrics OneTimeTokenMetrics
	Events  OneTimeTokenEvents
	Errors  OneTimeTokenErrors
}

// VerifyResult is the flow-level redemption outcome. Token is nil when the
// original session is returned.
type VerifyResult struct {
	Session *session.Session
	User    *session.User
	Token   *string
}

// RunGenerateOneTimeToken issues a token bound to sess and persists its
// verification record. Exactly one record is created on success.
func RunGenerateOneTimeToken(ctx context.Context, sess *session.Session, user *session.User, deps OneTimeTokenDeps) (string, error) {
	normalizeOneTimeTokenDeps(&deps)

	if deps.GenerateToken == nil || deps.StoreKey == nil || deps.CreateVerification == nil {
		return "", deps.Errors.EngineNotReady
	}

	if deps.DisableClientRequest && deps.IsClientRequest(ctx) {
		deps.MetricInc(deps.Metrics.GenerateForbidden)
		deps.EmitAudit(ctx, deps.Events.Generate, false, "", "", deps.Errors.Forbidden, func() map[string]string {
			return map[string]string{
				"reason": "client_request",
			}
		})
		return "", deps.Errors.Forbidden
	}

	if sess == nil || sess.Token == "" {
		deps.MetricInc(deps.Metrics.GenerateFailure)
		deps.EmitAudit(ctx, deps.Events.Generate, false, "", "", deps.Errors.Unauthenticated, nil)
		return "", deps.Errors.Unauthenticated
	}

	userID := sess.UserID
	fail := func(err error, reason string) (string, error) {
		deps.MetricInc(deps.Metrics.GenerateFailure)
		deps.EmitAudit(ctx, deps.Events.Generate, false, userID, sess.ID, err, func() map[string]string {
			return map[string]string{
				"reason": reason,
			}
		})
		return "", err
	}

	token, err := deps.GenerateToken(ctx, sess, user)
	if err != nil {
		if isContextErr(err) {
			return "", err
		}
		return fail(wrap(deps.Errors.TokenGeneration, err), "generator_failed")
	}
	if strings.TrimSpace(token) == "" {
		return fail(deps.Errors.TokenGeneration, "empty_token")
	}

	now := deps.Now()
	expiresAt := now.Add(deps.ExpiresIn)

	stored, err := deps.StoreKey(ctx, token)
	if err != nil {
		return fail(err, "storage_transform_failed")
	}

	record := verification.Record{
		Identifier: deps.IdentifierPrefix + stored,
		Value:      sess.Token,
		ExpiresAt:  expiresAt,
		CreatedAt:  now,
	}
	if err := deps.CreateVerification(ctx, record); err != nil {
		if errors.Is(err, verification.ErrDuplicate) {
			return fail(wrap(deps.Errors.TokenGeneration, err), "identifier_collision")
		}
		return fail(wrap(deps.Errors.StoreUnavailable, err), "store_failed")
	}

	deps.MetricInc(deps.Metrics.Generated)
	deps.EmitAudit(ctx, deps.Events.Generate, true, userID, sess.ID, nil, func() map[string]string {
		return map[string]string{
			"expires_at": expiresAt.UTC().Format(time.RFC3339Nano),
		}
	})
	return token, nil
}

// RunVerifyOneTimeToken redeems token. Phases run in a fixed order: locate,
// expiry check, invalidate, resolve, issue. The record is consumed before the
// bound session is resolved, so a token whose session is gone is still burned.
func RunVerifyOneTimeToken(ctx context.Context, token string, deps OneTimeTokenDeps) (VerifyResult, error) {
	normalizeOneTimeTokenDeps(&deps)

	if deps.StoreKey == nil ||
		deps.FindVerification == nil ||
		deps.DeleteVerification == nil ||
		deps.ResolveSession == nil {
		return VerifyResult{}, deps.Errors.EngineNotReady
	}
	if deps.CreateSession && (deps.SaveSession == nil || deps.NewSessionToken == nil || deps.NewSessionID == nil) {
		return VerifyResult{}, deps.Errors.EngineNotReady
	}

	// Blank input is rejected; anything else is looked up exactly as presented.
	if strings.TrimSpace(token) == "" {
		deps.MetricInc(deps.Metrics.Invalid)
		deps.EmitAudit(ctx, deps.Events.Verify, false, "", "", deps.Errors.InvalidInput, func() map[string]string {
			return map[string]string{
				"reason": "empty_token",
			}
		})
		return VerifyResult{}, deps.Errors.InvalidInput
	}

	failInternal := func(err error, reason string) (VerifyResult, error) {
		deps.MetricInc(deps.Metrics.VerifyFailure)
		deps.EmitAudit(ctx, deps.Events.Verify, false, "", "", err, func() map[string]string {
			return map[string]string{
				"reason": reason,
			}
		})
		return VerifyResult{}, err
	}

	// locate
	stored, err := deps.StoreKey(ctx, token)
	if err != nil {
		return failInternal(err, "storage_transform_failed")
	}
	identifier := deps.IdentifierPrefix + stored

	record, err := deps.FindVerification(ctx, identifier)
	if err != nil {
		if errors.Is(err, verification.ErrNotFound) {
			deps.MetricInc(deps.Metrics.Invalid)
			deps.EmitAudit(ctx, deps.Events.Verify, false, "", "", deps.Errors.InvalidToken, func() map[string]string {
				return map[string]string{
					"reason": "not_found",
				}
			})
			return VerifyResult{}, deps.Errors.InvalidToken
		}
		if isContextErr(err) {
			return VerifyResult{}, err
		}
		return failInternal(wrap(deps.Errors.StoreUnavailable, err), "find_failed")
	}

	// expiry
	if record.Expired(deps.Now()) {
		if delErr := deps.DeleteVerification(ctx, *record); delErr != nil && !errors.Is(delErr, verification.ErrNotFound) {
			deps.LogCleanupFailure(ctx, identifier, delErr)
		}
		deps.MetricInc(deps.Metrics.Expired)
		deps.EmitAudit(ctx, deps.Events.Expired, false, "", "", deps.Errors.TokenExpired, func() map[string]string {
			return map[string]string{
				"expired_at": record.ExpiresAt.UTC().Format(time.RFC3339Nano),
			}
		})
		return VerifyResult{}, deps.Errors.TokenExpired
	}

	// invalidate
	if err := deps.DeleteVerification(ctx, *record); err != nil {
		if errors.Is(err, verification.ErrNotFound) {
			deps.MetricInc(deps.Metrics.ReplayRejected)
			deps.EmitAudit(ctx, deps.Events.Replay, false, "", "", deps.Errors.InvalidToken, func() map[string]string {
				return map[string]string{
					"reason": "consumed_concurrently",
				}
			})
			return VerifyResult{}, deps.Errors.InvalidToken
		}
		if isContextErr(err) {
			return VerifyResult{}, err
		}
		return failInternal(wrap(deps.Errors.StoreUnavailable, err), "delete_failed")
	}

	// resolve
	original, user, err := deps.ResolveSession(ctx, record.Value)
	if err != nil {
		if errors.Is(err, deps.Errors.SessionNotFound) {
			deps.MetricInc(deps.Metrics.SessionNotFound)
			deps.EmitAudit(ctx, deps.Events.Verify, false, "", "", deps.Errors.SessionNotFound, func() map[string]string {
				return map[string]string{
					"reason": "session_gone",
				}
			})
			return VerifyResult{}, deps.Errors.SessionNotFound
		}
		return failInternal(err, "session_lookup_failed")
	}

	if !deps.CreateSession {
		deps.MetricInc(deps.Metrics.Verified)
		deps.EmitAudit(ctx, deps.Events.Verify, true, user.ID, original.ID, nil, func() map[string]string {
			return map[string]string{
				"session_created": "false",
			}
		})
		return VerifyResult{Session: original, User: user}, nil
	}

	// issue
	durable, err := deps.NewSessionToken()
	if err != nil {
		return failInternal(wrap(deps.Errors.SessionCreation, err), "session_token_failed")
	}
	now := deps.Now()
	successor := &session.Session{
		ID:        deps.NewSessionID(),
		Token:     durable,
		UserID:    user.ID,
		IPAddress: deps.ClientIPFromContext(ctx),
		UserAgent: deps.UserAgentFromContext(ctx),
		CreatedAt: now,
		ExpiresAt: now.Add(deps.SessionLifetime),
	}
	if err := deps.SaveSession(ctx, successor); err != nil {
		return failInternal(wrap(deps.Errors.SessionCreation, err), "session_save_failed")
	}
	deps.MetricInc(deps.Metrics.SessionCreated)

	if deps.SetSession != nil {
		if err := deps.SetSession(ctx, successor, user); err != nil {
			return failInternal(wrap(deps.Errors.SessionTransport, err), "session_transport_failed")
		}
	}

	deps.MetricInc(deps.Metrics.Verified)
	deps.EmitAudit(ctx, deps.Events.Verify, true, user.ID, successor.ID, nil, func() map[string]string {
		return map[string]string{
			"session_created":     "true",
			"original_session_id": original.ID,
		}
	})
	return VerifyResult{Session: successor, User: user, Token: &successor.Token}, nil
}

func normalizeOneTimeTokenDeps(deps *OneTimeTokenDeps) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.IsClientRequest == nil {
		deps.IsClientRequest = func(context.Context) bool { return false }
	}
	if deps.ClientIPFromContext == nil {
		deps.ClientIPFromContext = func(context.Context) string { return "" }
	}
	if deps.UserAgentFromContext == nil {
		deps.UserAgentFromContext = func(context.Context) string { return "" }
	}
	if deps.LogCleanupFailure == nil {
		deps.LogCleanupFailure = func(context.Context, string, error) {}
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, string, error, func() map[string]string) {}
	}
	if deps.Errors.EngineNotReady == nil {
		deps.Errors.EngineNotReady = errors.New("engine not initialized")
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
