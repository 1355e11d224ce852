package goOTT

import (
	"context"
	"io"

	internalaudit "github.com/MrEthical07/goOTT/internal/audit"
	"github.com/MrEthical07/goOTT/session"
	"github.com/MrEthical07/goOTT/verification"
	"go.uber.org/zap"
)

// User is the account a session belongs to, as resolved by [UserProvider].
type User = session.User

// Session is a durable session as persisted by a [SessionStore].
type Session = session.Session

// VerificationRecord is a persisted one-time token record.
type VerificationRecord = verification.Record

// AuthSession is the (session, user) pair of an authenticated caller.
// It is the explicit form of the "current session" a token is issued for.
type AuthSession struct {
	Session *Session `json:"session"`
	User    *User    `json:"user"`
}

// VerifyResult is returned by [Engine.VerifyOneTimeToken]. Token is nil when
// the original session is returned and set to the successor session's durable
// token otherwise.
type VerifyResult struct {
	Session *Session `json:"session"`
	User    *User    `json:"user"`
	Token   *string  `json:"token"`
}

// VerificationStore is the generic verification-record store one-time tokens
// live in. DeleteVerification must remove the record only if the stored record
// still carries record.ID, and must report [verification.ErrNotFound] when
// nothing was removed.
//
//	Implementations: verification.RedisStore, store/memory, store/postgres, store/dynamo
type VerificationStore interface {
	CreateVerification(ctx context.Context, record verification.Record) error
	FindVerification(ctx context.Context, identifier string) (*verification.Record, error)
	DeleteVerification(ctx context.Context, record verification.Record) error
}

// SessionStore persists durable sessions. FindSessionByToken reports
// [session.ErrNotFound] for unknown or expired sessions.
type SessionStore interface {
	SaveSession(ctx context.Context, sess *session.Session) error
	FindSessionByToken(ctx context.Context, token string) (*session.Session, error)
}

// UserProvider is the primary interface that callers implement to integrate
// goOTT with their user database.
type UserProvider interface {
	GetUserByID(ctx context.Context, userID string) (*session.User, error)
}

// SessionTransport establishes a freshly minted session as the caller's active
// session, typically by setting a cookie or a response header.
type SessionTransport interface {
	SetSession(ctx context.Context, auth AuthSession) error
}

// TokenGenerator produces the logical one-time token for auth. An empty result
// is treated as a generation failure.
type TokenGenerator func(ctx context.Context, auth AuthSession) (string, error)

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// ZapSink is an [AuditSink] that writes each event as a structured log entry.
type ZapSink = internalaudit.ZapSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewZapSink creates a [ZapSink] over logger. A nil logger discards events.
func NewZapSink(logger *zap.Logger) *ZapSink {
	return internalaudit.NewZapSink(logger)
}
