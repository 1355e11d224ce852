package goOTT

import (
	"context"
	"errors"
)

const (
	auditEventOneTimeTokenGenerate = "one_time_token_generate"
	auditEventOneTimeTokenVerify   = "one_time_token_verify"
	auditEventOneTimeTokenReplay   = "one_time_token_replay"
	auditEventOneTimeTokenExpired  = "one_time_token_expired"
)

// AuditErrorCode is the stable, client-safe error code recorded on failed
// audit events.
type AuditErrorCode string

const (
	auditErrForbidden        AuditErrorCode = "forbidden"
	auditErrUnauthenticated  AuditErrorCode = "unauthenticated"
	auditErrInvalidInput     AuditErrorCode = "invalid_input"
	auditErrInvalidToken     AuditErrorCode = "invalid_token"
	auditErrTokenExpired     AuditErrorCode = "token_expired"
	auditErrSessionNotFound  AuditErrorCode = "session_not_found"
	auditErrTokenGeneration  AuditErrorCode = "token_generation_failed"
	auditErrTokenStorage     AuditErrorCode = "token_storage_failed"
	auditErrSessionCreation  AuditErrorCode = "session_creation_failed"
	auditErrSessionTransport AuditErrorCode = "session_transport_failed"
	auditErrUnavailable      AuditErrorCode = "backend_unavailable"
	auditErrInternal         AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		UserID:    userID,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrForbidden):
		return auditErrForbidden
	case errors.Is(err, ErrUnauthenticated):
		return auditErrUnauthenticated
	case errors.Is(err, ErrInvalidInput):
		return auditErrInvalidInput
	case errors.Is(err, ErrInvalidToken):
		return auditErrInvalidToken
	case errors.Is(err, ErrTokenExpired):
		return auditErrTokenExpired
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrTokenGeneration):
		return auditErrTokenGeneration
	case errors.Is(err, ErrTokenStorage):
		return auditErrTokenStorage
	case errors.Is(err, ErrSessionCreation):
		return auditErrSessionCreation
	case errors.Is(err, ErrSessionTransport):
		return auditErrSessionTransport
	case errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, ErrEngineNotReady):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
