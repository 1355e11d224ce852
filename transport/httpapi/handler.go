package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	goOTT "github.com/MrEthical07/goOTT"
	"github.com/MrEthical07/goOTT/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Engine is the subset of *goOTT.Engine the handlers call.
type Engine interface {
	GenerateOneTimeToken(ctx context.Context, auth goOTT.AuthSession) (string, error)
	VerifyOneTimeToken(ctx context.Context, token string) (*goOTT.VerifyResult, error)
	ResolveSession(ctx context.Context, sessionToken string) (goOTT.AuthSession, error)
}

// VerifyRequest is the body of POST /one-time-token/verify.
type VerifyRequest struct {
	Token string `json:"token" validate:"required,min=1"`
}

// Handler serves the one-time token endpoints.
type Handler struct {
	engine   Engine
	validate *validator.Validate
	logger   *zap.Logger
}

// NewHandler returns a Handler backed by engine. A nil logger discards logs.
func NewHandler(engine Engine, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		engine:   engine,
		validate: validator.New(),
		logger:   logger.With(zap.String("module", "httpapi")),
	}
}

// Generate issues a token for the session placed in the context by
// middleware.RequireSession.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	auth, ok := middleware.AuthSessionFromContext(r.Context())
	if !ok {
		writeError(w, goOTT.ErrUnauthenticated)
		return
	}

	token, err := h.engine.GenerateOneTimeToken(requestContext(w, r), auth)
	if err != nil {
		h.logFailure("generate", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TokenEnvelope{Token: token})
}

// Verify redeems the token in the request body.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, goOTT.ErrInvalidInput)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, goOTT.ErrInvalidInput)
		return
	}

	result, err := h.engine.VerifyOneTimeToken(requestContext(w, r), req.Token)
	if err != nil {
		h.logFailure("verify", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) logFailure(op string, err error) {
	if goOTT.ClassOf(err) != goOTT.ClassInternal {
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	h.logger.Error("one-time token request failed", zap.String("op", op), zap.Error(err))
}
