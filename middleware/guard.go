package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	goOTT "github.com/MrEthical07/goOTT"
	"github.com/MrEthical07/goOTT/jwt"
)

// DefaultCookieName is the session cookie read when [Options.CookieName] is empty.
const DefaultCookieName = "ott_session"

// SessionResolver resolves a durable session token. *goOTT.Engine implements it.
type SessionResolver interface {
	ResolveSession(ctx context.Context, sessionToken string) (goOTT.AuthSession, error)
}

// Options configures [RequireSession].
type Options struct {
	// CookieName is the session cookie. Defaults to [DefaultCookieName].
	CookieName string
	// Assertions verifies Bearer session assertions. When nil only the
	// cookie is consulted.
	Assertions *jwt.Manager
}

type authSessionContextKey struct{}

// AuthSessionFromContext returns the session injected by [RequireSession].
func AuthSessionFromContext(ctx context.Context) (goOTT.AuthSession, bool) {
	auth, ok := ctx.Value(authSessionContextKey{}).(goOTT.AuthSession)
	return auth, ok
}

// WithAuthSession stores auth in ctx the way [RequireSession] does.
func WithAuthSession(ctx context.Context, auth goOTT.AuthSession) context.Context {
	return context.WithValue(ctx, authSessionContextKey{}, auth)
}

// RequireSession rejects requests without a resolvable session with 401.
// A Bearer assertion takes precedence over the cookie.
func RequireSession(resolver SessionResolver, opts Options) func(http.Handler) http.Handler {
	cookieName := strings.TrimSpace(opts.CookieName)
	if cookieName == "" {
		cookieName = DefaultCookieName
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if resolver == nil {
				writeUnauthorized(w)
				return
			}

			sessionToken, ok := sessionTokenFromRequest(r, cookieName, opts.Assertions)
			if !ok {
				writeUnauthorized(w)
				return
			}

			auth, err := resolver.ResolveSession(r.Context(), sessionToken)
			if err != nil {
				class := goOTT.ClassOf(err)
				if class == goOTT.ClassInternal {
					writeError(w, class, goOTT.Message(err))
					return
				}
				writeUnauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAuthSession(r.Context(), auth)))
		})
	}
}

func sessionTokenFromRequest(r *http.Request, cookieName string, assertions *jwt.Manager) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		if assertions == nil {
			return "", false
		}
		raw, ok := bearerToken(header)
		if !ok {
			return "", false
		}
		claims, err := assertions.ParseSessionAssertion(raw)
		if err != nil {
			return "", false
		}
		return claims.SID, true
	}

	cookie, err := r.Cookie(cookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return "", false
	}
	return cookie.Value, true
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}

func writeUnauthorized(w http.ResponseWriter) {
	writeError(w, goOTT.ClassUnauthorized, goOTT.ErrUnauthenticated.Error())
}

func writeError(w http.ResponseWriter, class goOTT.ErrorClass, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(class.HTTPStatus())
	_ = json.NewEncoder(w).Encode(map[string]string{"code": string(class), "message": msg})
}
