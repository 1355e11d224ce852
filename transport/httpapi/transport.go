package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	goOTT "github.com/MrEthical07/goOTT"
	"github.com/MrEthical07/goOTT/jwt"
	"github.com/MrEthical07/goOTT/middleware"
)

// AuthTokenHeader carries the session assertion written by [BearerTransport].
const AuthTokenHeader = "Set-Auth-Token"

var (
	errNoResponseWriter = errors.New("no response writer in context")
	errNoSession        = errors.New("auth session has no session")
)

// CookieTransport establishes a successor session by setting the session
// cookie on the in-flight response.
type CookieTransport struct {
	Name     string
	Domain   string
	Path     string
	Secure   bool
	SameSite http.SameSite
	// Now defaults to time.Now and is used to derive Max-Age.
	Now func() time.Time
}

// NewCookieTransport returns a CookieTransport with secure defaults: the
// middleware's default cookie name, path "/", Secure, SameSite=Lax.
func NewCookieTransport() *CookieTransport {
	return &CookieTransport{
		Name:     middleware.DefaultCookieName,
		Path:     "/",
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

// SetSession implements goOTT.SessionTransport.
func (t *CookieTransport) SetSession(ctx context.Context, auth goOTT.AuthSession) error {
	w, ok := ResponseWriterFromContext(ctx)
	if !ok {
		return errNoResponseWriter
	}
	if auth.Session == nil || auth.Session.Token == "" {
		return errNoSession
	}

	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	name := t.Name
	if name == "" {
		name = middleware.DefaultCookieName
	}
	path := t.Path
	if path == "" {
		path = "/"
	}

	maxAge := int(auth.Session.ExpiresAt.Sub(now()).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    auth.Session.Token,
		Domain:   t.Domain,
		Path:     path,
		Expires:  auth.Session.ExpiresAt.UTC(),
		MaxAge:   maxAge,
		Secure:   t.Secure,
		HttpOnly: true,
		SameSite: t.SameSite,
	})
	return nil
}

// BearerTransport establishes a successor session by returning a signed
// session assertion in the [AuthTokenHeader] response header.
type BearerTransport struct {
	Assertions *jwt.Manager
}

// SetSession implements goOTT.SessionTransport.
func (t *BearerTransport) SetSession(ctx context.Context, auth goOTT.AuthSession) error {
	if t.Assertions == nil {
		return errors.New("bearer transport requires a jwt manager")
	}
	w, ok := ResponseWriterFromContext(ctx)
	if !ok {
		return errNoResponseWriter
	}
	if auth.Session == nil {
		return errNoSession
	}

	token, err := t.Assertions.CreateSessionAssertion(auth.Session.Token, auth.Session.UserID, auth.Session.ExpiresAt)
	if err != nil {
		return err
	}
	w.Header().Set(AuthTokenHeader, token)
	return nil
}

// MultiTransport applies every transport in order and stops at the first error.
type MultiTransport []goOTT.SessionTransport

// SetSession implements goOTT.SessionTransport.
func (m MultiTransport) SetSession(ctx context.Context, auth goOTT.AuthSession) error {
	for _, t := range m {
		if err := t.SetSession(ctx, auth); err != nil {
			return err
		}
	}
	return nil
}
