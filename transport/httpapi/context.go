package httpapi

import (
	"context"
	"net"
	"net/http"

	goOTT "github.com/MrEthical07/goOTT"
)

type responseWriterContextKey struct{}

// WithResponseWriter attaches w to ctx so that session transports can write
// cookies or headers while the Engine call is in flight.
func WithResponseWriter(ctx context.Context, w http.ResponseWriter) context.Context {
	return context.WithValue(ctx, responseWriterContextKey{}, w)
}

// ResponseWriterFromContext returns the writer attached by [WithResponseWriter].
func ResponseWriterFromContext(ctx context.Context) (http.ResponseWriter, bool) {
	w, ok := ctx.Value(responseWriterContextKey{}).(http.ResponseWriter)
	return w, ok && w != nil
}

// requestContext marks the call as client-originated and carries the caller
// metadata the Engine records.
func requestContext(w http.ResponseWriter, r *http.Request) context.Context {
	ctx := goOTT.WithClientRequest(r.Context())
	ctx = goOTT.WithClientIP(ctx, clientIP(r))
	ctx = goOTT.WithUserAgent(ctx, r.UserAgent())
	return WithResponseWriter(ctx, w)
}

// clientIP expects chi's RealIP middleware to have rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
