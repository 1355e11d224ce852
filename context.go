package goOTT

import "context"

type clientRequestContextKey struct{}
type clientIPContextKey struct{}
type userAgentContextKey struct{}

// WithClientRequest marks ctx as originating from a network client. Transport
// adapters call it for every inbound request; server-side code never does.
// [OneTimeTokenConfig.DisableClientRequest] rejects generation for marked calls.
func WithClientRequest(ctx context.Context) context.Context {
	return context.WithValue(ctx, clientRequestContextKey{}, true)
}

// IsClientRequest reports whether ctx was marked by [WithClientRequest].
func IsClientRequest(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	marked, _ := ctx.Value(clientRequestContextKey{}).(bool)
	return marked
}

// WithClientIP attaches the caller's IP address to ctx. The Engine records it
// on sessions it creates and on audit events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithUserAgent attaches the HTTP User-Agent string to ctx.
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return context.WithValue(ctx, userAgentContextKey{}, userAgent)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

func userAgentFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	userAgent, _ := ctx.Value(userAgentContextKey{}).(string)
	return userAgent
}
