// Package middleware authenticates HTTP requests against goOTT sessions.
//
// [RequireSession] reads the durable session token from the session cookie or
// from a Bearer session assertion, resolves it through Engine.ResolveSession
// and stores the resulting goOTT.AuthSession in the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. Session lookup and
// expiry decisions stay in the Engine; assertion signature checks are
// delegated to the jwt package.
package middleware
