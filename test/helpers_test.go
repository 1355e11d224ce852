//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goOTT "github.com/MrEthical07/goOTT"
	"github.com/MrEthical07/goOTT/session"
)

// backend is one store combination the suites run against.
type backend struct {
	verifications goOTT.VerificationStore
	sessions      goOTT.SessionStore
	users         goOTT.UserProvider
	// seed persists the user and session the suite authenticates as.
	seed func(ctx context.Context, user session.User, sess *session.Session) error
}

func newEngine(t *testing.T, b backend, configure func(*goOTT.Config)) *goOTT.Engine {
	t.Helper()

	cfg := goOTT.DefaultConfig()
	if configure != nil {
		configure(&cfg)
	}
	engine, err := goOTT.New().
		WithConfig(cfg).
		WithVerificationStore(b.verifications).
		WithSessionStore(b.sessions).
		WithUserProvider(b.users).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func seedAuth(t *testing.T, b backend, suffix string) goOTT.AuthSession {
	t.Helper()

	now := time.Now()
	user := session.User{ID: "it-user-" + suffix, Email: "it-" + suffix + "@example.com"}
	sess := &session.Session{
		ID:        "it-session-" + suffix,
		Token:     "it-durable-" + suffix + "-" + now.Format("150405.000000000"),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	if err := b.seed(context.Background(), user, sess); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return goOTT.AuthSession{Session: sess, User: &user}
}

// runLifecycleSuite exercises the redemption contract every backend must honor.
func runLifecycleSuite(t *testing.T, b backend) {
	t.Run("single use", func(t *testing.T) {
		ctx := context.Background()
		engine := newEngine(t, b, func(c *goOTT.Config) { c.OneTimeToken.CreateSession = false })
		auth := seedAuth(t, b, "single")

		token, err := engine.GenerateOneTimeToken(ctx, auth)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		res, err := engine.VerifyOneTimeToken(ctx, token)
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if res.Session.ID != auth.Session.ID || res.Token != nil {
			t.Fatalf("unexpected result: %+v", res)
		}
		if _, err := engine.VerifyOneTimeToken(ctx, token); !errors.Is(err, goOTT.ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken on reuse, got %v", err)
		}
	})

	t.Run("hashed successor session", func(t *testing.T) {
		ctx := context.Background()
		engine := newEngine(t, b, func(c *goOTT.Config) { c.OneTimeToken.StoreToken = goOTT.StoreHashed })
		auth := seedAuth(t, b, "hashed")

		token, err := engine.GenerateOneTimeToken(ctx, auth)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		res, err := engine.VerifyOneTimeToken(ctx, token)
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if res.Token == nil || *res.Token == auth.Session.Token || res.Session.ID == auth.Session.ID {
			t.Fatalf("expected a successor session, got %+v", res)
		}
		if _, err := engine.ResolveSession(ctx, *res.Token); err != nil {
			t.Fatalf("successor session does not resolve: %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		ctx := context.Background()
		engine := newEngine(t, b, func(c *goOTT.Config) { c.OneTimeToken.ExpiresIn = 0 })
		auth := seedAuth(t, b, "expired")

		token, err := engine.GenerateOneTimeToken(ctx, auth)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if _, err := engine.VerifyOneTimeToken(ctx, token); !errors.Is(err, goOTT.ErrTokenExpired) {
			t.Fatalf("expected ErrTokenExpired, got %v", err)
		}
		if _, err := engine.VerifyOneTimeToken(ctx, token); !errors.Is(err, goOTT.ErrInvalidToken) {
			t.Fatalf("expected expired record to be removed, got %v", err)
		}
	})

	t.Run("concurrent redemption", func(t *testing.T) {
		ctx := context.Background()
		engine := newEngine(t, b, func(c *goOTT.Config) { c.OneTimeToken.CreateSession = false })
		auth := seedAuth(t, b, "race")

		token, err := engine.GenerateOneTimeToken(ctx, auth)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}

		const workers = 24
		var (
			wg       sync.WaitGroup
			gate     = make(chan struct{})
			winners  int64
			rejected int64
			other    int64
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-gate
				_, err := engine.VerifyOneTimeToken(ctx, token)
				switch {
				case err == nil:
					atomic.AddInt64(&winners, 1)
				case errors.Is(err, goOTT.ErrInvalidToken):
					atomic.AddInt64(&rejected, 1)
				default:
					atomic.AddInt64(&other, 1)
				}
			}()
		}
		close(gate)
		wg.Wait()

		if winners != 1 || rejected != workers-1 || other != 0 {
			t.Fatalf("expected 1 winner, got winners=%d rejected=%d other=%d", winners, rejected, other)
		}
	})
}
