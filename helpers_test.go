package goOTT

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goOTT/session"
	"github.com/MrEthical07/goOTT/store/memory"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testFixture struct {
	engine        *Engine
	clock         *testClock
	verifications *memory.VerificationStore
	sessions      *memory.SessionStore
	users         *memory.Users
	auth          AuthSession
}

func newTestFixture(t *testing.T, cfg Config, configure ...func(*Builder)) *testFixture {
	t.Helper()

	clock := newTestClock()
	fx := &testFixture{
		clock:         clock,
		verifications: memory.NewVerificationStore(),
		sessions:      memory.NewSessionStore().WithClock(clock.Now),
		users:         memory.NewUsers(session.User{ID: "user-1", Email: "ada@example.com", Name: "Ada", EmailVerified: true}),
	}

	original := &session.Session{
		ID:        "session-1",
		Token:     "durable-token-1",
		UserID:    "user-1",
		CreatedAt: clock.Now(),
		ExpiresAt: clock.Now().Add(24 * time.Hour),
	}
	if err := fx.sessions.SaveSession(context.Background(), original); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	user, _ := fx.users.GetUserByID(context.Background(), "user-1")
	fx.auth = AuthSession{Session: original, User: user}

	b := New().
		WithConfig(cfg).
		WithVerificationStore(fx.verifications).
		WithSessionStore(fx.sessions).
		WithUserProvider(fx.users).
		WithClock(clock.Now)
	for _, fn := range configure {
		fn(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	fx.engine = engine
	return fx
}
