//go:build integration
// +build integration

package test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/MrEthical07/goOTT/session"
	"github.com/MrEthical07/goOTT/store/memory"
	"github.com/MrEthical07/goOTT/verification"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// redisMode describes which Redis backend the compatibility suite is running against.
type redisMode struct {
	name  string
	setup func(t *testing.T) redis.UniversalClient
}

// redisModes returns the set of Redis backends to test.
// miniredis is always available.
// Real Redis standalone is used when REDIS_ADDR is set (e.g. "127.0.0.1:6379").
func redisModes() []redisMode {
	modes := []redisMode{
		{
			name: "miniredis",
			setup: func(t *testing.T) redis.UniversalClient {
				t.Helper()
				mr := miniredis.RunT(t)
				rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
				t.Cleanup(func() { _ = rdb.Close() })
				return rdb
			},
		},
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		modes = append(modes, redisMode{
			name: "standalone:" + addr,
			setup: func(t *testing.T) redis.UniversalClient {
				t.Helper()
				rdb := redis.NewClient(&redis.Options{Addr: addr})
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := rdb.Ping(ctx).Err(); err != nil {
					t.Skipf("cannot connect to Redis at %s: %v", addr, err)
				}
				rdb.FlushDB(context.Background())
				t.Cleanup(func() { rdb.FlushDB(context.Background()); _ = rdb.Close() })
				return rdb
			},
		})
	}

	return modes
}

func TestRedisBackends(t *testing.T) {
	for _, mode := range redisModes() {
		t.Run(mode.name, func(t *testing.T) {
			rdb := mode.setup(t)
			sessions := session.NewRedisStore(rdb, "it:s")
			users := memory.NewUsers()
			runLifecycleSuite(t, backend{
				verifications: verification.NewRedisStore(rdb, "it:v", time.Minute),
				sessions:      sessions,
				users:         users,
				seed: func(ctx context.Context, u session.User, s *session.Session) error {
					users.Put(u)
					return sessions.SaveSession(ctx, s)
				},
			})
		})
	}
}

func TestMemoryBackend(t *testing.T) {
	sessions := memory.NewSessionStore()
	users := memory.NewUsers()
	runLifecycleSuite(t, backend{
		verifications: memory.NewVerificationStore(),
		sessions:      sessions,
		users:         users,
		seed: func(ctx context.Context, u session.User, s *session.Session) error {
			users.Put(u)
			return sessions.SaveSession(ctx, s)
		},
	})
}
