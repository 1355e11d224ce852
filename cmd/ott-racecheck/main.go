// Command ott-racecheck issues one-time tokens against a Redis-backed engine
// and redeems each one from many goroutines at once, checking that exactly one
// redemption per token succeeds.
//
// Without -redis-addr or REDIS_ADDR it runs against an embedded miniredis.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goOTT "github.com/MrEthical07/goOTT"
	"github.com/MrEthical07/goOTT/session"
	"github.com/MrEthical07/goOTT/store/memory"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	var (
		tokens    = flag.Int("tokens", 1000, "number of tokens to issue")
		racers    = flag.Int("racers", 16, "concurrent redeemers per token")
		redisAddr = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		hashed    = flag.Bool("hashed", false, "store tokens hashed")
		verbose   = flag.Bool("v", false, "log engine anomalies")
	)
	flag.Parse()

	if *tokens <= 0 || *racers <= 1 {
		fmt.Fprintln(os.Stderr, "tokens must be > 0 and racers > 1")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	logger := zap.NewNop()
	if *verbose {
		logger, _ = zap.NewDevelopment()
	}

	cfg := goOTT.DefaultConfig()
	cfg.OneTimeToken.CreateSession = false
	if *hashed {
		cfg.OneTimeToken.StoreToken = goOTT.StoreHashed
	}

	engine, err := goOTT.New().
		WithConfig(cfg).
		WithRedis(client).
		WithUserProvider(memory.NewUsers(session.User{ID: "racecheck-user", Email: "racecheck@example.com"})).
		WithLogger(logger).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	auth, err := seedSession(ctx, client, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed session: %v\n", err)
		os.Exit(1)
	}

	result := runRace(ctx, engine, auth, *tokens, *racers)

	fmt.Println("---- results ----")
	printStats("verify", result.stats)
	fmt.Printf("tokens=%d winners=%d rejected=%d violations=%d\n", *tokens, result.winners, result.rejected, result.violations)
	if result.violations > 0 {
		os.Exit(1)
	}
}

func seedSession(ctx context.Context, client redis.UniversalClient, cfg goOTT.Config) (goOTT.AuthSession, error) {
	now := time.Now()
	sess := &session.Session{
		ID:        "racecheck-session",
		Token:     fmt.Sprintf("racecheck-%d", now.UnixNano()),
		UserID:    "racecheck-user",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	if err := session.NewRedisStore(client, cfg.Session.RedisPrefix).SaveSession(ctx, sess); err != nil {
		return goOTT.AuthSession{}, err
	}
	return goOTT.AuthSession{
		Session: sess,
		User:    &session.User{ID: "racecheck-user", Email: "racecheck@example.com"},
	}, nil
}

type raceResult struct {
	stats      phaseStats
	winners    int64
	rejected   int64
	violations int64
}

func runRace(ctx context.Context, engine *goOTT.Engine, auth goOTT.AuthSession, tokens, racers int) raceResult {
	var (
		res       raceResult
		latencies = make([]time.Duration, 0, tokens*racers)
		mu        sync.Mutex
		failures  int64
	)

	start := time.Now()
	for i := 0; i < tokens; i++ {
		token, err := engine.GenerateOneTimeToken(ctx, auth)
		if err != nil {
			fmt.Fprintf(os.Stderr, "generate: %v\n", err)
			atomic.AddInt64(&res.violations, 1)
			continue
		}

		var (
			wg      sync.WaitGroup
			gate    = make(chan struct{})
			winners int64
		)
		for r := 0; r < racers; r++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-gate
				t0 := time.Now()
				_, err := engine.VerifyOneTimeToken(ctx, token)
				d := time.Since(t0)
				switch {
				case err == nil:
					atomic.AddInt64(&winners, 1)
				case errors.Is(err, goOTT.ErrInvalidToken):
					atomic.AddInt64(&res.rejected, 1)
				default:
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}()
		}
		close(gate)
		wg.Wait()

		res.winners += winners
		if winners != 1 {
			res.violations++
		}
	}
	res.violations += failures
	res.stats = computeStats(time.Since(start), latencies, failures)
	return res
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
