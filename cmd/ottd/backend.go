package main

import (
	"context"
	"fmt"
	"time"

	goOTT "github.com/MrEthical07/goOTT"
	"github.com/MrEthical07/goOTT/session"
	"github.com/MrEthical07/goOTT/store/dynamo"
	"github.com/MrEthical07/goOTT/store/memory"
	"github.com/MrEthical07/goOTT/store/postgres"
	"github.com/MrEthical07/goOTT/verification"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// backend wires the stores selected by BACKEND into the builder and returns
// the cleanup to run on shutdown.
func backend(ctx context.Context, cfg *Config, ottCfg goOTT.Config, b *goOTT.Builder, logger *zap.Logger) (func(), error) {
	switch cfg.Backend {
	case "redis":
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{cfg.RedisAddr}})
		verifications := verification.NewRedisStore(client, ottCfg.Verification.RedisPrefix, ottCfg.Verification.RetentionGrace)
		rtt, err := verifications.Ping(ctx)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		logger.Info("redis connected", zap.String("addr", cfg.RedisAddr), zap.Duration("rtt", rtt))
		b.WithRedis(client).WithVerificationStore(verifications)
		users, err := seededUsers(ctx, cfg, nil)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		b.WithUserProvider(users)
		logger.Warn("redis backend has no user table; using the in-memory user directory")
		return func() { _ = client.Close() }, nil

	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		b.WithVerificationStore(postgres.NewVerificationRepository(pool)).
			WithSessionStore(postgres.NewSessionRepository(pool)).
			WithUserProvider(postgres.NewUserRepository(pool))
		return pool.Close, nil

	case "dynamo":
		client, err := dynamo.NewClient(ctx, dynamo.ClientConfig{
			Region:      cfg.DynamoRegion,
			EndpointURL: cfg.DynamoEndpoint,
			AccessKeyID: cfg.AWSAccessKeyID,
			SecretKey:   cfg.AWSSecretKey,
		})
		if err != nil {
			return nil, err
		}
		tables := dynamo.Tables{
			Verifications: cfg.DynamoTablePrefix + "verifications",
			Sessions:      cfg.DynamoTablePrefix + "sessions",
			Users:         cfg.DynamoTablePrefix + "users",
		}
		if err := dynamo.Bootstrap(ctx, client, tables, logger); err != nil {
			return nil, err
		}
		b.WithVerificationStore(dynamo.NewVerificationRepo(client, tables.Verifications, ottCfg.Verification.RetentionGrace)).
			WithSessionStore(dynamo.NewSessionRepo(client, tables.Sessions)).
			WithUserProvider(dynamo.NewUserRepo(client, tables.Users))
		return func() {}, nil

	default:
		sessions := memory.NewSessionStore()
		users, err := seededUsers(ctx, cfg, sessions)
		if err != nil {
			return nil, err
		}
		b.WithVerificationStore(memory.NewVerificationStore()).
			WithSessionStore(sessions).
			WithUserProvider(users)
		if cfg.SeedSessionToken != "" {
			logger.Info("seeded local session", zap.String("user_id", cfg.SeedUserID))
		}
		return func() {}, nil
	}
}

func seededUsers(ctx context.Context, cfg *Config, sessions *memory.SessionStore) (*memory.Users, error) {
	users := memory.NewUsers()
	if cfg.SeedUserID == "" {
		return users, nil
	}
	users.Put(session.User{ID: cfg.SeedUserID, Email: cfg.SeedUserEmail})

	if sessions == nil || cfg.SeedSessionToken == "" {
		return users, nil
	}
	now := time.Now()
	err := sessions.SaveSession(ctx, &session.Session{
		ID:        "seed-" + cfg.SeedUserID,
		Token:     cfg.SeedSessionToken,
		UserID:    cfg.SeedUserID,
		CreatedAt: now,
		ExpiresAt: now.Add(cfg.SessionLifetime),
	})
	if err != nil {
		return nil, fmt.Errorf("seed session: %w", err)
	}
	return users, nil
}
