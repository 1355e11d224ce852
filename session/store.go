package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const minSessionTTL = time.Second

// RedisStore defines a public type used by goOTT APIs.
//
// RedisStore instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisStore returns a store that keeps sessions under prefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{
		redis:  client,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *RedisStore) key(token string) string {
	return s.prefix + ":" + token
}

func (s *RedisStore) userKey(userID string) string {
	return s.prefix + ":u:" + userID
}

// SaveSession persists sess under its token until sess.ExpiresAt and indexes
// it under its user.
func (s *RedisStore) SaveSession(ctx context.Context, sess *Session) error {
	if sess == nil || sess.Token == "" {
		return errors.New("session token required")
	}
	data, err := Encode(sess)
	if err != nil {
		return err
	}

	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl < minSessionTTL {
		ttl = minSessionTTL
	}

	userKey := s.userKey(sess.UserID)
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(sess.Token), data, ttl)
		pipe.SAdd(ctx, userKey, sess.Token)
		pipe.Expire(ctx, userKey, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// FindSessionByToken returns the live session for token, or [ErrNotFound] when
// it is missing or expired.
func (s *RedisStore) FindSessionByToken(ctx context.Context, token string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, err
	}
	sess.Token = token

	if !sess.Live(s.now()) {
		return nil, ErrNotFound
	}

	return sess, nil
}

// ActiveSessionCount returns the number of session tokens indexed for userID,
// including ones whose keys have already expired.
func (s *RedisStore) ActiveSessionCount(ctx context.Context, userID string) (int, error) {
	n, err := s.redis.SCard(ctx, s.userKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return int(n), nil
}
