package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
)

const minRecordTTL = time.Second

// The record ID sits at bytes 3..(2+len) of the blob; see Encode.
const deleteRecordScript = `
local data = redis.call("GET", KEYS[1])
if not data then
  return 0
end
local id_len = string.byte(data, 2)
if not id_len then
  return 0
end
local id = string.sub(data, 3, 2 + id_len)
if id ~= ARGV[1] then
  return 0
end
redis.call("DEL", KEYS[1])
return 1
`

var deleteRecordLua = redis.NewScript(deleteRecordScript)

// RedisStore defines a public type used by goOTT APIs.
//
// RedisStore instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RedisStore struct {
	redis     redis.UniversalClient
	prefix    string
	retention time.Duration
	now       func() time.Time
}

// NewRedisStore returns a store writing records under prefix. Keys live for
// the remaining record lifetime plus retention, so expired records stay
// readable for that long before Redis reaps them.
func NewRedisStore(client redis.UniversalClient, prefix string, retention time.Duration) *RedisStore {
	return &RedisStore{
		redis:     client,
		prefix:    prefix,
		retention: retention,
		now:       time.Now,
	}
}

func (s *RedisStore) key(identifier string) string {
	return s.prefix + ":" + identifier
}

// CreateVerification stores record under its identifier, assigning a ULID when
// record.ID is empty. The key expires RetentionGrace after the record does.
// An existing identifier yields [ErrDuplicate].
func (s *RedisStore) CreateVerification(ctx context.Context, record Record) error {
	if record.ID == "" {
		record.ID = ulid.Make().String()
	}
	data, err := Encode(&record)
	if err != nil {
		return err
	}

	ttl := record.ExpiresAt.Sub(s.now()) + s.retention
	if ttl < minRecordTTL {
		ttl = minRecordTTL
	}

	ok, err := s.redis.SetNX(ctx, s.key(record.Identifier), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if !ok {
		return ErrDuplicate
	}

	return nil
}

// FindVerification returns the record stored for identifier, expired or not,
// or [ErrNotFound].
func (s *RedisStore) FindVerification(ctx context.Context, identifier string) (*Record, error) {
	data, err := s.redis.Get(ctx, s.key(identifier)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	record, err := Decode(data)
	if err != nil {
		return nil, err
	}
	record.Identifier = identifier

	return record, nil
}

// DeleteVerification removes record if the stored blob still carries its ID.
// It returns [ErrNotFound] when nothing was removed.
func (s *RedisStore) DeleteVerification(ctx context.Context, record Record) error {
	removed, err := deleteRecordLua.Run(ctx, s.redis, []string{s.key(record.Identifier)}, record.ID).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping round-trips to Redis and reports the latency. Connection failures are
// wrapped in [ErrRedisUnavailable].
func (s *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
