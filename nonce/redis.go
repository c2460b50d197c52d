package nonce

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "nuwa:nonce:"

// RedisStore is a shared replay ledger for multi-instance verifiers. The
// check-and-insert is a single SET NX with expiry, so atomicity holds
// across processes. Capacity bounding is delegated to Redis' own memory
// policy; TTL expiry is native.
type RedisStore struct {
	client redis.Cmdable
}

// NewRedisStore creates a nonce store over an existing Redis client.
func NewRedisStore(client redis.Cmdable) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreAddr dials Redis and wraps it in a nonce store.
func NewRedisStoreAddr(addr, password string, db int) (*RedisStore, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{client: client}, nil
}

// TryStoreNonce records the nonce with SET NX EX. True means the nonce was
// fresh; false means an unexpired record already existed.
func (s *RedisStore) TryStoreNonce(ctx context.Context, signerDID, domain, nonce string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, fmt.Errorf("nonce ttl must be positive, got %s", ttl)
	}

	key := redisKeyPrefix + compositeKey(signerDID, domain, nonce)
	stored, err := s.client.SetNX(ctx, key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis nonce write failed: %w", err)
	}
	return stored, nil
}

var _ Store = (*RedisStore)(nil)
