package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"mbank/internal/domain"
)

// RedisStore keeps sealed values in Redis under "<prefix>:<key>". The scrypt
// salt lives at "<prefix>:_salt" and is created on first use, so every
// client sharing a prefix and passphrase derives the same key.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
	seal   *sealer
}

var _ domain.SecureStore = (*RedisStore)(nil)

// NewRedisStore loads or creates the salt under prefix and derives the key.
// The client is owned by the store and closed by Close.
func NewRedisStore(ctx context.Context, rdb redis.UniversalClient, prefix, passphrase string) (*RedisStore, error) {
	if prefix == "" {
		prefix = "mbank"
	}
	saltKey := prefix + ":_salt"

	fresh, err := newSalt()
	if err != nil {
		return nil, err
	}
	if _, err := rdb.SetNX(ctx, saltKey, fresh, 0).Result(); err != nil {
		return nil, fmt.Errorf("redis salt: %w", err)
	}
	salt, err := rdb.Get(ctx, saltKey).Bytes()
	if err != nil {
		return nil, fmt.Errorf("redis salt: %w", err)
	}

	s, err := newSealer(passphrase, salt, defaultKDF())
	if err != nil {
		return nil, err
	}
	return &RedisStore{rdb: rdb, prefix: prefix, seal: s}, nil
}

func (s *RedisStore) key(k string) string { return s.prefix + ":" + k }

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	b, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	pt, err := s.seal.open(b, []byte(s.key(key)))
	if err != nil {
		return "", false, err
	}
	return string(pt), true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	ct, err := s.seal.seal([]byte(value), []byte(s.key(key)))
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(key), ct, 0).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.key(key)).Err()
}

// Close wipes the derived key and closes the client.
func (s *RedisStore) Close() error {
	s.seal.wipe()
	return s.rdb.Close()
}
