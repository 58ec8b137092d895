package store_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"mbank/internal/domain"
	"mbank/internal/store"
)

// Set MBANK_TEST_REDIS_ADDR (e.g. localhost:6379) to run against a real server.
func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("MBANK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("MBANK_TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	return rdb
}

func TestRedisStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	prefix := "mbank-test-" + uuid.NewString()

	rdb := redisClient(t)
	t.Cleanup(func() {
		c := redis.NewClient(&redis.Options{Addr: os.Getenv("MBANK_TEST_REDIS_ADDR")})
		keys, _ := c.Keys(ctx, prefix+":*").Result()
		if len(keys) > 0 {
			c.Del(ctx, keys...)
		}
		_ = c.Close()
	})

	s, err := store.NewRedisStore(ctx, rdb, prefix, "pass")
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	defer s.Close()

	if err := s.Set(ctx, domain.KeyAuthToken, "abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	raw, err := rdb.Get(ctx, prefix+":"+domain.KeyAuthToken).Bytes()
	if err != nil {
		t.Fatalf("raw Get: %v", err)
	}
	if string(raw) == "abc" {
		t.Fatal("value stored in plaintext")
	}

	v, ok, err := s.Get(ctx, domain.KeyAuthToken)
	if err != nil || !ok || v != "abc" {
		t.Fatalf("Get = %q, %v, %v", v, ok, err)
	}
	if err := s.Delete(ctx, domain.KeyAuthToken); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, domain.KeyAuthToken); ok {
		t.Fatal("value present after Delete")
	}

	// Another passphrase derives another key from the same salt.
	other, err := store.NewRedisStore(ctx, redisClient(t), prefix, "other")
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	defer other.Close()
	if err := s.Set(ctx, domain.KeyBalance, "1.00"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, _, err := other.Get(ctx, domain.KeyBalance); !errors.Is(err, store.ErrWrongPassphrase) {
		t.Fatalf("Get with other passphrase err = %v", err)
	}
}
