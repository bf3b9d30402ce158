package otp

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisStore(client), mr
}

func TestRedisStoreConsumeMatch(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "alice", "123456"); err != nil {
		t.Fatalf("put: %v", err)
	}

	ok, err := store.ConsumeIfMatch(ctx, "alice", "123456")
	if err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}

	ok, err = store.ConsumeIfMatch(ctx, "alice", "123456")
	if err != nil || ok {
		t.Fatalf("expected consumed entry to be gone, got ok=%v err=%v", ok, err)
	}
}

func TestRedisStoreWrongGuessKeepsEntry(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "alice", "123456"); err != nil {
		t.Fatalf("put: %v", err)
	}

	ok, err := store.ConsumeIfMatch(ctx, "alice", "000000")
	if err != nil || ok {
		t.Fatalf("expected mismatch, got ok=%v err=%v", ok, err)
	}

	ok, err = store.ConsumeIfMatch(ctx, "alice", "123456")
	if err != nil || !ok {
		t.Fatalf("expected code to survive a wrong guess, got ok=%v err=%v", ok, err)
	}
}

func TestRedisStoreExpiry(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "alice", "123456"); err != nil {
		t.Fatalf("put: %v", err)
	}

	mr.FastForward(TTL + time.Minute)

	ok, err := store.ConsumeIfMatch(ctx, "alice", "123456")
	if err != nil || ok {
		t.Fatalf("expected expired entry to be rejected, got ok=%v err=%v", ok, err)
	}
}

func TestRedisStorePutOverwrites(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "alice", "111111"); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Halfway through the first code's window, a new request replaces it
	// and restarts the TTL.
	mr.FastForward(TTL / 2)
	if err := store.Put(ctx, "alice", "222222"); err != nil {
		t.Fatalf("put: %v", err)
	}

	ok, err := store.ConsumeIfMatch(ctx, "alice", "111111")
	if err != nil || ok {
		t.Fatalf("expected replaced code to be rejected, got ok=%v err=%v", ok, err)
	}

	mr.FastForward(TTL / 2)
	ok, err = store.ConsumeIfMatch(ctx, "alice", "222222")
	if err != nil || !ok {
		t.Fatalf("expected latest code to verify within its window, got ok=%v err=%v", ok, err)
	}
}
