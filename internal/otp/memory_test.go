package otp

import (
	"context"
	"testing"
	"time"
)

func TestGenerateProducesDigits(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := Generate()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != Length {
			t.Fatalf("expected %d digits, got %q", Length, code)
		}
		for _, c := range code {
			if c < '0' || c > '9' {
				t.Fatalf("non-digit in code %q", code)
			}
		}
	}
}

func TestMemoryStoreConsumeMatch(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, "alice", "123456"); err != nil {
		t.Fatalf("put: %v", err)
	}

	ok, err := store.ConsumeIfMatch(ctx, "alice", "123456")
	if err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}

	// Single use: the entry is gone after a successful match.
	ok, err = store.ConsumeIfMatch(ctx, "alice", "123456")
	if err != nil || ok {
		t.Fatalf("expected consumed entry to be gone, got ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreWrongGuessKeepsEntry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, "alice", "123456"); err != nil {
		t.Fatalf("put: %v", err)
	}

	ok, err := store.ConsumeIfMatch(ctx, "alice", "654321")
	if err != nil || ok {
		t.Fatalf("expected mismatch, got ok=%v err=%v", ok, err)
	}

	// A wrong guess must not invalidate the pending code.
	ok, err = store.ConsumeIfMatch(ctx, "alice", "123456")
	if err != nil || !ok {
		t.Fatalf("expected code to survive a wrong guess, got ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreAbsentKey(t *testing.T) {
	store := NewMemoryStore()

	ok, err := store.ConsumeIfMatch(context.Background(), "nobody", "123456")
	if err != nil || ok {
		t.Fatalf("expected no match for absent key, got ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	base := time.Now()
	store.now = func() time.Time { return base }
	if err := store.Put(ctx, "alice", "123456"); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Still valid one minute before the window closes.
	store.now = func() time.Time { return base.Add(14 * time.Minute) }
	ok, err := store.ConsumeIfMatch(ctx, "alice", "123456")
	if err != nil || !ok {
		t.Fatalf("expected code valid at 14m, got ok=%v err=%v", ok, err)
	}

	if err := store.Put(ctx, "alice", "654321"); err != nil {
		t.Fatalf("put: %v", err)
	}

	store.now = func() time.Time { return base.Add(14*time.Minute + 16*time.Minute) }
	ok, err = store.ConsumeIfMatch(ctx, "alice", "654321")
	if err != nil || ok {
		t.Fatalf("expected code expired at 16m, got ok=%v err=%v", ok, err)
	}
}

func TestMemoryStorePutOverwrites(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, "alice", "111111"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, "alice", "222222"); err != nil {
		t.Fatalf("put: %v", err)
	}

	ok, err := store.ConsumeIfMatch(ctx, "alice", "111111")
	if err != nil || ok {
		t.Fatalf("expected replaced code to be rejected, got ok=%v err=%v", ok, err)
	}
	ok, err = store.ConsumeIfMatch(ctx, "alice", "222222")
	if err != nil || !ok {
		t.Fatalf("expected latest code to verify, got ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreKeyNormalization(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, "Alice", "123456"); err != nil {
		t.Fatalf("put: %v", err)
	}
	ok, err := store.ConsumeIfMatch(ctx, "alice", "123456")
	if err != nil || !ok {
		t.Fatalf("expected case-insensitive key match, got ok=%v err=%v", ok, err)
	}
}
