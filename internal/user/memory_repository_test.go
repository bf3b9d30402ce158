package user

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryRepositoryCreateAndFind(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	u, err := repo.Create(ctx, User{Username: "Alice", Email: "Alice@Example.com", PasswordHash: []byte("x")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == 0 {
		t.Fatalf("expected an assigned id")
	}
	if u.Role != DefaultRole {
		t.Fatalf("expected default role, got %q", u.Role)
	}
	if u.MemberSince.IsZero() {
		t.Fatalf("expected member_since to be set")
	}

	if _, err := repo.FindByUsername(ctx, "alice"); err != nil {
		t.Fatalf("case-insensitive username lookup: %v", err)
	}
	if _, err := repo.FindByUsernameOrEmail(ctx, "alice@example.com"); err != nil {
		t.Fatalf("case-insensitive email lookup: %v", err)
	}
	if _, err := repo.FindByUsername(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepositoryDuplicates(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	if _, err := repo.Create(ctx, User{Username: "alice", Email: "alice@example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := repo.Create(ctx, User{Username: "ALICE", Email: "fresh@example.com"}); !errors.Is(err, ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
	if _, err := repo.Create(ctx, User{Username: "bob", Email: "ALICE@example.com"}); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	// Username is reported first when both collide.
	if _, err := repo.Create(ctx, User{Username: "alice", Email: "alice@example.com"}); !errors.Is(err, ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
}

func TestMemoryRepositoryUpdate(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	a, err := repo.Create(ctx, User{Username: "alice", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(ctx, User{Username: "bob", Email: "bob@example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	name := "Alice A."
	updated, err := repo.Update(ctx, a.ID, UpdateParams{Name: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != name {
		t.Fatalf("expected name %q, got %q", name, updated.Name)
	}
	if updated.Email != "alice@example.com" {
		t.Fatalf("untouched field changed: %q", updated.Email)
	}

	taken := "bob@example.com"
	if _, err := repo.Update(ctx, a.ID, UpdateParams{Email: &taken}); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	if _, err := repo.Update(ctx, 999, UpdateParams{Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepositoryDeleteAndList(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	a, _ := repo.Create(ctx, User{Username: "alice", Email: "alice@example.com"})
	b, _ := repo.Create(ctx, User{Username: "bob", Email: "bob@example.com"})

	users, err := repo.List(ctx)
	if err != nil || len(users) != 2 {
		t.Fatalf("expected 2 users, got %d err=%v", len(users), err)
	}
	if users[0].ID != a.ID || users[1].ID != b.ID {
		t.Fatalf("expected list ordered by id")
	}

	if err := repo.Delete(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on repeat delete, got %v", err)
	}
	if _, err := repo.FindByID(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected deleted user to be gone, got %v", err)
	}
}
