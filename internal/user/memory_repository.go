package user

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]User
}

// NewMemoryRepository builds an in-memory user store for tests and for
// running without a database in development.
func NewMemoryRepository() Repository {
	return &memoryRepository{nextID: 1, users: make(map[int64]User)}
}

func (r *memoryRepository) Create(_ context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Username is checked before email so duplicate reporting is stable.
	for _, existing := range r.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return User{}, ErrDuplicateUsername
		}
	}
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return User{}, ErrDuplicateEmail
		}
	}

	u.ID = r.nextID
	r.nextID++
	if u.MemberSince.IsZero() {
		u.MemberSince = time.Now().UTC()
	}
	if u.Role == "" {
		u.Role = DefaultRole
	}
	r.users[u.ID] = u
	return u, nil
}

func (r *memoryRepository) FindByID(_ context.Context, id int64) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *memoryRepository) FindByUsername(_ context.Context, username string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *memoryRepository) FindByUsernameOrEmail(_ context.Context, value string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Username, value) || strings.EqualFold(u.Email, value) {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *memoryRepository) Update(_ context.Context, id int64, params UpdateParams) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}

	if params.Email != nil {
		for otherID, other := range r.users {
			if otherID != id && strings.EqualFold(other.Email, *params.Email) {
				return User{}, ErrDuplicateEmail
			}
		}
	}

	u.apply(params)
	r.users[id] = u
	return u, nil
}

func (r *memoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memoryRepository) List(_ context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	users := make([]User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}
