package identity

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
)

// Repository persists users
type Repository interface {
	// Save inserts or updates a user. A username held by another user
	// yields ErrUsernameTaken.
	Save(ctx context.Context, user *User) error
	ByID(ctx context.Context, id string) (*User, error)
	ByUsername(ctx context.Context, username string) (*User, error)
}

// MemoryRepo keeps users in process memory
type MemoryRepo struct {
	users map[string]User
	mu    sync.RWMutex
}

// NewMemoryRepo creates an empty repository
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{users: make(map[string]User)}
}

func (r *MemoryRepo) Save(ctx context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, existing := range r.users {
		if id != user.ID && existing.Username == user.Username {
			return ErrUsernameTaken
		}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryRepo) ByID(ctx context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

func (r *MemoryRepo) ByUsername(ctx context.Context, username string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}
