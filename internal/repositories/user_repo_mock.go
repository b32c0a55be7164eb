package repositories

import (
	"fmt"
	"sync"

	"kanban/internal/models"
)

// MockUserRepository is an in-memory implementation of UserRepository.
type MockUserRepository struct {
	users  map[uint]models.User
	nextID uint
	mu     sync.RWMutex
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:  make(map[uint]models.User),
		nextID: 1,
	}
}

// Create adds a new user, assigning the next free ID.
func (r *MockUserRepository) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == user.Username {
			return fmt.Errorf("create user %q: %w", user.Username, ErrDuplicateUsername)
		}
	}

	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = *user
	return nil
}

// GetByUsername returns the user with the given username.
func (r *MockUserRepository) GetByUsername(username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			user := u
			return &user, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
}

// GetByID returns the user with the given ID.
func (r *MockUserRepository) GetByID(id uint) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return &user, nil
}

// Delete removes a user. Not part of UserRepository; tests use it to
// simulate a user row disappearing underneath a live session.
func (r *MockUserRepository) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	delete(r.users, id)
	return nil
}
