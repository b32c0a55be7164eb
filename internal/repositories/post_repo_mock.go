package repositories

import (
	"fmt"
	"sort"
	"sync"

	"kanban/internal/models"
)

// MockPostRepository is an in-memory implementation of PostRepository.
type MockPostRepository struct {
	posts  map[uint]models.Post
	nextID uint
	mu     sync.RWMutex
}

// NewMockPostRepository creates a new instance of MockPostRepository.
func NewMockPostRepository() *MockPostRepository {
	return &MockPostRepository{
		posts:  make(map[uint]models.Post),
		nextID: 1,
	}
}

// Create adds a new post, assigning the next free ID.
func (r *MockPostRepository) Create(post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	post.ID = r.nextID
	r.nextID++
	r.posts[post.ID] = *post
	return nil
}

// GetByID returns the post with the given ID.
func (r *MockPostRepository) GetByID(id uint) (*models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post, ok := r.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %d: %w", id, ErrNotFound)
	}
	return &post, nil
}

// ListByAuthor returns the author's posts newest-first, optionally
// restricted to one status.
func (r *MockPostRepository) ListByAuthor(authorID uint, status *models.Status) ([]models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	posts := make([]models.Post, 0)
	for _, p := range r.posts {
		if p.AuthorID != authorID {
			continue
		}
		if status != nil && p.Status != *status {
			continue
		}
		posts = append(posts, p)
	}

	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].Created.Equal(posts[j].Created) {
			return posts[i].Created.After(posts[j].Created)
		}
		return posts[i].ID > posts[j].ID
	})
	return posts, nil
}

// UpdateFields rewrites title and body of an existing post.
func (r *MockPostRepository) UpdateFields(id uint, title, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[id]
	if !ok {
		return fmt.Errorf("post %d: %w", id, ErrNotFound)
	}
	post.Title = title
	post.Body = body
	r.posts[id] = post
	return nil
}

// UpdateStatus moves a post to the given board column.
func (r *MockPostRepository) UpdateStatus(id uint, status models.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[id]
	if !ok {
		return fmt.Errorf("post %d: %w", id, ErrNotFound)
	}
	post.Status = status
	r.posts[id] = post
	return nil
}

// Delete removes a post by its ID.
func (r *MockPostRepository) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[id]; !ok {
		return fmt.Errorf("post %d: %w", id, ErrNotFound)
	}
	delete(r.posts, id)
	return nil
}
