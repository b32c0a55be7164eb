package repositories

import "kanban/internal/models"

// PostRepository defines the interface for post data access. Listings are
// always ordered by creation time, most recent first.
type PostRepository interface {
	Create(post *models.Post) error
	GetByID(id uint) (*models.Post, error)
	// ListByAuthor returns the author's posts, optionally restricted to a
	// single status when the filter is non-nil.
	ListByAuthor(authorID uint, status *models.Status) ([]models.Post, error)
	// UpdateFields rewrites title and body, leaving status and created
	// untouched.
	UpdateFields(id uint, title, body string) error
	UpdateStatus(id uint, status models.Status) error
	Delete(id uint) error
}
