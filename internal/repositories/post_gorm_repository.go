package repositories

import (
	"errors"
	"fmt"

	"kanban/internal/models"

	"gorm.io/gorm"
)

// GORMPostRepository is a GORM implementation of PostRepository.
type GORMPostRepository struct {
	db *gorm.DB
}

// NewGORMPostRepository creates a new instance of GORMPostRepository.
func NewGORMPostRepository(db *gorm.DB) *GORMPostRepository {
	return &GORMPostRepository{
		db: db,
	}
}

// Create inserts a new post.
func (r *GORMPostRepository) Create(post *models.Post) error {
	if err := r.db.Create(post).Error; err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// GetByID retrieves a single post by its ID.
func (r *GORMPostRepository) GetByID(id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("post %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get post by ID %d: %w", id, err)
	}
	return &post, nil
}

// ListByAuthor retrieves an author's posts newest-first. A non-nil status
// narrows the listing to a single board column.
func (r *GORMPostRepository) ListByAuthor(authorID uint, status *models.Status) ([]models.Post, error) {
	query := r.db.Where("author_id = ?", authorID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var posts []models.Post
	if err := query.Order("created DESC, id DESC").Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list posts for author %d: %w", authorID, err)
	}
	return posts, nil
}

// UpdateFields rewrites title and body of an existing post.
func (r *GORMPostRepository) UpdateFields(id uint, title, body string) error {
	res := r.db.Model(&models.Post{}).Where("id = ?", id).
		Updates(map[string]interface{}{"title": title, "body": body})
	if res.Error != nil {
		return fmt.Errorf("failed to update post %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("post %d: %w", id, ErrNotFound)
	}
	return nil
}

// UpdateStatus moves a post to the given board column.
func (r *GORMPostRepository) UpdateStatus(id uint, status models.Status) error {
	res := r.db.Model(&models.Post{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update status of post %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("post %d: %w", id, ErrNotFound)
	}
	return nil
}

// Delete removes a post permanently.
func (r *GORMPostRepository) Delete(id uint) error {
	res := r.db.Delete(&models.Post{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete post %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("post %d: %w", id, ErrNotFound)
	}
	return nil
}
