package services

import (
	"fmt"
	"log"
	"time"

	"kanban/internal/models"
	"kanban/internal/repositories"
)

// EventPublisher publishes board events for downstream consumers. A nil
// publisher disables event publishing.
type EventPublisher interface {
	PublishBoardEvent(eventType string, payload map[string]interface{}) error
}

// BoardListing holds the four views rendered on the board index: the full
// newest-first history plus the three status columns.
type BoardListing struct {
	All   []models.Post `json:"all"`
	ToDo  []models.Post `json:"todo"`
	Doing []models.Post `json:"doing"`
	Done  []models.Post `json:"done"`
}

// BoardService implements the task lifecycle: authorized creation, edits,
// status transitions and deletion of posts. Every mutating operation
// requires the requester to be the post's author.
type BoardService struct {
	postRepo  repositories.PostRepository
	publisher EventPublisher
}

// NewBoardService creates a new BoardService. publisher may be nil.
func NewBoardService(postRepo repositories.PostRepository, publisher EventPublisher) *BoardService {
	return &BoardService{
		postRepo:  postRepo,
		publisher: publisher,
	}
}

// Create adds a new post for the author. Status always starts at ToDo and
// the creation time is stamped once here.
func (s *BoardService) Create(authorID uint, title, body string) (*models.Post, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}

	post := &models.Post{
		Title:    title,
		Body:     body,
		Status:   models.StatusToDo,
		Created:  time.Now(),
		AuthorID: authorID,
	}
	if err := s.postRepo.Create(post); err != nil {
		return nil, err
	}

	s.publish("post.created", post)
	return post, nil
}

// Edit rewrites title and body of the requester's own post. Status and
// creation time are left untouched.
func (s *BoardService) Edit(requesterID, postID uint, title, body string) (*models.Post, error) {
	post, err := s.getOwnedPost(requesterID, postID)
	if err != nil {
		return nil, err
	}
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}

	if err := s.postRepo.UpdateFields(postID, title, body); err != nil {
		return nil, err
	}
	post.Title = title
	post.Body = body

	s.publish("post.updated", post)
	return post, nil
}

// Transition moves the requester's own post to the target column. Any
// status may move to any other; moving to the current status is a no-op
// success.
func (s *BoardService) Transition(requesterID, postID uint, target models.Status) (*models.Post, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: unknown status %d", ErrValidation, target)
	}

	post, err := s.getOwnedPost(requesterID, postID)
	if err != nil {
		return nil, err
	}

	if err := s.postRepo.UpdateStatus(postID, target); err != nil {
		return nil, err
	}
	post.Status = target

	s.publish("post.moved", post)
	return post, nil
}

// Delete removes the requester's own post permanently.
func (s *BoardService) Delete(requesterID, postID uint) error {
	post, err := s.getOwnedPost(requesterID, postID)
	if err != nil {
		return err
	}

	if err := s.postRepo.Delete(postID); err != nil {
		return err
	}

	s.publish("post.deleted", post)
	return nil
}

// ListForOwner returns the owner's board: the full newest-first listing
// plus the three disjoint status partitions.
func (s *BoardService) ListForOwner(ownerID uint) (*BoardListing, error) {
	all, err := s.postRepo.ListByAuthor(ownerID, nil)
	if err != nil {
		return nil, err
	}

	listing := &BoardListing{
		All:   all,
		ToDo:  make([]models.Post, 0),
		Doing: make([]models.Post, 0),
		Done:  make([]models.Post, 0),
	}
	for _, post := range all {
		switch post.Status {
		case models.StatusToDo:
			listing.ToDo = append(listing.ToDo, post)
		case models.StatusDoing:
			listing.Doing = append(listing.Doing, post)
		case models.StatusDone:
			listing.Done = append(listing.Done, post)
		}
	}
	return listing, nil
}

// getOwnedPost loads a post and enforces the single authorization rule:
// only the author may touch it. Lookups of a missing post fail with
// repositories.ErrNotFound; a foreign post fails with ErrForbidden.
func (s *BoardService) getOwnedPost(requesterID, postID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != requesterID {
		return nil, fmt.Errorf("post %d belongs to another user: %w", postID, ErrForbidden)
	}
	return post, nil
}

// publish sends a board event on a best-effort basis; a broker failure
// never fails the request that triggered it.
func (s *BoardService) publish(eventType string, post *models.Post) {
	if s.publisher == nil {
		return
	}
	payload := map[string]interface{}{
		"post_id":   post.ID,
		"author_id": post.AuthorID,
		"title":     post.Title,
		"status":    post.Status.String(),
	}
	if err := s.publisher.PublishBoardEvent(eventType, payload); err != nil {
		log.Printf("Failed to publish %s event for post %d: %v", eventType, post.ID, err)
	}
}
