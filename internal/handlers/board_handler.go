package handlers

import (
	"errors"
	"log"

	"kanban/internal/middleware"
	"kanban/internal/models"
	"kanban/internal/repositories"
	"kanban/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// BoardHandler handles HTTP requests for the task board.
type BoardHandler struct {
	service  *services.BoardService
	validate *validator.Validate
}

// NewBoardHandler creates a new BoardHandler.
func NewBoardHandler(service *services.BoardService) *BoardHandler {
	return &BoardHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the board routes with the Fiber app. All of
// them sit behind the auth middleware.
func (h *BoardHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.HandleIndex)
	router.Post("/create", h.HandleCreate)
	router.Post("/:id/update", h.HandleUpdate)
	router.Post("/:id/move_todo", h.HandleMove(models.StatusToDo))
	router.Post("/:id/move_doing", h.HandleMove(models.StatusDoing))
	router.Post("/:id/move_done", h.HandleMove(models.StatusDone))
	router.Post("/:id/delete", h.HandleDelete)
}

// PostRequest is the request body for creating and updating posts.
type PostRequest struct {
	Title string `json:"title" validate:"required,max=255"`
	Body  string `json:"body" validate:"max=10000"`
}

// HandleIndex renders the board for the current user: the full listing
// plus the three status columns.
func (h *BoardHandler) HandleIndex(c *fiber.Ctx) error {
	return h.respondWithBoard(c, fiber.StatusOK)
}

// HandleCreate creates a new post for the current user.
func (h *BoardHandler) HandleCreate(c *fiber.Ctx) error {
	req, err := h.parsePostRequest(c)
	if err != nil || req == nil {
		return err
	}

	if _, err := h.service.Create(currentUserID(c), req.Title, req.Body); err != nil {
		return h.respondError(c, err, "Could not create post")
	}
	return h.respondWithBoard(c, fiber.StatusCreated)
}

// HandleUpdate rewrites title and body of one of the current user's posts.
func (h *BoardHandler) HandleUpdate(c *fiber.Ctx) error {
	postID, err := postIDParam(c)
	if err != nil || postID == 0 {
		return err
	}
	req, err := h.parsePostRequest(c)
	if err != nil || req == nil {
		return err
	}

	if _, err := h.service.Edit(currentUserID(c), postID, req.Title, req.Body); err != nil {
		return h.respondError(c, err, "Could not update post")
	}
	return h.respondWithBoard(c, fiber.StatusOK)
}

// HandleMove returns a handler that transitions a post to the given
// status. One route per target keeps the original endpoint shape.
func (h *BoardHandler) HandleMove(target models.Status) fiber.Handler {
	return func(c *fiber.Ctx) error {
		postID, err := postIDParam(c)
		if err != nil || postID == 0 {
			return err
		}

		if _, err := h.service.Transition(currentUserID(c), postID, target); err != nil {
			return h.respondError(c, err, "Could not move post")
		}
		return h.respondWithBoard(c, fiber.StatusOK)
	}
}

// HandleDelete removes one of the current user's posts.
func (h *BoardHandler) HandleDelete(c *fiber.Ctx) error {
	postID, err := postIDParam(c)
	if err != nil || postID == 0 {
		return err
	}

	if err := h.service.Delete(currentUserID(c), postID); err != nil {
		return h.respondError(c, err, "Could not delete post")
	}
	return h.respondWithBoard(c, fiber.StatusOK)
}

// parsePostRequest decodes and validates a post create/update body.
func (h *BoardHandler) parsePostRequest(c *fiber.Ctx) (*PostRequest, error) {
	var req PostRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing post request body: %v", err)
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationErrorMap(err),
		})
	}
	return &req, nil
}

// respondWithBoard returns the current user's updated board listing, the
// response of every successful board operation.
func (h *BoardHandler) respondWithBoard(c *fiber.Ctx, status int) error {
	listing, err := h.service.ListForOwner(currentUserID(c))
	if err != nil {
		log.Printf("Error listing board: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not load board",
		})
	}
	return c.Status(status).JSON(listing)
}

// respondError maps service errors onto HTTP statuses.
func (h *BoardHandler) respondError(c *fiber.Ctx, err error, message string) error {
	log.Printf("%s: %v", message, err)
	switch {
	case errors.Is(err, services.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": err.Error(),
		})
	case errors.Is(err, repositories.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Post not found",
		})
	case errors.Is(err, services.ErrForbidden):
		// No detail on why.
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Forbidden",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": message,
	})
}

// postIDParam parses the :id route parameter.
func postIDParam(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Post not found",
		})
	}
	return uint(id), nil
}

// currentUserID reads the identity resolved by the auth middleware.
func currentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(middleware.UserIDKey).(uint)
	return id
}
