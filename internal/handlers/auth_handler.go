package handlers

import (
	"errors"
	"fmt"
	"log"
	"time"

	"kanban/internal/middleware"
	"kanban/internal/repositories"
	"kanban/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for registration, login and logout.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Get("/register", h.HandleForm)
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Get("/login", h.HandleForm)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Get("/logout", h.HandleLogout)
}

// HandleForm answers GET requests on the register and login endpoints.
// There is no server-side templating; clients POST the credential fields
// described here.
func (h *AuthHandler) HandleForm(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("POST username and password to %s", c.Path()),
		"fields":  []string{"username", "password"},
	})
}

// CredentialsRequest is the request body for register and login.
type CredentialsRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required"`
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing register request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationErrorMap(err),
		})
	}

	user, err := h.authService.Register(req.Username, req.Password)
	if err != nil {
		log.Printf("Error registering user %s: %v", req.Username, err)
		switch {
		case errors.Is(err, repositories.ErrDuplicateUsername):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": fmt.Sprintf("User %s is already registered", req.Username),
			})
		case errors.Is(err, services.ErrValidation):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not register user",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Successfully registered. Login with your credentials.",
		"user":    user,
	})
}

// HandleLogin authenticates the user, sets the session cookie and returns
// the signed token for API clients.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing login request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validationErrorMap(err),
		})
	}

	token, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		log.Printf("Login failed for user %s: %v", req.Username, err)
		// One message for every credential failure; responses must not
		// reveal whether the username exists.
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Incorrect credentials",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Expires:  time.Now().Add(24 * time.Hour),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
	})
}

// HandleLogout clears the session cookie and redirects to the login page.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect("/auth/login", fiber.StatusFound)
}

// validationErrorMap renders validator errors as a field -> message map.
func validationErrorMap(err error) map[string]string {
	errorMessages := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
	}
	return errorMessages
}
