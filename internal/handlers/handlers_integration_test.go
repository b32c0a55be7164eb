package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"kanban/internal/handlers"
	"kanban/internal/middleware"
	"kanban/internal/models"
	"kanban/internal/repositories"
	"kanban/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupApp builds a Fiber app for testing against a private in-memory
// SQLite database.
func setupApp(t *testing.T) (*fiber.App, *services.AuthService) {
	t.Helper()

	viper.SetDefault("JWT_SECRET", "test_jwt_secret")
	viper.AutomaticEnv()
	jwtSecret := viper.GetString("JWT_SECRET")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Post{}); err != nil {
		t.Fatalf("failed to auto-migrate database: %v", err)
	}

	userRepo := repositories.NewGORMUserRepository(db)
	postRepo := repositories.NewGORMPostRepository(db)

	authService := services.NewAuthService(userRepo, jwtSecret)
	boardService := services.NewBoardService(postRepo, nil) // nil publisher: no board events

	authHandler := handlers.NewAuthHandler(authService)
	boardHandler := handlers.NewBoardHandler(boardService)

	app := fiber.New()

	// Authentication routes (public)
	authHandler.RegisterRoutes(app)

	// Board routes behind the auth guard
	boardRoutes := app.Group("", middleware.AuthRequired(authService))
	boardHandler.RegisterRoutes(boardRoutes)

	return app, authService
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

// registerAndLogin creates a user and returns their session token.
func registerAndLogin(t *testing.T, app *fiber.App, username, password string) string {
	t.Helper()

	creds := map[string]string{"username": username, "password": password}
	jsonBody, _ := json.Marshal(creds)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	req = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var loginResp map[string]string
	err = json.NewDecoder(resp.Body).Decode(&loginResp)
	assert.NoError(t, err)
	resp.Body.Close()

	token := loginResp["token"]
	assert.NotEmpty(t, token)
	return token
}

// boardRequest performs an authenticated board request with a JSON body.
func boardRequest(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	return resp
}

func decodeListing(t *testing.T, resp *http.Response) services.BoardListing {
	t.Helper()
	var listing services.BoardListing
	err := json.NewDecoder(resp.Body).Decode(&listing)
	assert.NoError(t, err)
	resp.Body.Close()
	return listing
}

func TestAuthRegisterAndLogin(t *testing.T) {
	app, authService := setupApp(t)

	creds := map[string]string{"username": "alice", "password": "pw1"}
	jsonBody, _ := json.Marshal(creds)

	// Registration
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Duplicate registration fails without creating a second row
	req = httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Login sets the session cookie and returns the token
	req = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var sessionCookie string
	for _, cookie := range resp.Cookies() {
		if cookie.Name == middleware.SessionCookie {
			sessionCookie = cookie.Value
		}
	}
	assert.NotEmpty(t, sessionCookie)

	var loginResp map[string]string
	err = json.NewDecoder(resp.Body).Decode(&loginResp)
	assert.NoError(t, err)
	assert.NotEmpty(t, loginResp["token"])
	resp.Body.Close()

	claims, err := authService.ValidateToken(loginResp["token"])
	assert.NoError(t, err)
	assert.Equal(t, "alice", claims["username"])

	// Wrong password gets the one generic message
	badCreds, _ := json.Marshal(map[string]string{"username": "alice", "password": "nope"})
	req = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(badCreds))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	wrongPassword, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	// Unknown user gets exactly the same body, so usernames cannot be
	// enumerated through the login form.
	badUser, _ := json.Marshal(map[string]string{"username": "mallory", "password": "nope"})
	req = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(badUser))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	unknownUser, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, string(wrongPassword), string(unknownUser))
}

func TestUnauthenticatedRedirect(t *testing.T) {
	app, _ := setupApp(t)

	// Board routes redirect anonymous requests to the login page
	for _, path := range []string{"/", "/create", "/1/move_doing", "/1/delete"} {
		method := http.MethodPost
		if path == "/" {
			method = http.MethodGet
		}
		req := httptest.NewRequest(method, path, nil)
		resp, err := app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusFound, resp.StatusCode, "path %s", path)
		assert.Equal(t, "/auth/login", resp.Header.Get("Location"))
		resp.Body.Close()
	}
}

func TestBoardEndToEnd(t *testing.T) {
	app, _ := setupApp(t)
	token := registerAndLogin(t, app, "alice", "pw1")

	// Create a post; it lands in the To Do column
	resp := boardRequest(t, app, http.MethodPost, "/create", token, map[string]string{"title": "t", "body": "b"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	listing := decodeListing(t, resp)
	assert.Len(t, listing.All, 1)
	assert.Len(t, listing.ToDo, 1)
	assert.Empty(t, listing.Doing)
	assert.Empty(t, listing.Done)
	assert.Equal(t, "t", listing.ToDo[0].Title)
	postID := listing.ToDo[0].ID

	// Move it to Doing; it appears under Doing only
	resp = boardRequest(t, app, http.MethodPost, fmt.Sprintf("/%d/move_doing", postID), token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	listing = decodeListing(t, resp)
	assert.Empty(t, listing.ToDo)
	assert.Len(t, listing.Doing, 1)
	assert.Empty(t, listing.Done)

	// Edit keeps the status
	resp = boardRequest(t, app, http.MethodPost, fmt.Sprintf("/%d/update", postID), token, map[string]string{"title": "t2", "body": "b2"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	listing = decodeListing(t, resp)
	assert.Len(t, listing.Doing, 1)
	assert.Equal(t, "t2", listing.Doing[0].Title)

	// Done posts may be reopened
	resp = boardRequest(t, app, http.MethodPost, fmt.Sprintf("/%d/move_done", postID), token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	listing = decodeListing(t, resp)
	assert.Len(t, listing.Done, 1)

	resp = boardRequest(t, app, http.MethodPost, fmt.Sprintf("/%d/move_todo", postID), token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	listing = decodeListing(t, resp)
	assert.Len(t, listing.ToDo, 1)

	// Delete removes it from every partition
	resp = boardRequest(t, app, http.MethodPost, fmt.Sprintf("/%d/delete", postID), token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	listing = decodeListing(t, resp)
	assert.Empty(t, listing.All)
	assert.Empty(t, listing.ToDo)
	assert.Empty(t, listing.Doing)
	assert.Empty(t, listing.Done)

	// Deleting again is NotFound, not a crash
	resp = boardRequest(t, app, http.MethodPost, fmt.Sprintf("/%d/delete", postID), token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestBoardOwnership(t *testing.T) {
	app, _ := setupApp(t)
	aliceToken := registerAndLogin(t, app, "alice", "pw1")
	bobToken := registerAndLogin(t, app, "bob", "pw2")

	resp := boardRequest(t, app, http.MethodPost, "/create", bobToken, map[string]string{"title": "bob's task"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	listing := decodeListing(t, resp)
	postID := listing.ToDo[0].ID

	// Alice cannot see bob's post on her board
	resp = boardRequest(t, app, http.MethodGet, "/", aliceToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	listing = decodeListing(t, resp)
	assert.Empty(t, listing.All)

	// ...and cannot mutate it
	for _, path := range []string{
		fmt.Sprintf("/%d/move_doing", postID),
		fmt.Sprintf("/%d/move_done", postID),
		fmt.Sprintf("/%d/move_todo", postID),
		fmt.Sprintf("/%d/delete", postID),
	} {
		resp = boardRequest(t, app, http.MethodPost, path, aliceToken, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, "path %s", path)
		resp.Body.Close()
	}
	resp = boardRequest(t, app, http.MethodPost, fmt.Sprintf("/%d/update", postID), aliceToken, map[string]string{"title": "hijacked"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Bob's post is untouched
	resp = boardRequest(t, app, http.MethodGet, "/", bobToken, nil)
	listing = decodeListing(t, resp)
	assert.Len(t, listing.ToDo, 1)
	assert.Equal(t, "bob's task", listing.ToDo[0].Title)
}

func TestSessionCookieFlow(t *testing.T) {
	app, _ := setupApp(t)

	creds := map[string]string{"username": "carol", "password": "pw3"}
	jsonBody, _ := json.Marshal(creds)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	req = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)

	var sessionCookie *http.Cookie
	for _, cookie := range resp.Cookies() {
		if cookie.Name == middleware.SessionCookie {
			sessionCookie = cookie
		}
	}
	assert.NotNil(t, sessionCookie)
	resp.Body.Close()

	// The cookie alone authenticates board requests
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sessionCookie)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Logout clears the cookie and redirects to the login page
	req = httptest.NewRequest(http.MethodGet, "/auth/logout", nil)
	req.AddCookie(sessionCookie)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login", resp.Header.Get("Location"))

	var cleared *http.Cookie
	for _, cookie := range resp.Cookies() {
		if cookie.Name == middleware.SessionCookie {
			cleared = cookie
		}
	}
	assert.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	resp.Body.Close()
}

func TestCreateValidation(t *testing.T) {
	app, _ := setupApp(t)
	token := registerAndLogin(t, app, "alice", "pw1")

	// Missing title re-renders as a client error
	resp := boardRequest(t, app, http.MethodPost, "/create", token, map[string]string{"body": "no title"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Body is optional
	resp = boardRequest(t, app, http.MethodPost, "/create", token, map[string]string{"title": "only a title"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}
