package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"kanban/internal/models"
	"kanban/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles registration, credential verification and session
// token issuance. The session token is the only record of "logged in as
// user X"; there is no server-side session table.
type AuthService struct {
	userRepo   repositories.UserRepository
	jwtSecret  []byte
	tokenDurat time.Duration // Duration for which a session token is valid
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: 24 * time.Hour,
	}
}

// Register creates a new user with a bcrypt-hashed password. Empty
// credentials fail with ErrValidation; a taken username surfaces as
// repositories.ErrDuplicateUsername.
func (s *AuthService) Register(username, password string) (*models.User, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrValidation)
	}

	// Check first so the common case reports cleanly; the unique index on
	// username still backstops a racing registration.
	if _, err := s.userRepo.GetByUsername(username); err == nil {
		return nil, fmt.Errorf("register %q: %w", username, repositories.ErrDuplicateUsername)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username: username,
		Password: string(hashedPassword),
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies the credentials and returns a signed session token bound
// to the user's id. Both an unknown username and a wrong password return
// ErrInvalidCredentials.
func (s *AuthService) Login(username, password string) (string, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"jti":      uuid.New().String(),
		"exp":      time.Now().Add(s.tokenDurat).Unix(),
		"iat":      time.Now().Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a session token, returning the claims
// if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// ResolveUser turns a session token into the current user. It returns
// (nil, nil) for an anonymous request: no token, an invalid token, or a
// token whose user no longer exists in the store.
func (s *AuthService) ResolveUser(tokenString string) (*models.User, error) {
	if tokenString == "" {
		return nil, nil
	}

	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		log.Printf("Session token rejected: %v", err)
		return nil, nil
	}

	rawID, ok := claims["user_id"].(float64)
	if !ok {
		return nil, nil
	}

	user, err := s.userRepo.GetByID(uint(rawID))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// The account was removed after the token was issued.
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}
