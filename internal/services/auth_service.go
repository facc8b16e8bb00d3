package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"qr_dine_backend/internal/models"
	"qr_dine_backend/internal/repositories"
	"qr_dine_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// --- Custom Service Errors ---
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameExists     = errors.New("username already exists")
	ErrTokenGeneration    = errors.New("failed to generate token")
)

const minPasswordLength = 8

// --- Data Transfer Objects (DTOs) ---

// LoginRequest DTO
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CreateVendorUserRequest DTO
type CreateVendorUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name"`
}

// AuthResponse DTO
type AuthResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// TokenGenerator issues access tokens for authenticated users.
type TokenGenerator interface {
	GenerateAccessToken(userID int64, username, role string, restaurantID *int64) (string, time.Time, error)
}

// --- AuthService Interface ---
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	CreateVendorUser(ctx context.Context, restaurantID int64, req CreateVendorUserRequest) (*models.User, error)
	EnsureAdminUser(ctx context.Context, username, password string) (bool, error)
	GetUserProfile(ctx context.Context, userID int64) (*models.User, error)
}

// --- authService Implementation ---
type authService struct {
	authRepo       repositories.AuthRepository
	restaurantRepo repositories.RestaurantRepository
	tokens         TokenGenerator
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(authRepo repositories.AuthRepository, restaurantRepo repositories.RestaurantRepository, tokens TokenGenerator) AuthService {
	return &authService{
		authRepo:       authRepo,
		restaurantRepo: restaurantRepo,
		tokens:         tokens,
	}
}

func (s *authService) createUser(ctx context.Context, user *models.User, password string) (*models.User, error) {
	user.Username = strings.TrimSpace(user.Username)
	if user.Username == "" {
		return nil, fmt.Errorf("%w: username cannot be empty", ErrValidation)
	}
	if !utils.IsValidPasswordLength(password, minPasswordLength) {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if _, err := s.authRepo.CreateUser(ctx, nil, user, string(hashedPasswordBytes)); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrUsernameExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}

// CreateVendorUser adds a login for a restaurant's staff.
func (s *authService) CreateVendorUser(ctx context.Context, restaurantID int64, req CreateVendorUserRequest) (*models.User, error) {
	if _, err := s.restaurantRepo.GetRestaurantByID(ctx, restaurantID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, fmt.Errorf("failed to get restaurant %d: %w", restaurantID, err)
	}
	user := &models.User{
		Username:     req.Username,
		FullName:     utils.NewNullString(req.FullName),
		Role:         models.RoleVendor,
		RestaurantID: &restaurantID,
	}
	return s.createUser(ctx, user, req.Password)
}

// EnsureAdminUser creates the bootstrap admin when the username is free. It
// reports whether a user was created.
func (s *authService) EnsureAdminUser(ctx context.Context, username, password string) (bool, error) {
	_, _, err := s.authRepo.FindUserByUsername(ctx, strings.TrimSpace(username))
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return false, fmt.Errorf("failed to look up admin user: %w", err)
	}
	if _, err := s.createUser(ctx, &models.User{Username: username, Role: models.RoleAdmin}, password); err != nil {
		if errors.Is(err, ErrUsernameExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Login handles user login and token generation.
func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, storedHashedPassword, err := s.authRepo.FindUserByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", err)
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedHashedPassword), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.Role == models.RoleVendor && user.RestaurantID == nil {
		utils.LogWarn("Vendor user without restaurant", map[string]interface{}{"user_id": user.ID})
		return nil, ErrInvalidCredentials
	}

	accessToken, expiresAt, err := s.tokens.GenerateAccessToken(user.ID, user.Username, user.Role, user.RestaurantID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	user.PasswordHash = ""
	return &AuthResponse{
		User:        user,
		AccessToken: accessToken,
		ExpiresAt:   expiresAt,
	}, nil
}

// GetUserProfile retrieves a user's profile by their ID.
func (s *authService) GetUserProfile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.authRepo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user profile: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}
