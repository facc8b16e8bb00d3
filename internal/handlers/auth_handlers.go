package handlers

import (
	"net/http"

	"qr_dine_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// LoginUser handles user login.
func (h *AuthHandler) LoginUser(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, "LoginUser", &req) {
		return
	}

	authResp, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "LoginUser", "Failed to login.")
		return
	}
	c.JSON(http.StatusOK, authResp)
}

// GetCurrentUser retrieves the profile of the currently authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.authService.GetUserProfile(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "GetCurrentUser", "Failed to retrieve user profile.")
		return
	}
	c.JSON(http.StatusOK, user)
}

// CreateVendorUser creates a vendor login for the restaurant in the path.
func (h *AuthHandler) CreateVendorUser(c *gin.Context) {
	restaurantID, ok := pathID(c, "id", "restaurant")
	if !ok {
		return
	}
	var req services.CreateVendorUserRequest
	if !bindJSON(c, "CreateVendorUser", &req) {
		return
	}

	user, err := h.authService.CreateVendorUser(c.Request.Context(), restaurantID, req)
	if err != nil {
		respondServiceError(c, err, "CreateVendorUser", "Failed to create vendor user.")
		return
	}
	c.JSON(http.StatusCreated, user)
}
