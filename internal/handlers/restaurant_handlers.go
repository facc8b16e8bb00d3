package handlers

import (
	"net/http"

	"qr_dine_backend/internal/models"
	"qr_dine_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// RestaurantHandler is the admin onboarding surface for tenants.
type RestaurantHandler struct {
	restaurantService services.RestaurantService
}

// NewRestaurantHandler creates a new RestaurantHandler.
func NewRestaurantHandler(rs services.RestaurantService) *RestaurantHandler {
	return &RestaurantHandler{restaurantService: rs}
}

// CreateRestaurant onboards a tenant on a plan.
func (h *RestaurantHandler) CreateRestaurant(c *gin.Context) {
	var req services.CreateRestaurantRequest
	if !bindJSON(c, "CreateRestaurant", &req) {
		return
	}

	restaurant, err := h.restaurantService.CreateRestaurant(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "CreateRestaurant", "Failed to create restaurant.")
		return
	}
	c.JSON(http.StatusCreated, restaurant)
}

// GetRestaurants lists tenants with optional status and search filters.
func (h *RestaurantHandler) GetRestaurants(c *gin.Context) {
	page, pageSize, ok := pagination(c)
	if !ok {
		return
	}
	filters := models.RestaurantFilters{Page: page, PageSize: pageSize}
	if status := c.Query("status"); status != "" {
		filters.Status = &status
	}
	if search := c.Query("q"); search != "" {
		filters.Search = &search
	}

	restaurants, total, err := h.restaurantService.ListRestaurants(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "GetRestaurants", "Failed to fetch restaurants.")
		return
	}
	if restaurants == nil {
		restaurants = []models.Restaurant{}
	}
	paged(c, restaurants, total, page, pageSize)
}

// GetRestaurantByID returns one tenant.
func (h *RestaurantHandler) GetRestaurantByID(c *gin.Context) {
	restaurantID, ok := pathID(c, "id", "restaurant")
	if !ok {
		return
	}

	restaurant, err := h.restaurantService.GetRestaurant(c.Request.Context(), restaurantID)
	if err != nil {
		respondServiceError(c, err, "GetRestaurantByID", "Failed to fetch restaurant.")
		return
	}
	c.JSON(http.StatusOK, restaurant)
}

// SetRestaurantActive opens or closes a tenant to customers.
func (h *RestaurantHandler) SetRestaurantActive(c *gin.Context) {
	restaurantID, ok := pathID(c, "id", "restaurant")
	if !ok {
		return
	}
	var req services.SetActiveRequest
	if !bindJSON(c, "SetRestaurantActive", &req) {
		return
	}

	if err := h.restaurantService.SetRestaurantActive(c.Request.Context(), restaurantID, *req.IsActive); err != nil {
		respondServiceError(c, err, "SetRestaurantActive", "Failed to update restaurant.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": restaurantID, "is_active": *req.IsActive})
}
