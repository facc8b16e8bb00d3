package handlers

import (
	"net/http"

	"qr_dine_backend/internal/models"
	"qr_dine_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// MenuHandler exposes vendor menu management.
type MenuHandler struct {
	menuService services.MenuService
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(ms services.MenuService) *MenuHandler {
	return &MenuHandler{menuService: ms}
}

// CreateMenuItem adds an item to the vendor's menu.
func (h *MenuHandler) CreateMenuItem(c *gin.Context) {
	restaurantID, ok := scopedRestaurant(c)
	if !ok {
		return
	}
	var req services.CreateMenuItemRequest
	if !bindJSON(c, "CreateMenuItem", &req) {
		return
	}

	item, err := h.menuService.CreateMenuItem(c.Request.Context(), restaurantID, req)
	if err != nil {
		respondServiceError(c, err, "CreateMenuItem", "Failed to create menu item.")
		return
	}
	c.JSON(http.StatusCreated, item)
}

// GetMenuItems lists every item of the vendor's menu, available or not.
func (h *MenuHandler) GetMenuItems(c *gin.Context) {
	restaurantID, ok := scopedRestaurant(c)
	if !ok {
		return
	}

	items, err := h.menuService.ListMenuItems(c.Request.Context(), restaurantID)
	if err != nil {
		respondServiceError(c, err, "GetMenuItems", "Failed to fetch menu items.")
		return
	}
	if items == nil {
		items = []models.MenuItem{}
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

// UpdateMenuItem patches a menu item.
func (h *MenuHandler) UpdateMenuItem(c *gin.Context) {
	restaurantID, ok := scopedRestaurant(c)
	if !ok {
		return
	}
	itemID, ok := pathID(c, "id", "menu item")
	if !ok {
		return
	}
	var req services.UpdateMenuItemRequest
	if !bindJSON(c, "UpdateMenuItem", &req) {
		return
	}

	item, err := h.menuService.UpdateMenuItem(c.Request.Context(), restaurantID, itemID, req)
	if err != nil {
		respondServiceError(c, err, "UpdateMenuItem", "Failed to update menu item.")
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteMenuItem removes a menu item that no order references.
func (h *MenuHandler) DeleteMenuItem(c *gin.Context) {
	restaurantID, ok := scopedRestaurant(c)
	if !ok {
		return
	}
	itemID, ok := pathID(c, "id", "menu item")
	if !ok {
		return
	}

	if err := h.menuService.DeleteMenuItem(c.Request.Context(), restaurantID, itemID); err != nil {
		respondServiceError(c, err, "DeleteMenuItem", "Failed to delete menu item.")
		return
	}
	c.Status(http.StatusNoContent)
}
