package handlers

import (
	"net/http"
	"strconv"
	"time"

	"qr_dine_backend/internal/models"
	"qr_dine_backend/internal/services"
	"qr_dine_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// OrderHandler holds the order service.
type OrderHandler struct {
	orderService services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(os services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: os}
}

// GetOrders handles fetching the restaurant's orders with filters
func (h *OrderHandler) GetOrders(c *gin.Context) {
	restaurantID, ok := scopedRestaurant(c)
	if !ok {
		return
	}
	page, pageSize, ok := pagination(c)
	if !ok {
		return
	}
	filters := models.OrderFilters{RestaurantID: restaurantID, Page: page, PageSize: pageSize}

	if tableIDStr := c.Query("table_id"); tableIDStr != "" {
		tableID, err := strconv.ParseInt(tableIDStr, 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid table_id format.", err.Error()))
			return
		}
		filters.TableID = &tableID
	}
	if status := c.Query("status"); status != "" {
		filters.Status = &status
	}
	if date := c.Query("date"); date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid date format. Use YYYY-MM-DD.", err.Error()))
			return
		}
		filters.Date = &date
	}

	orders, totalCount, err := h.orderService.ListOrders(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "GetOrders", "Failed to fetch orders.")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	paged(c, orders, totalCount, page, pageSize)
}

// GetOrderByID handles fetching a single order by ID with its items
func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	restaurantID, ok := scopedRestaurant(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id", "order")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), restaurantID, orderID)
	if err != nil {
		respondServiceError(c, err, "GetOrderByID", "Failed to fetch order.")
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus handles moving an order along its lifecycle
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	restaurantID, ok := scopedRestaurant(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id", "order")
	if !ok {
		return
	}
	var req services.UpdateOrderStatusRequest
	if !bindJSON(c, "UpdateOrderStatus", &req) {
		return
	}

	updatedOrder, err := h.orderService.UpdateOrderStatus(c.Request.Context(), restaurantID, orderID, req)
	if err != nil {
		respondServiceError(c, err, "UpdateOrderStatus", "Failed to update order status.")
		return
	}
	c.JSON(http.StatusOK, updatedOrder)
}
