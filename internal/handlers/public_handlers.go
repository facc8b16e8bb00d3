package handlers

import (
	"net/http"
	"strings"

	"qr_dine_backend/internal/services"
	"qr_dine_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// PublicHandler serves the unauthenticated customer flow: scan, menu, order, track.
type PublicHandler struct {
	qrService    services.QRService
	menuService  services.MenuService
	orderService services.OrderService
}

// NewPublicHandler creates a new PublicHandler.
func NewPublicHandler(qs services.QRService, ms services.MenuService, os services.OrderService) *PublicHandler {
	return &PublicHandler{qrService: qs, menuService: ms, orderService: os}
}

func scanToken(c *gin.Context) (string, bool) {
	token := strings.TrimSpace(c.GetHeader(ScanSessionHeader))
	if token == "" {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized,
			"Scan session required.", ScanSessionHeader+" header is missing"))
		return "", false
	}
	return token, true
}

// ScanTable validates the table parameter from a QR code and opens a scan session.
func (h *PublicHandler) ScanTable(c *gin.Context) {
	param := strings.TrimSpace(c.Query("t"))
	if param == "" {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Table parameter is required.", "query parameter t is missing"))
		return
	}

	result, err := h.qrService.ScanTable(c.Request.Context(), param)
	if err != nil {
		respondServiceError(c, err, "ScanTable", "Failed to open table session.")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetMenu returns the available menu of the scanned restaurant.
func (h *PublicHandler) GetMenu(c *gin.Context) {
	token, ok := scanToken(c)
	if !ok {
		return
	}

	menu, err := h.menuService.GetMenuForSession(c.Request.Context(), token)
	if err != nil {
		respondServiceError(c, err, "GetMenu", "Failed to load menu.")
		return
	}
	c.JSON(http.StatusOK, menu)
}

// PlaceOrder creates an order for the scanned table.
func (h *PublicHandler) PlaceOrder(c *gin.Context) {
	token, ok := scanToken(c)
	if !ok {
		return
	}
	var req services.CreateOrderRequest
	if !bindJSON(c, "PlaceOrder", &req) {
		return
	}

	order, err := h.orderService.PlaceOrder(c.Request.Context(), token, req)
	if err != nil {
		respondServiceError(c, err, "PlaceOrder", "Failed to create order.")
		return
	}
	c.JSON(http.StatusCreated, order)
}

// TrackOrder lets a customer poll an order by its tracking code.
func (h *PublicHandler) TrackOrder(c *gin.Context) {
	order, err := h.orderService.GetOrderByTrackingCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondServiceError(c, err, "TrackOrder", "Failed to fetch order.")
		return
	}
	c.JSON(http.StatusOK, order)
}
