package handlers

import (
	"net/http"
	"strconv"

	"qr_dine_backend/internal/models"
	"qr_dine_backend/internal/services"
	"qr_dine_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const (
	defaultQRSize = 256
	minQRSize     = 64
	maxQRSize     = 1024
)

// TableHandler manages dining tables and their QR codes for a vendor.
type TableHandler struct {
	restaurantService services.RestaurantService
	qrService         services.QRService
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(rs services.RestaurantService, qs services.QRService) *TableHandler {
	return &TableHandler{restaurantService: rs, qrService: qs}
}

// CreateTable adds a table, subject to the plan's table limit.
func (h *TableHandler) CreateTable(c *gin.Context) {
	restaurantID, ok := scopedRestaurant(c)
	if !ok {
		return
	}
	var req services.CreateTableRequest
	if !bindJSON(c, "CreateTable", &req) {
		return
	}

	table, err := h.restaurantService.CreateTable(c.Request.Context(), restaurantID, req)
	if err != nil {
		respondServiceError(c, err, "CreateTable", "Failed to create table.")
		return
	}
	c.JSON(http.StatusCreated, table)
}

// GetTables lists the vendor's tables.
func (h *TableHandler) GetTables(c *gin.Context) {
	restaurantID, ok := scopedRestaurant(c)
	if !ok {
		return
	}

	tables, err := h.restaurantService.ListTables(c.Request.Context(), restaurantID)
	if err != nil {
		respondServiceError(c, err, "GetTables", "Failed to fetch tables.")
		return
	}
	if tables == nil {
		tables = []models.DiningTable{}
	}
	c.JSON(http.StatusOK, gin.H{"data": tables})
}

// SetTableActive activates or retires a table. Retiring also retires its QR codes.
func (h *TableHandler) SetTableActive(c *gin.Context) {
	restaurantID, ok := scopedRestaurant(c)
	if !ok {
		return
	}
	tableID, ok := pathID(c, "id", "table")
	if !ok {
		return
	}
	var req services.SetActiveRequest
	if !bindJSON(c, "SetTableActive", &req) {
		return
	}

	if err := h.restaurantService.SetTableActive(c.Request.Context(), restaurantID, tableID, *req.IsActive); err != nil {
		respondServiceError(c, err, "SetTableActive", "Failed to update table.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": tableID, "is_active": *req.IsActive})
}

// GenerateQR issues a fresh QR code for a table, retiring the previous one.
func (h *TableHandler) GenerateQR(c *gin.Context) {
	restaurantID, ok := scopedRestaurant(c)
	if !ok {
		return
	}
	tableID, ok := pathID(c, "id", "table")
	if !ok {
		return
	}

	qr, err := h.qrService.GenerateTableQR(c.Request.Context(), restaurantID, tableID)
	if err != nil {
		respondServiceError(c, err, "GenerateQR", "Failed to generate QR code.")
		return
	}
	c.JSON(http.StatusCreated, qr)
}

// GetQR returns the active QR code and ordering URL of a table.
func (h *TableHandler) GetQR(c *gin.Context) {
	restaurantID, ok := scopedRestaurant(c)
	if !ok {
		return
	}
	tableID, ok := pathID(c, "id", "table")
	if !ok {
		return
	}

	qr, err := h.qrService.GetTableQR(c.Request.Context(), restaurantID, tableID)
	if err != nil {
		respondServiceError(c, err, "GetQR", "Failed to fetch QR code.")
		return
	}
	c.JSON(http.StatusOK, qr)
}

// GetQRPNG renders the active QR code of a table as a PNG image.
func (h *TableHandler) GetQRPNG(c *gin.Context) {
	restaurantID, ok := scopedRestaurant(c)
	if !ok {
		return
	}
	tableID, ok := pathID(c, "id", "table")
	if !ok {
		return
	}
	size := defaultQRSize
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < minQRSize || n > maxQRSize {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
				"Invalid size.", "size must be between "+strconv.Itoa(minQRSize)+" and "+strconv.Itoa(maxQRSize)))
			return
		}
		size = n
	}

	png, err := h.qrService.RenderTableQRPNG(c.Request.Context(), restaurantID, tableID, size)
	if err != nil {
		respondServiceError(c, err, "GetQRPNG", "Failed to render QR code.")
		return
	}
	c.Header("Content-Disposition", "inline; filename=table-"+utils.Int64ToStr(tableID)+".png")
	c.Data(http.StatusOK, "image/png", png)
}

// DeactivateQR retires a single QR code.
func (h *TableHandler) DeactivateQR(c *gin.Context) {
	restaurantID, ok := scopedRestaurant(c)
	if !ok {
		return
	}
	qrID, ok := pathID(c, "id", "QR code")
	if !ok {
		return
	}

	if err := h.qrService.DeactivateQR(c.Request.Context(), restaurantID, qrID); err != nil {
		respondServiceError(c, err, "DeactivateQR", "Failed to deactivate QR code.")
		return
	}
	c.Status(http.StatusNoContent)
}
