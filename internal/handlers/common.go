package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"qr_dine_backend/internal/middleware"
	"qr_dine_backend/internal/qrcode"
	"qr_dine_backend/internal/services"
	"qr_dine_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ScanSessionHeader carries the customer's scan session token.
const ScanSessionHeader = "X-Scan-Session"

type errorMapping struct {
	target error
	status int
	code   string
}

// serviceErrors maps service sentinels onto HTTP responses. The first match wins.
var serviceErrors = []errorMapping{
	{services.ErrValidation, http.StatusBadRequest, utils.ErrCodeValidationFailed},
	{services.ErrInvalidOrderStatus, http.StatusBadRequest, utils.ErrCodeValidationFailed},
	{services.ErrInvalidPaymentMethod, http.StatusBadRequest, utils.ErrCodeValidationFailed},
	{qrcode.ErrInvalidTableParam, http.StatusBadRequest, utils.ErrCodeBadRequest},

	{services.ErrInvalidCredentials, http.StatusUnauthorized, utils.ErrCodeUnauthorized},
	{services.ErrSessionInvalid, http.StatusUnauthorized, utils.ErrCodeUnauthorized},

	{services.ErrInsufficientBalance, http.StatusPaymentRequired, utils.ErrCodePaymentRequired},

	{services.ErrRestaurantSuspended, http.StatusForbidden, utils.ErrCodeForbidden},
	{services.ErrRestaurantUnavailable, http.StatusForbidden, utils.ErrCodeForbidden},

	{services.ErrRestaurantNotFound, http.StatusNotFound, utils.ErrCodeNotFound},
	{services.ErrPlanNotFound, http.StatusNotFound, utils.ErrCodeNotFound},
	{services.ErrUserNotFound, http.StatusNotFound, utils.ErrCodeNotFound},
	{services.ErrTableNotFound, http.StatusNotFound, utils.ErrCodeNotFound},
	{services.ErrMenuItemNotFound, http.StatusNotFound, utils.ErrCodeNotFound},
	{services.ErrOrderNotFound, http.StatusNotFound, utils.ErrCodeNotFound},
	{services.ErrPaymentNotFound, http.StatusNotFound, utils.ErrCodeNotFound},
	{services.ErrQRCodeNotFound, http.StatusNotFound, utils.ErrCodeNotFound},

	{services.ErrSlugTaken, http.StatusConflict, utils.ErrCodeConflict},
	{services.ErrTableLabelTaken, http.StatusConflict, utils.ErrCodeConflict},
	{services.ErrTableLimitReached, http.StatusConflict, utils.ErrCodeConflict},
	{services.ErrUsernameExists, http.StatusConflict, utils.ErrCodeConflict},
	{services.ErrPlanNameTaken, http.StatusConflict, utils.ErrCodeConflict},
	{services.ErrSamePlan, http.StatusConflict, utils.ErrCodeConflict},
	{services.ErrPaymentAlreadyProcessed, http.StatusConflict, utils.ErrCodeConflict},
	{services.ErrInvalidStatusTransition, http.StatusConflict, utils.ErrCodeConflict},
	{services.ErrMenuItemInUse, http.StatusConflict, utils.ErrCodeConflict},
	{services.ErrMenuItemUnavailable, http.StatusConflict, utils.ErrCodeConflict},

	{services.ErrQRCodeInactive, http.StatusGone, utils.ErrCodeGone},
	{services.ErrTableInactive, http.StatusGone, utils.ErrCodeGone},
}

// respondServiceError logs err and renders the matching APIError. Unknown
// errors become a 500 carrying fallback as the message.
func respondServiceError(c *gin.Context, err error, op, fallback string) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			utils.LogWarn(op+": request rejected", map[string]interface{}{"error": err.Error(), "status": m.status})
			utils.RespondWithError(c, utils.NewAPIError(m.status, m.code, m.target.Error(), err.Error()))
			return
		}
	}
	utils.LogError(err, op+": unexpected service error")
	utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, fallback, "Internal error"))
}

func bindJSON(c *gin.Context, op string, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.LogError(err, op+": Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return false
	}
	return true
}

func pathID(c *gin.Context, name, label string) (int64, bool) {
	return parseID(c, c.Param(name), name, label)
}

func parseID(c *gin.Context, raw, name, label string) (int64, bool) {
	id, ok := utils.ParsePositiveID(raw)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid "+label+" ID format.", name+" must be a positive integer"))
		return 0, false
	}
	return id, true
}

// scopedRestaurant returns the vendor's restaurant from the token.
func scopedRestaurant(c *gin.Context) (int64, bool) {
	rid, ok := middleware.RestaurantID(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "Token is not bound to a restaurant", ""))
		return 0, false
	}
	return rid, true
}

func currentUser(c *gin.Context) (int64, bool) {
	uid, ok := middleware.UserID(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", "Missing user ID in context"))
		return 0, false
	}
	return uid, true
}

// pagination reads page and page_size, defaulting to 1 and 20.
func pagination(c *gin.Context) (int, int, bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page <= 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid page format.", "page must be a positive integer"))
		return 0, 0, false
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil || pageSize <= 0 || pageSize > 100 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid page_size format.", "page_size must be between 1 and 100"))
		return 0, 0, false
	}
	return page, pageSize, true
}

func paged(c *gin.Context, data interface{}, total, page, pageSize int) {
	c.JSON(http.StatusOK, gin.H{
		"data":      data,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}
