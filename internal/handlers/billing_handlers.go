package handlers

import (
	"net/http"
	"time"

	"qr_dine_backend/internal/models"
	"qr_dine_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// BillingHandler exposes balances, the ledger and payments to vendors and admins.
type BillingHandler struct {
	billingService services.BillingService
	paymentService services.PaymentService
	now            func() time.Time
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(bs services.BillingService, ps services.PaymentService) *BillingHandler {
	return &BillingHandler{billingService: bs, paymentService: ps, now: time.Now}
}

// GetBalance returns the vendor's balance and subscription state.
func (h *BillingHandler) GetBalance(c *gin.Context) {
	restaurantID, ok := scopedRestaurant(c)
	if !ok {
		return
	}
	h.renderBalance(c, restaurantID)
}

// GetRestaurantBalance is the admin view of a restaurant's balance.
func (h *BillingHandler) GetRestaurantBalance(c *gin.Context) {
	restaurantID, ok := pathID(c, "id", "restaurant")
	if !ok {
		return
	}
	h.renderBalance(c, restaurantID)
}

func (h *BillingHandler) renderBalance(c *gin.Context, restaurantID int64) {
	summary, err := h.billingService.GetBalance(c.Request.Context(), restaurantID)
	if err != nil {
		respondServiceError(c, err, "GetBalance", "Failed to fetch balance.")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetTransactions lists the vendor's ledger, newest first.
func (h *BillingHandler) GetTransactions(c *gin.Context) {
	restaurantID, ok := scopedRestaurant(c)
	if !ok {
		return
	}
	page, pageSize, ok := pagination(c)
	if !ok {
		return
	}

	txs, total, err := h.billingService.ListTransactions(c.Request.Context(), restaurantID, page, pageSize)
	if err != nil {
		respondServiceError(c, err, "GetTransactions", "Failed to fetch transactions.")
		return
	}
	if txs == nil {
		txs = []models.BalanceTransaction{}
	}
	paged(c, txs, total, page, pageSize)
}

// SubmitPayment records a top-up the vendor claims to have made.
func (h *BillingHandler) SubmitPayment(c *gin.Context) {
	restaurantID, ok := scopedRestaurant(c)
	if !ok {
		return
	}
	var req services.SubmitPaymentRequest
	if !bindJSON(c, "SubmitPayment", &req) {
		return
	}

	payment, err := h.paymentService.SubmitPayment(c.Request.Context(), restaurantID, req)
	if err != nil {
		respondServiceError(c, err, "SubmitPayment", "Failed to submit payment.")
		return
	}
	c.JSON(http.StatusCreated, payment)
}

// GetVendorPayments lists the vendor's own payments.
func (h *BillingHandler) GetVendorPayments(c *gin.Context) {
	restaurantID, ok := scopedRestaurant(c)
	if !ok {
		return
	}
	h.listPayments(c, &restaurantID)
}

// GetPayments lists payments across restaurants; restaurant_id narrows it.
func (h *BillingHandler) GetPayments(c *gin.Context) {
	var restaurantID *int64
	if raw := c.Query("restaurant_id"); raw != "" {
		id, ok := parseID(c, raw, "restaurant_id", "restaurant")
		if !ok {
			return
		}
		restaurantID = &id
	}
	h.listPayments(c, restaurantID)
}

func (h *BillingHandler) listPayments(c *gin.Context, restaurantID *int64) {
	page, pageSize, ok := pagination(c)
	if !ok {
		return
	}
	filters := models.PaymentFilters{RestaurantID: restaurantID, Page: page, PageSize: pageSize}
	if status := c.Query("status"); status != "" {
		filters.Status = &status
	}

	payments, total, err := h.paymentService.ListPayments(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "ListPayments", "Failed to fetch payments.")
		return
	}
	if payments == nil {
		payments = []models.Payment{}
	}
	paged(c, payments, total, page, pageSize)
}

// VerifyPayment credits a pending payment to the restaurant's balance.
func (h *BillingHandler) VerifyPayment(c *gin.Context) {
	paymentID, ok := pathID(c, "id", "payment")
	if !ok {
		return
	}
	adminID, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := h.paymentService.VerifyPayment(c.Request.Context(), paymentID, adminID)
	if err != nil {
		respondServiceError(c, err, "VerifyPayment", "Failed to verify payment.")
		return
	}
	c.JSON(http.StatusOK, result)
}

// RejectPayment closes a pending payment without touching the balance.
func (h *BillingHandler) RejectPayment(c *gin.Context) {
	paymentID, ok := pathID(c, "id", "payment")
	if !ok {
		return
	}
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	var req services.RejectPaymentRequest
	if !bindJSON(c, "RejectPayment", &req) {
		return
	}

	payment, err := h.paymentService.RejectPayment(c.Request.Context(), paymentID, adminID, req.Reason)
	if err != nil {
		respondServiceError(c, err, "RejectPayment", "Failed to reject payment.")
		return
	}
	c.JSON(http.StatusOK, payment)
}

// AdjustBalance applies a manual credit or debit.
func (h *BillingHandler) AdjustBalance(c *gin.Context) {
	restaurantID, ok := pathID(c, "id", "restaurant")
	if !ok {
		return
	}
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	var req services.AdjustBalanceRequest
	if !bindJSON(c, "AdjustBalance", &req) {
		return
	}

	tx, err := h.billingService.AdjustBalance(c.Request.Context(), restaurantID, req, adminID)
	if err != nil {
		respondServiceError(c, err, "AdjustBalance", "Failed to adjust balance.")
		return
	}
	c.JSON(http.StatusCreated, tx)
}

// RunBilling triggers a billing pass outside the scheduler.
func (h *BillingHandler) RunBilling(c *gin.Context) {
	summary, err := h.billingService.RunDueBilling(c.Request.Context(), h.now())
	if err != nil {
		respondServiceError(c, err, "RunBilling", "Billing run failed.")
		return
	}
	c.JSON(http.StatusOK, summary)
}
