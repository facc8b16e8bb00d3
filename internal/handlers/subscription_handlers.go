package handlers

import (
	"net/http"
	"strconv"

	"qr_dine_backend/internal/models"
	"qr_dine_backend/internal/services"
	"qr_dine_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SubscriptionHandler covers plans and plan changes.
type SubscriptionHandler struct {
	subscriptionService services.SubscriptionService
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(ss services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: ss}
}

// GetActivePlans lists the plans a vendor can switch to.
func (h *SubscriptionHandler) GetActivePlans(c *gin.Context) {
	h.listPlans(c, true)
}

// GetPlans lists all plans; active_only=true hides retired ones.
func (h *SubscriptionHandler) GetPlans(c *gin.Context) {
	activeOnly, err := strconv.ParseBool(c.DefaultQuery("active_only", "false"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid active_only value.", err.Error()))
		return
	}
	h.listPlans(c, activeOnly)
}

func (h *SubscriptionHandler) listPlans(c *gin.Context, activeOnly bool) {
	plans, err := h.subscriptionService.ListPlans(c.Request.Context(), activeOnly)
	if err != nil {
		respondServiceError(c, err, "ListPlans", "Failed to fetch plans.")
		return
	}
	if plans == nil {
		plans = []models.Plan{}
	}
	c.JSON(http.StatusOK, gin.H{"data": plans})
}

// CreatePlan adds a subscription plan.
func (h *SubscriptionHandler) CreatePlan(c *gin.Context) {
	var req services.CreatePlanRequest
	if !bindJSON(c, "CreatePlan", &req) {
		return
	}

	plan, err := h.subscriptionService.CreatePlan(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "CreatePlan", "Failed to create plan.")
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// SetPlanActive retires or reinstates a plan.
func (h *SubscriptionHandler) SetPlanActive(c *gin.Context) {
	planID, ok := pathID(c, "id", "plan")
	if !ok {
		return
	}
	var req services.SetActiveRequest
	if !bindJSON(c, "SetPlanActive", &req) {
		return
	}

	if err := h.subscriptionService.SetPlanActive(c.Request.Context(), planID, *req.IsActive); err != nil {
		respondServiceError(c, err, "SetPlanActive", "Failed to update plan.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": planID, "is_active": *req.IsActive})
}

// QuoteUpgrade previews the prorated amount of switching to plan_id.
func (h *SubscriptionHandler) QuoteUpgrade(c *gin.Context) {
	restaurantID, ok := scopedRestaurant(c)
	if !ok {
		return
	}
	planID, ok := parseID(c, c.Query("plan_id"), "plan_id", "plan")
	if !ok {
		return
	}

	quote, err := h.subscriptionService.QuoteUpgrade(c.Request.Context(), restaurantID, planID)
	if err != nil {
		respondServiceError(c, err, "QuoteUpgrade", "Failed to quote plan change.")
		return
	}
	c.JSON(http.StatusOK, quote)
}

// UpgradePlan switches the vendor's plan and settles the prorated amount.
func (h *SubscriptionHandler) UpgradePlan(c *gin.Context) {
	restaurantID, ok := scopedRestaurant(c)
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req services.ChangePlanRequest
	if !bindJSON(c, "UpgradePlan", &req) {
		return
	}

	result, err := h.subscriptionService.UpgradePlan(c.Request.Context(), restaurantID, req.PlanID, &userID)
	if err != nil {
		respondServiceError(c, err, "UpgradePlan", "Failed to change plan.")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetSubscriptionChanges lists the vendor's plan history.
func (h *SubscriptionHandler) GetSubscriptionChanges(c *gin.Context) {
	restaurantID, ok := scopedRestaurant(c)
	if !ok {
		return
	}

	changes, err := h.subscriptionService.ListSubscriptionChanges(c.Request.Context(), restaurantID)
	if err != nil {
		respondServiceError(c, err, "GetSubscriptionChanges", "Failed to fetch plan history.")
		return
	}
	if changes == nil {
		changes = []models.SubscriptionChange{}
	}
	c.JSON(http.StatusOK, gin.H{"data": changes})
}
