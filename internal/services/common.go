package services

import (
	"errors"
	"time"

	"qr_dine_backend/internal/billing"
	"qr_dine_backend/internal/models"
	"qr_dine_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// Errors shared by several services.
var (
	ErrValidation         = errors.New("validation error")
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrPlanNotFound       = errors.New("plan not found or not active")
)

// settleBillingState returns the billing columns for a restaurant whose balance
// has become newBalance. overdueStart is recorded when the balance turns
// negative for the first time. Cancelled tenants keep their status.
func settleBillingState(r *models.Restaurant, newBalance decimal.Decimal, overdueStart, now time.Time, graceDays int) repositories.BillingState {
	state := repositories.BillingState{
		Balance:          newBalance,
		Status:           r.SubscriptionStatus,
		OverdueSince:     r.OverdueSince,
		CurrentPeriodEnd: r.CurrentPeriodEnd,
	}
	if !newBalance.IsNegative() {
		state.OverdueSince = nil
	} else if state.OverdueSince == nil {
		start := overdueStart
		state.OverdueSince = &start
	}
	if r.SubscriptionStatus == models.SubscriptionCancelled {
		return state
	}
	state.Status = billing.StatusForBalance(newBalance, billing.OverdueDays(state.OverdueSince, now), graceDays)
	return state
}

func describe(s string) *string {
	return &s
}
