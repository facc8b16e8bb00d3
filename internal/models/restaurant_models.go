package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Subscription statuses stored on restaurants.subscription_status.
const (
	SubscriptionActive    = "active"
	SubscriptionPastDue   = "past_due"
	SubscriptionSuspended = "suspended"
	SubscriptionCancelled = "cancelled"
)

// Restaurant is the tenant. Balance is debited by billing and upgrades and
// credited by verified payments.
type Restaurant struct {
	ID                 int64           `json:"id" db:"id"`
	Name               string          `json:"name" db:"name"`
	Slug               string          `json:"slug" db:"slug"`
	PlanID             int64           `json:"plan_id" db:"plan_id"`
	Balance            decimal.Decimal `json:"balance" db:"balance"`
	SubscriptionStatus string          `json:"subscription_status" db:"subscription_status"`
	CurrentPeriodEnd   time.Time       `json:"current_period_end" db:"current_period_end"`
	OverdueSince       *time.Time      `json:"overdue_since,omitempty" db:"overdue_since"`
	IsActive           bool            `json:"is_active" db:"is_active"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
	Plan               *Plan           `json:"plan,omitempty"`
}

// AcceptsOrders reports whether customers may scan and order at this restaurant.
func (r *Restaurant) AcceptsOrders() bool {
	if r == nil || !r.IsActive {
		return false
	}
	return r.SubscriptionStatus == SubscriptionActive || r.SubscriptionStatus == SubscriptionPastDue
}

// RestaurantFilters narrows the admin restaurant list.
type RestaurantFilters struct {
	Status   *string `form:"status"`
	Search   *string `form:"q"`
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`
}

// DiningTable is a physical table that carries a QR code.
type DiningTable struct {
	ID           int64     `json:"id" db:"id"`
	RestaurantID int64     `json:"restaurant_id" db:"restaurant_id"`
	Label        string    `json:"label" db:"label"`
	Seats        int       `json:"seats" db:"seats"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
