package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan is a subscription tier. Price is charged once per DurationDays.
type Plan struct {
	ID           int64           `json:"id" db:"id"`
	Name         string          `json:"name" db:"name"`
	Price        decimal.Decimal `json:"price" db:"price"`
	DurationDays int             `json:"duration_days" db:"duration_days"`
	MaxTables    int             `json:"max_tables" db:"max_tables"`
	Features     []string        `json:"features" db:"features"`
	IsActive     bool            `json:"is_active" db:"is_active"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// SubscriptionChange records a plan switch and the proration applied to it.
type SubscriptionChange struct {
	ID             int64           `json:"id" db:"id"`
	RestaurantID   int64           `json:"restaurant_id" db:"restaurant_id"`
	OldPlanID      int64           `json:"old_plan_id" db:"old_plan_id"`
	NewPlanID      int64           `json:"new_plan_id" db:"new_plan_id"`
	RemainingDays  int             `json:"remaining_days" db:"remaining_days"`
	ProratedAmount decimal.Decimal `json:"prorated_amount" db:"prorated_amount"`
	ChangedBy      *int64          `json:"changed_by,omitempty" db:"changed_by"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}
