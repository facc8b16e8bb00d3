package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MenuItem is a dish or drink offered by a restaurant.
type MenuItem struct {
	ID           int64           `json:"id" db:"id"`
	RestaurantID int64           `json:"restaurant_id" db:"restaurant_id"`
	Category     string          `json:"category" db:"category"`
	Name         string          `json:"name" db:"name"`
	Description  *string         `json:"description,omitempty" db:"description"`
	Price        decimal.Decimal `json:"price" db:"price"`
	IsAvailable  bool            `json:"is_available" db:"is_available"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// MenuCategory groups available items for the customer menu.
type MenuCategory struct {
	Name  string     `json:"name"`
	Items []MenuItem `json:"items"`
}
