package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses.
const (
	OrderPending   = "pending"
	OrderConfirmed = "confirmed"
	OrderPreparing = "preparing"
	OrderReady     = "ready"
	OrderServed    = "served"
	OrderCompleted = "completed"
	OrderCancelled = "cancelled"
)

// Order is placed by a customer from a scanned table.
type Order struct {
	ID           int64           `json:"id" db:"id"`
	RestaurantID int64           `json:"restaurant_id" db:"restaurant_id"`
	TableID      int64           `json:"table_id" db:"table_id"`
	TrackingCode string          `json:"tracking_code" db:"tracking_code"`
	Status       string          `json:"status" db:"status"`
	CustomerName *string         `json:"customer_name,omitempty" db:"customer_name"`
	Notes        *string         `json:"notes,omitempty" db:"notes"`
	TotalAmount  decimal.Decimal `json:"total_amount" db:"total_amount"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
	TableLabel   *string         `json:"table_label,omitempty"`
	Items        []OrderItem     `json:"items,omitempty"`
}

// OrderItem snapshots the menu item name and price at order time.
type OrderItem struct {
	ID         int64           `json:"id" db:"id"`
	OrderID    int64           `json:"order_id" db:"order_id"`
	MenuItemID int64           `json:"menu_item_id" db:"menu_item_id"`
	ItemName   string          `json:"item_name" db:"item_name"`
	Quantity   int             `json:"quantity" db:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price" db:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price" db:"total_price"`
	Notes      *string         `json:"notes,omitempty" db:"notes"`
}

// OrderFilters defines the available filters for querying orders.
// This struct is used by both the service and repository layers.
type OrderFilters struct {
	RestaurantID int64   `form:"-"`
	TableID      *int64  `form:"table_id"`
	Status       *string `form:"status"`
	Date         *string `form:"date"` // YYYY-MM-DD
	Page         int     `form:"page"`
	PageSize     int     `form:"page_size"`
}
