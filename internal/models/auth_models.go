package models

import "time"

// User roles.
const (
	RoleAdmin  = "admin"
	RoleVendor = "vendor"
)

// User is a back-office account. Vendors belong to exactly one restaurant.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FullName     *string   `json:"full_name,omitempty" db:"full_name"`
	Role         string    `json:"role" db:"role"`
	RestaurantID *int64    `json:"restaurant_id,omitempty" db:"restaurant_id"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
