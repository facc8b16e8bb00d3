package models

import "time"

// QRCode binds an opaque code to a table. At most one code per table is active.
type QRCode struct {
	ID            int64      `json:"id" db:"id"`
	RestaurantID  int64      `json:"restaurant_id" db:"restaurant_id"`
	TableID       int64      `json:"table_id" db:"table_id"`
	Code          string     `json:"code" db:"code"`
	IsActive      bool       `json:"is_active" db:"is_active"`
	ScanCount     int64      `json:"scan_count" db:"scan_count"`
	LastScannedAt *time.Time `json:"last_scanned_at,omitempty" db:"last_scanned_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// ScanSession is issued after a successful table scan and authorises ordering.
type ScanSession struct {
	Token        string    `json:"token"`
	RestaurantID int64     `json:"restaurant_id"`
	TableID      int64     `json:"table_id"`
	ExpiresAt    time.Time `json:"expires_at"`
}
