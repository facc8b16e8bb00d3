package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment statuses.
const (
	PaymentPending  = "pending"
	PaymentVerified = "verified"
	PaymentRejected = "rejected"
)

// Payment methods a vendor may declare.
const (
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodCard         = "card"
	PaymentMethodCash         = "cash"
	PaymentMethodMobileMoney  = "mobile_money"
)

// Balance transaction types.
const (
	TxTypeSubscriptionCharge = "subscription_charge"
	TxTypePlanUpgrade        = "plan_upgrade"
	TxTypePlanDowngrade      = "plan_downgrade_credit"
	TxTypePayment            = "payment"
	TxTypeAdjustment         = "adjustment"
)

// IsValidPaymentMethod checks method against the accepted set.
func IsValidPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodBankTransfer, PaymentMethodCard, PaymentMethodCash, PaymentMethodMobileMoney:
		return true
	default:
		return false
	}
}

// Payment is a top-up declared by a vendor and verified by an admin.
type Payment struct {
	ID              int64           `json:"id" db:"id"`
	RestaurantID    int64           `json:"restaurant_id" db:"restaurant_id"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	Method          string          `json:"method" db:"method"`
	Reference       *string         `json:"reference,omitempty" db:"reference"`
	Status          string          `json:"status" db:"status"`
	RejectionReason *string         `json:"rejection_reason,omitempty" db:"rejection_reason"`
	ProcessedBy     *int64          `json:"processed_by,omitempty" db:"processed_by"`
	ProcessedAt     *time.Time      `json:"processed_at,omitempty" db:"processed_at"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
	RestaurantName  *string         `json:"restaurant_name,omitempty"`
}

// PaymentFilters narrows payment listings.
type PaymentFilters struct {
	RestaurantID *int64  `form:"restaurant_id"`
	Status       *string `form:"status"`
	Page         int     `form:"page"`
	PageSize     int     `form:"page_size"`
}

// BalanceTransaction is one ledger row. BalanceAfter is the restaurant balance
// right after Amount was applied.
type BalanceTransaction struct {
	ID           int64           `json:"id" db:"id"`
	RestaurantID int64           `json:"restaurant_id" db:"restaurant_id"`
	Type         string          `json:"type" db:"type"`
	Amount       decimal.Decimal `json:"amount" db:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after" db:"balance_after"`
	Description  *string         `json:"description,omitempty" db:"description"`
	PaymentID    *int64          `json:"payment_id,omitempty" db:"payment_id"`
	CreatedBy    *int64          `json:"created_by,omitempty" db:"created_by"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}
