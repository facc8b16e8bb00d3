package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"qr_dine_backend/internal/models"
	"qr_dine_backend/internal/repositories"
	"qr_dine_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

var (
	ErrPaymentNotFound         = errors.New("payment not found")
	ErrPaymentAlreadyProcessed = errors.New("payment has already been processed")
	ErrInvalidPaymentMethod    = errors.New("invalid payment method")
)

// SubmitPaymentRequest is a top-up declared by a vendor.
type SubmitPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method" binding:"required"`
	Reference string          `json:"reference"`
}

// RejectPaymentRequest carries the reason shown to the vendor.
type RejectPaymentRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// PaymentVerification is the outcome of verifying a payment.
type PaymentVerification struct {
	Payment     *models.Payment            `json:"payment"`
	Transaction *models.BalanceTransaction `json:"transaction"`
	Status      string                     `json:"subscription_status"`
}

// PaymentService handles vendor top-ups and their review by admins.
type PaymentService interface {
	SubmitPayment(ctx context.Context, restaurantID int64, req SubmitPaymentRequest) (*models.Payment, error)
	VerifyPayment(ctx context.Context, paymentID, adminUserID int64) (*PaymentVerification, error)
	RejectPayment(ctx context.Context, paymentID, adminUserID int64, reason string) (*models.Payment, error)
	GetPayment(ctx context.Context, paymentID int64) (*models.Payment, error)
	ListPayments(ctx context.Context, filters models.PaymentFilters) ([]models.Payment, int, error)
}

type paymentService struct {
	paymentRepo    repositories.PaymentRepository
	restaurantRepo repositories.RestaurantRepository
	ledgerRepo     repositories.LedgerRepository
	txm            repositories.TxManager
	graceDays      int
	now            func() time.Time
}

// NewPaymentService creates a new instance of PaymentService.
func NewPaymentService(
	pr repositories.PaymentRepository,
	rr repositories.RestaurantRepository,
	lr repositories.LedgerRepository,
	txm repositories.TxManager,
	graceDays int,
) PaymentService {
	return &paymentService{
		paymentRepo:    pr,
		restaurantRepo: rr,
		ledgerRepo:     lr,
		txm:            txm,
		graceDays:      graceDays,
		now:            time.Now,
	}
}

func (s *paymentService) SubmitPayment(ctx context.Context, restaurantID int64, req SubmitPaymentRequest) (*models.Payment, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if req.Amount.Exponent() < -2 {
		return nil, fmt.Errorf("%w: amount cannot have more than two decimal places", ErrValidation)
	}
	method := strings.ToLower(strings.TrimSpace(req.Method))
	if !models.IsValidPaymentMethod(method) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPaymentMethod, req.Method)
	}
	if _, err := s.restaurantRepo.GetRestaurantByID(ctx, restaurantID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, fmt.Errorf("failed to get restaurant %d: %w", restaurantID, err)
	}

	payment := &models.Payment{
		RestaurantID: restaurantID,
		Amount:       req.Amount,
		Method:       method,
		Reference:    utils.NewNullString(req.Reference),
		Status:       models.PaymentPending,
	}
	if _, err := s.paymentRepo.CreatePayment(ctx, nil, payment); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	utils.LogInfo("Payment submitted", map[string]interface{}{
		"payment_id": payment.ID, "restaurant_id": restaurantID, "amount": payment.Amount.StringFixed(2),
	})
	return payment, nil
}

// VerifyPayment credits the restaurant with a pending payment. A tenant that
// was past due or suspended becomes active again once its balance is back
// at or above zero.
func (s *paymentService) VerifyPayment(ctx context.Context, paymentID, adminUserID int64) (*PaymentVerification, error) {
	var out *PaymentVerification
	err := s.txm.WithTx(ctx, func(exec repositories.SQLExecutor) error {
		payment, err := s.paymentRepo.GetPaymentForUpdate(ctx, exec, paymentID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrPaymentNotFound
			}
			return fmt.Errorf("failed to lock payment %d: %w", paymentID, err)
		}
		if payment.Status != models.PaymentPending {
			return fmt.Errorf("%w: payment %d is %s", ErrPaymentAlreadyProcessed, paymentID, payment.Status)
		}

		restaurant, err := s.restaurantRepo.GetRestaurantForUpdate(ctx, exec, payment.RestaurantID)
		if err != nil {
			return fmt.Errorf("failed to lock restaurant %d: %w", payment.RestaurantID, err)
		}

		now := s.now()
		balance := restaurant.Balance.Add(payment.Amount)
		ledger := &models.BalanceTransaction{
			RestaurantID: restaurant.ID,
			Type:         models.TxTypePayment,
			Amount:       payment.Amount,
			BalanceAfter: balance,
			Description:  describe(fmt.Sprintf("Payment #%d via %s", payment.ID, payment.Method)),
			PaymentID:    &payment.ID,
			CreatedBy:    &adminUserID,
		}
		if _, err := s.ledgerRepo.CreateTransaction(ctx, exec, ledger); err != nil {
			return fmt.Errorf("failed to record payment transaction: %w", err)
		}

		state := settleBillingState(restaurant, balance, now, now, s.graceDays)
		if err := s.restaurantRepo.UpdateBillingState(ctx, exec, restaurant.ID, state); err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}

		payment.Status = models.PaymentVerified
		payment.ProcessedBy = &adminUserID
		payment.ProcessedAt = &now
		if err := s.paymentRepo.MarkProcessed(ctx, exec, payment); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrPaymentAlreadyProcessed
			}
			return fmt.Errorf("failed to mark payment verified: %w", err)
		}

		if state.Status != restaurant.SubscriptionStatus {
			utils.LogInfo("Subscription status changed by payment", map[string]interface{}{
				"restaurant_id": restaurant.ID, "from": restaurant.SubscriptionStatus, "to": state.Status,
			})
		}
		out = &PaymentVerification{Payment: payment, Transaction: ledger, Status: state.Status}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *paymentService) RejectPayment(ctx context.Context, paymentID, adminUserID int64, reason string) (*models.Payment, error) {
	why := utils.NewNullString(reason)
	if why == nil {
		return nil, fmt.Errorf("%w: rejection reason is required", ErrValidation)
	}

	var payment *models.Payment
	err := s.txm.WithTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		payment, err = s.paymentRepo.GetPaymentForUpdate(ctx, exec, paymentID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrPaymentNotFound
			}
			return fmt.Errorf("failed to lock payment %d: %w", paymentID, err)
		}
		if payment.Status != models.PaymentPending {
			return fmt.Errorf("%w: payment %d is %s", ErrPaymentAlreadyProcessed, paymentID, payment.Status)
		}

		now := s.now()
		payment.Status = models.PaymentRejected
		payment.RejectionReason = why
		payment.ProcessedBy = &adminUserID
		payment.ProcessedAt = &now
		if err := s.paymentRepo.MarkProcessed(ctx, exec, payment); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrPaymentAlreadyProcessed
			}
			return fmt.Errorf("failed to mark payment rejected: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *paymentService) GetPayment(ctx context.Context, paymentID int64) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetPaymentByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment %d: %w", paymentID, err)
	}
	return payment, nil
}

func (s *paymentService) ListPayments(ctx context.Context, filters models.PaymentFilters) ([]models.Payment, int, error) {
	if filters.Status != nil {
		switch *filters.Status {
		case models.PaymentPending, models.PaymentVerified, models.PaymentRejected:
		default:
			return nil, 0, fmt.Errorf("%w: unknown payment status %q", ErrValidation, *filters.Status)
		}
	}
	payments, total, err := s.paymentRepo.ListPayments(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, total, nil
}
