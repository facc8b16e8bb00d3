package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"qr_dine_backend/internal/billing"
	"qr_dine_backend/internal/models"
	"qr_dine_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

var (
	ErrSamePlan            = errors.New("restaurant is already on this plan")
	ErrRestaurantSuspended = errors.New("restaurant subscription is suspended or cancelled")
	ErrInsufficientBalance = errors.New("insufficient balance for plan change")
	ErrPlanNameTaken       = errors.New("plan name already exists")
)

// Quote directions.
const (
	QuoteCharge = "charge"
	QuoteCredit = "credit"
	QuoteNone   = "none"
)

// CreatePlanRequest is used by admins to add a subscription tier.
type CreatePlanRequest struct {
	Name         string          `json:"name" binding:"required"`
	Price        decimal.Decimal `json:"price"`
	DurationDays int             `json:"duration_days" binding:"required,gt=0"`
	MaxTables    int             `json:"max_tables" binding:"required,gt=0"`
	Features     []string        `json:"features"`
}

// ChangePlanRequest carries the target plan of an upgrade or downgrade.
type ChangePlanRequest struct {
	PlanID int64 `json:"plan_id" binding:"required,gt=0"`
}

// UpgradeQuote is the prorated cost of switching plans for the rest of the period.
// A positive Amount is charged, a negative Amount is credited.
type UpgradeQuote struct {
	RestaurantID  int64           `json:"restaurant_id"`
	CurrentPlan   *models.Plan    `json:"current_plan"`
	NewPlan       *models.Plan    `json:"new_plan"`
	RemainingDays int             `json:"remaining_days"`
	Amount        decimal.Decimal `json:"amount"`
	Direction     string          `json:"direction"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	PeriodEnd     time.Time       `json:"period_end"`
}

// UpgradeResult is returned once a plan change has been applied.
type UpgradeResult struct {
	Quote       UpgradeQuote               `json:"quote"`
	Change      *models.SubscriptionChange `json:"change"`
	Transaction *models.BalanceTransaction `json:"transaction,omitempty"`
	Status      string                     `json:"subscription_status"`
}

// SubscriptionService manages plans and prorated plan changes.
type SubscriptionService interface {
	ListPlans(ctx context.Context, activeOnly bool) ([]models.Plan, error)
	GetPlan(ctx context.Context, planID int64) (*models.Plan, error)
	CreatePlan(ctx context.Context, req CreatePlanRequest) (*models.Plan, error)
	SetPlanActive(ctx context.Context, planID int64, active bool) error
	QuoteUpgrade(ctx context.Context, restaurantID, newPlanID int64) (*UpgradeQuote, error)
	UpgradePlan(ctx context.Context, restaurantID, newPlanID int64, actorUserID *int64) (*UpgradeResult, error)
	ListSubscriptionChanges(ctx context.Context, restaurantID int64) ([]models.SubscriptionChange, error)
}

type subscriptionService struct {
	planRepo       repositories.PlanRepository
	restaurantRepo repositories.RestaurantRepository
	ledgerRepo     repositories.LedgerRepository
	txm            repositories.TxManager
	graceDays      int
	now            func() time.Time
}

// NewSubscriptionService creates a new instance of SubscriptionService.
func NewSubscriptionService(
	pr repositories.PlanRepository,
	rr repositories.RestaurantRepository,
	lr repositories.LedgerRepository,
	txm repositories.TxManager,
	graceDays int,
) SubscriptionService {
	return &subscriptionService{
		planRepo:       pr,
		restaurantRepo: rr,
		ledgerRepo:     lr,
		txm:            txm,
		graceDays:      graceDays,
		now:            time.Now,
	}
}

func (s *subscriptionService) ListPlans(ctx context.Context, activeOnly bool) ([]models.Plan, error) {
	plans, err := s.planRepo.ListPlans(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

func (s *subscriptionService) GetPlan(ctx context.Context, planID int64) (*models.Plan, error) {
	plan, err := s.planRepo.GetPlanByID(ctx, nil, planID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to get plan %d: %w", planID, err)
	}
	return plan, nil
}

func (s *subscriptionService) CreatePlan(ctx context.Context, req CreatePlanRequest) (*models.Plan, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: plan name cannot be empty", ErrValidation)
	}
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	if req.Price.Exponent() < -2 {
		return nil, fmt.Errorf("%w: price cannot have more than two decimal places", ErrValidation)
	}
	if req.DurationDays <= 0 || req.MaxTables <= 0 {
		return nil, fmt.Errorf("%w: duration_days and max_tables must be positive", ErrValidation)
	}
	features := req.Features
	if features == nil {
		features = []string{}
	}

	plan := &models.Plan{
		Name:         name,
		Price:        req.Price,
		DurationDays: req.DurationDays,
		MaxTables:    req.MaxTables,
		Features:     features,
		IsActive:     true,
	}
	if _, err := s.planRepo.CreatePlan(ctx, nil, plan); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrPlanNameTaken
		}
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}
	return plan, nil
}

func (s *subscriptionService) SetPlanActive(ctx context.Context, planID int64, active bool) error {
	if err := s.planRepo.SetPlanActive(ctx, nil, planID, active); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrPlanNotFound
		}
		return fmt.Errorf("failed to update plan %d: %w", planID, err)
	}
	return nil
}

func (s *subscriptionService) QuoteUpgrade(ctx context.Context, restaurantID, newPlanID int64) (*UpgradeQuote, error) {
	restaurant, err := s.restaurantRepo.GetRestaurantByID(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, fmt.Errorf("failed to get restaurant %d: %w", restaurantID, err)
	}
	return s.quote(ctx, nil, restaurant, newPlanID)
}

// quote validates the switch and computes the proration against the given
// restaurant snapshot. It performs no writes.
func (s *subscriptionService) quote(ctx context.Context, exec repositories.SQLExecutor, restaurant *models.Restaurant, newPlanID int64) (*UpgradeQuote, error) {
	if restaurant.PlanID == newPlanID {
		return nil, ErrSamePlan
	}
	if restaurant.SubscriptionStatus == models.SubscriptionSuspended ||
		restaurant.SubscriptionStatus == models.SubscriptionCancelled || !restaurant.IsActive {
		return nil, ErrRestaurantSuspended
	}

	current, err := s.planRepo.GetPlanByID(ctx, exec, restaurant.PlanID)
	if err != nil {
		return nil, fmt.Errorf("failed to get current plan %d: %w", restaurant.PlanID, err)
	}
	next, err := s.planRepo.GetPlanByID(ctx, exec, newPlanID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to get plan %d: %w", newPlanID, err)
	}
	if !next.IsActive {
		return nil, ErrPlanNotFound
	}

	remaining := billing.RemainingDays(s.now(), restaurant.CurrentPeriodEnd)
	amount, err := billing.Prorate(
		billing.Terms{Price: current.Price, DurationDays: current.DurationDays},
		billing.Terms{Price: next.Price, DurationDays: next.DurationDays},
		remaining,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to prorate plan change: %w", err)
	}

	direction := QuoteNone
	switch {
	case amount.IsPositive():
		direction = QuoteCharge
	case amount.IsNegative():
		direction = QuoteCredit
	}

	return &UpgradeQuote{
		RestaurantID:  restaurant.ID,
		CurrentPlan:   current,
		NewPlan:       next,
		RemainingDays: remaining,
		Amount:        amount,
		Direction:     direction,
		BalanceBefore: restaurant.Balance,
		BalanceAfter:  restaurant.Balance.Sub(amount),
		PeriodEnd:     restaurant.CurrentPeriodEnd,
	}, nil
}

func (s *subscriptionService) UpgradePlan(ctx context.Context, restaurantID, newPlanID int64, actorUserID *int64) (*UpgradeResult, error) {
	var result *UpgradeResult
	err := s.txm.WithTx(ctx, func(exec repositories.SQLExecutor) error {
		restaurant, err := s.restaurantRepo.GetRestaurantForUpdate(ctx, exec, restaurantID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrRestaurantNotFound
			}
			return fmt.Errorf("failed to lock restaurant %d: %w", restaurantID, err)
		}

		q, err := s.quote(ctx, exec, restaurant, newPlanID)
		if err != nil {
			return err
		}
		if q.Amount.IsPositive() && restaurant.Balance.LessThan(q.Amount) {
			return fmt.Errorf("%w: need %s, balance is %s", ErrInsufficientBalance, q.Amount.StringFixed(2), restaurant.Balance.StringFixed(2))
		}

		now := s.now()
		result = &UpgradeResult{Quote: *q, Status: restaurant.SubscriptionStatus}

		if !q.Amount.IsZero() {
			txType := models.TxTypePlanUpgrade
			if q.Amount.IsNegative() {
				txType = models.TxTypePlanDowngrade
			}
			ledger := &models.BalanceTransaction{
				RestaurantID: restaurant.ID,
				Type:         txType,
				Amount:       q.Amount.Neg(),
				BalanceAfter: q.BalanceAfter,
				Description: describe(fmt.Sprintf("Plan change %s -> %s, %d days remaining",
					q.CurrentPlan.Name, q.NewPlan.Name, q.RemainingDays)),
				CreatedBy: actorUserID,
			}
			if _, err := s.ledgerRepo.CreateTransaction(ctx, exec, ledger); err != nil {
				return fmt.Errorf("failed to record plan change transaction: %w", err)
			}
			result.Transaction = ledger

			state := settleBillingState(restaurant, q.BalanceAfter, now, now, s.graceDays)
			if err := s.restaurantRepo.UpdateBillingState(ctx, exec, restaurant.ID, state); err != nil {
				return fmt.Errorf("failed to update balance: %w", err)
			}
			result.Status = state.Status
		}

		change := &models.SubscriptionChange{
			RestaurantID:   restaurant.ID,
			OldPlanID:      q.CurrentPlan.ID,
			NewPlanID:      q.NewPlan.ID,
			RemainingDays:  q.RemainingDays,
			ProratedAmount: q.Amount,
			ChangedBy:      actorUserID,
		}
		if _, err := s.ledgerRepo.CreateSubscriptionChange(ctx, exec, change); err != nil {
			return fmt.Errorf("failed to record subscription change: %w", err)
		}
		result.Change = change

		if err := s.restaurantRepo.UpdatePlan(ctx, exec, restaurant.ID, q.NewPlan.ID); err != nil {
			return fmt.Errorf("failed to switch plan: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *subscriptionService) ListSubscriptionChanges(ctx context.Context, restaurantID int64) ([]models.SubscriptionChange, error) {
	changes, err := s.ledgerRepo.ListSubscriptionChanges(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscription changes: %w", err)
	}
	return changes, nil
}
