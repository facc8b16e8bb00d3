package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"qr_dine_backend/internal/billing"
	"qr_dine_backend/internal/models"
	"qr_dine_backend/internal/repositories"
	"qr_dine_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// dueBatchSize bounds how many restaurants one billing run picks up per query.
const dueBatchSize = 200

// BillingRunSummary reports the outcome of one billing run.
type BillingRunSummary struct {
	StartedAt     time.Time       `json:"started_at"`
	FinishedAt    time.Time       `json:"finished_at"`
	Considered    int             `json:"considered"`
	Charged       int             `json:"charged"`
	Skipped       int             `json:"skipped"`
	Failed        int             `json:"failed"`
	PeriodsBilled int             `json:"periods_billed"`
	TotalCharged  decimal.Decimal `json:"total_charged"`
	Suspended     int             `json:"suspended"`
}

// ChargeResult describes what billing did to a single restaurant.
type ChargeResult struct {
	RestaurantID  int64           `json:"restaurant_id"`
	Periods       int             `json:"periods"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Status        string          `json:"subscription_status"`
	NextPeriodEnd time.Time       `json:"next_period_end"`
}

// BalanceSummary is the vendor-facing view of a restaurant's account.
type BalanceSummary struct {
	RestaurantID       int64           `json:"restaurant_id"`
	Balance            decimal.Decimal `json:"balance"`
	SubscriptionStatus string          `json:"subscription_status"`
	CurrentPeriodEnd   time.Time       `json:"current_period_end"`
	OverdueSince       *time.Time      `json:"overdue_since,omitempty"`
	GraceDaysLeft      *int            `json:"grace_days_left,omitempty"`
	Plan               *models.Plan    `json:"plan,omitempty"`
	NextCharge         decimal.Decimal `json:"next_charge"`
}

// AdjustBalanceRequest is a manual credit (positive) or debit (negative) by an admin.
type AdjustBalanceRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason" binding:"required"`
}

// BillingService runs the subscription billing cycle and exposes balances.
type BillingService interface {
	RunDueBilling(ctx context.Context, now time.Time) (BillingRunSummary, error)
	ChargeRestaurant(ctx context.Context, restaurantID int64, now time.Time) (*ChargeResult, error)
	GetBalance(ctx context.Context, restaurantID int64) (*BalanceSummary, error)
	ListTransactions(ctx context.Context, restaurantID int64, page, pageSize int) ([]models.BalanceTransaction, int, error)
	AdjustBalance(ctx context.Context, restaurantID int64, req AdjustBalanceRequest, adminUserID int64) (*models.BalanceTransaction, error)
}

type billingService struct {
	restaurantRepo repositories.RestaurantRepository
	planRepo       repositories.PlanRepository
	ledgerRepo     repositories.LedgerRepository
	txm            repositories.TxManager
	graceDays      int
	now            func() time.Time
}

// NewBillingService creates a new instance of BillingService.
func NewBillingService(
	rr repositories.RestaurantRepository,
	pr repositories.PlanRepository,
	lr repositories.LedgerRepository,
	txm repositories.TxManager,
	graceDays int,
) BillingService {
	return &billingService{
		restaurantRepo: rr,
		planRepo:       pr,
		ledgerRepo:     lr,
		txm:            txm,
		graceDays:      graceDays,
		now:            time.Now,
	}
}

// RunDueBilling charges every restaurant whose period has ended. Each restaurant
// is billed in its own transaction; a failure is logged and the run moves on.
func (s *billingService) RunDueBilling(ctx context.Context, now time.Time) (BillingRunSummary, error) {
	summary := BillingRunSummary{StartedAt: s.now(), TotalCharged: decimal.Zero}

	seen := make(map[int64]bool)
	for {
		ids, err := s.restaurantRepo.ListDueRestaurantIDs(ctx, now, dueBatchSize)
		if err != nil {
			summary.FinishedAt = s.now()
			return summary, fmt.Errorf("failed to list restaurants due for billing: %w", err)
		}

		fresh := 0
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			fresh++
			summary.Considered++

			if err := ctx.Err(); err != nil {
				summary.FinishedAt = s.now()
				return summary, err
			}

			res, err := s.ChargeRestaurant(ctx, id, now)
			switch {
			case err != nil:
				summary.Failed++
				utils.LogError(err, "Billing failed for restaurant", map[string]interface{}{"restaurant_id": id})
			case res == nil:
				summary.Skipped++
			default:
				summary.Charged++
				summary.PeriodsBilled += res.Periods
				summary.TotalCharged = summary.TotalCharged.Add(res.Amount)
				if res.Status == models.SubscriptionSuspended {
					summary.Suspended++
				}
			}
		}
		// A short batch or one made only of restaurants already handled (failed
		// ones stay due) means there is nothing left to pick up.
		if len(ids) < dueBatchSize || fresh == 0 {
			break
		}
	}

	summary.FinishedAt = s.now()
	utils.LogDebug("Billing pass completed", map[string]interface{}{
		"considered": summary.Considered,
		"charged":    summary.Charged,
		"failed":     summary.Failed,
	})
	return summary, nil
}

// ChargeRestaurant bills every period of the restaurant that has ended by now.
// It returns a nil result when nothing was due, which happens when another run
// got there first.
func (s *billingService) ChargeRestaurant(ctx context.Context, restaurantID int64, now time.Time) (*ChargeResult, error) {
	var result *ChargeResult
	err := s.txm.WithTx(ctx, func(exec repositories.SQLExecutor) error {
		restaurant, err := s.restaurantRepo.GetRestaurantForUpdate(ctx, exec, restaurantID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrRestaurantNotFound
			}
			return fmt.Errorf("failed to lock restaurant %d: %w", restaurantID, err)
		}
		if !restaurant.IsActive || restaurant.SubscriptionStatus == models.SubscriptionCancelled {
			return nil
		}

		plan, err := s.planRepo.GetPlanByID(ctx, exec, restaurant.PlanID)
		if err != nil {
			return fmt.Errorf("failed to get plan %d: %w", restaurant.PlanID, err)
		}

		periods, nextEnd := billing.DuePeriods(restaurant.CurrentPeriodEnd, now, plan.DurationDays)
		if periods == 0 {
			return nil
		}

		balance := restaurant.Balance
		periodEnd := restaurant.CurrentPeriodEnd
		overdueStart := periodEnd
		for i := 0; i < periods; i++ {
			wasNegative := balance.IsNegative()
			balance = balance.Sub(plan.Price)
			if !wasNegative && balance.IsNegative() {
				overdueStart = periodEnd
			}
			covered := billing.AdvancePeriod(periodEnd, plan.DurationDays)
			ledger := &models.BalanceTransaction{
				RestaurantID: restaurant.ID,
				Type:         models.TxTypeSubscriptionCharge,
				Amount:       plan.Price.Neg(),
				BalanceAfter: balance,
				Description: describe(fmt.Sprintf("%s subscription %s to %s",
					plan.Name, periodEnd.Format("2006-01-02"), covered.Format("2006-01-02"))),
			}
			if _, err := s.ledgerRepo.CreateTransaction(ctx, exec, ledger); err != nil {
				return fmt.Errorf("failed to record subscription charge: %w", err)
			}
			periodEnd = covered
		}

		// Overdue time counts from the end of the oldest period that went unpaid.
		state := settleBillingState(restaurant, balance, overdueStart, now, s.graceDays)
		state.CurrentPeriodEnd = nextEnd
		if err := s.restaurantRepo.UpdateBillingState(ctx, exec, restaurant.ID, state); err != nil {
			return fmt.Errorf("failed to update billing state: %w", err)
		}

		if state.Status != restaurant.SubscriptionStatus {
			utils.LogWarn("Subscription status changed by billing", map[string]interface{}{
				"restaurant_id": restaurant.ID,
				"from":          restaurant.SubscriptionStatus,
				"to":            state.Status,
				"balance":       balance.StringFixed(2),
			})
		}

		result = &ChargeResult{
			RestaurantID:  restaurant.ID,
			Periods:       periods,
			Amount:        plan.Price.Mul(decimal.NewFromInt(int64(periods))),
			BalanceAfter:  balance,
			Status:        state.Status,
			NextPeriodEnd: nextEnd,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *billingService) GetBalance(ctx context.Context, restaurantID int64) (*BalanceSummary, error) {
	restaurant, err := s.restaurantRepo.GetRestaurantByID(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, fmt.Errorf("failed to get restaurant %d: %w", restaurantID, err)
	}

	summary := &BalanceSummary{
		RestaurantID:       restaurant.ID,
		Balance:            restaurant.Balance,
		SubscriptionStatus: restaurant.SubscriptionStatus,
		CurrentPeriodEnd:   restaurant.CurrentPeriodEnd,
		OverdueSince:       restaurant.OverdueSince,
		NextCharge:         decimal.Zero,
	}
	if restaurant.OverdueSince != nil && restaurant.SubscriptionStatus == models.SubscriptionPastDue {
		left := s.graceDays - billing.OverdueDays(restaurant.OverdueSince, s.now())
		if left < 0 {
			left = 0
		}
		summary.GraceDaysLeft = &left
	}

	plan, err := s.planRepo.GetPlanByID(ctx, nil, restaurant.PlanID)
	if err != nil {
		utils.LogWarn("Plan lookup failed for balance summary", map[string]interface{}{
			"restaurant_id": restaurant.ID, "plan_id": restaurant.PlanID, "error": err.Error(),
		})
		return summary, nil
	}
	summary.Plan = plan
	summary.NextCharge = plan.Price
	return summary, nil
}

func (s *billingService) ListTransactions(ctx context.Context, restaurantID int64, page, pageSize int) ([]models.BalanceTransaction, int, error) {
	txs, total, err := s.ledgerRepo.ListTransactions(ctx, restaurantID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list balance transactions: %w", err)
	}
	return txs, total, nil
}

func (s *billingService) AdjustBalance(ctx context.Context, restaurantID int64, req AdjustBalanceRequest, adminUserID int64) (*models.BalanceTransaction, error) {
	if req.Amount.IsZero() {
		return nil, fmt.Errorf("%w: adjustment amount cannot be zero", ErrValidation)
	}
	if req.Amount.Exponent() < -2 {
		return nil, fmt.Errorf("%w: amount cannot have more than two decimal places", ErrValidation)
	}
	reason := utils.NewNullString(req.Reason)
	if reason == nil {
		return nil, fmt.Errorf("%w: reason is required", ErrValidation)
	}

	var ledger *models.BalanceTransaction
	err := s.txm.WithTx(ctx, func(exec repositories.SQLExecutor) error {
		restaurant, err := s.restaurantRepo.GetRestaurantForUpdate(ctx, exec, restaurantID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrRestaurantNotFound
			}
			return fmt.Errorf("failed to lock restaurant %d: %w", restaurantID, err)
		}

		now := s.now()
		balance := restaurant.Balance.Add(req.Amount)
		ledger = &models.BalanceTransaction{
			RestaurantID: restaurant.ID,
			Type:         models.TxTypeAdjustment,
			Amount:       req.Amount,
			BalanceAfter: balance,
			Description:  reason,
			CreatedBy:    &adminUserID,
		}
		if _, err := s.ledgerRepo.CreateTransaction(ctx, exec, ledger); err != nil {
			return fmt.Errorf("failed to record adjustment: %w", err)
		}
		state := settleBillingState(restaurant, balance, now, now, s.graceDays)
		if err := s.restaurantRepo.UpdateBillingState(ctx, exec, restaurant.ID, state); err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ledger, nil
}
