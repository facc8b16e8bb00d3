package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"qr_dine_backend/internal/models"
)

// LedgerRepository stores balance transactions and plan change history.
type LedgerRepository interface {
	CreateTransaction(ctx context.Context, executor SQLExecutor, tx *models.BalanceTransaction) (int64, error)
	ListTransactions(ctx context.Context, restaurantID int64, page, pageSize int) ([]models.BalanceTransaction, int, error)
	CreateSubscriptionChange(ctx context.Context, executor SQLExecutor, change *models.SubscriptionChange) (int64, error)
	ListSubscriptionChanges(ctx context.Context, restaurantID int64) ([]models.SubscriptionChange, error)
}

type ledgerRepository struct {
	db *sql.DB
}

// NewLedgerRepository creates a new instance of LedgerRepository.
func NewLedgerRepository(db *sql.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) CreateTransaction(ctx context.Context, executor SQLExecutor, tx *models.BalanceTransaction) (int64, error) {
	executor = orDB(executor, r.db)
	query := `INSERT INTO balance_transactions
	            (restaurant_id, type, amount, balance_after, description, payment_id, created_by, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	err := executor.QueryRowContext(ctx, query,
		tx.RestaurantID, tx.Type, tx.Amount, tx.BalanceAfter, tx.Description, tx.PaymentID, tx.CreatedBy, tx.CreatedAt,
	).Scan(&tx.ID)
	if err != nil {
		return 0, wrapDBError(err, "creating balance transaction")
	}
	return tx.ID, nil
}

func (r *ledgerRepository) ListTransactions(ctx context.Context, restaurantID int64, page, pageSize int) ([]models.BalanceTransaction, int, error) {
	limit, offset := pageOffset(page, pageSize)
	query := `SELECT id, restaurant_id, type, amount, balance_after, description, payment_id, created_by, created_at,
	                 COUNT(*) OVER() AS total_count
	          FROM balance_transactions
	          WHERE restaurant_id = $1
	          ORDER BY created_at DESC, id DESC
	          LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, restaurantID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying balance transactions: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	txs := []models.BalanceTransaction{}
	totalCount := 0
	for rows.Next() {
		var t models.BalanceTransaction
		if err := rows.Scan(&t.ID, &t.RestaurantID, &t.Type, &t.Amount, &t.BalanceAfter, &t.Description,
			&t.PaymentID, &t.CreatedBy, &t.CreatedAt, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning balance transaction: %v", ErrDatabaseError, err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating balance transactions: %v", ErrDatabaseError, err)
	}
	return txs, totalCount, nil
}

func (r *ledgerRepository) CreateSubscriptionChange(ctx context.Context, executor SQLExecutor, change *models.SubscriptionChange) (int64, error) {
	executor = orDB(executor, r.db)
	query := `INSERT INTO subscription_changes
	            (restaurant_id, old_plan_id, new_plan_id, remaining_days, prorated_amount, changed_by, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	if change.CreatedAt.IsZero() {
		change.CreatedAt = time.Now()
	}
	err := executor.QueryRowContext(ctx, query,
		change.RestaurantID, change.OldPlanID, change.NewPlanID, change.RemainingDays, change.ProratedAmount,
		change.ChangedBy, change.CreatedAt,
	).Scan(&change.ID)
	if err != nil {
		return 0, wrapDBError(err, "creating subscription change")
	}
	return change.ID, nil
}

func (r *ledgerRepository) ListSubscriptionChanges(ctx context.Context, restaurantID int64) ([]models.SubscriptionChange, error) {
	query := `SELECT id, restaurant_id, old_plan_id, new_plan_id, remaining_days, prorated_amount, changed_by, created_at
	          FROM subscription_changes
	          WHERE restaurant_id = $1
	          ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying subscription changes: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	changes := []models.SubscriptionChange{}
	for rows.Next() {
		var c models.SubscriptionChange
		if err := rows.Scan(&c.ID, &c.RestaurantID, &c.OldPlanID, &c.NewPlanID, &c.RemainingDays,
			&c.ProratedAmount, &c.ChangedBy, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning subscription change: %v", ErrDatabaseError, err)
		}
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating subscription changes: %v", ErrDatabaseError, err)
	}
	return changes, nil
}
