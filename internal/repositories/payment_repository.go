package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"qr_dine_backend/internal/models"
)

// PaymentRepository defines the interface for payment storage.
type PaymentRepository interface {
	CreatePayment(ctx context.Context, executor SQLExecutor, payment *models.Payment) (int64, error)
	GetPaymentByID(ctx context.Context, paymentID int64) (*models.Payment, error)
	GetPaymentForUpdate(ctx context.Context, executor SQLExecutor, paymentID int64) (*models.Payment, error)
	ListPayments(ctx context.Context, filters models.PaymentFilters) ([]models.Payment, int, error)
	MarkProcessed(ctx context.Context, executor SQLExecutor, payment *models.Payment) error
}

type paymentRepository struct {
	db *sql.DB
}

// NewPaymentRepository creates a new instance of PaymentRepository.
func NewPaymentRepository(db *sql.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

const paymentColumns = `p.id, p.restaurant_id, p.amount, p.method, p.reference, p.status, p.rejection_reason,
	p.processed_by, p.processed_at, p.created_at, p.updated_at`

func scanPayment(s scanner, p *models.Payment, extra ...interface{}) error {
	dest := []interface{}{&p.ID, &p.RestaurantID, &p.Amount, &p.Method, &p.Reference, &p.Status,
		&p.RejectionReason, &p.ProcessedBy, &p.ProcessedAt, &p.CreatedAt, &p.UpdatedAt}
	return s.Scan(append(dest, extra...)...)
}

func (r *paymentRepository) CreatePayment(ctx context.Context, executor SQLExecutor, payment *models.Payment) (int64, error) {
	executor = orDB(executor, r.db)
	query := `INSERT INTO payments (restaurant_id, amount, method, reference, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	now := time.Now()
	payment.CreatedAt, payment.UpdatedAt = now, now
	err := executor.QueryRowContext(ctx, query,
		payment.RestaurantID, payment.Amount, payment.Method, payment.Reference, payment.Status,
		payment.CreatedAt, payment.UpdatedAt,
	).Scan(&payment.ID)
	if err != nil {
		return 0, wrapDBError(err, "creating payment")
	}
	return payment.ID, nil
}

func (r *paymentRepository) GetPaymentByID(ctx context.Context, paymentID int64) (*models.Payment, error) {
	payment := &models.Payment{}
	query := `SELECT ` + paymentColumns + ` FROM payments p WHERE p.id = $1`
	if err := scanPayment(r.db.QueryRowContext(ctx, query, paymentID), payment); err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("getting payment %d", paymentID))
	}
	return payment, nil
}

func (r *paymentRepository) GetPaymentForUpdate(ctx context.Context, executor SQLExecutor, paymentID int64) (*models.Payment, error) {
	executor = orDB(executor, r.db)
	payment := &models.Payment{}
	query := `SELECT ` + paymentColumns + ` FROM payments p WHERE p.id = $1 FOR UPDATE`
	if err := scanPayment(executor.QueryRowContext(ctx, query, paymentID), payment); err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("locking payment %d", paymentID))
	}
	return payment, nil
}

func (r *paymentRepository) ListPayments(ctx context.Context, filters models.PaymentFilters) ([]models.Payment, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + paymentColumns + `, rs.name AS restaurant_name, COUNT(*) OVER() AS total_count
	    FROM payments p
	    JOIN restaurants rs ON rs.id = p.restaurant_id`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.RestaurantID != nil {
		conditions = append(conditions, fmt.Sprintf("p.restaurant_id = $%d", argCounter))
		args = append(args, *filters.RestaurantID)
		argCounter++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", argCounter))
		args = append(args, *filters.Status)
		argCounter++
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	limit, offset := pageOffset(filters.Page, filters.PageSize)
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY p.created_at DESC, p.id DESC LIMIT $%d OFFSET $%d", argCounter, argCounter+1))
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying payments: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	payments := []models.Payment{}
	totalCount := 0
	for rows.Next() {
		var p models.Payment
		var restaurantName sql.NullString
		if err := scanPayment(rows, &p, &restaurantName, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning payment: %v", ErrDatabaseError, err)
		}
		if restaurantName.Valid {
			name := restaurantName.String
			p.RestaurantName = &name
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating payment rows: %v", ErrDatabaseError, err)
	}
	return payments, totalCount, nil
}

// MarkProcessed persists the verification or rejection of a pending payment.
func (r *paymentRepository) MarkProcessed(ctx context.Context, executor SQLExecutor, payment *models.Payment) error {
	executor = orDB(executor, r.db)
	query := `UPDATE payments
	          SET status = $1, rejection_reason = $2, processed_by = $3, processed_at = $4, updated_at = $5
	          WHERE id = $6 AND status = 'pending'`
	payment.UpdatedAt = time.Now()
	result, err := executor.ExecContext(ctx, query,
		payment.Status, payment.RejectionReason, payment.ProcessedBy, payment.ProcessedAt, payment.UpdatedAt, payment.ID)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("processing payment %d", payment.ID))
	}
	return requireOneRow(result, fmt.Sprintf("pending payment %d", payment.ID))
}
