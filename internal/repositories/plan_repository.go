package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"qr_dine_backend/internal/models"

	"github.com/lib/pq"
)

// PlanRepository defines the interface for subscription plan storage.
type PlanRepository interface {
	CreatePlan(ctx context.Context, executor SQLExecutor, plan *models.Plan) (int64, error)
	GetPlanByID(ctx context.Context, executor SQLExecutor, planID int64) (*models.Plan, error)
	ListPlans(ctx context.Context, activeOnly bool) ([]models.Plan, error)
	SetPlanActive(ctx context.Context, executor SQLExecutor, planID int64, active bool) error
}

type planRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new instance of PlanRepository.
func NewPlanRepository(db *sql.DB) PlanRepository {
	return &planRepository{db: db}
}

const planColumns = `id, name, price, duration_days, max_tables, features, is_active, created_at, updated_at`

func scanPlan(s scanner, p *models.Plan) error {
	return s.Scan(&p.ID, &p.Name, &p.Price, &p.DurationDays, &p.MaxTables,
		pq.Array(&p.Features), &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
}

func (r *planRepository) CreatePlan(ctx context.Context, executor SQLExecutor, plan *models.Plan) (int64, error) {
	executor = orDB(executor, r.db)
	query := `INSERT INTO plans (name, price, duration_days, max_tables, features, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	now := time.Now()
	plan.CreatedAt, plan.UpdatedAt = now, now
	if plan.Features == nil {
		plan.Features = []string{}
	}

	err := executor.QueryRowContext(ctx, query,
		plan.Name, plan.Price, plan.DurationDays, plan.MaxTables, pq.Array(plan.Features), plan.IsActive,
		plan.CreatedAt, plan.UpdatedAt,
	).Scan(&plan.ID)
	if err != nil {
		return 0, wrapDBError(err, "creating plan")
	}
	return plan.ID, nil
}

func (r *planRepository) GetPlanByID(ctx context.Context, executor SQLExecutor, planID int64) (*models.Plan, error) {
	if executor == nil {
		executor = r.db
	}
	plan := &models.Plan{}
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = $1`
	if err := scanPlan(executor.QueryRowContext(ctx, query, planID), plan); err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("getting plan %d", planID))
	}
	return plan, nil
}

func (r *planRepository) ListPlans(ctx context.Context, activeOnly bool) ([]models.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY price, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying plans: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	plans := []models.Plan{}
	for rows.Next() {
		var p models.Plan
		if err := scanPlan(rows, &p); err != nil {
			return nil, fmt.Errorf("%w: scanning plan: %v", ErrDatabaseError, err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating plan rows: %v", ErrDatabaseError, err)
	}
	return plans, nil
}

func (r *planRepository) SetPlanActive(ctx context.Context, executor SQLExecutor, planID int64, active bool) error {
	executor = orDB(executor, r.db)
	result, err := executor.ExecContext(ctx, `UPDATE plans SET is_active = $1, updated_at = $2 WHERE id = $3`,
		active, time.Now(), planID)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("updating plan %d", planID))
	}
	return requireOneRow(result, fmt.Sprintf("plan %d", planID))
}
