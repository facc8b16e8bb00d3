package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"qr_dine_backend/internal/models"

	"github.com/shopspring/decimal"
)

// BillingState is the set of columns rewritten when a restaurant is charged or credited.
type BillingState struct {
	Balance          decimal.Decimal
	Status           string
	OverdueSince     *time.Time
	CurrentPeriodEnd time.Time
}

// RestaurantRepository defines the interface for tenant storage.
type RestaurantRepository interface {
	CreateRestaurant(ctx context.Context, executor SQLExecutor, restaurant *models.Restaurant) (int64, error)
	GetRestaurantByID(ctx context.Context, restaurantID int64) (*models.Restaurant, error)
	// GetRestaurantForUpdate locks the row until the surrounding transaction ends.
	GetRestaurantForUpdate(ctx context.Context, executor SQLExecutor, restaurantID int64) (*models.Restaurant, error)
	ListRestaurants(ctx context.Context, filters models.RestaurantFilters) ([]models.Restaurant, int, error)
	ListDueRestaurantIDs(ctx context.Context, now time.Time, limit int) ([]int64, error)
	UpdateBillingState(ctx context.Context, executor SQLExecutor, restaurantID int64, state BillingState) error
	UpdatePlan(ctx context.Context, executor SQLExecutor, restaurantID, planID int64) error
	SetRestaurantActive(ctx context.Context, executor SQLExecutor, restaurantID int64, active bool) error
}

type restaurantRepository struct {
	db *sql.DB
}

// NewRestaurantRepository creates a new instance of RestaurantRepository.
func NewRestaurantRepository(db *sql.DB) RestaurantRepository {
	return &restaurantRepository{db: db}
}

const restaurantColumns = `id, name, slug, plan_id, balance, subscription_status, current_period_end,
	overdue_since, is_active, created_at, updated_at`

func scanRestaurant(s scanner, r *models.Restaurant, extra ...interface{}) error {
	dest := []interface{}{&r.ID, &r.Name, &r.Slug, &r.PlanID, &r.Balance, &r.SubscriptionStatus,
		&r.CurrentPeriodEnd, &r.OverdueSince, &r.IsActive, &r.CreatedAt, &r.UpdatedAt}
	return s.Scan(append(dest, extra...)...)
}

func (r *restaurantRepository) CreateRestaurant(ctx context.Context, executor SQLExecutor, restaurant *models.Restaurant) (int64, error) {
	executor = orDB(executor, r.db)
	query := `INSERT INTO restaurants
	            (name, slug, plan_id, balance, subscription_status, current_period_end, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	now := time.Now()
	restaurant.CreatedAt, restaurant.UpdatedAt = now, now

	err := executor.QueryRowContext(ctx, query,
		restaurant.Name, restaurant.Slug, restaurant.PlanID, restaurant.Balance, restaurant.SubscriptionStatus,
		restaurant.CurrentPeriodEnd, restaurant.IsActive, restaurant.CreatedAt, restaurant.UpdatedAt,
	).Scan(&restaurant.ID)
	if err != nil {
		return 0, wrapDBError(err, "creating restaurant")
	}
	return restaurant.ID, nil
}

func (r *restaurantRepository) GetRestaurantByID(ctx context.Context, restaurantID int64) (*models.Restaurant, error) {
	restaurant := &models.Restaurant{}
	query := `SELECT ` + restaurantColumns + ` FROM restaurants WHERE id = $1`
	if err := scanRestaurant(r.db.QueryRowContext(ctx, query, restaurantID), restaurant); err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("getting restaurant %d", restaurantID))
	}
	return restaurant, nil
}

func (r *restaurantRepository) GetRestaurantForUpdate(ctx context.Context, executor SQLExecutor, restaurantID int64) (*models.Restaurant, error) {
	executor = orDB(executor, r.db)
	restaurant := &models.Restaurant{}
	query := `SELECT ` + restaurantColumns + ` FROM restaurants WHERE id = $1 FOR UPDATE`
	if err := scanRestaurant(executor.QueryRowContext(ctx, query, restaurantID), restaurant); err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("locking restaurant %d", restaurantID))
	}
	return restaurant, nil
}

func (r *restaurantRepository) ListRestaurants(ctx context.Context, filters models.RestaurantFilters) ([]models.Restaurant, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + restaurantColumns + `, COUNT(*) OVER() AS total_count FROM restaurants`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("subscription_status = $%d", argCounter))
		args = append(args, *filters.Status)
		argCounter++
	}
	if filters.Search != nil && strings.TrimSpace(*filters.Search) != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR slug ILIKE $%d)", argCounter, argCounter))
		args = append(args, "%"+strings.TrimSpace(*filters.Search)+"%")
		argCounter++
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	limit, offset := pageOffset(filters.Page, filters.PageSize)
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY id LIMIT $%d OFFSET $%d", argCounter, argCounter+1))
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying restaurants: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	restaurants := []models.Restaurant{}
	totalCount := 0
	for rows.Next() {
		var rest models.Restaurant
		if err := scanRestaurant(rows, &rest, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning restaurant: %v", ErrDatabaseError, err)
		}
		restaurants = append(restaurants, rest)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating restaurant rows: %v", ErrDatabaseError, err)
	}
	return restaurants, totalCount, nil
}

func (r *restaurantRepository) ListDueRestaurantIDs(ctx context.Context, now time.Time, limit int) ([]int64, error) {
	query := `SELECT id FROM restaurants
	          WHERE current_period_end <= $1 AND subscription_status <> 'cancelled' AND is_active
	          ORDER BY current_period_end, id
	          LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: querying due restaurants: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scanning due restaurant id: %v", ErrDatabaseError, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating due restaurants: %v", ErrDatabaseError, err)
	}
	return ids, nil
}

func (r *restaurantRepository) UpdateBillingState(ctx context.Context, executor SQLExecutor, restaurantID int64, state BillingState) error {
	executor = orDB(executor, r.db)
	query := `UPDATE restaurants
	          SET balance = $1, subscription_status = $2, overdue_since = $3, current_period_end = $4, updated_at = $5
	          WHERE id = $6`
	result, err := executor.ExecContext(ctx, query,
		state.Balance, state.Status, state.OverdueSince, state.CurrentPeriodEnd, time.Now(), restaurantID)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("updating billing state of restaurant %d", restaurantID))
	}
	return requireOneRow(result, fmt.Sprintf("restaurant %d billing state", restaurantID))
}

func (r *restaurantRepository) UpdatePlan(ctx context.Context, executor SQLExecutor, restaurantID, planID int64) error {
	executor = orDB(executor, r.db)
	result, err := executor.ExecContext(ctx, `UPDATE restaurants SET plan_id = $1, updated_at = $2 WHERE id = $3`,
		planID, time.Now(), restaurantID)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("updating plan of restaurant %d", restaurantID))
	}
	return requireOneRow(result, fmt.Sprintf("restaurant %d plan", restaurantID))
}

func (r *restaurantRepository) SetRestaurantActive(ctx context.Context, executor SQLExecutor, restaurantID int64, active bool) error {
	executor = orDB(executor, r.db)
	result, err := executor.ExecContext(ctx, `UPDATE restaurants SET is_active = $1, updated_at = $2 WHERE id = $3`,
		active, time.Now(), restaurantID)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("updating restaurant %d", restaurantID))
	}
	return requireOneRow(result, fmt.Sprintf("restaurant %d", restaurantID))
}
