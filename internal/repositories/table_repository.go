package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"qr_dine_backend/internal/models"
)

// TableRepository defines the interface for dining table storage.
type TableRepository interface {
	CreateTable(ctx context.Context, executor SQLExecutor, table *models.DiningTable) (int64, error)
	GetTableByID(ctx context.Context, executor SQLExecutor, tableID int64) (*models.DiningTable, error)
	ListTables(ctx context.Context, restaurantID int64) ([]models.DiningTable, error)
	CountActiveTables(ctx context.Context, executor SQLExecutor, restaurantID int64) (int, error)
	SetTableActive(ctx context.Context, executor SQLExecutor, restaurantID, tableID int64, active bool) error
}

type tableRepository struct {
	db *sql.DB
}

// NewTableRepository creates a new instance of TableRepository.
func NewTableRepository(db *sql.DB) TableRepository {
	return &tableRepository{db: db}
}

func (r *tableRepository) CreateTable(ctx context.Context, executor SQLExecutor, table *models.DiningTable) (int64, error) {
	executor = orDB(executor, r.db)
	query := `INSERT INTO dining_tables (restaurant_id, label, seats, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	now := time.Now()
	table.CreatedAt, table.UpdatedAt = now, now
	err := executor.QueryRowContext(ctx, query,
		table.RestaurantID, table.Label, table.Seats, table.IsActive, table.CreatedAt, table.UpdatedAt,
	).Scan(&table.ID)
	if err != nil {
		return 0, wrapDBError(err, "creating dining table")
	}
	return table.ID, nil
}

func (r *tableRepository) GetTableByID(ctx context.Context, executor SQLExecutor, tableID int64) (*models.DiningTable, error) {
	if executor == nil {
		executor = r.db
	}
	t := &models.DiningTable{}
	query := `SELECT id, restaurant_id, label, seats, is_active, created_at, updated_at
	          FROM dining_tables WHERE id = $1`
	err := executor.QueryRowContext(ctx, query, tableID).Scan(
		&t.ID, &t.RestaurantID, &t.Label, &t.Seats, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("getting dining table %d", tableID))
	}
	return t, nil
}

func (r *tableRepository) ListTables(ctx context.Context, restaurantID int64) ([]models.DiningTable, error) {
	query := `SELECT id, restaurant_id, label, seats, is_active, created_at, updated_at
	          FROM dining_tables WHERE restaurant_id = $1
	          ORDER BY label`
	rows, err := r.db.QueryContext(ctx, query, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying dining tables: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	tables := []models.DiningTable{}
	for rows.Next() {
		var t models.DiningTable
		if err := rows.Scan(&t.ID, &t.RestaurantID, &t.Label, &t.Seats, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning dining table: %v", ErrDatabaseError, err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating dining tables: %v", ErrDatabaseError, err)
	}
	return tables, nil
}

func (r *tableRepository) CountActiveTables(ctx context.Context, executor SQLExecutor, restaurantID int64) (int, error) {
	executor = orDB(executor, r.db)
	var n int
	err := executor.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM dining_tables WHERE restaurant_id = $1 AND is_active`, restaurantID).Scan(&n)
	if err != nil {
		return 0, wrapDBError(err, "counting dining tables")
	}
	return n, nil
}

func (r *tableRepository) SetTableActive(ctx context.Context, executor SQLExecutor, restaurantID, tableID int64, active bool) error {
	executor = orDB(executor, r.db)
	result, err := executor.ExecContext(ctx,
		`UPDATE dining_tables SET is_active = $1, updated_at = $2 WHERE id = $3 AND restaurant_id = $4`,
		active, time.Now(), tableID, restaurantID)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("updating dining table %d", tableID))
	}
	return requireOneRow(result, fmt.Sprintf("dining table %d", tableID))
}
