package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"qr_dine_backend/internal/models"

	"github.com/lib/pq"
)

// MenuRepository defines the interface for menu item storage.
type MenuRepository interface {
	CreateMenuItem(ctx context.Context, executor SQLExecutor, item *models.MenuItem) (int64, error)
	GetMenuItemByID(ctx context.Context, restaurantID, itemID int64) (*models.MenuItem, error)
	ListMenuItems(ctx context.Context, restaurantID int64, availableOnly bool) ([]models.MenuItem, error)
	GetMenuItemsByIDs(ctx context.Context, executor SQLExecutor, restaurantID int64, ids []int64) (map[int64]models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, executor SQLExecutor, item *models.MenuItem) error
	DeleteMenuItem(ctx context.Context, executor SQLExecutor, restaurantID, itemID int64) error
}

type menuRepository struct {
	db *sql.DB
}

// NewMenuRepository creates a new instance of MenuRepository.
func NewMenuRepository(db *sql.DB) MenuRepository {
	return &menuRepository{db: db}
}

const menuColumns = `id, restaurant_id, category, name, description, price, is_available, created_at, updated_at`

func scanMenuItem(s scanner, m *models.MenuItem) error {
	return s.Scan(&m.ID, &m.RestaurantID, &m.Category, &m.Name, &m.Description, &m.Price,
		&m.IsAvailable, &m.CreatedAt, &m.UpdatedAt)
}

func (r *menuRepository) CreateMenuItem(ctx context.Context, executor SQLExecutor, item *models.MenuItem) (int64, error) {
	executor = orDB(executor, r.db)
	query := `INSERT INTO menu_items (restaurant_id, category, name, description, price, is_available, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	now := time.Now()
	item.CreatedAt, item.UpdatedAt = now, now
	err := executor.QueryRowContext(ctx, query,
		item.RestaurantID, item.Category, item.Name, item.Description, item.Price, item.IsAvailable,
		item.CreatedAt, item.UpdatedAt,
	).Scan(&item.ID)
	if err != nil {
		return 0, wrapDBError(err, "creating menu item")
	}
	return item.ID, nil
}

func (r *menuRepository) GetMenuItemByID(ctx context.Context, restaurantID, itemID int64) (*models.MenuItem, error) {
	m := &models.MenuItem{}
	query := `SELECT ` + menuColumns + ` FROM menu_items WHERE id = $1 AND restaurant_id = $2`
	if err := scanMenuItem(r.db.QueryRowContext(ctx, query, itemID, restaurantID), m); err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("getting menu item %d", itemID))
	}
	return m, nil
}

func (r *menuRepository) ListMenuItems(ctx context.Context, restaurantID int64, availableOnly bool) ([]models.MenuItem, error) {
	query := `SELECT ` + menuColumns + ` FROM menu_items WHERE restaurant_id = $1`
	if availableOnly {
		query += ` AND is_available`
	}
	query += ` ORDER BY category, name, id`

	rows, err := r.db.QueryContext(ctx, query, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying menu items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	items := []models.MenuItem{}
	for rows.Next() {
		var m models.MenuItem
		if err := scanMenuItem(rows, &m); err != nil {
			return nil, fmt.Errorf("%w: scanning menu item: %v", ErrDatabaseError, err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating menu items: %v", ErrDatabaseError, err)
	}
	return items, nil
}

// GetMenuItemsByIDs loads the given items of one restaurant. Missing ids are
// simply absent from the returned map.
func (r *menuRepository) GetMenuItemsByIDs(ctx context.Context, executor SQLExecutor, restaurantID int64, ids []int64) (map[int64]models.MenuItem, error) {
	if executor == nil {
		executor = r.db
	}
	out := make(map[int64]models.MenuItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query := `SELECT ` + menuColumns + ` FROM menu_items WHERE restaurant_id = $1 AND id = ANY($2)`
	rows, err := executor.QueryContext(ctx, query, restaurantID, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("%w: querying menu items by id: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.MenuItem
		if err := scanMenuItem(rows, &m); err != nil {
			return nil, fmt.Errorf("%w: scanning menu item: %v", ErrDatabaseError, err)
		}
		out[m.ID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating menu items: %v", ErrDatabaseError, err)
	}
	return out, nil
}

func (r *menuRepository) UpdateMenuItem(ctx context.Context, executor SQLExecutor, item *models.MenuItem) error {
	executor = orDB(executor, r.db)
	query := `UPDATE menu_items
	          SET category = $1, name = $2, description = $3, price = $4, is_available = $5, updated_at = $6
	          WHERE id = $7 AND restaurant_id = $8`
	item.UpdatedAt = time.Now()
	result, err := executor.ExecContext(ctx, query,
		item.Category, item.Name, item.Description, item.Price, item.IsAvailable, item.UpdatedAt,
		item.ID, item.RestaurantID)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("updating menu item %d", item.ID))
	}
	return requireOneRow(result, fmt.Sprintf("menu item %d", item.ID))
}

func (r *menuRepository) DeleteMenuItem(ctx context.Context, executor SQLExecutor, restaurantID, itemID int64) error {
	executor = orDB(executor, r.db)
	result, err := executor.ExecContext(ctx, `DELETE FROM menu_items WHERE id = $1 AND restaurant_id = $2`, itemID, restaurantID)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("deleting menu item %d", itemID))
	}
	return requireOneRow(result, fmt.Sprintf("menu item %d", itemID))
}
