package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"qr_dine_backend/internal/models"
)

// OrderRepository defines the interface for order-related database operations.
type OrderRepository interface {
	// Order methods
	CreateOrder(ctx context.Context, executor SQLExecutor, order *models.Order) (int64, error)
	GetOrderByID(ctx context.Context, executor SQLExecutor, orderID int64) (*models.Order, error)
	GetOrderByTrackingCode(ctx context.Context, code string) (*models.Order, error)
	GetOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error) // orders, total count, error
	// UpdateOrderStatus only applies when the order is still in fromStatus and
	// returns ErrNotFound otherwise.
	UpdateOrderStatus(ctx context.Context, executor SQLExecutor, orderID int64, fromStatus, newStatus string, updatedAt time.Time) error

	// OrderItem methods
	CreateOrderItem(ctx context.Context, executor SQLExecutor, item *models.OrderItem) (int64, error)
	GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `o.id, o.restaurant_id, o.table_id, o.tracking_code, o.status, o.customer_name, o.notes,
	o.total_amount, o.created_at, o.updated_at`

func scanOrder(s scanner, o *models.Order, extra ...interface{}) error {
	dest := []interface{}{&o.ID, &o.RestaurantID, &o.TableID, &o.TrackingCode, &o.Status, &o.CustomerName,
		&o.Notes, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt}
	return s.Scan(append(dest, extra...)...)
}

// --- Order Methods ---

func (r *orderRepository) CreateOrder(ctx context.Context, executor SQLExecutor, order *models.Order) (int64, error) {
	executor = orDB(executor, r.db)
	query := `INSERT INTO orders
	            (restaurant_id, table_id, tracking_code, status, customer_name, notes, total_amount, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = order.CreatedAt
	}

	err := executor.QueryRowContext(ctx, query,
		order.RestaurantID, order.TableID, order.TrackingCode, order.Status, order.CustomerName, order.Notes,
		order.TotalAmount, order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID)
	if err != nil {
		return 0, wrapDBError(err, "creating order")
	}
	return order.ID, nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, executor SQLExecutor, orderID int64) (*models.Order, error) {
	if executor == nil {
		executor = r.db
	}
	order := &models.Order{}
	var tableLabel sql.NullString
	query := `SELECT ` + orderColumns + `, dt.label
	          FROM orders o
	          LEFT JOIN dining_tables dt ON dt.id = o.table_id
	          WHERE o.id = $1`
	if err := scanOrder(executor.QueryRowContext(ctx, query, orderID), order, &tableLabel); err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("getting order by ID %d", orderID))
	}
	if tableLabel.Valid {
		label := tableLabel.String
		order.TableLabel = &label
	}
	return order, nil
}

func (r *orderRepository) GetOrderByTrackingCode(ctx context.Context, code string) (*models.Order, error) {
	order := &models.Order{}
	var tableLabel sql.NullString
	query := `SELECT ` + orderColumns + `, dt.label
	          FROM orders o
	          LEFT JOIN dining_tables dt ON dt.id = o.table_id
	          WHERE o.tracking_code = $1`
	if err := scanOrder(r.db.QueryRowContext(ctx, query, code), order, &tableLabel); err != nil {
		return nil, wrapDBError(err, "getting order by tracking code")
	}
	if tableLabel.Valid {
		label := tableLabel.String
		order.TableLabel = &label
	}
	return order, nil
}

func (r *orderRepository) GetOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	orders := []models.Order{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
        SELECT ` + orderColumns + `,
            dt.label AS table_label,
            COUNT(*) OVER() AS total_count
        FROM orders o
        LEFT JOIN dining_tables dt ON o.table_id = dt.id
    `)

	conditions := []string{"o.restaurant_id = $1"}
	args := []interface{}{filters.RestaurantID}
	argCounter := 2

	if filters.TableID != nil {
		conditions = append(conditions, fmt.Sprintf("o.table_id = $%d", argCounter))
		args = append(args, *filters.TableID)
		argCounter++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", argCounter))
		args = append(args, *filters.Status)
		argCounter++
	}
	if filters.Date != nil && *filters.Date != "" {
		parsedDate, err := time.Parse("2006-01-02", *filters.Date)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid date filter format: %s, expected YYYY-MM-DD", *filters.Date)
		}
		startOfDay := time.Date(parsedDate.Year(), parsedDate.Month(), parsedDate.Day(), 0, 0, 0, 0, parsedDate.Location())
		endOfDay := startOfDay.AddDate(0, 0, 1)
		conditions = append(conditions, fmt.Sprintf("o.created_at >= $%d AND o.created_at < $%d", argCounter, argCounter+1))
		args = append(args, startOfDay, endOfDay)
		argCounter += 2
	}

	queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	queryBuilder.WriteString(" ORDER BY o.created_at DESC, o.id DESC")

	limit, offset := pageOffset(filters.Page, filters.PageSize)
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCounter, argCounter+1))
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var o models.Order
		var tableLabel sql.NullString
		if err := scanOrder(rows, &o, &tableLabel, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}
		if tableLabel.Valid {
			label := tableLabel.String
			o.TableLabel = &label
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating order rows: %v", ErrDatabaseError, err)
	}
	return orders, totalCount, nil
}

func (r *orderRepository) UpdateOrderStatus(ctx context.Context, executor SQLExecutor, orderID int64, fromStatus, newStatus string, updatedAt time.Time) error {
	executor = orDB(executor, r.db)
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	result, err := executor.ExecContext(ctx, query, newStatus, updatedAt, orderID, fromStatus)
	if err != nil {
		return fmt.Errorf("%w: updating order status for ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return requireOneRow(result, fmt.Sprintf("order %d status update", orderID))
}

// --- OrderItem Methods ---

func (r *orderRepository) CreateOrderItem(ctx context.Context, executor SQLExecutor, item *models.OrderItem) (int64, error) {
	executor = orDB(executor, r.db)
	query := `INSERT INTO order_items
	            (order_id, menu_item_id, item_name, quantity, unit_price, total_price, notes)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	err := executor.QueryRowContext(ctx, query,
		item.OrderID, item.MenuItemID, item.ItemName, item.Quantity, item.UnitPrice, item.TotalPrice, item.Notes,
	).Scan(&item.ID)
	if err != nil {
		return 0, wrapDBError(err, "creating order item")
	}
	return item.ID, nil
}

func (r *orderRepository) GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	query := `
		SELECT id, order_id, menu_item_id, item_name, quantity, unit_price, total_price, notes
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying order items for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.MenuItemID, &item.ItemName, &item.Quantity,
			&item.UnitPrice, &item.TotalPrice, &item.Notes); err != nil {
			return nil, fmt.Errorf("%w: scanning order item for order ID %d: %v", ErrDatabaseError, orderID, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order item rows for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return items, nil
}
