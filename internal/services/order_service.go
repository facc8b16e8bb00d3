package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"qr_dine_backend/internal/models"
	"qr_dine_backend/internal/repositories"
	"qr_dine_backend/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound           = errors.New("order not found")
	ErrInvalidOrderStatus      = errors.New("invalid order status")
	ErrInvalidStatusTransition = errors.New("order status transition not allowed")
	ErrMenuItemUnavailable     = errors.New("menu item not found or not available")
)

// Order limits.
const (
	MaxOrderLines       = 50
	MaxLineQuantity     = 99
	maxCustomerNameLen  = 100
	maxOrderNotesLen    = 500
	maxOrderItemNoteLen = 200
)

// orderTransitions lists the statuses each status may move to. Completed and
// cancelled orders are final.
var orderTransitions = map[string][]string{
	models.OrderPending:   {models.OrderConfirmed, models.OrderCancelled},
	models.OrderConfirmed: {models.OrderPreparing, models.OrderCancelled},
	models.OrderPreparing: {models.OrderReady},
	models.OrderReady:     {models.OrderServed},
	models.OrderServed:    {models.OrderCompleted},
	models.OrderCompleted: {},
	models.OrderCancelled: {},
}

// --- Data Transfer Objects (DTOs) ---

// CreateOrderItemRequest is one line of a customer order.
type CreateOrderItemRequest struct {
	MenuItemID int64  `json:"menu_item_id" binding:"required,gt=0"`
	Quantity   int    `json:"quantity" binding:"required,gt=0"`
	Notes      string `json:"notes"`
}

// CreateOrderRequest is submitted by a customer holding a scan session.
type CreateOrderRequest struct {
	CustomerName string                   `json:"customer_name"`
	Notes        string                   `json:"notes"`
	Items        []CreateOrderItemRequest `json:"items" binding:"required,dive"`
}

// UpdateOrderStatusRequest is used for updating the status of an order.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// --- OrderService Interface ---
type OrderService interface {
	PlaceOrder(ctx context.Context, sessionToken string, req CreateOrderRequest) (*models.Order, error)
	GetOrderByTrackingCode(ctx context.Context, code string) (*models.Order, error)
	ListOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error)
	GetOrder(ctx context.Context, restaurantID, orderID int64) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, restaurantID, orderID int64, req UpdateOrderStatusRequest) (*models.Order, error)
}

// --- orderService Implementation ---
type orderService struct {
	orderRepo repositories.OrderRepository
	menuRepo  repositories.MenuRepository
	scans     QRService
	txm       repositories.TxManager
	now       func() time.Time
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(
	or repositories.OrderRepository,
	mr repositories.MenuRepository,
	scans QRService,
	txm repositories.TxManager,
) OrderService {
	return &orderService{
		orderRepo: or,
		menuRepo:  mr,
		scans:     scans,
		txm:       txm,
		now:       time.Now,
	}
}

// mergeOrderLines validates the requested lines and folds repeated menu items
// into one line, keeping the order in which items first appear.
func mergeOrderLines(lines []CreateOrderItemRequest) ([]CreateOrderItemRequest, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", ErrValidation)
	}
	if len(lines) > MaxOrderLines {
		return nil, fmt.Errorf("%w: order cannot contain more than %d lines", ErrValidation, MaxOrderLines)
	}

	merged := make([]CreateOrderItemRequest, 0, len(lines))
	index := make(map[int64]int, len(lines))
	for _, line := range lines {
		if line.MenuItemID <= 0 {
			return nil, fmt.Errorf("%w: invalid menu item id %d", ErrValidation, line.MenuItemID)
		}
		if line.Quantity < 1 || line.Quantity > MaxLineQuantity {
			return nil, fmt.Errorf("%w: quantity for item ID %d must be between 1 and %d", ErrValidation, line.MenuItemID, MaxLineQuantity)
		}
		if utf8.RuneCountInString(line.Notes) > maxOrderItemNoteLen {
			return nil, fmt.Errorf("%w: notes for item ID %d are too long", ErrValidation, line.MenuItemID)
		}
		i, seen := index[line.MenuItemID]
		if !seen {
			index[line.MenuItemID] = len(merged)
			line.Notes = strings.TrimSpace(line.Notes)
			merged = append(merged, line)
			continue
		}
		merged[i].Quantity += line.Quantity
		if merged[i].Quantity > MaxLineQuantity {
			return nil, fmt.Errorf("%w: quantity for item ID %d must be between 1 and %d", ErrValidation, line.MenuItemID, MaxLineQuantity)
		}
		if note := strings.TrimSpace(line.Notes); note != "" {
			if merged[i].Notes == "" {
				merged[i].Notes = note
			} else {
				merged[i].Notes += "; " + note
			}
		}
	}
	return merged, nil
}

func (s *orderService) PlaceOrder(ctx context.Context, sessionToken string, req CreateOrderRequest) (*models.Order, error) {
	lines, err := mergeOrderLines(req.Items)
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(req.CustomerName) > maxCustomerNameLen {
		return nil, fmt.Errorf("%w: customer name is too long", ErrValidation)
	}
	if utf8.RuneCountInString(req.Notes) > maxOrderNotesLen {
		return nil, fmt.Errorf("%w: notes are too long", ErrValidation)
	}

	sc, err := s.scans.ResolveSession(ctx, sessionToken)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.MenuItemID)
	}

	now := s.now()
	order := models.Order{
		RestaurantID: sc.Restaurant.ID,
		TableID:      sc.Table.ID,
		TrackingCode: uuid.NewString(),
		Status:       models.OrderPending,
		CustomerName: utils.NewNullString(req.CustomerName),
		Notes:        utils.NewNullString(req.Notes),
		TotalAmount:  decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.txm.WithTx(ctx, func(exec repositories.SQLExecutor) error {
		menu, err := s.menuRepo.GetMenuItemsByIDs(ctx, exec, sc.Restaurant.ID, ids)
		if err != nil {
			return fmt.Errorf("failed to fetch menu items: %w", err)
		}

		items := make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			menuItem, ok := menu[line.MenuItemID]
			if !ok || !menuItem.IsAvailable {
				return fmt.Errorf("%w: item ID %d", ErrMenuItemUnavailable, line.MenuItemID)
			}
			lineTotal := menuItem.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			order.TotalAmount = order.TotalAmount.Add(lineTotal)
			items = append(items, models.OrderItem{
				MenuItemID: menuItem.ID,
				ItemName:   menuItem.Name,
				Quantity:   line.Quantity,
				UnitPrice:  menuItem.Price,
				TotalPrice: lineTotal,
				Notes:      utils.NewNullString(line.Notes),
			})
		}

		if _, err := s.orderRepo.CreateOrder(ctx, exec, &order); err != nil {
			return fmt.Errorf("failed to create order record: %w", err)
		}
		for i := range items {
			items[i].OrderID = order.ID
			if _, err := s.orderRepo.CreateOrderItem(ctx, exec, &items[i]); err != nil {
				return fmt.Errorf("failed to create order item (menu_item_id: %d): %w", items[i].MenuItemID, err)
			}
		}
		order.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}

	label := sc.Table.Label
	order.TableLabel = &label
	utils.LogInfo("Order placed", map[string]interface{}{
		"order_id": order.ID, "restaurant_id": order.RestaurantID, "table_id": order.TableID,
		"lines": len(order.Items), "total": order.TotalAmount.StringFixed(2),
	})
	return &order, nil
}

// withItems attaches the order lines. A failure to load them is logged and the
// order header is still returned.
func (s *orderService) withItems(ctx context.Context, order *models.Order) *models.Order {
	items, err := s.orderRepo.GetOrderItemsByOrderID(ctx, order.ID)
	if err != nil {
		utils.LogWarn("Failed to get order items", map[string]interface{}{"order_id": order.ID, "error": err.Error()})
		return order
	}
	order.Items = items
	return order
}

func (s *orderService) GetOrderByTrackingCode(ctx context.Context, code string) (*models.Order, error) {
	if _, err := uuid.Parse(strings.TrimSpace(code)); err != nil {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetOrderByTrackingCode(ctx, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by tracking code: %w", err)
	}
	return s.withItems(ctx, order), nil
}

func (s *orderService) ListOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	if filters.Status != nil && !isValidOrderStatus(*filters.Status) {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidOrderStatus, *filters.Status)
	}
	orders, totalCount, err := s.orderRepo.GetOrders(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, totalCount, nil
}

func (s *orderService) GetOrder(ctx context.Context, restaurantID, orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, nil, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by ID from repository: %w", err)
	}
	if order.RestaurantID != restaurantID {
		return nil, ErrOrderNotFound
	}
	return s.withItems(ctx, order), nil
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, restaurantID, orderID int64, req UpdateOrderStatusRequest) (*models.Order, error) {
	next := strings.ToLower(strings.TrimSpace(req.Status))
	if !isValidOrderStatus(next) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidOrderStatus, req.Status)
	}

	current, err := s.orderRepo.GetOrderByID(ctx, nil, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to fetch order for status update: %w", err)
	}
	if current.RestaurantID != restaurantID {
		return nil, ErrOrderNotFound
	}
	if !canTransition(current.Status, next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, current.Status, next)
	}

	err = s.orderRepo.UpdateOrderStatus(ctx, nil, orderID, current.Status, next, s.now())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// The order moved on between our read and the update.
			return nil, fmt.Errorf("%w: order %d was updated concurrently", ErrInvalidStatusTransition, orderID)
		}
		return nil, fmt.Errorf("failed to update order status in repository: %w", err)
	}
	return s.GetOrder(ctx, restaurantID, orderID)
}

func canTransition(from, to string) bool {
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Helper function to validate order status
func isValidOrderStatus(status string) bool {
	_, ok := orderTransitions[status]
	return ok
}
