package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"qr_dine_backend/internal/models"
	"qr_dine_backend/internal/repositories"
	"qr_dine_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

var (
	ErrMenuItemNotFound = errors.New("menu item not found")
	ErrMenuItemInUse    = errors.New("menu item is referenced by existing orders")
)

const defaultMenuCategory = "Other"

// CreateMenuItemRequest adds a dish to the vendor's menu.
type CreateMenuItemRequest struct {
	Category    string          `json:"category"`
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	IsAvailable *bool           `json:"is_available"`
}

// UpdateMenuItemRequest changes only the fields that are present.
type UpdateMenuItemRequest struct {
	Category    *string          `json:"category"`
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	IsAvailable *bool            `json:"is_available"`
}

// PublicMenu is the customer view of a restaurant's menu for one table.
type PublicMenu struct {
	RestaurantName string                `json:"restaurant_name"`
	TableLabel     string                `json:"table_label"`
	Categories     []models.MenuCategory `json:"categories"`
}

// MenuService manages menu items and serves the customer menu.
type MenuService interface {
	CreateMenuItem(ctx context.Context, restaurantID int64, req CreateMenuItemRequest) (*models.MenuItem, error)
	ListMenuItems(ctx context.Context, restaurantID int64) ([]models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, restaurantID, itemID int64, req UpdateMenuItemRequest) (*models.MenuItem, error)
	DeleteMenuItem(ctx context.Context, restaurantID, itemID int64) error
	GetMenuForSession(ctx context.Context, token string) (*PublicMenu, error)
}

type menuService struct {
	menuRepo repositories.MenuRepository
	scans    QRService
}

// NewMenuService creates a new instance of MenuService.
func NewMenuService(mr repositories.MenuRepository, scans QRService) MenuService {
	return &menuService{menuRepo: mr, scans: scans}
}

func validatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	if price.Exponent() < -2 {
		return fmt.Errorf("%w: price cannot have more than two decimal places", ErrValidation)
	}
	return nil
}

func normalizeCategory(category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return defaultMenuCategory
	}
	return category
}

func (s *menuService) CreateMenuItem(ctx context.Context, restaurantID int64, req CreateMenuItemRequest) (*models.MenuItem, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: item name cannot be empty", ErrValidation)
	}
	if err := validatePrice(req.Price); err != nil {
		return nil, err
	}
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	item := &models.MenuItem{
		RestaurantID: restaurantID,
		Category:     normalizeCategory(req.Category),
		Name:         name,
		Description:  utils.NewNullString(req.Description),
		Price:        req.Price,
		IsAvailable:  available,
	}
	if _, err := s.menuRepo.CreateMenuItem(ctx, nil, item); err != nil {
		return nil, fmt.Errorf("failed to create menu item: %w", err)
	}
	return item, nil
}

func (s *menuService) ListMenuItems(ctx context.Context, restaurantID int64) ([]models.MenuItem, error) {
	items, err := s.menuRepo.ListMenuItems(ctx, restaurantID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}
	return items, nil
}

func (s *menuService) UpdateMenuItem(ctx context.Context, restaurantID, itemID int64, req UpdateMenuItemRequest) (*models.MenuItem, error) {
	item, err := s.menuRepo.GetMenuItemByID(ctx, restaurantID, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("failed to get menu item %d: %w", itemID, err)
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: item name cannot be empty", ErrValidation)
		}
		item.Name = name
	}
	if req.Category != nil {
		item.Category = normalizeCategory(*req.Category)
	}
	if req.Description != nil {
		item.Description = utils.NewNullString(*req.Description)
	}
	if req.Price != nil {
		if err := validatePrice(*req.Price); err != nil {
			return nil, err
		}
		item.Price = *req.Price
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}

	if err := s.menuRepo.UpdateMenuItem(ctx, nil, item); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("failed to update menu item %d: %w", itemID, err)
	}
	return item, nil
}

// DeleteMenuItem removes an item that was never ordered. Items with order
// history should be marked unavailable instead.
func (s *menuService) DeleteMenuItem(ctx context.Context, restaurantID, itemID int64) error {
	err := s.menuRepo.DeleteMenuItem(ctx, nil, restaurantID, itemID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return ErrMenuItemNotFound
	case errors.Is(err, repositories.ErrForeignKey):
		return ErrMenuItemInUse
	default:
		return fmt.Errorf("failed to delete menu item %d: %w", itemID, err)
	}
}

// GetMenuForSession lists the available items of the scanned restaurant,
// grouped by category in the order categories first appear.
func (s *menuService) GetMenuForSession(ctx context.Context, token string) (*PublicMenu, error) {
	sc, err := s.scans.ResolveSession(ctx, token)
	if err != nil {
		return nil, err
	}
	items, err := s.menuRepo.ListMenuItems(ctx, sc.Restaurant.ID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}

	menu := &PublicMenu{
		RestaurantName: sc.Restaurant.Name,
		TableLabel:     sc.Table.Label,
		Categories:     []models.MenuCategory{},
	}
	index := make(map[string]int)
	for _, item := range items {
		i, ok := index[item.Category]
		if !ok {
			i = len(menu.Categories)
			index[item.Category] = i
			menu.Categories = append(menu.Categories, models.MenuCategory{Name: item.Category})
		}
		menu.Categories[i].Items = append(menu.Categories[i].Items, item)
	}
	return menu, nil
}
