package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"qr_dine_backend/internal/billing"
	"qr_dine_backend/internal/models"
	"qr_dine_backend/internal/repositories"
	"qr_dine_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

var (
	ErrSlugTaken         = errors.New("restaurant slug already taken")
	ErrTableNotFound     = errors.New("table not found")
	ErrTableLabelTaken   = errors.New("table label already used in this restaurant")
	ErrTableLimitReached = errors.New("plan table limit reached")
)

// CreateRestaurantRequest onboards a new tenant.
type CreateRestaurantRequest struct {
	Name   string `json:"name" binding:"required"`
	Slug   string `json:"slug" binding:"required"`
	PlanID int64  `json:"plan_id" binding:"required,gt=0"`
}

// defaultTableSeats matches the dining_tables.seats column default.
const defaultTableSeats = 4

// CreateTableRequest adds a table to the vendor's restaurant. Zero seats means
// the default.
type CreateTableRequest struct {
	Label string `json:"label" binding:"required"`
	Seats int    `json:"seats" binding:"omitempty,gte=0"`
}

// SetActiveRequest toggles is_active on a resource.
type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// RestaurantService covers tenant onboarding and table management.
type RestaurantService interface {
	CreateRestaurant(ctx context.Context, req CreateRestaurantRequest) (*models.Restaurant, error)
	GetRestaurant(ctx context.Context, restaurantID int64) (*models.Restaurant, error)
	ListRestaurants(ctx context.Context, filters models.RestaurantFilters) ([]models.Restaurant, int, error)
	SetRestaurantActive(ctx context.Context, restaurantID int64, active bool) error

	CreateTable(ctx context.Context, restaurantID int64, req CreateTableRequest) (*models.DiningTable, error)
	ListTables(ctx context.Context, restaurantID int64) ([]models.DiningTable, error)
	SetTableActive(ctx context.Context, restaurantID, tableID int64, active bool) error
}

type restaurantService struct {
	restaurantRepo repositories.RestaurantRepository
	planRepo       repositories.PlanRepository
	tableRepo      repositories.TableRepository
	qrRepo         repositories.QRCodeRepository
	txm            repositories.TxManager
	now            func() time.Time
}

// NewRestaurantService creates a new instance of RestaurantService.
func NewRestaurantService(
	rr repositories.RestaurantRepository,
	pr repositories.PlanRepository,
	tr repositories.TableRepository,
	qr repositories.QRCodeRepository,
	txm repositories.TxManager,
) RestaurantService {
	return &restaurantService{
		restaurantRepo: rr,
		planRepo:       pr,
		tableRepo:      tr,
		qrRepo:         qr,
		txm:            txm,
		now:            time.Now,
	}
}

func (s *restaurantService) CreateRestaurant(ctx context.Context, req CreateRestaurantRequest) (*models.Restaurant, error) {
	name := strings.TrimSpace(req.Name)
	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if name == "" {
		return nil, fmt.Errorf("%w: restaurant name cannot be empty", ErrValidation)
	}
	if !utils.IsValidSlug(slug) {
		return nil, fmt.Errorf("%w: slug must be lowercase letters, digits and dashes", ErrValidation)
	}

	plan, err := s.planRepo.GetPlanByID(ctx, nil, req.PlanID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to get plan %d: %w", req.PlanID, err)
	}
	if !plan.IsActive {
		return nil, ErrPlanNotFound
	}

	restaurant := &models.Restaurant{
		Name:               name,
		Slug:               slug,
		PlanID:             plan.ID,
		Balance:            decimal.Zero,
		SubscriptionStatus: models.SubscriptionActive,
		CurrentPeriodEnd:   billing.AdvancePeriod(s.now(), plan.DurationDays),
		IsActive:           true,
	}
	if _, err := s.restaurantRepo.CreateRestaurant(ctx, nil, restaurant); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("failed to create restaurant: %w", err)
	}
	restaurant.Plan = plan
	utils.LogInfo("Restaurant onboarded", map[string]interface{}{
		"restaurant_id": restaurant.ID, "slug": restaurant.Slug, "plan_id": plan.ID,
	})
	return restaurant, nil
}

func (s *restaurantService) GetRestaurant(ctx context.Context, restaurantID int64) (*models.Restaurant, error) {
	restaurant, err := s.restaurantRepo.GetRestaurantByID(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, fmt.Errorf("failed to get restaurant %d: %w", restaurantID, err)
	}
	if plan, err := s.planRepo.GetPlanByID(ctx, nil, restaurant.PlanID); err == nil {
		restaurant.Plan = plan
	}
	return restaurant, nil
}

func (s *restaurantService) ListRestaurants(ctx context.Context, filters models.RestaurantFilters) ([]models.Restaurant, int, error) {
	restaurants, total, err := s.restaurantRepo.ListRestaurants(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list restaurants: %w", err)
	}
	return restaurants, total, nil
}

func (s *restaurantService) SetRestaurantActive(ctx context.Context, restaurantID int64, active bool) error {
	if err := s.restaurantRepo.SetRestaurantActive(ctx, nil, restaurantID, active); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrRestaurantNotFound
		}
		return fmt.Errorf("failed to update restaurant %d: %w", restaurantID, err)
	}
	return nil
}

// CreateTable adds a table while holding the restaurant row lock, so two
// concurrent requests cannot both squeeze under the plan's table limit.
func (s *restaurantService) CreateTable(ctx context.Context, restaurantID int64, req CreateTableRequest) (*models.DiningTable, error) {
	label := strings.TrimSpace(req.Label)
	if label == "" {
		return nil, fmt.Errorf("%w: table label cannot be empty", ErrValidation)
	}
	seats := req.Seats
	switch {
	case seats < 0:
		return nil, fmt.Errorf("%w: seats cannot be negative", ErrValidation)
	case seats == 0:
		seats = defaultTableSeats
	}

	table := &models.DiningTable{RestaurantID: restaurantID, Label: label, Seats: seats, IsActive: true}
	err := s.txm.WithTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.checkTableLimit(ctx, exec, restaurantID); err != nil {
			return err
		}
		if _, err := s.tableRepo.CreateTable(ctx, exec, table); err != nil {
			switch {
			case errors.Is(err, repositories.ErrDuplicateKey):
				return ErrTableLabelTaken
			case errors.Is(err, repositories.ErrCheckViolation):
				return fmt.Errorf("%w: %v", ErrValidation, err)
			}
			return fmt.Errorf("failed to create table: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return table, nil
}

func (s *restaurantService) checkTableLimit(ctx context.Context, exec repositories.SQLExecutor, restaurantID int64) error {
	restaurant, err := s.restaurantRepo.GetRestaurantForUpdate(ctx, exec, restaurantID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrRestaurantNotFound
		}
		return fmt.Errorf("failed to lock restaurant %d: %w", restaurantID, err)
	}
	plan, err := s.planRepo.GetPlanByID(ctx, exec, restaurant.PlanID)
	if err != nil {
		return fmt.Errorf("failed to get plan %d: %w", restaurant.PlanID, err)
	}
	active, err := s.tableRepo.CountActiveTables(ctx, exec, restaurantID)
	if err != nil {
		return fmt.Errorf("failed to count tables: %w", err)
	}
	if active >= plan.MaxTables {
		return fmt.Errorf("%w: %s allows %d active tables", ErrTableLimitReached, plan.Name, plan.MaxTables)
	}
	return nil
}

func (s *restaurantService) ListTables(ctx context.Context, restaurantID int64) ([]models.DiningTable, error) {
	tables, err := s.tableRepo.ListTables(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return tables, nil
}

// SetTableActive toggles a table. Deactivating also retires its QR codes;
// reactivating counts against the plan's table limit again.
func (s *restaurantService) SetTableActive(ctx context.Context, restaurantID, tableID int64, active bool) error {
	return s.txm.WithTx(ctx, func(exec repositories.SQLExecutor) error {
		table, err := s.tableRepo.GetTableByID(ctx, exec, tableID)
		if err != nil || table.RestaurantID != restaurantID {
			if err == nil || errors.Is(err, repositories.ErrNotFound) {
				return ErrTableNotFound
			}
			return fmt.Errorf("failed to get table %d: %w", tableID, err)
		}
		if table.IsActive == active {
			return nil
		}
		if active {
			if err := s.checkTableLimit(ctx, exec, restaurantID); err != nil {
				return err
			}
		}
		if err := s.tableRepo.SetTableActive(ctx, exec, restaurantID, tableID, active); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrTableNotFound
			}
			return fmt.Errorf("failed to update table %d: %w", tableID, err)
		}
		if !active {
			if _, err := s.qrRepo.DeactivateQRCodesForTable(ctx, exec, tableID); err != nil {
				return fmt.Errorf("failed to deactivate QR codes for table %d: %w", tableID, err)
			}
		}
		return nil
	})
}
