package router

import (
	"database/sql"

	"qr_dine_backend/internal/config"
	"qr_dine_backend/internal/handlers"
	"qr_dine_backend/internal/middleware"
	"qr_dine_backend/internal/models"
	"qr_dine_backend/internal/repositories"
	"qr_dine_backend/internal/services"
	"qr_dine_backend/internal/session"
	"qr_dine_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Services bundles everything the HTTP layer and background jobs call into.
type Services struct {
	Auth         services.AuthService
	Restaurant   services.RestaurantService
	Subscription services.SubscriptionService
	Billing      services.BillingService
	Payment      services.PaymentService
	QR           services.QRService
	Menu         services.MenuService
	Order        services.OrderService
}

// NewServices wires repositories into services over one connection pool.
func NewServices(db *sql.DB, cfg config.Config, sessions session.Store, tokens *utils.TokenIssuer) Services {
	// Initialize Repositories
	authRepo := repositories.NewAuthRepository(db)
	restaurantRepo := repositories.NewRestaurantRepository(db)
	planRepo := repositories.NewPlanRepository(db)
	ledgerRepo := repositories.NewLedgerRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	tableRepo := repositories.NewTableRepository(db)
	qrRepo := repositories.NewQRCodeRepository(db)
	menuRepo := repositories.NewMenuRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	txManager := repositories.NewTxManager(db)

	// Initialize Services
	qrService := services.NewQRService(qrRepo, tableRepo, restaurantRepo, sessions, txManager, cfg.PublicBaseURL, cfg.ScanSessionTTL)
	return Services{
		Auth:         services.NewAuthService(authRepo, restaurantRepo, tokens),
		Restaurant:   services.NewRestaurantService(restaurantRepo, planRepo, tableRepo, qrRepo, txManager),
		Subscription: services.NewSubscriptionService(planRepo, restaurantRepo, ledgerRepo, txManager, cfg.BillingGraceDays),
		Billing:      services.NewBillingService(restaurantRepo, planRepo, ledgerRepo, txManager, cfg.BillingGraceDays),
		Payment:      services.NewPaymentService(paymentRepo, restaurantRepo, ledgerRepo, txManager, cfg.BillingGraceDays),
		QR:           qrService,
		Menu:         services.NewMenuService(menuRepo, qrService),
		Order:        services.NewOrderService(orderRepo, menuRepo, qrService, txManager),
	}
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, svc Services, tokens middleware.TokenValidator) {
	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(svc.Auth)
	publicHandler := handlers.NewPublicHandler(svc.QR, svc.Menu, svc.Order)
	menuHandler := handlers.NewMenuHandler(svc.Menu)
	tableHandler := handlers.NewTableHandler(svc.Restaurant, svc.QR)
	orderHandler := handlers.NewOrderHandler(svc.Order)
	billingHandler := handlers.NewBillingHandler(svc.Billing, svc.Payment)
	subscriptionHandler := handlers.NewSubscriptionHandler(svc.Subscription)
	restaurantHandler := handlers.NewRestaurantHandler(svc.Restaurant)

	apiV1 := engine.Group("/api/v1")

	SetupAuthRoutes(apiV1, authHandler, tokens)
	SetupPublicRoutes(apiV1.Group("/public"), publicHandler)

	vendor := apiV1.Group("/vendor")
	vendor.Use(middleware.AuthMiddleware(tokens), middleware.RoleAuthMiddleware(models.RoleVendor), middleware.RestaurantScope())
	{
		SetupMenuRoutes(vendor, menuHandler)
		SetupTableRoutes(vendor, tableHandler)
		SetupOrderRoutes(vendor, orderHandler)
		SetupVendorBillingRoutes(vendor, billingHandler)
		SetupVendorSubscriptionRoutes(vendor, subscriptionHandler)
	}

	admin := apiV1.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokens), middleware.RoleAuthMiddleware(models.RoleAdmin))
	{
		SetupRestaurantRoutes(admin, restaurantHandler, authHandler, billingHandler)
		SetupPlanRoutes(admin, subscriptionHandler)
		SetupAdminBillingRoutes(admin, billingHandler)
	}
}
