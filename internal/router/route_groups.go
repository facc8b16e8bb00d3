package router

import (
	"qr_dine_backend/internal/handlers"
	"qr_dine_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes sets up the authentication routes.
func SetupAuthRoutes(apiGroup *gin.RouterGroup, authHandler *handlers.AuthHandler, tokens middleware.TokenValidator) {
	authRoutes := apiGroup.Group("/auth")
	{
		authRoutes.POST("/login", authHandler.LoginUser)

		authRequiredRoutes := authRoutes.Group("")
		authRequiredRoutes.Use(middleware.AuthMiddleware(tokens))
		{
			authRequiredRoutes.GET("/me", authHandler.GetCurrentUser)
		}
	}
}

// SetupPublicRoutes sets up the customer ordering flow. No login is involved;
// menu and order calls carry the scan session header instead.
func SetupPublicRoutes(publicGroup *gin.RouterGroup, publicHandler *handlers.PublicHandler) {
	publicGroup.GET("/scan", publicHandler.ScanTable)
	publicGroup.GET("/menu", publicHandler.GetMenu)
	publicGroup.POST("/orders", publicHandler.PlaceOrder)
	publicGroup.GET("/orders/:code", publicHandler.TrackOrder)
}

// SetupMenuRoutes sets up the vendor menu routes.
func SetupMenuRoutes(vendorGroup *gin.RouterGroup, menuHandler *handlers.MenuHandler) {
	menuRoutes := vendorGroup.Group("/menu-items")
	{
		menuRoutes.POST("", menuHandler.CreateMenuItem)
		menuRoutes.GET("", menuHandler.GetMenuItems)
		menuRoutes.PATCH("/:id", menuHandler.UpdateMenuItem)
		menuRoutes.DELETE("/:id", menuHandler.DeleteMenuItem)
	}
}

// SetupTableRoutes sets up the vendor table and QR code routes.
func SetupTableRoutes(vendorGroup *gin.RouterGroup, tableHandler *handlers.TableHandler) {
	tableRoutes := vendorGroup.Group("/tables")
	{
		tableRoutes.POST("", tableHandler.CreateTable)
		tableRoutes.GET("", tableHandler.GetTables)
		tableRoutes.PATCH("/:id/active", tableHandler.SetTableActive)
		tableRoutes.POST("/:id/qr", tableHandler.GenerateQR)
		tableRoutes.GET("/:id/qr", tableHandler.GetQR)
		tableRoutes.GET("/:id/qr.png", tableHandler.GetQRPNG)
	}
	vendorGroup.DELETE("/qr-codes/:id", tableHandler.DeactivateQR)
}

// SetupOrderRoutes sets up the vendor order routes.
func SetupOrderRoutes(vendorGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler) {
	orderRoutes := vendorGroup.Group("/orders")
	{
		orderRoutes.GET("", orderHandler.GetOrders)
		orderRoutes.GET("/:id", orderHandler.GetOrderByID)
		orderRoutes.PATCH("/:id/status", orderHandler.UpdateOrderStatus)
	}
}

// SetupVendorBillingRoutes sets up balance, ledger and payment routes for vendors.
func SetupVendorBillingRoutes(vendorGroup *gin.RouterGroup, billingHandler *handlers.BillingHandler) {
	billingRoutes := vendorGroup.Group("/billing")
	{
		billingRoutes.GET("/balance", billingHandler.GetBalance)
		billingRoutes.GET("/transactions", billingHandler.GetTransactions)
		billingRoutes.POST("/payments", billingHandler.SubmitPayment)
		billingRoutes.GET("/payments", billingHandler.GetVendorPayments)
	}
}

// SetupVendorSubscriptionRoutes sets up plan browsing and plan change routes.
func SetupVendorSubscriptionRoutes(vendorGroup *gin.RouterGroup, subscriptionHandler *handlers.SubscriptionHandler) {
	vendorGroup.GET("/plans", subscriptionHandler.GetActivePlans)
	subscriptionRoutes := vendorGroup.Group("/subscription")
	{
		subscriptionRoutes.GET("/quote", subscriptionHandler.QuoteUpgrade)
		subscriptionRoutes.POST("/upgrade", subscriptionHandler.UpgradePlan)
		subscriptionRoutes.GET("/changes", subscriptionHandler.GetSubscriptionChanges)
	}
}

// SetupRestaurantRoutes sets up admin tenant onboarding routes.
func SetupRestaurantRoutes(adminGroup *gin.RouterGroup, restaurantHandler *handlers.RestaurantHandler,
	authHandler *handlers.AuthHandler, billingHandler *handlers.BillingHandler) {
	restaurantRoutes := adminGroup.Group("/restaurants")
	{
		restaurantRoutes.POST("", restaurantHandler.CreateRestaurant)
		restaurantRoutes.GET("", restaurantHandler.GetRestaurants)
		restaurantRoutes.GET("/:id", restaurantHandler.GetRestaurantByID)
		restaurantRoutes.PATCH("/:id/active", restaurantHandler.SetRestaurantActive)
		restaurantRoutes.POST("/:id/vendors", authHandler.CreateVendorUser)
		restaurantRoutes.GET("/:id/balance", billingHandler.GetRestaurantBalance)
		restaurantRoutes.POST("/:id/adjustments", billingHandler.AdjustBalance)
	}
}

// SetupPlanRoutes sets up admin plan management routes.
func SetupPlanRoutes(adminGroup *gin.RouterGroup, subscriptionHandler *handlers.SubscriptionHandler) {
	planRoutes := adminGroup.Group("/plans")
	{
		planRoutes.POST("", subscriptionHandler.CreatePlan)
		planRoutes.GET("", subscriptionHandler.GetPlans)
		planRoutes.PATCH("/:id/active", subscriptionHandler.SetPlanActive)
	}
}

// SetupAdminBillingRoutes sets up payment review and manual billing routes.
func SetupAdminBillingRoutes(adminGroup *gin.RouterGroup, billingHandler *handlers.BillingHandler) {
	paymentRoutes := adminGroup.Group("/payments")
	{
		paymentRoutes.GET("", billingHandler.GetPayments)
		paymentRoutes.POST("/:id/verify", billingHandler.VerifyPayment)
		paymentRoutes.POST("/:id/reject", billingHandler.RejectPayment)
	}
	adminGroup.POST("/billing/run", billingHandler.RunBilling)
}
