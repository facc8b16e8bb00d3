package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"qr_dine_backend/internal/middleware"
	"qr_dine_backend/internal/models"
	"qr_dine_backend/internal/qrcode"
	"qr_dine_backend/internal/services"
	"qr_dine_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Stubs embed the service interface so unimplemented methods panic if hit.

type stubQR struct {
	services.QRService
	scanErr error
	png     []byte
	size    int
}

func (s *stubQR) ScanTable(_ context.Context, param string) (*services.ScanResult, error) {
	if s.scanErr != nil {
		return nil, s.scanErr
	}
	return &services.ScanResult{
		Session:        models.ScanSession{Token: "tok-" + param, RestaurantID: 7, TableID: 3},
		RestaurantName: "Blue Door",
		TableLabel:     "T3",
	}, nil
}

func (s *stubQR) RenderTableQRPNG(_ context.Context, _, _ int64, size int) ([]byte, error) {
	s.size = size
	return s.png, nil
}

type stubMenu struct {
	services.MenuService
	deleted []int64
}

func (s *stubMenu) GetMenuForSession(_ context.Context, token string) (*services.PublicMenu, error) {
	if token != "good" {
		return nil, services.ErrSessionInvalid
	}
	return &services.PublicMenu{RestaurantName: "Blue Door"}, nil
}

func (s *stubMenu) DeleteMenuItem(_ context.Context, restaurantID, itemID int64) error {
	if restaurantID != 7 {
		return services.ErrMenuItemNotFound
	}
	s.deleted = append(s.deleted, itemID)
	return nil
}

type stubOrders struct {
	services.OrderService
	placeErr error
	filters  models.OrderFilters
	lastReq  services.UpdateOrderStatusRequest
	updErr   error
}

func (s *stubOrders) PlaceOrder(_ context.Context, token string, req services.CreateOrderRequest) (*models.Order, error) {
	if s.placeErr != nil {
		return nil, s.placeErr
	}
	return &models.Order{ID: 1, TrackingCode: "trk-" + token, Status: models.OrderPending, TotalAmount: decimal.RequireFromString("9.50")}, nil
}

func (s *stubOrders) ListOrders(_ context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	s.filters = filters
	return nil, 0, nil
}

func (s *stubOrders) UpdateOrderStatus(_ context.Context, restaurantID, orderID int64, req services.UpdateOrderStatusRequest) (*models.Order, error) {
	s.lastReq = req
	if s.updErr != nil {
		return nil, s.updErr
	}
	return &models.Order{ID: orderID, RestaurantID: restaurantID, Status: req.Status}, nil
}

type stubSubscriptions struct {
	services.SubscriptionService
	upgradeErr error
	actor      *int64
}

func (s *stubSubscriptions) UpgradePlan(_ context.Context, restaurantID, newPlanID int64, actorUserID *int64) (*services.UpgradeResult, error) {
	s.actor = actorUserID
	if s.upgradeErr != nil {
		return nil, s.upgradeErr
	}
	return &services.UpgradeResult{Status: models.SubscriptionActive}, nil
}

func (s *stubSubscriptions) QuoteUpgrade(_ context.Context, restaurantID, newPlanID int64) (*services.UpgradeQuote, error) {
	return &services.UpgradeQuote{RestaurantID: restaurantID, Amount: decimal.RequireFromString("150.00"), Direction: services.QuoteCharge}, nil
}

type stubBilling struct {
	services.BillingService
	runAt time.Time
}

func (s *stubBilling) RunDueBilling(_ context.Context, now time.Time) (services.BillingRunSummary, error) {
	s.runAt = now
	return services.BillingRunSummary{Considered: 2, Charged: 1, Skipped: 1}, nil
}

type stubPayments struct {
	services.PaymentService
	verifyErr error
	verifier  int64
}

func (s *stubPayments) VerifyPayment(_ context.Context, paymentID, adminUserID int64) (*services.PaymentVerification, error) {
	s.verifier = adminUserID
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return &services.PaymentVerification{Payment: &models.Payment{ID: paymentID, Status: models.PaymentVerified}}, nil
}

// withIdentity stands in for the auth middleware.
func withIdentity(userID, restaurantID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		if restaurantID > 0 {
			c.Set(middleware.ContextRestaurantID, restaurantID)
		}
		c.Next()
	}
}

func newTestEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	return r
}

func perform(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error utils.APIError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Error.Code
}

func TestScanTable(t *testing.T) {
	cases := []struct {
		name   string
		query  string
		err    error
		status int
		code   string
	}{
		{"missing param", "", nil, http.StatusBadRequest, utils.ErrCodeBadRequest},
		{"malformed", "t=zzz", fmt.Errorf("%w: not base64url", qrcode.ErrInvalidTableParam), http.StatusBadRequest, utils.ErrCodeBadRequest},
		{"retired code", "t=abc", services.ErrQRCodeInactive, http.StatusGone, utils.ErrCodeGone},
		{"suspended restaurant", "t=abc", services.ErrRestaurantUnavailable, http.StatusForbidden, utils.ErrCodeForbidden},
		{"storage failure", "t=abc", errors.New("connection reset"), http.StatusInternalServerError, utils.ErrCodeInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewPublicHandler(&stubQR{scanErr: tc.err}, &stubMenu{}, &stubOrders{})
			r := newTestEngine()
			r.GET("/scan", h.ScanTable)

			w := perform(r, http.MethodGet, "/scan?"+tc.query, nil, nil)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, errorCode(t, w))
			assert.NotContains(t, w.Body.String(), "connection reset")
		})
	}

	h := NewPublicHandler(&stubQR{}, &stubMenu{}, &stubOrders{})
	r := newTestEngine()
	r.GET("/scan", h.ScanTable)
	w := perform(r, http.MethodGet, "/scan?t=abc", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"token":"tok-abc"`)
	assert.Contains(t, w.Body.String(), `"table_label":"T3"`)
}

func TestPublicMenuAndOrderRequireSession(t *testing.T) {
	orders := &stubOrders{}
	h := NewPublicHandler(&stubQR{}, &stubMenu{}, orders)
	r := newTestEngine()
	r.GET("/menu", h.GetMenu)
	r.POST("/orders", h.PlaceOrder)

	w := perform(r, http.MethodGet, "/menu", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = perform(r, http.MethodGet, "/menu", nil, map[string]string{ScanSessionHeader: "stale"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = perform(r, http.MethodGet, "/menu", nil, map[string]string{ScanSessionHeader: "good"})
	assert.Equal(t, http.StatusOK, w.Code)

	order := services.CreateOrderRequest{Items: []services.CreateOrderItemRequest{{MenuItemID: 1, Quantity: 2}}}
	w = perform(r, http.MethodPost, "/orders", order, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = perform(r, http.MethodPost, "/orders", order, map[string]string{ScanSessionHeader: "good"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"tracking_code":"trk-good"`)
	assert.Contains(t, w.Body.String(), `"total_amount":"9.5"`)

	orders.placeErr = services.ErrMenuItemUnavailable
	w = perform(r, http.MethodPost, "/orders", order, map[string]string{ScanSessionHeader: "good"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = perform(r, http.MethodPost, "/orders", map[string]interface{}{"items": []map[string]int{{"menu_item_id": 1, "quantity": 0}}},
		map[string]string{ScanSessionHeader: "good"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVendorOrderList(t *testing.T) {
	orders := &stubOrders{}
	h := NewOrderHandler(orders)
	r := newTestEngine(withIdentity(3, 7))
	r.GET("/orders", h.GetOrders)

	w := perform(r, http.MethodGet, "/orders?status=pending&table_id=4&date=2026-03-01&page=2&page_size=5", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[],"total":0,"page":2,"page_size":5}`, w.Body.String())
	assert.Equal(t, int64(7), orders.filters.RestaurantID)
	require.NotNil(t, orders.filters.TableID)
	assert.Equal(t, int64(4), *orders.filters.TableID)
	assert.Equal(t, "pending", *orders.filters.Status)

	for _, q := range []string{"date=01-03-2026", "table_id=x", "page=0", "page_size=500"} {
		w = perform(r, http.MethodGet, "/orders?"+q, nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestVendorRoutesNeedRestaurant(t *testing.T) {
	h := NewOrderHandler(&stubOrders{})
	r := newTestEngine(withIdentity(3, 0))
	r.GET("/orders", h.GetOrders)

	w := perform(r, http.MethodGet, "/orders", nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateOrderStatus(t *testing.T) {
	orders := &stubOrders{}
	h := NewOrderHandler(orders)
	r := newTestEngine(withIdentity(3, 7))
	r.PATCH("/orders/:id/status", h.UpdateOrderStatus)

	w := perform(r, http.MethodPatch, "/orders/12/status", map[string]string{"status": "confirmed"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "confirmed", orders.lastReq.Status)

	w = perform(r, http.MethodPatch, "/orders/abc/status", map[string]string{"status": "confirmed"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	orders.updErr = fmt.Errorf("%w: pending -> served", services.ErrInvalidStatusTransition)
	w = perform(r, http.MethodPatch, "/orders/12/status", map[string]string{"status": "served"}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	orders.updErr = services.ErrOrderNotFound
	w = perform(r, http.MethodPatch, "/orders/12/status", map[string]string{"status": "served"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpgradePlan(t *testing.T) {
	subs := &stubSubscriptions{}
	h := NewSubscriptionHandler(subs)
	r := newTestEngine(withIdentity(3, 7))
	r.POST("/upgrade", h.UpgradePlan)
	r.GET("/quote", h.QuoteUpgrade)

	w := perform(r, http.MethodPost, "/upgrade", map[string]int{"plan_id": 2}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, subs.actor)
	assert.Equal(t, int64(3), *subs.actor)

	subs.upgradeErr = services.ErrInsufficientBalance
	w = perform(r, http.MethodPost, "/upgrade", map[string]int{"plan_id": 2}, nil)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Equal(t, utils.ErrCodePaymentRequired, errorCode(t, w))

	subs.upgradeErr = services.ErrSamePlan
	w = perform(r, http.MethodPost, "/upgrade", map[string]int{"plan_id": 2}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = perform(r, http.MethodPost, "/upgrade", map[string]int{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(r, http.MethodGet, "/quote", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = perform(r, http.MethodGet, "/quote?plan_id=2", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"amount":"150"`)
	assert.Contains(t, w.Body.String(), `"direction":"charge"`)
}

func TestAdminPaymentAndBillingRun(t *testing.T) {
	billing := &stubBilling{}
	payments := &stubPayments{}
	h := NewBillingHandler(billing, payments)
	fixed := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return fixed }

	r := newTestEngine(withIdentity(1, 0))
	r.POST("/payments/:id/verify", h.VerifyPayment)
	r.POST("/billing/run", h.RunBilling)

	w := perform(r, http.MethodPost, "/payments/5/verify", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), payments.verifier)
	assert.Contains(t, w.Body.String(), `"status":"verified"`)

	payments.verifyErr = services.ErrPaymentAlreadyProcessed
	w = perform(r, http.MethodPost, "/payments/5/verify", nil, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = perform(r, http.MethodPost, "/billing/run", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, fixed, billing.runAt)
	assert.Contains(t, w.Body.String(), `"charged":1`)
}

func TestQRPNG(t *testing.T) {
	qr := &stubQR{png: []byte("\x89PNG")}
	h := NewTableHandler(nil, qr)
	r := newTestEngine(withIdentity(3, 7))
	r.GET("/tables/:id/qr.png", h.GetQRPNG)

	w := perform(r, http.MethodGet, "/tables/3/qr.png", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, defaultQRSize, qr.size)

	w = perform(r, http.MethodGet, "/tables/3/qr.png?size=512", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 512, qr.size)

	w = perform(r, http.MethodGet, "/tables/3/qr.png?size=5000", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteMenuItem(t *testing.T) {
	menu := &stubMenu{}
	h := NewMenuHandler(menu)
	r := newTestEngine(withIdentity(3, 7))
	r.DELETE("/menu-items/:id", h.DeleteMenuItem)

	w := perform(r, http.MethodDelete, "/menu-items/9", nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []int64{9}, menu.deleted)

	other := newTestEngine(withIdentity(3, 8))
	other.DELETE("/menu-items/:id", h.DeleteMenuItem)
	w = perform(other, http.MethodDelete, "/menu-items/9", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
