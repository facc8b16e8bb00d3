package services

import (
	"context"
	"testing"

	"qr_dine_backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderFixture struct {
	*scanFixture
	orders *orderService
	menu   *menuService
	token  string
	burger models.MenuItem
	soda   models.MenuItem
	sold   models.MenuItem
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	sf := newScanFixture(t)
	fx := &orderFixture{
		scanFixture: sf,
		orders:      NewOrderService(sf.store, sf.store, sf.qr, sf.store).(*orderService),
		menu:        NewMenuService(sf.store, sf.qr).(*menuService),
		burger:      sf.store.addMenuItem(sf.restaurant.ID, "Mains", "Burger", "12.50", true),
		soda:        sf.store.addMenuItem(sf.restaurant.ID, "Drinks", "Soda", "2.00", true),
		sold:        sf.store.addMenuItem(sf.restaurant.ID, "Mains", "Special", "30", false),
	}
	fx.token = sf.scan(t).Session.Token
	return fx
}

func TestPlaceOrderMergesLinesAndSnapshotsPrices(t *testing.T) {
	fx := newOrderFixture(t)

	order, err := fx.orders.PlaceOrder(context.Background(), fx.token, CreateOrderRequest{
		CustomerName: " Ana ",
		Items: []CreateOrderItemRequest{
			{MenuItemID: fx.burger.ID, Quantity: 2, Notes: "no onions"},
			{MenuItemID: fx.soda.ID, Quantity: 3},
			{MenuItemID: fx.burger.ID, Quantity: 1, Notes: "well done"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, fx.table.ID, order.TableID)
	_, err = uuid.Parse(order.TrackingCode)
	assert.NoError(t, err)
	assert.True(t, dec("43.50").Equal(order.TotalAmount), "total %s", order.TotalAmount)
	require.NotNil(t, order.CustomerName)
	assert.Equal(t, "Ana", *order.CustomerName)

	require.Len(t, order.Items, 2)
	assert.Equal(t, fx.burger.ID, order.Items[0].MenuItemID)
	assert.Equal(t, 3, order.Items[0].Quantity)
	assert.True(t, dec("37.50").Equal(order.Items[0].TotalPrice))
	assert.Equal(t, "no onions; well done", *order.Items[0].Notes)
	assert.Equal(t, "Burger", order.Items[0].ItemName)

	// Later price changes do not touch the placed order.
	b := fx.store.menu[fx.burger.ID]
	b.Price = dec("99")
	fx.store.menu[b.ID] = b
	tracked, err := fx.orders.GetOrderByTrackingCode(context.Background(), order.TrackingCode)
	require.NoError(t, err)
	assert.True(t, dec("12.50").Equal(tracked.Items[0].UnitPrice))
}

func TestPlaceOrderRejectsUnavailableItems(t *testing.T) {
	fx := newOrderFixture(t)
	foreign := fx.store.addMenuItem(fx.restaurant.ID+1000, "Mains", "Elsewhere", "5", true)

	for _, id := range []int64{fx.sold.ID, foreign.ID, 987654} {
		_, err := fx.orders.PlaceOrder(context.Background(), fx.token, CreateOrderRequest{
			Items: []CreateOrderItemRequest{{MenuItemID: fx.burger.ID, Quantity: 1}, {MenuItemID: id, Quantity: 1}},
		})
		assert.ErrorIs(t, err, ErrMenuItemUnavailable)
	}
	assert.Empty(t, fx.store.orders, "failed orders leave nothing behind")
	assert.Empty(t, fx.store.orderItems)
}

func TestPlaceOrderValidation(t *testing.T) {
	fx := newOrderFixture(t)
	line := func(qty int) CreateOrderItemRequest { return CreateOrderItemRequest{MenuItemID: fx.burger.ID, Quantity: qty} }

	tooMany := make([]CreateOrderItemRequest, MaxOrderLines+1)
	for i := range tooMany {
		tooMany[i] = line(1)
	}

	cases := map[string][]CreateOrderItemRequest{
		"empty":           nil,
		"too many lines":  tooMany,
		"zero quantity":   {line(0)},
		"over max":        {line(MaxLineQuantity + 1)},
		"merged overflow": {line(60), line(40)},
	}
	for name, items := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := fx.orders.PlaceOrder(context.Background(), fx.token, CreateOrderRequest{Items: items})
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	_, err := fx.orders.PlaceOrder(context.Background(), "bogus", CreateOrderRequest{Items: []CreateOrderItemRequest{line(1)}})
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestPlaceOrderRequiresActiveTable(t *testing.T) {
	fx := newOrderFixture(t)
	tbl := fx.store.tables[fx.table.ID]
	tbl.IsActive = false
	fx.store.tables[tbl.ID] = tbl

	_, err := fx.orders.PlaceOrder(context.Background(), fx.token, CreateOrderRequest{
		Items: []CreateOrderItemRequest{{MenuItemID: fx.burger.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrTableInactive)
}

func TestOrderStatusLifecycle(t *testing.T) {
	fx := newOrderFixture(t)
	ctx := context.Background()
	order, err := fx.orders.PlaceOrder(ctx, fx.token, CreateOrderRequest{
		Items: []CreateOrderItemRequest{{MenuItemID: fx.soda.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	rid := fx.restaurant.ID

	_, err = fx.orders.UpdateOrderStatus(ctx, rid, order.ID, UpdateOrderStatusRequest{Status: "paid"})
	assert.ErrorIs(t, err, ErrInvalidOrderStatus)
	_, err = fx.orders.UpdateOrderStatus(ctx, rid, order.ID, UpdateOrderStatusRequest{Status: "ready"})
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	_, err = fx.orders.UpdateOrderStatus(ctx, rid+1, order.ID, UpdateOrderStatusRequest{Status: "confirmed"})
	assert.ErrorIs(t, err, ErrOrderNotFound)

	for _, next := range []string{"confirmed", "preparing", "ready", "served", "completed"} {
		updated, err := fx.orders.UpdateOrderStatus(ctx, rid, order.ID, UpdateOrderStatusRequest{Status: next})
		require.NoError(t, err, next)
		assert.Equal(t, next, updated.Status)
	}

	_, err = fx.orders.UpdateOrderStatus(ctx, rid, order.ID, UpdateOrderStatusRequest{Status: "cancelled"})
	assert.ErrorIs(t, err, ErrInvalidStatusTransition, "completed is terminal")
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{models.OrderPending, models.OrderConfirmed, true},
		{models.OrderPending, models.OrderCancelled, true},
		{models.OrderConfirmed, models.OrderCancelled, true},
		{models.OrderPreparing, models.OrderCancelled, false},
		{models.OrderPending, models.OrderPreparing, false},
		{models.OrderServed, models.OrderCompleted, true},
		{models.OrderCancelled, models.OrderPending, false},
		{models.OrderCompleted, models.OrderServed, false},
		{"unknown", models.OrderPending, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, canTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestGetOrderByTrackingCodeUnknown(t *testing.T) {
	fx := newOrderFixture(t)
	_, err := fx.orders.GetOrderByTrackingCode(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrOrderNotFound)
	_, err = fx.orders.GetOrderByTrackingCode(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestMenuForSessionGroupsAvailableItems(t *testing.T) {
	fx := newOrderFixture(t)
	fx.store.addMenuItem(fx.restaurant.ID, "Drinks", "Água", "1.50", true)

	menu, err := fx.menu.GetMenuForSession(context.Background(), fx.token)
	require.NoError(t, err)
	assert.Equal(t, "T1", menu.TableLabel)
	require.Len(t, menu.Categories, 2)
	assert.Equal(t, "Drinks", menu.Categories[0].Name)
	assert.Len(t, menu.Categories[0].Items, 2)
	assert.Equal(t, "Mains", menu.Categories[1].Name)
	require.Len(t, menu.Categories[1].Items, 1, "unavailable items are hidden")
	assert.Equal(t, "Burger", menu.Categories[1].Items[0].Name)

	_, err = fx.menu.GetMenuForSession(context.Background(), "expired")
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestMenuItemCRUD(t *testing.T) {
	fx := newOrderFixture(t)
	ctx := context.Background()
	rid := fx.restaurant.ID

	_, err := fx.menu.CreateMenuItem(ctx, rid, CreateMenuItemRequest{Name: "Tea", Price: dec("0")})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = fx.menu.CreateMenuItem(ctx, rid, CreateMenuItemRequest{Name: " ", Price: dec("1")})
	assert.ErrorIs(t, err, ErrValidation)

	tea, err := fx.menu.CreateMenuItem(ctx, rid, CreateMenuItemRequest{Name: "Tea", Price: dec("1.20")})
	require.NoError(t, err)
	assert.Equal(t, defaultMenuCategory, tea.Category)
	assert.True(t, tea.IsAvailable)

	off := false
	price := dec("1.40")
	updated, err := fx.menu.UpdateMenuItem(ctx, rid, tea.ID, UpdateMenuItemRequest{IsAvailable: &off, Price: &price})
	require.NoError(t, err)
	assert.False(t, updated.IsAvailable)
	assert.True(t, price.Equal(updated.Price))
	assert.Equal(t, "Tea", updated.Name)

	_, err = fx.menu.UpdateMenuItem(ctx, rid+1, tea.ID, UpdateMenuItemRequest{IsAvailable: &off})
	assert.ErrorIs(t, err, ErrMenuItemNotFound)

	require.NoError(t, fx.menu.DeleteMenuItem(ctx, rid, tea.ID))
	assert.ErrorIs(t, fx.menu.DeleteMenuItem(ctx, rid, tea.ID), ErrMenuItemNotFound)

	_, err = fx.orders.PlaceOrder(ctx, fx.token, CreateOrderRequest{
		Items: []CreateOrderItemRequest{{MenuItemID: fx.burger.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.ErrorIs(t, fx.menu.DeleteMenuItem(ctx, rid, fx.burger.ID), ErrMenuItemInUse)
}
