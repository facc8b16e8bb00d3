package services

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"time"

	"qr_dine_backend/internal/models"
	"qr_dine_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

// fakeStore is an in-memory stand-in for every repository plus the
// transaction manager. WithTx restores the previous state when fn fails.
type fakeStore struct {
	nextID int64

	users       map[int64]models.User
	hashes      map[int64]string
	restaurants map[int64]models.Restaurant
	plans       map[int64]models.Plan
	tables      map[int64]models.DiningTable
	qrs         map[int64]models.QRCode
	menu        map[int64]models.MenuItem
	orders      map[int64]models.Order
	orderItems  map[int64][]models.OrderItem
	payments    map[int64]models.Payment
	ledger      []models.BalanceTransaction
	changes     []models.SubscriptionChange

	// fail makes the named method return the error.
	fail map[string]error
	// locks counts GetRestaurantForUpdate / GetPaymentForUpdate calls.
	locks int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       map[int64]models.User{},
		hashes:      map[int64]string{},
		restaurants: map[int64]models.Restaurant{},
		plans:       map[int64]models.Plan{},
		tables:      map[int64]models.DiningTable{},
		qrs:         map[int64]models.QRCode{},
		menu:        map[int64]models.MenuItem{},
		orders:      map[int64]models.Order{},
		orderItems:  map[int64][]models.OrderItem{},
		payments:    map[int64]models.Payment{},
		fail:        map[string]error{},
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) err(method string) error {
	return f.fail[method]
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	saved := *f
	saved.users = maps.Clone(f.users)
	saved.hashes = maps.Clone(f.hashes)
	saved.restaurants = maps.Clone(f.restaurants)
	saved.plans = maps.Clone(f.plans)
	saved.tables = maps.Clone(f.tables)
	saved.qrs = maps.Clone(f.qrs)
	saved.menu = maps.Clone(f.menu)
	saved.orders = maps.Clone(f.orders)
	saved.orderItems = maps.Clone(f.orderItems)
	saved.payments = maps.Clone(f.payments)
	saved.ledger = slices.Clone(f.ledger)
	saved.changes = slices.Clone(f.changes)

	if err := fn(nil); err != nil {
		locks := f.locks
		*f = saved
		f.locks = locks
		return err
	}
	return nil
}

// --- seeding helpers ---

func (f *fakeStore) addPlan(name, price string, days, maxTables int) models.Plan {
	p := models.Plan{ID: f.id(), Name: name, Price: decimal.RequireFromString(price), DurationDays: days,
		MaxTables: maxTables, Features: []string{}, IsActive: true}
	f.plans[p.ID] = p
	return p
}

func (f *fakeStore) addRestaurant(planID int64, balance string, periodEnd time.Time) models.Restaurant {
	r := models.Restaurant{ID: f.id(), Name: "Cafe", Slug: "cafe", PlanID: planID,
		Balance: decimal.RequireFromString(balance), SubscriptionStatus: models.SubscriptionActive,
		CurrentPeriodEnd: periodEnd, IsActive: true}
	f.restaurants[r.ID] = r
	return r
}

func (f *fakeStore) addTable(restaurantID int64, label string) models.DiningTable {
	t := models.DiningTable{ID: f.id(), RestaurantID: restaurantID, Label: label, Seats: 4, IsActive: true}
	f.tables[t.ID] = t
	return t
}

func (f *fakeStore) addMenuItem(restaurantID int64, category, name, price string, available bool) models.MenuItem {
	m := models.MenuItem{ID: f.id(), RestaurantID: restaurantID, Category: category, Name: name,
		Price: decimal.RequireFromString(price), IsAvailable: available}
	f.menu[m.ID] = m
	return m
}

func (f *fakeStore) restaurant(id int64) models.Restaurant {
	return f.restaurants[id]
}

// --- AuthRepository ---

func (f *fakeStore) CreateUser(_ context.Context, _ repositories.SQLExecutor, user *models.User, hash string) (int64, error) {
	if err := f.err("CreateUser"); err != nil {
		return 0, err
	}
	for _, u := range f.users {
		if u.Username == user.Username {
			return 0, repositories.ErrDuplicateKey
		}
	}
	user.ID = f.id()
	user.IsActive = true
	f.users[user.ID] = *user
	f.hashes[user.ID] = hash
	return user.ID, nil
}

func (f *fakeStore) FindUserByUsername(_ context.Context, username string) (*models.User, string, error) {
	if err := f.err("FindUserByUsername"); err != nil {
		return nil, "", err
	}
	for _, u := range f.users {
		if u.Username == username {
			return &u, f.hashes[u.ID], nil
		}
	}
	return nil, "", repositories.ErrNotFound
}

func (f *fakeStore) FindUserByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

// --- PlanRepository ---

func (f *fakeStore) CreatePlan(_ context.Context, _ repositories.SQLExecutor, plan *models.Plan) (int64, error) {
	for _, p := range f.plans {
		if p.Name == plan.Name {
			return 0, repositories.ErrDuplicateKey
		}
	}
	plan.ID = f.id()
	f.plans[plan.ID] = *plan
	return plan.ID, nil
}

func (f *fakeStore) GetPlanByID(_ context.Context, _ repositories.SQLExecutor, id int64) (*models.Plan, error) {
	p, ok := f.plans[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &p, nil
}

func (f *fakeStore) ListPlans(_ context.Context, activeOnly bool) ([]models.Plan, error) {
	var out []models.Plan
	for _, p := range f.plans {
		if !activeOnly || p.IsActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) SetPlanActive(_ context.Context, _ repositories.SQLExecutor, id int64, active bool) error {
	p, ok := f.plans[id]
	if !ok {
		return repositories.ErrNotFound
	}
	p.IsActive = active
	f.plans[id] = p
	return nil
}

// --- RestaurantRepository ---

func (f *fakeStore) CreateRestaurant(_ context.Context, _ repositories.SQLExecutor, r *models.Restaurant) (int64, error) {
	for _, existing := range f.restaurants {
		if existing.Slug == r.Slug {
			return 0, repositories.ErrDuplicateKey
		}
	}
	r.ID = f.id()
	f.restaurants[r.ID] = *r
	return r.ID, nil
}

func (f *fakeStore) GetRestaurantByID(_ context.Context, id int64) (*models.Restaurant, error) {
	r, ok := f.restaurants[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &r, nil
}

func (f *fakeStore) GetRestaurantForUpdate(ctx context.Context, _ repositories.SQLExecutor, id int64) (*models.Restaurant, error) {
	if err := f.err("GetRestaurantForUpdate"); err != nil {
		return nil, err
	}
	f.locks++
	return f.GetRestaurantByID(ctx, id)
}

func (f *fakeStore) ListRestaurants(_ context.Context, filters models.RestaurantFilters) ([]models.Restaurant, int, error) {
	var out []models.Restaurant
	for _, r := range f.restaurants {
		if filters.Status != nil && r.SubscriptionStatus != *filters.Status {
			continue
		}
		if filters.Search != nil && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(*filters.Search)) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeStore) ListDueRestaurantIDs(_ context.Context, now time.Time, limit int) ([]int64, error) {
	if err := f.err("ListDueRestaurantIDs"); err != nil {
		return nil, err
	}
	var ids []int64
	for _, r := range f.restaurants {
		if r.SubscriptionStatus != models.SubscriptionCancelled && !r.CurrentPeriodEnd.After(now) {
			ids = append(ids, r.ID)
		}
	}
	slices.Sort(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (f *fakeStore) UpdateBillingState(_ context.Context, _ repositories.SQLExecutor, id int64, state repositories.BillingState) error {
	if err := f.err("UpdateBillingState"); err != nil {
		return err
	}
	r, ok := f.restaurants[id]
	if !ok {
		return repositories.ErrNotFound
	}
	r.Balance = state.Balance
	r.SubscriptionStatus = state.Status
	r.OverdueSince = state.OverdueSince
	r.CurrentPeriodEnd = state.CurrentPeriodEnd
	f.restaurants[id] = r
	return nil
}

func (f *fakeStore) UpdatePlan(_ context.Context, _ repositories.SQLExecutor, id, planID int64) error {
	r, ok := f.restaurants[id]
	if !ok {
		return repositories.ErrNotFound
	}
	r.PlanID = planID
	f.restaurants[id] = r
	return nil
}

func (f *fakeStore) SetRestaurantActive(_ context.Context, _ repositories.SQLExecutor, id int64, active bool) error {
	r, ok := f.restaurants[id]
	if !ok {
		return repositories.ErrNotFound
	}
	r.IsActive = active
	f.restaurants[id] = r
	return nil
}

// --- LedgerRepository ---

func (f *fakeStore) CreateTransaction(_ context.Context, _ repositories.SQLExecutor, tx *models.BalanceTransaction) (int64, error) {
	if err := f.err("CreateTransaction"); err != nil {
		return 0, err
	}
	tx.ID = f.id()
	f.ledger = append(f.ledger, *tx)
	return tx.ID, nil
}

func (f *fakeStore) ListTransactions(_ context.Context, restaurantID int64, _, _ int) ([]models.BalanceTransaction, int, error) {
	var out []models.BalanceTransaction
	for _, tx := range f.ledger {
		if tx.RestaurantID == restaurantID {
			out = append(out, tx)
		}
	}
	return out, len(out), nil
}

func (f *fakeStore) CreateSubscriptionChange(_ context.Context, _ repositories.SQLExecutor, c *models.SubscriptionChange) (int64, error) {
	c.ID = f.id()
	f.changes = append(f.changes, *c)
	return c.ID, nil
}

func (f *fakeStore) ListSubscriptionChanges(_ context.Context, restaurantID int64) ([]models.SubscriptionChange, error) {
	var out []models.SubscriptionChange
	for _, c := range f.changes {
		if c.RestaurantID == restaurantID {
			out = append(out, c)
		}
	}
	return out, nil
}

// lastBalanceAfter is the balance_after of the newest ledger row of a restaurant.
func (f *fakeStore) lastBalanceAfter(restaurantID int64) (decimal.Decimal, bool) {
	for i := len(f.ledger) - 1; i >= 0; i-- {
		if f.ledger[i].RestaurantID == restaurantID {
			return f.ledger[i].BalanceAfter, true
		}
	}
	return decimal.Zero, false
}

// --- PaymentRepository ---

func (f *fakeStore) CreatePayment(_ context.Context, _ repositories.SQLExecutor, p *models.Payment) (int64, error) {
	p.ID = f.id()
	f.payments[p.ID] = *p
	return p.ID, nil
}

func (f *fakeStore) GetPaymentByID(_ context.Context, id int64) (*models.Payment, error) {
	p, ok := f.payments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &p, nil
}

func (f *fakeStore) GetPaymentForUpdate(ctx context.Context, _ repositories.SQLExecutor, id int64) (*models.Payment, error) {
	f.locks++
	return f.GetPaymentByID(ctx, id)
}

func (f *fakeStore) ListPayments(_ context.Context, filters models.PaymentFilters) ([]models.Payment, int, error) {
	var out []models.Payment
	for _, p := range f.payments {
		if filters.RestaurantID != nil && p.RestaurantID != *filters.RestaurantID {
			continue
		}
		if filters.Status != nil && p.Status != *filters.Status {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (f *fakeStore) MarkProcessed(_ context.Context, _ repositories.SQLExecutor, p *models.Payment) error {
	existing, ok := f.payments[p.ID]
	if !ok || existing.Status != models.PaymentPending {
		return repositories.ErrNotFound
	}
	f.payments[p.ID] = *p
	return nil
}

// --- TableRepository ---

func (f *fakeStore) CreateTable(_ context.Context, _ repositories.SQLExecutor, t *models.DiningTable) (int64, error) {
	if t.Seats <= 0 {
		return 0, repositories.ErrCheckViolation
	}
	for _, existing := range f.tables {
		if existing.RestaurantID == t.RestaurantID && existing.Label == t.Label {
			return 0, repositories.ErrDuplicateKey
		}
	}
	t.ID = f.id()
	f.tables[t.ID] = *t
	return t.ID, nil
}

func (f *fakeStore) GetTableByID(_ context.Context, _ repositories.SQLExecutor, id int64) (*models.DiningTable, error) {
	t, ok := f.tables[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &t, nil
}

func (f *fakeStore) ListTables(_ context.Context, restaurantID int64) ([]models.DiningTable, error) {
	var out []models.DiningTable
	for _, t := range f.tables {
		if t.RestaurantID == restaurantID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) CountActiveTables(_ context.Context, _ repositories.SQLExecutor, restaurantID int64) (int, error) {
	n := 0
	for _, t := range f.tables {
		if t.RestaurantID == restaurantID && t.IsActive {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) SetTableActive(_ context.Context, _ repositories.SQLExecutor, restaurantID, tableID int64, active bool) error {
	t, ok := f.tables[tableID]
	if !ok || t.RestaurantID != restaurantID {
		return repositories.ErrNotFound
	}
	t.IsActive = active
	f.tables[tableID] = t
	return nil
}

// --- QRCodeRepository ---

func (f *fakeStore) CreateQRCode(_ context.Context, _ repositories.SQLExecutor, qr *models.QRCode) (int64, error) {
	qr.ID = f.id()
	f.qrs[qr.ID] = *qr
	return qr.ID, nil
}

func (f *fakeStore) GetQRCodeByCode(_ context.Context, code string) (*models.QRCode, error) {
	for _, qr := range f.qrs {
		if qr.Code == code {
			return &qr, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeStore) GetActiveQRCodeForTable(_ context.Context, tableID int64) (*models.QRCode, error) {
	for _, qr := range f.qrs {
		if qr.TableID == tableID && qr.IsActive {
			return &qr, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeStore) DeactivateQRCodesForTable(_ context.Context, _ repositories.SQLExecutor, tableID int64) (int64, error) {
	var n int64
	for id, qr := range f.qrs {
		if qr.TableID == tableID && qr.IsActive {
			qr.IsActive = false
			f.qrs[id] = qr
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) DeactivateQRCode(_ context.Context, _ repositories.SQLExecutor, restaurantID, qrID int64) error {
	qr, ok := f.qrs[qrID]
	if !ok || qr.RestaurantID != restaurantID {
		return repositories.ErrNotFound
	}
	qr.IsActive = false
	f.qrs[qrID] = qr
	return nil
}

func (f *fakeStore) RecordScan(_ context.Context, qrID int64, at time.Time) error {
	if err := f.err("RecordScan"); err != nil {
		return err
	}
	qr, ok := f.qrs[qrID]
	if !ok {
		return repositories.ErrNotFound
	}
	qr.ScanCount++
	qr.LastScannedAt = &at
	f.qrs[qrID] = qr
	return nil
}

// --- MenuRepository ---

func (f *fakeStore) CreateMenuItem(_ context.Context, _ repositories.SQLExecutor, item *models.MenuItem) (int64, error) {
	item.ID = f.id()
	f.menu[item.ID] = *item
	return item.ID, nil
}

func (f *fakeStore) GetMenuItemByID(_ context.Context, restaurantID, itemID int64) (*models.MenuItem, error) {
	m, ok := f.menu[itemID]
	if !ok || m.RestaurantID != restaurantID {
		return nil, repositories.ErrNotFound
	}
	return &m, nil
}

func (f *fakeStore) ListMenuItems(_ context.Context, restaurantID int64, availableOnly bool) ([]models.MenuItem, error) {
	var out []models.MenuItem
	for _, m := range f.menu {
		if m.RestaurantID == restaurantID && (!availableOnly || m.IsAvailable) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (f *fakeStore) GetMenuItemsByIDs(_ context.Context, _ repositories.SQLExecutor, restaurantID int64, ids []int64) (map[int64]models.MenuItem, error) {
	out := make(map[int64]models.MenuItem)
	for _, id := range ids {
		if m, ok := f.menu[id]; ok && m.RestaurantID == restaurantID {
			out[id] = m
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateMenuItem(_ context.Context, _ repositories.SQLExecutor, item *models.MenuItem) error {
	existing, ok := f.menu[item.ID]
	if !ok || existing.RestaurantID != item.RestaurantID {
		return repositories.ErrNotFound
	}
	f.menu[item.ID] = *item
	return nil
}

func (f *fakeStore) DeleteMenuItem(_ context.Context, _ repositories.SQLExecutor, restaurantID, itemID int64) error {
	m, ok := f.menu[itemID]
	if !ok || m.RestaurantID != restaurantID {
		return repositories.ErrNotFound
	}
	for _, items := range f.orderItems {
		for _, it := range items {
			if it.MenuItemID == itemID {
				return repositories.ErrForeignKey
			}
		}
	}
	delete(f.menu, itemID)
	return nil
}

// --- OrderRepository ---

func (f *fakeStore) CreateOrder(_ context.Context, _ repositories.SQLExecutor, o *models.Order) (int64, error) {
	o.ID = f.id()
	stored := *o
	stored.Items = nil
	f.orders[o.ID] = stored
	return o.ID, nil
}

func (f *fakeStore) GetOrderByID(_ context.Context, _ repositories.SQLExecutor, id int64) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &o, nil
}

func (f *fakeStore) GetOrderByTrackingCode(_ context.Context, code string) (*models.Order, error) {
	for _, o := range f.orders {
		if o.TrackingCode == code {
			return &o, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeStore) GetOrders(_ context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	var out []models.Order
	for _, o := range f.orders {
		if o.RestaurantID != filters.RestaurantID {
			continue
		}
		if filters.Status != nil && o.Status != *filters.Status {
			continue
		}
		out = append(out, o)
	}
	return out, len(out), nil
}

func (f *fakeStore) UpdateOrderStatus(_ context.Context, _ repositories.SQLExecutor, id int64, from, to string, at time.Time) error {
	o, ok := f.orders[id]
	if !ok || o.Status != from {
		return repositories.ErrNotFound
	}
	o.Status = to
	o.UpdatedAt = at
	f.orders[id] = o
	return nil
}

func (f *fakeStore) CreateOrderItem(_ context.Context, _ repositories.SQLExecutor, item *models.OrderItem) (int64, error) {
	item.ID = f.id()
	f.orderItems[item.OrderID] = append(f.orderItems[item.OrderID], *item)
	return item.ID, nil
}

func (f *fakeStore) GetOrderItemsByOrderID(_ context.Context, orderID int64) ([]models.OrderItem, error) {
	return slices.Clone(f.orderItems[orderID]), nil
}

// Compile-time checks that the fake covers every repository.
var (
	_ repositories.AuthRepository       = (*fakeStore)(nil)
	_ repositories.PlanRepository       = (*fakeStore)(nil)
	_ repositories.RestaurantRepository = (*fakeStore)(nil)
	_ repositories.LedgerRepository     = (*fakeStore)(nil)
	_ repositories.PaymentRepository    = (*fakeStore)(nil)
	_ repositories.TableRepository      = (*fakeStore)(nil)
	_ repositories.QRCodeRepository     = (*fakeStore)(nil)
	_ repositories.MenuRepository       = (*fakeStore)(nil)
	_ repositories.OrderRepository      = (*fakeStore)(nil)
	_ repositories.TxManager            = (*fakeStore)(nil)
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
