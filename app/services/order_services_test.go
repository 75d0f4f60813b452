package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/farmchain/farmchain/app/models"
	"github.com/farmchain/farmchain/app/repositories"
	"github.com/farmchain/farmchain/app/requests"
	"github.com/farmchain/farmchain/app/services"
	"github.com/farmchain/farmchain/database/migrations"
	"github.com/farmchain/farmchain/pkg/apperr"
	"github.com/farmchain/farmchain/pkg/auth"
	"github.com/farmchain/farmchain/pkg/orm"
	"github.com/farmchain/farmchain/pkg/testkit"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvent struct {
	name    string
	payload interface{}
}

type fakeDispatcher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeDispatcher) FireAsync(_ context.Context, name string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{name, payload})
}

type fixture struct {
	db       *orm.Query
	users    *repositories.UserRepository
	products *repositories.GormProductRepository
	catalog  *services.CatalogService
	orders   *services.OrderService
	events   *fakeDispatcher

	farmer, otherFarmer, buyer, otherBuyer auth.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testkit.NewQuery(t, migrations.All())
	f := &fixture{
		db:       db,
		users:    repositories.NewUserRepository(db),
		products: repositories.NewProductRepository(db),
		events:   &fakeDispatcher{},
	}
	f.catalog = services.NewCatalogService(repositories.NewCategoryRepository(db), f.products, nil)
	f.orders = services.NewOrderService(db, repositories.NewOrderRepository(db), f.products, f.events)

	f.farmer = f.user(t, "ravi", auth.RoleFarmer)
	f.otherFarmer = f.user(t, "kiran", auth.RoleFarmer)
	f.buyer = f.user(t, "meera", auth.RoleBuyer)
	f.otherBuyer = f.user(t, "arjun", auth.RoleBuyer)
	return f
}

func (f *fixture) user(t *testing.T, username string, role auth.Role) auth.Identity {
	t.Helper()
	u := &models.User{Username: username, Password: "x", Email: username + "@example.test", Name: username, UserType: role}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u.Identity()
}

func (f *fixture) product(t *testing.T, owner auth.Identity, name, price, qty, unit string) *models.Product {
	t.Helper()
	p, err := f.catalog.CreateProduct(context.Background(), owner, requests.CreateProductRequest{
		Name:              name,
		Price:             decimal.RequireFromString(price),
		Unit:              unit,
		AvailableQuantity: decimal.RequireFromString(qty),
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) stock(t *testing.T, id uint) *models.Product {
	t.Helper()
	p, err := f.products.Find(context.Background(), id)
	require.NoError(t, err)
	return p
}

func line(id uint, qty string) requests.OrderLine {
	return requests.OrderLine{ProductID: id, Quantity: decimal.RequireFromString(qty)}
}

func placeReq(lines ...requests.OrderLine) requests.PlaceOrderRequest {
	return requests.PlaceOrderRequest{Items: lines}
}

func TestPlaceOrderLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tomatoes := f.product(t, f.farmer, "Tomatoes", "85", "50", "kg")
	mangoes := f.product(t, f.farmer, "Alphonso Mangoes", "450", "10", "dozen")

	placed, err := f.orders.Place(ctx, f.buyer, placeReq(line(tomatoes.ID, "3"), line(mangoes.ID, "1")))
	require.NoError(t, err)

	assert.True(t, placed.Order.TotalAmount.Equal(decimal.NewFromInt(705)), "total %s", placed.Order.TotalAmount)
	assert.Equal(t, models.StatusPending, placed.Order.Status)
	assert.Equal(t, models.PaymentPending, placed.Order.PaymentStatus)
	require.Len(t, placed.Items, 2)
	assert.True(t, placed.Items[0].PricePerUnit.Equal(decimal.NewFromInt(85)))
	assert.True(t, placed.Items[0].Total.Equal(decimal.NewFromInt(255)))

	assert.True(t, f.stock(t, tomatoes.ID).AvailableQuantity.Equal(decimal.NewFromInt(47)))
	assert.True(t, f.stock(t, mangoes.ID).AvailableQuantity.Equal(decimal.NewFromInt(9)))

	confirmed, err := f.orders.UpdateStatus(ctx, f.farmer, placed.Order.ID, "confirmed")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, confirmed.Status)

	_, err = f.orders.UpdateStatus(ctx, f.buyer, placed.Order.ID, "cancelled")
	require.ErrorIs(t, err, apperr.ErrAuthorization)
	assert.Equal(t, "Buyers can only cancel pending orders", err.(*apperr.Error).Message)

	f.events.mu.Lock()
	defer f.events.mu.Unlock()
	require.Len(t, f.events.events, 2)
	assert.Equal(t, "order.placed", f.events.events[0].name)
	assert.Equal(t, "order.status_changed", f.events.events[1].name)
}

func TestPlaceOrderSnapshotsPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, f.farmer, "Basmati Rice", "120", "100", "kg")

	placed, err := f.orders.Place(ctx, f.buyer, placeReq(line(p.ID, "2")))
	require.NoError(t, err)

	newPrice := decimal.NewFromInt(150)
	_, err = f.catalog.UpdateProduct(ctx, f.farmer, p.ID, requests.UpdateProductRequest{Price: &newPrice})
	require.NoError(t, err)

	got, err := f.orders.Get(ctx, f.buyer, placed.Order.ID)
	require.NoError(t, err)
	assert.True(t, got.Items[0].PricePerUnit.Equal(decimal.NewFromInt(120)))
	assert.True(t, got.Order.TotalAmount.Equal(decimal.NewFromInt(240)))
}

func TestFractionalQuantitiesKeepExactTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ghee := f.product(t, f.farmer, "Desi Ghee", "85.01", "10", "kg")
	turmeric := f.product(t, f.otherFarmer, "Turmeric", "12.35", "10", "kg")

	placed, err := f.orders.Place(ctx, f.buyer, placeReq(line(ghee.ID, "0.333"), line(turmeric.ID, "1.5")))
	require.NoError(t, err)

	got, err := f.orders.Get(ctx, f.buyer, placed.Order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)

	sum := decimal.Zero
	for _, it := range got.Items {
		assert.True(t, it.Total.Equal(it.PricePerUnit.Mul(it.Quantity)), "line %s x %s = %s", it.PricePerUnit, it.Quantity, it.Total)
		sum = sum.Add(it.Total)
	}
	assert.True(t, got.Items[0].Total.Equal(decimal.RequireFromString("28.30833")), "line total %s", got.Items[0].Total)
	assert.True(t, got.Order.TotalAmount.Equal(sum), "total %s, sum %s", got.Order.TotalAmount, sum)
	assert.True(t, got.Order.TotalAmount.Equal(decimal.RequireFromString("46.83333")), "total %s", got.Order.TotalAmount)
}

func TestQuantityBeyondThreePlacesIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ghee := f.product(t, f.farmer, "Desi Ghee", "85.01", "10", "kg")

	_, err := f.orders.Place(ctx, f.buyer, placeReq(line(ghee.ID, "0.3333")))
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, err.(*apperr.Error).Fields, "items[0].quantity")
	assert.True(t, f.stock(t, ghee.ID).AvailableQuantity.Equal(decimal.NewFromInt(10)))
}

func TestPlaceOrderIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	onions := f.product(t, f.farmer, "Onions", "30", "20", "kg")
	garlic := f.product(t, f.otherFarmer, "Garlic", "200", "1", "kg")

	_, err := f.orders.Place(ctx, f.buyer, placeReq(line(onions.ID, "5"), line(garlic.ID, "2")))
	require.ErrorIs(t, err, apperr.ErrAvailability)
	assert.Contains(t, err.Error(), "Insufficient stock for Garlic")

	assert.True(t, f.stock(t, onions.ID).AvailableQuantity.Equal(decimal.NewFromInt(20)), "first line must be rolled back")
	orders, err := f.orders.List(ctx, f.buyer)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Empty(t, f.events.events)
}

func TestPlaceOrderRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, f.farmer, "Wheat", "40", "10", "kg")

	_, err := f.orders.Place(ctx, f.farmer, placeReq(line(p.ID, "1")))
	assert.ErrorIs(t, err, apperr.ErrAuthorization, "farmers cannot buy")

	_, err = f.orders.Place(ctx, f.buyer, placeReq())
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.orders.Place(ctx, f.buyer, placeReq(line(9999, "1")))
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	hidden := false
	_, err = f.catalog.UpdateProduct(ctx, f.farmer, p.ID, requests.UpdateProductRequest{InStock: &hidden})
	require.NoError(t, err)
	_, err = f.orders.Place(ctx, f.buyer, placeReq(line(p.ID, "1")))
	require.ErrorIs(t, err, apperr.ErrAvailability)
	assert.Contains(t, err.Error(), "out of stock")
}

func TestRepeatedLinesShareStock(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, f.farmer, "Lentils", "90", "3", "kg")

	_, err := f.orders.Place(context.Background(), f.buyer, placeReq(line(p.ID, "2"), line(p.ID, "2")))
	require.ErrorIs(t, err, apperr.ErrAvailability)
	assert.True(t, f.stock(t, p.ID).AvailableQuantity.Equal(decimal.NewFromInt(3)))
}

func TestConcurrentOrdersNeverOversell(t *testing.T) {
	f := newFixture(t)
	p := f.product(t, f.farmer, "Last Jackfruit", "300", "1", "piece")

	const buyers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.orders.Place(context.Background(), f.buyer, placeReq(line(p.ID, "1")))
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, apperr.ErrAvailability)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	left := f.stock(t, p.ID)
	assert.True(t, left.AvailableQuantity.IsZero())
	assert.False(t, left.InStock)
}

func TestStatusTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, f.farmer, "Turmeric", "250", "10", "kg")

	place := func() uint {
		o, err := f.orders.Place(ctx, f.buyer, placeReq(line(p.ID, "1")))
		require.NoError(t, err)
		return o.Order.ID
	}

	id := place()
	for _, st := range []string{"confirmed", "shipped", "delivered"} {
		o, err := f.orders.UpdateStatus(ctx, f.farmer, id, st)
		require.NoError(t, err, st)
		assert.Equal(t, st, string(o.Status))
	}
	_, err := f.orders.UpdateStatus(ctx, f.farmer, id, "cancelled")
	assert.ErrorIs(t, err, apperr.ErrAuthorization, "delivered is terminal")

	id = place()
	_, err = f.orders.UpdateStatus(ctx, f.farmer, id, "shipped")
	assert.ErrorIs(t, err, apperr.ErrAuthorization, "cannot skip confirmed")

	_, err = f.orders.UpdateStatus(ctx, f.farmer, id, "paid")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.orders.UpdateStatus(ctx, f.buyer, 9999, "cancelled")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCancelRestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, f.farmer, "Paneer", "400", "2", "kg")

	o, err := f.orders.Place(ctx, f.buyer, placeReq(line(p.ID, "2")))
	require.NoError(t, err)
	assert.False(t, f.stock(t, p.ID).InStock)

	cancelled, err := f.orders.UpdateStatus(ctx, f.buyer, o.Order.ID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)

	back := f.stock(t, p.ID)
	assert.True(t, back.AvailableQuantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, back.InStock)
}

func TestOrderVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := f.product(t, f.farmer, "Okra", "60", "10", "kg")
	f.product(t, f.otherFarmer, "Brinjal", "50", "10", "kg")

	o, err := f.orders.Place(ctx, f.buyer, placeReq(line(mine.ID, "1")))
	require.NoError(t, err)

	_, err = f.orders.Get(ctx, f.farmer, o.Order.ID)
	assert.NoError(t, err)
	_, err = f.orders.Get(ctx, f.otherFarmer, o.Order.ID)
	assert.ErrorIs(t, err, apperr.ErrAuthorization)
	_, err = f.orders.Get(ctx, f.otherBuyer, o.Order.ID)
	assert.ErrorIs(t, err, apperr.ErrAuthorization)

	_, err = f.orders.UpdateStatus(ctx, f.otherFarmer, o.Order.ID, "confirmed")
	assert.ErrorIs(t, err, apperr.ErrAuthorization)

	farmerOrders, err := f.orders.List(ctx, f.farmer)
	require.NoError(t, err)
	assert.Len(t, farmerOrders, 1)
	otherOrders, err := f.orders.List(ctx, f.otherFarmer)
	require.NoError(t, err)
	assert.Empty(t, otherOrders)
}
