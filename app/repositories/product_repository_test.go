package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/farmchain/farmchain/app/models"
	"github.com/farmchain/farmchain/app/repositories"
	"github.com/farmchain/farmchain/database/migrations"
	"github.com/farmchain/farmchain/pkg/auth"
	"github.com/farmchain/farmchain/pkg/cache"
	"github.com/farmchain/farmchain/pkg/orm"
	"github.com/farmchain/farmchain/pkg/testkit"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProduct(t *testing.T, repo repositories.ProductRepository, farmerID uint, qty int64) *models.Product {
	t.Helper()
	p := &models.Product{
		FarmerID:          farmerID,
		Name:              "Tomatoes",
		Price:             decimal.NewFromInt(85),
		Unit:              "kg",
		AvailableQuantity: decimal.NewFromInt(qty),
		MinOrderQuantity:  decimal.NewFromInt(1),
		InStock:           qty > 0,
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestDecrementStock(t *testing.T) {
	db := testkit.NewQuery(t, migrations.All())
	repo := repositories.NewProductRepository(db)
	ctx := context.Background()
	p := seedProduct(t, repo, 1, 5)

	err := db.Transaction(func(tx *orm.Query) error {
		txRepo := repo.WithTx(tx)

		ok, err := txRepo.DecrementStock(ctx, p.ID, decimal.NewFromInt(6))
		require.NoError(t, err)
		assert.False(t, ok, "more than available")

		ok, err = txRepo.DecrementStock(ctx, p.ID, decimal.RequireFromString("4.5"))
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = txRepo.DecrementStock(ctx, p.ID, decimal.RequireFromString("0.5"))
		require.NoError(t, err)
		assert.True(t, ok)
		return nil
	})
	require.NoError(t, err)

	got, err := repo.Find(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.AvailableQuantity.IsZero())
	assert.False(t, got.InStock, "drained product flips out of stock")

	require.NoError(t, repo.RestoreStock(ctx, p.ID, decimal.NewFromInt(2)))
	got, err = repo.Find(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.AvailableQuantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, got.InStock)
}

func TestRestoreKeepsHiddenProductHidden(t *testing.T) {
	db := testkit.NewQuery(t, migrations.All())
	repo := repositories.NewProductRepository(db)
	ctx := context.Background()
	p := seedProduct(t, repo, 1, 5)

	_, err := repo.Update(ctx, p.ID, map[string]interface{}{"in_stock": false})
	require.NoError(t, err)
	require.NoError(t, repo.RestoreStock(ctx, p.ID, decimal.NewFromInt(1)))

	got, err := repo.Find(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, got.InStock)
	assert.True(t, got.AvailableQuantity.Equal(decimal.NewFromInt(6)))
}

func TestReconcileStock(t *testing.T) {
	db := testkit.NewQuery(t, migrations.All())
	repo := repositories.NewProductRepository(db)
	ctx := context.Background()
	stale := seedProduct(t, repo, 1, 3)
	seedProduct(t, repo, 1, 3)

	_, err := db.Exec("UPDATE products SET available_quantity = 0 WHERE id = ?", stale.ID)
	require.NoError(t, err)

	ids, err := repo.ReconcileStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{stale.ID}, ids)

	got, err := repo.Find(ctx, stale.ID)
	require.NoError(t, err)
	assert.False(t, got.InStock)
}

func TestCachedReconcileDropsStaleEntries(t *testing.T) {
	db := testkit.NewQuery(t, migrations.All())
	repo := repositories.NewCachedProductRepository(repositories.NewProductRepository(db), cache.NewMemory(time.Hour, time.Minute), time.Hour)
	ctx := context.Background()
	p := seedProduct(t, repo, 1, 3)

	cached, err := repo.Find(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, cached.InStock)

	_, err = db.Exec("UPDATE products SET available_quantity = 0 WHERE id = ?", p.ID)
	require.NoError(t, err)
	ids, err := repo.ReconcileStock(ctx)
	require.NoError(t, err)
	require.Equal(t, []uint{p.ID}, ids)

	got, err := repo.Find(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, got.InStock)
}

func TestDeleteIsSoft(t *testing.T) {
	db := testkit.NewQuery(t, migrations.All())
	repo := repositories.NewProductRepository(db)
	ctx := context.Background()
	p := seedProduct(t, repo, 7, 3)

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err := repo.Find(ctx, p.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, p.ID), repositories.ErrNotFound)

	n, err := db.Unscoped().Model(&models.Product{}).Where("id = ?", p.ID).Count()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "row kept for order history")
}

func TestCachedProductRepository(t *testing.T) {
	db := testkit.NewQuery(t, migrations.All())
	inner := repositories.NewProductRepository(db)
	repo := repositories.NewCachedProductRepository(inner, cache.NewMemory(time.Minute, time.Minute), time.Minute)
	ctx := context.Background()
	p := seedProduct(t, repo, 1, 5)

	first, err := repo.Find(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tomatoes", first.Name)

	// a write behind the cache's back is not seen until invalidation
	_, err = inner.Update(ctx, p.ID, map[string]interface{}{"name": "Cherry Tomatoes"})
	require.NoError(t, err)
	cached, err := repo.Find(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tomatoes", cached.Name)
	assert.True(t, cached.Price.Equal(decimal.NewFromInt(85)))

	repo.Invalidate(ctx, p.ID)
	fresh, err := repo.Find(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cherry Tomatoes", fresh.Name)

	_, err = repo.Update(ctx, p.ID, map[string]interface{}{"name": "Roma Tomatoes"})
	require.NoError(t, err)
	fresh, err = repo.Find(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Roma Tomatoes", fresh.Name)

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err = repo.Find(ctx, p.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestOrderRepositoryFarmerQueries(t *testing.T) {
	db := testkit.NewQuery(t, migrations.All())
	ctx := context.Background()
	users := repositories.NewUserRepository(db)
	products := repositories.NewProductRepository(db)
	orders := repositories.NewOrderRepository(db)

	buyer := &models.User{Username: "meera", Password: "x", Email: "meera@shop.test", Name: "Meera", UserType: auth.RoleBuyer}
	require.NoError(t, users.Create(ctx, buyer))
	a := seedProduct(t, products, 10, 5)
	b := seedProduct(t, products, 11, 5)

	order := &models.Order{BuyerID: buyer.ID, TotalAmount: decimal.NewFromInt(170), Status: models.StatusPending, PaymentStatus: models.PaymentPending}
	items := []models.OrderItem{
		{ProductID: a.ID, Quantity: decimal.NewFromInt(1), PricePerUnit: a.Price, Total: a.Price},
		{ProductID: b.ID, Quantity: decimal.NewFromInt(1), PricePerUnit: b.Price, Total: b.Price},
	}
	require.NoError(t, orders.Create(ctx, order, items))
	require.NoError(t, products.Delete(ctx, b.ID))

	ids, err := orders.FarmerIDs(ctx, order.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{10, 11}, ids, "deleted products still resolve to their farmer")

	has, err := orders.FarmerHasItem(ctx, order.ID, 11)
	require.NoError(t, err)
	assert.True(t, has)
	has, err = orders.FarmerHasItem(ctx, order.ID, 12)
	require.NoError(t, err)
	assert.False(t, has)

	forFarmer, err := orders.ForFarmer(ctx, 10)
	require.NoError(t, err)
	require.Len(t, forFarmer, 1, "one row per order")
	assert.Equal(t, order.ID, forFarmer[0].ID)

	moved, err := orders.UpdateStatus(ctx, order.ID, models.StatusConfirmed, models.StatusShipped)
	require.NoError(t, err)
	assert.False(t, moved, "stale from status")
	moved, err = orders.UpdateStatus(ctx, order.ID, models.StatusPending, models.StatusConfirmed)
	require.NoError(t, err)
	assert.True(t, moved)
}
