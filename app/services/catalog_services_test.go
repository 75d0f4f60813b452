package services_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/farmchain/farmchain/app/models"
	"github.com/farmchain/farmchain/app/repositories"
	"github.com/farmchain/farmchain/app/requests"
	"github.com/farmchain/farmchain/app/services"
	"github.com/farmchain/farmchain/pkg/apperr"
	"github.com/farmchain/farmchain/pkg/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1×1 transparent PNG.
var pngPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func TestCreateProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.product(t, f.farmer, "Spinach", "25.5", "0", "bunch")
	assert.Equal(t, f.farmer.UserID, p.FarmerID)
	assert.False(t, p.InStock, "nothing available means not in stock")
	assert.True(t, p.MinOrderQuantity.Equal(decimal.NewFromInt(1)))

	_, err := f.catalog.CreateProduct(ctx, f.buyer, requests.CreateProductRequest{Name: "Nope", Price: decimal.NewFromInt(1), Unit: "kg"})
	assert.ErrorIs(t, err, apperr.ErrAuthorization)

	missing := uint(404)
	_, err = f.catalog.CreateProduct(ctx, f.farmer, requests.CreateProductRequest{
		Name: "Ghost", Price: decimal.NewFromInt(1), Unit: "kg", CategoryID: &missing,
	})
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, err.(*apperr.Error).Fields, "categoryId")
}

func TestProductOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.product(t, f.farmer, "Carrots", "40", "30", "kg")

	name := "Stolen Carrots"
	_, err := f.catalog.UpdateProduct(ctx, f.otherFarmer, p.ID, requests.UpdateProductRequest{Name: &name})
	assert.ErrorIs(t, err, apperr.ErrAuthorization)
	assert.ErrorIs(t, f.catalog.DeleteProduct(ctx, f.otherFarmer, p.ID), apperr.ErrAuthorization)
	assert.ErrorIs(t, f.catalog.DeleteProduct(ctx, f.buyer, p.ID), apperr.ErrAuthorization)

	name = "Orange Carrots"
	updated, err := f.catalog.UpdateProduct(ctx, f.farmer, p.ID, requests.UpdateProductRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Orange Carrots", updated.Name)
	assert.Equal(t, f.farmer.UserID, updated.FarmerID)

	require.NoError(t, f.catalog.DeleteProduct(ctx, f.farmer, p.ID))
	_, err = f.catalog.Product(ctx, p.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, f.catalog.DeleteProduct(ctx, f.farmer, p.ID), apperr.ErrNotFound)
}

func TestProductListingFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	categories := repositories.NewCategoryRepository(f.db)
	veg := &models.Category{Name: "Vegetables"}
	require.NoError(t, categories.Create(ctx, veg))

	_, err := f.catalog.CreateProduct(ctx, f.farmer, requests.CreateProductRequest{
		Name: "Beans", Price: decimal.NewFromInt(70), Unit: "kg", AvailableQuantity: decimal.NewFromInt(5), CategoryID: &veg.ID,
	})
	require.NoError(t, err)
	f.product(t, f.otherFarmer, "Apples", "180", "40", "kg")

	all, err := f.catalog.Products(ctx, services.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byCategory, err := f.catalog.Products(ctx, services.ProductFilter{CategoryID: veg.ID, FarmerID: f.otherFarmer.UserID})
	require.NoError(t, err)
	require.Len(t, byCategory, 1, "category wins over farmer")
	assert.Equal(t, "Beans", byCategory[0].Name)

	byFarmer, err := f.catalog.Products(ctx, services.ProductFilter{FarmerID: f.otherFarmer.UserID})
	require.NoError(t, err)
	require.Len(t, byFarmer, 1)
	assert.Equal(t, "Apples", byFarmer[0].Name)
}

func TestSetProductImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	disk, err := storage.NewLocalDisk(t.TempDir(), "http://localhost:8080/storage")
	require.NoError(t, err)
	catalog := services.NewCatalogService(repositories.NewCategoryRepository(f.db), f.products, disk)
	p := f.product(t, f.farmer, "Cauliflower", "35", "12", "piece")

	updated, err := catalog.SetProductImage(ctx, f.farmer, p.ID, bytes.NewReader(pngPixel))
	require.NoError(t, err)
	require.NotNil(t, updated.ImageURL)
	assert.True(t, strings.HasPrefix(*updated.ImageURL, "http://localhost:8080/storage/products/"))
	assert.True(t, strings.HasSuffix(*updated.ImageURL, ".png"))

	_, err = catalog.SetProductImage(ctx, f.farmer, p.ID, strings.NewReader("not an image"))
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "The image must be a jpeg, png or webp file.", err.(*apperr.Error).Fields["image"])

	_, err = catalog.SetProductImage(ctx, f.otherFarmer, p.ID, bytes.NewReader(pngPixel))
	assert.ErrorIs(t, err, apperr.ErrAuthorization)
}

func TestReviews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reviews := services.NewReviewService(repositories.NewReviewRepository(f.db), f.products)
	p := f.product(t, f.farmer, "Honey", "600", "8", "jar")

	comment := "Raw and delicious"
	_, err := reviews.Create(ctx, f.buyer, p.ID, requests.CreateReviewRequest{Rating: 5, Comment: &comment})
	require.NoError(t, err)
	_, err = reviews.Create(ctx, f.otherBuyer, p.ID, requests.CreateReviewRequest{Rating: 3})
	require.NoError(t, err)

	_, err = reviews.Create(ctx, f.buyer, 9999, requests.CreateReviewRequest{Rating: 4})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	list, err := reviews.ForProduct(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, f.otherBuyer.UserID, list[0].UserID, "newest first")
}
