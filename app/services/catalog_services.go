package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/farmchain/farmchain/app/models"
	"github.com/farmchain/farmchain/app/repositories"
	"github.com/farmchain/farmchain/app/requests"
	"github.com/farmchain/farmchain/pkg/apperr"
	"github.com/farmchain/farmchain/pkg/auth"
	"github.com/farmchain/farmchain/pkg/storage"
)

// ProductFilter narrows a product listing. CategoryID wins when both are
// set.
type ProductFilter struct {
	CategoryID uint
	FarmerID   uint
}

// CatalogService owns categories and products.
type CatalogService struct {
	categories *repositories.CategoryRepository
	products   repositories.ProductRepository
	disk       storage.Disk
}

func NewCatalogService(categories *repositories.CategoryRepository, products repositories.ProductRepository, disk storage.Disk) *CatalogService {
	return &CatalogService{categories: categories, products: products, disk: disk}
}

func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	cs, err := s.categories.All(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return cs, nil
}

func (s *CatalogService) Products(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	var (
		ps  []models.Product
		err error
	)
	switch {
	case f.CategoryID != 0:
		ps, err = s.products.ByCategory(ctx, f.CategoryID)
	case f.FarmerID != 0:
		ps, err = s.products.ByFarmer(ctx, f.FarmerID)
	default:
		ps, err = s.products.All(ctx)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return ps, nil
}

func (s *CatalogService) Product(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.products.Find(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperr.NotFound("Product not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return p, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, id auth.Identity, in requests.CreateProductRequest) (*models.Product, error) {
	if !id.IsFarmer() {
		return nil, apperr.Forbidden("Only farmers can create products")
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	p := in.Product(id.UserID)
	if err := s.products.Create(ctx, p); err != nil {
		return nil, apperr.Internal(err)
	}
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id auth.Identity, productID uint, in requests.UpdateProductRequest) (*models.Product, error) {
	if _, err := s.owned(ctx, id, productID, "Not authorized to update this product"); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	p, err := s.products.Update(ctx, productID, in.Fields())
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperr.NotFound("Product not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id auth.Identity, productID uint) error {
	if _, err := s.owned(ctx, id, productID, "Not authorized to delete this product"); err != nil {
		return err
	}
	err := s.products.Delete(ctx, productID)
	if errors.Is(err, repositories.ErrNotFound) {
		return apperr.NotFound("Product not found")
	}
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// SetProductImage stores an uploaded image and points imageUrl at it.
func (s *CatalogService) SetProductImage(ctx context.Context, id auth.Identity, productID uint, r io.Reader) (*models.Product, error) {
	if _, err := s.owned(ctx, id, productID, "Not authorized to update this product"); err != nil {
		return nil, err
	}
	path, err := saveImage(ctx, s.disk, fmt.Sprintf("products/%d", productID), r)
	if err != nil {
		return nil, err
	}
	p, err := s.products.Update(ctx, productID, map[string]interface{}{"image_url": s.disk.URL(path)})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return p, nil
}

// owned loads the product and checks the caller is its farmer.
func (s *CatalogService) owned(ctx context.Context, id auth.Identity, productID uint, denied string) (*models.Product, error) {
	p, err := s.Product(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !id.IsFarmer() || p.FarmerID != id.UserID {
		return nil, apperr.Forbidden(denied)
	}
	return p, nil
}

func (s *CatalogService) checkCategory(ctx context.Context, categoryID *uint) error {
	if categoryID == nil {
		return nil
	}
	_, err := s.categories.Find(ctx, *categoryID)
	if errors.Is(err, repositories.ErrNotFound) {
		msg := "The selected categoryId is invalid."
		return apperr.Validation(msg, map[string]string{"categoryId": msg})
	}
	if err != nil {
		return apperr.Internal(err)
	}
	return nil
}
