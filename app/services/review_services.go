package services

import (
	"context"
	"errors"

	"github.com/farmchain/farmchain/app/models"
	"github.com/farmchain/farmchain/app/repositories"
	"github.com/farmchain/farmchain/app/requests"
	"github.com/farmchain/farmchain/pkg/apperr"
	"github.com/farmchain/farmchain/pkg/auth"
)

type ReviewService struct {
	reviews  *repositories.ReviewRepository
	products repositories.ProductRepository
}

func NewReviewService(reviews *repositories.ReviewRepository, products repositories.ProductRepository) *ReviewService {
	return &ReviewService{reviews: reviews, products: products}
}

// ForProduct lists a product's reviews, newest first.
func (s *ReviewService) ForProduct(ctx context.Context, productID uint) ([]models.Review, error) {
	rs, err := s.reviews.ByProduct(ctx, productID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return rs, nil
}

func (s *ReviewService) Create(ctx context.Context, id auth.Identity, productID uint, in requests.CreateReviewRequest) (*models.Review, error) {
	if _, err := s.products.Find(ctx, productID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperr.NotFound("Product not found")
		}
		return nil, apperr.Internal(err)
	}

	review := &models.Review{
		ProductID: productID,
		UserID:    id.UserID,
		Rating:    in.Rating,
		Comment:   in.Comment,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, apperr.Internal(err)
	}
	return review, nil
}
