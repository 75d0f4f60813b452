package repositories

import (
	"context"

	"github.com/farmchain/farmchain/app/models"
	"github.com/farmchain/farmchain/pkg/orm"
)

type ReviewRepository struct {
	db *orm.Query
}

func NewReviewRepository(db *orm.Query) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// ByProduct lists reviews for a product, newest first.
func (r *ReviewRepository) ByProduct(ctx context.Context, productID uint) ([]models.Review, error) {
	reviews := []models.Review{}
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").
		Get(&reviews)
	return reviews, err
}

func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	return translate(r.db.WithContext(ctx).Create(review))
}
