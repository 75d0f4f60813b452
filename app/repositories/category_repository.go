package repositories

import (
	"context"

	"github.com/farmchain/farmchain/app/models"
	"github.com/farmchain/farmchain/pkg/orm"
)

type CategoryRepository struct {
	db *orm.Query
}

func NewCategoryRepository(db *orm.Query) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) All(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := r.db.WithContext(ctx).Model(&models.Category{}).Order("name ASC").Get(&categories)
	return categories, err
}

func (r *CategoryRepository) Find(ctx context.Context, id uint) (*models.Category, error) {
	var c models.Category
	if err := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).First(&c); err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *CategoryRepository) Create(ctx context.Context, c *models.Category) error {
	return translate(r.db.WithContext(ctx).Create(c))
}

// Upsert creates c unless a category with the same name exists, in which
// case c is filled from the stored row.
func (r *CategoryRepository) Upsert(ctx context.Context, c *models.Category) error {
	err := r.db.WithContext(ctx).Model(&models.Category{}).Where("name = ?", c.Name).First(c)
	if orm.IsNotFound(err) {
		return r.Create(ctx, c)
	}
	return err
}
