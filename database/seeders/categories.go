package seeders

import (
	"context"

	"github.com/farmchain/farmchain/app/models"
	"github.com/farmchain/farmchain/app/repositories"
	"github.com/farmchain/farmchain/pkg/orm"
	"gorm.io/gorm"
)

var defaultCategories = []struct{ name, description string }{
	{"Vegetables", "Fresh seasonal vegetables"},
	{"Fruits", "Orchard and farm fruits"},
	{"Grains", "Rice, wheat, millets and other cereals"},
	{"Pulses", "Lentils, beans and dals"},
	{"Dairy", "Milk, ghee, paneer and curd"},
	{"Spices", "Whole and ground spices"},
}

// SeedCategories upserts the default categories by name.
func SeedCategories(ctx context.Context, db *gorm.DB) error {
	repo := repositories.NewCategoryRepository(orm.New(db))
	for _, c := range defaultCategories {
		desc := c.description
		if err := repo.Upsert(ctx, &models.Category{Name: c.name, Description: &desc}); err != nil {
			return err
		}
	}
	return nil
}
