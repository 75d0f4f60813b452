// Package migrations holds the schema history of the marketplace.
package migrations

import (
	"github.com/farmchain/farmchain/app/models"
	"github.com/farmchain/farmchain/pkg/migration"
	"github.com/farmchain/farmchain/pkg/queue"
	"gorm.io/gorm"
)

// All returns every migration in order.
func All() []migration.Migration {
	return []migration.Migration{
		table("20260101000000_create_users_table", &models.User{}),
		table("20260101000001_create_categories_table", &models.Category{}),
		table("20260101000002_create_products_table", &models.Product{}),
		table("20260101000003_create_orders_table", &models.Order{}),
		table("20260101000004_create_order_items_table", &models.OrderItem{}),
		table("20260101000005_create_reviews_table", &models.Review{}),
		table("20260101000006_create_failed_jobs_table", &queue.FailedJobRecord{}),
		{
			Name: "20260101000007_index_products_farmer_stock",
			Up: func(db *gorm.DB) error {
				return db.Exec("CREATE INDEX idx_products_farmer_stock ON products (farmer_id, in_stock)").Error
			},
			Down: func(db *gorm.DB) error {
				return db.Migrator().DropIndex(&models.Product{}, "idx_products_farmer_stock")
			},
		},
	}
}

// table creates (and on rollback drops) the table behind model.
func table(name string, model interface{}) migration.Migration {
	return migration.Migration{
		Name: name,
		Up:   func(db *gorm.DB) error { return db.AutoMigrate(model) },
		Down: func(db *gorm.DB) error { return db.Migrator().DropTable(model) },
	}
}
