package repositories

import (
	"context"
	"time"

	"github.com/farmchain/farmchain/app/models"
	"github.com/farmchain/farmchain/pkg/orm"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductRepository is the storage contract for products. The gorm-backed
// implementation can be wrapped by CachedProductRepository.
type ProductRepository interface {
	All(ctx context.Context) ([]models.Product, error)
	ByCategory(ctx context.Context, categoryID uint) ([]models.Product, error)
	ByFarmer(ctx context.Context, farmerID uint) ([]models.Product, error)
	Find(ctx context.Context, id uint) (*models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, id uint, fields map[string]interface{}) (*models.Product, error)
	Delete(ctx context.Context, id uint) error

	// DecrementStock atomically takes qty from the product when it is in
	// stock with at least qty available, and reports whether it did.
	DecrementStock(ctx context.Context, id uint, qty decimal.Decimal) (bool, error)
	// RestoreStock returns qty to the product's available quantity.
	RestoreStock(ctx context.Context, id uint, qty decimal.Decimal) error
	// ReconcileStock marks products with nothing left as out of stock and
	// returns their ids.
	ReconcileStock(ctx context.Context) ([]uint, error)

	// WithTx returns a repository bound to tx. Reads through it bypass any
	// cache so they observe the transaction's own writes.
	WithTx(tx *orm.Query) ProductRepository
	// Invalidate drops cached copies of ids. No-op without a cache.
	Invalidate(ctx context.Context, ids ...uint)
}

type GormProductRepository struct {
	db *orm.Query
}

func NewProductRepository(db *orm.Query) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) WithTx(tx *orm.Query) ProductRepository {
	return &GormProductRepository{db: tx}
}

func (r *GormProductRepository) Invalidate(context.Context, ...uint) {}

func (r *GormProductRepository) list(ctx context.Context, where string, args ...interface{}) ([]models.Product, error) {
	products := []models.Product{}
	q := r.db.WithContext(ctx).Model(&models.Product{})
	if where != "" {
		q = q.Where(where, args...)
	}
	err := q.Order("id ASC").Get(&products)
	return products, err
}

func (r *GormProductRepository) All(ctx context.Context) ([]models.Product, error) {
	return r.list(ctx, "")
}

func (r *GormProductRepository) ByCategory(ctx context.Context, categoryID uint) ([]models.Product, error) {
	return r.list(ctx, "category_id = ?", categoryID)
}

func (r *GormProductRepository) ByFarmer(ctx context.Context, farmerID uint) ([]models.Product, error) {
	return r.list(ctx, "farmer_id = ?", farmerID)
}

func (r *GormProductRepository) Find(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).First(&p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *GormProductRepository) Create(ctx context.Context, p *models.Product) error {
	return translate(r.db.WithContext(ctx).Create(p))
}

func (r *GormProductRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) (*models.Product, error) {
	if len(fields) > 0 {
		if _, err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(fields); err != nil {
			return nil, translate(err)
		}
	}
	return r.Find(ctx, id)
}

func (r *GormProductRepository) Delete(ctx context.Context, id uint) error {
	n, err := r.db.WithContext(ctx).Delete(&models.Product{}, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const decrementSQL = `UPDATE products
SET available_quantity = available_quantity - ?, updated_at = ?
WHERE id = ? AND deleted_at IS NULL AND in_stock = ? AND available_quantity >= ?`

// DecrementStock must run inside a transaction: the follow-up in_stock flip
// belongs to the same unit of work as the decrement.
func (r *GormProductRepository) DecrementStock(ctx context.Context, id uint, qty decimal.Decimal) (bool, error) {
	q := r.db.WithContext(ctx)
	n, err := q.Exec(decrementSQL, qty, time.Now().UTC(), id, true, qty)
	if err != nil {
		return false, err
	}
	if n != 1 {
		return false, nil
	}

	_, err = q.Model(&models.Product{}).
		Where("id = ? AND available_quantity <= ?", id, 0).
		Updates(map[string]interface{}{"in_stock": false})
	return err == nil, err
}

// RestoreStock puts a product that had run dry back in stock; a product the
// farmer hid while stock remained stays hidden.
func (r *GormProductRepository) RestoreStock(ctx context.Context, id uint, qty decimal.Decimal) error {
	q := r.db.WithContext(ctx)

	var p models.Product
	if err := q.Model(&models.Product{}).Where("id = ?", id).First(&p); err != nil {
		if orm.IsNotFound(err) {
			return nil
		}
		return err
	}

	fields := map[string]interface{}{
		"available_quantity": gorm.Expr("available_quantity + ?", qty),
		"updated_at":         time.Now().UTC(),
	}
	if !p.AvailableQuantity.IsPositive() && p.AvailableQuantity.Add(qty).IsPositive() {
		fields["in_stock"] = true
	}
	_, err := q.Model(&models.Product{}).Where("id = ?", id).Updates(fields)
	return err
}

func (r *GormProductRepository) ReconcileStock(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *orm.Query) error {
		if err := tx.Model(&models.Product{}).
			Where("in_stock = ? AND available_quantity <= ?", true, 0).
			Pluck("id", &ids); err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		_, err := tx.Model(&models.Product{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{"in_stock": false})
		return err
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
