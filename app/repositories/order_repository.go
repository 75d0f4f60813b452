package repositories

import (
	"context"
	"time"

	"github.com/farmchain/farmchain/app/models"
	"github.com/farmchain/farmchain/pkg/orm"
)

// OrderRepository handles orders and their items. Products are joined
// Unscoped so orders keep resolving to the farmer after a product is
// deleted.
type OrderRepository struct {
	db *orm.Query
}

func NewOrderRepository(db *orm.Query) *OrderRepository {
	return &OrderRepository{db: db}
}

// WithTx binds the repository to tx.
func (r *OrderRepository) WithTx(tx *orm.Query) *OrderRepository {
	return &OrderRepository{db: tx}
}

// Create inserts order, then each item with OrderID set. Must run inside a
// transaction when the caller wants all-or-nothing.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	q := r.db.WithContext(ctx)
	if err := q.Create(order); err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) == 0 {
		return nil
	}
	return q.Create(&items)
}

func (r *OrderRepository) Find(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).First(&o); err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

// Items returns the lines of one order in insertion order.
func (r *OrderRepository) Items(ctx context.Context, orderID uint) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Get(&items)
	return items, err
}

// ByBuyer lists a buyer's orders, newest first.
func (r *OrderRepository) ByBuyer(ctx context.Context, buyerID uint) ([]models.Order, error) {
	orders := []models.Order{}
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC, id DESC").
		Get(&orders)
	return orders, err
}

const farmerOrderIDs = `SELECT oi.order_id FROM order_items oi
JOIN products p ON p.id = oi.product_id
WHERE p.farmer_id = ?`

// ForFarmer lists every order containing at least one of the farmer's
// products, newest first. Each order appears once.
func (r *OrderRepository) ForFarmer(ctx context.Context, farmerID uint) ([]models.Order, error) {
	orders := []models.Order{}
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id IN ("+farmerOrderIDs+")", farmerID).
		Order("created_at DESC, id DESC").
		Get(&orders)
	return orders, err
}

// FarmerHasItem reports whether order contains a product owned by farmerID.
func (r *OrderRepository) FarmerHasItem(ctx context.Context, orderID, farmerID uint) (bool, error) {
	n, err := r.db.WithContext(ctx).Table("order_items").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("order_items.order_id = ? AND products.farmer_id = ?", orderID, farmerID).
		Count()
	return n > 0, err
}

// FarmerIDs returns the distinct owners of the products in an order.
func (r *OrderRepository) FarmerIDs(ctx context.Context, orderID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Table("products").
		Where("id IN (SELECT product_id FROM order_items WHERE order_id = ?)", orderID).
		Distinct("farmer_id").
		Pluck("farmer_id", &ids)
	return ids, err
}

// UpdateStatus moves the order from one status to another only if it is
// still in from. It reports false when another writer got there first.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uint, from, to models.OrderStatus) (bool, error) {
	n, err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now().UTC()})
	return n == 1, err
}
