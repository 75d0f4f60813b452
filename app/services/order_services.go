package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/farmchain/farmchain/app/events"
	"github.com/farmchain/farmchain/app/models"
	"github.com/farmchain/farmchain/app/repositories"
	"github.com/farmchain/farmchain/app/requests"
	"github.com/farmchain/farmchain/pkg/apperr"
	"github.com/farmchain/farmchain/pkg/auth"
	"github.com/farmchain/farmchain/pkg/collection"
	"github.com/farmchain/farmchain/pkg/logger"
	"github.com/farmchain/farmchain/pkg/metrics"
	"github.com/farmchain/farmchain/pkg/orm"
	"github.com/shopspring/decimal"
)

// Dispatcher fires domain events after a unit of work commits.
type Dispatcher interface {
	FireAsync(ctx context.Context, name string, payload interface{})
}

// quantityScale matches the quantity columns. A price (2 places) times a
// quantity (3 places) is exact at 5 places, which the total columns hold.
const quantityScale = 3

// OrderService places orders and moves them through their lifecycle. Stock
// is taken with a conditional decrement in the same transaction as the
// order insert, so concurrent orders can never oversell a product.
type OrderService struct {
	db       *orm.Query
	orders   *repositories.OrderRepository
	products repositories.ProductRepository
	events   Dispatcher
}

func NewOrderService(db *orm.Query, orders *repositories.OrderRepository, products repositories.ProductRepository, events Dispatcher) *OrderService {
	return &OrderService{db: db, orders: orders, products: products, events: events}
}

// Place validates every line against live stock, snapshots prices, takes
// the stock and creates the order with its items. Any failing line rolls
// the whole order back.
func (s *OrderService) Place(ctx context.Context, id auth.Identity, in requests.PlaceOrderRequest) (*models.OrderWithItems, error) {
	if !id.IsBuyer() {
		return nil, apperr.Forbidden("Only buyers can place orders")
	}
	if len(in.Items) == 0 {
		msg := "The items must contain at least 1 item(s)."
		return nil, apperr.Validation(msg, map[string]string{"items": msg})
	}
	for i, line := range in.Items {
		if !line.Quantity.Equal(line.Quantity.Truncate(quantityScale)) {
			msg := fmt.Sprintf("The quantity may have at most %d decimal places.", quantityScale)
			return nil, apperr.Validation(msg, map[string]string{fmt.Sprintf("items[%d].quantity", i): msg})
		}
	}

	order := models.Order{
		BuyerID:         id.UserID,
		Status:          models.StatusPending,
		PaymentStatus:   models.PaymentPending,
		ShippingAddress: in.Order.ShippingAddress,
		DeliveryNotes:   in.Order.DeliveryNotes,
	}
	items := make([]models.OrderItem, 0, len(in.Items))
	var touched, farmerIDs []uint

	err := s.db.WithContext(ctx).Transaction(func(tx *orm.Query) error {
		products := s.products.WithTx(tx)

		for _, line := range in.Items {
			p, err := products.Find(ctx, line.ProductID)
			if errors.Is(err, repositories.ErrNotFound) {
				return apperr.NotFound(fmt.Sprintf("Product %d not found", line.ProductID))
			}
			if err != nil {
				return err
			}
			if err := availability(p, line.Quantity); err != nil {
				return err
			}

			ok, err := products.DecrementStock(ctx, p.ID, line.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				// an earlier line of this order, or a concurrent order,
				// took the stock after the read above
				metrics.StockRejections.WithLabelValues("insufficient").Inc()
				return apperr.Unavailable(fmt.Sprintf("Insufficient stock for %s", p.Name))
			}

			items = append(items, models.OrderItem{
				ProductID:    p.ID,
				Quantity:     line.Quantity,
				PricePerUnit: p.Price,
				Total:        p.Price.Mul(line.Quantity),
			})
			touched = append(touched, p.ID)
			farmerIDs = append(farmerIDs, p.FarmerID)
		}

		order.TotalAmount = collection.Reduce(items, decimal.Zero, func(acc decimal.Decimal, it models.OrderItem) decimal.Decimal {
			return acc.Add(it.Total)
		})
		return s.orders.WithTx(tx).Create(ctx, &order, items)
	})
	s.products.Invalidate(ctx, touched...)
	if err != nil {
		return nil, classify(err)
	}

	metrics.OrdersPlaced.Inc()
	f, _ := order.TotalAmount.Float64()
	metrics.OrderValue.Observe(f)
	logger.WithCtx(ctx).Info("order placed",
		"order_id", order.ID,
		"buyer_id", order.BuyerID,
		"items", len(items),
		"total", order.TotalAmount.String(),
	)

	s.fire(ctx, events.OrderPlaced, events.OrderPlacedPayload{
		Order:     order,
		Items:     items,
		FarmerIDs: collection.Unique(farmerIDs),
	})
	return &models.OrderWithItems{Order: order, Items: items}, nil
}

func availability(p *models.Product, qty decimal.Decimal) error {
	if p.Available(qty) {
		return nil
	}
	if !p.InStock {
		metrics.StockRejections.WithLabelValues("not_in_stock").Inc()
		return apperr.Unavailable(fmt.Sprintf("Product %s is out of stock", p.Name))
	}
	metrics.StockRejections.WithLabelValues("insufficient").Inc()
	return apperr.Unavailable(fmt.Sprintf(
		"Insufficient stock for %s: requested %s, available %s",
		p.Name, qty.String(), p.AvailableQuantity.String(),
	))
}

// List returns the caller's orders: a buyer's own, or for a farmer every
// order containing one of their products. Newest first.
func (s *OrderService) List(ctx context.Context, id auth.Identity) ([]models.Order, error) {
	var (
		orders []models.Order
		err    error
	)
	switch id.Role {
	case auth.RoleBuyer:
		orders, err = s.orders.ByBuyer(ctx, id.UserID)
	case auth.RoleFarmer:
		orders, err = s.orders.ForFarmer(ctx, id.UserID)
	default:
		return nil, apperr.Forbidden("Unknown account type")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return orders, nil
}

// Get returns one order with its items if the caller may see it.
func (s *OrderService) Get(ctx context.Context, id auth.Identity, orderID uint) (*models.OrderWithItems, error) {
	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, id, order, "Not authorized to view this order"); err != nil {
		return nil, err
	}

	items, err := s.orders.Items(ctx, order.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &models.OrderWithItems{Order: *order, Items: items}, nil
}

// UpdateStatus moves an order to status when the caller's role allows that
// transition from the current state. Cancelling returns the stock.
func (s *OrderService) UpdateStatus(ctx context.Context, id auth.Identity, orderID uint, status string) (*models.Order, error) {
	next, ok := models.ParseOrderStatus(status)
	if !ok {
		msg := "The status must be one of: pending, confirmed, shipped, delivered, cancelled."
		return nil, apperr.Validation(msg, map[string]string{"status": msg})
	}

	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, id, order, "Not authorized to update this order"); err != nil {
		return nil, err
	}

	from := order.Status
	if !from.CanTransition(id.Role, next) {
		if id.IsBuyer() {
			return nil, apperr.Forbidden("Buyers can only cancel pending orders")
		}
		return nil, apperr.Forbidden(fmt.Sprintf("Cannot change order status from %s to %s", from, next))
	}

	var restocked []uint
	err = s.db.WithContext(ctx).Transaction(func(tx *orm.Query) error {
		changed, err := s.orders.WithTx(tx).UpdateStatus(ctx, order.ID, from, next)
		if err != nil {
			return err
		}
		if !changed {
			return apperr.Conflict("Order status was changed by someone else; reload and try again")
		}
		if next != models.StatusCancelled {
			return nil
		}

		items, err := s.orders.WithTx(tx).Items(ctx, order.ID)
		if err != nil {
			return err
		}
		products := s.products.WithTx(tx)
		for _, it := range items {
			if err := products.RestoreStock(ctx, it.ProductID, it.Quantity); err != nil {
				return err
			}
		}
		restocked = collection.Map(items, func(it models.OrderItem) uint { return it.ProductID })
		return nil
	})
	s.products.Invalidate(ctx, restocked...)
	if err != nil {
		return nil, classify(err)
	}

	updated, err := s.find(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	metrics.StatusTransitions.WithLabelValues(string(from), string(next), id.Role.String()).Inc()
	logger.WithCtx(ctx).Info("order status changed",
		"order_id", order.ID,
		"from", from,
		"to", next,
		"by", id.UserID,
	)

	farmerIDs, err := s.orders.FarmerIDs(ctx, order.ID)
	if err != nil {
		logger.WithCtx(ctx).Warn("order farmers lookup failed", "order_id", order.ID, "error", err)
	}
	s.fire(ctx, events.OrderStatusChanged, events.OrderStatusChangedPayload{
		Order:     *updated,
		From:      from,
		To:        next,
		Actor:     id,
		FarmerIDs: farmerIDs,
	})
	return updated, nil
}

func (s *OrderService) find(ctx context.Context, orderID uint) (*models.Order, error) {
	order, err := s.orders.Find(ctx, orderID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperr.NotFound("Order not found")
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return order, nil
}

// authorize lets the owning buyer, or a farmer with a product in the
// order, act on it.
func (s *OrderService) authorize(ctx context.Context, id auth.Identity, order *models.Order, denied string) error {
	switch id.Role {
	case auth.RoleBuyer:
		if order.BuyerID == id.UserID {
			return nil
		}
	case auth.RoleFarmer:
		has, err := s.orders.FarmerHasItem(ctx, order.ID, id.UserID)
		if err != nil {
			return apperr.Internal(err)
		}
		if has {
			return nil
		}
	}
	return apperr.Forbidden(denied)
}

func (s *OrderService) fire(ctx context.Context, name string, payload interface{}) {
	if s.events != nil {
		s.events.FireAsync(ctx, name, payload)
	}
}

// classify passes application errors through and wraps everything else.
func classify(err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Internal(err)
}
