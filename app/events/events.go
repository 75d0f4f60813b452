// Package events names the domain events fired by the services and the
// payloads they carry.
package events

import (
	"github.com/farmchain/farmchain/app/models"
	"github.com/farmchain/farmchain/pkg/auth"
)

const (
	OrderPlaced        = "order.placed"
	OrderStatusChanged = "order.status_changed"
)

// OrderPlacedPayload is fired after the order transaction commits.
type OrderPlacedPayload struct {
	Order     models.Order
	Items     []models.OrderItem
	FarmerIDs []uint
}

// OrderStatusChangedPayload is fired after a status change commits.
type OrderStatusChangedPayload struct {
	Order     models.Order
	From      models.OrderStatus
	To        models.OrderStatus
	Actor     auth.Identity
	FarmerIDs []uint
}

// Recipients lists the users to notify about the change: the buyer and
// every farmer with a product in the order.
func (p OrderStatusChangedPayload) Recipients() []uint {
	return append([]uint{p.Order.BuyerID}, p.FarmerIDs...)
}

func (p OrderPlacedPayload) Recipients() []uint {
	return append([]uint{p.Order.BuyerID}, p.FarmerIDs...)
}
