// Package jobs holds the queued background work of the marketplace.
package jobs

import (
	"context"
	"fmt"
	"strings"

	"github.com/farmchain/farmchain/app/models"
	"github.com/farmchain/farmchain/app/repositories"
	"github.com/farmchain/farmchain/pkg/mail"
	"github.com/farmchain/farmchain/pkg/notification"
	"github.com/farmchain/farmchain/pkg/queue"
)

// Deps are the collaborators a worker injects into decoded jobs. They are
// unexported on the jobs so only the ids travel through the queue.
type Deps struct {
	Users  *repositories.UserRepository
	Orders *repositories.OrderRepository
	Mailer mail.Mailer

	// Webhook is nil when no order webhook is configured.
	Webhook *notification.Webhook
}

// Register makes every job in this package decodable by m.
func Register(m *queue.Manager, d Deps) {
	m.Register(func() queue.Job { return &OrderPlacedMail{deps: d} })
	m.Register(func() queue.Job { return &OrderStatusMail{deps: d} })
	m.Register(func() queue.Job { return &OrderWebhook{deps: d} })
}

// OrderPlacedMail tells one farmer that a new order contains their produce.
type OrderPlacedMail struct {
	OrderID  uint `json:"orderId"`
	FarmerID uint `json:"farmerId"`

	deps Deps
}

func (j *OrderPlacedMail) Handle(ctx context.Context) error {
	farmer, err := j.deps.Users.FindByID(ctx, j.FarmerID)
	if err != nil {
		return err
	}
	order, err := j.deps.Orders.Find(ctx, j.OrderID)
	if err != nil {
		return err
	}
	items, err := j.deps.Orders.Items(ctx, j.OrderID)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\nOrder #%d has been placed and includes your products:\n\n", farmer.Name, order.ID)
	for _, it := range items {
		fmt.Fprintf(&b, "  product #%d  qty %s @ %s = %s\n", it.ProductID, it.Quantity, it.PricePerUnit, it.Total)
	}
	if order.ShippingAddress != nil {
		fmt.Fprintf(&b, "\nShip to: %s\n", *order.ShippingAddress)
	}
	b.WriteString("\nPlease confirm the order from your dashboard.\n")

	return j.deps.Mailer.Send(ctx, mail.Message{
		To:      []string{farmer.Email},
		Subject: fmt.Sprintf("New order #%d", order.ID),
		Text:    b.String(),
	})
}

// OrderStatusMail tells the buyer their order moved to Status.
type OrderStatusMail struct {
	OrderID uint               `json:"orderId"`
	BuyerID uint               `json:"buyerId"`
	Status  models.OrderStatus `json:"status"`

	deps Deps
}

func (j *OrderStatusMail) Handle(ctx context.Context) error {
	buyer, err := j.deps.Users.FindByID(ctx, j.BuyerID)
	if err != nil {
		return err
	}
	return j.deps.Mailer.Send(ctx, mail.Message{
		To:      []string{buyer.Email},
		Subject: fmt.Sprintf("Order #%d is now %s", j.OrderID, j.Status),
		Text:    fmt.Sprintf("Hello %s,\n\nYour order #%d is now %s.\n", buyer.Name, j.OrderID, j.Status),
	})
}
