package jobs

import (
	"context"
	"fmt"

	"github.com/farmchain/farmchain/app/events"
	"github.com/farmchain/farmchain/app/models"
	"github.com/farmchain/farmchain/pkg/notification"
)

// OrderWebhook reports an order event to the configured outgoing webhook.
// The order is reloaded when the job runs, so the receiver sees its current
// state.
type OrderWebhook struct {
	Event   string             `json:"event"`
	OrderID uint               `json:"orderId"`
	From    models.OrderStatus `json:"from,omitempty"`
	Status  models.OrderStatus `json:"status"`
	ActorID uint               `json:"actorId,omitempty"`

	deps Deps
}

func (j *OrderWebhook) Handle(ctx context.Context) error {
	if j.deps.Webhook == nil {
		return nil
	}
	order, err := j.deps.Orders.Find(ctx, j.OrderID)
	if err != nil {
		return err
	}
	items, err := j.deps.Orders.Items(ctx, j.OrderID)
	if err != nil {
		return err
	}

	msg := notification.Message{
		Event: j.Event,
		Data:  models.OrderWithItems{Order: *order, Items: items},
	}
	switch j.Event {
	case events.OrderPlaced:
		msg.Title = fmt.Sprintf("Order #%d placed", order.ID)
		msg.Text = fmt.Sprintf("%d item(s), total %s", len(items), order.TotalAmount.StringFixed(2))
		msg.Color = "good"
	default:
		msg.Title = fmt.Sprintf("Order #%d is now %s", order.ID, j.Status)
		msg.Text = fmt.Sprintf("%s -> %s by user %d", j.From, j.Status, j.ActorID)
		if j.Status == models.StatusCancelled {
			msg.Color = "danger"
		}
	}
	return j.deps.Webhook.Notify(ctx, msg)
}
