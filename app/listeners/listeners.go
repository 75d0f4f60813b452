// Package listeners reacts to domain events: connected clients get a live
// push, and mail and webhook notifications are queued.
package listeners

import (
	"context"

	"github.com/farmchain/farmchain/app/events"
	"github.com/farmchain/farmchain/app/jobs"
	"github.com/farmchain/farmchain/app/models"
	"github.com/farmchain/farmchain/pkg/event"
	"github.com/farmchain/farmchain/pkg/logger"
	"github.com/farmchain/farmchain/pkg/queue"
)

// Pusher delivers a JSON message to the live connections of users.
type Pusher interface {
	SendJSON(v interface{}, userIDs ...uint) error
}

// Queue accepts background jobs.
type Queue interface {
	Dispatch(ctx context.Context, job queue.Job) error
}

// Notification is the websocket message shape.
type Notification struct {
	Type   string             `json:"type"`
	Order  models.Order       `json:"order"`
	From   models.OrderStatus `json:"from,omitempty"`
	Status models.OrderStatus `json:"status"`
}

// Option tunes Register.
type Option func(*options)

type options struct {
	webhook bool
}

// WithWebhook also queues an OrderWebhook job for every order event.
func WithWebhook() Option {
	return func(o *options) { o.webhook = true }
}

// Register subscribes the marketplace listeners on d. Either pusher or q
// may be nil to disable that channel.
func Register(d *event.Dispatcher, pusher Pusher, q Queue, opts ...Option) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	d.Listen(events.OrderPlaced, func(ctx context.Context, payload interface{}) {
		p, ok := payload.(events.OrderPlacedPayload)
		if !ok {
			return
		}
		push(pusher, Notification{Type: events.OrderPlaced, Order: p.Order, Status: p.Order.Status}, p.Recipients())
		if q == nil {
			return
		}
		if o.webhook {
			enqueue(ctx, q, &jobs.OrderWebhook{Event: events.OrderPlaced, OrderID: p.Order.ID, Status: p.Order.Status})
		}
		for _, farmerID := range p.FarmerIDs {
			enqueue(ctx, q, &jobs.OrderPlacedMail{OrderID: p.Order.ID, FarmerID: farmerID})
		}
	})

	d.Listen(events.OrderStatusChanged, func(ctx context.Context, payload interface{}) {
		p, ok := payload.(events.OrderStatusChangedPayload)
		if !ok {
			return
		}
		push(pusher, Notification{Type: events.OrderStatusChanged, Order: p.Order, From: p.From, Status: p.To}, p.Recipients())
		if q == nil {
			return
		}
		if o.webhook {
			enqueue(ctx, q, &jobs.OrderWebhook{
				Event:   events.OrderStatusChanged,
				OrderID: p.Order.ID,
				From:    p.From,
				Status:  p.To,
				ActorID: p.Actor.UserID,
			})
		}
		if p.Actor.UserID == p.Order.BuyerID {
			return
		}
		enqueue(ctx, q, &jobs.OrderStatusMail{OrderID: p.Order.ID, BuyerID: p.Order.BuyerID, Status: p.To})
	})
}

func push(p Pusher, n Notification, userIDs []uint) {
	if p == nil {
		return
	}
	if err := p.SendJSON(n, userIDs...); err != nil {
		logger.Warn("listeners: push failed", "type", n.Type, "order_id", n.Order.ID, "error", err)
	}
}

func enqueue(ctx context.Context, q Queue, job queue.Job) {
	if err := q.Dispatch(ctx, job); err != nil {
		logger.WithCtx(ctx).Error("listeners: enqueue failed", "job", job, "error", err)
	}
}
