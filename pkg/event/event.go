// Package event provides a named-event dispatcher. Listeners run inline
// with Fire, or on a bounded worker pool with FireAsync.
package event

import (
	"context"
	"errors"
	"sync"

	"github.com/farmchain/farmchain/pkg/logger"
	"github.com/farmchain/farmchain/pkg/workerpool"
)

// Handler receives an event payload.
type Handler func(ctx context.Context, payload interface{})

// Dispatcher routes events to their listeners.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	pool     *workerpool.Pool
}

// New returns a dispatcher. A nil pool makes FireAsync behave like Fire.
func New(pool *workerpool.Pool) *Dispatcher {
	return &Dispatcher{handlers: map[string][]Handler{}, pool: pool}
}

// Listen registers h for name.
func (d *Dispatcher) Listen(name string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = append(d.handlers[name], h)
}

func (d *Dispatcher) listeners(name string) []Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	hs := make([]Handler, len(d.handlers[name]))
	copy(hs, d.handlers[name])
	return hs
}

// Fire runs every listener for name before returning.
func (d *Dispatcher) Fire(ctx context.Context, name string, payload interface{}) {
	for _, h := range d.listeners(name) {
		run(ctx, name, h, payload)
	}
}

// FireAsync hands every listener to the pool and returns. The listeners
// get a context that outlives the request. When the pool is saturated the
// listener runs inline rather than being dropped.
func (d *Dispatcher) FireAsync(ctx context.Context, name string, payload interface{}) {
	ctx = context.WithoutCancel(ctx)
	for _, h := range d.listeners(name) {
		h := h
		if d.pool == nil {
			run(ctx, name, h, payload)
			continue
		}
		err := d.pool.Submit(func() { run(ctx, name, h, payload) })
		switch {
		case err == nil:
		case errors.Is(err, workerpool.ErrPoolFull):
			logger.WithCtx(ctx).Warn("event: pool full, running inline", "event", name)
			run(ctx, name, h, payload)
		default:
			logger.WithCtx(ctx).Warn("event: dropped", "event", name, "error", err)
		}
	}
}

// Flush removes all listeners.
func (d *Dispatcher) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = map[string][]Handler{}
}

func run(ctx context.Context, name string, h Handler, payload interface{}) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithCtx(ctx).Error("event: listener panicked", "event", name, "panic", r)
		}
	}()
	h(ctx, payload)
}
