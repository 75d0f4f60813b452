package controllers

import (
	"github.com/farmchain/farmchain/app/requests"
	"github.com/farmchain/farmchain/app/services"
	"github.com/farmchain/farmchain/pkg/ctx"
)

type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

// Index lists the buyer's own orders, or for a farmer the orders that
// contain one of their products.
func (oc *OrderController) Index(c *ctx.Context) {
	orders, err := oc.orders.List(c.Context(), c.Identity())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(orders)
}

func (oc *OrderController) Show(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	o, err := oc.orders.Get(c.Context(), c.Identity(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(o)
}

func (oc *OrderController) Store(c *ctx.Context) {
	var req requests.PlaceOrderRequest
	if !c.BindJSON(&req) {
		return
	}
	o, err := oc.orders.Place(c.Context(), c.Identity(), req)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(o)
}

func (oc *OrderController) UpdateStatus(c *ctx.Context) {
	id, ok := c.ParamUint("id")
	if !ok {
		return
	}
	var req requests.UpdateStatusRequest
	if !c.BindJSON(&req) {
		return
	}
	o, err := oc.orders.UpdateStatus(c.Context(), c.Identity(), id, req.Status)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(o)
}
