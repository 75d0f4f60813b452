package requests

import "github.com/shopspring/decimal"

type OrderDetails struct {
	ShippingAddress *string `json:"shippingAddress" validate:"omitempty,max=1000"`
	DeliveryNotes   *string `json:"deliveryNotes"   validate:"omitempty,max=2000"`
}

type OrderLine struct {
	ProductID uint            `json:"productId" validate:"required,gte=1"`
	Quantity  decimal.Decimal `json:"quantity"  validate:"gt=0"`
}

type PlaceOrderRequest struct {
	Order OrderDetails `json:"order"`
	Items []OrderLine  `json:"items" validate:"required,min=1,max=100,dive"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed shipped delivered cancelled"`
}
