package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is created together with its items. After creation only Status
// (and UpdatedAt) change; TotalAmount is a snapshot.
type Order struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	BuyerID         uint            `gorm:"not null;index" json:"buyerId"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(19,5);not null" json:"totalAmount"`
	Status          OrderStatus     `gorm:"type:varchar(16);not null;index" json:"status"`
	PaymentStatus   PaymentStatus   `gorm:"type:varchar(16);not null" json:"paymentStatus"`
	ShippingAddress *string         `gorm:"type:text" json:"shippingAddress"`
	DeliveryNotes   *string         `gorm:"type:text" json:"deliveryNotes"`
	CreatedAt       time.Time       `gorm:"index" json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OrderItem is one immutable order line. PricePerUnit is the product price
// at the moment the order was placed and Total = Quantity × PricePerUnit.
type OrderItem struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	OrderID      uint            `gorm:"not null;index" json:"orderId"`
	ProductID    uint            `gorm:"not null;index" json:"productId"`
	Quantity     decimal.Decimal `gorm:"type:decimal(14,3);not null" json:"quantity"`
	PricePerUnit decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"pricePerUnit"`
	Total        decimal.Decimal `gorm:"type:decimal(19,5);not null" json:"total"`
}

// OrderWithItems is the read shape of a single order.
type OrderWithItems struct {
	Order Order       `json:"order"`
	Items []OrderItem `json:"items"`
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)
