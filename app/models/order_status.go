package models

import "github.com/farmchain/farmchain/pkg/auth"

// OrderStatus is a state in the order lifecycle:
//
//	pending → confirmed → shipped → delivered
//	   └──────────┴──────────┴──→ cancelled
//
// delivered and cancelled are terminal.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// OrderStatuses lists every state in lifecycle order.
var OrderStatuses = []OrderStatus{StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled}

// ParseOrderStatus reports whether s names a known status.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, st := range OrderStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether a caller with role may move an order from s
// to next. Ownership (buyer owns the order, farmer has a product in it) is
// checked separately.
func (s OrderStatus) CanTransition(role auth.Role, next OrderStatus) bool {
	switch role {
	case auth.RoleBuyer:
		return s == StatusPending && next == StatusCancelled
	case auth.RoleFarmer:
		switch next {
		case StatusConfirmed:
			return s == StatusPending
		case StatusShipped:
			return s == StatusConfirmed
		case StatusDelivered:
			return s == StatusShipped
		case StatusCancelled:
			return s == StatusPending || s == StatusConfirmed || s == StatusShipped
		default:
			return false
		}
	default:
		return false
	}
}
