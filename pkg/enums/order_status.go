package enums

import "fmt"

// OrderStatus tracks the lifecycle of an order. The chain after
// ready_for_pickup depends on the order's delivery option: pickup
// orders go straight to delivered, delivery orders walk through the
// rider states first.
type OrderStatus string

const (
	OrderStatusPlaced         OrderStatus = "placed"
	OrderStatusReceived       OrderStatus = "received"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusReadyForPickup OrderStatus = "ready_for_pickup"
	OrderStatusAssigned       OrderStatus = "assigned"
	OrderStatusPickedUp       OrderStatus = "picked_up"
	OrderStatusInRoute        OrderStatus = "in_route"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusDeclined       OrderStatus = "declined"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPlaced,
	OrderStatusReceived,
	OrderStatusPreparing,
	OrderStatusReadyForPickup,
	OrderStatusAssigned,
	OrderStatusPickedUp,
	OrderStatusInRoute,
	OrderStatusDelivered,
	OrderStatusDeclined,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusDeclined
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
