package orders

import "github.com/GyabaahFelix/lynqed-backend/pkg/enums"

// NextStatus returns the single forward step from the current status
// for the given fulfillment mode. Pickup orders skip the rider chain
// and go from ready_for_pickup straight to delivered.
func NextStatus(current enums.OrderStatus, option enums.DeliveryOption) (enums.OrderStatus, bool) {
	switch current {
	case enums.OrderStatusPlaced:
		return enums.OrderStatusReceived, true
	case enums.OrderStatusReceived:
		return enums.OrderStatusPreparing, true
	case enums.OrderStatusPreparing:
		return enums.OrderStatusReadyForPickup, true
	case enums.OrderStatusReadyForPickup:
		if option == enums.DeliveryOptionPickup {
			return enums.OrderStatusDelivered, true
		}
		return enums.OrderStatusAssigned, true
	case enums.OrderStatusAssigned:
		return enums.OrderStatusPickedUp, true
	case enums.OrderStatusPickedUp:
		return enums.OrderStatusInRoute, true
	case enums.OrderStatusInRoute:
		return enums.OrderStatusDelivered, true
	default:
		return "", false
	}
}

// VendorMayAdvance reports whether the vendor owns the transition out
// of the current status. The rider chain belongs to the assigned
// rider; ready_for_pickup on a delivery order waits for a rider to
// accept the job.
func VendorMayAdvance(current enums.OrderStatus, option enums.DeliveryOption) bool {
	switch current {
	case enums.OrderStatusPlaced, enums.OrderStatusReceived, enums.OrderStatusPreparing:
		return true
	case enums.OrderStatusReadyForPickup:
		return option == enums.DeliveryOptionPickup
	default:
		return false
	}
}

// RiderMayAdvance reports whether the assigned rider owns the
// transition out of the current status.
func RiderMayAdvance(current enums.OrderStatus) bool {
	switch current {
	case enums.OrderStatusAssigned, enums.OrderStatusPickedUp, enums.OrderStatusInRoute:
		return true
	default:
		return false
	}
}

// MayDecline reports whether the vendor can still decline the order.
// Once preparation finishes the order is committed.
func MayDecline(current enums.OrderStatus) bool {
	switch current {
	case enums.OrderStatusPlaced, enums.OrderStatusReceived, enums.OrderStatusPreparing:
		return true
	default:
		return false
	}
}
