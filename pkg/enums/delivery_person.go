package enums

import "fmt"

// DeliveryPersonStatus is the admin-owned state of a rider application.
// Approval mirrors the delivery_person role onto the account; leaving
// approved removes it again.
type DeliveryPersonStatus string

const (
	DeliveryPersonStatusPending   DeliveryPersonStatus = "pending"
	DeliveryPersonStatusApproved  DeliveryPersonStatus = "approved"
	DeliveryPersonStatusRejected  DeliveryPersonStatus = "rejected"
	DeliveryPersonStatusSuspended DeliveryPersonStatus = "suspended"
)

var validDeliveryPersonStatuses = []DeliveryPersonStatus{
	DeliveryPersonStatusPending,
	DeliveryPersonStatusApproved,
	DeliveryPersonStatusRejected,
	DeliveryPersonStatusSuspended,
}

// String implements fmt.Stringer.
func (s DeliveryPersonStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known DeliveryPersonStatus.
func (s DeliveryPersonStatus) IsValid() bool {
	for _, candidate := range validDeliveryPersonStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseDeliveryPersonStatus converts raw input into a DeliveryPersonStatus.
func ParseDeliveryPersonStatus(value string) (DeliveryPersonStatus, error) {
	for _, candidate := range validDeliveryPersonStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery person status %q", value)
}

// VehicleType is how a rider moves around campus.
type VehicleType string

const (
	VehicleTypeBicycle    VehicleType = "bicycle"
	VehicleTypeMotorcycle VehicleType = "motorcycle"
	VehicleTypeCar        VehicleType = "car"
	VehicleTypeOnFoot     VehicleType = "on_foot"
)

var validVehicleTypes = []VehicleType{
	VehicleTypeBicycle,
	VehicleTypeMotorcycle,
	VehicleTypeCar,
	VehicleTypeOnFoot,
}

// String implements fmt.Stringer.
func (v VehicleType) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VehicleType.
func (v VehicleType) IsValid() bool {
	for _, candidate := range validVehicleTypes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVehicleType converts raw input into a VehicleType.
func ParseVehicleType(value string) (VehicleType, error) {
	for _, candidate := range validVehicleTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vehicle type %q", value)
}
