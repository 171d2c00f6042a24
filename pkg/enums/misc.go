package enums

import "fmt"

// Currency is an ISO 4217 currency code. Prices are stored as integer
// minor units (pesewas for GHS).
type Currency string

const (
	CurrencyGHS Currency = "GHS"
)

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

// IsValid reports whether the value is a supported Currency.
func (c Currency) IsValid() bool {
	return c == CurrencyGHS
}

// VendorApprovalStatus is where a storefront sits in admin review.
type VendorApprovalStatus string

const (
	VendorApprovalPending   VendorApprovalStatus = "pending"
	VendorApprovalApproved  VendorApprovalStatus = "approved"
	VendorApprovalRejected  VendorApprovalStatus = "rejected"
	VendorApprovalSuspended VendorApprovalStatus = "suspended"
)

var validVendorApprovalStatuses = []VendorApprovalStatus{
	VendorApprovalPending,
	VendorApprovalApproved,
	VendorApprovalRejected,
	VendorApprovalSuspended,
}

// String implements fmt.Stringer.
func (s VendorApprovalStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known VendorApprovalStatus.
func (s VendorApprovalStatus) IsValid() bool {
	for _, candidate := range validVendorApprovalStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseVendorApprovalStatus converts raw input into a VendorApprovalStatus.
func ParseVendorApprovalStatus(value string) (VendorApprovalStatus, error) {
	for _, candidate := range validVendorApprovalStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vendor approval status %q", value)
}

// NotificationType categorizes items on a user's notification feed.
type NotificationType string

const (
	NotificationTypeOrderPlaced   NotificationType = "order_placed"
	NotificationTypeOrderUpdated  NotificationType = "order_updated"
	NotificationTypeOrderAssigned NotificationType = "order_assigned"
	NotificationTypeVendorReview  NotificationType = "vendor_review"
	NotificationTypeAccount       NotificationType = "account"
)

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}

// OutboxEventType names the change-feed events emitted through the
// transactional outbox.
type OutboxEventType string

const (
	OutboxEventOrderPlaced       OutboxEventType = "order.placed"
	OutboxEventOrderStatusChange OutboxEventType = "order.status_changed"
	OutboxEventOrderAssigned     OutboxEventType = "order.assigned"
	OutboxEventProductChanged    OutboxEventType = "product.changed"
	OutboxEventVendorChanged     OutboxEventType = "vendor.changed"
	OutboxEventUserBanned        OutboxEventType = "user.banned"
)

// String implements fmt.Stringer.
func (o OutboxEventType) String() string {
	return string(o)
}
