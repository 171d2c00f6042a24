package checkout

import (
	"github.com/google/uuid"

	orders "github.com/GyabaahFelix/lynqed-backend/internal/orders"
)

// CheckoutInput carries the buyer's fulfillment choices for the whole
// cart. The same option applies to every per-vendor order produced by
// the split.
type CheckoutInput struct {
	DeliveryOption  string  `json:"delivery_option" validate:"required,oneof=pickup delivery"`
	DeliveryAddress *string `json:"delivery_address" validate:"omitempty,min=3,max=300"`
	BuyerNote       *string `json:"buyer_note" validate:"omitempty,max=500"`
}

// ResultDTO is everything the buyer sees after a successful checkout.
type ResultDTO struct {
	Orders             []orders.OrderDTO `json:"orders"`
	SubtotalPesewas    int64             `json:"subtotal_pesewas"`
	DeliveryFeePesewas int64             `json:"delivery_fee_pesewas"`
	TotalPesewas       int64             `json:"total_pesewas"`
}

// PlacedEvent is emitted once per created order.
type PlacedEvent struct {
	OrderID            uuid.UUID `json:"order_id"`
	Reference          string    `json:"reference"`
	BuyerID            uuid.UUID `json:"buyer_id"`
	VendorID           uuid.UUID `json:"vendor_id"`
	DeliveryOption     string    `json:"delivery_option"`
	SubtotalPesewas    int64     `json:"subtotal_pesewas"`
	DeliveryFeePesewas int64     `json:"delivery_fee_pesewas"`
	TotalPesewas       int64     `json:"total_pesewas"`
	ItemCount          int       `json:"item_count"`
}
