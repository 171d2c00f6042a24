package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/GyabaahFelix/lynqed-backend/pkg/db/models"
	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
)

// DeclineInput carries the vendor's reason for refusing an order.
type DeclineInput struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// ListFilter narrows an order listing.
type ListFilter struct {
	Status *enums.OrderStatus `json:"status"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

// OrderItemDTO is one purchased line as snapshotted at checkout.
type OrderItemDTO struct {
	ProductID    uuid.UUID `json:"product_id"`
	Name         string    `json:"name"`
	ImageURL     *string   `json:"image_url,omitempty"`
	PricePesewas int64     `json:"price_pesewas"`
	Quantity     int       `json:"quantity"`
}

// OrderDTO is the order shape returned to clients.
type OrderDTO struct {
	ID                 uuid.UUID            `json:"id"`
	Reference          string               `json:"reference"`
	BuyerID            uuid.UUID            `json:"buyer_id"`
	VendorID           uuid.UUID            `json:"vendor_id"`
	Status             enums.OrderStatus    `json:"status"`
	DeliveryOption     enums.DeliveryOption `json:"delivery_option"`
	DeliveryPersonID   *uuid.UUID           `json:"delivery_person_id,omitempty"`
	SubtotalPesewas    int64                `json:"subtotal_pesewas"`
	DeliveryFeePesewas int64                `json:"delivery_fee_pesewas"`
	TotalPesewas       int64                `json:"total_pesewas"`
	Currency           enums.Currency       `json:"currency"`
	DeliveryAddress    *string              `json:"delivery_address,omitempty"`
	BuyerNote          *string              `json:"buyer_note,omitempty"`
	DeclineReason      *string              `json:"decline_reason,omitempty"`
	Items              []OrderItemDTO       `json:"items"`
	PlacedAt           time.Time            `json:"placed_at"`
	DeliveredAt        *time.Time           `json:"delivered_at,omitempty"`
}

// StatusChangedEvent is emitted on every lifecycle transition.
type StatusChangedEvent struct {
	OrderID          uuid.UUID            `json:"order_id"`
	Reference        string               `json:"reference"`
	BuyerID          uuid.UUID            `json:"buyer_id"`
	VendorID         uuid.UUID            `json:"vendor_id"`
	DeliveryPersonID *uuid.UUID           `json:"delivery_person_id,omitempty"`
	DeliveryOption   enums.DeliveryOption `json:"delivery_option"`
	From             enums.OrderStatus    `json:"from"`
	To               enums.OrderStatus    `json:"to"`
	Reason           *string              `json:"reason,omitempty"`
}

// AssignedEvent is emitted when a rider claims a delivery job.
type AssignedEvent struct {
	OrderID          uuid.UUID `json:"order_id"`
	Reference        string    `json:"reference"`
	BuyerID          uuid.UUID `json:"buyer_id"`
	VendorID         uuid.UUID `json:"vendor_id"`
	DeliveryPersonID uuid.UUID `json:"delivery_person_id"`
}

// FromModel converts an order row into the client-facing shape.
func FromModel(order *models.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ProductID:    item.ProductID,
			Name:         item.Name,
			ImageURL:     item.ImageURL,
			PricePesewas: item.PricePesewas,
			Quantity:     item.Quantity,
		})
	}
	return OrderDTO{
		ID:                 order.ID,
		Reference:          order.Reference,
		BuyerID:            order.BuyerID,
		VendorID:           order.VendorID,
		Status:             order.Status,
		DeliveryOption:     order.DeliveryOption,
		DeliveryPersonID:   order.DeliveryPersonID,
		SubtotalPesewas:    order.SubtotalPesewas,
		DeliveryFeePesewas: order.DeliveryFeePesewas,
		TotalPesewas:       order.TotalPesewas,
		Currency:           order.Currency,
		DeliveryAddress:    order.DeliveryAddress,
		BuyerNote:          order.BuyerNote,
		DeclineReason:      order.DeclineReason,
		Items:              items,
		PlacedAt:           order.PlacedAt,
		DeliveredAt:        order.DeliveredAt,
	}
}
