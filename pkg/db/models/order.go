package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
)

// Order is a single-vendor order. A multi-vendor checkout produces one
// Order row per vendor; DeliveryFeePesewas is charged in full on each.
type Order struct {
	ID                 uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Reference          string               `gorm:"column:reference;not null;uniqueIndex"`
	BuyerID            uuid.UUID            `gorm:"column:buyer_id;type:uuid;not null;index"`
	VendorID           uuid.UUID            `gorm:"column:vendor_id;type:uuid;not null;index"`
	Status             enums.OrderStatus    `gorm:"column:status;not null;default:'placed'"`
	DeliveryOption     enums.DeliveryOption `gorm:"column:delivery_option;not null"`
	DeliveryPersonID   *uuid.UUID           `gorm:"column:delivery_person_id;type:uuid;index"`
	SubtotalPesewas    int64                `gorm:"column:subtotal_pesewas;not null"`
	DeliveryFeePesewas int64                `gorm:"column:delivery_fee_pesewas;not null;default:0"`
	TotalPesewas       int64                `gorm:"column:total_pesewas;not null"`
	Currency           enums.Currency       `gorm:"column:currency;not null;default:'GHS'"`
	DeliveryAddress    *string              `gorm:"column:delivery_address"`
	BuyerNote          *string              `gorm:"column:buyer_note"`
	DeclineReason      *string              `gorm:"column:decline_reason"`
	Items              []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	PlacedAt           time.Time            `gorm:"column:placed_at;autoCreateTime"`
	DeliveredAt        *time.Time           `gorm:"column:delivered_at"`
	CreatedAt          time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem snapshots the purchased listing at checkout time so later
// product edits never rewrite order history.
type OrderItem struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID    uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Name         string    `gorm:"column:name;not null"`
	ImageURL     *string   `gorm:"column:image_url"`
	PricePesewas int64     `gorm:"column:price_pesewas;not null"`
	Quantity     int       `gorm:"column:quantity;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}
