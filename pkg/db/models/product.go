package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
)

// Product is a vendor listing. PricePesewas is the integer minor-unit
// price; there is no float money anywhere in the schema.
type Product struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID     uuid.UUID           `gorm:"column:vendor_id;type:uuid;not null;index"`
	Name         string              `gorm:"column:name;not null"`
	Description  *string             `gorm:"column:description"`
	Category     *string             `gorm:"column:category"`
	PricePesewas int64               `gorm:"column:price_pesewas;not null"`
	Currency     enums.Currency      `gorm:"column:currency;not null;default:'GHS'"`
	Images       pq.StringArray      `gorm:"column:images;type:text[];not null;default:ARRAY[]::text[]"`
	Status       enums.ProductStatus `gorm:"column:status;not null;default:'pending'"`
	Stock        *int                `gorm:"column:stock"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
