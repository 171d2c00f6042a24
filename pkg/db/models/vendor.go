package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
)

// Vendor is a storefront owned by a user with the vendor role. An
// account owns at most one storefront.
type Vendor struct {
	ID             uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID        uuid.UUID                  `gorm:"column:owner_id;type:uuid;not null;uniqueIndex"`
	BusinessName   string                     `gorm:"column:business_name;not null"`
	Description    *string                    `gorm:"column:description"`
	Category       *string                    `gorm:"column:category"`
	LogoURL        *string                    `gorm:"column:logo_url"`
	BannerURL      *string                    `gorm:"column:banner_url"`
	Phone          *string                    `gorm:"column:phone"`
	LocationName   *string                    `gorm:"column:location_name"`
	Lat            *float64                   `gorm:"column:lat;type:double precision"`
	Lng            *float64                   `gorm:"column:lng;type:double precision"`
	ApprovalStatus enums.VendorApprovalStatus `gorm:"column:approval_status;not null;default:'pending'"`
	RatingSum      int64                      `gorm:"column:rating_sum;not null;default:0"`
	RatingCount    int64                      `gorm:"column:rating_count;not null;default:0"`
	CreatedAt      time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}
