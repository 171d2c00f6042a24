package vendors

import (
	"time"

	"github.com/google/uuid"

	"github.com/GyabaahFelix/lynqed-backend/pkg/db/models"
	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
	"github.com/GyabaahFelix/lynqed-backend/pkg/types"
)

// UpsertVendorInput carries the storefront profile a vendor edits.
type UpsertVendorInput struct {
	BusinessName string   `json:"business_name" validate:"required"`
	Description  *string  `json:"description"`
	Category     *string  `json:"category"`
	Phone        *string  `json:"phone"`
	LocationName *string  `json:"location_name"`
	Lat          *float64 `json:"lat" validate:"omitempty,latitude"`
	Lng          *float64 `json:"lng" validate:"omitempty,longitude"`
}

// VendorDTO is the storefront shape returned to clients.
type VendorDTO struct {
	ID             uuid.UUID                  `json:"id"`
	OwnerID        uuid.UUID                  `json:"owner_id"`
	BusinessName   string                     `json:"business_name"`
	Description    *string                    `json:"description,omitempty"`
	Category       *string                    `json:"category,omitempty"`
	LogoURL        *string                    `json:"logo_url,omitempty"`
	BannerURL      *string                    `json:"banner_url,omitempty"`
	Phone          *string                    `json:"phone,omitempty"`
	LocationName   *string                    `json:"location_name,omitempty"`
	Location       *types.GeoPoint            `json:"location,omitempty"`
	ApprovalStatus enums.VendorApprovalStatus `json:"approval_status"`
	Rating         float64                    `json:"rating"`
	RatingCount    int64                      `json:"rating_count"`
	CreatedAt      time.Time                  `json:"created_at"`
}

// FromModel converts a vendor row into the client-facing shape.
func FromModel(vendor *models.Vendor) VendorDTO {
	dto := VendorDTO{
		ID:             vendor.ID,
		OwnerID:        vendor.OwnerID,
		BusinessName:   vendor.BusinessName,
		Description:    vendor.Description,
		Category:       vendor.Category,
		LogoURL:        vendor.LogoURL,
		BannerURL:      vendor.BannerURL,
		Phone:          vendor.Phone,
		LocationName:   vendor.LocationName,
		ApprovalStatus: vendor.ApprovalStatus,
		RatingCount:    vendor.RatingCount,
		CreatedAt:      vendor.CreatedAt,
	}
	if vendor.Lat != nil && vendor.Lng != nil {
		dto.Location = &types.GeoPoint{Lat: *vendor.Lat, Lng: *vendor.Lng}
	}
	if vendor.RatingCount > 0 {
		dto.Rating = float64(vendor.RatingSum) / float64(vendor.RatingCount)
	}
	return dto
}
