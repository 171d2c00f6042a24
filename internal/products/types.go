package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/GyabaahFelix/lynqed-backend/pkg/db/models"
	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
	"github.com/GyabaahFelix/lynqed-backend/pkg/types"
)

// CreateProductInput carries a new listing.
type CreateProductInput struct {
	Name         string   `json:"name" validate:"required"`
	Description  *string  `json:"description"`
	Category     *string  `json:"category"`
	PricePesewas int64    `json:"price_pesewas" validate:"required,gt=0"`
	Images       []string `json:"images" validate:"omitempty,dive,url"`
	Stock        *int     `json:"stock" validate:"omitempty,gte=0"`
}

// UpdateProductInput edits an existing listing; nil means unchanged.
type UpdateProductInput struct {
	Name         *string  `json:"name"`
	Description  *string  `json:"description"`
	Category     *string  `json:"category"`
	PricePesewas *int64   `json:"price_pesewas" validate:"omitempty,gt=0"`
	Images       []string `json:"images" validate:"omitempty,dive,url"`
	Stock        *int     `json:"stock" validate:"omitempty,gte=0"`
}

// ProductDTO is the listing shape returned to clients.
type ProductDTO struct {
	ID           uuid.UUID           `json:"id"`
	VendorID     uuid.UUID           `json:"vendor_id"`
	Name         string              `json:"name"`
	Description  *string             `json:"description,omitempty"`
	Category     *string             `json:"category,omitempty"`
	PricePesewas int64               `json:"price_pesewas"`
	Currency     enums.Currency      `json:"currency"`
	Images       []string            `json:"images"`
	Status       enums.ProductStatus `json:"status"`
	Stock        *int                `json:"stock,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

// FeedItemDTO is a product plus the storefront context the feed shows.
type FeedItemDTO struct {
	ProductDTO
	VendorName     string          `json:"vendor_name"`
	VendorLocation *types.GeoPoint `json:"vendor_location,omitempty"`
	DistanceMeters *float64        `json:"distance_meters,omitempty"`
}

// Location implements geo.Locatable for distance sorting.
func (f FeedItemDTO) Location() (types.GeoPoint, bool) {
	if f.VendorLocation == nil {
		return types.GeoPoint{}, false
	}
	return *f.VendorLocation, true
}

// FromModel converts a product row into the client-facing shape.
func FromModel(product *models.Product) ProductDTO {
	images := make([]string, len(product.Images))
	copy(images, product.Images)
	return ProductDTO{
		ID:           product.ID,
		VendorID:     product.VendorID,
		Name:         product.Name,
		Description:  product.Description,
		Category:     product.Category,
		PricePesewas: product.PricePesewas,
		Currency:     product.Currency,
		Images:       images,
		Status:       product.Status,
		Stock:        product.Stock,
		CreatedAt:    product.CreatedAt,
	}
}
