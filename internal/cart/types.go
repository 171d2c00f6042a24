package cart

import (
	"time"

	"github.com/google/uuid"

	products "github.com/GyabaahFelix/lynqed-backend/internal/products"
	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
)

// AddItemInput carries one product line to add to the cart.
type AddItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gte=1,lte=99"`
}

// UpdateItemInput overwrites the quantity of an existing line. Zero
// removes the line.
type UpdateItemInput struct {
	Quantity int `json:"quantity" validate:"gte=0,lte=99"`
}

// LineDTO is one cart row joined with its current listing.
type LineDTO struct {
	Product          products.ProductDTO `json:"product"`
	Quantity         int                 `json:"quantity"`
	LineTotalPesewas int64               `json:"line_total_pesewas"`
	Unavailable      bool                `json:"unavailable,omitempty"`
	AddedAt          time.Time           `json:"added_at"`
}

// CartDTO is the full cart view. Subtotal excludes unavailable lines
// and delivery fees; fees are computed per vendor at checkout.
type CartDTO struct {
	Items           []LineDTO      `json:"items"`
	SubtotalPesewas int64          `json:"subtotal_pesewas"`
	Currency        enums.Currency `json:"currency"`
	VendorCount     int            `json:"vendor_count"`
}

// FavoriteDTO is one wishlist row joined with its listing.
type FavoriteDTO struct {
	Product products.ProductDTO `json:"product"`
	AddedAt time.Time           `json:"added_at"`
}
