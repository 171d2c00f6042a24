package snapshot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/GyabaahFelix/lynqed-backend/pkg/types"
)

// Field aliases accumulated across schema generations. Lookup order
// matters: the canonical spelling always wins when present.
var (
	idAliases       = []string{"id", "_id", "uid", "uuid"}
	nameAliases     = []string{"name", "title", "product_name", "productName", "business_name", "businessName", "full_name", "fullName"}
	vendorIDAliases = []string{"vendor_id", "vendorId", "store_id", "storeId", "seller_id", "sellerId"}
	priceAliases    = []string{"price_pesewas", "pricePesewas", "price_minor", "priceMinor", "price", "total_pesewas", "totalPesewas", "total", "amount"}
	imageAliases    = []string{"images", "image_urls", "imageUrls", "image", "image_url", "imageUrl", "photo", "photo_url", "photoUrl"}
	statusAliases   = []string{"status", "state", "approval_status", "approvalStatus"}
	latAliases      = []string{"lat", "latitude"}
	lngAliases      = []string{"lng", "lon", "longitude"}
)

// Normalize maps a loosely-keyed record onto the canonical entity
// shape. Records with no usable ID are rejected; every other field
// degrades to its zero value when absent.
func Normalize(collection Collection, record Record) (Entity, error) {
	id, err := lookupUUID(record, idAliases)
	if err != nil {
		return Entity{}, fmt.Errorf("normalize %s: %w", collection, err)
	}

	entity := Entity{
		ID:         id,
		Collection: collection,
		Name:       lookupString(record, nameAliases),
		Status:     lookupString(record, statusAliases),
		Raw:        record,
	}

	if vendorID, err := lookupUUID(record, vendorIDAliases); err == nil {
		entity.VendorID = vendorID
	}
	entity.PricePesewas = lookupMoney(record, priceAliases)
	entity.Images = lookupImages(record, imageAliases)

	if lat, okLat := lookupFloat(record, latAliases); okLat {
		if lng, okLng := lookupFloat(record, lngAliases); okLng {
			point := types.GeoPoint{Lat: lat, Lng: lng}
			if point.Valid() && !point.IsZero() {
				entity.Location = &point
			}
		}
	}

	return entity, nil
}

func lookupUUID(record Record, aliases []string) (uuid.UUID, error) {
	for _, key := range aliases {
		value, ok := record[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case uuid.UUID:
			return v, nil
		case string:
			if parsed, err := uuid.Parse(strings.TrimSpace(v)); err == nil {
				return parsed, nil
			}
		}
	}
	return uuid.Nil, fmt.Errorf("record has no usable id")
}

func lookupString(record Record, aliases []string) string {
	for _, key := range aliases {
		if value, ok := record[key]; ok {
			if s, ok := value.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// lookupMoney accepts integers, floats that happen to hold integral
// values, and numeric strings. Anything else is treated as zero rather
// than failing the whole record.
func lookupMoney(record Record, aliases []string) int64 {
	for _, key := range aliases {
		value, ok := record[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case int64:
			return v
		case int:
			return int64(v)
		case float64:
			return int64(v)
		case string:
			if parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return parsed
			}
		}
	}
	return 0
}

func lookupImages(record Record, aliases []string) []string {
	for _, key := range aliases {
		value, ok := record[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case []string:
			return v
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok && s != "" {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
		case string:
			if v != "" {
				return []string{v}
			}
		}
	}
	return nil
}

func lookupFloat(record Record, aliases []string) (float64, bool) {
	for _, key := range aliases {
		value, ok := record[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case float64:
			return v, true
		case float32:
			return float64(v), true
		case int:
			return float64(v), true
		case int64:
			return float64(v), true
		case string:
			if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return parsed, true
			}
		}
	}
	return 0, false
}
