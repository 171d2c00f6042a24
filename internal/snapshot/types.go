package snapshot

import (
	"time"

	"github.com/google/uuid"

	"github.com/GyabaahFelix/lynqed-backend/pkg/types"
)

// Collection names one cached entity set.
type Collection string

const (
	CollectionProducts Collection = "products"
	CollectionVendors  Collection = "vendors"
	CollectionOrders   Collection = "orders"
	CollectionRiders   Collection = "riders"
	CollectionProfiles Collection = "profiles"
)

// AllCollections lists every cached collection in refresh order.
// Profiles are cached like the rest; their read surface is admin-only.
var AllCollections = []Collection{
	CollectionProducts,
	CollectionVendors,
	CollectionOrders,
	CollectionRiders,
	CollectionProfiles,
}

// Record is a loosely-keyed row as fetched from a source. Keys may use
// any of the historical field spellings; normalization maps them onto
// the canonical entity shapes below.
type Record map[string]any

// Entity is the normalized cache entry. Only the fields the read paths
// need are kept; the rest of the record is dropped at normalize time.
type Entity struct {
	ID           uuid.UUID
	Collection   Collection
	Name         string
	VendorID     uuid.UUID
	PricePesewas int64
	Images       []string
	Status       string
	Location     *types.GeoPoint
	Raw          Record
}

// CollectionStatus reports the health of one cached collection.
type CollectionStatus struct {
	Collection  Collection `json:"collection"`
	Count       int        `json:"count"`
	Degraded    bool       `json:"degraded"`
	RefreshedAt time.Time  `json:"refreshed_at"`
	LastError   string     `json:"last_error,omitempty"`
}
