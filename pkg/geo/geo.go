package geo

import (
	"sort"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"

	"github.com/GyabaahFelix/lynqed-backend/pkg/types"
)

// DistanceMeters returns the great-circle distance between two points.
func DistanceMeters(a, b types.GeoPoint) float64 {
	return orbgeo.Distance(orb.Point{a.Lng, a.Lat}, orb.Point{b.Lng, b.Lat})
}

// Locatable is anything that can report a position and whether it has one.
type Locatable interface {
	Location() (types.GeoPoint, bool)
}

// SortByDistance orders items by distance from origin, ascending. Items
// without a location sort after all located items, keeping their
// original relative order.
func SortByDistance[T Locatable](items []T, origin types.GeoPoint) {
	type entry struct {
		item    T
		located bool
		dist    float64
	}
	entries := make([]entry, len(items))
	for i, item := range items {
		e := entry{item: item}
		if point, ok := item.Location(); ok && point.Valid() && !point.IsZero() {
			e.located = true
			e.dist = DistanceMeters(origin, point)
		}
		entries[i] = e
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.located != b.located {
			return a.located
		}
		if !a.located {
			return false
		}
		return a.dist < b.dist
	})
	for i, e := range entries {
		items[i] = e.item
	}
}
