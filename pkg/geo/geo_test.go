package geo

import (
	"math"
	"testing"

	"github.com/GyabaahFelix/lynqed-backend/pkg/types"
)

type locatedItem struct {
	name  string
	point types.GeoPoint
	has   bool
}

func (l locatedItem) Location() (types.GeoPoint, bool) {
	return l.point, l.has
}

// Landmarks around the KNUST campus in Kumasi.
var (
	campusCenter = types.GeoPoint{Lat: 6.6745, Lng: -1.5716}
	unityHall    = types.GeoPoint{Lat: 6.6790, Lng: -1.5720}
	ayeduase     = types.GeoPoint{Lat: 6.6680, Lng: -1.5580}
	kumasiCity   = types.GeoPoint{Lat: 6.6885, Lng: -1.6244}
)

func TestDistanceMeters(t *testing.T) {
	t.Parallel()

	if got := DistanceMeters(campusCenter, campusCenter); got != 0 {
		t.Fatalf("distance to self must be zero, got %f", got)
	}

	near := DistanceMeters(campusCenter, unityHall)
	far := DistanceMeters(campusCenter, kumasiCity)
	if near <= 0 || far <= 0 {
		t.Fatalf("expected positive distances, got %f and %f", near, far)
	}
	if near >= far {
		t.Fatalf("expected hall closer than the city center")
	}
	// Roughly half a kilometer between the center and Unity Hall.
	if near < 200 || near > 1000 {
		t.Fatalf("implausible distance %f meters", near)
	}

	if math.Abs(DistanceMeters(campusCenter, ayeduase)-DistanceMeters(ayeduase, campusCenter)) > 1e-6 {
		t.Fatalf("distance must be symmetric")
	}
}

func TestSortByDistance(t *testing.T) {
	t.Parallel()

	items := []locatedItem{
		{name: "city", point: kumasiCity, has: true},
		{name: "ayeduase", point: ayeduase, has: true},
		{name: "hall", point: unityHall, has: true},
	}

	SortByDistance(items, campusCenter)

	want := []string{"hall", "ayeduase", "city"}
	for i, name := range want {
		if items[i].name != name {
			t.Fatalf("position %d: expected %s, got %s", i, name, items[i].name)
		}
	}
}

func TestSortByDistanceUnlocatedSortLast(t *testing.T) {
	t.Parallel()

	items := []locatedItem{
		{name: "no-location-a"},
		{name: "city", point: kumasiCity, has: true},
		{name: "no-location-b"},
		{name: "zero", point: types.GeoPoint{}, has: true},
		{name: "hall", point: unityHall, has: true},
	}

	SortByDistance(items, campusCenter)

	if items[0].name != "hall" || items[1].name != "city" {
		t.Fatalf("located items must lead, got %v", items)
	}
	tail := []string{items[2].name, items[3].name, items[4].name}
	want := []string{"no-location-a", "no-location-b", "zero"}
	for i := range want {
		if tail[i] != want[i] {
			t.Fatalf("unlocated items must keep their relative order, got %v", tail)
		}
	}
}
