package snapshot

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"

	pkgerrors "github.com/GyabaahFelix/lynqed-backend/pkg/errors"
	"github.com/GyabaahFelix/lynqed-backend/pkg/logger"
)

type stubSource struct {
	mu      sync.Mutex
	records map[Collection][]Record
	errs    map[Collection]error
	calls   map[Collection]int
}

func (s *stubSource) Fetch(_ context.Context, collection Collection) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = map[Collection]int{}
	}
	s.calls[collection]++
	if err := s.errs[collection]; err != nil {
		return nil, err
	}
	return s.records[collection], nil
}

func newTestService(t *testing.T, source Source) (Service, *Cache) {
	t.Helper()
	cache := NewCache()
	svc, err := NewService(ServiceParams{
		Source: source,
		Cache:  cache,
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, cache
}

func TestRefreshCollectionReplacesWholesale(t *testing.T) {
	t.Parallel()

	productID := uuid.New()
	source := &stubSource{records: map[Collection][]Record{
		CollectionProducts: {
			{"id": productID.String(), "name": "jollof pack", "price_pesewas": float64(2500)},
		},
	}}
	svc, _ := newTestService(t, source)

	if err := svc.RefreshCollection(context.Background(), CollectionProducts); err != nil {
		t.Fatalf("RefreshCollection: %v", err)
	}

	entity, ok := svc.Get(CollectionProducts, productID.String())
	if !ok {
		t.Fatalf("expected product in cache after refresh")
	}
	if entity.Name != "jollof pack" || entity.PricePesewas != 2500 {
		t.Fatalf("unexpected entity %+v", entity)
	}

	source.records[CollectionProducts] = nil
	if err := svc.RefreshCollection(context.Background(), CollectionProducts); err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if _, ok := svc.Get(CollectionProducts, productID.String()); ok {
		t.Fatalf("expected empty source to clear the collection")
	}
}

func TestRefreshCollectionSkipsUnusableRecords(t *testing.T) {
	t.Parallel()

	goodID := uuid.New()
	source := &stubSource{records: map[Collection][]Record{
		CollectionVendors: {
			{"name": "no id at all"},
			{"id": "not-a-uuid", "name": "bad id"},
			{"id": goodID.String(), "business_name": "chop bar"},
		},
	}}
	svc, _ := newTestService(t, source)

	if err := svc.RefreshCollection(context.Background(), CollectionVendors); err != nil {
		t.Fatalf("RefreshCollection: %v", err)
	}

	listed := svc.List(CollectionVendors)
	if len(listed) != 1 {
		t.Fatalf("expected 1 usable record, got %d", len(listed))
	}
	if listed[0].ID != goodID {
		t.Fatalf("expected %s, got %s", goodID, listed[0].ID)
	}
}

func TestRefreshFailureServesStaleAndDegrades(t *testing.T) {
	t.Parallel()

	riderID := uuid.New()
	source := &stubSource{records: map[Collection][]Record{
		CollectionRiders: {
			{"id": riderID.String(), "full_name": "Kwame"},
		},
	}}
	svc, _ := newTestService(t, source)

	if err := svc.RefreshCollection(context.Background(), CollectionRiders); err != nil {
		t.Fatalf("initial refresh: %v", err)
	}

	source.errs = map[Collection]error{CollectionRiders: errors.New("connection refused")}
	err := svc.RefreshCollection(context.Background(), CollectionRiders)
	if err == nil {
		t.Fatalf("expected refresh error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency code, got %s", pkgerrors.As(err).Code())
	}

	if _, ok := svc.Get(CollectionRiders, riderID.String()); !ok {
		t.Fatalf("expected stale rider to keep serving")
	}
	for _, status := range svc.Status() {
		if status.Collection != CollectionRiders {
			continue
		}
		if !status.Degraded {
			t.Fatalf("expected riders collection degraded")
		}
		if status.Count != 1 {
			t.Fatalf("expected stale count 1, got %d", status.Count)
		}
	}
}

func TestRefreshAllCoversEveryCollection(t *testing.T) {
	t.Parallel()

	source := &stubSource{errs: map[Collection]error{
		CollectionVendors: errors.New("boom"),
	}}
	svc, _ := newTestService(t, source)

	svc.RefreshAll(context.Background())

	for _, collection := range AllCollections {
		if source.calls[collection] != 1 {
			t.Fatalf("collection %s: expected 1 fetch, got %d", collection, source.calls[collection])
		}
	}
	for _, status := range svc.Status() {
		wantDegraded := status.Collection == CollectionVendors
		if status.Degraded != wantDegraded {
			t.Fatalf("collection %s: degraded=%v", status.Collection, status.Degraded)
		}
	}
}

func TestGetRejectsMalformedID(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, &stubSource{})
	if _, ok := svc.Get(CollectionProducts, "nope"); ok {
		t.Fatalf("expected malformed id lookup to miss")
	}
}
