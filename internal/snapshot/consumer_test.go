package snapshot

import (
	"testing"

	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
)

func TestCollectionsForEvent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		event enums.OutboxEventType
		want  []Collection
	}{
		{enums.OutboxEventProductChanged, []Collection{CollectionProducts}},
		{enums.OutboxEventVendorChanged, []Collection{CollectionVendors, CollectionProducts}},
		{enums.OutboxEventOrderPlaced, []Collection{CollectionOrders}},
		{enums.OutboxEventOrderStatusChange, []Collection{CollectionOrders}},
		{enums.OutboxEventOrderAssigned, []Collection{CollectionOrders, CollectionRiders}},
		{enums.OutboxEventUserBanned, []Collection{CollectionVendors, CollectionRiders, CollectionProfiles}},
		{enums.OutboxEventType("unknown.event"), nil},
	}

	for _, tc := range cases {
		got := collectionsForEvent(tc.event)
		if len(got) != len(tc.want) {
			t.Fatalf("%s: expected %d collections, got %d", tc.event, len(tc.want), len(got))
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("%s: position %d expected %s, got %s", tc.event, i, tc.want[i], got[i])
			}
		}
	}
}
