package snapshot

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Cache holds the latest normalized entity sets. Reads never block a
// refresh: each refresh swaps in a freshly built map under the write
// lock, and a failed refresh leaves the previous set untouched.
type Cache struct {
	mu          sync.RWMutex
	collections map[Collection]*collectionState
}

type collectionState struct {
	entities    map[uuid.UUID]Entity
	order       []uuid.UUID
	refreshedAt time.Time
	degraded    bool
	lastError   string
}

// NewCache builds an empty cache with every collection registered.
func NewCache() *Cache {
	states := make(map[Collection]*collectionState, len(AllCollections))
	for _, collection := range AllCollections {
		states[collection] = &collectionState{entities: map[uuid.UUID]Entity{}}
	}
	return &Cache{collections: states}
}

// Replace swaps in a complete new entity set for the collection.
func (c *Cache) Replace(collection Collection, entities []Entity, at time.Time) {
	byID := make(map[uuid.UUID]Entity, len(entities))
	order := make([]uuid.UUID, 0, len(entities))
	for _, entity := range entities {
		if _, seen := byID[entity.ID]; !seen {
			order = append(order, entity.ID)
		}
		byID[entity.ID] = entity
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	state := c.state(collection)
	state.entities = byID
	state.order = order
	state.refreshedAt = at
	state.degraded = false
	state.lastError = ""
}

// MarkDegraded records a failed refresh while keeping stale data live.
func (c *Cache) MarkDegraded(collection Collection, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	state := c.state(collection)
	state.degraded = true
	if err != nil {
		state.lastError = err.Error()
	}
}

// Get returns one cached entity by ID.
func (c *Cache) Get(collection Collection, id uuid.UUID) (Entity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entity, ok := c.state(collection).entities[id]
	return entity, ok
}

// List returns the full cached set in refresh order.
func (c *Cache) List(collection Collection) []Entity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	state := c.state(collection)
	out := make([]Entity, 0, len(state.order))
	for _, id := range state.order {
		if entity, ok := state.entities[id]; ok {
			out = append(out, entity)
		}
	}
	return out
}

// Status reports per-collection health for the ops surface.
func (c *Cache) Status() []CollectionStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]CollectionStatus, 0, len(AllCollections))
	for _, collection := range AllCollections {
		state := c.state(collection)
		out = append(out, CollectionStatus{
			Collection:  collection,
			Count:       len(state.entities),
			Degraded:    state.degraded,
			RefreshedAt: state.refreshedAt,
			LastError:   state.lastError,
		})
	}
	return out
}

func (c *Cache) state(collection Collection) *collectionState {
	state, ok := c.collections[collection]
	if !ok {
		state = &collectionState{entities: map[uuid.UUID]Entity{}}
		c.collections[collection] = state
	}
	return state
}
