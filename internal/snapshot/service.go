package snapshot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/GyabaahFelix/lynqed-backend/pkg/errors"
	"github.com/GyabaahFelix/lynqed-backend/pkg/logger"
	"github.com/GyabaahFelix/lynqed-backend/pkg/metrics"
)

// Source fetches the complete raw record set for one collection.
// Records come back as loosely keyed maps so upstream schema drift is
// absorbed by Normalize rather than by the fetch layer.
type Source interface {
	Fetch(ctx context.Context, collection Collection) ([]Record, error)
}

// Service coordinates wholesale cache refreshes. A refresh always
// replaces a collection in full; a failed fetch degrades the affected
// collection and keeps its previous entries serving.
type Service interface {
	RefreshAll(ctx context.Context)
	RefreshCollection(ctx context.Context, collection Collection) error
	Get(collection Collection, id string) (Entity, bool)
	List(collection Collection) []Entity
	Status() []CollectionStatus
	Run(ctx context.Context)
}

// ServiceParams groups dependencies for the snapshot service.
type ServiceParams struct {
	Source          Source
	Cache           *Cache
	Metrics         *metrics.RefreshMetrics
	Logger          *logger.Logger
	RefreshInterval time.Duration
}

type service struct {
	source          Source
	cache           *Cache
	metrics         *metrics.RefreshMetrics
	logg            *logger.Logger
	refreshInterval time.Duration
}

const defaultRefreshInterval = 5 * time.Minute

func NewService(params ServiceParams) (Service, error) {
	if params.Source == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "snapshot source is required")
	}
	if params.Cache == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "snapshot cache is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	interval := params.RefreshInterval
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	return &service{
		source:          params.Source,
		cache:           params.Cache,
		metrics:         params.Metrics,
		logg:            params.Logger,
		refreshInterval: interval,
	}, nil
}

// RefreshAll refreshes every collection concurrently and waits for all
// of them. A failing collection never blocks or aborts the others.
func (s *service) RefreshAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, collection := range AllCollections {
		wg.Add(1)
		go func(collection Collection) {
			defer wg.Done()
			if err := s.RefreshCollection(ctx, collection); err != nil {
				scoped := s.logg.WithField(ctx, "collection", string(collection))
				s.logg.Warn(scoped, "collection refresh failed, serving stale data")
			}
		}(collection)
	}
	wg.Wait()
}

// RefreshCollection replaces one collection wholesale. On fetch failure
// the previous entries stay live and the collection is marked degraded.
func (s *service) RefreshCollection(ctx context.Context, collection Collection) error {
	started := time.Now()
	records, err := s.source.Fetch(ctx, collection)
	if err != nil {
		s.cache.MarkDegraded(collection, err)
		if s.metrics != nil {
			s.metrics.IncFailure(string(collection))
			s.metrics.SetDegraded(string(collection), true)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch collection records")
	}

	entities := make([]Entity, 0, len(records))
	skipped := 0
	for _, record := range records {
		entity, err := Normalize(collection, record)
		if err != nil {
			skipped++
			continue
		}
		entities = append(entities, entity)
	}

	s.cache.Replace(collection, entities, time.Now())
	if s.metrics != nil {
		s.metrics.ObserveDuration(string(collection), time.Since(started))
		s.metrics.IncSuccess(string(collection))
		s.metrics.SetDegraded(string(collection), false)
	}

	if skipped > 0 {
		scoped := s.logg.WithFields(ctx, map[string]any{
			"collection": string(collection),
			"count":      len(entities),
			"skipped":    skipped,
		})
		s.logg.Warn(scoped, "collection refreshed with unusable records dropped")
	}
	return nil
}

func (s *service) Get(collection Collection, id string) (Entity, bool) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Entity{}, false
	}
	return s.cache.Get(collection, parsed)
}

func (s *service) List(collection Collection) []Entity {
	return s.cache.List(collection)
}

func (s *service) Status() []CollectionStatus {
	return s.cache.Status()
}

// Run performs an initial refresh and then refreshes on a fixed
// interval until the context is cancelled. Change-feed events trigger
// additional refreshes through the consumer.
func (s *service) Run(ctx context.Context) {
	s.RefreshAll(ctx)
	s.logg.Info(ctx, fmt.Sprintf("snapshot cache warmed, refreshing every %s", s.refreshInterval))

	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RefreshAll(ctx)
		}
	}
}
