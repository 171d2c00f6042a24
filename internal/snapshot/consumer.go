package snapshot

import (
	"context"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
	"github.com/GyabaahFelix/lynqed-backend/pkg/logger"
	"github.com/GyabaahFelix/lynqed-backend/pkg/metrics"
	"github.com/GyabaahFelix/lynqed-backend/pkg/outbox/idempotency"
)

const snapshotConsumer = "snapshot-refresh"

// Consumer watches the change feed and refreshes the affected cache
// collection when catalog data changes.
type Consumer struct {
	service      Service
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	metrics      *metrics.ConsumerMetrics
	logg         *logger.Logger
}

// NewConsumer builds a cache refresh consumer.
func NewConsumer(service Service, subscription *pubsub.Subscriber, manager *idempotency.Manager, consumerMetrics *metrics.ConsumerMetrics, logg *logger.Logger) (*Consumer, error) {
	if service == nil {
		return nil, fmt.Errorf("snapshot service required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("change feed subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		service:      service,
		subscription: subscription,
		idempotency:  manager,
		metrics:      consumerMetrics,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) bool {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	collections := collectionsForEvent(enums.OutboxEventType(eventType))
	if len(collections) == 0 {
		return true
	}

	eventID, err := uuid.Parse(msg.Attributes["event_id"])
	if err != nil {
		c.logg.Error(logCtx, "invalid event id attribute", err)
		return true
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, snapshotConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return false
	}
	if already {
		return true
	}

	for _, collection := range collections {
		if err := c.service.RefreshCollection(ctx, collection); err != nil {
			c.logg.Error(logCtx, "collection refresh failed", err)
			if c.metrics != nil {
				c.metrics.IncFailed(snapshotConsumer, eventType)
			}
			_ = c.idempotency.Delete(ctx, snapshotConsumer, eventID)
			return false
		}
	}

	if c.metrics != nil {
		c.metrics.IncProcessed(snapshotConsumer, eventType)
	}
	c.logg.Info(logCtx, "cache collections refreshed from change feed")
	return true
}

// collectionsForEvent maps a change-feed event onto the cache
// collections it can invalidate. Vendor changes also touch products
// because the feed only lists items from approved vendors.
func collectionsForEvent(eventType enums.OutboxEventType) []Collection {
	switch eventType {
	case enums.OutboxEventProductChanged:
		return []Collection{CollectionProducts}
	case enums.OutboxEventVendorChanged:
		return []Collection{CollectionVendors, CollectionProducts}
	case enums.OutboxEventOrderPlaced, enums.OutboxEventOrderStatusChange:
		return []Collection{CollectionOrders}
	case enums.OutboxEventOrderAssigned:
		return []Collection{CollectionOrders, CollectionRiders}
	case enums.OutboxEventUserBanned:
		return []Collection{CollectionVendors, CollectionRiders, CollectionProfiles}
	default:
		return nil
	}
}
