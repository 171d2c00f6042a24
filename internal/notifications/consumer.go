package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/GyabaahFelix/lynqed-backend/pkg/db/models"
	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
	"github.com/GyabaahFelix/lynqed-backend/pkg/logger"
	"github.com/GyabaahFelix/lynqed-backend/pkg/metrics"
	"github.com/GyabaahFelix/lynqed-backend/pkg/outbox"
	"github.com/GyabaahFelix/lynqed-backend/pkg/outbox/idempotency"
)

const orderNotificationConsumer = "order-notifications"

// vendorLookup resolves the storefront owner for vendor-facing
// notifications.
type vendorLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
}

// Consumer watches the change feed and turns order lifecycle events
// into feed entries for the affected buyer and vendor.
type Consumer struct {
	repo         *Repository
	vendors      vendorLookup
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	metrics      *metrics.ConsumerMetrics
	logg         *logger.Logger
}

// NewConsumer builds an order notification consumer.
func NewConsumer(repo *Repository, vendors vendorLookup, subscription *pubsub.Subscriber, manager *idempotency.Manager, consumerMetrics *metrics.ConsumerMetrics, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if vendors == nil {
		return nil, fmt.Errorf("vendor lookup required")
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
		repo:         repo,
		vendors:      vendors,
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
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType.String(),
	})

	if !handledEvent(eventType) {
		return true
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return true
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return true
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, orderNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return false
	}
	if already {
		return true
	}

	if err := c.handle(ctx, eventType, envelope.Data, logCtx); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		if c.metrics != nil {
			c.metrics.IncFailed(orderNotificationConsumer, eventType.String())
		}
		_ = c.idempotency.Delete(ctx, orderNotificationConsumer, eventID)
		return false
	}

	if c.metrics != nil {
		c.metrics.IncProcessed(orderNotificationConsumer, eventType.String())
	}
	return true
}

func handledEvent(eventType enums.OutboxEventType) bool {
	switch eventType {
	case enums.OutboxEventOrderPlaced,
		enums.OutboxEventOrderStatusChange,
		enums.OutboxEventOrderAssigned,
		enums.OutboxEventUserBanned:
		return true
	default:
		return false
	}
}

func (c *Consumer) handle(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage, logCtx context.Context) error {
	switch eventType {
	case enums.OutboxEventOrderPlaced:
		var payload orderPlacedPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notifyOrderPlaced(ctx, payload)
	case enums.OutboxEventOrderStatusChange:
		var payload statusChangedPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notifyStatusChanged(ctx, payload)
	case enums.OutboxEventOrderAssigned:
		var payload assignedPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notifyAssigned(ctx, payload)
	case enums.OutboxEventUserBanned:
		var payload userBannedPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		return c.notifyBanned(ctx, payload)
	default:
		c.logg.Info(logCtx, "event not handled")
		return nil
	}
}

func (c *Consumer) notifyOrderPlaced(ctx context.Context, payload orderPlacedPayload) error {
	owner, err := c.vendorOwner(ctx, payload.VendorID)
	if err != nil {
		return err
	}
	return c.create(ctx, owner, enums.NotificationTypeOrderPlaced,
		"New order received",
		fmt.Sprintf("Order %s has %d item(s) waiting for your confirmation.", payload.Reference, payload.ItemCount),
		payload)
}

func (c *Consumer) notifyStatusChanged(ctx context.Context, payload statusChangedPayload) error {
	body := fmt.Sprintf("Order %s is now %s.", payload.Reference, payload.To)
	if payload.To == enums.OrderStatusDeclined && payload.Reason != nil {
		body = fmt.Sprintf("Order %s was declined: %s", payload.Reference, *payload.Reason)
	}
	if err := c.create(ctx, payload.BuyerID, enums.NotificationTypeOrderUpdated, "Order update", body, payload); err != nil {
		return err
	}

	// The storefront hears about delivery completion; the other steps
	// are its own actions.
	if payload.To == enums.OrderStatusDelivered {
		owner, err := c.vendorOwner(ctx, payload.VendorID)
		if err != nil {
			return err
		}
		return c.create(ctx, owner, enums.NotificationTypeOrderUpdated,
			"Order delivered",
			fmt.Sprintf("Order %s has been delivered.", payload.Reference),
			payload)
	}
	return nil
}

func (c *Consumer) notifyAssigned(ctx context.Context, payload assignedPayload) error {
	if err := c.create(ctx, payload.BuyerID, enums.NotificationTypeOrderAssigned,
		"Rider assigned",
		fmt.Sprintf("A rider accepted the delivery for order %s.", payload.Reference),
		payload); err != nil {
		return err
	}
	owner, err := c.vendorOwner(ctx, payload.VendorID)
	if err != nil {
		return err
	}
	return c.create(ctx, owner, enums.NotificationTypeOrderAssigned,
		"Rider on the way",
		fmt.Sprintf("A rider will pick up order %s.", payload.Reference),
		payload)
}

func (c *Consumer) notifyBanned(ctx context.Context, payload userBannedPayload) error {
	if !payload.Banned {
		return nil
	}
	return c.create(ctx, payload.UserID, enums.NotificationTypeAccount,
		"Account suspended",
		"Your account has been suspended by a moderator.",
		payload)
}

func (c *Consumer) create(ctx context.Context, userID uuid.UUID, notificationType enums.NotificationType, title, body string, payload any) error {
	if userID == uuid.Nil {
		return fmt.Errorf("recipient missing")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.repo.Create(ctx, &models.Notification{
		UserID:  userID,
		Type:    notificationType,
		Title:   title,
		Body:    body,
		Payload: raw,
	})
}

func (c *Consumer) vendorOwner(ctx context.Context, vendorID uuid.UUID) (uuid.UUID, error) {
	vendor, err := c.vendors.FindByID(ctx, vendorID)
	if err != nil {
		return uuid.Nil, err
	}
	return vendor.OwnerID, nil
}

type orderPlacedPayload struct {
	OrderID   uuid.UUID `json:"order_id"`
	Reference string    `json:"reference"`
	BuyerID   uuid.UUID `json:"buyer_id"`
	VendorID  uuid.UUID `json:"vendor_id"`
	ItemCount int       `json:"item_count"`
}

type statusChangedPayload struct {
	OrderID   uuid.UUID         `json:"order_id"`
	Reference string            `json:"reference"`
	BuyerID   uuid.UUID         `json:"buyer_id"`
	VendorID  uuid.UUID         `json:"vendor_id"`
	From      enums.OrderStatus `json:"from"`
	To        enums.OrderStatus `json:"to"`
	Reason    *string           `json:"reason,omitempty"`
}

type assignedPayload struct {
	OrderID          uuid.UUID `json:"order_id"`
	Reference        string    `json:"reference"`
	BuyerID          uuid.UUID `json:"buyer_id"`
	VendorID         uuid.UUID `json:"vendor_id"`
	DeliveryPersonID uuid.UUID `json:"delivery_person_id"`
}

type userBannedPayload struct {
	UserID uuid.UUID `json:"user_id"`
	Banned bool      `json:"banned"`
}
