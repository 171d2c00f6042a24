package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/GyabaahFelix/lynqed-backend/pkg/db/models"
	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
)

// Repository encapsulates order persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an order repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts the order together with its item snapshots.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByID loads an order with its items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByReference loads an order by its human-facing reference.
func (r *Repository) FindByReference(ctx context.Context, reference string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "reference = ?", reference).
		Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByBuyer returns the buyer's orders newest first.
func (r *Repository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, status *enums.OrderStatus, limit, offset int) ([]models.Order, error) {
	return r.list(ctx, "buyer_id = ?", buyerID, status, limit, offset)
}

// ListByVendor returns the storefront's orders newest first.
func (r *Repository) ListByVendor(ctx context.Context, vendorID uuid.UUID, status *enums.OrderStatus, limit, offset int) ([]models.Order, error) {
	return r.list(ctx, "vendor_id = ?", vendorID, status, limit, offset)
}

// ListByDeliveryPerson returns the rider's jobs newest first.
func (r *Repository) ListByDeliveryPerson(ctx context.Context, deliveryPersonID uuid.UUID, status *enums.OrderStatus, limit, offset int) ([]models.Order, error) {
	return r.list(ctx, "delivery_person_id = ?", deliveryPersonID, status, limit, offset)
}

// ListOpenJobs returns unassigned delivery orders that are ready to be
// picked up, oldest first so waiting orders get claimed first.
func (r *Repository) ListOpenJobs(ctx context.Context, limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ? AND delivery_option = ? AND delivery_person_id IS NULL",
			enums.OrderStatusReadyForPickup, enums.DeliveryOptionDelivery).
		Order("placed_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&orders).
		Error
	return orders, err
}

// CountActiveForRider counts the rider's undelivered claimed jobs.
func (r *Repository) CountActiveForRider(ctx context.Context, deliveryPersonID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("delivery_person_id = ? AND status IN ?", deliveryPersonID, []enums.OrderStatus{
			enums.OrderStatusAssigned,
			enums.OrderStatusPickedUp,
			enums.OrderStatusInRoute,
		}).
		Count(&count).
		Error
	return int(count), err
}

// AdvanceStatus moves the order from one exact status to another.
// The compare-and-set guard makes concurrent transitions lose cleanly
// instead of double-applying.
func (r *Repository) AdvanceStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	updates := map[string]any{"status": to, "updated_at": time.Now()}
	if to == enums.OrderStatusDelivered {
		updates["delivered_at"] = time.Now()
	}
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Decline marks the order declined with the vendor's reason, only
// while it is still in a declinable status.
func (r *Repository) Decline(ctx context.Context, id uuid.UUID, from enums.OrderStatus, reason string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":         enums.OrderStatusDeclined,
			"decline_reason": reason,
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Assign claims an open delivery job for a rider. The guard on status
// and delivery_person_id makes the first accepting rider win and every
// later attempt report false.
func (r *Repository) Assign(ctx context.Context, id, deliveryPersonID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ? AND delivery_option = ? AND delivery_person_id IS NULL",
			id, enums.OrderStatusReadyForPickup, enums.DeliveryOptionDelivery).
		Updates(map[string]any{
			"status":             enums.OrderStatusAssigned,
			"delivery_person_id": deliveryPersonID,
			"updated_at":         time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) list(ctx context.Context, scope string, scopeID uuid.UUID, status *enums.OrderStatus, limit, offset int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where(scope, scopeID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var orders []models.Order
	err := query.
		Order("placed_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).
		Error
	return orders, err
}
