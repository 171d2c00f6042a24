package delivery

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/GyabaahFelix/lynqed-backend/pkg/db/models"
	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
)

// Repository encapsulates rider profile persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a delivery repository bound to the provided gorm DB.
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

// FindByID loads one rider profile.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryPerson, error) {
	var rider models.DeliveryPerson
	if err := r.db.WithContext(ctx).First(&rider, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rider, nil
}

// FindByUser loads the rider profile attached to a user account.
func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.DeliveryPerson, error) {
	var rider models.DeliveryPerson
	if err := r.db.WithContext(ctx).First(&rider, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &rider, nil
}

// Create inserts a new rider profile.
func (r *Repository) Create(ctx context.Context, rider *models.DeliveryPerson) error {
	return r.db.WithContext(ctx).Create(rider).Error
}

// Update persists the full rider profile row.
func (r *Repository) Update(ctx context.Context, rider *models.DeliveryPerson) error {
	return r.db.WithContext(ctx).Save(rider).Error
}

// SetStatus overwrites the rider's application status.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status enums.DeliveryPersonStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.DeliveryPerson{}).
		Where("id = ?", id).
		Update("status", status).
		Error
}

// IncrementCompleted bumps the rider's completed job counter.
func (r *Repository) IncrementCompleted(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.DeliveryPerson{}).
		Where("id = ?", id).
		Update("completed_jobs", gorm.Expr("completed_jobs + 1")).
		Error
}

// List returns rider applications newest first, optionally filtered by
// status.
func (r *Repository) List(ctx context.Context, status *enums.DeliveryPersonStatus, limit, offset int) ([]models.DeliveryPerson, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var riders []models.DeliveryPerson
	err := query.Limit(limit).Offset(offset).Find(&riders).Error
	return riders, err
}
