package vendors

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/GyabaahFelix/lynqed-backend/pkg/db/models"
	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
)

// Repository encapsulates vendor persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a vendor repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the supplied transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads a vendor by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.db.WithContext(ctx).First(&vendor, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

// FindByOwner loads the storefront owned by a user.
func (r *Repository) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := r.db.WithContext(ctx).First(&vendor, "owner_id = ?", ownerID).Error; err != nil {
		return nil, err
	}
	return &vendor, nil
}

// Create inserts a new vendor row.
func (r *Repository) Create(ctx context.Context, vendor *models.Vendor) error {
	return r.db.WithContext(ctx).Create(vendor).Error
}

// Update persists all mutable fields of the vendor.
func (r *Repository) Update(ctx context.Context, vendor *models.Vendor) error {
	return r.db.WithContext(ctx).Save(vendor).Error
}

// SetApproval moves the storefront through admin review.
func (r *Repository) SetApproval(ctx context.Context, id uuid.UUID, status enums.VendorApprovalStatus) error {
	return r.db.WithContext(ctx).Model(&models.Vendor{}).
		Where("id = ?", id).
		Update("approval_status", status).Error
}

// ListByApproval returns vendors filtered by review state, newest first.
func (r *Repository) ListByApproval(ctx context.Context, status *enums.VendorApprovalStatus, limit, offset int) ([]models.Vendor, error) {
	query := r.db.WithContext(ctx).Model(&models.Vendor{}).Order("created_at DESC")
	if status != nil {
		query = query.Where("approval_status = ?", *status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []models.Vendor
	err := query.Find(&rows).Error
	return rows, err
}

// ListApproved returns every approved storefront.
func (r *Repository) ListApproved(ctx context.Context) ([]models.Vendor, error) {
	var rows []models.Vendor
	err := r.db.WithContext(ctx).
		Where("approval_status = ?", enums.VendorApprovalApproved).
		Find(&rows).Error
	return rows, err
}
