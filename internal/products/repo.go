package products

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/GyabaahFelix/lynqed-backend/pkg/db/models"
	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
)

// Repository encapsulates product persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a product repository bound to the provided gorm DB.
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

// FindByID loads a product by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads several products at once.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Product
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error
	return rows, err
}

// Create inserts a new product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// Update persists all mutable fields of the product.
func (r *Repository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// SetStatus records a moderation verdict.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status enums.ProductStatus) error {
	return r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// Delete removes the listing row. Order history keeps its own snapshot
// of the product, so nothing else references it.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id).Error
}

// ListByVendor returns every listing owned by the vendor, newest
// first, whatever its moderation state.
func (r *Repository) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// ListByStatus pages the moderation queue, oldest submissions first so
// admins work through the backlog in arrival order.
func (r *Repository) ListByStatus(ctx context.Context, status enums.ProductStatus, limit, offset int) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	return rows, err
}

// FeedFilter narrows the buyer product feed.
type FeedFilter struct {
	Category *string
	Search   string
	Limit    int
	Offset   int
}

// ListFeed returns approved listings from approved storefronts only.
func (r *Repository) ListFeed(ctx context.Context, filter FeedFilter) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{}).
		Joins("JOIN vendors v ON v.id = products.vendor_id").
		Where("v.approval_status = ?", enums.VendorApprovalApproved).
		Where("products.status = ?", enums.ProductStatusApproved).
		Order("products.created_at DESC")

	if filter.Category != nil && *filter.Category != "" {
		query = query.Where("products.category = ?", *filter.Category)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(products.name) LIKE ? OR LOWER(COALESCE(products.description, '')) LIKE ?", like, like)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var rows []models.Product
	err := query.Find(&rows).Error
	return rows, err
}

// DecrementStock conditionally reduces tracked stock, refusing oversell.
// Listings with NULL stock are untracked and always succeed.
func (r *Repository) DecrementStock(tx *gorm.DB, id uuid.UUID, quantity int) (bool, error) {
	result := tx.Exec(`
		UPDATE products
		SET stock = stock - ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND (stock IS NULL OR stock >= ?)`,
		quantity, id, quantity)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
