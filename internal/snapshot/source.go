package snapshot

import (
	"context"
	"fmt"

	"github.com/GyabaahFelix/lynqed-backend/pkg/db"
	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
	pkgerrors "github.com/GyabaahFelix/lynqed-backend/pkg/errors"
)

// DBSource reads collections straight from Postgres. Rows are scanned
// into loose maps so the fetch survives column additions without a
// struct change.
type DBSource struct {
	db *db.Client
}

func NewDBSource(client *db.Client) (*DBSource, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db client is required")
	}
	return &DBSource{db: client}, nil
}

func (s *DBSource) Fetch(ctx context.Context, collection Collection) ([]Record, error) {
	query, args := collectionQuery(collection)
	if query == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown collection %q", collection))
	}

	rows := make([]map[string]any, 0, 256)
	if err := s.db.DB().WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, Record(row))
	}
	return out, nil
}

func collectionQuery(collection Collection) (string, []any) {
	switch collection {
	case CollectionProducts:
		return `SELECT p.id, p.vendor_id, p.name, p.description, p.category,
				p.price_pesewas, p.currency, p.images, p.status, p.stock
			FROM products p
			JOIN vendors v ON v.id = p.vendor_id
			WHERE p.status = ? AND v.approval_status = ?`,
			[]any{enums.ProductStatusApproved, enums.VendorApprovalApproved}
	case CollectionVendors:
		return `SELECT id, owner_id, business_name, description, category, location_name,
				lat, lng, approval_status, rating_sum, rating_count
			FROM vendors
			WHERE approval_status = ?`,
			[]any{enums.VendorApprovalApproved}
	case CollectionOrders:
		return `SELECT id, reference, buyer_id, vendor_id, delivery_person_id, status,
				delivery_option, subtotal_pesewas, delivery_fee_pesewas, total_pesewas, placed_at
			FROM orders`, nil
	case CollectionRiders:
		return `SELECT d.id, d.user_id, u.full_name, d.vehicle_type, d.status,
				d.completed_jobs, d.rating_sum, d.rating_count
			FROM delivery_persons d
			JOIN users u ON u.id = d.user_id`, nil
	case CollectionProfiles:
		return `SELECT id, full_name, email, roles, banned, created_at
			FROM users`, nil
	default:
		return "", nil
	}
}
