package users

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/GyabaahFelix/lynqed-backend/pkg/db/models"
	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
)

// Repository encapsulates user persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a user repository bound to the provided gorm DB.
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

// FindByID loads a user by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail loads a user by normalized email address.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	normalized := strings.ToLower(strings.TrimSpace(email))
	if err := r.db.WithContext(ctx).First(&user, "email = ?", normalized).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts a new user row.
func (r *Repository) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return r.db.WithContext(ctx).Create(user).Error
}

// Update persists all mutable fields of the user.
func (r *Repository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// TouchLastLogin stamps the most recent successful login.
func (r *Repository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("last_login_at", at).Error
}

// AddRole appends a role to the user's set when not already present.
func (r *Repository) AddRole(ctx context.Context, id uuid.UUID, role enums.Role) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE users
		SET roles = array_append(roles, ?), updated_at = NOW()
		WHERE id = ? AND NOT (? = ANY(roles))`,
		role.String(), id, role.String()).Error
}

// RemoveRole drops a role from the user's set.
func (r *Repository) RemoveRole(ctx context.Context, id uuid.UUID, role enums.Role) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE users
		SET roles = array_remove(roles, ?), updated_at = NOW()
		WHERE id = ?`,
		role.String(), id).Error
}

// SetBanned flips the suspension flag.
func (r *Repository) SetBanned(ctx context.Context, id uuid.UUID, banned bool) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("banned", banned).Error
}

// List returns users filtered by an optional role and ban state, newest first.
func (r *Repository) List(ctx context.Context, role *enums.Role, banned *bool, limit, offset int) ([]models.User, error) {
	query := r.db.WithContext(ctx).Model(&models.User{}).Order("created_at DESC")
	if role != nil {
		query = query.Where("? = ANY(roles)", role.String())
	}
	if banned != nil {
		query = query.Where("banned = ?", *banned)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []models.User
	err := query.Find(&rows).Error
	return rows, err
}

// Roles decodes the stored role strings, dropping anything unparseable.
func Roles(user *models.User) []enums.Role {
	if user == nil {
		return nil
	}
	return parseRoles(user.Roles)
}

func parseRoles(raw pq.StringArray) []enums.Role {
	roles := make([]enums.Role, 0, len(raw))
	for _, value := range raw {
		role, err := enums.ParseRole(value)
		if err != nil {
			continue
		}
		roles = append(roles, role)
	}
	if len(roles) == 0 {
		roles = append(roles, enums.RoleBuyer)
	}
	return roles
}
