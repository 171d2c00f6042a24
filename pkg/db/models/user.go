package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// User represents the canonical identity entity. Roles is the full set
// of capabilities the account holds; every account carries at least
// "buyer".
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string         `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	FullName     string         `gorm:"column:full_name;not null"`
	Phone        *string        `gorm:"column:phone"`
	PhotoURL     *string        `gorm:"column:photo_url"`
	Hostel       *string        `gorm:"column:hostel"`
	RoomNumber   *string        `gorm:"column:room_number"`
	Roles        pq.StringArray `gorm:"column:roles;type:text[];not null;default:ARRAY['buyer']::text[]"`
	Banned       bool           `gorm:"column:banned;not null;default:false"`
	IsGuest      bool           `gorm:"column:is_guest;not null;default:false"`
	LastLoginAt  *time.Time     `gorm:"column:last_login_at"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
