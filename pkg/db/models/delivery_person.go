package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
)

// DeliveryPerson is a rider application row. Each user holds at most
// one; the status is owned by admins and drives the delivery_person
// role on the account.
type DeliveryPerson struct {
	ID            uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID                  `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	VehicleType   enums.VehicleType          `gorm:"column:vehicle_type;not null"`
	Status        enums.DeliveryPersonStatus `gorm:"column:status;not null;default:'pending'"`
	Phone         *string                    `gorm:"column:phone"`
	CompletedJobs int64                      `gorm:"column:completed_jobs;not null;default:0"`
	RatingSum     int64                      `gorm:"column:rating_sum;not null;default:0"`
	RatingCount   int64                      `gorm:"column:rating_count;not null;default:0"`
	LastSeenAt    *time.Time                 `gorm:"column:last_seen_at"`
	CreatedAt     time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}
