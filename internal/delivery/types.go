package delivery

import (
	"time"

	"github.com/google/uuid"

	"github.com/GyabaahFelix/lynqed-backend/pkg/db/models"
	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
)

// UpsertProfileInput carries a rider registration or edit.
type UpsertProfileInput struct {
	VehicleType string  `json:"vehicle_type" validate:"required"`
	Phone       *string `json:"phone" validate:"omitempty,min=7,max=20"`
}

// TransitionInput carries an admin decision on a rider application.
type TransitionInput struct {
	Status string `json:"status" validate:"required"`
}

// ListFilter narrows the admin application listing.
type ListFilter struct {
	Status string
	Limit  int
	Offset int
}

// ProfileDTO is the rider profile shape returned to clients.
type ProfileDTO struct {
	ID            uuid.UUID                  `json:"id"`
	UserID        uuid.UUID                  `json:"user_id"`
	VehicleType   enums.VehicleType          `json:"vehicle_type"`
	Status        enums.DeliveryPersonStatus `json:"status"`
	Phone         *string                    `json:"phone,omitempty"`
	CompletedJobs int64                      `json:"completed_jobs"`
	Rating        *float64                   `json:"rating,omitempty"`
	LastSeenAt    *time.Time                 `json:"last_seen_at,omitempty"`
	CreatedAt     time.Time                  `json:"created_at"`
}

// StatsDTO summarizes a rider's delivery history.
type StatsDTO struct {
	CompletedJobs int64    `json:"completed_jobs"`
	ActiveJobs    int      `json:"active_jobs"`
	Rating        *float64 `json:"rating,omitempty"`
}

// FromModel converts a rider profile row into the client-facing shape.
func FromModel(rider *models.DeliveryPerson) ProfileDTO {
	return ProfileDTO{
		ID:            rider.ID,
		UserID:        rider.UserID,
		VehicleType:   rider.VehicleType,
		Status:        rider.Status,
		Phone:         rider.Phone,
		CompletedJobs: rider.CompletedJobs,
		Rating:        averageRating(rider.RatingSum, rider.RatingCount),
		LastSeenAt:    rider.LastSeenAt,
		CreatedAt:     rider.CreatedAt,
	}
}

func averageRating(sum, count int64) *float64 {
	if count <= 0 {
		return nil
	}
	avg := float64(sum) / float64(count)
	return &avg
}
