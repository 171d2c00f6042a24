package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/GyabaahFelix/lynqed-backend/pkg/db/models"
	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
)

// ProfileDTO is the account shape returned to clients.
type ProfileDTO struct {
	ID          uuid.UUID    `json:"id"`
	Email       string       `json:"email"`
	FullName    string       `json:"full_name"`
	Phone       *string      `json:"phone,omitempty"`
	PhotoURL    *string      `json:"photo_url,omitempty"`
	Hostel      *string      `json:"hostel,omitempty"`
	RoomNumber  *string      `json:"room_number,omitempty"`
	Roles       []enums.Role `json:"roles"`
	Banned      bool         `json:"banned"`
	IsGuest     bool         `json:"is_guest"`
	LastLoginAt *time.Time   `json:"last_login_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// UpdateProfileInput carries optional profile edits; nil means unchanged.
type UpdateProfileInput struct {
	FullName   string  `json:"full_name"`
	Phone      *string `json:"phone"`
	Hostel     *string `json:"hostel"`
	RoomNumber *string `json:"room_number"`
	PhotoURL   *string `json:"photo_url"`
}

// ListUsersFilter narrows the admin user listing.
type ListUsersFilter struct {
	Role   *enums.Role
	Banned *bool
	Limit  int
	Offset int
}

// FromModel converts a user row into the client-facing profile shape.
func FromModel(user *models.User) ProfileDTO {
	return toProfileDTO(user)
}

func toProfileDTO(user *models.User) ProfileDTO {
	return ProfileDTO{
		ID:          user.ID,
		Email:       user.Email,
		FullName:    user.FullName,
		Phone:       user.Phone,
		PhotoURL:    user.PhotoURL,
		Hostel:      user.Hostel,
		RoomNumber:  user.RoomNumber,
		Roles:       Roles(user),
		Banned:      user.Banned,
		IsGuest:     user.IsGuest,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}
