package identity

import (
	"github.com/GyabaahFelix/lynqed-backend/internal/users"
	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
)

// RegisterRequest is the payload accepted by POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone" validate:"omitempty,e164"`
}

// LoginRequest is the payload accepted by POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// GuestRequest is the payload accepted by POST /auth/guest. The email
// identifies the buyer; orders attach to it and a later password
// recovery against it upgrades the guest into a full account.
type GuestRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
}

// RefreshRequest carries the rotation inputs for POST /auth/refresh.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// SwitchRoleRequest selects which held role the session operates as.
// The refresh token funds the rotation onto the new role.
type SwitchRoleRequest struct {
	Role         string `json:"role" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// SessionResponse is returned from every flow that mints tokens.
type SessionResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	ActiveRole   enums.Role       `json:"active_role"`
	Roles        []enums.Role     `json:"roles"`
	User         users.ProfileDTO `json:"user"`
}
