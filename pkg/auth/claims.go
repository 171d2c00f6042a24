package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID     uuid.UUID
	Roles      []enums.Role
	ActiveRole enums.Role
	IsGuest    bool
	JTI        string
}

// AccessTokenClaims represents the typed JWT issued to clients. Roles
// is the full capability set; ActiveRole is the surface the session is
// currently operating as.
type AccessTokenClaims struct {
	UserID     uuid.UUID    `json:"user_id"`
	Roles      []enums.Role `json:"roles"`
	ActiveRole enums.Role   `json:"active_role"`
	IsGuest    bool         `json:"is_guest,omitempty"`
	jwt.RegisteredClaims
}
