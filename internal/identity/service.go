package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/GyabaahFelix/lynqed-backend/internal/users"
	pkgAuth "github.com/GyabaahFelix/lynqed-backend/pkg/auth"
	"github.com/GyabaahFelix/lynqed-backend/pkg/auth/session"
	"github.com/GyabaahFelix/lynqed-backend/pkg/config"
	"github.com/GyabaahFelix/lynqed-backend/pkg/db"
	"github.com/GyabaahFelix/lynqed-backend/pkg/db/models"
	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
	pkgerrors "github.com/GyabaahFelix/lynqed-backend/pkg/errors"
	"github.com/GyabaahFelix/lynqed-backend/pkg/logger"
	"github.com/GyabaahFelix/lynqed-backend/pkg/security"
)

const (
	invalidCredentialsMessage = "invalid credentials"
	guestPasswordLength       = 32
	lastRoleTTL               = 90 * 24 * time.Hour
)

// userRepository is the slice of the users repo the resolver needs.
type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type sessionManager interface {
	Generate(ctx context.Context, userID, accessID string) (string, error)
	Rotate(ctx context.Context, userID, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, userID, accessID string) error
}

// roleStore remembers which role a user last operated as.
type roleStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	LastRoleKey(userID string) string
}

// cartClearer empties a user's cart when their session ends. Favorites
// are not touched.
type cartClearer interface {
	Clear(ctx context.Context, userID uuid.UUID) error
}

// ServiceParams bundles the dependencies required to build the resolver.
type ServiceParams struct {
	UserRepo       userRepository
	SessionManager sessionManager
	RoleStore      roleStore
	Cart           cartClearer
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

// Service resolves sessions to an active role and manages their lifecycle.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*SessionResponse, error)
	Login(ctx context.Context, req LoginRequest) (*SessionResponse, error)
	Guest(ctx context.Context, req GuestRequest) (*SessionResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*SessionResponse, error)
	Logout(ctx context.Context, userID uuid.UUID, accessID string) error
	SwitchRole(ctx context.Context, userID uuid.UUID, accessID string, refreshToken string, role enums.Role) (*SessionResponse, error)
}

type service struct {
	users   userRepository
	session sessionManager
	roles   roleStore
	cart    cartClearer
	jwtCfg  config.JWTConfig
	passCfg config.PasswordConfig
	logg    *logger.Logger
}

// NewService constructs the session/role resolver.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.RoleStore == nil {
		return nil, fmt.Errorf("role store is required")
	}
	if params.Cart == nil {
		return nil, fmt.Errorf("cart clearer is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		users:   params.UserRepo,
		session: params.SessionManager,
		roles:   params.RoleStore,
		cart:    params.Cart,
		jwtCfg:  params.JWTConfig,
		passCfg: params.PasswordConfig,
		logg:    params.Logger,
	}, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*SessionResponse, error) {
	hash, err := security.HashPassword(req.Password, s.passCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		Roles:        []string{enums.RoleBuyer.String()},
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		user.Phone = &phone
	}

	if err := s.users.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	return s.issueSession(ctx, user, enums.RoleBuyer)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*SessionResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update last login")
	}
	user.LastLoginAt = &now

	active := s.resolveActiveRole(ctx, user)
	s.rememberRole(ctx, user.ID, active)
	return s.issueSession(ctx, user, active)
}

// Guest creates a buyer account from the supplied email so checkout can
// attach orders to a user row. The random credential is never shared;
// recovering the password on that email upgrades the guest into a full
// account.
func (s *service) Guest(ctx context.Context, req GuestRequest) (*SessionResponse, error) {
	password, err := security.GenerateGuestPassword(guestPasswordLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate guest credential")
	}
	hash, err := security.HashPassword(password, s.passCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash guest credential")
	}

	phone := strings.TrimSpace(req.Phone)
	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		Phone:        &phone,
		Roles:        []string{enums.RoleBuyer.String()},
		IsGuest:      true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered, sign in instead")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create guest user")
	}

	return s.issueSession(ctx, user, enums.RoleBuyer)
}

func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*SessionResponse, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, req.AccessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	user, err := s.loadActiveUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	newAccessID, newRefresh, err := s.session.Rotate(ctx, user.ID.String(), claims.ID, req.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	// Keep the active role the session already had if it is still held.
	active := claims.ActiveRole
	held := users.Roles(user)
	if !holdsRole(held, active) {
		active = s.resolveActiveRole(ctx, user)
	}

	return s.mintResponse(ctx, user, active, newAccessID, newRefresh)
}

// Logout revokes the session and empties the cart. Favorites survive
// for the next sign-in.
func (s *service) Logout(ctx context.Context, userID uuid.UUID, accessID string) error {
	if err := s.session.Revoke(ctx, userID.String(), accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	if err := s.cart.Clear(ctx, userID); err != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, userID.String()), "clearing cart on logout failed")
	}
	return nil
}

// SwitchRole rotates the session onto another held role. The chosen role
// is remembered so the next login lands on the same surface.
func (s *service) SwitchRole(ctx context.Context, userID uuid.UUID, accessID string, refreshToken string, role enums.Role) (*SessionResponse, error) {
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}

	user, err := s.loadActiveUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !holdsRole(users.Roles(user), role) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role not held by account")
	}

	newAccessID, newRefresh, err := s.session.Rotate(ctx, userID.String(), accessID, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	s.rememberRole(ctx, user.ID, role)
	return s.mintResponse(ctx, user, role, newAccessID, newRefresh)
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	input := strings.TrimSpace(email)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByEmail(ctx, strings.ToLower(input))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if user.Banned {
		return nil, pkgerrors.New(pkgerrors.CodeAccountSuspended, "account suspended")
	}
	return user, nil
}

func (s *service) loadActiveUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if user.Banned {
		return nil, pkgerrors.New(pkgerrors.CodeAccountSuspended, "account suspended")
	}
	return user, nil
}

// resolveActiveRole picks the surface a fresh session lands on. Admin
// always wins over any remembered preference; otherwise the role the
// user last operated as if still held, otherwise the most privileged
// role on the account.
func (s *service) resolveActiveRole(ctx context.Context, user *models.User) enums.Role {
	held := users.Roles(user)
	if holdsRole(held, enums.RoleAdmin) {
		return enums.RoleAdmin
	}

	stored, err := s.roles.Get(ctx, s.roles.LastRoleKey(user.ID.String()))
	if err == nil {
		if role, parseErr := enums.ParseRole(stored); parseErr == nil && holdsRole(held, role) {
			return role
		}
	} else if !errors.Is(err, redislib.Nil) {
		s.logg.Warn(s.logg.WithUserID(ctx, user.ID.String()), "loading last role failed")
	}

	return enums.HighestRole(held)
}

func (s *service) rememberRole(ctx context.Context, userID uuid.UUID, role enums.Role) {
	key := s.roles.LastRoleKey(userID.String())
	if err := s.roles.Set(ctx, key, role.String(), lastRoleTTL); err != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, userID.String()), "storing last role failed")
	}
}

func (s *service) issueSession(ctx context.Context, user *models.User, active enums.Role) (*SessionResponse, error) {
	accessID := session.NewAccessID()
	refreshToken, err := s.session.Generate(ctx, user.ID.String(), accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}
	return s.mintResponse(ctx, user, active, accessID, refreshToken)
}

func (s *service) mintResponse(ctx context.Context, user *models.User, active enums.Role, accessID, refreshToken string) (*SessionResponse, error) {
	held := users.Roles(user)
	payload := pkgAuth.AccessTokenPayload{
		UserID:     user.ID,
		Roles:      held,
		ActiveRole: active,
		IsGuest:    user.IsGuest,
		JTI:        accessID,
	}
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, time.Now().UTC(), payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &SessionResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ActiveRole:   active,
		Roles:        held,
		User:         users.FromModel(user),
	}, nil
}

func holdsRole(held []enums.Role, role enums.Role) bool {
	for _, candidate := range held {
		if candidate == role {
			return true
		}
	}
	return false
}
