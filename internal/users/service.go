package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/GyabaahFelix/lynqed-backend/pkg/db"
	"github.com/GyabaahFelix/lynqed-backend/pkg/db/models"
	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
	pkgerrors "github.com/GyabaahFelix/lynqed-backend/pkg/errors"
	"github.com/GyabaahFelix/lynqed-backend/pkg/logger"
	"github.com/GyabaahFelix/lynqed-backend/pkg/outbox"
)

// sessionRevoker is the slice of the session manager the user service needs.
type sessionRevoker interface {
	RevokeAllForUser(ctx context.Context, userID string) error
}

// ServiceParams groups dependencies for the user service.
type ServiceParams struct {
	DB       *db.Client
	Repo     *Repository
	Outbox   *outbox.Service
	Sessions sessionRevoker
	Logger   *logger.Logger
}

// Service exposes profile and moderation rules for accounts.
type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (ProfileDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (ProfileDTO, error)
	ListUsers(ctx context.Context, filter ListUsersFilter) ([]ProfileDTO, error)
	BanUser(ctx context.Context, actorID, userID uuid.UUID) error
	UnbanUser(ctx context.Context, actorID, userID uuid.UUID) error
}

type service struct {
	db       *db.Client
	repo     *Repository
	outbox   *outbox.Service
	sessions sessionRevoker
	logg     *logger.Logger
}

// NewService builds a user service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db client is required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user repo is required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outbox service is required")
	}
	if params.Sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session manager is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{
		db:       params.DB,
		repo:     params.Repo,
		outbox:   params.Outbox,
		sessions: params.Sessions,
		logg:     params.Logger,
	}, nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (ProfileDTO, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return ProfileDTO{}, err
	}
	return toProfileDTO(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (ProfileDTO, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return ProfileDTO{}, err
	}

	if name := strings.TrimSpace(input.FullName); name != "" {
		user.FullName = name
	}
	if input.Phone != nil {
		user.Phone = trimmedOrNil(*input.Phone)
	}
	if input.Hostel != nil {
		user.Hostel = trimmedOrNil(*input.Hostel)
	}
	if input.RoomNumber != nil {
		user.RoomNumber = trimmedOrNil(*input.RoomNumber)
	}
	if input.PhotoURL != nil {
		user.PhotoURL = trimmedOrNil(*input.PhotoURL)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return ProfileDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile")
	}
	return toProfileDTO(user), nil
}

func (s *service) ListUsers(ctx context.Context, filter ListUsersFilter) ([]ProfileDTO, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.repo.List(ctx, filter.Role, filter.Banned, limit, filter.Offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	out := make([]ProfileDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toProfileDTO(&rows[i]))
	}
	return out, nil
}

// BanUser suspends the account and kills every live session it holds, so
// the ban takes effect on the next request rather than the next login.
func (s *service) BanUser(ctx context.Context, actorID, userID uuid.UUID) error {
	return s.setBanned(ctx, actorID, userID, true)
}

func (s *service) UnbanUser(ctx context.Context, actorID, userID uuid.UUID) error {
	return s.setBanned(ctx, actorID, userID, false)
}

func (s *service) setBanned(ctx context.Context, actorID, userID uuid.UUID, banned bool) error {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.Banned == banned {
		return nil
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).SetBanned(ctx, userID, banned); err != nil {
			return err
		}
		if !banned {
			return nil
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventUserBanned,
			AggregateType: "user",
			AggregateID:   userID,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: enums.RoleAdmin.String()},
			Data:          map[string]any{"user_id": userID, "banned": banned},
			Version:       1,
		})
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update ban state")
	}

	if banned {
		if err := s.sessions.RevokeAllForUser(ctx, userID.String()); err != nil {
			s.logg.Warn(s.logg.WithUserID(ctx, userID.String()), "revoking banned user sessions failed")
		}
	}
	return nil
}

func (s *service) loadUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func trimmedOrNil(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
