package delivery

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	users "github.com/GyabaahFelix/lynqed-backend/internal/users"
	"github.com/GyabaahFelix/lynqed-backend/pkg/db"
	"github.com/GyabaahFelix/lynqed-backend/pkg/db/models"
	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
	pkgerrors "github.com/GyabaahFelix/lynqed-backend/pkg/errors"
	"github.com/GyabaahFelix/lynqed-backend/pkg/logger"
)

// activeJobCounter reports how many undelivered jobs a rider holds.
type activeJobCounter interface {
	CountActiveForRider(ctx context.Context, deliveryPersonID uuid.UUID) (int, error)
}

// ServiceParams groups dependencies for the delivery service.
type ServiceParams struct {
	DB       *db.Client
	Repo     *Repository
	UserRepo *users.Repository
	Jobs     activeJobCounter
	Logger   *logger.Logger
}

// Service exposes rider applications and their admin review. Claiming
// and progressing jobs lives with the order lifecycle.
type Service interface {
	GetMyProfile(ctx context.Context, userID uuid.UUID) (ProfileDTO, error)
	UpsertMyProfile(ctx context.Context, userID uuid.UUID, input UpsertProfileInput) (ProfileDTO, error)
	GetStats(ctx context.Context, userID uuid.UUID) (StatsDTO, error)
	ListApplications(ctx context.Context, filter ListFilter) ([]ProfileDTO, error)
	Transition(ctx context.Context, riderID uuid.UUID, input TransitionInput) (ProfileDTO, error)
}

type service struct {
	db       *db.Client
	repo     *Repository
	userRepo *users.Repository
	jobs     activeJobCounter
	logg     *logger.Logger
}

// NewService builds a delivery service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db client is required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery repo is required")
	}
	if params.UserRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user repo is required")
	}
	if params.Jobs == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "job counter is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{
		db:       params.DB,
		repo:     params.Repo,
		userRepo: params.UserRepo,
		jobs:     params.Jobs,
		logg:     params.Logger,
	}, nil
}

func (s *service) GetMyProfile(ctx context.Context, userID uuid.UUID) (ProfileDTO, error) {
	rider, err := s.loadByUser(ctx, userID)
	if err != nil {
		return ProfileDTO{}, err
	}
	return FromModel(rider), nil
}

// UpsertMyProfile files a rider application or edits the existing one.
// A fresh application starts pending; a rejected applicant who applies
// again goes back into the review queue. Only admins move a profile
// into or out of approved.
func (s *service) UpsertMyProfile(ctx context.Context, userID uuid.UUID, input UpsertProfileInput) (ProfileDTO, error) {
	if userID == uuid.Nil {
		return ProfileDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	vehicle, err := enums.ParseVehicleType(strings.ToLower(strings.TrimSpace(input.VehicleType)))
	if err != nil {
		return ProfileDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown vehicle type")
	}

	existing, err := s.repo.FindByUser(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return ProfileDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rider profile")
	}

	if existing != nil {
		existing.VehicleType = vehicle
		if input.Phone != nil {
			existing.Phone = trimmedOrNil(*input.Phone)
		}
		if existing.Status == enums.DeliveryPersonStatusRejected {
			existing.Status = enums.DeliveryPersonStatusPending
		}
		if err := s.repo.Update(ctx, existing); err != nil {
			return ProfileDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update rider profile")
		}
		return FromModel(existing), nil
	}

	rider := &models.DeliveryPerson{
		UserID:      userID,
		VehicleType: vehicle,
		Status:      enums.DeliveryPersonStatusPending,
	}
	if input.Phone != nil {
		rider.Phone = trimmedOrNil(*input.Phone)
	}

	if err := s.repo.Create(ctx, rider); err != nil {
		if db.IsUniqueViolation(err, "") {
			return ProfileDTO{}, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "rider application already exists")
		}
		return ProfileDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create rider application")
	}
	return FromModel(rider), nil
}

func (s *service) GetStats(ctx context.Context, userID uuid.UUID) (StatsDTO, error) {
	rider, err := s.loadByUser(ctx, userID)
	if err != nil {
		return StatsDTO{}, err
	}
	active, err := s.jobs.CountActiveForRider(ctx, rider.ID)
	if err != nil {
		return StatsDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count active jobs")
	}
	return StatsDTO{
		CompletedJobs: rider.CompletedJobs,
		ActiveJobs:    active,
		Rating:        averageRating(rider.RatingSum, rider.RatingCount),
	}, nil
}

// ListApplications returns rider profiles for admin review, optionally
// narrowed to one status.
func (s *service) ListApplications(ctx context.Context, filter ListFilter) ([]ProfileDTO, error) {
	var status *enums.DeliveryPersonStatus
	if trimmed := strings.TrimSpace(filter.Status); trimmed != "" {
		parsed, err := enums.ParseDeliveryPersonStatus(strings.ToLower(trimmed))
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown rider status")
		}
		status = &parsed
	}
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	riders, err := s.repo.List(ctx, status, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list rider applications")
	}
	out := make([]ProfileDTO, 0, len(riders))
	for i := range riders {
		out = append(out, FromModel(&riders[i]))
	}
	return out, nil
}

// Transition moves a rider application to a new status. Entering
// approved grants the delivery_person role on the account; leaving it
// removes the role. The profile row itself is never deleted.
func (s *service) Transition(ctx context.Context, riderID uuid.UUID, input TransitionInput) (ProfileDTO, error) {
	if riderID == uuid.Nil {
		return ProfileDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "rider id is required")
	}
	status, err := enums.ParseDeliveryPersonStatus(strings.ToLower(strings.TrimSpace(input.Status)))
	if err != nil {
		return ProfileDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown rider status")
	}

	rider, err := s.repo.FindByID(ctx, riderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProfileDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "rider profile not found")
		}
		return ProfileDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rider profile")
	}
	if rider.Status == status {
		return FromModel(rider), nil
	}

	from := rider.Status
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).SetStatus(ctx, rider.ID, status); err != nil {
			return err
		}
		userRepo := s.userRepo.WithTx(tx)
		if status == enums.DeliveryPersonStatusApproved {
			return userRepo.AddRole(ctx, rider.UserID, enums.RoleDeliveryPerson)
		}
		if from == enums.DeliveryPersonStatusApproved {
			return userRepo.RemoveRole(ctx, rider.UserID, enums.RoleDeliveryPerson)
		}
		return nil
	})
	if err != nil {
		return ProfileDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transition rider status")
	}

	rider.Status = status
	return FromModel(rider), nil
}

func (s *service) loadByUser(ctx context.Context, userID uuid.UUID) (*models.DeliveryPerson, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	rider, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "rider profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rider profile")
	}
	return rider, nil
}

func trimmedOrNil(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
