package vendors

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/GyabaahFelix/lynqed-backend/internal/users"
	"github.com/GyabaahFelix/lynqed-backend/pkg/db"
	"github.com/GyabaahFelix/lynqed-backend/pkg/db/models"
	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
	pkgerrors "github.com/GyabaahFelix/lynqed-backend/pkg/errors"
	"github.com/GyabaahFelix/lynqed-backend/pkg/outbox"
)

// ServiceParams groups dependencies for the vendor service.
type ServiceParams struct {
	DB         *db.Client
	VendorRepo *Repository
	UserRepo   *users.Repository
	Outbox     *outbox.Service
}

// Service exposes storefront management and admin review.
type Service interface {
	GetVendor(ctx context.Context, vendorID uuid.UUID) (VendorDTO, error)
	GetMyVendor(ctx context.Context, ownerID uuid.UUID) (VendorDTO, error)
	UpsertMyVendor(ctx context.Context, ownerID uuid.UUID, input UpsertVendorInput) (VendorDTO, error)
	ListForReview(ctx context.Context, status *enums.VendorApprovalStatus, limit, offset int) ([]VendorDTO, error)
	SetApproval(ctx context.Context, actorID, vendorID uuid.UUID, status enums.VendorApprovalStatus) (VendorDTO, error)
}

type service struct {
	db         *db.Client
	vendorRepo *Repository
	userRepo   *users.Repository
	outbox     *outbox.Service
}

// NewService builds a vendor service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db client is required")
	}
	if params.VendorRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor repo is required")
	}
	if params.UserRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user repo is required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outbox service is required")
	}
	return &service{
		db:         params.DB,
		vendorRepo: params.VendorRepo,
		userRepo:   params.UserRepo,
		outbox:     params.Outbox,
	}, nil
}

func (s *service) GetVendor(ctx context.Context, vendorID uuid.UUID) (VendorDTO, error) {
	vendor, err := s.vendorRepo.FindByID(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return VendorDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "vendor not found")
		}
		return VendorDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	return FromModel(vendor), nil
}

// GetMyVendor surfaces the named failure code when an account operating
// as a vendor has no storefront row yet, so clients can route to setup.
func (s *service) GetMyVendor(ctx context.Context, ownerID uuid.UUID) (VendorDTO, error) {
	vendor, err := s.vendorRepo.FindByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return VendorDTO{}, pkgerrors.Wrap(pkgerrors.CodeVendorProfile, err, "vendor profile not found")
		}
		return VendorDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	return FromModel(vendor), nil
}

// UpsertMyVendor creates the storefront on first save and edits it after.
// A freshly created storefront starts in pending review.
func (s *service) UpsertMyVendor(ctx context.Context, ownerID uuid.UUID, input UpsertVendorInput) (VendorDTO, error) {
	name := strings.TrimSpace(input.BusinessName)
	if name == "" {
		return VendorDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "business name is required")
	}

	existing, err := s.vendorRepo.FindByOwner(ctx, ownerID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return VendorDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}

	var vendor *models.Vendor
	txErr := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.vendorRepo.WithTx(tx)
		if existing == nil {
			vendor = &models.Vendor{
				OwnerID:        ownerID,
				ApprovalStatus: enums.VendorApprovalPending,
			}
			applyInput(vendor, name, input)
			if err := repo.Create(ctx, vendor); err != nil {
				return err
			}
		} else {
			vendor = existing
			applyInput(vendor, name, input)
			if err := repo.Update(ctx, vendor); err != nil {
				return err
			}
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventVendorChanged,
			AggregateType: "vendor",
			AggregateID:   vendor.ID,
			Actor:         &outbox.ActorRef{UserID: ownerID, Role: enums.RoleVendor.String()},
			Data:          FromModel(vendor),
			Version:       1,
		})
	})
	if txErr != nil {
		return VendorDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, txErr, "save vendor")
	}
	return FromModel(vendor), nil
}

func (s *service) ListForReview(ctx context.Context, status *enums.VendorApprovalStatus, limit, offset int) ([]VendorDTO, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.vendorRepo.ListByApproval(ctx, status, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendors")
	}
	out := make([]VendorDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, nil
}

// SetApproval moves a storefront through review. Approval also grants the
// owner the vendor role so their next session can switch onto it.
func (s *service) SetApproval(ctx context.Context, actorID, vendorID uuid.UUID, status enums.VendorApprovalStatus) (VendorDTO, error) {
	if !status.IsValid() {
		return VendorDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid approval status")
	}
	vendor, err := s.vendorRepo.FindByID(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return VendorDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "vendor not found")
		}
		return VendorDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}

	txErr := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.vendorRepo.WithTx(tx).SetApproval(ctx, vendorID, status); err != nil {
			return err
		}
		if status == enums.VendorApprovalApproved {
			if err := s.userRepo.WithTx(tx).AddRole(ctx, vendor.OwnerID, enums.RoleVendor); err != nil {
				return err
			}
		}
		vendor.ApprovalStatus = status
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventVendorChanged,
			AggregateType: "vendor",
			AggregateID:   vendor.ID,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: enums.RoleAdmin.String()},
			Data:          FromModel(vendor),
			Version:       1,
		})
	})
	if txErr != nil {
		return VendorDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, txErr, "update approval")
	}
	return FromModel(vendor), nil
}

func applyInput(vendor *models.Vendor, name string, input UpsertVendorInput) {
	vendor.BusinessName = name
	vendor.Description = input.Description
	vendor.Category = input.Category
	vendor.Phone = input.Phone
	vendor.LocationName = input.LocationName
	vendor.Lat = input.Lat
	vendor.Lng = input.Lng
}
