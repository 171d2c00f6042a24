package orders

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	vendors "github.com/GyabaahFelix/lynqed-backend/internal/vendors"
	"github.com/GyabaahFelix/lynqed-backend/pkg/db"
	"github.com/GyabaahFelix/lynqed-backend/pkg/db/models"
	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
	pkgerrors "github.com/GyabaahFelix/lynqed-backend/pkg/errors"
	"github.com/GyabaahFelix/lynqed-backend/pkg/logger"
	"github.com/GyabaahFelix/lynqed-backend/pkg/outbox"
)

// riderProfiles is the slice of the delivery package the order service
// needs to resolve and update the acting rider.
type riderProfiles interface {
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.DeliveryPerson, error)
	IncrementCompleted(ctx context.Context, id uuid.UUID) error
}

// ServiceParams groups dependencies for the order service.
type ServiceParams struct {
	DB         *db.Client
	Repo       *Repository
	VendorRepo *vendors.Repository
	Riders     riderProfiles
	Outbox     *outbox.Service
	Logger     *logger.Logger
}

// Service exposes the order lifecycle to its three actors. Buyers
// read, vendors advance or decline, riders claim and progress jobs.
type Service interface {
	GetOrder(ctx context.Context, actorID uuid.UUID, role enums.Role, orderID uuid.UUID) (OrderDTO, error)
	ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, filter ListFilter) ([]OrderDTO, error)
	ListVendorOrders(ctx context.Context, ownerID uuid.UUID, filter ListFilter) ([]OrderDTO, error)
	ListRiderJobs(ctx context.Context, riderUserID uuid.UUID, filter ListFilter) ([]OrderDTO, error)
	ListOpenJobs(ctx context.Context, filter ListFilter) ([]OrderDTO, error)
	AdvanceOrder(ctx context.Context, ownerID uuid.UUID, orderID uuid.UUID) (OrderDTO, error)
	DeclineOrder(ctx context.Context, ownerID uuid.UUID, orderID uuid.UUID, input DeclineInput) (OrderDTO, error)
	AcceptJob(ctx context.Context, riderUserID uuid.UUID, orderID uuid.UUID) (OrderDTO, error)
	AdvanceJob(ctx context.Context, riderUserID uuid.UUID, orderID uuid.UUID) (OrderDTO, error)
}

type service struct {
	db         *db.Client
	repo       *Repository
	vendorRepo *vendors.Repository
	riders     riderProfiles
	outbox     *outbox.Service
	logg       *logger.Logger
}

// NewService builds an order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db client is required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order repo is required")
	}
	if params.VendorRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor repo is required")
	}
	if params.Riders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rider profiles are required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outbox service is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{
		db:         params.DB,
		repo:       params.Repo,
		vendorRepo: params.VendorRepo,
		riders:     params.Riders,
		outbox:     params.Outbox,
		logg:       params.Logger,
	}, nil
}

// GetOrder returns one order after checking the actor may see it.
func (s *service) GetOrder(ctx context.Context, actorID uuid.UUID, role enums.Role, orderID uuid.UUID) (OrderDTO, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return OrderDTO{}, err
	}
	if err := s.authorizeRead(ctx, actorID, role, order); err != nil {
		return OrderDTO{}, err
	}
	return FromModel(order), nil
}

func (s *service) ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, filter ListFilter) ([]OrderDTO, error) {
	limit, offset := normalizePage(filter)
	rows, err := s.repo.ListByBuyer(ctx, buyerID, filter.Status, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list buyer orders")
	}
	return toDTOs(rows), nil
}

func (s *service) ListVendorOrders(ctx context.Context, ownerID uuid.UUID, filter ListFilter) ([]OrderDTO, error) {
	vendor, err := s.loadVendorByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	limit, offset := normalizePage(filter)
	rows, err := s.repo.ListByVendor(ctx, vendor.ID, filter.Status, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendor orders")
	}
	return toDTOs(rows), nil
}

func (s *service) ListRiderJobs(ctx context.Context, riderUserID uuid.UUID, filter ListFilter) ([]OrderDTO, error) {
	rider, err := s.loadRider(ctx, riderUserID)
	if err != nil {
		return nil, err
	}
	limit, offset := normalizePage(filter)
	rows, err := s.repo.ListByDeliveryPerson(ctx, rider.ID, filter.Status, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list rider jobs")
	}
	return toDTOs(rows), nil
}

// ListOpenJobs returns the claimable delivery queue.
func (s *service) ListOpenJobs(ctx context.Context, filter ListFilter) ([]OrderDTO, error) {
	limit, offset := normalizePage(filter)
	rows, err := s.repo.ListOpenJobs(ctx, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list open jobs")
	}
	return toDTOs(rows), nil
}

// AdvanceOrder moves the vendor's order one step along its chain.
func (s *service) AdvanceOrder(ctx context.Context, ownerID uuid.UUID, orderID uuid.UUID) (OrderDTO, error) {
	vendor, err := s.loadVendorByOwner(ctx, ownerID)
	if err != nil {
		return OrderDTO{}, err
	}

	var out OrderDTO
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrderTx(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if order.VendorID != vendor.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to storefront")
		}
		if !VendorMayAdvance(order.Status, order.DeliveryOption) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot be advanced from its current status")
		}
		next, ok := NextStatus(order.Status, order.DeliveryOption)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is in a terminal status")
		}

		moved, err := repo.AdvanceStatus(ctx, order.ID, order.Status, next)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance order status")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order was updated concurrently")
		}

		event := StatusChangedEvent{
			OrderID:          order.ID,
			Reference:        order.Reference,
			BuyerID:          order.BuyerID,
			VendorID:         order.VendorID,
			DeliveryPersonID: order.DeliveryPersonID,
			DeliveryOption:   order.DeliveryOption,
			From:             order.Status,
			To:               next,
		}
		if err := s.emitStatusChanged(ctx, tx, ownerID, enums.RoleVendor, event); err != nil {
			return err
		}

		order.Status = next
		out = FromModel(order)
		return nil
	})
	if err != nil {
		return OrderDTO{}, err
	}
	return out, nil
}

// DeclineOrder refuses the order with a reason while it is still
// declinable. Declined is terminal.
func (s *service) DeclineOrder(ctx context.Context, ownerID uuid.UUID, orderID uuid.UUID, input DeclineInput) (OrderDTO, error) {
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "decline reason is required")
	}
	vendor, err := s.loadVendorByOwner(ctx, ownerID)
	if err != nil {
		return OrderDTO{}, err
	}

	var out OrderDTO
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrderTx(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if order.VendorID != vendor.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to storefront")
		}
		if !MayDecline(order.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be declined")
		}

		declined, err := repo.Decline(ctx, order.ID, order.Status, reason)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decline order")
		}
		if !declined {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order was updated concurrently")
		}

		event := StatusChangedEvent{
			OrderID:        order.ID,
			Reference:      order.Reference,
			BuyerID:        order.BuyerID,
			VendorID:       order.VendorID,
			DeliveryOption: order.DeliveryOption,
			From:           order.Status,
			To:             enums.OrderStatusDeclined,
			Reason:         &reason,
		}
		if err := s.emitStatusChanged(ctx, tx, ownerID, enums.RoleVendor, event); err != nil {
			return err
		}

		order.Status = enums.OrderStatusDeclined
		order.DeclineReason = &reason
		out = FromModel(order)
		return nil
	})
	if err != nil {
		return OrderDTO{}, err
	}
	return out, nil
}

// AcceptJob claims an open delivery job. The first rider wins; later
// attempts get a conflict.
func (s *service) AcceptJob(ctx context.Context, riderUserID uuid.UUID, orderID uuid.UUID) (OrderDTO, error) {
	rider, err := s.loadRider(ctx, riderUserID)
	if err != nil {
		return OrderDTO{}, err
	}
	if rider.Status != enums.DeliveryPersonStatusApproved {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "rider account is not approved")
	}

	var out OrderDTO
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrderTx(ctx, repo, orderID)
		if err != nil {
			return err
		}

		claimed, err := repo.Assign(ctx, order.ID, rider.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign delivery job")
		}
		if !claimed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "job is no longer available")
		}

		err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventOrderAssigned,
			AggregateType: "order",
			AggregateID:   order.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: riderUserID, Role: enums.RoleDeliveryPerson.String()},
			Data: AssignedEvent{
				OrderID:          order.ID,
				Reference:        order.Reference,
				BuyerID:          order.BuyerID,
				VendorID:         order.VendorID,
				DeliveryPersonID: rider.ID,
			},
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue assignment event")
		}

		order.Status = enums.OrderStatusAssigned
		order.DeliveryPersonID = &rider.ID
		out = FromModel(order)
		return nil
	})
	if err != nil {
		return OrderDTO{}, err
	}
	return out, nil
}

// AdvanceJob moves the rider's claimed job one step along the chain.
// Delivering the order bumps their completed count.
func (s *service) AdvanceJob(ctx context.Context, riderUserID uuid.UUID, orderID uuid.UUID) (OrderDTO, error) {
	rider, err := s.loadRider(ctx, riderUserID)
	if err != nil {
		return OrderDTO{}, err
	}

	var out OrderDTO
	var delivered bool
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadOrderTx(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if order.DeliveryPersonID == nil || *order.DeliveryPersonID != rider.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "job belongs to another rider")
		}
		if !RiderMayAdvance(order.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "job cannot be advanced from its current status")
		}
		next, ok := NextStatus(order.Status, order.DeliveryOption)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "job is in a terminal status")
		}

		moved, err := repo.AdvanceStatus(ctx, order.ID, order.Status, next)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance job status")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "job was updated concurrently")
		}

		event := StatusChangedEvent{
			OrderID:          order.ID,
			Reference:        order.Reference,
			BuyerID:          order.BuyerID,
			VendorID:         order.VendorID,
			DeliveryPersonID: order.DeliveryPersonID,
			DeliveryOption:   order.DeliveryOption,
			From:             order.Status,
			To:               next,
		}
		if err := s.emitStatusChanged(ctx, tx, riderUserID, enums.RoleDeliveryPerson, event); err != nil {
			return err
		}

		delivered = next == enums.OrderStatusDelivered
		order.Status = next
		out = FromModel(order)
		return nil
	})
	if err != nil {
		return OrderDTO{}, err
	}

	if delivered {
		if err := s.riders.IncrementCompleted(ctx, rider.ID); err != nil {
			s.logg.Warn(s.logg.WithUserID(ctx, riderUserID.String()), "bumping rider completed jobs failed")
		}
	}
	return out, nil
}

func (s *service) emitStatusChanged(ctx context.Context, tx *gorm.DB, actorID uuid.UUID, role enums.Role, event StatusChangedEvent) error {
	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.OutboxEventOrderStatusChange,
		AggregateType: "order",
		AggregateID:   event.OrderID,
		Version:       1,
		Actor:         &outbox.ActorRef{UserID: actorID, Role: role.String()},
		Data:          event,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue status change event")
	}
	return nil
}

func (s *service) authorizeRead(ctx context.Context, actorID uuid.UUID, role enums.Role, order *models.Order) error {
	switch role {
	case enums.RoleAdmin:
		return nil
	case enums.RoleBuyer:
		if order.BuyerID == actorID {
			return nil
		}
	case enums.RoleVendor:
		vendor, err := s.vendorRepo.FindByOwner(ctx, actorID)
		if err == nil && vendor.ID == order.VendorID {
			return nil
		}
	case enums.RoleDeliveryPerson:
		rider, err := s.riders.FindByUser(ctx, actorID)
		if err == nil && order.DeliveryPersonID != nil && *order.DeliveryPersonID == rider.ID {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "order is not visible to this account")
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.loadOrderTx(ctx, s.repo, orderID)
}

func (s *service) loadOrderTx(ctx context.Context, repo *Repository, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) loadVendorByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Vendor, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	vendor, err := s.vendorRepo.FindByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeVendorProfile, err, "vendor profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor profile")
	}
	return vendor, nil
}

func (s *service) loadRider(ctx context.Context, riderUserID uuid.UUID) (*models.DeliveryPerson, error) {
	if riderUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rider user id is required")
	}
	rider, err := s.riders.FindByUser(ctx, riderUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "rider profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rider profile")
	}
	return rider, nil
}

func normalizePage(filter ListFilter) (int, int) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func toDTOs(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out
}
