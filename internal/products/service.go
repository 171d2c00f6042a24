package products

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/GyabaahFelix/lynqed-backend/internal/vendors"
	"github.com/GyabaahFelix/lynqed-backend/pkg/db"
	"github.com/GyabaahFelix/lynqed-backend/pkg/db/models"
	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
	pkgerrors "github.com/GyabaahFelix/lynqed-backend/pkg/errors"
	"github.com/GyabaahFelix/lynqed-backend/pkg/geo"
	"github.com/GyabaahFelix/lynqed-backend/pkg/outbox"
	"github.com/GyabaahFelix/lynqed-backend/pkg/types"
)

// ServiceParams groups dependencies for the product service.
type ServiceParams struct {
	DB          *db.Client
	ProductRepo *Repository
	VendorRepo  *vendors.Repository
	Outbox      *outbox.Service
}

// FeedQuery narrows the buyer feed and anchors distance sorting.
type FeedQuery struct {
	Category *string
	Search   string
	Origin   types.GeoPoint
	Limit    int
	Offset   int
}

// Service exposes listing management, moderation, and the buyer feed.
type Service interface {
	CreateProduct(ctx context.Context, ownerID uuid.UUID, input CreateProductInput) (ProductDTO, error)
	UpdateProduct(ctx context.Context, ownerID, productID uuid.UUID, input UpdateProductInput) (ProductDTO, error)
	RemoveProduct(ctx context.Context, ownerID, productID uuid.UUID) error
	ListMyProducts(ctx context.Context, ownerID uuid.UUID) ([]ProductDTO, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (ProductDTO, error)
	Feed(ctx context.Context, query FeedQuery) ([]FeedItemDTO, error)
	Moderate(ctx context.Context, actorID, productID uuid.UUID, status enums.ProductStatus) (ProductDTO, error)
	ListByStatus(ctx context.Context, status enums.ProductStatus, limit, offset int) ([]ProductDTO, error)
	AdminRemoveProduct(ctx context.Context, actorID, productID uuid.UUID) error
}

type service struct {
	db          *db.Client
	productRepo *Repository
	vendorRepo  *vendors.Repository
	outbox      *outbox.Service
}

// NewService builds a product service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db client is required")
	}
	if params.ProductRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product repo is required")
	}
	if params.VendorRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor repo is required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outbox service is required")
	}
	return &service{
		db:          params.DB,
		productRepo: params.ProductRepo,
		vendorRepo:  params.VendorRepo,
		outbox:      params.Outbox,
	}, nil
}

// CreateProduct submits a new listing. It enters the moderation queue
// as pending and stays off the buyer feed until an admin approves it.
func (s *service) CreateProduct(ctx context.Context, ownerID uuid.UUID, input CreateProductInput) (ProductDTO, error) {
	vendor, err := s.requireVendor(ctx, ownerID)
	if err != nil {
		return ProductDTO{}, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.PricePesewas <= 0 {
		return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}

	product := &models.Product{
		ID:           uuid.New(),
		VendorID:     vendor.ID,
		Name:         name,
		Description:  input.Description,
		Category:     input.Category,
		PricePesewas: input.PricePesewas,
		Currency:     enums.CurrencyGHS,
		Images:       input.Images,
		Status:       enums.ProductStatusPending,
		Stock:        input.Stock,
	}

	txErr := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.productRepo.WithTx(tx).Create(ctx, product); err != nil {
			return err
		}
		return s.emitChanged(ctx, tx, ownerID, product)
	})
	if txErr != nil {
		return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, txErr, "create product")
	}
	return FromModel(product), nil
}

func (s *service) UpdateProduct(ctx context.Context, ownerID, productID uuid.UUID, input UpdateProductInput) (ProductDTO, error) {
	vendor, err := s.requireVendor(ctx, ownerID)
	if err != nil {
		return ProductDTO{}, err
	}
	product, err := s.loadOwnedProduct(ctx, vendor.ID, productID)
	if err != nil {
		return ProductDTO{}, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
		}
		product.Name = name
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Category != nil {
		product.Category = input.Category
	}
	if input.PricePesewas != nil {
		if *input.PricePesewas <= 0 {
			return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		product.PricePesewas = *input.PricePesewas
	}
	if input.Images != nil {
		product.Images = input.Images
	}
	if input.Stock != nil {
		product.Stock = input.Stock
	}

	txErr := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.productRepo.WithTx(tx).Update(ctx, product); err != nil {
			return err
		}
		return s.emitChanged(ctx, tx, ownerID, product)
	})
	if txErr != nil {
		return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, txErr, "update product")
	}
	return FromModel(product), nil
}

// RemoveProduct deletes one of the caller's listings. Order history
// keeps its own snapshot of the product, so the row can go.
func (s *service) RemoveProduct(ctx context.Context, ownerID, productID uuid.UUID) error {
	vendor, err := s.requireVendor(ctx, ownerID)
	if err != nil {
		return err
	}
	product, err := s.loadOwnedProduct(ctx, vendor.ID, productID)
	if err != nil {
		return err
	}
	return s.deleteProduct(ctx, ownerID, enums.RoleVendor, product)
}

// Moderate records an admin verdict on a pending listing. Approval is
// what makes the listing eligible for the buyer feed; rejection keeps
// it visible to its owner only.
func (s *service) Moderate(ctx context.Context, actorID, productID uuid.UUID, status enums.ProductStatus) (ProductDTO, error) {
	if status != enums.ProductStatusApproved && status != enums.ProductStatusRejected {
		return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "status must be approved or rejected")
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	txErr := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.productRepo.WithTx(tx).SetStatus(ctx, product.ID, status); err != nil {
			return err
		}
		product.Status = status
		return s.emitChangedBy(ctx, tx, actorID, enums.RoleAdmin, product)
	})
	if txErr != nil {
		return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, txErr, "moderate product")
	}
	return FromModel(product), nil
}

// ListByStatus pages listings in one moderation state for the admin
// console, oldest submissions first.
func (s *service) ListByStatus(ctx context.Context, status enums.ProductStatus, limit, offset int) ([]ProductDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product status")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.productRepo.ListByStatus(ctx, status, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, nil
}

// AdminRemoveProduct deletes any listing regardless of owner.
func (s *service) AdminRemoveProduct(ctx context.Context, actorID, productID uuid.UUID) error {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return s.deleteProduct(ctx, actorID, enums.RoleAdmin, product)
}

func (s *service) deleteProduct(ctx context.Context, actorID uuid.UUID, role enums.Role, product *models.Product) error {
	txErr := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.productRepo.WithTx(tx).Delete(ctx, product.ID); err != nil {
			return err
		}
		return s.emitChangedBy(ctx, tx, actorID, role, product)
	})
	if txErr != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, txErr, "remove product")
	}
	return nil
}

func (s *service) ListMyProducts(ctx context.Context, ownerID uuid.UUID) ([]ProductDTO, error) {
	vendor, err := s.requireVendor(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	rows, err := s.productRepo.ListByVendor(ctx, vendor.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (ProductDTO, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return FromModel(product), nil
}

// Feed returns approved listings from approved storefronts, nearest first.
func (s *service) Feed(ctx context.Context, query FeedQuery) ([]FeedItemDTO, error) {
	limit := query.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.productRepo.ListFeed(ctx, FeedFilter{
		Category: query.Category,
		Search:   query.Search,
		Limit:    limit,
		Offset:   query.Offset,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load feed")
	}
	if len(rows) == 0 {
		return []FeedItemDTO{}, nil
	}

	vendorByID, err := s.vendorIndex(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]FeedItemDTO, 0, len(rows))
	for i := range rows {
		item := FeedItemDTO{ProductDTO: FromModel(&rows[i])}
		if vendor, ok := vendorByID[rows[i].VendorID]; ok {
			item.VendorName = vendor.BusinessName
			if vendor.Lat != nil && vendor.Lng != nil {
				item.VendorLocation = &types.GeoPoint{Lat: *vendor.Lat, Lng: *vendor.Lng}
			}
		}
		items = append(items, item)
	}

	if query.Origin.Valid() && !query.Origin.IsZero() {
		geo.SortByDistance(items, query.Origin)
		for i := range items {
			if items[i].VendorLocation != nil {
				dist := geo.DistanceMeters(query.Origin, *items[i].VendorLocation)
				items[i].DistanceMeters = &dist
			}
		}
	}

	return items, nil
}

func (s *service) vendorIndex(ctx context.Context) (map[uuid.UUID]*models.Vendor, error) {
	approved, err := s.vendorRepo.ListApproved(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendors")
	}
	index := make(map[uuid.UUID]*models.Vendor, len(approved))
	for i := range approved {
		index[approved[i].ID] = &approved[i]
	}
	return index, nil
}

// requireVendor resolves the caller's storefront, surfacing the named
// failure code when an account with the vendor role has no profile yet.
func (s *service) requireVendor(ctx context.Context, ownerID uuid.UUID) (*models.Vendor, error) {
	vendor, err := s.vendorRepo.FindByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeVendorProfile, err, "vendor profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	return vendor, nil
}

func (s *service) loadOwnedProduct(ctx context.Context, vendorID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if product.VendorID != vendorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product not owned by caller")
	}
	return product, nil
}

func (s *service) emitChanged(ctx context.Context, tx *gorm.DB, actorID uuid.UUID, product *models.Product) error {
	return s.emitChangedBy(ctx, tx, actorID, enums.RoleVendor, product)
}

func (s *service) emitChangedBy(ctx context.Context, tx *gorm.DB, actorID uuid.UUID, role enums.Role, product *models.Product) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.OutboxEventProductChanged,
		AggregateType: "product",
		AggregateID:   product.ID,
		Actor:         &outbox.ActorRef{UserID: actorID, Role: role.String()},
		Data:          FromModel(product),
		Version:       1,
	})
}
