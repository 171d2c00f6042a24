package checkout

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	cart "github.com/GyabaahFelix/lynqed-backend/internal/cart"
	orders "github.com/GyabaahFelix/lynqed-backend/internal/orders"
	products "github.com/GyabaahFelix/lynqed-backend/internal/products"
	vendors "github.com/GyabaahFelix/lynqed-backend/internal/vendors"
	"github.com/GyabaahFelix/lynqed-backend/pkg/config"
	"github.com/GyabaahFelix/lynqed-backend/pkg/db"
	"github.com/GyabaahFelix/lynqed-backend/pkg/db/models"
	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
	pkgerrors "github.com/GyabaahFelix/lynqed-backend/pkg/errors"
	"github.com/GyabaahFelix/lynqed-backend/pkg/logger"
	"github.com/GyabaahFelix/lynqed-backend/pkg/outbox"
)

// cartMirror is the slice of the Redis client used to drop the cart
// mirror once the cart converts into orders.
type cartMirror interface {
	Del(ctx context.Context, keys ...string) error
	CartMirrorKey(userID string) string
}

// ServiceParams groups dependencies for the checkout service.
type ServiceParams struct {
	DB          *db.Client
	CartRepo    *cart.Repository
	OrderRepo   *orders.Repository
	ProductRepo *products.Repository
	VendorRepo  *vendors.Repository
	Outbox      *outbox.Service
	Mirror      cartMirror
	Config      config.CheckoutConfig
	Logger      *logger.Logger
}

// Service converts a cart into orders. A cart spanning several
// storefronts splits into one order per vendor; the flat delivery fee
// is charged in full on each order rather than divided across them.
type Service interface {
	Execute(ctx context.Context, buyerID uuid.UUID, input CheckoutInput) (ResultDTO, error)
}

type service struct {
	db          *db.Client
	cartRepo    *cart.Repository
	orderRepo   *orders.Repository
	productRepo *products.Repository
	vendorRepo  *vendors.Repository
	outbox      *outbox.Service
	mirror      cartMirror
	cfg         config.CheckoutConfig
	logg        *logger.Logger
}

// NewService builds a checkout service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db client is required")
	}
	if params.CartRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart repo is required")
	}
	if params.OrderRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order repo is required")
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
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{
		db:          params.DB,
		cartRepo:    params.CartRepo,
		orderRepo:   params.OrderRepo,
		productRepo: params.ProductRepo,
		vendorRepo:  params.VendorRepo,
		outbox:      params.Outbox,
		mirror:      params.Mirror,
		cfg:         params.Config,
		logg:        params.Logger,
	}, nil
}

// Execute places orders for everything in the buyer's cart. Each
// vendor's order commits in its own transaction, in vendor-id order;
// a failure on a later partition leaves the earlier orders standing.
// The cart empties regardless of how far the split got, since its
// sold lines have already converted into orders.
func (s *service) Execute(ctx context.Context, buyerID uuid.UUID, input CheckoutInput) (ResultDTO, error) {
	if buyerID == uuid.Nil {
		return ResultDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	option, err := enums.ParseDeliveryOption(strings.ToLower(strings.TrimSpace(input.DeliveryOption)))
	if err != nil {
		return ResultDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown delivery option")
	}
	address := trimmedOrNil(input.DeliveryAddress)
	if option == enums.DeliveryOptionDelivery && address == nil {
		return ResultDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required for delivery orders")
	}

	items, err := s.cartRepo.ListItems(ctx, buyerID)
	if err != nil {
		return ResultDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(items) == 0 {
		return ResultDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	lines, err := s.resolveLines(ctx, s.productRepo, items)
	if err != nil {
		return ResultDTO{}, err
	}

	fee := int64(0)
	if option == enums.DeliveryOptionDelivery {
		fee = int64(s.cfg.DeliveryFeePesewas)
	}

	note := trimmedOrNil(input.BuyerNote)
	var result ResultDTO
	var placeErr error
	for _, vendorID := range sortedVendorIDs(lines) {
		order, err := s.placeVendorOrder(ctx, buyerID, vendorID, option, fee, address, note, lines[vendorID])
		if err != nil {
			placeErr = err
			break
		}
		result.Orders = append(result.Orders, orders.FromModel(order))
		result.SubtotalPesewas += order.SubtotalPesewas
		result.DeliveryFeePesewas += order.DeliveryFeePesewas
		result.TotalPesewas += order.TotalPesewas
	}

	if err := s.cartRepo.Clear(ctx, buyerID); err != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, buyerID.String()), "clearing cart after checkout failed")
	}
	if s.mirror != nil {
		if err := s.mirror.Del(ctx, s.mirror.CartMirrorKey(buyerID.String())); err != nil {
			s.logg.Warn(s.logg.WithUserID(ctx, buyerID.String()), "dropping cart mirror failed")
		}
	}

	if placeErr != nil {
		return ResultDTO{}, placeErr
	}
	return result, nil
}

// placeVendorOrder reserves stock and creates the order for one vendor
// partition, all inside a single transaction.
func (s *service) placeVendorOrder(ctx context.Context, buyerID, vendorID uuid.UUID, option enums.DeliveryOption, fee int64, address, note *string, vendorLines []checkoutLine) (*models.Order, error) {
	var order *models.Order
	txErr := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		productRepo := s.productRepo.WithTx(tx)
		for _, line := range vendorLines {
			ok, err := productRepo.DecrementStock(tx, line.product.ID, line.quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					fmt.Sprintf("not enough stock for %s", line.product.Name))
			}
		}

		order = buildOrder(buyerID, vendorID, option, fee, address, note, vendorLines)
		if err := s.orderRepo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.OutboxEventOrderPlaced,
			AggregateType: "order",
			AggregateID:   order.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: buyerID, Role: enums.RoleBuyer.String()},
			Data: PlacedEvent{
				OrderID:            order.ID,
				Reference:          order.Reference,
				BuyerID:            buyerID,
				VendorID:           vendorID,
				DeliveryOption:     option.String(),
				SubtotalPesewas:    order.SubtotalPesewas,
				DeliveryFeePesewas: order.DeliveryFeePesewas,
				TotalPesewas:       order.TotalPesewas,
				ItemCount:          len(order.Items),
			},
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue order placed event")
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return order, nil
}

type checkoutLine struct {
	product  models.Product
	quantity int
}

// resolveLines joins cart rows with their listings and groups them by
// vendor. Unavailable products fail the checkout instead of being
// silently dropped.
func (s *service) resolveLines(ctx context.Context, productRepo *products.Repository, items []models.CartItem) (map[uuid.UUID][]checkoutLine, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	rows, err := productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
	}
	index := make(map[uuid.UUID]models.Product, len(rows))
	for _, row := range rows {
		index[row.ID] = row
	}

	approved := map[uuid.UUID]bool{}
	lines := make(map[uuid.UUID][]checkoutLine)
	for _, item := range items {
		product, ok := index[item.ProductID]
		if !ok || product.Status != enums.ProductStatusApproved {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart contains an unavailable product")
		}
		ok, err := s.vendorApproved(ctx, product.VendorID, approved)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("%s is no longer sold by an approved storefront", product.Name))
		}
		lines[product.VendorID] = append(lines[product.VendorID], checkoutLine{
			product:  product,
			quantity: item.Quantity,
		})
	}
	return lines, nil
}

func (s *service) vendorApproved(ctx context.Context, vendorID uuid.UUID, cache map[uuid.UUID]bool) (bool, error) {
	if ok, seen := cache[vendorID]; seen {
		return ok, nil
	}
	vendor, err := s.vendorRepo.FindByID(ctx, vendorID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	ok := vendor.ApprovalStatus == enums.VendorApprovalApproved
	cache[vendorID] = ok
	return ok, nil
}

func buildOrder(buyerID, vendorID uuid.UUID, option enums.DeliveryOption, fee int64, address, note *string, lines []checkoutLine) *models.Order {
	order := &models.Order{
		ID:                 uuid.New(),
		Reference:          newOrderReference(),
		BuyerID:            buyerID,
		VendorID:           vendorID,
		Status:             enums.OrderStatusPlaced,
		DeliveryOption:     option,
		DeliveryFeePesewas: fee,
		Currency:           enums.CurrencyGHS,
		DeliveryAddress:    address,
		BuyerNote:          note,
	}
	for _, line := range lines {
		order.SubtotalPesewas += line.product.PricePesewas * int64(line.quantity)
		order.Items = append(order.Items, models.OrderItem{
			ProductID:    line.product.ID,
			Name:         line.product.Name,
			ImageURL:     firstImage(line.product.Images),
			PricePesewas: line.product.PricePesewas,
			Quantity:     line.quantity,
		})
	}
	order.TotalPesewas = order.SubtotalPesewas + order.DeliveryFeePesewas
	return order
}

func firstImage(images []string) *string {
	if len(images) == 0 {
		return nil
	}
	url := images[0]
	return &url
}

// newOrderReference builds a short human-quotable reference. The
// unique index on orders.reference catches the unlikely collision.
func newOrderReference() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "LQ-" + raw[:10]
}

func sortedVendorIDs(lines map[uuid.UUID][]checkoutLine) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(lines))
	for id := range lines {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
