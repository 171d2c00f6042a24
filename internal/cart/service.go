package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	products "github.com/GyabaahFelix/lynqed-backend/internal/products"
	"github.com/GyabaahFelix/lynqed-backend/pkg/db/models"
	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
	pkgerrors "github.com/GyabaahFelix/lynqed-backend/pkg/errors"
	"github.com/GyabaahFelix/lynqed-backend/pkg/logger"
)

const cartMirrorTTL = 7 * 24 * time.Hour

// mirrorStore is the slice of the Redis client used to keep a read
// copy of the cart close to the session.
type mirrorStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartMirrorKey(userID string) string
}

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	CartRepo    *Repository
	ProductRepo *products.Repository
	Mirror      mirrorStore
	Logger      *logger.Logger
}

// Service exposes business rules for cart and wishlist management.
type Service interface {
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (CartDTO, error)
	UpdateItem(ctx context.Context, userID, productID uuid.UUID, input UpdateItemInput) (CartDTO, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (CartDTO, error)
	GetCart(ctx context.Context, userID uuid.UUID) (CartDTO, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	AddFavorite(ctx context.Context, userID, productID uuid.UUID) error
	RemoveFavorite(ctx context.Context, userID, productID uuid.UUID) error
	ListFavorites(ctx context.Context, userID uuid.UUID) ([]FavoriteDTO, error)
}

type service struct {
	cartRepo    *Repository
	productRepo *products.Repository
	mirror      mirrorStore
	logg        *logger.Logger
}

// NewService builds a cart service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.CartRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart repo is required")
	}
	if params.ProductRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product repo is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{
		cartRepo:    params.CartRepo,
		productRepo: params.ProductRepo,
		mirror:      params.Mirror,
		logg:        params.Logger,
	}, nil
}

// AddItem puts a product in the cart. Re-adding a product that is
// already there bumps its quantity instead of creating a second line.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (CartDTO, error) {
	if userID == uuid.Nil {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.Quantity < 1 {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.loadProduct(ctx, input.ProductID)
	if err != nil {
		return CartDTO{}, err
	}
	if product.Status != enums.ProductStatusApproved {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeStateConflict, "product is not available")
	}
	if product.Stock != nil && *product.Stock < 1 {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeStateConflict, "product is out of stock")
	}

	if err := s.cartRepo.UpsertItem(ctx, userID, input.ProductID, input.Quantity); err != nil {
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
	}
	return s.reload(ctx, userID)
}

// UpdateItem overwrites the quantity of a line already in the cart.
// A quantity of zero or less drops the line, matching what removing
// the item does.
func (s *service) UpdateItem(ctx context.Context, userID, productID uuid.UUID, input UpdateItemInput) (CartDTO, error) {
	if input.Quantity < 1 {
		return s.RemoveItem(ctx, userID, productID)
	}
	updated, err := s.cartRepo.SetQuantity(ctx, userID, productID, input.Quantity)
	if err != nil {
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	if !updated {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "product is not in the cart")
	}
	return s.reload(ctx, userID)
}

// RemoveItem drops the line regardless of prior state.
func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (CartDTO, error) {
	if err := s.cartRepo.RemoveItem(ctx, userID, productID); err != nil {
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	return s.reload(ctx, userID)
}

// GetCart returns the cart joined with current listings. Lines whose
// product fell out of moderation stay visible but are flagged
// unavailable and excluded from the subtotal.
func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (CartDTO, error) {
	if userID == uuid.Nil {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.buildCart(ctx, userID)
}

// Clear empties the cart and drops the Redis mirror.
func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.cartRepo.Clear(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	if s.mirror != nil {
		if err := s.mirror.Del(ctx, s.mirror.CartMirrorKey(userID.String())); err != nil {
			s.logg.Warn(s.logg.WithUserID(ctx, userID.String()), "dropping cart mirror failed")
		}
	}
	return nil
}

// AddFavorite ensures the product exists and adds it to the wishlist.
// Adding a product that is already liked is a no-op.
func (s *service) AddFavorite(ctx context.Context, userID, productID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if _, err := s.loadProduct(ctx, productID); err != nil {
		return err
	}
	if err := s.cartRepo.AddFavorite(ctx, userID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add favorite")
	}
	return nil
}

// RemoveFavorite drops the wishlist entry regardless of prior state.
func (s *service) RemoveFavorite(ctx context.Context, userID, productID uuid.UUID) error {
	if err := s.cartRepo.RemoveFavorite(ctx, userID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove favorite")
	}
	return nil
}

// ListFavorites returns the wishlist joined with current listings.
// Entries whose product no longer exists are dropped from the view.
func (s *service) ListFavorites(ctx context.Context, userID uuid.UUID) ([]FavoriteDTO, error) {
	favorites, err := s.cartRepo.ListFavorites(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list favorites")
	}

	index, err := s.productIndex(ctx, favoriteProductIDs(favorites))
	if err != nil {
		return nil, err
	}

	out := make([]FavoriteDTO, 0, len(favorites))
	for _, favorite := range favorites {
		product, ok := index[favorite.ProductID]
		if !ok {
			continue
		}
		out = append(out, FavoriteDTO{
			Product: products.FromModel(&product),
			AddedAt: favorite.CreatedAt,
		})
	}
	return out, nil
}

// reload rebuilds the cart view after a mutation and refreshes the
// Redis mirror. Mirror failures never fail the request.
func (s *service) reload(ctx context.Context, userID uuid.UUID) (CartDTO, error) {
	cart, err := s.buildCart(ctx, userID)
	if err != nil {
		return CartDTO{}, err
	}
	s.mirrorCart(ctx, userID, cart)
	return cart, nil
}

func (s *service) buildCart(ctx context.Context, userID uuid.UUID) (CartDTO, error) {
	items, err := s.cartRepo.ListItems(ctx, userID)
	if err != nil {
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
	}

	index, err := s.productIndex(ctx, cartProductIDs(items))
	if err != nil {
		return CartDTO{}, err
	}

	cart := CartDTO{
		Items:    make([]LineDTO, 0, len(items)),
		Currency: enums.CurrencyGHS,
	}
	vendors := map[uuid.UUID]struct{}{}
	for _, item := range items {
		product, ok := index[item.ProductID]
		if !ok {
			continue
		}
		line := LineDTO{
			Product:  products.FromModel(&product),
			Quantity: item.Quantity,
			AddedAt:  item.CreatedAt,
		}
		if product.Status == enums.ProductStatusApproved {
			line.LineTotalPesewas = product.PricePesewas * int64(item.Quantity)
			cart.SubtotalPesewas += line.LineTotalPesewas
			vendors[product.VendorID] = struct{}{}
		} else {
			line.Unavailable = true
		}
		cart.Items = append(cart.Items, line)
	}
	cart.VendorCount = len(vendors)
	return cart, nil
}

func (s *service) mirrorCart(ctx context.Context, userID uuid.UUID, cart CartDTO) {
	if s.mirror == nil {
		return
	}
	payload, err := json.Marshal(cart)
	if err != nil {
		return
	}
	key := s.mirror.CartMirrorKey(userID.String())
	if err := s.mirror.Set(ctx, key, payload, cartMirrorTTL); err != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, userID.String()), "refreshing cart mirror failed")
	}
}

func (s *service) loadProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) productIndex(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]models.Product{}, nil
	}
	rows, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
	}
	index := make(map[uuid.UUID]models.Product, len(rows))
	for _, row := range rows {
		index[row.ID] = row
	}
	return index, nil
}

func cartProductIDs(items []models.CartItem) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

func favoriteProductIDs(favorites []models.Favorite) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(favorites))
	for _, favorite := range favorites {
		ids = append(ids, favorite.ProductID)
	}
	return ids
}
