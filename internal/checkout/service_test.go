package checkout

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
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

func TestNewOrderReference(t *testing.T) {
	t.Parallel()

	ref := newOrderReference()
	if !strings.HasPrefix(ref, "LQ-") {
		t.Fatalf("expected LQ- prefix, got %q", ref)
	}
	if len(ref) != len("LQ-")+10 {
		t.Fatalf("expected 10 reference characters, got %q", ref)
	}
	if ref != strings.ToUpper(ref) {
		t.Fatalf("expected uppercase reference, got %q", ref)
	}
	if newOrderReference() == ref {
		t.Fatalf("expected references to differ between calls")
	}
}

func TestSortedVendorIDsIsDeterministic(t *testing.T) {
	t.Parallel()

	lines := map[uuid.UUID][]checkoutLine{
		uuid.New(): nil,
		uuid.New(): nil,
		uuid.New(): nil,
	}

	first := sortedVendorIDs(lines)
	for i := 0; i < 10; i++ {
		again := sortedVendorIDs(lines)
		for j := range first {
			if first[j] != again[j] {
				t.Fatalf("expected stable ordering, run %d differs at %d", i, j)
			}
		}
	}
	for i := 1; i < len(first); i++ {
		if first[i-1].String() >= first[i].String() {
			t.Fatalf("expected ascending order, got %v", first)
		}
	}
}

func TestBuildOrderTotalsAndItems(t *testing.T) {
	t.Parallel()

	buyerID := uuid.New()
	vendorID := uuid.New()
	address := "Unity Hall, Room 214"
	lines := []checkoutLine{
		{product: models.Product{ID: uuid.New(), Name: "Waakye", PricePesewas: 1500, Images: pq.StringArray{"https://img/waakye.png", "https://img/extra.png"}}, quantity: 2},
		{product: models.Product{ID: uuid.New(), Name: "Sobolo", PricePesewas: 500}, quantity: 1},
	}

	order := buildOrder(buyerID, vendorID, enums.DeliveryOptionDelivery, 300, &address, nil, lines)

	if order.SubtotalPesewas != 3500 {
		t.Fatalf("expected subtotal 3500, got %d", order.SubtotalPesewas)
	}
	if order.TotalPesewas != 3800 {
		t.Fatalf("expected total 3800, got %d", order.TotalPesewas)
	}
	if order.Status != enums.OrderStatusPlaced {
		t.Fatalf("expected placed status, got %s", order.Status)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 order items, got %d", len(order.Items))
	}
	if order.Items[0].ImageURL == nil || *order.Items[0].ImageURL != "https://img/waakye.png" {
		t.Fatalf("expected first image snapshotted, got %v", order.Items[0].ImageURL)
	}
	if order.Items[1].ImageURL != nil {
		t.Fatalf("expected no image for product without images")
	}
	if order.Items[0].PricePesewas != 1500 {
		t.Fatalf("expected unit price snapshotted at purchase time")
	}
}

func TestBuildOrderPickupHasNoFee(t *testing.T) {
	t.Parallel()

	lines := []checkoutLine{
		{product: models.Product{ID: uuid.New(), Name: "Kelewele", PricePesewas: 800}, quantity: 1},
	}
	order := buildOrder(uuid.New(), uuid.New(), enums.DeliveryOptionPickup, 0, nil, nil, lines)

	if order.DeliveryFeePesewas != 0 {
		t.Fatalf("expected no delivery fee for pickup, got %d", order.DeliveryFeePesewas)
	}
	if order.TotalPesewas != 800 {
		t.Fatalf("expected total to equal subtotal, got %d", order.TotalPesewas)
	}
}

func TestTrimmedOrNil(t *testing.T) {
	t.Parallel()

	if got := trimmedOrNil(nil); got != nil {
		t.Fatalf("expected nil in, nil out")
	}
	blank := "   "
	if got := trimmedOrNil(&blank); got != nil {
		t.Fatalf("expected blank string to collapse to nil")
	}
	note := "  no pepper please "
	got := trimmedOrNil(&note)
	if got == nil || *got != "no pepper please" {
		t.Fatalf("expected trimmed note, got %v", got)
	}
}

func TestFirstImage(t *testing.T) {
	t.Parallel()

	if got := firstImage(nil); got != nil {
		t.Fatalf("expected nil for empty slice")
	}
	got := firstImage([]string{"a.png", "b.png"})
	if got == nil || *got != "a.png" {
		t.Fatalf("expected first image, got %v", got)
	}
}

func setupCheckoutTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{`
CREATE TABLE IF NOT EXISTS vendors (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  business_name TEXT NOT NULL,
  description TEXT,
  category TEXT,
  logo_url TEXT,
  banner_url TEXT,
  phone TEXT,
  location_name TEXT,
  lat REAL,
  lng REAL,
  approval_status TEXT NOT NULL DEFAULT 'pending',
  rating_sum INTEGER NOT NULL DEFAULT 0,
  rating_count INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  vendor_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT,
  category TEXT,
  price_pesewas INTEGER NOT NULL,
  currency TEXT NOT NULL DEFAULT 'GHS',
  images TEXT NOT NULL DEFAULT '{}',
  status TEXT NOT NULL DEFAULT 'pending',
  stock INTEGER,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (user_id, product_id)
);`, `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  reference TEXT NOT NULL UNIQUE,
  buyer_id TEXT NOT NULL,
  vendor_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'placed',
  delivery_option TEXT NOT NULL,
  delivery_person_id TEXT,
  subtotal_pesewas INTEGER NOT NULL,
  delivery_fee_pesewas INTEGER NOT NULL DEFAULT 0,
  total_pesewas INTEGER NOT NULL,
  currency TEXT NOT NULL DEFAULT 'GHS',
  delivery_address TEXT,
  buyer_note TEXT,
  decline_reason TEXT,
  placed_at DATETIME,
  delivered_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  image_url TEXT,
  price_pesewas INTEGER NOT NULL,
  quantity INTEGER NOT NULL,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`}
	for _, stmt := range ddl {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

func newCheckoutService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(ServiceParams{
		DB:          db.NewFromConn(conn),
		CartRepo:    cart.NewRepository(conn),
		OrderRepo:   orders.NewRepository(conn),
		ProductRepo: products.NewRepository(conn),
		VendorRepo:  vendors.NewRepository(conn),
		Outbox:      outbox.NewService(outbox.NewRepository(conn), logg),
		Config:      config.CheckoutConfig{DeliveryFeePesewas: 1500, Currency: "GHS"},
		Logger:      logg,
	})
	require.NoError(t, err)
	return svc
}

func seedCheckoutVendor(t *testing.T, conn *gorm.DB, id uuid.UUID) {
	t.Helper()
	require.NoError(t, conn.Create(&models.Vendor{
		ID:             id,
		OwnerID:        uuid.New(),
		BusinessName:   "Stall " + id.String()[:4],
		ApprovalStatus: enums.VendorApprovalApproved,
	}).Error)
}

func seedCheckoutProduct(t *testing.T, conn *gorm.DB, vendorID uuid.UUID, price int64, stock *int) uuid.UUID {
	t.Helper()
	product := &models.Product{
		ID:           uuid.New(),
		VendorID:     vendorID,
		Name:         "Listing " + uuid.NewString()[:4],
		PricePesewas: price,
		Currency:     enums.CurrencyGHS,
		Status:       enums.ProductStatusApproved,
		Stock:        stock,
	}
	require.NoError(t, conn.Create(product).Error)
	return product.ID
}

func seedCheckoutCartLine(t *testing.T, conn *gorm.DB, buyerID, productID uuid.UUID, quantity int) {
	t.Helper()
	require.NoError(t, conn.Create(&models.CartItem{
		ID:        uuid.New(),
		UserID:    buyerID,
		ProductID: productID,
		Quantity:  quantity,
	}).Error)
}

func TestExecuteSplitsCartByVendorWithFullFeeEach(t *testing.T) {
	conn := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, conn)
	ctx := context.Background()
	buyerID := uuid.New()

	vendorA := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	vendorB := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	seedCheckoutVendor(t, conn, vendorA)
	seedCheckoutVendor(t, conn, vendorB)

	stock := 20
	productA := seedCheckoutProduct(t, conn, vendorA, 3500, &stock)
	oneLeft := 1
	productB := seedCheckoutProduct(t, conn, vendorB, 1500, &oneLeft)
	seedCheckoutCartLine(t, conn, buyerID, productA, 1)
	seedCheckoutCartLine(t, conn, buyerID, productB, 1)

	address := "Katanga Hall"
	result, err := svc.Execute(ctx, buyerID, CheckoutInput{
		DeliveryOption:  "delivery",
		DeliveryAddress: &address,
	})
	require.NoError(t, err)

	require.Len(t, result.Orders, 2)
	assert.Equal(t, int64(5000), result.Orders[0].TotalPesewas, "first vendor order carries its own full fee")
	assert.Equal(t, int64(3000), result.Orders[1].TotalPesewas, "second vendor order carries its own full fee")
	assert.Equal(t, int64(3000), result.DeliveryFeePesewas)
	assert.Equal(t, int64(8000), result.TotalPesewas)

	var orderCount int64
	require.NoError(t, conn.Model(&models.Order{}).Count(&orderCount).Error)
	assert.EqualValues(t, 2, orderCount)

	var remaining int64
	require.NoError(t, conn.Model(&models.CartItem{}).Where("user_id = ?", buyerID).Count(&remaining).Error)
	assert.Zero(t, remaining, "checkout must leave the cart empty")

	var events int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.OutboxEventOrderPlaced).Count(&events).Error)
	assert.EqualValues(t, 2, events)

	var sold models.Product
	require.NoError(t, conn.First(&sold, "id = ?", productB).Error)
	require.NotNil(t, sold.Stock)
	assert.Equal(t, 0, *sold.Stock)
}

func TestExecuteRejectsUnavailableProduct(t *testing.T) {
	conn := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, conn)
	ctx := context.Background()
	buyerID := uuid.New()

	vendorID := uuid.New()
	seedCheckoutVendor(t, conn, vendorID)
	productID := seedCheckoutProduct(t, conn, vendorID, 2000, nil)
	require.NoError(t, conn.Model(&models.Product{}).Where("id = ?", productID).Update("status", enums.ProductStatusPending).Error)
	seedCheckoutCartLine(t, conn, buyerID, productID, 1)

	_, err := svc.Execute(ctx, buyerID, CheckoutInput{DeliveryOption: "pickup"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	var orderCount int64
	require.NoError(t, conn.Model(&models.Order{}).Count(&orderCount).Error)
	assert.Zero(t, orderCount, "no order is placed for a listing outside moderation approval")
}

func TestExecuteLaterPartitionFailureKeepsEarlierOrdersAndClearsCart(t *testing.T) {
	conn := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, conn)
	ctx := context.Background()
	buyerID := uuid.New()

	vendorA := uuid.MustParse("33333333-3333-3333-3333-333333333333")
	vendorB := uuid.MustParse("44444444-4444-4444-4444-444444444444")
	seedCheckoutVendor(t, conn, vendorA)
	seedCheckoutVendor(t, conn, vendorB)

	plenty := 10
	drained := 0
	productA := seedCheckoutProduct(t, conn, vendorA, 1200, &plenty)
	productB := seedCheckoutProduct(t, conn, vendorB, 900, &drained)
	// Bypasses the add-to-cart stock gate to model stock draining after
	// the line was added.
	seedCheckoutCartLine(t, conn, buyerID, productA, 1)
	seedCheckoutCartLine(t, conn, buyerID, productB, 1)

	_, err := svc.Execute(ctx, buyerID, CheckoutInput{DeliveryOption: "pickup"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	var placed []models.Order
	require.NoError(t, conn.Find(&placed).Error)
	require.Len(t, placed, 1, "the vendor partition that committed first must stand")
	assert.Equal(t, vendorA, placed[0].VendorID)

	var remaining int64
	require.NoError(t, conn.Model(&models.CartItem{}).Where("user_id = ?", buyerID).Count(&remaining).Error)
	assert.Zero(t, remaining, "the cart empties even when a later partition fails")
}

func TestExecuteRequiresAddressForDelivery(t *testing.T) {
	conn := setupCheckoutTestDB(t)
	svc := newCheckoutService(t, conn)

	_, err := svc.Execute(context.Background(), uuid.New(), CheckoutInput{DeliveryOption: "delivery"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
