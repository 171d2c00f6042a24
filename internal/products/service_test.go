package products

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/GyabaahFelix/lynqed-backend/internal/vendors"
	"github.com/GyabaahFelix/lynqed-backend/pkg/db"
	"github.com/GyabaahFelix/lynqed-backend/pkg/db/models"
	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
	pkgerrors "github.com/GyabaahFelix/lynqed-backend/pkg/errors"
	"github.com/GyabaahFelix/lynqed-backend/pkg/logger"
	"github.com/GyabaahFelix/lynqed-backend/pkg/outbox"
)

func setupProductServiceTest(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{`
CREATE TABLE IF NOT EXISTS vendors (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL UNIQUE,
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

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(ServiceParams{
		DB:          db.NewFromConn(conn),
		ProductRepo: NewRepository(conn),
		VendorRepo:  vendors.NewRepository(conn),
		Outbox:      outbox.NewService(outbox.NewRepository(conn), logg),
	})
	require.NoError(t, err)
	return svc, conn
}

func seedStorefront(t *testing.T, conn *gorm.DB, approval enums.VendorApprovalStatus) (ownerID, vendorID uuid.UUID) {
	t.Helper()
	vendor := &models.Vendor{
		ID:             uuid.New(),
		OwnerID:        uuid.New(),
		BusinessName:   "Campus Stall",
		ApprovalStatus: approval,
	}
	require.NoError(t, conn.Create(vendor).Error)
	return vendor.OwnerID, vendor.ID
}

func TestCreateProductStartsPendingAndStaysOffFeed(t *testing.T) {
	svc, conn := setupProductServiceTest(t)
	ctx := context.Background()
	ownerID, _ := seedStorefront(t, conn, enums.VendorApprovalApproved)

	created, err := svc.CreateProduct(ctx, ownerID, CreateProductInput{
		Name:         "Banku Bowl",
		PricePesewas: 1800,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.ProductStatusPending, created.Status)

	feed, err := svc.Feed(ctx, FeedQuery{})
	require.NoError(t, err)
	assert.Empty(t, feed, "a listing awaiting moderation must not reach buyers")
}

func TestModerateApprovalPutsListingOnFeed(t *testing.T) {
	svc, conn := setupProductServiceTest(t)
	ctx := context.Background()
	ownerID, _ := seedStorefront(t, conn, enums.VendorApprovalApproved)

	created, err := svc.CreateProduct(ctx, ownerID, CreateProductInput{
		Name:         "Waakye Special",
		PricePesewas: 2200,
	})
	require.NoError(t, err)

	moderated, err := svc.Moderate(ctx, uuid.New(), created.ID, enums.ProductStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, enums.ProductStatusApproved, moderated.Status)

	feed, err := svc.Feed(ctx, FeedQuery{})
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, created.ID, feed[0].ID)
}

func TestModerateRejectionKeepsListingOffFeed(t *testing.T) {
	svc, conn := setupProductServiceTest(t)
	ctx := context.Background()
	ownerID, _ := seedStorefront(t, conn, enums.VendorApprovalApproved)

	created, err := svc.CreateProduct(ctx, ownerID, CreateProductInput{
		Name:         "Kelewele Cup",
		PricePesewas: 700,
	})
	require.NoError(t, err)

	_, err = svc.Moderate(ctx, uuid.New(), created.ID, enums.ProductStatusRejected)
	require.NoError(t, err)

	feed, err := svc.Feed(ctx, FeedQuery{})
	require.NoError(t, err)
	assert.Empty(t, feed)

	mine, err := svc.ListMyProducts(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, enums.ProductStatusRejected, mine[0].Status, "the owner still sees the rejected listing")
}

func TestModerateOnlyAcceptsVerdictStatuses(t *testing.T) {
	svc, conn := setupProductServiceTest(t)
	ctx := context.Background()
	ownerID, _ := seedStorefront(t, conn, enums.VendorApprovalApproved)

	created, err := svc.CreateProduct(ctx, ownerID, CreateProductInput{
		Name:         "Sobolo Bottle",
		PricePesewas: 500,
	})
	require.NoError(t, err)

	_, err = svc.Moderate(ctx, uuid.New(), created.ID, enums.ProductStatusPending)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestFeedHidesApprovedListingOfUnapprovedStorefront(t *testing.T) {
	svc, conn := setupProductServiceTest(t)
	ctx := context.Background()
	_, vendorID := seedStorefront(t, conn, enums.VendorApprovalPending)

	require.NoError(t, conn.Create(&models.Product{
		ID:           uuid.New(),
		VendorID:     vendorID,
		Name:         "Fried Rice Box",
		PricePesewas: 2500,
		Currency:     enums.CurrencyGHS,
		Status:       enums.ProductStatusApproved,
	}).Error)

	feed, err := svc.Feed(ctx, FeedQuery{})
	require.NoError(t, err)
	assert.Empty(t, feed, "buyer visibility needs both listing and storefront approval")
}

func TestListByStatusPagesOldestFirst(t *testing.T) {
	svc, conn := setupProductServiceTest(t)
	ctx := context.Background()
	ownerID, _ := seedStorefront(t, conn, enums.VendorApprovalApproved)

	first, err := svc.CreateProduct(ctx, ownerID, CreateProductInput{Name: "First", PricePesewas: 100})
	require.NoError(t, err)
	second, err := svc.CreateProduct(ctx, ownerID, CreateProductInput{Name: "Second", PricePesewas: 200})
	require.NoError(t, err)

	queue, err := svc.ListByStatus(ctx, enums.ProductStatusPending, 10, 0)
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, first.ID, queue[0].ID)
	assert.Equal(t, second.ID, queue[1].ID)
}

func TestAdminRemoveProductDeletesAnyListing(t *testing.T) {
	svc, conn := setupProductServiceTest(t)
	ctx := context.Background()
	ownerID, _ := seedStorefront(t, conn, enums.VendorApprovalApproved)

	created, err := svc.CreateProduct(ctx, ownerID, CreateProductInput{Name: "Meat Pie", PricePesewas: 600})
	require.NoError(t, err)

	require.NoError(t, svc.AdminRemoveProduct(ctx, uuid.New(), created.ID))

	var count int64
	require.NoError(t, conn.Model(&models.Product{}).Count(&count).Error)
	assert.Zero(t, count)

	err = svc.AdminRemoveProduct(ctx, uuid.New(), created.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
