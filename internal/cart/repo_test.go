package cart

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/GyabaahFelix/lynqed-backend/pkg/db/models"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	cartItems := `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (user_id, product_id)
);`
	favorites := `
CREATE TABLE IF NOT EXISTS favorites (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  created_at DATETIME,
  UNIQUE (user_id, product_id)
);`
	require.NoError(t, db.Exec(cartItems).Error)
	require.NoError(t, db.Exec(favorites).Error)
	return db
}

func seedCartItem(t *testing.T, db *gorm.DB, userID, productID uuid.UUID, quantity int, at time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&models.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: at,
	}).Error)
}

func TestRepositorySetQuantity(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID, productID := uuid.New(), uuid.New()

	seedCartItem(t, db, userID, productID, 1, time.Now())

	ok, err := repo.SetQuantity(ctx, userID, productID, 4)
	require.NoError(t, err)
	assert.True(t, ok)

	items, err := repo.ListItems(ctx, userID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 4, items[0].Quantity)

	ok, err = repo.SetQuantity(ctx, userID, uuid.New(), 2)
	require.NoError(t, err)
	assert.False(t, ok, "updating an absent line must report false")
}

func TestRepositoryRemoveItemAndClear(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()
	first, second := uuid.New(), uuid.New()

	seedCartItem(t, db, userID, first, 1, time.Now())
	seedCartItem(t, db, userID, second, 2, time.Now())

	require.NoError(t, repo.RemoveItem(ctx, userID, first))
	items, err := repo.ListItems(ctx, userID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, second, items[0].ProductID)

	// Removing a line that is already gone stays quiet.
	require.NoError(t, repo.RemoveItem(ctx, userID, first))

	require.NoError(t, repo.Clear(ctx, userID))
	items, err = repo.ListItems(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRepositoryListItemsOldestFirst(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()
	older, newer := uuid.New(), uuid.New()

	seedCartItem(t, db, userID, newer, 1, time.Now())
	seedCartItem(t, db, userID, older, 1, time.Now().Add(-time.Hour))
	seedCartItem(t, db, uuid.New(), uuid.New(), 1, time.Now())

	items, err := repo.ListItems(ctx, userID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, older, items[0].ProductID)
	assert.Equal(t, newer, items[1].ProductID)
}

func TestRepositoryUpsertItemRejectsNilIDs(t *testing.T) {
	repo := NewRepository(setupCartTestDB(t))
	ctx := context.Background()

	assert.Error(t, repo.UpsertItem(ctx, uuid.Nil, uuid.New(), 1))
	assert.Error(t, repo.UpsertItem(ctx, uuid.New(), uuid.Nil, 1))
}

func TestRepositoryFavorites(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()
	first, second := uuid.New(), uuid.New()

	require.NoError(t, db.Create(&models.Favorite{ID: uuid.New(), UserID: userID, ProductID: first, CreatedAt: time.Now().Add(-time.Minute)}).Error)
	require.NoError(t, db.Create(&models.Favorite{ID: uuid.New(), UserID: userID, ProductID: second, CreatedAt: time.Now()}).Error)

	favorites, err := repo.ListFavorites(ctx, userID)
	require.NoError(t, err)
	require.Len(t, favorites, 2)
	assert.Equal(t, second, favorites[0].ProductID, "newest first")

	require.NoError(t, repo.RemoveFavorite(ctx, userID, second))
	favorites, err = repo.ListFavorites(ctx, userID)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, first, favorites[0].ProductID)

	assert.Error(t, repo.AddFavorite(ctx, uuid.Nil, first))
}
