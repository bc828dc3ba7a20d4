package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/paypos/backend/internal/domain/integration"
	"github.com/paypos/backend/internal/domain/shared"
	"github.com/paypos/backend/internal/infrastructure/persistence/models"
	"github.com/paypos/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupPOSTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.POSSalesChannelModel{},
		&models.SalesChannelInventoryModel{},
		&models.CatalogProductModel{},
		&models.InventorySyncRunModel{},
	)
	require.NoError(t, err)

	return db
}

func newTestChannel(t *testing.T, name string) *integration.POSSalesChannel {
	t.Helper()
	ch, err := integration.NewPOSSalesChannel(uuid.New(), uuid.New(), name, "api-key")
	require.NoError(t, err)
	return ch
}

// ---------------------------------------------------------------------------
// POS sales channels
// ---------------------------------------------------------------------------

func TestGormPOSSalesChannelRepository(t *testing.T) {
	db := setupPOSTestDB(t)
	repo := NewGormPOSSalesChannelRepository(db)
	ctx := context.Background()

	berlin := newTestChannel(t, "Berlin")
	streamID := uuid.New()
	berlin.ProductStreamID = &streamID
	amsterdam := newTestChannel(t, "Amsterdam")
	closed := newTestChannel(t, "Closed")
	closed.Disable()

	for _, ch := range []*integration.POSSalesChannel{berlin, amsterdam, closed} {
		require.NoError(t, repo.Save(ctx, ch))
	}

	t.Run("finds by sales channel id", func(t *testing.T) {
		found, err := repo.FindBySalesChannelID(ctx, berlin.SalesChannelID)
		require.NoError(t, err)
		assert.Equal(t, berlin.ID, found.ID)
		assert.Equal(t, berlin.SalesChannelTypeID, found.SalesChannelTypeID)
		require.NotNil(t, found.ProductStreamID)
		assert.Equal(t, streamID, *found.ProductStreamID)
		assert.True(t, found.Enabled)
	})

	t.Run("finds by id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, closed.ID)
		require.NoError(t, err)
		assert.False(t, found.Enabled)
	})

	t.Run("unknown id maps to not found", func(t *testing.T) {
		_, err := repo.FindBySalesChannelID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("lists enabled channels by name", func(t *testing.T) {
		channels, err := repo.FindEnabled(ctx)
		require.NoError(t, err)
		require.Len(t, channels, 2)
		assert.Equal(t, "Amsterdam", channels[0].Name)
		assert.Equal(t, "Berlin", channels[1].Name)

		count, err := repo.CountEnabled(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("save updates an existing channel", func(t *testing.T) {
		amsterdam.Disable()
		require.NoError(t, repo.Save(ctx, amsterdam))

		count, err := repo.CountEnabled(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("save rejects invalid channel", func(t *testing.T) {
		invalid := &integration.POSSalesChannel{ID: uuid.New()}
		assert.Error(t, repo.Save(ctx, invalid))
	})
}

// ---------------------------------------------------------------------------
// Local inventory snapshot
// ---------------------------------------------------------------------------

func TestGormLocalInventoryRepository(t *testing.T) {
	db := setupPOSTestDB(t)
	repo := NewGormLocalInventoryRepository(db)
	ctx := context.Background()

	scID, otherID := uuid.New(), uuid.New()
	p1 := integration.NewStandaloneProduct(uuid.New(), uuid.New())
	p2 := integration.NewVariantProduct(uuid.New(), uuid.New(), uuid.New())

	require.NoError(t, repo.Upsert(ctx, []integration.LocalInventoryEntry{
		integration.NewLocalInventoryEntry(scID, p1, 5),
		integration.NewLocalInventoryEntry(scID, p2, 7),
		integration.NewLocalInventoryEntry(otherID, p1, 1),
	}))

	t.Run("reads the snapshot of one channel", func(t *testing.T) {
		entries, err := repo.FindBySalesChannel(ctx, scID)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("upsert overwrites stock on the same key", func(t *testing.T) {
		require.NoError(t, repo.Upsert(ctx, []integration.LocalInventoryEntry{
			integration.NewLocalInventoryEntry(scID, p1, 9),
		}))

		entries, err := repo.FindBySalesChannel(ctx, scID)
		require.NoError(t, err)
		require.Len(t, entries, 2)

		stock := map[uuid.UUID]int{}
		for _, e := range entries {
			stock[e.ProductID] = e.Stock
		}
		assert.Equal(t, 9, stock[p1.ID])
		assert.Equal(t, 7, stock[p2.ID])

		other, err := repo.FindBySalesChannel(ctx, otherID)
		require.NoError(t, err)
		require.Len(t, other, 1)
		assert.Equal(t, 1, other[0].Stock)
	})

	t.Run("empty upsert is a no-op", func(t *testing.T) {
		assert.NoError(t, repo.Upsert(ctx, nil))
	})

	t.Run("deletes the snapshot of one channel", func(t *testing.T) {
		require.NoError(t, repo.DeleteBySalesChannel(ctx, scID))

		entries, err := repo.FindBySalesChannel(ctx, scID)
		require.NoError(t, err)
		assert.Empty(t, entries)

		other, err := repo.FindBySalesChannel(ctx, otherID)
		require.NoError(t, err)
		assert.Len(t, other, 1)
	})
}

// ---------------------------------------------------------------------------
// Catalog products
// ---------------------------------------------------------------------------

func TestGormCatalogProductRepository(t *testing.T) {
	db := setupPOSTestDB(t)
	repo := NewGormCatalogProductRepository(db)
	ctx := context.Background()

	scID := uuid.New()
	parentID := uuid.New()

	standalone := integration.NewStandaloneProduct(uuid.New(), uuid.New())
	standalone.ProductNumber = "SW-001"
	standalone.Name = "Coffee mug"
	standalone.Stock = 4
	standalone.Price = decimal.RequireFromString("12.5")

	variant := integration.NewVariantProduct(uuid.New(), uuid.New(), parentID)
	variant.ProductNumber = "SW-002.1"
	variant.Name = "T-shirt M"
	variant.Stock = 10

	require.NoError(t, repo.Save(ctx, scID, standalone))
	require.NoError(t, repo.Save(ctx, scID, variant))
	require.NoError(t, repo.Save(ctx, uuid.New(), integration.NewStandaloneProduct(uuid.New(), uuid.New())))

	t.Run("reads records and resolves their kind", func(t *testing.T) {
		products, err := repo.FindBySalesChannel(ctx, scID)
		require.NoError(t, err)
		require.Len(t, products, 2)

		assert.Equal(t, standalone.ID, products[0].ID)
		assert.False(t, products[0].IsVariant())
		assert.True(t, standalone.Price.Equal(products[0].Price))

		assert.Equal(t, variant.ID, products[1].ID)
		assert.True(t, products[1].IsVariant())
		gotParent, ok := products[1].ParentID()
		require.True(t, ok)
		assert.Equal(t, parentID, gotParent)
	})

	t.Run("updates stock and snapshot together", func(t *testing.T) {
		snapshots := NewGormLocalInventoryRepository(db)
		variant.Stock = 6
		entry := integration.NewLocalInventoryEntry(scID, variant, 5)

		require.NoError(t, repo.UpdateStockWithSnapshot(ctx, 6, entry))

		products, err := repo.FindBySalesChannel(ctx, scID)
		require.NoError(t, err)
		assert.Equal(t, 6, products[1].Stock)
		assert.Equal(t, 4, products[0].Stock)

		entries, err := snapshots.FindBySalesChannel(ctx, scID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, 5, entries[0].Stock)
	})

	t.Run("no snapshot is written for an unknown record", func(t *testing.T) {
		snapshots := NewGormLocalInventoryRepository(db)
		unknown := integration.NewStandaloneProduct(uuid.New(), uuid.New())

		err := repo.UpdateStockWithSnapshot(ctx, 1, integration.NewLocalInventoryEntry(scID, unknown, 1))
		assert.ErrorIs(t, err, shared.ErrNotFound)

		// known product, unknown version
		stale := variant
		stale.VersionID = uuid.New()
		err = repo.UpdateStockWithSnapshot(ctx, 1, integration.NewLocalInventoryEntry(scID, stale, 1))
		assert.ErrorIs(t, err, shared.ErrNotFound)

		entries, err := snapshots.FindBySalesChannel(ctx, scID)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("save overwrites an existing record", func(t *testing.T) {
		standalone.Name = "Large coffee mug"
		require.NoError(t, repo.Save(ctx, scID, standalone))

		products, err := repo.FindBySalesChannel(ctx, scID)
		require.NoError(t, err)
		require.Len(t, products, 2)
		assert.Equal(t, "Large coffee mug", products[0].Name)
	})
}

// ---------------------------------------------------------------------------
// Sync runs
// ---------------------------------------------------------------------------

func TestGormInventorySyncRunRepository(t *testing.T) {
	db := setupPOSTestDB(t)
	repo := NewGormInventorySyncRunRepository(db)
	ctx := context.Background()

	scID := uuid.New()

	older := integration.NewInventorySyncRun(scID, integration.SyncTriggerScheduled)
	older.StartedAt = time.Now().Add(-time.Hour)
	older.Complete()
	require.NoError(t, repo.Save(ctx, older))

	latest := integration.NewInventorySyncRun(scID, integration.SyncTriggerManual)
	require.NoError(t, repo.Save(ctx, latest))

	t.Run("save updates the run", func(t *testing.T) {
		latest.TotalCount = 2
		latest.PushedCount = 1
		latest.RecordFailure(uuid.New(), integration.FailureCodeTrackingStart, errors.New("unavailable"))
		latest.Complete()
		require.NoError(t, repo.Save(ctx, latest))

		found, err := repo.FindByID(ctx, latest.ID)
		require.NoError(t, err)
		assert.Equal(t, integration.SyncStatusPartial, found.Status)
		assert.Equal(t, integration.SyncTriggerManual, found.Trigger)
		assert.Equal(t, 1, found.PushedCount)
		assert.Equal(t, 1, found.FailedCount)
		require.Len(t, found.Failures, 1)
		assert.Equal(t, integration.FailureCodeTrackingStart, found.Failures[0].ErrorCode)
		assert.NotNil(t, found.FinishedAt)
	})

	t.Run("finds the latest run", func(t *testing.T) {
		found, err := repo.FindLatest(ctx, scID)
		require.NoError(t, err)
		assert.Equal(t, latest.ID, found.ID)
	})

	t.Run("lists recent runs newest first", func(t *testing.T) {
		runs, err := repo.FindRecent(ctx, scID, 10)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, latest.ID, runs[0].ID)
		assert.Equal(t, older.ID, runs[1].ID)

		runs, err = repo.FindRecent(ctx, scID, 1)
		require.NoError(t, err)
		assert.Len(t, runs, 1)
	})

	t.Run("unknown channel has no latest run", func(t *testing.T) {
		_, err := repo.FindLatest(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)

		_, err = repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

// ---------------------------------------------------------------------------
// SQL shape against postgres
// ---------------------------------------------------------------------------

func TestGormLocalInventoryRepository_UpsertSQL(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	repo := NewGormLocalInventoryRepository(mockDB.DB)
	entry := integration.NewLocalInventoryEntry(uuid.New(), integration.NewStandaloneProduct(uuid.New(), uuid.New()), 4)

	mockDB.Mock.ExpectBegin()
	mockDB.Mock.ExpectExec(`INSERT INTO "pos_sales_channel_inventory" .* ON CONFLICT \("sales_channel_id","product_id","product_version_id"\) DO UPDATE SET "stock"="excluded"."stock","updated_at"="excluded"."updated_at"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.Mock.ExpectCommit()

	require.NoError(t, repo.Upsert(context.Background(), []integration.LocalInventoryEntry{entry}))
	mockDB.ExpectationsWereMet(t)
}

func TestGormLocalInventoryRepository_UpsertRollsBack(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	repo := NewGormLocalInventoryRepository(mockDB.DB)
	entry := integration.NewLocalInventoryEntry(uuid.New(), integration.NewStandaloneProduct(uuid.New(), uuid.New()), 4)

	mockDB.Mock.ExpectBegin()
	mockDB.Mock.ExpectExec(`INSERT INTO "pos_sales_channel_inventory"`).
		WillReturnError(errors.New("deadlock detected"))
	mockDB.Mock.ExpectRollback()

	assert.Error(t, repo.Upsert(context.Background(), []integration.LocalInventoryEntry{entry}))
	mockDB.ExpectationsWereMet(t)
}

func TestGormCatalogProductRepository_UpdateStockWithSnapshotSQL(t *testing.T) {
	product := integration.NewStandaloneProduct(uuid.New(), uuid.New())
	entry := integration.NewLocalInventoryEntry(uuid.New(), product, 7)

	t.Run("commits both writes", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		repo := NewGormCatalogProductRepository(mockDB.DB)

		mockDB.Mock.ExpectBegin()
		mockDB.Mock.ExpectExec(`UPDATE "catalog_products" SET .*"stock"=\$`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mockDB.Mock.ExpectExec(`INSERT INTO "pos_sales_channel_inventory" .* ON CONFLICT`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mockDB.Mock.ExpectCommit()

		require.NoError(t, repo.UpdateStockWithSnapshot(context.Background(), 9, entry))
		mockDB.ExpectationsWereMet(t)
	})

	t.Run("rolls back the stock when the snapshot fails", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		repo := NewGormCatalogProductRepository(mockDB.DB)

		mockDB.Mock.ExpectBegin()
		mockDB.Mock.ExpectExec(`UPDATE "catalog_products"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mockDB.Mock.ExpectExec(`INSERT INTO "pos_sales_channel_inventory"`).
			WillReturnError(errors.New("db down"))
		mockDB.Mock.ExpectRollback()

		assert.Error(t, repo.UpdateStockWithSnapshot(context.Background(), 9, entry))
		mockDB.ExpectationsWereMet(t)
	})
}

func TestGormPOSSalesChannelRepository_QueryError(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	repo := NewGormPOSSalesChannelRepository(mockDB.DB)
	mockDB.Mock.ExpectQuery(`SELECT \* FROM "pos_sales_channels" WHERE enabled = \$1 ORDER BY name ASC`).
		WithArgs(true).
		WillReturnError(errors.New("connection reset"))

	channels, err := repo.FindEnabled(context.Background())
	assert.Error(t, err)
	assert.Nil(t, channels)
	mockDB.ExpectationsWereMet(t)
}
