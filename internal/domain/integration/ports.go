package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// POS inventory port
// ---------------------------------------------------------------------------

// InventoryResource is the port to the POS inventory API
type InventoryResource interface {
	// FetchLocations returns the store, supplier, bin and sold locations of the account
	FetchLocations(ctx context.Context, salesChannel *POSSalesChannel) (Locations, error)

	// FetchInventory returns the stock status of a location
	FetchInventory(ctx context.Context, salesChannel *POSSalesChannel, locationUUID uuid.UUID) (*InventoryStatus, error)

	// StartTracking enables stock tracking for a POS product.
	// It returns nil when the POS sends no balances back.
	StartTracking(ctx context.Context, salesChannel *POSSalesChannel, productUUID uuid.UUID) (*InventoryStatus, error)

	// ChangeInventory applies a batch of movements and returns the new balances
	// of the requested location
	ChangeInventory(ctx context.Context, salesChannel *POSSalesChannel, change InventoryChange) (*InventoryStatus, error)
}

// ---------------------------------------------------------------------------
// Repositories
// ---------------------------------------------------------------------------

// CatalogProductReader reads catalog records
type CatalogProductReader interface {
	// FindBySalesChannel returns the catalog records assigned to a sales channel
	FindBySalesChannel(ctx context.Context, salesChannelID uuid.UUID) ([]CatalogProduct, error)
}

// CatalogStockWriter updates catalog stock
type CatalogStockWriter interface {
	// UpdateStockWithSnapshot sets the stock of the entry's catalog record and
	// stores entry in the snapshot, in one transaction
	UpdateStockWithSnapshot(ctx context.Context, stock int, entry LocalInventoryEntry) error
}

// CatalogProductRepository combines catalog read and write access
type CatalogProductRepository interface {
	CatalogProductReader
	CatalogStockWriter
	Save(ctx context.Context, salesChannelID uuid.UUID, product CatalogProduct) error
}

// LocalInventoryRepository persists the local inventory snapshot
type LocalInventoryRepository interface {
	// FindBySalesChannel returns the snapshot of a sales channel
	FindBySalesChannel(ctx context.Context, salesChannelID uuid.UUID) ([]LocalInventoryEntry, error)

	// Upsert inserts or updates snapshot entries keyed on (sales channel, product, version)
	Upsert(ctx context.Context, entries []LocalInventoryEntry) error

	// DeleteBySalesChannel removes the snapshot of a sales channel
	DeleteBySalesChannel(ctx context.Context, salesChannelID uuid.UUID) error
}

// POSSalesChannelRepository persists POS sales channels
type POSSalesChannelRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*POSSalesChannel, error)
	FindBySalesChannelID(ctx context.Context, salesChannelID uuid.UUID) (*POSSalesChannel, error)
	FindEnabled(ctx context.Context) ([]POSSalesChannel, error)
	Save(ctx context.Context, salesChannel *POSSalesChannel) error
}

// InventorySyncRunRepository persists sync run logs
type InventorySyncRunRepository interface {
	Save(ctx context.Context, run *InventorySyncRun) error
	FindByID(ctx context.Context, id uuid.UUID) (*InventorySyncRun, error)
	FindLatest(ctx context.Context, salesChannelID uuid.UUID) (*InventorySyncRun, error)
	FindRecent(ctx context.Context, salesChannelID uuid.UUID, limit int) ([]InventorySyncRun, error)
}

// ---------------------------------------------------------------------------
// Run coordination and notification
// ---------------------------------------------------------------------------

// RunLock excludes concurrent sync runs for the same sales channel
type RunLock interface {
	// Acquire takes the lock for ttl. It returns false if the lock is held elsewhere.
	Acquire(ctx context.Context, salesChannelID uuid.UUID, ttl time.Duration) (bool, error)
	// Release gives the lock back
	Release(ctx context.Context, salesChannelID uuid.UUID) error
}

// SyncEventPublisher announces finished sync runs
type SyncEventPublisher interface {
	PublishInventorySynced(ctx context.Context, event InventorySyncedEvent) error
}
