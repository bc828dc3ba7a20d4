package integration

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// InventoryContext holds the state of one sync run for one sales channel:
// the POS stock status, the local snapshot, and the products for which
// tracking was started during the run.
//
// An InventoryContext is owned by a single sync run and must not be shared
// between goroutines.
type InventoryContext struct {
	resource        InventoryResource
	config          RunConfig
	external        *InventoryStatus
	local           []LocalInventoryEntry
	trackingStarted map[uuid.UUID]struct{}
}

// NewInventoryContext seeds a context with the POS status and the local snapshot
func NewInventoryContext(
	resource InventoryResource,
	config RunConfig,
	external *InventoryStatus,
	local []LocalInventoryEntry,
) *InventoryContext {
	if external == nil {
		external = &InventoryStatus{LocationUUID: config.Locations.StoreUUID}
	}
	return &InventoryContext{
		resource:        resource,
		config:          config,
		external:        external,
		local:           local,
		trackingStarted: make(map[uuid.UUID]struct{}),
	}
}

// ---------------------------------------------------------------------------
// External inventory
// ---------------------------------------------------------------------------

// GetExternalInventory returns the POS balance of a catalog record.
// ok is false when no balance is known, or when the product is not tracked
// by the POS and ignoreTracking is false.
func (c *InventoryContext) GetExternalInventory(product CatalogProduct, ignoreTracking bool) (balance int, ok bool) {
	productUUID, variantUUID := product.ExternalIDs()

	variant := c.findExternalInventory(productUUID, variantUUID)
	if variant == nil || !(ignoreTracking || c.IsExternallyTracked(product)) {
		return 0, false
	}
	return variant.Balance, true
}

// IsExternallyTracked returns true if the POS tracks the stock of the record's product
func (c *InventoryContext) IsExternallyTracked(product CatalogProduct) bool {
	productUUID := ConvertUUIDToV1(product.ParentOrOwnID())
	for _, tracked := range c.external.TrackedProducts {
		if tracked == productUUID {
			return true
		}
	}
	return false
}

// StartTracking enables POS stock tracking for the record's product.
// It calls the POS at most once per product and run. A product is only
// remembered as started once the call succeeded, so a failed call can be
// retried. Balances returned by the POS are merged into the status.
func (c *InventoryContext) StartTracking(ctx context.Context, product CatalogProduct) error {
	productUUID := ConvertUUIDToV1(product.ParentOrOwnID())
	if _, started := c.trackingStarted[productUUID]; started {
		return nil
	}

	status, err := c.resource.StartTracking(ctx, &c.config.SalesChannel, productUUID)
	if err != nil {
		return fmt.Errorf("%w: product %s: %w", ErrTrackingStartFailed, productUUID, err)
	}
	c.trackingStarted[productUUID] = struct{}{}

	if status.IsEmpty() {
		return nil
	}
	for _, variant := range status.Variants {
		c.AddExternalInventory(variant)
	}
	return nil
}

// HasStartedTracking returns true if tracking was started for the record's product in this run
func (c *InventoryContext) HasStartedTracking(product CatalogProduct) bool {
	_, started := c.trackingStarted[ConvertUUIDToV1(product.ParentOrOwnID())]
	return started
}

// AddExternalInventory inserts a balance, or overwrites the balance already
// stored for the same (product, variant) pair
func (c *InventoryContext) AddExternalInventory(balance VariantBalance) {
	if existing := c.findExternalInventory(balance.ProductUUID, balance.VariantUUID); existing != nil {
		existing.Balance = balance.Balance
		return
	}
	c.external.Variants = append(c.external.Variants, balance)
}

// ExternalInventory returns the current POS status
func (c *InventoryContext) ExternalInventory() *InventoryStatus {
	return c.external
}

func (c *InventoryContext) findExternalInventory(productUUID, variantUUID uuid.UUID) *VariantBalance {
	for i := range c.external.Variants {
		v := &c.external.Variants[i]
		if v.ProductUUID == productUUID && v.VariantUUID == variantUUID {
			return v
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Local inventory
// ---------------------------------------------------------------------------

// GetLocalInventory returns the last synced stock of the record, 0 if there is none
func (c *InventoryContext) GetLocalInventory(product CatalogProduct) int {
	for _, entry := range c.local {
		if entry.ProductID == product.ID && entry.ProductVersionID == product.VersionID {
			return entry.Stock
		}
	}
	return 0
}

// UpdateLocalInventory adds entries to the local snapshot. An entry for a
// (product, version) pair already in the snapshot replaces the old one.
func (c *InventoryContext) UpdateLocalInventory(entries []LocalInventoryEntry) {
	for _, entry := range entries {
		replaced := false
		for i := range c.local {
			if c.local[i].ProductID == entry.ProductID && c.local[i].ProductVersionID == entry.ProductVersionID {
				c.local[i] = entry
				replaced = true
				break
			}
		}
		if !replaced {
			c.local = append(c.local, entry)
		}
	}
}

// LocalInventory returns the local snapshot
func (c *InventoryContext) LocalInventory() []LocalInventoryEntry {
	return c.local
}

// ---------------------------------------------------------------------------
// Run configuration
// ---------------------------------------------------------------------------

// StoreUUID returns the POS store location
func (c *InventoryContext) StoreUUID() uuid.UUID { return c.config.Locations.StoreUUID }

// SupplierUUID returns the POS supplier location
func (c *InventoryContext) SupplierUUID() uuid.UUID { return c.config.Locations.SupplierUUID }

// BinUUID returns the POS bin location
func (c *InventoryContext) BinUUID() uuid.UUID { return c.config.Locations.BinUUID }

// SoldUUID returns the POS sold location
func (c *InventoryContext) SoldUUID() uuid.UUID { return c.config.Locations.SoldUUID }

// SalesChannelID returns the local sales channel under sync
func (c *InventoryContext) SalesChannelID() uuid.UUID { return c.config.SalesChannel.SalesChannelID }

// POSSalesChannel returns the POS join record of the sales channel under sync
func (c *InventoryContext) POSSalesChannel() *POSSalesChannel { return &c.config.SalesChannel }

// RunConfig returns the configuration of the run
func (c *InventoryContext) RunConfig() RunConfig { return c.config }
