package integration

import (
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// External inventory (POS side)
// ---------------------------------------------------------------------------

// VariantBalance is the POS stock balance of one variant of one product
type VariantBalance struct {
	// ProductUUID is the POS product identifier
	ProductUUID uuid.UUID
	// VariantUUID is the POS variant identifier
	VariantUUID uuid.UUID
	// Balance is the current stock balance in the store location
	Balance int
}

// InventoryStatus is the POS stock status of a location
type InventoryStatus struct {
	// LocationUUID is the location the balances belong to
	LocationUUID uuid.UUID
	// Variants holds one balance per (product, variant) pair
	Variants []VariantBalance
	// TrackedProducts lists the products with stock tracking enabled
	TrackedProducts []uuid.UUID
}

// IsEmpty returns true if the status carries no balances
func (s *InventoryStatus) IsEmpty() bool {
	return s == nil || len(s.Variants) == 0
}

// Locations holds the POS location identifiers required by inventory movements
type Locations struct {
	StoreUUID    uuid.UUID
	SupplierUUID uuid.UUID
	BinUUID      uuid.UUID
	SoldUUID     uuid.UUID
}

// Validate returns ErrLocationsIncomplete if any location is missing
func (l Locations) Validate() error {
	if l.StoreUUID == uuid.Nil || l.SupplierUUID == uuid.Nil || l.BinUUID == uuid.Nil || l.SoldUUID == uuid.Nil {
		return ErrLocationsIncomplete
	}
	return nil
}

// LocationType is the type of a POS inventory location
type LocationType string

const (
	LocationTypeStore    LocationType = "STORE"
	LocationTypeSupplier LocationType = "SUPPLIER"
	LocationTypeBin      LocationType = "BIN"
	LocationTypeSold     LocationType = "SOLD"
)

// ---------------------------------------------------------------------------
// Movements
// ---------------------------------------------------------------------------

// InventoryMovement moves stock of one variant between two POS locations.
// Change is the positive quantity moved.
type InventoryMovement struct {
	ProductUUID      uuid.UUID
	VariantUUID      uuid.UUID
	FromLocationUUID uuid.UUID
	ToLocationUUID   uuid.UUID
	Change           int
}

// MovementFor builds the movement that applies a local stock change of a POS
// variant to the store: stock arrives from the supplier and leaves into the bin.
// ok is false when change is zero.
func (l Locations) MovementFor(productUUID, variantUUID uuid.UUID, change int) (movement InventoryMovement, ok bool) {
	if change == 0 {
		return InventoryMovement{}, false
	}

	movement = InventoryMovement{
		ProductUUID: productUUID,
		VariantUUID: variantUUID,
	}
	if change > 0 {
		movement.FromLocationUUID = l.SupplierUUID
		movement.ToLocationUUID = l.StoreUUID
		movement.Change = change
	} else {
		movement.FromLocationUUID = l.StoreUUID
		movement.ToLocationUUID = l.BinUUID
		movement.Change = -change
	}
	return movement, true
}

// InventoryChange is a batch of movements sent in one request
type InventoryChange struct {
	// ReturnBalanceForLocationUUID asks the POS to return the new balances of this location
	ReturnBalanceForLocationUUID uuid.UUID
	Movements                    []InventoryMovement
}

// IsEmpty returns true if the change has no movements
func (c *InventoryChange) IsEmpty() bool {
	return len(c.Movements) == 0
}

// ---------------------------------------------------------------------------
// Local inventory snapshot
// ---------------------------------------------------------------------------

// LocalInventoryEntry is the stock last synced for one catalog record.
// It is the common ancestor both sides are compared against.
type LocalInventoryEntry struct {
	SalesChannelID   uuid.UUID
	ProductID        uuid.UUID
	ProductVersionID uuid.UUID
	Stock            int
	UpdatedAt        time.Time
}

// NewLocalInventoryEntry creates a snapshot entry for a catalog record
func NewLocalInventoryEntry(salesChannelID uuid.UUID, product CatalogProduct, stock int) LocalInventoryEntry {
	return LocalInventoryEntry{
		SalesChannelID:   salesChannelID,
		ProductID:        product.ID,
		ProductVersionID: product.VersionID,
		Stock:            stock,
		UpdatedAt:        time.Now(),
	}
}
