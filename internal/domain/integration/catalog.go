package integration

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// CatalogProduct
// ---------------------------------------------------------------------------

// ProductKind tells whether a catalog record stands alone or belongs to a parent
type ProductKind int

const (
	// ProductKindStandalone is a product without a parent reference
	ProductKindStandalone ProductKind = iota
	// ProductKindVariant is a variant of a parent product
	ProductKindVariant
)

// String returns the string representation of ProductKind
func (k ProductKind) String() string {
	switch k {
	case ProductKindStandalone:
		return "STANDALONE"
	case ProductKindVariant:
		return "VARIANT"
	default:
		return "UNKNOWN"
	}
}

// CatalogProduct is a product record read from the local catalog.
// It is one of Standalone or Variant{ParentID}; the kind is resolved once
// when the record is built and cannot change afterwards.
type CatalogProduct struct {
	// ID is the local identifier of the record
	ID uuid.UUID
	// VersionID is the catalog version the record belongs to
	VersionID uuid.UUID
	// ProductNumber is the human readable product number, used as SKU
	ProductNumber string
	// Name is the display name
	Name string
	// Description is the long description
	Description string
	// EAN is the barcode, if any
	EAN string
	// Stock is the available stock in the catalog
	Stock int
	// Price is the gross selling price
	Price decimal.Decimal

	kind     ProductKind
	parentID uuid.UUID
}

// NewStandaloneProduct creates a catalog record without a parent
func NewStandaloneProduct(id, versionID uuid.UUID) CatalogProduct {
	return CatalogProduct{
		ID:        id,
		VersionID: versionID,
		kind:      ProductKindStandalone,
	}
}

// NewVariantProduct creates a catalog record that is a variant of parentID
func NewVariantProduct(id, versionID, parentID uuid.UUID) CatalogProduct {
	return CatalogProduct{
		ID:        id,
		VersionID: versionID,
		kind:      ProductKindVariant,
		parentID:  parentID,
	}
}

// NewCatalogProduct resolves a nullable parent reference into the proper kind
func NewCatalogProduct(id, versionID uuid.UUID, parentID *uuid.UUID) CatalogProduct {
	if parentID == nil || *parentID == uuid.Nil {
		return NewStandaloneProduct(id, versionID)
	}
	return NewVariantProduct(id, versionID, *parentID)
}

// Kind returns the kind of the record
func (p CatalogProduct) Kind() ProductKind {
	return p.kind
}

// IsVariant returns true if the record has a parent reference
func (p CatalogProduct) IsVariant() bool {
	return p.kind == ProductKindVariant
}

// ParentID returns the parent reference, if the record is a variant
func (p CatalogProduct) ParentID() (uuid.UUID, bool) {
	if p.kind != ProductKindVariant {
		return uuid.Nil, false
	}
	return p.parentID, true
}

// ParentOrOwnID returns the parent reference for variants and the own identifier otherwise
func (p CatalogProduct) ParentOrOwnID() uuid.UUID {
	if parentID, ok := p.ParentID(); ok {
		return parentID
	}
	return p.ID
}

// ExternalIDs returns the POS product and variant identifiers of the record.
// A standalone product acts as its own product, with a synthesized variant.
func (p CatalogProduct) ExternalIDs() (productUUID, variantUUID uuid.UUID) {
	productID, variantID := p.ParentOrOwnID(), p.ID
	if !p.IsVariant() {
		variantID = IncrementUUID(p.ID)
	}
	return ConvertUUIDToV1(productID), ConvertUUIDToV1(variantID)
}
