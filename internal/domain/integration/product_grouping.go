package integration

import "github.com/google/uuid"

// ProductGrouping collects the catalog records that share one parent identity.
// The identifying entity is whichever record arrived first until the real
// parent (a standalone record) is added, which then takes over.
type ProductGrouping struct {
	identifyingEntity CatalogProduct
	variantEntities   []CatalogProduct
	product           *POSProduct
}

// NewProductGrouping starts a grouping with its first record
func NewProductGrouping(record CatalogProduct) *ProductGrouping {
	g := &ProductGrouping{identifyingEntity: record}
	if record.IsVariant() {
		g.variantEntities = append(g.variantEntities, record)
	}
	return g
}

// AddProduct adds a record to the grouping
func (g *ProductGrouping) AddProduct(record CatalogProduct) {
	if !record.IsVariant() {
		g.identifyingEntity = record
		return
	}
	g.variantEntities = append(g.variantEntities, record)
}

// IdentifyingEntity returns the canonical record of the grouping
func (g *ProductGrouping) IdentifyingEntity() CatalogProduct {
	return g.identifyingEntity
}

// VariantEntities returns the variant records in arrival order
func (g *ProductGrouping) VariantEntities() []CatalogProduct {
	return g.variantEntities
}

// SellableEntities returns the records that carry stock on the POS: the
// variants, or the identifying entity itself when the grouping has none
func (g *ProductGrouping) SellableEntities() []CatalogProduct {
	if len(g.variantEntities) == 0 {
		return []CatalogProduct{g.identifyingEntity}
	}
	return g.variantEntities
}

// IdentifyingID returns the stable key of the grouping
func (g *ProductGrouping) IdentifyingID() uuid.UUID {
	return g.identifyingEntity.ParentOrOwnID()
}

// Product returns the attached POS product, nil until SetProduct is called
func (g *ProductGrouping) Product() *POSProduct {
	return g.product
}

// SetProduct attaches the converted POS product
func (g *ProductGrouping) SetProduct(product *POSProduct) {
	g.product = product
}

// GroupProducts groups a flat list of records by parent identity.
// Groupings are returned in the order their identity was first seen.
func GroupProducts(records []CatalogProduct) []*ProductGrouping {
	index := make(map[uuid.UUID]*ProductGrouping, len(records))
	groupings := make([]*ProductGrouping, 0, len(records))

	for _, record := range records {
		key := record.ParentOrOwnID()
		if g, ok := index[key]; ok {
			g.AddProduct(record)
			continue
		}
		g := NewProductGrouping(record)
		index[key] = g
		groupings = append(groupings, g)
	}

	return groupings
}
