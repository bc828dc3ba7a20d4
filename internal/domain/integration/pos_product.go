package integration

import "github.com/google/uuid"

// POSProduct is a product as the POS library identifies it
type POSProduct struct {
	UUID        uuid.UUID    `json:"uuid"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Variants    []POSVariant `json:"variants"`
}

// POSVariant is one sellable variant of a POS product
type POSVariant struct {
	UUID    uuid.UUID `json:"uuid"`
	Name    string    `json:"name,omitempty"`
	SKU     string    `json:"sku,omitempty"`
	Barcode string    `json:"barcode,omitempty"`
}

// AddVariant appends variants to the product
func (p *POSProduct) AddVariant(variants ...POSVariant) {
	p.Variants = append(p.Variants, variants...)
}

// ProductConverter builds POS products from product groupings
type ProductConverter struct{}

// NewProductConverter creates a ProductConverter
func NewProductConverter() *ProductConverter {
	return &ProductConverter{}
}

// Convert builds the POS product of a grouping and attaches it to the grouping.
// Variants[i] of the result belongs to SellableEntities()[i] of the grouping.
func (c *ProductConverter) Convert(g *ProductGrouping) *POSProduct {
	parent := g.IdentifyingEntity()
	product := &POSProduct{
		UUID:        ConvertUUIDToV1(g.IdentifyingID()),
		Name:        parent.Name,
		Description: parent.Description,
	}

	for _, record := range g.SellableEntities() {
		_, variantUUID := record.ExternalIDs()
		product.AddVariant(POSVariant{
			UUID:    variantUUID,
			Name:    record.Name,
			SKU:     record.ProductNumber,
			Barcode: record.EAN,
		})
	}

	g.SetProduct(product)
	return product
}
