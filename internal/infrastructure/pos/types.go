package pos

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/paypos/backend/internal/domain/integration"
)

// Error types returned by the POS API
const (
	ErrorTypeItemAlreadyExists = "ITEM_ALREADY_EXIST"
	ErrorTypeEntityNotFound    = "ENTITY_NOT_FOUND"
)

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

// Violation is a single field error of an API error response
type Violation struct {
	PropertyName     string `json:"propertyName"`
	DeveloperMessage string `json:"developerMessage"`
}

// APIError is the error body returned by the POS API
type APIError struct {
	StatusCode       int         `json:"-"`
	DeveloperMessage string      `json:"developerMessage"`
	ErrorType        string      `json:"errorType,omitempty"`
	Violations       []Violation `json:"violations,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "pos: HTTP %d", e.StatusCode)
	if e.ErrorType != "" {
		fmt.Fprintf(&b, " %s", e.ErrorType)
	}
	if e.DeveloperMessage != "" {
		fmt.Fprintf(&b, ": %s", e.DeveloperMessage)
	}
	for _, v := range e.Violations {
		fmt.Fprintf(&b, "; %s: %s", v.PropertyName, v.DeveloperMessage)
	}
	return b.String()
}

// IsAlreadyExists returns true if the error reports an existing item
func (e *APIError) IsAlreadyExists() bool {
	return e.ErrorType == ErrorTypeItemAlreadyExists
}

// ---------------------------------------------------------------------------
// Locations
// ---------------------------------------------------------------------------

// locationResponse is one entry of GET /organizations/self/inventory/locations
type locationResponse struct {
	UUID        uuid.UUID `json:"uuid"`
	Type        string    `json:"type"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Default     bool      `json:"default"`
}

// toLocations picks the default location of each type.
// The first location of a type is used when none is marked default.
func toLocations(resp []locationResponse) integration.Locations {
	byType := make(map[integration.LocationType]uuid.UUID, 4)
	for _, loc := range resp {
		t := integration.LocationType(strings.ToUpper(loc.Type))
		if _, seen := byType[t]; seen && !loc.Default {
			continue
		}
		byType[t] = loc.UUID
	}
	return integration.Locations{
		StoreUUID:    byType[integration.LocationTypeStore],
		SupplierUUID: byType[integration.LocationTypeSupplier],
		BinUUID:      byType[integration.LocationTypeBin],
		SoldUUID:     byType[integration.LocationTypeSold],
	}
}

// ---------------------------------------------------------------------------
// Inventory status
// ---------------------------------------------------------------------------

type variantResponse struct {
	LocationUUID uuid.UUID       `json:"locationUuid"`
	LocationType string          `json:"locationType"`
	ProductUUID  uuid.UUID       `json:"productUuid"`
	VariantUUID  uuid.UUID       `json:"variantUuid"`
	Balance      decimal.Decimal `json:"balance"`
}

// statusResponse is the inventory status of a location
type statusResponse struct {
	LocationUUID    uuid.UUID         `json:"locationUuid"`
	TrackedProducts []uuid.UUID       `json:"trackedProducts"`
	Variants        []variantResponse `json:"variants"`
}

// toInventoryStatus converts the response. Fractional balances are truncated.
func (r *statusResponse) toInventoryStatus() *integration.InventoryStatus {
	status := &integration.InventoryStatus{
		LocationUUID:    r.LocationUUID,
		TrackedProducts: r.TrackedProducts,
		Variants:        make([]integration.VariantBalance, 0, len(r.Variants)),
	}
	for _, v := range r.Variants {
		status.Variants = append(status.Variants, integration.VariantBalance{
			ProductUUID: v.ProductUUID,
			VariantUUID: v.VariantUUID,
			Balance:     int(v.Balance.IntPart()),
		})
	}
	return status
}

// ---------------------------------------------------------------------------
// Requests
// ---------------------------------------------------------------------------

type startTrackingRequest struct {
	ProductUUID uuid.UUID `json:"productUuid"`
}

type variantChange struct {
	VariantUUID      uuid.UUID `json:"variantUuid"`
	FromLocationUUID uuid.UUID `json:"fromLocationUuid"`
	ToLocationUUID   uuid.UUID `json:"toLocationUuid"`
	Change           int       `json:"change"`
}

type productChange struct {
	ProductUUID    uuid.UUID       `json:"productUuid"`
	VariantChanges []variantChange `json:"variantChanges"`
}

// bulkChangeRequest is the body of PUT /organizations/self/inventory/bulk
type bulkChangeRequest struct {
	ProductChanges               []productChange `json:"productChanges"`
	ReturnBalanceForLocationUUID uuid.UUID       `json:"returnBalanceForLocationUuid"`
}

// newBulkChangeRequest groups movements by product, keeping first-seen order
func newBulkChangeRequest(change integration.InventoryChange) bulkChangeRequest {
	req := bulkChangeRequest{ReturnBalanceForLocationUUID: change.ReturnBalanceForLocationUUID}
	index := make(map[uuid.UUID]int)
	for _, m := range change.Movements {
		i, ok := index[m.ProductUUID]
		if !ok {
			i = len(req.ProductChanges)
			index[m.ProductUUID] = i
			req.ProductChanges = append(req.ProductChanges, productChange{ProductUUID: m.ProductUUID})
		}
		req.ProductChanges[i].VariantChanges = append(req.ProductChanges[i].VariantChanges, variantChange{
			VariantUUID:      m.VariantUUID,
			FromLocationUUID: m.FromLocationUUID,
			ToLocationUUID:   m.ToLocationUUID,
			Change:           m.Change,
		})
	}
	return req
}
