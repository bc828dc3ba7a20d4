package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/paypos/backend/internal/domain/integration"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// POSSalesChannelModel
// ---------------------------------------------------------------------------

// POSSalesChannelModel is the persistence model for the POSSalesChannel domain entity.
type POSSalesChannelModel struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey"`
	SalesChannelID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_pos_sales_channel_sales_channel"`
	SalesChannelTypeID uuid.UUID  `gorm:"type:uuid;not null"`
	Name               string     `gorm:"type:varchar(255);not null"`
	APIKey             string     `gorm:"type:text;not null"`
	ProductStreamID    *uuid.UUID `gorm:"type:uuid"`
	SyncPrices         bool       `gorm:"not null"`
	ReplaceMode        bool       `gorm:"not null"`
	MediaDomain        string     `gorm:"type:varchar(255)"`
	Enabled            bool       `gorm:"not null;index"`
	CreatedAt          time.Time  `gorm:"not null"`
	UpdatedAt          time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (POSSalesChannelModel) TableName() string {
	return "pos_sales_channels"
}

// ToDomain converts the persistence model to a domain POSSalesChannel.
func (m *POSSalesChannelModel) ToDomain() *integration.POSSalesChannel {
	return &integration.POSSalesChannel{
		ID:                 m.ID,
		SalesChannelID:     m.SalesChannelID,
		SalesChannelTypeID: m.SalesChannelTypeID,
		Name:               m.Name,
		APIKey:             m.APIKey,
		ProductStreamID:    m.ProductStreamID,
		SyncPrices:         m.SyncPrices,
		ReplaceMode:        m.ReplaceMode,
		MediaDomain:        m.MediaDomain,
		Enabled:            m.Enabled,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// POSSalesChannelModelFromDomain creates a persistence model from a domain POSSalesChannel.
func POSSalesChannelModelFromDomain(c *integration.POSSalesChannel) *POSSalesChannelModel {
	return &POSSalesChannelModel{
		ID:                 c.ID,
		SalesChannelID:     c.SalesChannelID,
		SalesChannelTypeID: c.SalesChannelTypeID,
		Name:               c.Name,
		APIKey:             c.APIKey,
		ProductStreamID:    c.ProductStreamID,
		SyncPrices:         c.SyncPrices,
		ReplaceMode:        c.ReplaceMode,
		MediaDomain:        c.MediaDomain,
		Enabled:            c.Enabled,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

// ---------------------------------------------------------------------------
// SalesChannelInventoryModel
// ---------------------------------------------------------------------------

// SalesChannelInventoryModel is one entry of the local inventory snapshot.
type SalesChannelInventoryModel struct {
	SalesChannelID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductVersionID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Stock            int       `gorm:"not null;default:0"`
	UpdatedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SalesChannelInventoryModel) TableName() string {
	return "pos_sales_channel_inventory"
}

// ToDomain converts the persistence model to a domain LocalInventoryEntry.
func (m *SalesChannelInventoryModel) ToDomain() integration.LocalInventoryEntry {
	return integration.LocalInventoryEntry{
		SalesChannelID:   m.SalesChannelID,
		ProductID:        m.ProductID,
		ProductVersionID: m.ProductVersionID,
		Stock:            m.Stock,
		UpdatedAt:        m.UpdatedAt,
	}
}

// SalesChannelInventoryModelFromDomain creates a persistence model from a snapshot entry.
func SalesChannelInventoryModelFromDomain(e integration.LocalInventoryEntry) *SalesChannelInventoryModel {
	updatedAt := e.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	return &SalesChannelInventoryModel{
		SalesChannelID:   e.SalesChannelID,
		ProductID:        e.ProductID,
		ProductVersionID: e.ProductVersionID,
		Stock:            e.Stock,
		UpdatedAt:        updatedAt,
	}
}

// ---------------------------------------------------------------------------
// CatalogProductModel
// ---------------------------------------------------------------------------

// CatalogProductModel is a catalog record assigned to a sales channel.
// A nullable ParentID is resolved into the product kind when the row is read.
type CatalogProductModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	VersionID      uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ParentID       *uuid.UUID      `gorm:"type:uuid;index"`
	SalesChannelID uuid.UUID       `gorm:"type:uuid;not null;index:idx_catalog_products_sales_channel"`
	ProductNumber  string          `gorm:"type:varchar(64);not null"`
	Name           string          `gorm:"type:varchar(255);not null"`
	Description    string          `gorm:"type:text"`
	EAN            string          `gorm:"type:varchar(32)"`
	Stock          int             `gorm:"not null;default:0"`
	Price          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UpdatedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CatalogProductModel) TableName() string {
	return "catalog_products"
}

// ToDomain converts the persistence model to a domain CatalogProduct.
func (m *CatalogProductModel) ToDomain() integration.CatalogProduct {
	p := integration.NewCatalogProduct(m.ID, m.VersionID, m.ParentID)
	p.ProductNumber = m.ProductNumber
	p.Name = m.Name
	p.Description = m.Description
	p.EAN = m.EAN
	p.Stock = m.Stock
	p.Price = m.Price
	return p
}

// CatalogProductModelFromDomain creates a persistence model from a domain CatalogProduct.
func CatalogProductModelFromDomain(salesChannelID uuid.UUID, p integration.CatalogProduct) *CatalogProductModel {
	m := &CatalogProductModel{
		ID:             p.ID,
		VersionID:      p.VersionID,
		SalesChannelID: salesChannelID,
		ProductNumber:  p.ProductNumber,
		Name:           p.Name,
		Description:    p.Description,
		EAN:            p.EAN,
		Stock:          p.Stock,
		Price:          p.Price,
		UpdatedAt:      time.Now(),
	}
	if parentID, ok := p.ParentID(); ok {
		m.ParentID = &parentID
	}
	return m
}

// ---------------------------------------------------------------------------
// InventorySyncRunModel
// ---------------------------------------------------------------------------

// InventorySyncRunModel is the persisted log of one sync run.
type InventorySyncRunModel struct {
	ID              uuid.UUID                 `gorm:"type:uuid;primaryKey"`
	SalesChannelID  uuid.UUID                 `gorm:"type:uuid;not null;index:idx_pos_sync_runs_channel_started,priority:1"`
	Status          integration.SyncStatus    `gorm:"type:varchar(20);not null;default:'PENDING'"`
	Trigger         integration.SyncTrigger   `gorm:"type:varchar(20);not null"`
	TotalCount      int                       `gorm:"column:total;not null;default:0"`
	PulledCount     int                       `gorm:"column:pulled;not null;default:0"`
	PushedCount     int                       `gorm:"column:pushed;not null;default:0"`
	TrackingStarted int                       `gorm:"column:tracking_started;not null;default:0"`
	FailedCount     int                       `gorm:"column:failed;not null;default:0"`
	Failures        []integration.SyncFailure `gorm:"column:log;type:jsonb;serializer:json"`
	Error           string                    `gorm:"type:text"`
	StartedAt       time.Time                 `gorm:"not null;index:idx_pos_sync_runs_channel_started,priority:2,sort:desc"`
	FinishedAt      *time.Time
}

// TableName returns the table name for GORM
func (InventorySyncRunModel) TableName() string {
	return "pos_inventory_sync_runs"
}

// ToDomain converts the persistence model to a domain InventorySyncRun.
func (m *InventorySyncRunModel) ToDomain() *integration.InventorySyncRun {
	return &integration.InventorySyncRun{
		ID:              m.ID,
		SalesChannelID:  m.SalesChannelID,
		Status:          m.Status,
		Trigger:         m.Trigger,
		TotalCount:      m.TotalCount,
		PulledCount:     m.PulledCount,
		PushedCount:     m.PushedCount,
		TrackingStarted: m.TrackingStarted,
		FailedCount:     m.FailedCount,
		Failures:        m.Failures,
		Error:           m.Error,
		StartedAt:       m.StartedAt,
		FinishedAt:      m.FinishedAt,
	}
}

// InventorySyncRunModelFromDomain creates a persistence model from a domain InventorySyncRun.
func InventorySyncRunModelFromDomain(r *integration.InventorySyncRun) *InventorySyncRunModel {
	failures := r.Failures
	if failures == nil {
		failures = []integration.SyncFailure{}
	}
	return &InventorySyncRunModel{
		ID:              r.ID,
		SalesChannelID:  r.SalesChannelID,
		Status:          r.Status,
		Trigger:         r.Trigger,
		TotalCount:      r.TotalCount,
		PulledCount:     r.PulledCount,
		PushedCount:     r.PushedCount,
		TrackingStarted: r.TrackingStarted,
		FailedCount:     r.FailedCount,
		Failures:        failures,
		Error:           r.Error,
		StartedAt:       r.StartedAt,
		FinishedAt:      r.FinishedAt,
	}
}
