package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/paypos/backend/internal/domain/integration"
	"github.com/paypos/backend/internal/domain/shared"
	"github.com/paypos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCatalogProductRepository implements CatalogProductRepository using GORM
type GormCatalogProductRepository struct {
	db *gorm.DB
}

// NewGormCatalogProductRepository creates a new GormCatalogProductRepository
func NewGormCatalogProductRepository(db *gorm.DB) *GormCatalogProductRepository {
	return &GormCatalogProductRepository{db: db}
}

var _ integration.CatalogProductRepository = (*GormCatalogProductRepository)(nil)

// FindBySalesChannel returns the catalog records assigned to a sales channel,
// ordered by product number
func (r *GormCatalogProductRepository) FindBySalesChannel(ctx context.Context, salesChannelID uuid.UUID) ([]integration.CatalogProduct, error) {
	var productModels []models.CatalogProductModel
	if err := r.db.WithContext(ctx).
		Where("sales_channel_id = ?", salesChannelID).
		Order("product_number ASC").
		Find(&productModels).Error; err != nil {
		return nil, err
	}

	products := make([]integration.CatalogProduct, len(productModels))
	for i := range productModels {
		products[i] = productModels[i].ToDomain()
	}
	return products, nil
}

// UpdateStockWithSnapshot sets the stock of the entry's catalog record and
// upserts the snapshot entry in one transaction
func (r *GormCatalogProductRepository) UpdateStockWithSnapshot(ctx context.Context, stock int, entry integration.LocalInventoryEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateStock(tx, entry.ProductID, entry.ProductVersionID, stock); err != nil {
			return err
		}
		return upsertSnapshot(tx, []*models.SalesChannelInventoryModel{models.SalesChannelInventoryModelFromDomain(entry)})
	})
}

func updateStock(db *gorm.DB, productID, versionID uuid.UUID, stock int) error {
	result := db.
		Model(&models.CatalogProductModel{}).
		Where("id = ? AND version_id = ?", productID, versionID).
		Updates(map[string]any{
			"stock":      stock,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Save creates or updates a catalog record of a sales channel
func (r *GormCatalogProductRepository) Save(ctx context.Context, salesChannelID uuid.UUID, product integration.CatalogProduct) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}, {Name: "version_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"parent_id",
			"sales_channel_id",
			"product_number",
			"name",
			"description",
			"ean",
			"stock",
			"price",
			"updated_at",
		}),
	}).Create(models.CatalogProductModelFromDomain(salesChannelID, product)).Error
}
