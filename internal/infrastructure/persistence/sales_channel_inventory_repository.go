package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/paypos/backend/internal/domain/integration"
	"github.com/paypos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const snapshotBatchSize = 200

// GormLocalInventoryRepository implements LocalInventoryRepository using GORM
type GormLocalInventoryRepository struct {
	db *gorm.DB
}

// NewGormLocalInventoryRepository creates a new GormLocalInventoryRepository
func NewGormLocalInventoryRepository(db *gorm.DB) *GormLocalInventoryRepository {
	return &GormLocalInventoryRepository{db: db}
}

var _ integration.LocalInventoryRepository = (*GormLocalInventoryRepository)(nil)

// FindBySalesChannel returns the snapshot of a sales channel
func (r *GormLocalInventoryRepository) FindBySalesChannel(ctx context.Context, salesChannelID uuid.UUID) ([]integration.LocalInventoryEntry, error) {
	var entryModels []models.SalesChannelInventoryModel
	if err := r.db.WithContext(ctx).
		Where("sales_channel_id = ?", salesChannelID).
		Find(&entryModels).Error; err != nil {
		return nil, err
	}

	entries := make([]integration.LocalInventoryEntry, len(entryModels))
	for i := range entryModels {
		entries[i] = entryModels[i].ToDomain()
	}
	return entries, nil
}

// Upsert inserts new snapshot entries and overwrites the stock of existing ones,
// all in one transaction
func (r *GormLocalInventoryRepository) Upsert(ctx context.Context, entries []integration.LocalInventoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	entryModels := make([]*models.SalesChannelInventoryModel, len(entries))
	for i, e := range entries {
		entryModels[i] = models.SalesChannelInventoryModelFromDomain(e)
	}

	// A snapshot larger than one batch must not be left half written
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return upsertSnapshot(tx, entryModels)
	})
}

// upsertSnapshot writes snapshot rows keyed on (sales channel, product, version)
func upsertSnapshot(tx *gorm.DB, entryModels []*models.SalesChannelInventoryModel) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "sales_channel_id"},
			{Name: "product_id"},
			{Name: "product_version_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"stock", "updated_at"}),
	}).CreateInBatches(entryModels, snapshotBatchSize).Error
}

// DeleteBySalesChannel removes the snapshot of a sales channel
func (r *GormLocalInventoryRepository) DeleteBySalesChannel(ctx context.Context, salesChannelID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("sales_channel_id = ?", salesChannelID).
		Delete(&models.SalesChannelInventoryModel{}).Error
}
