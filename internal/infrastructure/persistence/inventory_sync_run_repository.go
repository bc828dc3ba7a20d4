package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/paypos/backend/internal/domain/integration"
	"github.com/paypos/backend/internal/domain/shared"
	"github.com/paypos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormInventorySyncRunRepository implements InventorySyncRunRepository using GORM
type GormInventorySyncRunRepository struct {
	db *gorm.DB
}

// NewGormInventorySyncRunRepository creates a new GormInventorySyncRunRepository
func NewGormInventorySyncRunRepository(db *gorm.DB) *GormInventorySyncRunRepository {
	return &GormInventorySyncRunRepository{db: db}
}

var _ integration.InventorySyncRunRepository = (*GormInventorySyncRunRepository)(nil)

// Save creates or updates a sync run
func (r *GormInventorySyncRunRepository) Save(ctx context.Context, run *integration.InventorySyncRun) error {
	return r.db.WithContext(ctx).Save(models.InventorySyncRunModelFromDomain(run)).Error
}

// FindByID finds a sync run by ID
func (r *GormInventorySyncRunRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.InventorySyncRun, error) {
	var model models.InventorySyncRunModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindLatest returns the most recently started run of a sales channel
func (r *GormInventorySyncRunRepository) FindLatest(ctx context.Context, salesChannelID uuid.UUID) (*integration.InventorySyncRun, error) {
	var model models.InventorySyncRunModel
	if err := r.db.WithContext(ctx).
		Where("sales_channel_id = ?", salesChannelID).
		Order("started_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindRecent returns up to limit runs of a sales channel, newest first
func (r *GormInventorySyncRunRepository) FindRecent(ctx context.Context, salesChannelID uuid.UUID, limit int) ([]integration.InventorySyncRun, error) {
	var runModels []models.InventorySyncRunModel
	if err := r.db.WithContext(ctx).
		Where("sales_channel_id = ?", salesChannelID).
		Order("started_at DESC").
		Limit(limit).
		Find(&runModels).Error; err != nil {
		return nil, err
	}

	runs := make([]integration.InventorySyncRun, len(runModels))
	for i := range runModels {
		runs[i] = *runModels[i].ToDomain()
	}
	return runs, nil
}
