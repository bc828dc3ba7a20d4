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

// GormPOSSalesChannelRepository implements POSSalesChannelRepository using GORM
type GormPOSSalesChannelRepository struct {
	db *gorm.DB
}

// NewGormPOSSalesChannelRepository creates a new GormPOSSalesChannelRepository
func NewGormPOSSalesChannelRepository(db *gorm.DB) *GormPOSSalesChannelRepository {
	return &GormPOSSalesChannelRepository{db: db}
}

var _ integration.POSSalesChannelRepository = (*GormPOSSalesChannelRepository)(nil)

// FindByID finds a POS sales channel by the ID of the join record
func (r *GormPOSSalesChannelRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.POSSalesChannel, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindBySalesChannelID finds the POS sales channel linked to a local sales channel
func (r *GormPOSSalesChannelRepository) FindBySalesChannelID(ctx context.Context, salesChannelID uuid.UUID) (*integration.POSSalesChannel, error) {
	return r.findOne(ctx, "sales_channel_id = ?", salesChannelID)
}

func (r *GormPOSSalesChannelRepository) findOne(ctx context.Context, query string, args ...any) (*integration.POSSalesChannel, error) {
	var model models.POSSalesChannelModel
	if err := r.db.WithContext(ctx).Where(query, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindEnabled returns all enabled POS sales channels ordered by name
func (r *GormPOSSalesChannelRepository) FindEnabled(ctx context.Context) ([]integration.POSSalesChannel, error) {
	var channelModels []models.POSSalesChannelModel
	if err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("name ASC").
		Find(&channelModels).Error; err != nil {
		return nil, err
	}

	channels := make([]integration.POSSalesChannel, len(channelModels))
	for i := range channelModels {
		channels[i] = *channelModels[i].ToDomain()
	}
	return channels, nil
}

// CountEnabled returns the number of enabled POS sales channels
func (r *GormPOSSalesChannelRepository) CountEnabled(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.POSSalesChannelModel{}).
		Where("enabled = ?", true).
		Count(&count).Error
	return count, err
}

// Save creates or updates a POS sales channel
func (r *GormPOSSalesChannelRepository) Save(ctx context.Context, salesChannel *integration.POSSalesChannel) error {
	if err := salesChannel.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(models.POSSalesChannelModelFromDomain(salesChannel)).Error
}
