package persistence

import (
	"context"
	"errors"

	"github.com/crediretail/backend/internal/domain/collections"
	"github.com/crediretail/backend/internal/domain/shared"
	"github.com/crediretail/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTierRepository implements TierRepository using GORM
type GormTierRepository struct {
	db *gorm.DB
}

// NewGormTierRepository creates a new GormTierRepository
func NewGormTierRepository(db *gorm.DB) *GormTierRepository {
	return &GormTierRepository{db: db}
}

// FindByID finds a tier by ID
func (r *GormTierRepository) FindByID(ctx context.Context, id uuid.UUID) (*collections.CollectionTier, error) {
	var model models.CollectionTierModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists every tier ordered by priority, disabled ones included
func (r *GormTierRepository) FindAll(ctx context.Context) ([]collections.CollectionTier, error) {
	var tierModels []models.CollectionTierModel
	if err := r.db.WithContext(ctx).
		Order("priority ASC").
		Find(&tierModels).Error; err != nil {
		return nil, err
	}

	tiers := make([]collections.CollectionTier, len(tierModels))
	for i, model := range tierModels {
		tiers[i] = *model.ToDomain()
	}
	return tiers, nil
}

// FindEnabled lists enabled tiers ordered by priority
func (r *GormTierRepository) FindEnabled(ctx context.Context) ([]collections.CollectionTier, error) {
	var tierModels []models.CollectionTierModel
	if err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("priority ASC").
		Find(&tierModels).Error; err != nil {
		return nil, err
	}

	tiers := make([]collections.CollectionTier, len(tierModels))
	for i, model := range tierModels {
		tiers[i] = *model.ToDomain()
	}
	return tiers, nil
}

// Save creates or updates a tier
func (r *GormTierRepository) Save(ctx context.Context, tier *collections.CollectionTier) error {
	model := models.CollectionTierModelFromDomain(tier)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves a tier with optimistic locking (version check)
func (r *GormTierRepository) SaveWithLock(ctx context.Context, tier *collections.CollectionTier) error {
	model := models.CollectionTierModelFromDomain(tier)
	result := r.db.WithContext(ctx).
		Model(model).
		Select("*").
		Where("id = ? AND version = ?", tier.ID, tier.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Ensure GormTierRepository implements TierRepository
var _ collections.TierRepository = (*GormTierRepository)(nil)
