package persistence

import (
	"context"
	"errors"

	"github.com/crediretail/backend/internal/domain/arrears"
	"github.com/crediretail/backend/internal/domain/shared"
	"github.com/crediretail/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormArrearsConfigRepository implements ConfigRepository using GORM.
// The configuration is a singleton row; the latest row wins.
type GormArrearsConfigRepository struct {
	db *gorm.DB
}

// NewGormArrearsConfigRepository creates a new GormArrearsConfigRepository
func NewGormArrearsConfigRepository(db *gorm.DB) *GormArrearsConfigRepository {
	return &GormArrearsConfigRepository{db: db}
}

// Find returns the configuration row
func (r *GormArrearsConfigRepository) Find(ctx context.Context) (*arrears.Config, error) {
	var model models.ArrearsConfigModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates the configuration row
func (r *GormArrearsConfigRepository) Save(ctx context.Context, cfg *arrears.Config) error {
	model := models.ArrearsConfigModelFromDomain(cfg)
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormArrearsConfigRepository implements ConfigRepository
var _ arrears.ConfigRepository = (*GormArrearsConfigRepository)(nil)

// ConfigProviderRepository adapts the repository to the engine's read-side
// contract: a missing configuration row degrades to the zero-rate default
// instead of failing the batch.
type ConfigProviderRepository struct {
	configs arrears.ConfigRepository
}

// NewConfigProviderRepository creates a new ConfigProviderRepository
func NewConfigProviderRepository(configs arrears.ConfigRepository) *ConfigProviderRepository {
	return &ConfigProviderRepository{configs: configs}
}

// Current returns the active configuration, or the default when none exists
func (p *ConfigProviderRepository) Current(ctx context.Context) (*arrears.Config, error) {
	cfg, err := p.configs.Find(ctx)
	if errors.Is(err, shared.ErrNotFound) {
		return arrears.DefaultConfig(), nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Ensure ConfigProviderRepository implements ConfigProvider
var _ arrears.ConfigProvider = (*ConfigProviderRepository)(nil)
