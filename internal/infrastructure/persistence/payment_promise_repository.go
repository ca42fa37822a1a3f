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

// GormPromiseRepository implements PromiseRepository using GORM
type GormPromiseRepository struct {
	db *gorm.DB
}

// NewGormPromiseRepository creates a new GormPromiseRepository
func NewGormPromiseRepository(db *gorm.DB) *GormPromiseRepository {
	return &GormPromiseRepository{db: db}
}

// FindByID finds a promise by its ID
func (r *GormPromiseRepository) FindByID(ctx context.Context, id uuid.UUID) (*collections.PaymentPromise, error) {
	var model models.PaymentPromiseModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByAlert finds the active promise linked to an alert
func (r *GormPromiseRepository) FindActiveByAlert(ctx context.Context, alertID uuid.UUID) (*collections.PaymentPromise, error) {
	var model models.PaymentPromiseModel
	if err := r.db.WithContext(ctx).
		Where("alert_id = ? AND status = ?", alertID, string(collections.PromiseStatusActive)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActive finds all active promises ordered by deadline
func (r *GormPromiseRepository) FindActive(ctx context.Context) ([]collections.PaymentPromise, error) {
	var promiseModels []models.PaymentPromiseModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(collections.PromiseStatusActive)).
		Order("deadline ASC").
		Find(&promiseModels).Error; err != nil {
		return nil, err
	}

	promises := make([]collections.PaymentPromise, len(promiseModels))
	for i, model := range promiseModels {
		promises[i] = *model.ToDomain()
	}
	return promises, nil
}

// Save creates or updates a promise
func (r *GormPromiseRepository) Save(ctx context.Context, promise *collections.PaymentPromise) error {
	model := models.PaymentPromiseModelFromDomain(promise)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves a promise with optimistic locking (version check)
func (r *GormPromiseRepository) SaveWithLock(ctx context.Context, promise *collections.PaymentPromise) error {
	model := models.PaymentPromiseModelFromDomain(promise)
	result := r.db.WithContext(ctx).
		Model(model).
		Select("*").
		Where("id = ? AND version = ?", promise.ID, promise.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Ensure GormPromiseRepository implements PromiseRepository
var _ collections.PromiseRepository = (*GormPromiseRepository)(nil)
