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

var openAlertStatuses = []string{
	string(collections.AlertStatusPending),
	string(collections.AlertStatusInProgress),
}

// GormAlertRepository implements AlertRepository using GORM
type GormAlertRepository struct {
	db *gorm.DB
}

// NewGormAlertRepository creates a new GormAlertRepository
func NewGormAlertRepository(db *gorm.DB) *GormAlertRepository {
	return &GormAlertRepository{db: db}
}

// FindByID finds an alert by its ID
func (r *GormAlertRepository) FindByID(ctx context.Context, id uuid.UUID) (*collections.CollectionAlert, error) {
	var model models.CollectionAlertModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindOpenByInstallment finds the open alert for an installment
func (r *GormAlertRepository) FindOpenByInstallment(ctx context.Context, installmentID uuid.UUID) (*collections.CollectionAlert, error) {
	var model models.CollectionAlertModel
	if err := r.db.WithContext(ctx).
		Where("installment_id = ? AND status IN ?", installmentID, openAlertStatuses).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindOpen finds all pending or in-progress alerts
func (r *GormAlertRepository) FindOpen(ctx context.Context) ([]collections.CollectionAlert, error) {
	var alertModels []models.CollectionAlertModel
	if err := r.db.WithContext(ctx).
		Where("status IN ?", openAlertStatuses).
		Order("days_overdue DESC").
		Find(&alertModels).Error; err != nil {
		return nil, err
	}
	return toDomainAlerts(alertModels), nil
}

// FindAll finds alerts matching the filter
func (r *GormAlertRepository) FindAll(ctx context.Context, filter collections.AlertFilter) ([]collections.CollectionAlert, error) {
	query := r.db.WithContext(ctx).Model(&models.CollectionAlertModel{})

	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}

	query = query.Offset(filter.Offset()).Limit(filter.Limit())
	orderBy := ValidateSortField(filter.OrderBy, AlertSortFields, "days_overdue")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir)

	var alertModels []models.CollectionAlertModel
	if err := query.Find(&alertModels).Error; err != nil {
		return nil, err
	}
	return toDomainAlerts(alertModels), nil
}

// Save creates or updates an alert
func (r *GormAlertRepository) Save(ctx context.Context, alert *collections.CollectionAlert) error {
	model := models.CollectionAlertModelFromDomain(alert)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves an alert with optimistic locking (version check)
func (r *GormAlertRepository) SaveWithLock(ctx context.Context, alert *collections.CollectionAlert) error {
	model := models.CollectionAlertModelFromDomain(alert)
	result := r.db.WithContext(ctx).
		Model(model).
		Select("*").
		Where("id = ? AND version = ?", alert.ID, alert.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func toDomainAlerts(alertModels []models.CollectionAlertModel) []collections.CollectionAlert {
	alerts := make([]collections.CollectionAlert, len(alertModels))
	for i, model := range alertModels {
		alerts[i] = *model.ToDomain()
	}
	return alerts
}

// Ensure GormAlertRepository implements AlertRepository
var _ collections.AlertRepository = (*GormAlertRepository)(nil)
