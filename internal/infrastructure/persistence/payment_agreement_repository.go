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

// GormAgreementRepository implements AgreementRepository using GORM
type GormAgreementRepository struct {
	db *gorm.DB
}

// NewGormAgreementRepository creates a new GormAgreementRepository
func NewGormAgreementRepository(db *gorm.DB) *GormAgreementRepository {
	return &GormAgreementRepository{db: db}
}

// FindByID finds an agreement by its ID
func (r *GormAgreementRepository) FindByID(ctx context.Context, id uuid.UUID) (*collections.PaymentAgreement, error) {
	var model models.PaymentAgreementModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActive finds all active agreements
func (r *GormAgreementRepository) FindActive(ctx context.Context) ([]collections.PaymentAgreement, error) {
	var agreementModels []models.PaymentAgreementModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(collections.AgreementStatusActive)).
		Find(&agreementModels).Error; err != nil {
		return nil, err
	}
	return toDomainAgreements(agreementModels), nil
}

// FindByCustomer finds all agreements of a customer, newest first
func (r *GormAgreementRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]collections.PaymentAgreement, error) {
	var agreementModels []models.PaymentAgreementModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&agreementModels).Error; err != nil {
		return nil, err
	}
	return toDomainAgreements(agreementModels), nil
}

// Save creates or updates an agreement
func (r *GormAgreementRepository) Save(ctx context.Context, agreement *collections.PaymentAgreement) error {
	model := models.PaymentAgreementModelFromDomain(agreement)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves an agreement with optimistic locking (version check)
func (r *GormAgreementRepository) SaveWithLock(ctx context.Context, agreement *collections.PaymentAgreement) error {
	model := models.PaymentAgreementModelFromDomain(agreement)
	result := r.db.WithContext(ctx).
		Model(model).
		Select("*").
		Where("id = ? AND version = ?", agreement.ID, agreement.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func toDomainAgreements(agreementModels []models.PaymentAgreementModel) []collections.PaymentAgreement {
	agreements := make([]collections.PaymentAgreement, len(agreementModels))
	for i, model := range agreementModels {
		agreements[i] = *model.ToDomain()
	}
	return agreements
}

// Ensure GormAgreementRepository implements AgreementRepository
var _ collections.AgreementRepository = (*GormAgreementRepository)(nil)
