package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/crediretail/backend/internal/domain/credit"
	"github.com/crediretail/backend/internal/domain/shared"
	"github.com/crediretail/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInstallmentRepository implements InstallmentRepository using GORM
type GormInstallmentRepository struct {
	db *gorm.DB
}

// NewGormInstallmentRepository creates a new GormInstallmentRepository
func NewGormInstallmentRepository(db *gorm.DB) *GormInstallmentRepository {
	return &GormInstallmentRepository{db: db}
}

// FindByID finds an installment by its ID
func (r *GormInstallmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*credit.Installment, error) {
	var model models.InstallmentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCredit finds all installments of a credit ordered by number
func (r *GormInstallmentRepository) FindByCredit(ctx context.Context, creditID uuid.UUID) ([]credit.Installment, error) {
	var installmentModels []models.InstallmentModel
	if err := r.db.WithContext(ctx).
		Where("credit_id = ?", creditID).
		Order("number ASC").
		Find(&installmentModels).Error; err != nil {
		return nil, err
	}

	installments := make([]credit.Installment, len(installmentModels))
	for i, model := range installmentModels {
		installments[i] = *model.ToDomain()
	}
	return installments, nil
}

// FindOpenDueBefore finds non-terminal installments whose due date is before
// the given date
func (r *GormInstallmentRepository) FindOpenDueBefore(ctx context.Context, before time.Time) ([]credit.Installment, error) {
	var installmentModels []models.InstallmentModel
	if err := r.db.WithContext(ctx).
		Where("status NOT IN ? AND due_date < ?",
			[]string{string(credit.InstallmentStatusPaid), string(credit.InstallmentStatusCancelled)},
			before).
		Order("due_date ASC").
		Find(&installmentModels).Error; err != nil {
		return nil, err
	}

	installments := make([]credit.Installment, len(installmentModels))
	for i, model := range installmentModels {
		installments[i] = *model.ToDomain()
	}
	return installments, nil
}

// Save creates or updates an installment
func (r *GormInstallmentRepository) Save(ctx context.Context, installment *credit.Installment) error {
	model := models.InstallmentModelFromDomain(installment)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves an installment with optimistic locking (version check).
// Returns shared.ErrConcurrencyConflict if the row changed underneath.
func (r *GormInstallmentRepository) SaveWithLock(ctx context.Context, installment *credit.Installment) error {
	model := models.InstallmentModelFromDomain(installment)
	result := r.db.WithContext(ctx).
		Model(model).
		Select("*").
		Where("id = ? AND version = ?", installment.ID, installment.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Ensure GormInstallmentRepository implements InstallmentRepository
var _ credit.InstallmentRepository = (*GormInstallmentRepository)(nil)
