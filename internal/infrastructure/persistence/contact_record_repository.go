package persistence

import (
	"context"

	"github.com/crediretail/backend/internal/domain/collections"
	"github.com/crediretail/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormContactRecordRepository implements the append-only contact trail
type GormContactRecordRepository struct {
	db *gorm.DB
}

// NewGormContactRecordRepository creates a new GormContactRecordRepository
func NewGormContactRecordRepository(db *gorm.DB) *GormContactRecordRepository {
	return &GormContactRecordRepository{db: db}
}

// Append stores a new contact record. Records are never updated.
func (r *GormContactRecordRepository) Append(ctx context.Context, record *collections.ContactRecord) error {
	model := models.ContactRecordModelFromDomain(record)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByAlert lists the contact history of an alert, oldest first
func (r *GormContactRecordRepository) FindByAlert(ctx context.Context, alertID uuid.UUID) ([]collections.ContactRecord, error) {
	var recordModels []models.ContactRecordModel
	if err := r.db.WithContext(ctx).
		Where("alert_id = ?", alertID).
		Order("created_at ASC").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}

	records := make([]collections.ContactRecord, len(recordModels))
	for i, model := range recordModels {
		records[i] = *model.ToDomain()
	}
	return records, nil
}

// Ensure GormContactRecordRepository implements ContactRecordRepository
var _ collections.ContactRecordRepository = (*GormContactRecordRepository)(nil)
