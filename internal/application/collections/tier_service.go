package collections

import (
	"context"

	"github.com/crediretail/backend/internal/domain/collections"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TierService administers the day-band tiers that drive the collections
// automation
type TierService struct {
	tiers  collections.TierRepository
	logger *zap.Logger
}

// NewTierService creates a new TierService
func NewTierService(tiers collections.TierRepository, logger *zap.Logger) *TierService {
	return &TierService{tiers: tiers, logger: logger}
}

// List returns every configured tier ordered by priority
func (s *TierService) List(ctx context.Context) ([]collections.CollectionTier, error) {
	return s.tiers.FindAll(ctx)
}

// Create validates and stores a new tier
func (s *TierService) Create(ctx context.Context, name string, fromDay int, toDay *int, priority int, actions collections.TierActions) (*collections.CollectionTier, error) {
	tier, err := collections.NewCollectionTier(name, fromDay, toDay, priority, actions)
	if err != nil {
		return nil, err
	}
	if err := s.tiers.Save(ctx, tier); err != nil {
		return nil, err
	}
	s.logger.Info("collection tier created",
		zap.String("tier_id", tier.ID.String()),
		zap.String("name", tier.Name),
		zap.Int("from_day", tier.FromDay),
	)
	return tier, nil
}

// SetEnabled switches a tier in or out of the automation run
func (s *TierService) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) (*collections.CollectionTier, error) {
	tier, err := s.tiers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tier.Enabled == enabled {
		return tier, nil
	}
	tier.SetEnabled(enabled)
	if err := s.tiers.SaveWithLock(ctx, tier); err != nil {
		return nil, err
	}
	return tier, nil
}
