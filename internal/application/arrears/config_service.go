package arrears

import (
	"context"
	"errors"

	"github.com/crediretail/backend/internal/domain/arrears"
	"github.com/crediretail/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ConfigService administers the arrears policy singleton
type ConfigService struct {
	configs arrears.ConfigRepository
	logger  *zap.Logger
}

// NewConfigService creates a new ConfigService
func NewConfigService(configs arrears.ConfigRepository, logger *zap.Logger) *ConfigService {
	return &ConfigService{configs: configs, logger: logger}
}

// Get returns the active policy, falling back to the zero-rate default when
// no row has been created yet
func (s *ConfigService) Get(ctx context.Context) (*arrears.Config, error) {
	cfg, err := s.configs.Find(ctx)
	if errors.Is(err, shared.ErrNotFound) {
		return arrears.DefaultConfig(), nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Update validates and persists the policy. Invalid policies are rejected
// whole; the running engine keeps the previous configuration.
func (s *ConfigService) Update(ctx context.Context, cfg *arrears.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := s.configs.Save(ctx, cfg); err != nil {
		return err
	}
	s.logger.Info("arrears configuration updated",
		zap.String("rate_type", string(cfg.RateType)),
		zap.String("base_rate", cfg.BaseRate.String()),
		zap.Int("grace_days", cfg.GraceDays),
	)
	return nil
}
