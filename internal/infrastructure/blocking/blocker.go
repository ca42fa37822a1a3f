package blocking

import (
	"context"

	"github.com/crediretail/backend/internal/domain/collections"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LogClientBlockingService is the default ClientBlockingService. The block is
// recorded in the structured log; the sales frontend enforces blocks from its
// own customer registry, which consumes these events downstream.
type LogClientBlockingService struct {
	logger *zap.Logger
}

// NewLogClientBlockingService creates a new LogClientBlockingService
func NewLogClientBlockingService(logger *zap.Logger) *LogClientBlockingService {
	return &LogClientBlockingService{logger: logger.Named("blocking")}
}

// Block records the commercial block on the customer
func (s *LogClientBlockingService) Block(ctx context.Context, customerID uuid.UUID, blockType collections.BlockType) error {
	s.logger.Warn("client blocked by collections automation",
		zap.String("customer_id", customerID.String()),
		zap.String("block_type", string(blockType)),
	)
	return nil
}
