package credit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// InstallmentRepository defines the interface for installment persistence
type InstallmentRepository interface {
	// FindByID finds an installment by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Installment, error)

	// FindByCredit finds all installments of a credit ordered by number
	FindByCredit(ctx context.Context, creditID uuid.UUID) ([]Installment, error)

	// FindOpenDueBefore finds all open (non-terminal) installments whose due
	// date is strictly before the given date. This is the daily batch input.
	FindOpenDueBefore(ctx context.Context, date time.Time) ([]Installment, error)

	// Save creates or updates an installment
	Save(ctx context.Context, installment *Installment) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, installment *Installment) error
}
