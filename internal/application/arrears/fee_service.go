package arrears

import (
	"context"
	"sync"
	"time"

	"github.com/crediretail/backend/internal/domain/arrears"
	"github.com/crediretail/backend/internal/domain/credit"
	"github.com/crediretail/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// defaultWorkers bounds the fee-calculation fan-out
const defaultWorkers = 8

// FeeError is a failed per-installment calculation inside a batch result.
// The batch keeps going; failures surface here for operator visibility.
type FeeError struct {
	InstallmentID uuid.UUID `json:"installment_id"`
	Reason        string    `json:"reason"`
}

// BatchResult aggregates a full arrears refresh
type BatchResult struct {
	AsOf         time.Time          `json:"as_of"`
	Details      []arrears.FeeDetail `json:"details"`
	Errors       []FeeError         `json:"errors"`
	OverdueCount int                `json:"overdue_count"`
	TotalFees    decimal.Decimal    `json:"total_fees"`
	TotalDue     decimal.Decimal    `json:"total_due"`
}

// FeeService is the batch entry point over the pure fee calculator
type FeeService struct {
	installments credit.InstallmentRepository
	configs      arrears.ConfigProvider
	logger       *zap.Logger
	workers      int
}

// NewFeeService creates a new FeeService
func NewFeeService(installments credit.InstallmentRepository, configs arrears.ConfigProvider, logger *zap.Logger) *FeeService {
	return &FeeService{
		installments: installments,
		configs:      configs,
		logger:       logger,
		workers:      defaultWorkers,
	}
}

// RefreshArrears recalculates the fee breakdown for every open installment
// due before asOf. Calculations are independent and run concurrently; a
// failing installment becomes an error item and the batch continues.
func (s *FeeService) RefreshArrears(ctx context.Context, asOf time.Time) (*BatchResult, error) {
	cfg, err := s.configs.Current(ctx)
	if err != nil {
		return nil, err
	}
	installments, err := s.installments.FindOpenDueBefore(ctx, asOf)
	if err != nil {
		return nil, err
	}
	return s.calculate(installments, asOf, cfg), nil
}

// Simulate computes the fee breakdown for a hypothetical installment without
// touching persistence. Used by the what-if API.
func (s *FeeService) Simulate(ctx context.Context, capital, interest, paid decimal.Decimal, dueDate, asOf time.Time) (*arrears.FeeDetail, error) {
	cfg, err := s.configs.Current(ctx)
	if err != nil {
		return nil, err
	}
	installment, err := credit.NewInstallment(
		uuid.New(), uuid.New(), 1,
		valueobject.NewMoneyPEN(capital),
		valueobject.NewMoneyPEN(interest),
		dueDate,
	)
	if err != nil {
		return nil, err
	}
	installment.PaidAmount = paid
	return arrears.CalculateFee(installment, asOf, cfg)
}

// calculate fans the pure calculation out over a bounded worker pool. There
// is no shared mutable state beyond the result slots, one per installment.
func (s *FeeService) calculate(installments []credit.Installment, asOf time.Time, cfg *arrears.Config) *BatchResult {
	type slot struct {
		detail *arrears.FeeDetail
		err    error
	}
	slots := make([]slot, len(installments))

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.workers)
	for i := range installments {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			detail, err := arrears.CalculateFee(&installments[i], asOf, cfg)
			slots[i] = slot{detail: detail, err: err}
		}(i)
	}
	wg.Wait()

	result := &BatchResult{
		AsOf:      asOf,
		TotalFees: decimal.Zero,
		TotalDue:  decimal.Zero,
	}
	for i, sl := range slots {
		if sl.err != nil {
			result.Errors = append(result.Errors, FeeError{
				InstallmentID: installments[i].ID,
				Reason:        sl.err.Error(),
			})
			s.logger.Warn("fee calculation failed",
				zap.String("installment_id", installments[i].ID.String()),
				zap.Error(sl.err),
			)
			continue
		}
		result.Details = append(result.Details, *sl.detail)
		result.TotalFees = result.TotalFees.Add(sl.detail.FinalFee)
		result.TotalDue = result.TotalDue.Add(sl.detail.TotalDue)
		if sl.detail.EffectiveDays > 0 {
			result.OverdueCount++
		}
	}
	return result
}
