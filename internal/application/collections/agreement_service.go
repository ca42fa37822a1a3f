package collections

import (
	"context"
	"fmt"
	"time"

	"github.com/crediretail/backend/internal/domain/arrears"
	"github.com/crediretail/backend/internal/domain/collections"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateAgreementCommand carries the negotiated terms of a new agreement
type CreateAgreementCommand struct {
	AlertID              uuid.UUID
	OriginalDebt         decimal.Decimal
	OriginalArrears      decimal.Decimal
	CondonedAmount       decimal.Decimal
	InitialPayment       decimal.Decimal
	InstallmentCount     int
	FirstInstallmentDate time.Time
	Operator             *uuid.UUID
}

// AgreementService manages negotiated payment agreements
type AgreementService struct {
	agreements collections.AgreementRepository
	alerts     collections.AlertRepository
	contacts   collections.ContactRecordRepository
	configs    arrears.ConfigProvider
	logger     *zap.Logger
}

// NewAgreementService creates a new AgreementService
func NewAgreementService(
	agreements collections.AgreementRepository,
	alerts collections.AlertRepository,
	contacts collections.ContactRecordRepository,
	configs arrears.ConfigProvider,
	logger *zap.Logger,
) *AgreementService {
	return &AgreementService{
		agreements: agreements,
		alerts:     alerts,
		contacts:   contacts,
		configs:    configs,
		logger:     logger,
	}
}

// CreateAgreement validates the negotiated terms against the configured
// policy and stores the agreement as a draft. All policy violations are
// reported together; nothing is written when validation fails.
func (s *AgreementService) CreateAgreement(ctx context.Context, cmd CreateAgreementCommand) (*collections.PaymentAgreement, error) {
	alert, err := s.alerts.FindByID(ctx, cmd.AlertID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.configs.Current(ctx)
	if err != nil {
		return nil, err
	}

	agreement, err := collections.NewPaymentAgreement(
		alert.ID, alert.CreditID, alert.CustomerID,
		cmd.OriginalDebt, cmd.OriginalArrears, cmd.CondonedAmount, cmd.InitialPayment,
		cmd.InstallmentCount, cmd.FirstInstallmentDate,
		cfg.Agreements,
	)
	if err != nil {
		return nil, err
	}
	if err := s.agreements.Save(ctx, agreement); err != nil {
		return nil, err
	}

	note := fmt.Sprintf("payment agreement drafted: total %s in %d installments",
		agreement.TotalAmount.StringFixed(2), cmd.InstallmentCount)
	s.appendNote(ctx, alert.ID, alert.CustomerID, note)
	return agreement, nil
}

// Confirm activates a draft agreement and resolves the originating alert,
// which is considered renegotiated from that point on.
func (s *AgreementService) Confirm(ctx context.Context, agreementID uuid.UUID, operator *uuid.UUID) (*collections.PaymentAgreement, error) {
	agreement, err := s.agreements.FindByID(ctx, agreementID)
	if err != nil {
		return nil, err
	}
	if err := agreement.Activate(); err != nil {
		return nil, err
	}
	if err := s.agreements.SaveWithLock(ctx, agreement); err != nil {
		return nil, err
	}

	if alert, err := s.alerts.FindByID(ctx, agreement.AlertID); err == nil && alert.Status.IsOpen() {
		if err := alert.Resolve(operator); err == nil {
			if err := s.alerts.SaveWithLock(ctx, alert); err != nil {
				s.logger.Warn("agreement confirmed but alert not resolved",
					zap.String("alert_id", alert.ID.String()), zap.Error(err))
			}
		}
	}
	s.appendNote(ctx, agreement.AlertID, agreement.CustomerID, "payment agreement activated")
	return agreement, nil
}

// Get returns a single agreement with its schedule
func (s *AgreementService) Get(ctx context.Context, agreementID uuid.UUID) (*collections.PaymentAgreement, error) {
	return s.agreements.FindByID(ctx, agreementID)
}

// ListByCustomer returns all agreements of a customer, newest first
func (s *AgreementService) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]collections.PaymentAgreement, error) {
	return s.agreements.FindByCustomer(ctx, customerID)
}

// Cancel voids a draft or active agreement
func (s *AgreementService) Cancel(ctx context.Context, agreementID uuid.UUID, operator *uuid.UUID) (*collections.PaymentAgreement, error) {
	agreement, err := s.agreements.FindByID(ctx, agreementID)
	if err != nil {
		return nil, err
	}
	if err := agreement.Cancel(operator); err != nil {
		return nil, err
	}
	if err := s.agreements.SaveWithLock(ctx, agreement); err != nil {
		return nil, err
	}
	s.appendNote(ctx, agreement.AlertID, agreement.CustomerID, "payment agreement cancelled")
	return agreement, nil
}

// RegisterInstallmentPayment marks one scheduled installment as paid
func (s *AgreementService) RegisterInstallmentPayment(ctx context.Context, agreementID uuid.UUID, number int) (*collections.PaymentAgreement, error) {
	agreement, err := s.agreements.FindByID(ctx, agreementID)
	if err != nil {
		return nil, err
	}
	if err := agreement.RegisterInstallmentPayment(number); err != nil {
		return nil, err
	}
	if err := s.agreements.SaveWithLock(ctx, agreement); err != nil {
		return nil, err
	}
	if agreement.Status == collections.AgreementStatusFulfilled {
		s.appendNote(ctx, agreement.AlertID, agreement.CustomerID, "payment agreement fulfilled")
	}
	return agreement, nil
}

// CheckBrokenAgreements sweeps active agreements and marks as broken any with
// an unpaid installment past the configured tolerance. Payments already made
// stay applied. Returns how many agreements were broken.
func (s *AgreementService) CheckBrokenAgreements(ctx context.Context, today time.Time) (int, error) {
	cfg, err := s.configs.Current(ctx)
	if err != nil {
		return 0, err
	}
	active, err := s.agreements.FindActive(ctx)
	if err != nil {
		return 0, err
	}

	broken := 0
	for i := range active {
		agreement := &active[i]
		if !agreement.IsBroken(today, cfg.Agreements.BrokenToleranceDays) {
			continue
		}
		if err := agreement.MarkBroken(); err != nil {
			continue
		}
		if err := s.agreements.SaveWithLock(ctx, agreement); err != nil {
			s.logger.Warn("failed to mark agreement broken",
				zap.String("agreement_id", agreement.ID.String()), zap.Error(err))
			continue
		}
		broken++
		note := fmt.Sprintf("payment agreement broken with %s outstanding",
			agreement.OutstandingAmount().StringFixed(2))
		s.appendNote(ctx, agreement.AlertID, agreement.CustomerID, note)
	}
	return broken, nil
}

func (s *AgreementService) appendNote(ctx context.Context, alertID, customerID uuid.UUID, note string) {
	record, err := collections.NewAutomaticNote(alertID, customerID, note)
	if err != nil {
		return
	}
	if err := s.contacts.Append(ctx, record); err != nil {
		s.logger.Warn("failed to append agreement note", zap.Error(err))
	}
}
