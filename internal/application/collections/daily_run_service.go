package collections

import (
	"context"
	"errors"
	"time"

	apparrears "github.com/crediretail/backend/internal/application/arrears"
	"github.com/crediretail/backend/internal/domain/arrears"
	"github.com/crediretail/backend/internal/domain/collections"
	"github.com/crediretail/backend/internal/domain/credit"
	"github.com/crediretail/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RunReport summarizes one end-to-end daily collections run
type RunReport struct {
	AsOf             time.Time     `json:"as_of"`
	OverdueCount     int           `json:"overdue_count"`
	CalculationErrors int          `json:"calculation_errors"`
	AlertsCreated    int           `json:"alerts_created"`
	AlertsRefreshed  int           `json:"alerts_refreshed"`
	AlertsResolved   int           `json:"alerts_resolved"`
	Tramo            *BatchSummary `json:"tramo"`
	PromisesExpired  int           `json:"promises_expired"`
	AgreementsBroken int           `json:"agreements_broken"`
}

// DailyRunService orchestrates the daily batch: arrears refresh, alert
// classification, tier automation, promise expiry and agreement breach checks.
// Stages run in order; a failure inside one item never aborts the run.
type DailyRunService struct {
	fees         *apparrears.FeeService
	engine       *TramoEngine
	promises     *PromiseService
	agreements   *AgreementService
	installments credit.InstallmentRepository
	alerts       collections.AlertRepository
	logger       *zap.Logger
}

// NewDailyRunService creates a new DailyRunService
func NewDailyRunService(
	fees *apparrears.FeeService,
	engine *TramoEngine,
	promises *PromiseService,
	agreements *AgreementService,
	installments credit.InstallmentRepository,
	alerts collections.AlertRepository,
	logger *zap.Logger,
) *DailyRunService {
	return &DailyRunService{
		fees:         fees,
		engine:       engine,
		promises:     promises,
		agreements:   agreements,
		installments: installments,
		alerts:       alerts,
		logger:       logger,
	}
}

// Run executes the full daily cycle as of the given date
func (s *DailyRunService) Run(ctx context.Context, asOf time.Time) (*RunReport, error) {
	report := &RunReport{AsOf: asOf}

	batch, err := s.fees.RefreshArrears(ctx, asOf)
	if err != nil {
		return nil, err
	}
	report.OverdueCount = batch.OverdueCount
	report.CalculationErrors = len(batch.Errors)

	if err := s.reconcileAlerts(ctx, batch, report); err != nil {
		return nil, err
	}

	tramo, err := s.engine.ProcessBatch(ctx, asOf)
	if err != nil {
		return nil, err
	}
	report.Tramo = tramo

	expired, err := s.promises.ExpireDuePromises(ctx, asOf)
	if err != nil {
		return nil, err
	}
	report.PromisesExpired = expired

	broken, err := s.agreements.CheckBrokenAgreements(ctx, asOf)
	if err != nil {
		return nil, err
	}
	report.AgreementsBroken = broken

	s.logger.Info("daily collections run finished",
		zap.Time("as_of", asOf),
		zap.Int("overdue", report.OverdueCount),
		zap.Int("calculation_errors", report.CalculationErrors),
		zap.Int("alerts_created", report.AlertsCreated),
		zap.Int("alerts_refreshed", report.AlertsRefreshed),
		zap.Int("alerts_resolved", report.AlertsResolved),
		zap.Int("promises_expired", report.PromisesExpired),
		zap.Int("agreements_broken", report.AgreementsBroken),
	)
	return report, nil
}

// reconcileAlerts upserts an open alert per overdue installment and resolves
// alerts whose installment is no longer overdue
func (s *DailyRunService) reconcileAlerts(ctx context.Context, batch *apparrears.BatchResult, report *RunReport) error {
	installments, err := s.installments.FindOpenDueBefore(ctx, batch.AsOf)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]*credit.Installment, len(installments))
	for i := range installments {
		byID[installments[i].ID] = &installments[i]
	}

	overdue := make(map[uuid.UUID]bool, len(batch.Details))
	for _, detail := range batch.Details {
		if detail.DaysLate <= 0 {
			continue
		}
		overdue[detail.InstallmentID] = true
		s.upsertAlert(ctx, detail, byID[detail.InstallmentID], report)
	}

	open, err := s.alerts.FindOpen(ctx)
	if err != nil {
		return err
	}
	for i := range open {
		alert := &open[i]
		if overdue[alert.InstallmentID] {
			continue
		}
		if err := alert.Resolve(nil); err != nil {
			continue
		}
		if err := s.alerts.SaveWithLock(ctx, alert); err != nil {
			s.logger.Warn("failed to resolve settled alert",
				zap.String("alert_id", alert.ID.String()), zap.Error(err))
			continue
		}
		report.AlertsResolved++
	}
	return nil
}

func (s *DailyRunService) upsertAlert(ctx context.Context, detail arrears.FeeDetail, installment *credit.Installment, report *RunReport) {
	existing, err := s.alerts.FindOpenByInstallment(ctx, detail.InstallmentID)
	switch {
	case err == nil:
		if err := existing.RefreshSnapshot(detail.DaysLate, detail.TotalDue, detail.Severity); err != nil {
			return
		}
		if err := s.alerts.SaveWithLock(ctx, existing); err != nil {
			s.logger.Warn("failed to refresh alert snapshot",
				zap.String("alert_id", existing.ID.String()), zap.Error(err))
			return
		}
		report.AlertsRefreshed++
	case errors.Is(err, shared.ErrNotFound):
		if installment == nil {
			return
		}
		alert, aerr := collections.NewCollectionAlert(
			installment.ID, installment.CreditID, installment.CustomerID,
			detail.DaysLate, detail.TotalDue, detail.Severity,
		)
		if aerr != nil {
			s.logger.Warn("failed to build alert",
				zap.String("installment_id", installment.ID.String()), zap.Error(aerr))
			return
		}
		if err := s.alerts.Save(ctx, alert); err != nil {
			s.logger.Warn("failed to create alert",
				zap.String("installment_id", installment.ID.String()), zap.Error(err))
			return
		}
		report.AlertsCreated++
	default:
		s.logger.Warn("alert lookup failed",
			zap.String("installment_id", detail.InstallmentID.String()), zap.Error(err))
	}
}
