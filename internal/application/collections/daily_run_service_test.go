package collections

import (
	"context"
	"errors"
	"testing"
	"time"

	apparrears "github.com/crediretail/backend/internal/application/arrears"
	"github.com/crediretail/backend/internal/domain/arrears"
	"github.com/crediretail/backend/internal/domain/collections"
	"github.com/crediretail/backend/internal/domain/credit"
	"github.com/crediretail/backend/internal/domain/shared"
	"github.com/crediretail/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type dailyRunMocks struct {
	*engineMocks
	agreements *MockAgreementRepository
}

func newTestDailyRunService(t *testing.T) (*DailyRunService, *dailyRunMocks) {
	t.Helper()
	engine, em := newTestEngine(t)
	m := &dailyRunMocks{engineMocks: em, agreements: new(MockAgreementRepository)}

	log := zap.NewNop()
	fees := apparrears.NewFeeService(m.installments, m.configs, log)
	promises := NewPromiseService(m.promises, m.alerts, m.contacts, m.configs, log)
	agreements := NewAgreementService(m.agreements, m.alerts, m.contacts, m.configs, log)
	service := NewDailyRunService(fees, engine, promises, agreements, m.installments, m.alerts, log)
	return service, m
}

func overdueInstallment(t *testing.T, dueDate time.Time) credit.Installment {
	t.Helper()
	installment, err := credit.NewInstallment(
		uuid.New(), uuid.New(), 1,
		valueobject.NewMoneyPENFromFloat(1000),
		valueobject.NewMoneyPENFromFloat(200),
		dueDate,
	)
	require.NoError(t, err)
	return *installment
}

func TestDailyRun(t *testing.T) {
	asOf := time.Date(2025, 4, 9, 6, 0, 0, 0, time.UTC)

	t.Run("creates an alert per overdue installment", func(t *testing.T) {
		service, m := newTestDailyRunService(t)
		installment := overdueInstallment(t, asOf.AddDate(0, 0, -10))

		m.configs.On("Current", mock.Anything).Return(engineConfig(), nil)
		m.installments.On("FindOpenDueBefore", mock.Anything, asOf).Return([]credit.Installment{installment}, nil)
		m.alerts.On("FindOpenByInstallment", mock.Anything, installment.ID).Return(nil, shared.ErrNotFound)
		m.alerts.On("Save", mock.Anything, mock.Anything).Return(nil)
		m.alerts.On("FindOpen", mock.Anything).Return([]collections.CollectionAlert{}, nil)
		m.tiers.On("FindEnabled", mock.Anything).Return([]collections.CollectionTier{}, nil)
		m.promises.On("FindActive", mock.Anything).Return([]collections.PaymentPromise{}, nil)
		m.agreements.On("FindActive", mock.Anything).Return([]collections.PaymentAgreement{}, nil)

		report, err := service.Run(context.Background(), asOf)

		require.NoError(t, err)
		assert.Equal(t, 1, report.OverdueCount)
		assert.Equal(t, 1, report.AlertsCreated)
		assert.Equal(t, 0, report.AlertsRefreshed)
		assert.Equal(t, 0, report.AlertsResolved)
		require.NotNil(t, report.Tramo)
		m.alerts.AssertExpectations(t)
	})

	t.Run("refreshes the open alert of a still-overdue installment", func(t *testing.T) {
		service, m := newTestDailyRunService(t)
		installment := overdueInstallment(t, asOf.AddDate(0, 0, -10))
		alert, err := collections.NewCollectionAlert(
			installment.ID, installment.CreditID, installment.CustomerID,
			3, decimal.NewFromInt(100), arrears.SeverityLow,
		)
		require.NoError(t, err)

		m.configs.On("Current", mock.Anything).Return(engineConfig(), nil)
		m.installments.On("FindOpenDueBefore", mock.Anything, asOf).Return([]credit.Installment{installment}, nil)
		m.alerts.On("FindOpenByInstallment", mock.Anything, installment.ID).Return(alert, nil)
		m.alerts.On("SaveWithLock", mock.Anything, alert).Return(nil)
		m.alerts.On("FindOpen", mock.Anything).Return([]collections.CollectionAlert{*alert}, nil)
		m.tiers.On("FindEnabled", mock.Anything).Return([]collections.CollectionTier{}, nil)
		m.promises.On("FindActive", mock.Anything).Return([]collections.PaymentPromise{}, nil)
		m.agreements.On("FindActive", mock.Anything).Return([]collections.PaymentAgreement{}, nil)

		report, err := service.Run(context.Background(), asOf)

		require.NoError(t, err)
		assert.Equal(t, 1, report.AlertsRefreshed)
		assert.Equal(t, 0, report.AlertsCreated)
		assert.Equal(t, 10, alert.DaysOverdue)
		m.alerts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("resolves alerts whose installment is settled", func(t *testing.T) {
		service, m := newTestDailyRunService(t)
		stale := engineAlert(t, 10)

		m.configs.On("Current", mock.Anything).Return(engineConfig(), nil)
		m.installments.On("FindOpenDueBefore", mock.Anything, asOf).Return([]credit.Installment{}, nil)
		m.alerts.On("FindOpen", mock.Anything).Return([]collections.CollectionAlert{*stale}, nil)
		m.alerts.On("SaveWithLock", mock.Anything, mock.Anything).Return(nil)
		m.tiers.On("FindEnabled", mock.Anything).Return([]collections.CollectionTier{}, nil)
		m.promises.On("FindActive", mock.Anything).Return([]collections.PaymentPromise{}, nil)
		m.agreements.On("FindActive", mock.Anything).Return([]collections.PaymentAgreement{}, nil)

		report, err := service.Run(context.Background(), asOf)

		require.NoError(t, err)
		assert.Equal(t, 0, report.OverdueCount)
		assert.Equal(t, 1, report.AlertsResolved)
	})

	t.Run("propagates a failed arrears refresh", func(t *testing.T) {
		service, m := newTestDailyRunService(t)
		m.configs.On("Current", mock.Anything).Return(nil, errors.New("db down"))

		report, err := service.Run(context.Background(), asOf)

		assert.Error(t, err)
		assert.Nil(t, report)
	})

	t.Run("a lost resolve race leaves the alert for the next run", func(t *testing.T) {
		service, m := newTestDailyRunService(t)
		stale := engineAlert(t, 10)

		m.configs.On("Current", mock.Anything).Return(engineConfig(), nil)
		m.installments.On("FindOpenDueBefore", mock.Anything, asOf).Return([]credit.Installment{}, nil)
		m.alerts.On("FindOpen", mock.Anything).Return([]collections.CollectionAlert{*stale}, nil)
		m.alerts.On("SaveWithLock", mock.Anything, mock.Anything).Return(shared.ErrConcurrencyConflict)
		m.tiers.On("FindEnabled", mock.Anything).Return([]collections.CollectionTier{}, nil)
		m.promises.On("FindActive", mock.Anything).Return([]collections.PaymentPromise{}, nil)
		m.agreements.On("FindActive", mock.Anything).Return([]collections.PaymentAgreement{}, nil)

		report, err := service.Run(context.Background(), asOf)

		require.NoError(t, err)
		assert.Equal(t, 0, report.AlertsResolved)
	})
}
