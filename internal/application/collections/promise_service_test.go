package collections

import (
	"context"
	"testing"
	"time"

	"github.com/crediretail/backend/internal/domain/arrears"
	"github.com/crediretail/backend/internal/domain/collections"
	"github.com/crediretail/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type promiseServiceMocks struct {
	promises *MockPromiseRepository
	alerts   *MockAlertRepository
	contacts *MockContactRecordRepository
	configs  *MockConfigProvider
}

func newTestPromiseService(t *testing.T) (*PromiseService, *promiseServiceMocks) {
	t.Helper()
	m := &promiseServiceMocks{
		promises: new(MockPromiseRepository),
		alerts:   new(MockAlertRepository),
		contacts: new(MockContactRecordRepository),
		configs:  new(MockConfigProvider),
	}
	service := NewPromiseService(m.promises, m.alerts, m.contacts, m.configs, zap.NewNop())
	return service, m
}

func TestRegisterPromise(t *testing.T) {
	promisedDate := time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)

	t.Run("registers and moves the alert into progress", func(t *testing.T) {
		service, m := newTestPromiseService(t)
		alert := engineAlert(t, 10)
		cfg := engineConfig()
		cfg.DaysToFulfillPromise = 2

		m.alerts.On("FindByID", mock.Anything, alert.ID).Return(alert, nil)
		m.promises.On("FindActiveByAlert", mock.Anything, alert.ID).Return(nil, shared.ErrNotFound)
		m.configs.On("Current", mock.Anything).Return(cfg, nil)
		m.promises.On("Save", mock.Anything, mock.Anything).Return(nil)
		m.alerts.On("SaveWithLock", mock.Anything, alert).Return(nil)
		m.contacts.On("Append", mock.Anything, mock.Anything).Return(nil)

		operator := uuid.New()
		promise, err := service.RegisterPromise(context.Background(), alert.ID, promisedDate, decimal.NewFromInt(300), &operator)

		require.NoError(t, err)
		assert.Equal(t, collections.PromiseStatusActive, promise.Status)
		assert.Equal(t, promisedDate.AddDate(0, 0, 2), promise.Deadline)
		assert.Equal(t, collections.AlertStatusInProgress, alert.Status)
		m.promises.AssertExpectations(t)
		m.contacts.AssertExpectations(t)
	})

	t.Run("rejects a closed alert", func(t *testing.T) {
		service, m := newTestPromiseService(t)
		alert := engineAlert(t, 10)
		require.NoError(t, alert.Resolve(nil))
		m.alerts.On("FindByID", mock.Anything, alert.ID).Return(alert, nil)

		_, err := service.RegisterPromise(context.Background(), alert.ID, promisedDate, decimal.NewFromInt(300), nil)

		assert.Error(t, err)
		m.promises.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejects a second active promise", func(t *testing.T) {
		service, m := newTestPromiseService(t)
		alert := engineAlert(t, 10)
		existing, err := collections.NewPaymentPromise(alert.ID, alert.CustomerID, promisedDate, decimal.NewFromInt(200), 0)
		require.NoError(t, err)

		m.alerts.On("FindByID", mock.Anything, alert.ID).Return(alert, nil)
		m.promises.On("FindActiveByAlert", mock.Anything, alert.ID).Return(existing, nil)

		_, err = service.RegisterPromise(context.Background(), alert.ID, promisedDate, decimal.NewFromInt(300), nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "active payment promise")
		m.promises.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("keeps the promise when the alert transition loses its race", func(t *testing.T) {
		service, m := newTestPromiseService(t)
		alert := engineAlert(t, 10)

		m.alerts.On("FindByID", mock.Anything, alert.ID).Return(alert, nil)
		m.promises.On("FindActiveByAlert", mock.Anything, alert.ID).Return(nil, shared.ErrNotFound)
		m.configs.On("Current", mock.Anything).Return(engineConfig(), nil)
		m.promises.On("Save", mock.Anything, mock.Anything).Return(nil)
		m.alerts.On("SaveWithLock", mock.Anything, alert).Return(shared.ErrConcurrencyConflict)
		m.contacts.On("Append", mock.Anything, mock.Anything).Return(nil)

		promise, err := service.RegisterPromise(context.Background(), alert.ID, promisedDate, decimal.NewFromInt(300), nil)

		require.NoError(t, err)
		assert.NotNil(t, promise)
	})
}

func TestMarkFulfilled(t *testing.T) {
	t.Run("closes the promise and records a note", func(t *testing.T) {
		service, m := newTestPromiseService(t)
		promise, err := collections.NewPaymentPromise(uuid.New(), uuid.New(), time.Now(), decimal.NewFromInt(300), 0)
		require.NoError(t, err)

		m.promises.On("FindByID", mock.Anything, promise.ID).Return(promise, nil)
		m.promises.On("SaveWithLock", mock.Anything, promise).Return(nil)
		m.contacts.On("Append", mock.Anything, mock.Anything).Return(nil)

		fulfilled, err := service.MarkFulfilled(context.Background(), promise.ID, nil)

		require.NoError(t, err)
		assert.Equal(t, collections.PromiseStatusFulfilled, fulfilled.Status)
		m.contacts.AssertExpectations(t)
	})

	t.Run("rejects a promise already closed", func(t *testing.T) {
		service, m := newTestPromiseService(t)
		promise, err := collections.NewPaymentPromise(uuid.New(), uuid.New(), time.Now(), decimal.NewFromInt(300), 0)
		require.NoError(t, err)
		require.NoError(t, promise.Expire())

		m.promises.On("FindByID", mock.Anything, promise.ID).Return(promise, nil)

		_, err = service.MarkFulfilled(context.Background(), promise.ID, nil)

		assert.Error(t, err)
		m.promises.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})
}

func TestExpireDuePromises(t *testing.T) {
	today := time.Date(2025, 4, 20, 8, 0, 0, 0, time.UTC)

	newPromiseDue := func(t *testing.T, alertID, customerID uuid.UUID, promisedDate time.Time) collections.PaymentPromise {
		t.Helper()
		promise, err := collections.NewPaymentPromise(alertID, customerID, promisedDate, decimal.NewFromInt(300), 0)
		require.NoError(t, err)
		return *promise
	}

	t.Run("expires overdue promises and escalates their alerts", func(t *testing.T) {
		service, m := newTestPromiseService(t)
		alert := engineAlert(t, 10)
		overdue := newPromiseDue(t, alert.ID, alert.CustomerID, today.AddDate(0, 0, -5))
		current := newPromiseDue(t, uuid.New(), uuid.New(), today.AddDate(0, 0, 5))

		m.promises.On("FindActive", mock.Anything).Return([]collections.PaymentPromise{overdue, current}, nil)
		m.promises.On("SaveWithLock", mock.Anything, mock.Anything).Return(nil)
		m.alerts.On("FindByID", mock.Anything, alert.ID).Return(alert, nil)
		m.alerts.On("SaveWithLock", mock.Anything, alert).Return(nil)
		m.contacts.On("Append", mock.Anything, mock.Anything).Return(nil)

		expired, err := service.ExpireDuePromises(context.Background(), today)

		require.NoError(t, err)
		assert.Equal(t, 1, expired)
		assert.Equal(t, arrears.SeverityHigh, alert.Severity)
	})

	t.Run("a lost version race does not count the promise", func(t *testing.T) {
		service, m := newTestPromiseService(t)
		overdue := newPromiseDue(t, uuid.New(), uuid.New(), today.AddDate(0, 0, -5))

		m.promises.On("FindActive", mock.Anything).Return([]collections.PaymentPromise{overdue}, nil)
		m.promises.On("SaveWithLock", mock.Anything, mock.Anything).Return(shared.ErrConcurrencyConflict)

		expired, err := service.ExpireDuePromises(context.Background(), today)

		require.NoError(t, err)
		assert.Equal(t, 0, expired)
	})

	t.Run("nothing active", func(t *testing.T) {
		service, m := newTestPromiseService(t)
		m.promises.On("FindActive", mock.Anything).Return([]collections.PaymentPromise{}, nil)

		expired, err := service.ExpireDuePromises(context.Background(), today)

		require.NoError(t, err)
		assert.Equal(t, 0, expired)
	})
}
