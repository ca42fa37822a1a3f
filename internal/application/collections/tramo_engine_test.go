package collections

import (
	"context"
	"errors"
	"testing"
	"time"

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

// =============================================================================
// Mock Repositories
// =============================================================================

// MockAlertRepository is a mock implementation of collections.AlertRepository
type MockAlertRepository struct {
	mock.Mock
}

func (m *MockAlertRepository) FindByID(ctx context.Context, id uuid.UUID) (*collections.CollectionAlert, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*collections.CollectionAlert), args.Error(1)
}

func (m *MockAlertRepository) FindOpenByInstallment(ctx context.Context, installmentID uuid.UUID) (*collections.CollectionAlert, error) {
	args := m.Called(ctx, installmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*collections.CollectionAlert), args.Error(1)
}

func (m *MockAlertRepository) FindOpen(ctx context.Context) ([]collections.CollectionAlert, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]collections.CollectionAlert), args.Error(1)
}

func (m *MockAlertRepository) FindAll(ctx context.Context, filter collections.AlertFilter) ([]collections.CollectionAlert, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]collections.CollectionAlert), args.Error(1)
}

func (m *MockAlertRepository) Save(ctx context.Context, alert *collections.CollectionAlert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

func (m *MockAlertRepository) SaveWithLock(ctx context.Context, alert *collections.CollectionAlert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

// MockInstallmentRepository is a mock implementation of credit.InstallmentRepository
type MockInstallmentRepository struct {
	mock.Mock
}

func (m *MockInstallmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*credit.Installment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*credit.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) FindByCredit(ctx context.Context, creditID uuid.UUID) ([]credit.Installment, error) {
	args := m.Called(ctx, creditID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]credit.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) FindOpenDueBefore(ctx context.Context, date time.Time) ([]credit.Installment, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]credit.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) Save(ctx context.Context, installment *credit.Installment) error {
	args := m.Called(ctx, installment)
	return args.Error(0)
}

func (m *MockInstallmentRepository) SaveWithLock(ctx context.Context, installment *credit.Installment) error {
	args := m.Called(ctx, installment)
	return args.Error(0)
}

// MockPromiseRepository is a mock implementation of collections.PromiseRepository
type MockPromiseRepository struct {
	mock.Mock
}

func (m *MockPromiseRepository) FindByID(ctx context.Context, id uuid.UUID) (*collections.PaymentPromise, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*collections.PaymentPromise), args.Error(1)
}

func (m *MockPromiseRepository) FindActiveByAlert(ctx context.Context, alertID uuid.UUID) (*collections.PaymentPromise, error) {
	args := m.Called(ctx, alertID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*collections.PaymentPromise), args.Error(1)
}

func (m *MockPromiseRepository) FindActive(ctx context.Context) ([]collections.PaymentPromise, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]collections.PaymentPromise), args.Error(1)
}

func (m *MockPromiseRepository) Save(ctx context.Context, promise *collections.PaymentPromise) error {
	args := m.Called(ctx, promise)
	return args.Error(0)
}

func (m *MockPromiseRepository) SaveWithLock(ctx context.Context, promise *collections.PaymentPromise) error {
	args := m.Called(ctx, promise)
	return args.Error(0)
}

// MockContactRecordRepository is a mock implementation of collections.ContactRecordRepository
type MockContactRecordRepository struct {
	mock.Mock
}

func (m *MockContactRecordRepository) Append(ctx context.Context, record *collections.ContactRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockContactRecordRepository) FindByAlert(ctx context.Context, alertID uuid.UUID) ([]collections.ContactRecord, error) {
	args := m.Called(ctx, alertID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]collections.ContactRecord), args.Error(1)
}

// MockTierRepository is a mock implementation of collections.TierRepository
type MockTierRepository struct {
	mock.Mock
}

func (m *MockTierRepository) FindByID(ctx context.Context, id uuid.UUID) (*collections.CollectionTier, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*collections.CollectionTier), args.Error(1)
}

func (m *MockTierRepository) FindEnabled(ctx context.Context) ([]collections.CollectionTier, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]collections.CollectionTier), args.Error(1)
}

func (m *MockTierRepository) FindAll(ctx context.Context) ([]collections.CollectionTier, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]collections.CollectionTier), args.Error(1)
}

func (m *MockTierRepository) Save(ctx context.Context, tier *collections.CollectionTier) error {
	args := m.Called(ctx, tier)
	return args.Error(0)
}

func (m *MockTierRepository) SaveWithLock(ctx context.Context, tier *collections.CollectionTier) error {
	args := m.Called(ctx, tier)
	return args.Error(0)
}

// MockConfigProvider is a mock implementation of arrears.ConfigProvider
type MockConfigProvider struct {
	mock.Mock
}

func (m *MockConfigProvider) Current(ctx context.Context) (*arrears.Config, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*arrears.Config), args.Error(1)
}

// MockNotificationSender is a mock implementation of NotificationSender
type MockNotificationSender struct {
	mock.Mock
}

func (m *MockNotificationSender) Send(ctx context.Context, customerID uuid.UUID, channel collections.Channel, template string, payload map[string]string) error {
	args := m.Called(ctx, customerID, channel, template, payload)
	return args.Error(0)
}

// MockClientBlockingService is a mock implementation of ClientBlockingService
type MockClientBlockingService struct {
	mock.Mock
}

func (m *MockClientBlockingService) Block(ctx context.Context, customerID uuid.UUID, blockType collections.BlockType) error {
	args := m.Called(ctx, customerID, blockType)
	return args.Error(0)
}

// MockNotificationLimiter is a mock implementation of NotificationLimiter
type MockNotificationLimiter struct {
	mock.Mock
}

func (m *MockNotificationLimiter) Allow(ctx context.Context, day time.Time, limit int) (bool, error) {
	args := m.Called(ctx, day, limit)
	return args.Bool(0), args.Error(1)
}

// =============================================================================
// Test Fixtures
// =============================================================================

type engineMocks struct {
	alerts       *MockAlertRepository
	installments *MockInstallmentRepository
	promises     *MockPromiseRepository
	contacts     *MockContactRecordRepository
	tiers        *MockTierRepository
	configs      *MockConfigProvider
	notifier     *MockNotificationSender
	blocker      *MockClientBlockingService
	limiter      *MockNotificationLimiter
}

func newTestEngine(t *testing.T) (*TramoEngine, *engineMocks) {
	t.Helper()
	m := &engineMocks{
		alerts:       new(MockAlertRepository),
		installments: new(MockInstallmentRepository),
		promises:     new(MockPromiseRepository),
		contacts:     new(MockContactRecordRepository),
		tiers:        new(MockTierRepository),
		configs:      new(MockConfigProvider),
		notifier:     new(MockNotificationSender),
		blocker:      new(MockClientBlockingService),
		limiter:      new(MockNotificationLimiter),
	}
	engine := NewTramoEngine(
		m.alerts, m.installments, m.promises, m.contacts, m.tiers,
		m.configs, m.notifier, m.blocker, m.limiter, zap.NewNop(),
	)
	return engine, m
}

func engineAlert(t *testing.T, daysOverdue int) *collections.CollectionAlert {
	t.Helper()
	alert, err := collections.NewCollectionAlert(
		uuid.New(), uuid.New(), uuid.New(),
		daysOverdue, decimal.NewFromInt(500), arrears.SeverityMedium,
	)
	require.NoError(t, err)
	return alert
}

func engineTier(t *testing.T, from int, to *int, actions collections.TierActions) collections.CollectionTier {
	t.Helper()
	tier, err := collections.NewCollectionTier("Preventivo", from, to, 1, actions)
	require.NoError(t, err)
	return *tier
}

func engineConfig() *arrears.Config {
	cfg := arrears.DefaultConfig()
	cfg.Automation.SuppressWeekends = false
	cfg.Automation.QuietHoursStart = 0
	cfg.Automation.QuietHoursEnd = 0
	cfg.Automation.MaxDailyNotifications = 0
	cfg.Automation.MaxNotificationsPerInstallment = 0
	return cfg
}

func endDay(v int) *int { return &v }

// Wednesday, business hours.
var businessDay = time.Date(2025, 4, 9, 10, 0, 0, 0, time.UTC)

// =============================================================================
// ProcessAlert
// =============================================================================

func TestProcessAlertTierSelection(t *testing.T) {
	t.Run("no tier matches the overdue days", func(t *testing.T) {
		engine, _ := newTestEngine(t)
		tiers := []collections.CollectionTier{
			engineTier(t, 10, endDay(30), collections.TierActions{{Type: collections.ActionRecordNote}}),
		}

		outcomes := engine.ProcessAlert(context.Background(), engineAlert(t, 5), tiers, engineConfig(), businessDay)

		assert.Nil(t, outcomes)
	})

	t.Run("actions fire only on their scheduled day", func(t *testing.T) {
		engine, m := newTestEngine(t)
		tiers := []collections.CollectionTier{
			engineTier(t, 1, endDay(7), collections.TierActions{
				{Type: collections.ActionSendNotification, DayOffset: 0, Channel: collections.ChannelWhatsApp},
				{Type: collections.ActionRecordNote, DayOffset: 2},
			}),
		}
		m.contacts.On("Append", mock.Anything, mock.Anything).Return(nil)

		// 3 days overdue = day 2 inside a tier starting at day 1
		outcomes := engine.ProcessAlert(context.Background(), engineAlert(t, 3), tiers, engineConfig(), businessDay)

		require.Len(t, outcomes, 1)
		assert.Equal(t, collections.ActionRecordNote, outcomes[0].Action)
		assert.True(t, outcomes[0].Success)
		m.notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		m.contacts.AssertExpectations(t)
	})

	t.Run("generate alert is satisfied by the open alert itself", func(t *testing.T) {
		engine, _ := newTestEngine(t)
		tiers := []collections.CollectionTier{
			engineTier(t, 1, endDay(7), collections.TierActions{
				{Type: collections.ActionGenerateAlert, DayOffset: 0},
			}),
		}

		outcomes := engine.ProcessAlert(context.Background(), engineAlert(t, 1), tiers, engineConfig(), businessDay)

		require.Len(t, outcomes, 1)
		assert.True(t, outcomes[0].Success)
	})

	t.Run("a failing action does not stop the rest", func(t *testing.T) {
		engine, m := newTestEngine(t)
		tiers := []collections.CollectionTier{
			engineTier(t, 1, endDay(7), collections.TierActions{
				{Type: collections.ActionRecordNote, DayOffset: 0},
				{Type: collections.ActionEscalatePriority, DayOffset: 0},
			}),
		}
		m.contacts.On("Append", mock.Anything, mock.Anything).Return(errors.New("audit store down"))
		m.alerts.On("SaveWithLock", mock.Anything, mock.Anything).Return(nil)

		alert := engineAlert(t, 1)
		outcomes := engine.ProcessAlert(context.Background(), alert, tiers, engineConfig(), businessDay)

		require.Len(t, outcomes, 2)
		assert.False(t, outcomes[0].Success)
		assert.True(t, outcomes[1].Success)
		assert.Equal(t, arrears.SeverityHigh, alert.Severity)
	})
}

func TestProcessAlertSendNotification(t *testing.T) {
	notifyTier := func(t *testing.T) []collections.CollectionTier {
		return []collections.CollectionTier{
			engineTier(t, 1, endDay(7), collections.TierActions{
				{Type: collections.ActionSendNotification, DayOffset: 0, Channel: collections.ChannelEmail, Template: "reminder"},
			}),
		}
	}

	t.Run("sends and persists the counter", func(t *testing.T) {
		engine, m := newTestEngine(t)
		alert := engineAlert(t, 1)
		m.notifier.On("Send", mock.Anything, alert.CustomerID, collections.ChannelEmail, "reminder", mock.Anything).Return(nil)
		m.alerts.On("SaveWithLock", mock.Anything, alert).Return(nil)

		outcomes := engine.ProcessAlert(context.Background(), alert, notifyTier(t), engineConfig(), businessDay)

		require.Len(t, outcomes, 1)
		assert.True(t, outcomes[0].Success)
		assert.Equal(t, 1, alert.NotificationsSentOn(businessDay))
		m.notifier.AssertExpectations(t)
		m.alerts.AssertExpectations(t)
	})

	t.Run("defaults to whatsapp when the action names no channel", func(t *testing.T) {
		engine, m := newTestEngine(t)
		alert := engineAlert(t, 1)
		tiers := []collections.CollectionTier{
			engineTier(t, 1, endDay(7), collections.TierActions{
				{Type: collections.ActionSendNotification, DayOffset: 0},
			}),
		}
		m.notifier.On("Send", mock.Anything, alert.CustomerID, collections.ChannelWhatsApp, "", mock.Anything).Return(nil)
		m.alerts.On("SaveWithLock", mock.Anything, alert).Return(nil)

		outcomes := engine.ProcessAlert(context.Background(), alert, tiers, engineConfig(), businessDay)

		require.Len(t, outcomes, 1)
		assert.True(t, outcomes[0].Success)
		m.notifier.AssertExpectations(t)
	})

	t.Run("weekend suppression", func(t *testing.T) {
		engine, m := newTestEngine(t)
		cfg := engineConfig()
		cfg.Automation.SuppressWeekends = true
		saturday := time.Date(2025, 4, 12, 10, 0, 0, 0, time.UTC)

		outcomes := engine.ProcessAlert(context.Background(), engineAlert(t, 1), notifyTier(t), cfg, saturday)

		require.Len(t, outcomes, 1)
		assert.True(t, outcomes[0].Skipped)
		assert.False(t, outcomes[0].Success)
		m.notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("quiet hours wrapping midnight", func(t *testing.T) {
		engine, m := newTestEngine(t)
		cfg := engineConfig()
		cfg.Automation.QuietHoursStart = 21
		cfg.Automation.QuietHoursEnd = 8

		lateEvening := time.Date(2025, 4, 9, 22, 0, 0, 0, time.UTC)
		outcomes := engine.ProcessAlert(context.Background(), engineAlert(t, 1), notifyTier(t), cfg, lateEvening)
		require.Len(t, outcomes, 1)
		assert.True(t, outcomes[0].Skipped)

		earlyMorning := time.Date(2025, 4, 9, 7, 0, 0, 0, time.UTC)
		outcomes = engine.ProcessAlert(context.Background(), engineAlert(t, 1), notifyTier(t), cfg, earlyMorning)
		require.Len(t, outcomes, 1)
		assert.True(t, outcomes[0].Skipped)
		m.notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("per-installment cap exhausted", func(t *testing.T) {
		engine, m := newTestEngine(t)
		cfg := engineConfig()
		cfg.Automation.MaxNotificationsPerInstallment = 1
		alert := engineAlert(t, 1)
		alert.RecordNotification(businessDay)

		outcomes := engine.ProcessAlert(context.Background(), alert, notifyTier(t), cfg, businessDay)

		require.Len(t, outcomes, 1)
		assert.True(t, outcomes[0].Skipped)
		m.notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("global daily cap exhausted", func(t *testing.T) {
		engine, m := newTestEngine(t)
		cfg := engineConfig()
		cfg.Automation.MaxDailyNotifications = 100
		m.limiter.On("Allow", mock.Anything, businessDay, 100).Return(false, nil)

		outcomes := engine.ProcessAlert(context.Background(), engineAlert(t, 1), notifyTier(t), cfg, businessDay)

		require.Len(t, outcomes, 1)
		assert.True(t, outcomes[0].Skipped)
		m.notifier.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		m.limiter.AssertExpectations(t)
	})

	t.Run("limiter failure is a failure, not a skip", func(t *testing.T) {
		engine, m := newTestEngine(t)
		cfg := engineConfig()
		cfg.Automation.MaxDailyNotifications = 100
		m.limiter.On("Allow", mock.Anything, businessDay, 100).Return(false, errors.New("redis down"))

		outcomes := engine.ProcessAlert(context.Background(), engineAlert(t, 1), notifyTier(t), cfg, businessDay)

		require.Len(t, outcomes, 1)
		assert.False(t, outcomes[0].Success)
		assert.False(t, outcomes[0].Skipped)
	})

	t.Run("delivery failure", func(t *testing.T) {
		engine, m := newTestEngine(t)
		alert := engineAlert(t, 1)
		m.notifier.On("Send", mock.Anything, alert.CustomerID, collections.ChannelEmail, "reminder", mock.Anything).Return(errors.New("gateway timeout"))

		outcomes := engine.ProcessAlert(context.Background(), alert, notifyTier(t), engineConfig(), businessDay)

		require.Len(t, outcomes, 1)
		assert.False(t, outcomes[0].Success)
		assert.Equal(t, 0, alert.NotificationsSentOn(businessDay))
	})

	t.Run("lost counter write still counts as sent", func(t *testing.T) {
		engine, m := newTestEngine(t)
		alert := engineAlert(t, 1)
		m.notifier.On("Send", mock.Anything, alert.CustomerID, collections.ChannelEmail, "reminder", mock.Anything).Return(nil)
		m.alerts.On("SaveWithLock", mock.Anything, alert).Return(shared.ErrConcurrencyConflict)

		outcomes := engine.ProcessAlert(context.Background(), alert, notifyTier(t), engineConfig(), businessDay)

		require.Len(t, outcomes, 1)
		assert.True(t, outcomes[0].Success)
		assert.Contains(t, outcomes[0].Description, "counter not persisted")
	})
}

func TestProcessAlertEscalate(t *testing.T) {
	tiers := func(t *testing.T) []collections.CollectionTier {
		return []collections.CollectionTier{
			engineTier(t, 1, endDay(7), collections.TierActions{
				{Type: collections.ActionEscalatePriority, DayOffset: 0},
			}),
		}
	}

	t.Run("raises severity and persists", func(t *testing.T) {
		engine, m := newTestEngine(t)
		alert := engineAlert(t, 1)
		m.alerts.On("SaveWithLock", mock.Anything, alert).Return(nil)

		outcomes := engine.ProcessAlert(context.Background(), alert, tiers(t), engineConfig(), businessDay)

		require.Len(t, outcomes, 1)
		assert.True(t, outcomes[0].Success)
		assert.Equal(t, arrears.SeverityHigh, alert.Severity)
		m.alerts.AssertExpectations(t)
	})

	t.Run("version conflict fails the action", func(t *testing.T) {
		engine, m := newTestEngine(t)
		alert := engineAlert(t, 1)
		m.alerts.On("SaveWithLock", mock.Anything, alert).Return(shared.ErrConcurrencyConflict)

		outcomes := engine.ProcessAlert(context.Background(), alert, tiers(t), engineConfig(), businessDay)

		require.Len(t, outcomes, 1)
		assert.False(t, outcomes[0].Success)
		assert.False(t, outcomes[0].Skipped)
	})
}

func TestProcessAlertMarkInstallmentOverdue(t *testing.T) {
	tiers := func(t *testing.T) []collections.CollectionTier {
		return []collections.CollectionTier{
			engineTier(t, 1, endDay(7), collections.TierActions{
				{Type: collections.ActionChangeInstallmentStatus, DayOffset: 0},
			}),
		}
	}

	newInstallment := func(t *testing.T) *credit.Installment {
		t.Helper()
		installment, err := credit.NewInstallment(
			uuid.New(), uuid.New(), 1,
			valueobject.NewMoneyPENFromFloat(1000),
			valueobject.NewMoneyPENFromFloat(200),
			time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		)
		require.NoError(t, err)
		return installment
	}

	t.Run("marks pending installment overdue", func(t *testing.T) {
		engine, m := newTestEngine(t)
		alert := engineAlert(t, 1)
		installment := newInstallment(t)
		m.installments.On("FindByID", mock.Anything, alert.InstallmentID).Return(installment, nil)
		m.installments.On("SaveWithLock", mock.Anything, installment).Return(nil)

		outcomes := engine.ProcessAlert(context.Background(), alert, tiers(t), engineConfig(), businessDay)

		require.Len(t, outcomes, 1)
		assert.True(t, outcomes[0].Success)
		assert.Equal(t, credit.InstallmentStatusOverdue, installment.Status)
		m.installments.AssertExpectations(t)
	})

	t.Run("already overdue is a success without a write", func(t *testing.T) {
		engine, m := newTestEngine(t)
		alert := engineAlert(t, 1)
		installment := newInstallment(t)
		require.NoError(t, installment.MarkOverdue())
		m.installments.On("FindByID", mock.Anything, alert.InstallmentID).Return(installment, nil)

		outcomes := engine.ProcessAlert(context.Background(), alert, tiers(t), engineConfig(), businessDay)

		require.Len(t, outcomes, 1)
		assert.True(t, outcomes[0].Success)
		m.installments.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("missing installment fails the action", func(t *testing.T) {
		engine, m := newTestEngine(t)
		alert := engineAlert(t, 1)
		m.installments.On("FindByID", mock.Anything, alert.InstallmentID).Return(nil, shared.ErrNotFound)

		outcomes := engine.ProcessAlert(context.Background(), alert, tiers(t), engineConfig(), businessDay)

		require.Len(t, outcomes, 1)
		assert.False(t, outcomes[0].Success)
	})
}

func TestProcessAlertBlockClient(t *testing.T) {
	t.Run("applies the configured block", func(t *testing.T) {
		engine, m := newTestEngine(t)
		alert := engineAlert(t, 1)
		tiers := []collections.CollectionTier{
			engineTier(t, 1, endDay(7), collections.TierActions{
				{Type: collections.ActionBlockClient, DayOffset: 0, BlockType: collections.BlockNewCreditOnly},
			}),
		}
		m.blocker.On("Block", mock.Anything, alert.CustomerID, collections.BlockNewCreditOnly).Return(nil)

		outcomes := engine.ProcessAlert(context.Background(), alert, tiers, engineConfig(), businessDay)

		require.Len(t, outcomes, 1)
		assert.True(t, outcomes[0].Success)
		m.blocker.AssertExpectations(t)
	})

	t.Run("invalid block type fails without calling the service", func(t *testing.T) {
		engine, m := newTestEngine(t)
		tiers := []collections.CollectionTier{
			engineTier(t, 1, endDay(7), collections.TierActions{
				{Type: collections.ActionBlockClient, DayOffset: 0},
			}),
		}

		outcomes := engine.ProcessAlert(context.Background(), engineAlert(t, 1), tiers, engineConfig(), businessDay)

		require.Len(t, outcomes, 1)
		assert.False(t, outcomes[0].Success)
		m.blocker.AssertNotCalled(t, "Block", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestProcessAlertRecordNote(t *testing.T) {
	t.Run("uses the tier note when present", func(t *testing.T) {
		engine, m := newTestEngine(t)
		tiers := []collections.CollectionTier{
			engineTier(t, 1, endDay(7), collections.TierActions{
				{Type: collections.ActionRecordNote, DayOffset: 0, Note: "segunda visita programada"},
			}),
		}
		var captured *collections.ContactRecord
		m.contacts.On("Append", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			captured = args.Get(1).(*collections.ContactRecord)
		}).Return(nil)

		outcomes := engine.ProcessAlert(context.Background(), engineAlert(t, 1), tiers, engineConfig(), businessDay)

		require.Len(t, outcomes, 1)
		assert.True(t, outcomes[0].Success)
		require.NotNil(t, captured)
		assert.Equal(t, "segunda visita programada", captured.Notes)
		assert.Equal(t, collections.ContactInternalNote, captured.Type)
	})

	t.Run("builds a default note from the tier", func(t *testing.T) {
		engine, m := newTestEngine(t)
		tiers := []collections.CollectionTier{
			engineTier(t, 1, endDay(7), collections.TierActions{
				{Type: collections.ActionRecordNote, DayOffset: 0},
			}),
		}
		var captured *collections.ContactRecord
		m.contacts.On("Append", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			captured = args.Get(1).(*collections.ContactRecord)
		}).Return(nil)

		outcomes := engine.ProcessAlert(context.Background(), engineAlert(t, 1), tiers, engineConfig(), businessDay)

		require.Len(t, outcomes, 1)
		assert.True(t, outcomes[0].Success)
		require.NotNil(t, captured)
		assert.Contains(t, captured.Notes, "Preventivo")
	})
}

func TestProcessAlertAssignManager(t *testing.T) {
	t.Run("assigns the configured manager", func(t *testing.T) {
		engine, m := newTestEngine(t)
		manager := uuid.New()
		alert := engineAlert(t, 1)
		tiers := []collections.CollectionTier{
			engineTier(t, 1, endDay(7), collections.TierActions{
				{Type: collections.ActionAssignManager, DayOffset: 0, ManagerID: manager.String()},
			}),
		}
		m.alerts.On("SaveWithLock", mock.Anything, alert).Return(nil)

		outcomes := engine.ProcessAlert(context.Background(), alert, tiers, engineConfig(), businessDay)

		require.Len(t, outcomes, 1)
		assert.True(t, outcomes[0].Success)
		require.NotNil(t, alert.AssignedManagerID)
		assert.Equal(t, manager, *alert.AssignedManagerID)
	})

	t.Run("garbage manager id fails the action", func(t *testing.T) {
		engine, m := newTestEngine(t)
		tiers := []collections.CollectionTier{
			engineTier(t, 1, endDay(7), collections.TierActions{
				{Type: collections.ActionAssignManager, DayOffset: 0, ManagerID: "not-a-uuid"},
			}),
		}

		outcomes := engine.ProcessAlert(context.Background(), engineAlert(t, 1), tiers, engineConfig(), businessDay)

		require.Len(t, outcomes, 1)
		assert.False(t, outcomes[0].Success)
		m.alerts.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})
}

func TestProcessAlertMarkPromiseBroken(t *testing.T) {
	tiers := func(t *testing.T) []collections.CollectionTier {
		return []collections.CollectionTier{
			engineTier(t, 1, endDay(7), collections.TierActions{
				{Type: collections.ActionMarkPromiseBroken, DayOffset: 0},
			}),
		}
	}

	t.Run("expires the active promise and records a note", func(t *testing.T) {
		engine, m := newTestEngine(t)
		alert := engineAlert(t, 1)
		promise, err := collections.NewPaymentPromise(alert.ID, alert.CustomerID, businessDay.AddDate(0, 0, -3), decimal.NewFromInt(300), 0)
		require.NoError(t, err)
		m.promises.On("FindActiveByAlert", mock.Anything, alert.ID).Return(promise, nil)
		m.promises.On("SaveWithLock", mock.Anything, promise).Return(nil)
		m.contacts.On("Append", mock.Anything, mock.Anything).Return(nil)

		outcomes := engine.ProcessAlert(context.Background(), alert, tiers(t), engineConfig(), businessDay)

		require.Len(t, outcomes, 1)
		assert.True(t, outcomes[0].Success)
		assert.Equal(t, collections.PromiseStatusExpired, promise.Status)
		m.promises.AssertExpectations(t)
		m.contacts.AssertExpectations(t)
	})

	t.Run("no active promise is a skip", func(t *testing.T) {
		engine, m := newTestEngine(t)
		alert := engineAlert(t, 1)
		m.promises.On("FindActiveByAlert", mock.Anything, alert.ID).Return(nil, shared.ErrNotFound)

		outcomes := engine.ProcessAlert(context.Background(), alert, tiers(t), engineConfig(), businessDay)

		require.Len(t, outcomes, 1)
		assert.True(t, outcomes[0].Skipped)
		assert.False(t, outcomes[0].Success)
	})

	t.Run("version conflict fails the action", func(t *testing.T) {
		engine, m := newTestEngine(t)
		alert := engineAlert(t, 1)
		promise, err := collections.NewPaymentPromise(alert.ID, alert.CustomerID, businessDay.AddDate(0, 0, -3), decimal.NewFromInt(300), 0)
		require.NoError(t, err)
		m.promises.On("FindActiveByAlert", mock.Anything, alert.ID).Return(promise, nil)
		m.promises.On("SaveWithLock", mock.Anything, promise).Return(shared.ErrConcurrencyConflict)

		outcomes := engine.ProcessAlert(context.Background(), alert, tiers(t), engineConfig(), businessDay)

		require.Len(t, outcomes, 1)
		assert.False(t, outcomes[0].Success)
		assert.False(t, outcomes[0].Skipped)
	})
}

// =============================================================================
// ProcessBatch
// =============================================================================

func TestProcessBatch(t *testing.T) {
	t.Run("aggregates outcomes across alerts", func(t *testing.T) {
		engine, m := newTestEngine(t)
		tier := engineTier(t, 1, endDay(7), collections.TierActions{
			{Type: collections.ActionRecordNote, DayOffset: 2},
			{Type: collections.ActionBlockClient, DayOffset: 0}, // no block type, fails
		})
		noted := engineAlert(t, 3)  // day 2 in tier: record note
		blocked := engineAlert(t, 1) // day 0 in tier: invalid block

		m.configs.On("Current", mock.Anything).Return(engineConfig(), nil)
		m.tiers.On("FindEnabled", mock.Anything).Return([]collections.CollectionTier{tier}, nil)
		m.alerts.On("FindOpen", mock.Anything).Return([]collections.CollectionAlert{*noted, *blocked}, nil)
		m.contacts.On("Append", mock.Anything, mock.Anything).Return(nil)

		summary, err := engine.ProcessBatch(context.Background(), businessDay)

		require.NoError(t, err)
		assert.Equal(t, 2, summary.Processed)
		assert.Equal(t, 1, summary.Failures)
		assert.Equal(t, 0, summary.NotificationsSent)
		m.blocker.AssertNotCalled(t, "Block", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("counts successful notifications and escalations", func(t *testing.T) {
		engine, m := newTestEngine(t)
		tier := engineTier(t, 1, endDay(7), collections.TierActions{
			{Type: collections.ActionSendNotification, DayOffset: 0, Channel: collections.ChannelWhatsApp},
			{Type: collections.ActionEscalatePriority, DayOffset: 0},
		})
		alert := engineAlert(t, 1)

		m.configs.On("Current", mock.Anything).Return(engineConfig(), nil)
		m.tiers.On("FindEnabled", mock.Anything).Return([]collections.CollectionTier{tier}, nil)
		m.alerts.On("FindOpen", mock.Anything).Return([]collections.CollectionAlert{*alert}, nil)
		m.notifier.On("Send", mock.Anything, alert.CustomerID, collections.ChannelWhatsApp, "", mock.Anything).Return(nil)
		m.alerts.On("SaveWithLock", mock.Anything, mock.Anything).Return(nil)

		summary, err := engine.ProcessBatch(context.Background(), businessDay)

		require.NoError(t, err)
		assert.Equal(t, 1, summary.Processed)
		assert.Equal(t, 1, summary.NotificationsSent)
		assert.Equal(t, 1, summary.Escalated)
		assert.Equal(t, 0, summary.Failures)
	})

	t.Run("propagates config lookup failure", func(t *testing.T) {
		engine, m := newTestEngine(t)
		m.configs.On("Current", mock.Anything).Return(nil, errors.New("db down"))

		summary, err := engine.ProcessBatch(context.Background(), businessDay)

		assert.Error(t, err)
		assert.Nil(t, summary)
	})

	t.Run("empty batch finishes clean", func(t *testing.T) {
		engine, m := newTestEngine(t)
		m.configs.On("Current", mock.Anything).Return(engineConfig(), nil)
		m.tiers.On("FindEnabled", mock.Anything).Return([]collections.CollectionTier{}, nil)
		m.alerts.On("FindOpen", mock.Anything).Return([]collections.CollectionAlert{}, nil)

		summary, err := engine.ProcessBatch(context.Background(), businessDay)

		require.NoError(t, err)
		assert.Equal(t, 0, summary.Processed)
	})
}

// =============================================================================
// Quiet hours
// =============================================================================

func TestInQuietHours(t *testing.T) {
	tests := []struct {
		name  string
		hour  int
		start int
		end   int
		want  bool
	}{
		{"disabled window", 3, 0, 0, false},
		{"inside simple window", 7, 6, 9, true},
		{"window end is exclusive", 9, 6, 9, false},
		{"outside simple window", 12, 6, 9, false},
		{"wrap: late evening", 23, 21, 8, true},
		{"wrap: early morning", 5, 21, 8, true},
		{"wrap: business hours", 12, 21, 8, false},
		{"wrap: end is exclusive", 8, 21, 8, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inQuietHours(tt.hour, tt.start, tt.end))
		})
	}
}
