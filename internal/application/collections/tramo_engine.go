package collections

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/crediretail/backend/internal/domain/arrears"
	"github.com/crediretail/backend/internal/domain/collections"
	"github.com/crediretail/backend/internal/domain/credit"
	"github.com/crediretail/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// defaultAlertWorkers bounds how many alerts are processed concurrently.
// Each alert mutates only entities isolated by its own version tokens, so
// cross-alert ordering is not guaranteed.
const defaultAlertWorkers = 4

// ActionOutcome records the result of one executed tier action
type ActionOutcome struct {
	Action      collections.ActionType `json:"action"`
	Success     bool                   `json:"success"`
	Skipped     bool                   `json:"skipped"`
	Description string                 `json:"description"`
}

// BatchSummary aggregates one tramo-engine run
type BatchSummary struct {
	Processed         int `json:"processed"`
	Escalated         int `json:"escalated"`
	NotificationsSent int `json:"notifications_sent"`
	PromisesExpired   int `json:"promises_expired"`
	ClientsBlocked    int `json:"clients_blocked"`
	Failures          int `json:"failures"`
}

// TramoEngine evaluates open alerts against the configured day-band tiers
// and executes the matching automation
type TramoEngine struct {
	alerts       collections.AlertRepository
	installments credit.InstallmentRepository
	promises     collections.PromiseRepository
	contacts     collections.ContactRecordRepository
	tiers        collections.TierRepository
	configs      arrears.ConfigProvider
	notifier     NotificationSender
	blocker      ClientBlockingService
	limiter      NotificationLimiter
	logger       *zap.Logger
	workers      int
}

// NewTramoEngine creates a new TramoEngine
func NewTramoEngine(
	alerts collections.AlertRepository,
	installments credit.InstallmentRepository,
	promises collections.PromiseRepository,
	contacts collections.ContactRecordRepository,
	tiers collections.TierRepository,
	configs arrears.ConfigProvider,
	notifier NotificationSender,
	blocker ClientBlockingService,
	limiter NotificationLimiter,
	logger *zap.Logger,
) *TramoEngine {
	return &TramoEngine{
		alerts:       alerts,
		installments: installments,
		promises:     promises,
		contacts:     contacts,
		tiers:        tiers,
		configs:      configs,
		notifier:     notifier,
		blocker:      blocker,
		limiter:      limiter,
		logger:       logger,
		workers:      defaultAlertWorkers,
	}
}

// ProcessBatch runs the tier automation over every open alert. Alerts are
// processed concurrently and in isolation: one failing alert never stops the
// rest, its failure is counted into the summary instead.
func (e *TramoEngine) ProcessBatch(ctx context.Context, today time.Time) (*BatchSummary, error) {
	cfg, err := e.configs.Current(ctx)
	if err != nil {
		return nil, err
	}
	tiers, err := e.tiers.FindEnabled(ctx)
	if err != nil {
		return nil, err
	}
	alerts, err := e.alerts.FindOpen(ctx)
	if err != nil {
		return nil, err
	}

	summary := &BatchSummary{}
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, e.workers)

	for i := range alerts {
		select {
		case <-ctx.Done():
			// stop before the next alert; work in flight finishes
			wg.Wait()
			return summary, ctx.Err()
		default:
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(alert collections.CollectionAlert) {
			defer wg.Done()
			defer func() { <-sem }()

			outcomes := e.ProcessAlert(ctx, &alert, tiers, cfg, today)

			mu.Lock()
			defer mu.Unlock()
			summary.Processed++
			for _, o := range outcomes {
				if !o.Success && !o.Skipped {
					summary.Failures++
					continue
				}
				if !o.Success {
					continue
				}
				switch o.Action {
				case collections.ActionEscalatePriority:
					summary.Escalated++
				case collections.ActionSendNotification:
					summary.NotificationsSent++
				case collections.ActionMarkPromiseBroken:
					summary.PromisesExpired++
				case collections.ActionBlockClient:
					summary.ClientsBlocked++
				}
			}
		}(alerts[i])
	}
	wg.Wait()

	e.logger.Info("tramo batch finished",
		zap.Int("processed", summary.Processed),
		zap.Int("escalated", summary.Escalated),
		zap.Int("notifications_sent", summary.NotificationsSent),
		zap.Int("promises_expired", summary.PromisesExpired),
		zap.Int("clients_blocked", summary.ClientsBlocked),
		zap.Int("failures", summary.Failures),
	)
	return summary, nil
}

// ProcessAlert selects the first tier containing the alert's overdue days
// and executes its actions in declaration order. A failing action is recorded
// and the remaining actions still run.
func (e *TramoEngine) ProcessAlert(ctx context.Context, alert *collections.CollectionAlert, tiers []collections.CollectionTier, cfg *arrears.Config, today time.Time) []ActionOutcome {
	tier := collections.SelectTier(tiers, alert.DaysOverdue)
	if tier == nil {
		return nil
	}

	outcomes := make([]ActionOutcome, 0, len(tier.Actions))
	for _, action := range tier.Actions {
		// actions fire on the exact day they are scheduled within the tier;
		// the batch is assumed to run daily
		if tier.DaysIntoTier(alert.DaysOverdue) != action.DayOffset {
			continue
		}
		outcome := e.execute(ctx, alert, tier, action, cfg, today)
		outcomes = append(outcomes, outcome)
		if !outcome.Success && !outcome.Skipped {
			e.logger.Warn("tier action failed",
				zap.String("alert_id", alert.ID.String()),
				zap.String("tier", tier.Name),
				zap.String("action", string(action.Type)),
				zap.String("description", outcome.Description),
			)
		}
	}
	return outcomes
}

func (e *TramoEngine) execute(ctx context.Context, alert *collections.CollectionAlert, tier *collections.CollectionTier, action collections.TierAction, cfg *arrears.Config, today time.Time) ActionOutcome {
	switch action.Type {
	case collections.ActionGenerateAlert:
		return e.generateAlert(alert)
	case collections.ActionSendNotification:
		return e.sendNotification(ctx, alert, action, cfg, today)
	case collections.ActionEscalatePriority:
		return e.escalate(ctx, alert)
	case collections.ActionChangeInstallmentStatus:
		return e.markInstallmentOverdue(ctx, alert)
	case collections.ActionBlockClient:
		return e.blockClient(ctx, alert, action)
	case collections.ActionRecordNote:
		return e.recordNote(ctx, alert, tier, action)
	case collections.ActionAssignManager:
		return e.assignManager(ctx, alert, action)
	case collections.ActionMarkPromiseBroken:
		return e.markPromiseBroken(ctx, alert)
	}
	return ActionOutcome{
		Action:      action.Type,
		Description: "unknown action type",
	}
}

// generateAlert is satisfied by construction: the classification step of the
// daily run already created or refreshed the alert being processed.
func (e *TramoEngine) generateAlert(alert *collections.CollectionAlert) ActionOutcome {
	return ActionOutcome{
		Action:      collections.ActionGenerateAlert,
		Success:     true,
		Description: fmt.Sprintf("alert active with severity %s", alert.Severity),
	}
}

func (e *TramoEngine) sendNotification(ctx context.Context, alert *collections.CollectionAlert, action collections.TierAction, cfg *arrears.Config, today time.Time) ActionOutcome {
	out := ActionOutcome{Action: collections.ActionSendNotification}

	if cfg.Automation.SuppressWeekends && isWeekend(today) {
		out.Skipped = true
		out.Description = "suppressed: weekend"
		return out
	}
	if inQuietHours(today.Hour(), cfg.Automation.QuietHoursStart, cfg.Automation.QuietHoursEnd) {
		out.Skipped = true
		out.Description = "suppressed: quiet hours"
		return out
	}
	if max := cfg.Automation.MaxNotificationsPerInstallment; max > 0 && alert.NotificationsSentOn(today) >= max {
		out.Skipped = true
		out.Description = "skipped: per-installment cap exhausted"
		return out
	}
	if max := cfg.Automation.MaxDailyNotifications; max > 0 {
		allowed, err := e.limiter.Allow(ctx, today, max)
		if err != nil {
			out.Description = fmt.Sprintf("limiter error: %v", err)
			return out
		}
		if !allowed {
			out.Skipped = true
			out.Description = "skipped: daily cap exhausted"
			return out
		}
	}

	channel := action.Channel
	if channel == "" {
		channel = collections.ChannelWhatsApp
	}
	payload := map[string]string{
		"days_overdue": fmt.Sprintf("%d", alert.DaysOverdue),
		"amount":       alert.Amount.StringFixed(2),
		"severity":     string(alert.Severity),
	}
	if err := e.notifier.Send(ctx, alert.CustomerID, channel, action.Template, payload); err != nil {
		out.Description = fmt.Sprintf("send failed: %v", err)
		return out
	}

	alert.RecordNotification(today)
	if err := e.alerts.SaveWithLock(ctx, alert); err != nil {
		// the notification went out; only the counter write lost the race
		out.Success = true
		out.Description = fmt.Sprintf("sent, counter not persisted: %v", err)
		return out
	}
	out.Success = true
	out.Description = fmt.Sprintf("sent via %s", channel)
	return out
}

func (e *TramoEngine) escalate(ctx context.Context, alert *collections.CollectionAlert) ActionOutcome {
	out := ActionOutcome{Action: collections.ActionEscalatePriority}
	if err := alert.Escalate(); err != nil {
		out.Description = err.Error()
		return out
	}
	if err := e.alerts.SaveWithLock(ctx, alert); err != nil {
		out.Description = err.Error()
		return out
	}
	out.Success = true
	out.Description = fmt.Sprintf("severity raised to %s", alert.Severity)
	return out
}

func (e *TramoEngine) markInstallmentOverdue(ctx context.Context, alert *collections.CollectionAlert) ActionOutcome {
	out := ActionOutcome{Action: collections.ActionChangeInstallmentStatus}
	installment, err := e.installments.FindByID(ctx, alert.InstallmentID)
	if err != nil {
		out.Description = err.Error()
		return out
	}
	if installment.Status == credit.InstallmentStatusOverdue {
		out.Success = true
		out.Description = "installment already overdue"
		return out
	}
	if err := installment.MarkOverdue(); err != nil {
		out.Description = err.Error()
		return out
	}
	if err := e.installments.SaveWithLock(ctx, installment); err != nil {
		out.Description = err.Error()
		return out
	}
	out.Success = true
	out.Description = "installment marked overdue"
	return out
}

func (e *TramoEngine) blockClient(ctx context.Context, alert *collections.CollectionAlert, action collections.TierAction) ActionOutcome {
	out := ActionOutcome{Action: collections.ActionBlockClient}
	blockType := action.BlockType
	if !blockType.IsValid() {
		out.Description = "tier action has no valid block type"
		return out
	}
	if err := e.blocker.Block(ctx, alert.CustomerID, blockType); err != nil {
		out.Description = err.Error()
		return out
	}
	out.Success = true
	out.Description = fmt.Sprintf("client blocked: %s", blockType)
	return out
}

func (e *TramoEngine) recordNote(ctx context.Context, alert *collections.CollectionAlert, tier *collections.CollectionTier, action collections.TierAction) ActionOutcome {
	out := ActionOutcome{Action: collections.ActionRecordNote}
	note := action.Note
	if note == "" {
		note = fmt.Sprintf("automatic note: alert in tier %q, %d days overdue", tier.Name, alert.DaysOverdue)
	}
	record, err := collections.NewAutomaticNote(alert.ID, alert.CustomerID, note)
	if err != nil {
		out.Description = err.Error()
		return out
	}
	if err := e.contacts.Append(ctx, record); err != nil {
		out.Description = err.Error()
		return out
	}
	out.Success = true
	out.Description = "note recorded"
	return out
}

func (e *TramoEngine) assignManager(ctx context.Context, alert *collections.CollectionAlert, action collections.TierAction) ActionOutcome {
	out := ActionOutcome{Action: collections.ActionAssignManager}
	managerID, err := uuid.Parse(action.ManagerID)
	if err != nil {
		out.Description = "tier action has no valid manager id"
		return out
	}
	if err := alert.AssignManager(managerID); err != nil {
		out.Description = err.Error()
		return out
	}
	if err := e.alerts.SaveWithLock(ctx, alert); err != nil {
		out.Description = err.Error()
		return out
	}
	out.Success = true
	out.Description = fmt.Sprintf("manager %s assigned", managerID)
	return out
}

func (e *TramoEngine) markPromiseBroken(ctx context.Context, alert *collections.CollectionAlert) ActionOutcome {
	out := ActionOutcome{Action: collections.ActionMarkPromiseBroken}
	promise, err := e.promises.FindActiveByAlert(ctx, alert.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			out.Skipped = true
			out.Description = "no active promise"
			return out
		}
		out.Description = err.Error()
		return out
	}
	if err := promise.Expire(); err != nil {
		out.Description = err.Error()
		return out
	}
	if err := e.promises.SaveWithLock(ctx, promise); err != nil {
		out.Description = err.Error()
		return out
	}
	if record, noteErr := collections.NewAutomaticNote(alert.ID, alert.CustomerID, "payment promise marked broken"); noteErr == nil {
		if err := e.contacts.Append(ctx, record); err != nil {
			e.logger.Warn("failed to append broken-promise note", zap.Error(err))
		}
	}
	out.Success = true
	out.Description = "active promise expired"
	return out
}

// inQuietHours reports whether the given hour falls inside the configured
// do-not-disturb window. The window may wrap midnight; start == end means no
// quiet hours.
func inQuietHours(hour, start, end int) bool {
	if start == end {
		return false
	}
	if start < end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}

func isWeekend(t time.Time) bool {
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}
