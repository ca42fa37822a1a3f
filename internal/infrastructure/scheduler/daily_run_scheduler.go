package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	appcollections "github.com/crediretail/backend/internal/application/collections"
	"go.uber.org/zap"
)

// cronTickerInterval is the interval at which the scheduler checks for execution
const cronTickerInterval = 1 * time.Minute

// ErrSchedulerNotRunning is returned when a trigger is requested while stopped
var ErrSchedulerNotRunning = fmt.Errorf("scheduler is not running")

// DailyRunSchedulerConfig holds configuration for the daily collections batch
type DailyRunSchedulerConfig struct {
	// Enabled indicates if the scheduler is enabled
	Enabled bool
	// CronHour is the hour (0-23) to run the daily batch
	CronHour int
	// CronMinute is the minute (0-59) to run the daily batch
	CronMinute int
	// JobTimeout is the maximum time one daily run can take
	JobTimeout time.Duration
}

// DefaultDailyRunSchedulerConfig returns defaults: 6:00 AM daily
func DefaultDailyRunSchedulerConfig() DailyRunSchedulerConfig {
	return DailyRunSchedulerConfig{
		Enabled:    true,
		CronHour:   6,
		CronMinute: 0,
		JobTimeout: 30 * time.Minute,
	}
}

// ParseCronSchedule parses a cron expression "minute hour * * *" to extract
// hour and minute. Returns defaults (6:00) if parsing fails or the
// expression is empty.
func ParseCronSchedule(cronExpr string) (hour, minute int, err error) {
	hour = 6
	minute = 0

	if cronExpr == "" {
		return hour, minute, nil
	}

	parts := strings.Fields(cronExpr)
	if len(parts) < 2 {
		return hour, minute, nil
	}

	if parts[0] != "*" {
		if val, parseErr := parseIntOrDefault(parts[0], 0); parseErr == nil {
			minute = val
		}
	}
	if parts[1] != "*" {
		if val, parseErr := parseIntOrDefault(parts[1], 6); parseErr == nil {
			hour = val
		}
	}

	if minute < 0 || minute > 59 {
		return 6, 0, fmt.Errorf("minute must be 0-59, got %d", minute)
	}
	if hour < 0 || hour > 23 {
		return 6, 0, fmt.Errorf("hour must be 0-23, got %d", hour)
	}

	return hour, minute, nil
}

// parseIntOrDefault parses an int string or returns default
func parseIntOrDefault(s string, defaultVal int) (int, error) {
	if s == "" || s == "*" {
		return defaultVal, nil
	}
	var val int
	for _, c := range s {
		if c < '0' || c > '9' {
			return defaultVal, fmt.Errorf("invalid cron field %q", s)
		}
		val = val*10 + int(c-'0')
	}
	return val, nil
}

// DailyRunScheduler triggers the collections daily run at the configured time
type DailyRunScheduler struct {
	config DailyRunSchedulerConfig
	runner *appcollections.DailyRunService
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	lastRunAt *time.Time
	nextRunAt *time.Time
}

// NewDailyRunScheduler creates a new DailyRunScheduler
func NewDailyRunScheduler(config DailyRunSchedulerConfig, runner *appcollections.DailyRunService, logger *zap.Logger) *DailyRunScheduler {
	return &DailyRunScheduler{
		config: config,
		runner: runner,
		logger: logger,
	}
}

// Start starts the scheduler loop
func (s *DailyRunScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.calculateNextRunTime()

	s.wg.Add(1)
	go s.cronLoop(ctx)

	s.logger.Info("Daily collections scheduler started",
		zap.Int("cron_hour", s.config.CronHour),
		zap.Int("cron_minute", s.config.CronMinute),
		zap.Timep("next_run_at", s.nextRunAt),
	)

	return nil
}

// Stop stops the scheduler
func (s *DailyRunScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Daily collections scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Daily collections scheduler stop timed out")
		return ctx.Err()
	}
}

// cronLoop runs the main cron loop
func (s *DailyRunScheduler) cronLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(cronTickerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if s.shouldRun(now) {
				s.runDailyBatch(ctx)
				s.calculateNextRunTime()
			}
		}
	}
}

// shouldRun checks if the batch should run at the given time
func (s *DailyRunScheduler) shouldRun(now time.Time) bool {
	return now.Hour() == s.config.CronHour && now.Minute() == s.config.CronMinute
}

// calculateNextRunTime calculates the next run time
func (s *DailyRunScheduler) calculateNextRunTime() {
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.config.CronHour, s.config.CronMinute, 0, 0, now.Location())
	if now.After(next) {
		next = next.AddDate(0, 0, 1)
	}

	s.mu.Lock()
	s.nextRunAt = &next
	s.mu.Unlock()
}

// runDailyBatch executes one daily collections run under the job timeout
func (s *DailyRunScheduler) runDailyBatch(ctx context.Context) {
	now := time.Now()
	s.mu.Lock()
	s.lastRunAt = &now
	s.mu.Unlock()

	runCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	report, err := s.runner.Run(runCtx, now)
	if err != nil {
		s.logger.Error("Daily collections run failed", zap.Error(err))
		return
	}
	s.logger.Info("Daily collections run completed",
		zap.Int("overdue", report.OverdueCount),
		zap.Int("alerts_created", report.AlertsCreated),
		zap.Int("alerts_resolved", report.AlertsResolved),
	)
}

// TriggerManualRun triggers an immediate run in the background.
// Uses a background context so the run survives the originating HTTP request.
func (s *DailyRunScheduler) TriggerManualRun(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	go s.runDailyBatch(context.Background())
	return nil
}

// GetStatus returns the current status of the scheduler
func (s *DailyRunScheduler) GetStatus() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	return map[string]any{
		"enabled":     s.config.Enabled,
		"is_running":  s.isRunning,
		"cron_hour":   s.config.CronHour,
		"cron_minute": s.config.CronMinute,
		"last_run_at": s.lastRunAt,
		"next_run_at": s.nextRunAt,
	}
}
