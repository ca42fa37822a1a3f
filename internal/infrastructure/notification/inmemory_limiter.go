package notification

import (
	"context"
	"sync"
	"time"
)

// InMemoryNotificationLimiter is a process-local limiter for single-instance
// deployments and tests
type InMemoryNotificationLimiter struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewInMemoryNotificationLimiter creates a new InMemoryNotificationLimiter
func NewInMemoryNotificationLimiter() *InMemoryNotificationLimiter {
	return &InMemoryNotificationLimiter{counts: make(map[string]int)}
}

// Allow reserves one slot of the daily global budget. Counters for other days
// are dropped so the map never outgrows the current day.
func (l *InMemoryNotificationLimiter) Allow(ctx context.Context, day time.Time, limit int) (bool, error) {
	key := day.Format("2006-01-02")

	l.mu.Lock()
	defer l.mu.Unlock()
	for stale := range l.counts {
		if stale != key {
			delete(l.counts, stale)
		}
	}
	l.counts[key]++
	return l.counts[key] <= limit, nil
}
