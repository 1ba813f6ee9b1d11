package navigation

import (
	"sync"
	"time"

	"github.com/ngmaloney/marine-navigator/internal/models"
)

const (
	DefaultAlertLogSize = 5
	DefaultAlertTTL     = 5 * time.Second
)

// AlertLog keeps the most recent alerts for display. An alert identical to
// one already shown is dropped, and auto-close alerts expire after the TTL.
type AlertLog struct {
	mu     sync.Mutex
	max    int
	ttl    time.Duration
	now    func() time.Time
	alerts []models.NavigationAlert
}

// NewAlertLog creates a log holding at most size alerts. Zero values select
// the defaults.
func NewAlertLog(size int, ttl time.Duration, now func() time.Time) *AlertLog {
	if size <= 0 {
		size = DefaultAlertLogSize
	}
	if ttl <= 0 {
		ttl = DefaultAlertTTL
	}
	if now == nil {
		now = time.Now
	}
	return &AlertLog{max: size, ttl: ttl, now: now}
}

// Add records a and reports whether it was new.
func (l *AlertLog) Add(a models.NavigationAlert) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.expire()
	for _, existing := range l.alerts {
		if existing.SameAs(a) {
			return false
		}
	}
	l.alerts = append(l.alerts, a)
	if len(l.alerts) > l.max {
		l.alerts = l.alerts[len(l.alerts)-l.max:]
	}
	return true
}

// Alerts returns the live alerts, oldest first.
func (l *AlertLog) Alerts() []models.NavigationAlert {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.expire()
	return append([]models.NavigationAlert(nil), l.alerts...)
}

// Clear removes every alert.
func (l *AlertLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.alerts = nil
}

func (l *AlertLog) expire() {
	now := l.now()
	kept := l.alerts[:0]
	for _, a := range l.alerts {
		if !a.IsExpired(now, l.ttl) {
			kept = append(kept, a)
		}
	}
	l.alerts = kept
}
