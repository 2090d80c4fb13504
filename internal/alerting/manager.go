// Package alerting holds the active alert set. Alerts are derived from each
// reconciled snapshot and expire a fixed time after they were last seen;
// dismissal removes an alert until the next cycle re-derives it.
package alerting

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/tankwatch/internal/domain"
	"github.com/couchcryptid/tankwatch/internal/observability"
)

// DefaultTTL is how long an alert survives without being seen again.
const DefaultTTL = 45 * time.Second

// Manager owns the active alerts and one expiry timer per alert.
type Manager struct {
	clock   clockwork.Clock
	ttl     time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics

	mu     sync.Mutex
	active domain.Alerts
	timers map[string]expiry
}

type expiry struct {
	timer    clockwork.Timer
	deadline time.Time
}

// NewManager creates an empty alert set. A non-positive ttl selects DefaultTTL.
func NewManager(clock clockwork.Clock, ttl time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		clock:   clock,
		ttl:     ttl,
		logger:  logger,
		metrics: metrics,
		active:  domain.Alerts{},
		timers:  map[string]expiry{},
	}
}

// Apply merges the alerts implied by devices observed at now and returns the
// ones that were not already active. Re-seen alerts have their expiry pushed
// out to now+ttl.
func (m *Manager) Apply(devices domain.Devices, now time.Time) []domain.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	prior := m.active
	m.active = domain.DeriveAlerts(prior, devices, now)
	for id, a := range m.active {
		m.arm(id, a.LastSeen.Add(m.ttl))
	}

	// Alerts whose deadline had already passed were dropped by arm and are
	// never reported as raised.
	var raised []domain.Alert
	for id, a := range m.active {
		if _, had := prior[id]; !had {
			raised = append(raised, a)
		}
	}

	if len(raised) > 0 {
		m.metrics.AlertsRaised.Add(float64(len(raised)))
		for _, a := range raised {
			m.logger.Info("alert raised", "alert_id", a.ID, "status", a.Status, "message", a.Message)
		}
	}
	m.metrics.AlertsActive.Set(float64(len(m.active)))
	return raised
}

// arm schedules removal of id at deadline. An unchanged deadline keeps the
// running timer. Callers must hold m.mu.
func (m *Manager) arm(id string, deadline time.Time) {
	if e, ok := m.timers[id]; ok {
		if e.deadline.Equal(deadline) {
			return
		}
		e.timer.Stop()
		delete(m.timers, id)
	}

	remaining := deadline.Sub(m.clock.Now())
	if remaining <= 0 {
		delete(m.active, id)
		m.metrics.AlertsExpired.Inc()
		return
	}
	m.timers[id] = expiry{
		timer:    m.clock.AfterFunc(remaining, func() { m.expire(id, deadline) }),
		deadline: deadline,
	}
}

func (m *Manager) expire(id string, deadline time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// A refresh or dismissal may have replaced this timer after it fired.
	e, ok := m.timers[id]
	if !ok || !e.deadline.Equal(deadline) {
		return
	}
	delete(m.timers, id)
	delete(m.active, id)

	m.metrics.AlertsExpired.Inc()
	m.metrics.AlertsActive.Set(float64(len(m.active)))
	m.logger.Debug("alert expired", "alert_id", id)
}

// Dismiss removes an alert and cancels its timer. It reports whether the
// alert was active. A dismissed alert reappears if the next snapshot still
// shows its device in the same status.
func (m *Manager) Dismiss(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.active[id]; !ok {
		return false
	}
	if e, ok := m.timers[id]; ok {
		e.timer.Stop()
		delete(m.timers, id)
	}
	delete(m.active, id)

	m.metrics.AlertsDismissed.Inc()
	m.metrics.AlertsActive.Set(float64(len(m.active)))
	m.logger.Info("alert dismissed", "alert_id", id)
	return true
}

// List returns the active alerts, most recently seen first.
func (m *Manager) List() []domain.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.SortAlerts(m.active)
}

// Len returns the number of active alerts.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

// Close stops every pending expiry timer.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.timers {
		e.timer.Stop()
		delete(m.timers, id)
	}
}
