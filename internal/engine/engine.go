package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/tankwatch/internal/alerting"
	"github.com/couchcryptid/tankwatch/internal/domain"
	"github.com/couchcryptid/tankwatch/internal/observability"
)

// Publisher forwards tank events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, events []domain.TankEvent) error
}

// State is one reconciled view of the fleet. A State and the maps it holds
// are never modified after the engine publishes them.
type State struct {
	Devices   domain.Devices
	Weather   domain.Weather
	UpdatedAt time.Time
}

// Options configures an Engine. Alerts and Publisher are optional.
type Options struct {
	// Name identifies the view in logs and metric labels, e.g. "dashboard".
	Name      string
	Reconcile domain.ReconcileOptions
	Alerts    *alerting.Manager
	Publisher Publisher
}

// Engine owns the reconciled state of one view. Snapshots are applied one at
// a time and each result is swapped in atomically, so readers always see a
// complete cycle.
type Engine struct {
	name      string
	clock     clockwork.Clock
	opts      domain.ReconcileOptions
	alerts    *alerting.Manager
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics

	applyMu sync.Mutex
	state   atomic.Pointer[State]
	ready   atomic.Bool
}

// New creates an Engine with empty state.
func New(clock clockwork.Clock, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Engine {
	e := &Engine{
		name:      opts.Name,
		clock:     clock,
		opts:      opts.Reconcile,
		alerts:    opts.Alerts,
		publisher: opts.Publisher,
		logger:    logger.With("view", opts.Name),
		metrics:   metrics,
	}
	e.state.Store(&State{Devices: domain.Devices{}})
	return e
}

// Name returns the view name.
func (e *Engine) Name() string { return e.name }

// CheckReadiness returns nil once at least one snapshot has been applied.
func (e *Engine) CheckReadiness(_ context.Context) error {
	if !e.ready.Load() {
		return errors.New("no snapshot reconciled yet")
	}
	return nil
}

// State returns the latest reconciled state.
func (e *Engine) State() State {
	return *e.state.Load()
}

// Apply reconciles snap into the current state, derives alerts and publishes
// events for the cycle. It returns the new state.
func (e *Engine) Apply(ctx context.Context, snap domain.Snapshot) State {
	e.applyMu.Lock()
	defer e.applyMu.Unlock()

	now := e.clock.Now()
	prev := e.state.Load()
	devices, transitions := domain.ReconcileAt(prev.Devices, snap, now, e.opts)

	var raised []domain.Alert
	if e.alerts != nil {
		raised = e.alerts.Apply(devices, now)
	}

	// Alerts are settled before the state is swapped, so a reader that sees
	// this cycle's devices also sees the alerts they imply.
	next := &State{Devices: devices, Weather: snap.Weather, UpdatedAt: now}
	e.state.Store(next)
	e.ready.Store(true)

	e.metrics.DevicesTracked.WithLabelValues(e.name).Set(float64(len(devices)))
	e.metrics.HistoryAppended.Add(float64(len(transitions)))
	for _, t := range transitions {
		e.logger.Debug("device transition",
			"device_id", t.DeviceID,
			"from_status", t.Previous.Status,
			"to_status", t.Current.Status,
			"level", t.Current.Level,
		)
	}

	e.publish(ctx, transitions, raised)
	return *next
}

func (e *Engine) publish(ctx context.Context, transitions []domain.Transition, raised []domain.Alert) {
	if e.publisher == nil || len(transitions)+len(raised) == 0 {
		return
	}
	events := make([]domain.TankEvent, 0, len(transitions)+len(raised))
	for _, t := range transitions {
		events = append(events, domain.NewStatusChangeEvent(t))
	}
	for _, a := range raised {
		events = append(events, domain.NewAlertRaisedEvent(a))
	}

	if err := e.publisher.Publish(ctx, events); err != nil {
		e.metrics.EventsPublished.WithLabelValues("error").Add(float64(len(events)))
		e.logger.Error("publish tank events failed", "error", err, "count", len(events))
		return
	}
	e.metrics.EventsPublished.WithLabelValues("success").Add(float64(len(events)))
}

// Device returns one reconciled device.
func (e *Engine) Device(id string) (domain.DeviceState, error) {
	d, ok := e.State().Devices[id]
	if !ok {
		return domain.DeviceState{}, domain.ErrUnknownDevice
	}
	return d, nil
}

// Prediction estimates time to overflow for one device using the rain of the
// latest snapshot.
func (e *Engine) Prediction(id string) (domain.Prediction, error) {
	st := e.State()
	d, ok := st.Devices[id]
	if !ok {
		return domain.Prediction{}, domain.ErrUnknownDevice
	}
	return domain.Predict(d, st.Weather.Rain), nil
}

// Predictions estimates time to overflow for every device.
func (e *Engine) Predictions() (map[string]domain.Prediction, domain.Weather) {
	st := e.State()
	out := make(map[string]domain.Prediction, len(st.Devices))
	for id, d := range st.Devices {
		out[id] = domain.Predict(d, st.Weather.Rain)
	}
	return out, st.Weather
}

// Alerts returns the active alerts, most recent first. Views without an alert
// manager have none.
func (e *Engine) Alerts() []domain.Alert {
	if e.alerts == nil {
		return []domain.Alert{}
	}
	return e.alerts.List()
}

// DismissAlert removes an active alert, reporting whether it existed.
func (e *Engine) DismissAlert(id string) bool {
	if e.alerts == nil {
		return false
	}
	return e.alerts.Dismiss(id)
}

// Summary aggregates the latest state.
func (e *Engine) Summary() domain.Summary {
	return domain.Summarize(e.State().Devices)
}
