package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tankwatch"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// tank monitoring service.
type Metrics struct {
	// Polling metrics.
	PollCycles     *prometheus.CounterVec   // labels: poller, outcome={success,fetch_error,parse_error}
	PollDuration   *prometheus.HistogramVec // labels: poller
	DevicesTracked *prometheus.GaugeVec     // labels: poller
	PollersRunning prometheus.Gauge

	HistoryAppended prometheus.Counter

	// Alert lifecycle metrics.
	AlertsActive    prometheus.Gauge
	AlertsRaised    prometheus.Counter
	AlertsExpired   prometheus.Counter
	AlertsDismissed prometheus.Counter

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge

	EventsPublished *prometheus.CounterVec // labels: outcome={success,error}
	WSClients       prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PollCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_cycles_total",
			Help:      "Snapshot poll cycles by poller and outcome.",
		}, []string{"poller", "outcome"}),
		PollDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Duration of a complete fetch-reconcile cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"poller"}),
		DevicesTracked: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "devices_tracked",
			Help:      "Devices held in reconciled state.",
		}, []string{"poller"}),
		PollersRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pollers_running",
			Help:      "Number of active snapshot pollers.",
		}),
		HistoryAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_records_appended_total",
			Help:      "History records appended on status or level change.",
		}),
		AlertsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alerts_active",
			Help:      "Alerts currently held.",
		}),
		AlertsRaised: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_raised_total",
			Help:      "Alerts created for a (device, status) pair not already held.",
		}),
		AlertsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_expired_total",
			Help:      "Alerts removed after their time-to-live elapsed.",
		}),
		AlertsDismissed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_dismissed_total",
			Help:      "Alerts removed by an operator.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Nominatim request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when location search is enabled, 0 otherwise.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Tank events written to Kafka by outcome.",
		}, []string{"outcome"}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_clients",
			Help:      "Connected dashboard websocket clients.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.PollCycles,
		m.PollDuration,
		m.DevicesTracked,
		m.PollersRunning,
		m.HistoryAppended,
		m.AlertsActive,
		m.AlertsRaised,
		m.AlertsExpired,
		m.AlertsDismissed,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
		m.EventsPublished,
		m.WSClients,
	}
}
