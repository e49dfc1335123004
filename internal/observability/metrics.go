package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storm_shock"

// Metrics holds the Prometheus counters, histograms, and gauges for a simulation run.
type Metrics struct {
	EventsApplied   *prometheus.CounterVec // labels: phase={misting,storming,clearing}
	EventsDisplayed *prometheus.CounterVec // labels: phase
	DecaySteps      *prometheus.CounterVec // labels: phase
	ThunderEvents   prometheus.Counter

	MessagesPublished prometheus.Counter
	PublishErrors     prometheus.Counter

	StateValue        prometheus.Gauge
	NetDisplacement   prometheus.Gauge
	SimulationRunning prometheus.Gauge

	InterArrival  *prometheus.HistogramVec // labels: phase
	PhaseDuration *prometheus.HistogramVec // labels: phase
}

var (
	interArrivalBuckets  = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16}
	phaseDurationBuckets = []float64{1, 5, 10, 15, 30, 45, 60, 120}
)

func newMetrics() *Metrics {
	return &Metrics{
		EventsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_applied_total",
			Help:      "Events applied to the state, by phase.",
		}, []string{"phase"}),
		EventsDisplayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_displayed_total",
			Help:      "Events forwarded to the display, by phase.",
		}, []string{"phase"}),
		DecaySteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decay_steps_total",
			Help:      "Decay steps applied between events, by phase.",
		}, []string{"phase"}),
		ThunderEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "thunder_events_total",
			Help:      "Thunder shocks drawn during the storm.",
		}),
		MessagesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_messages_published_total",
			Help:      "Logged events published to Kafka.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Failed Kafka write attempts, including retried ones.",
		}),
		StateValue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "state_value",
			Help:      "Current value of the simulated state.",
		}),
		NetDisplacement: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "net_displacement",
			Help:      "Running sum of applied event intensities.",
		}),
		SimulationRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "simulation_running",
			Help:      "1 while a ceremony is in progress, 0 otherwise.",
		}),
		InterArrival: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inter_arrival_seconds",
			Help:      "Wait between consecutive events, by phase.",
			Buckets:   interArrivalBuckets,
		}, []string{"phase"}),
		PhaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Wall-clock (or simulated) duration of each phase.",
			Buckets:   phaseDurationBuckets,
		}, []string{"phase"}),
	}
}

// NewMetrics creates and registers all simulation metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.EventsApplied,
		m.EventsDisplayed,
		m.DecaySteps,
		m.ThunderEvents,
		m.MessagesPublished,
		m.PublishErrors,
		m.StateValue,
		m.NetDisplacement,
		m.SimulationRunning,
		m.InterArrival,
		m.PhaseDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
