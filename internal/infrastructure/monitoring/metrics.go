package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the embedding subsystem.
//
// Collectors are registered on a private registry so multiple instances
// (e.g. in tests) never collide. The system exposes no network listener;
// values are read in-process via Snapshot or Gatherer.
type Metrics struct {
	// Session metrics
	LaunchesTotal  prometheus.Counter
	EmbedsTotal    prometheus.Counter
	FailuresTotal  *prometheus.CounterVec
	SessionsActive prometheus.Gauge

	// Wait metrics
	WindowWaitDuration prometheus.Histogram

	registry  *prometheus.Registry
	startTime time.Time

	// Snapshot values for in-process display
	mu       sync.RWMutex
	snapshot Snapshot
}

// Snapshot holds current metric values for in-process display.
type Snapshot struct {
	Launches       int64
	Embeds         int64
	Failures       int64
	ActiveSessions int64
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		startTime: time.Now(),
		registry:  reg,

		LaunchesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "winpane_launches_total",
			Help: "Total number of external programs launched",
		}),
		EmbedsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "winpane_embeds_total",
			Help: "Total number of windows successfully embedded",
		}),
		FailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "winpane_failures_total",
			Help: "Total number of failed embedding sessions",
		}, []string{"reason"}),
		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "winpane_sessions_active",
			Help: "Number of currently active embedding sessions",
		}),
		WindowWaitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "winpane_window_wait_duration_seconds",
			Help:    "Time spent waiting for a launched program's top-level window",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
	}
}

// Gatherer exposes the private registry for in-process scraping.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// RecordLaunch records a successful process launch.
func (m *Metrics) RecordLaunch() {
	m.LaunchesTotal.Inc()
	m.SessionsActive.Inc()

	m.mu.Lock()
	m.snapshot.Launches++
	m.snapshot.ActiveSessions++
	m.mu.Unlock()
}

// RecordEmbed records a successful window embed.
func (m *Metrics) RecordEmbed(waited time.Duration) {
	m.EmbedsTotal.Inc()
	m.WindowWaitDuration.Observe(waited.Seconds())

	m.mu.Lock()
	m.snapshot.Embeds++
	m.mu.Unlock()
}

// RecordFailure records a failed session with a reason label.
func (m *Metrics) RecordFailure(reason string) {
	m.FailuresTotal.WithLabelValues(reason).Inc()

	m.mu.Lock()
	m.snapshot.Failures++
	m.mu.Unlock()
}

// RecordClose records a session leaving the registry.
func (m *Metrics) RecordClose() {
	m.SessionsActive.Dec()

	m.mu.Lock()
	m.snapshot.ActiveSessions--
	m.mu.Unlock()
}

// GetSnapshot returns current metric values.
func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// Uptime returns time since metrics collection started.
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}
