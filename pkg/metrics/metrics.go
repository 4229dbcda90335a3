package metrics

import (
	"time"

	"github.com/cuemby/towerctl/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
)

// Lifecycle paths
const (
	PathStartServices = "start-services"
	PathConfigure     = "configure"
	PathUpgrade       = "upgrade"
	PathStop          = "stop"
	PathDisable       = "disable"
)

// Lifecycle outcomes
const (
	OutcomeSuccess         = "success"
	OutcomeSetupFailure    = "setup_failure"
	OutcomeServiceFailure  = "service_failure"
	OutcomeLivenessTimeout = "liveness_timeout"
	OutcomeError           = "error"
)

var (
	LifecycleRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "towerctl_lifecycle_runs_total",
			Help: "Total number of lifecycle runs by path and outcome",
		},
		[]string{"path", "outcome"},
	)

	SetupDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "towerctl_setup_duration_seconds",
			Help:    "Time taken by the platform installer in seconds",
			Buckets: prometheus.ExponentialBuckets(30, 2, 8),
		},
	)

	LivenessAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "towerctl_liveness_attempts_total",
			Help: "Total number of liveness checks by result",
		},
		[]string{"result"},
	)

	InstallationState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "towerctl_installation_state",
			Help: "Installation state found at the start of the last run (1 = current state)",
		},
		[]string{"state"},
	)
)

func init() {
	prometheus.MustRegister(LifecycleRuns)
	prometheus.MustRegister(SetupDuration)
	prometheus.MustRegister(LivenessAttempts)
	prometheus.MustRegister(InstallationState)
}

// SetInstallationState marks state as the current one
func SetInstallationState(state types.InstallationState) {
	for _, s := range []types.InstallationState{
		types.StateAbsent,
		types.StateConfiguredCurrent,
		types.StateConfiguredStale,
	} {
		value := 0.0
		if s == state {
			value = 1
		}
		InstallationState.WithLabelValues(string(s)).Set(value)
	}
}

// RecordLiveness counts one liveness check
func RecordLiveness(healthy bool) {
	result := "unhealthy"
	if healthy {
		result = "healthy"
	}
	LivenessAttempts.WithLabelValues(result).Inc()
}

// WriteTextfile writes every registered metric to path in the Prometheus
// text format, for the node exporter's textfile collector
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

// Timer measures elapsed time for histogram observations
type Timer struct {
	start time.Time
}

// NewTimer starts a timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the time since the timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the elapsed seconds in h
func (t *Timer) ObserveDuration(h prometheus.Observer) {
	h.Observe(t.Duration().Seconds())
}
