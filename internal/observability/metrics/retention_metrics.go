package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RetentionMetrics instruments the search-history retention worker.
type RetentionMetrics struct {
	prunedRows    prometheus.Counter
	runs          *prometheus.CounterVec
	backlog       prometheus.Gauge
	backlogOldest prometheus.Gauge
}

var (
	retentionMetricsOnce sync.Once
	retentionMetrics     *RetentionMetrics
)

// Retention returns the process-wide retention metrics, registering them on
// the default registerer on first use.
func Retention(serviceName, environment string) *RetentionMetrics {
	retentionMetricsOnce.Do(func() {
		retentionMetrics = NewRetentionMetrics(prometheus.DefaultRegisterer, serviceName, environment)
	})
	return retentionMetrics
}

func ResetRetentionMetricsForTest() {
	retentionMetricsOnce = sync.Once{}
	retentionMetrics = nil
}

// NewRetentionMetrics registers the instruments on the given registerer.
// Tests pass a fresh registry; production code goes through Retention.
func NewRetentionMetrics(registerer prometheus.Registerer, serviceName, environment string) *RetentionMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName = strings.TrimSpace(serviceName)
	if serviceName == "" {
		serviceName = "rentalapp"
	}
	environment = strings.TrimSpace(environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	prunedRows := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "rentalapp_search_retention_pruned_rows_total",
			Help:        "Total saved searches removed by the retention worker.",
			ConstLabels: constLabels,
		},
	)

	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "rentalapp_search_retention_runs_total",
			Help:        "Total retention runs by result.",
			ConstLabels: constLabels,
		},
		[]string{"result"}, // success | failed
	)

	backlog := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name:        "rentalapp_search_retention_backlog_total",
			Help:        "Saved searches past the retention cutoff at the start of a run.",
			ConstLabels: constLabels,
		},
	)

	backlogOldest := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name:        "rentalapp_search_retention_backlog_oldest_seconds",
			Help:        "Age of the oldest saved search at the start of a run.",
			ConstLabels: constLabels,
		},
	)

	registerer.MustRegister(prunedRows, runs, backlog, backlogOldest)

	return &RetentionMetrics{
		prunedRows:    prunedRows,
		runs:          runs,
		backlog:       backlog,
		backlogOldest: backlogOldest,
	}
}

func (m *RetentionMetrics) AddPruned(rows int64) {
	if m == nil || rows <= 0 {
		return
	}
	m.prunedRows.Add(float64(rows))
}

func (m *RetentionMetrics) IncRun(result string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(result).Inc()
}

func (m *RetentionMetrics) SetBacklog(value int64) {
	if m == nil {
		return
	}
	m.backlog.Set(float64(value))
}

func (m *RetentionMetrics) SetBacklogOldest(age time.Duration) {
	if m == nil {
		return
	}
	seconds := age.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.backlogOldest.Set(seconds)
}
