package collector

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Tick outcomes, also used as the "outcome" metric label.
const (
	OutcomeAppended    = "appended"
	OutcomeEmpty       = "empty"
	OutcomeFetchFailed = "fetch_failed"
	OutcomeStoreFailed = "store_failed"
)

// Metrics holds the collector's Prometheus collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	ticks       *prometheus.CounterVec
	appended    prometheus.Counter
	dropped     prometheus.Counter
	duration    prometheus.Histogram
	lastSuccess prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cryptometrics",
				Subsystem: "collector",
				Name:      "ticks_total",
				Help:      "Collector ticks by outcome.",
			},
			[]string{"outcome"},
		),
		appended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cryptometrics",
			Subsystem: "collector",
			Name:      "observations_appended_total",
			Help:      "Observations committed to the series store.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cryptometrics",
			Subsystem: "collector",
			Name:      "records_dropped_total",
			Help:      "Upstream records dropped during normalization.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cryptometrics",
			Subsystem: "collector",
			Name:      "tick_duration_seconds",
			Help:      "Wall time of one fetch, normalize and append cycle.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cryptometrics",
			Subsystem: "collector",
			Name:      "last_append_timestamp_seconds",
			Help:      "Unix time of the last committed batch.",
		}),
	}

	m.Registry.MustRegister(m.ticks, m.appended, m.dropped, m.duration, m.lastSuccess)
	return m
}

func (m *Metrics) observeTick(outcome string, took time.Duration, appended, dropped int, at time.Time) {
	if m == nil {
		return
	}
	m.ticks.WithLabelValues(outcome).Inc()
	m.duration.Observe(took.Seconds())
	if dropped > 0 {
		m.dropped.Add(float64(dropped))
	}
	if outcome == OutcomeAppended {
		m.appended.Add(float64(appended))
		m.lastSuccess.Set(float64(at.Unix()))
	}
}
