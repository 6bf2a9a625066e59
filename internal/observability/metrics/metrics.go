package metrics

import "github.com/prometheus/client_golang/prometheus"

// ImportMetrics exposes counters/histograms for the import pipeline.
type ImportMetrics struct {
	recordOutcomes *prometheus.CounterVec
	fetchLatency   *prometheus.HistogramVec
	remindersSent  *prometheus.CounterVec
}

func NewImportMetrics(reg prometheus.Registerer) *ImportMetrics {
	m := &ImportMetrics{
		recordOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "txtalert",
			Subsystem: "importer",
			Name:      "record_outcomes_total",
			Help:      "Per-record import outcomes by kind and category",
		}, []string{"kind", "category", "outcome"}),
		fetchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "txtalert",
			Subsystem: "importer",
			Name:      "fetch_latency_seconds",
			Help:      "Latency of external source fetches",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind", "category"}),
		remindersSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "txtalert",
			Subsystem: "reminders",
			Name:      "sent_total",
			Help:      "Reminder SMS sends by result",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.recordOutcomes, m.fetchLatency, m.remindersSent)
	return m
}

func (m *ImportMetrics) ObserveOutcome(kind, category, outcome string) {
	if m == nil {
		return
	}
	m.recordOutcomes.WithLabelValues(kind, category, outcome).Inc()
}

func (m *ImportMetrics) ObserveFetchLatency(kind, category string, seconds float64) {
	if m == nil {
		return
	}
	m.fetchLatency.WithLabelValues(kind, category).Observe(seconds)
}

func (m *ImportMetrics) ObserveReminder(result string) {
	if m == nil {
		return
	}
	m.remindersSent.WithLabelValues(result).Inc()
}
