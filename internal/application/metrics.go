package application

import (
	"time"

	"github.com/atvirokodosprendimai/clinicseed/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records committed rebuilds. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	deleted  *prometheus.CounterVec
	created  *prometheus.CounterVec
	rebuilds *prometheus.CounterVec
	duration prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		deleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicseed",
			Name:      "records_deleted_total",
			Help:      "Records removed by committed rebuilds, per entity kind.",
		}, []string{"kind"}),
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicseed",
			Name:      "records_created_total",
			Help:      "Records created by committed rebuilds, per entity kind.",
		}, []string{"kind"}),
		rebuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicseed",
			Name:      "rebuilds_total",
			Help:      "Rebuild attempts by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinicseed",
			Name:      "rebuild_duration_seconds",
			Help:      "Wall time of committed rebuilds.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
	reg.MustRegister(m.deleted, m.created, m.rebuilds, m.duration)
	return m
}

func (m *Metrics) observeCommit(report domain.FixtureReport, took time.Duration) {
	if m == nil {
		return
	}
	for _, d := range report.Destroyed {
		m.deleted.WithLabelValues(d.Kind).Add(float64(d.Count))
	}
	for _, c := range report.Created {
		m.created.WithLabelValues(c.Kind).Add(float64(c.Count))
	}
	m.rebuilds.WithLabelValues("committed").Inc()
	m.duration.Observe(took.Seconds())
}

func (m *Metrics) observeFailure() {
	if m == nil {
		return
	}
	m.rebuilds.WithLabelValues("failed").Inc()
}
