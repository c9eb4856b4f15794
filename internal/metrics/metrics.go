package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus collectors shared by the service,
// the persistence gateway and the record logic.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	DBQueryDuration *prometheus.HistogramVec
	CacheResults    *prometheus.CounterVec
	RecordsMutated  *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors with reg. Passing a
// fresh prometheus.NewRegistry() keeps tests independent from the
// default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	metrics := &Metrics{
		RequestsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "employees_http_requests_total",
			Help: "Total number of http requests by route and status code.",
		}, []string{"route", "code"}),
		RequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "employees_http_request_duration_seconds",
			Help:    "Duration of http requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		DBQueryDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "employees_db_query_duration_seconds",
			Help:    "Duration of database queries.",
			Buckets: prometheus.DefBuckets,
		}, []string{"query_type"}), // query_type: 'employee_insert', 'execute_update'
		CacheResults: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "employees_cache_results_total",
			Help: "Cache lookups by result.",
		}, []string{"result"}),
		RecordsMutated: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "employees_records_mutated_total",
			Help: "Records created, updated, replaced or deleted.",
		}, []string{"operation"}),
	}

	metrics.CacheResults.WithLabelValues("hit")
	metrics.CacheResults.WithLabelValues("miss")

	return metrics
}
