package metrics_test

import (
	"testing"

	"github.com/antonio-alexander/go-employee-crud/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()

	m := metrics.NewMetrics(reg)
	m.RecordsMutated.WithLabelValues("create").Inc()
	m.CacheResults.WithLabelValues("hit").Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.RecordsMutated.WithLabelValues("create")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheResults.WithLabelValues("hit")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.CacheResults.WithLabelValues("miss")))
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()

	_ = metrics.NewMetrics(reg)
	assert.Panics(t, func() {
		_ = metrics.NewMetrics(reg)
	})
}
