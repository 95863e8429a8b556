package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewWithRegistry(DefaultConfig(), reg).(*metrics)

	c.DefinitionsRegistered("root", 3)
	c.InstanceCreated("singleton", 2*time.Millisecond)
	c.InstanceCreated("singleton", time.Millisecond)
	c.InstanceCreated("prototype", time.Millisecond)
	c.InstanceFailed("CIRCULAR_REFERENCE")
	c.InstanceFailed("")

	assert.InDelta(t, 3, testutil.ToFloat64(c.definitions.WithLabelValues("root")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(c.created.WithLabelValues("singleton")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.created.WithLabelValues("prototype")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.failures.WithLabelValues("CIRCULAR_REFERENCE")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.failures.WithLabelValues("UNKNOWN")), 0)

	count, err := testutil.GatherAndCount(reg, "beans_instance_create_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCollector_Handler(t *testing.T) {
	c := New(DefaultConfig())
	c.InstanceCreated("singleton", time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "beans_instances_created_total"))
}

func TestNew_Disabled(t *testing.T) {
	c := New(MetricsConfig{})
	assert.IsType(t, noopMetrics{}, c)

	c.InstanceCreated("singleton", time.Millisecond)
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
