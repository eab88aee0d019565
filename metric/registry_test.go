package metric

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistry(t *testing.T) {
	registry := NewMetricsRegistry()
	require.NotNil(t, registry)
	require.NotNil(t, registry.PrometheusRegistry())
	require.NotNil(t, registry.CoreMetrics())
}

func TestRegisterCollector(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "neurostreams",
		Subsystem: "test",
		Name:      "events_total",
		Help:      "test counter",
	})

	err := registry.RegisterCollector("annotator", "events_total", counter)
	require.NoError(t, err)

	// Same key is rejected.
	err = registry.RegisterCollector("annotator", "events_total", counter)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	// Different key but identical prometheus descriptor is also rejected.
	duplicate := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "neurostreams",
		Subsystem: "test",
		Name:      "events_total",
		Help:      "test counter",
	})
	err = registry.RegisterCollector("lookup", "events_total", duplicate)
	assert.Error(t, err)
}

func TestUnregister(t *testing.T) {
	registry := NewMetricsRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "neurostreams",
		Subsystem: "test",
		Name:      "depth",
		Help:      "test gauge",
	})

	require.NoError(t, registry.RegisterCollector("annotator", "depth", gauge))
	assert.True(t, registry.Unregister("annotator", "depth"))
	assert.False(t, registry.Unregister("annotator", "depth"))

	// Re-registration after unregister succeeds.
	require.NoError(t, registry.RegisterCollector("annotator", "depth", gauge))
}

func TestCoreMetricsRecording(t *testing.T) {
	registry := NewMetricsRegistry()
	core := registry.CoreMetrics()

	core.RecordMessageReceived("annotator", "observation")
	core.RecordMessageProcessed("annotator", "observation", "ok")
	core.RecordMessagePublished("annotator", "neuro.observations.labeled")
	core.RecordProcessingDuration("annotator", "annotate", 5*time.Millisecond)
	core.RecordError("annotator", "publish")
	core.RecordHealthStatus("annotator", true)
	core.RecordServiceStatus("annotator", 2)
	core.RecordNATSStatus(true)
	core.RecordNATSRTT(3 * time.Millisecond)
	core.RecordNATSReconnect()

	assert.Equal(t, 1.0, testutil.ToFloat64(
		core.MessagesReceived.WithLabelValues("annotator", "observation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		core.MessagesProcessed.WithLabelValues("annotator", "observation", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(core.NATSConnected))
	assert.Equal(t, 1.0, testutil.ToFloat64(core.NATSReconnects))
	assert.Equal(t, 2.0, testutil.ToFloat64(core.ServiceStatus.WithLabelValues("annotator")))
}

func TestAtlasMetricsRecording(t *testing.T) {
	registry := NewMetricsRegistry()
	core := registry.CoreMetrics()

	core.RecordLookup("left", "DMN")
	core.RecordLookup("left", "DMN")
	core.RecordLookup("right", "VIS")
	core.RecordUnknownRegion("left")

	assert.Equal(t, 2.0, testutil.ToFloat64(core.LookupsTotal.WithLabelValues("left", "DMN")))
	assert.Equal(t, 1.0, testutil.ToFloat64(core.LookupsTotal.WithLabelValues("right", "VIS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(core.UnknownRegionsTotal.WithLabelValues("left")))
}

func TestServerAddress(t *testing.T) {
	registry := NewMetricsRegistry()

	srv := NewServer(0, "", registry)
	assert.Equal(t, "http://localhost:9090/metrics", srv.Address())

	srv = NewServer(9100, "/custom", registry)
	assert.Equal(t, "http://localhost:9100/custom", srv.Address())

	// Stop before Start is a no-op.
	assert.NoError(t, srv.Stop())
}
