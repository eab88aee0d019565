package annotateprocessor

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/neurostreams/component"
	"github.com/c360/neurostreams/errors"
	"github.com/c360/neurostreams/message"
	"github.com/c360/neurostreams/metric"
	"github.com/c360/neurostreams/natsclient"
	"github.com/c360/neurostreams/restingstate"
)

func testDeps(t *testing.T) (component.Dependencies, *metric.MetricsRegistry) {
	t.Helper()

	client, err := natsclient.NewClient("nats://localhost:4222")
	require.NoError(t, err)

	registry := metric.NewMetricsRegistry()
	return component.Dependencies{
		NATSClient:      client,
		MetricsRegistry: registry,
	}, registry
}

func rawObservation(t *testing.T, hemisphere, region string) []byte {
	t.Helper()

	data, err := json.Marshal(message.RegionObservation{
		SubjectID:  "sub-001",
		Hemisphere: restingstate.Hemisphere(hemisphere),
		Region:     region,
		Metric:     "bold_signal",
		Value:      0.5,
		Timestamp:  time.Now().UTC(),
	})
	require.NoError(t, err)
	return data
}

func TestNewProcessorDefaults(t *testing.T) {
	deps, _ := testDeps(t)

	p, err := NewProcessor(nil, deps)
	require.NoError(t, err)

	assert.Equal(t, "neuro.observations.raw", p.config.InputSubject)
	assert.Equal(t, "neuro.observations.labeled", p.config.OutputSubject)

	meta := p.Meta()
	assert.Equal(t, "annotate-processor", meta.Name)
	assert.Equal(t, "processor", meta.Type)
}

func TestNewProcessorConfig(t *testing.T) {
	deps, _ := testDeps(t)

	raw := json.RawMessage(`{"input_subject":"eeg.raw","output_subject":"eeg.labeled","stream_name":"EEG"}`)
	p, err := NewProcessor(raw, deps)
	require.NoError(t, err)

	assert.Equal(t, "eeg.raw", p.config.InputSubject)
	assert.Equal(t, "EEG", p.config.StreamName)
}

func TestNewProcessorRejectsBadConfig(t *testing.T) {
	deps, _ := testDeps(t)

	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{broken`},
		{"empty input", `{"input_subject":"","output_subject":"out"}`},
		{"empty output", `{"input_subject":"in","output_subject":""}`},
		{"same subject", `{"input_subject":"same","output_subject":"same"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProcessor(json.RawMessage(tt.raw), deps)
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err))
		})
	}
}

func TestStartRequiresNATSClient(t *testing.T) {
	p, err := NewProcessor(nil, component.Dependencies{})
	require.NoError(t, err)

	err = p.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

func TestHandleMessageDropsMalformed(t *testing.T) {
	deps, registry := testDeps(t)
	p, err := NewProcessor(nil, deps)
	require.NoError(t, err)

	p.handleMessage(context.Background(), []byte("not json"))
	p.handleMessage(context.Background(), []byte(`{"subject_id":""}`))

	assert.Equal(t, 2.0, testutil.ToFloat64(p.metrics.droppedTotal.WithLabelValues("invalid")))
	assert.Equal(t, int64(2), p.messagesProcessed)
	assert.Equal(t, int64(0), p.messagesAnnotated)

	// No lookups are counted for malformed input.
	core := registry.CoreMetrics()
	assert.Equal(t, 0.0, testutil.ToFloat64(core.UnknownRegionsTotal.WithLabelValues("left")))
}

func TestHandleMessageDropsUnknownRegion(t *testing.T) {
	deps, registry := testDeps(t)
	p, err := NewProcessor(nil, deps)
	require.NoError(t, err)

	p.handleMessage(context.Background(), rawObservation(t, "left", "angular_gyrus"))

	assert.Equal(t, int64(1), p.messagesDropped)
	assert.Equal(t, int64(0), p.messagesAnnotated)
	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.droppedTotal.WithLabelValues("unknown_region")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		registry.CoreMetrics().UnknownRegionsTotal.WithLabelValues("left")))

	// Nothing was labeled, so no annotation counter moved.
	assert.Equal(t, 0.0, testutil.ToFloat64(p.metrics.annotationsTotal.WithLabelValues("other")))
}

func TestHandleMessageKnownRegionAttemptsPublish(t *testing.T) {
	deps, registry := testDeps(t)
	p, err := NewProcessor(nil, deps)
	require.NoError(t, err)

	// The lookup succeeds; the publish fails because the client is
	// not connected, and the failure is counted as a publish drop.
	p.handleMessage(context.Background(), rawObservation(t, "left", "precuneus"))

	assert.Equal(t, 1.0, testutil.ToFloat64(
		registry.CoreMetrics().LookupsTotal.WithLabelValues("left", "DMN")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.metrics.droppedTotal.WithLabelValues("publish")))
	assert.Equal(t, int64(0), p.messagesAnnotated)
}

func TestCoreCountersTrackFlow(t *testing.T) {
	deps, registry := testDeps(t)
	p, err := NewProcessor(nil, deps)
	require.NoError(t, err)

	p.handleMessage(context.Background(), rawObservation(t, "left", "precuneus"))
	p.handleMessage(context.Background(), []byte("not json"))

	core := registry.CoreMetrics()
	assert.Equal(t, 2.0, testutil.ToFloat64(
		core.MessagesReceived.WithLabelValues("annotate-processor", "observation")))
	// Both end as drops: the first publish has no broker behind it,
	// the second payload is malformed.
	assert.Equal(t, 2.0, testutil.ToFloat64(
		core.MessagesProcessed.WithLabelValues("annotate-processor", "observation", "dropped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		core.ErrorsTotal.WithLabelValues("annotate-processor", "publish")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		core.ErrorsTotal.WithLabelValues("annotate-processor", "invalid")))
}

func TestHealthAndDataFlow(t *testing.T) {
	deps, _ := testDeps(t)
	p, err := NewProcessor(nil, deps)
	require.NoError(t, err)

	health := p.Health()
	assert.False(t, health.Healthy)

	p.handleMessage(context.Background(), []byte("not json"))

	flow := p.DataFlow()
	assert.Equal(t, 1.0, flow.ErrorRate)
	assert.False(t, flow.LastActivity.IsZero())
}

func TestStopBeforeStart(t *testing.T) {
	deps, _ := testDeps(t)
	p, err := NewProcessor(nil, deps)
	require.NoError(t, err)

	assert.NoError(t, p.Stop(time.Second))
}

func TestMetricsDisabledWithoutRegistry(t *testing.T) {
	client, err := natsclient.NewClient("nats://localhost:4222")
	require.NoError(t, err)

	p, err := NewProcessor(nil, component.Dependencies{NATSClient: client})
	require.NoError(t, err)
	require.Nil(t, p.metrics)

	// nil metrics are safe to record against.
	p.handleMessage(context.Background(), rawObservation(t, "right", "cuneus"))
}
