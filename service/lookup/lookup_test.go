package lookupservice

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
	"github.com/c360/neurostreams/metric"
	"github.com/c360/neurostreams/natsclient"
	"github.com/c360/neurostreams/restingstate"
)

func testService(t *testing.T) (*Service, *metric.MetricsRegistry) {
	t.Helper()

	client, err := natsclient.NewClient("nats://localhost:4222")
	require.NoError(t, err)

	registry := metric.NewMetricsRegistry()
	svc, err := NewService(nil, component.Dependencies{
		NATSClient:      client,
		MetricsRegistry: registry,
	})
	require.NoError(t, err)
	return svc, registry
}

func lookupReply(t *testing.T, svc *Service, request string) LookupResponse {
	t.Helper()

	data := svc.handleLookup(context.Background(), []byte(request))
	var resp LookupResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	return resp
}

func TestNewServiceDefaults(t *testing.T) {
	svc, _ := testService(t)

	assert.Equal(t, "neuro.atlas.lookup", svc.config.Subject)
	assert.Equal(t, "neuro.atlas.regions", svc.config.RegionsSubject)
	assert.Equal(t, "service", svc.Meta().Type)
}

func TestNewServiceRejectsEmptySubject(t *testing.T) {
	_, err := NewService(json.RawMessage(`{"subject":""}`), component.Dependencies{})
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestHandleLookupKnownRegions(t *testing.T) {
	svc, registry := testService(t)

	tests := []struct {
		hemisphere string
		region     string
		want       restingstate.Network
	}{
		{"left", "precuneus", restingstate.NetworkDMN},
		{"right", "precuneus", restingstate.NetworkDMN},
		{"left", "caudalanteriorcingulate", restingstate.NetworkDAN},
		{"right", "caudalanteriorcingulate", restingstate.NetworkDMN},
		{"left", "superiortemporal", restingstate.NetworkAUD},
		{"right", "cuneus", restingstate.NetworkVIS},
		{"left", "temporalpole", restingstate.NetworkOther},
		// transversetemporal sits in "other", not AUD, in the
		// published assignment.
		{"left", "transversetemporal", restingstate.NetworkOther},
	}

	for _, tt := range tests {
		req, err := json.Marshal(LookupRequest{
			Hemisphere: restingstate.Hemisphere(tt.hemisphere),
			Region:     tt.region,
		})
		require.NoError(t, err)

		resp := lookupReply(t, svc, string(req))
		assert.Empty(t, resp.Error, "%s/%s", tt.hemisphere, tt.region)
		assert.Equal(t, tt.want, resp.Network, "%s/%s", tt.hemisphere, tt.region)
		assert.Equal(t, tt.region, resp.Region)
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(
		registry.CoreMetrics().LookupsTotal.WithLabelValues("left", "DAN")))
}

func TestCoreCountersTrackRequests(t *testing.T) {
	svc, registry := testService(t)

	lookupReply(t, svc, `{"hemisphere":"left","region":"precuneus"}`)
	lookupReply(t, svc, "not json")
	svc.handleRegions(context.Background(), nil)

	core := registry.CoreMetrics()
	assert.Equal(t, 2.0, testutil.ToFloat64(
		core.MessagesReceived.WithLabelValues("lookup-service", "lookup")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		core.MessagesReceived.WithLabelValues("lookup-service", "regions")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		core.MessagesProcessed.WithLabelValues("lookup-service", "lookup", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		core.MessagesProcessed.WithLabelValues("lookup-service", "lookup", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		core.ErrorsTotal.WithLabelValues("lookup-service", "lookup")))
}

func TestHandleLookupUnknownRegion(t *testing.T) {
	svc, registry := testService(t)

	resp := lookupReply(t, svc, `{"hemisphere":"left","region":"angular_gyrus"}`)
	assert.Empty(t, resp.Network)
	assert.Contains(t, resp.Error, "angular_gyrus")

	// Case matters: region names are lowercase atlas keys.
	resp = lookupReply(t, svc, `{"hemisphere":"left","region":"Precuneus"}`)
	assert.Empty(t, resp.Network)
	assert.Contains(t, resp.Error, "unknown region")

	assert.Equal(t, 2.0, testutil.ToFloat64(
		registry.CoreMetrics().UnknownRegionsTotal.WithLabelValues("left")))
}

func TestHandleLookupUnknownHemisphere(t *testing.T) {
	svc, _ := testService(t)

	resp := lookupReply(t, svc, `{"hemisphere":"medial","region":"precuneus"}`)
	assert.Empty(t, resp.Network)
	assert.Contains(t, resp.Error, "unknown hemisphere")
}

func TestHandleLookupMalformed(t *testing.T) {
	svc, _ := testService(t)

	resp := lookupReply(t, svc, "not json")
	assert.Contains(t, resp.Error, "malformed request")
}

func TestHandleRegionsBothHemispheres(t *testing.T) {
	svc, _ := testService(t)

	data := svc.handleRegions(context.Background(), nil)
	var resp RegionsResponse
	require.NoError(t, json.Unmarshal(data, &resp))

	require.Empty(t, resp.Error)
	require.Len(t, resp.Hemispheres, 2)
	assert.Len(t, resp.Hemispheres["left"], restingstate.RegionCount)
	assert.Len(t, resp.Hemispheres["right"], restingstate.RegionCount)
	assert.Equal(t, restingstate.NetworkDAN, resp.Hemispheres["left"]["caudalanteriorcingulate"])
	assert.Equal(t, restingstate.NetworkDMN, resp.Hemispheres["right"]["caudalanteriorcingulate"])
}

func TestHandleRegionsSingleHemisphere(t *testing.T) {
	svc, _ := testService(t)

	data := svc.handleRegions(context.Background(), []byte(`{"hemisphere":"right"}`))
	var resp RegionsResponse
	require.NoError(t, json.Unmarshal(data, &resp))

	require.Len(t, resp.Hemispheres, 1)
	assert.Equal(t, restingstate.NetworkVIS, resp.Hemispheres["right"]["lateraloccipital"])
	// pericalcarine is outside the five named networks.
	assert.Equal(t, restingstate.NetworkOther, resp.Hemispheres["right"]["pericalcarine"])
}

func TestHandleRegionsUnknownHemisphere(t *testing.T) {
	svc, _ := testService(t)

	data := svc.handleRegions(context.Background(), []byte(`{"hemisphere":"dorsal"}`))
	var resp RegionsResponse
	require.NoError(t, json.Unmarshal(data, &resp))

	assert.Empty(t, resp.Hemispheres)
	assert.Contains(t, resp.Error, "unknown hemisphere")
}

func TestStartRequiresNATSClient(t *testing.T) {
	svc, err := NewService(nil, component.Dependencies{})
	require.NoError(t, err)

	err = svc.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

func TestHealthAndDataFlow(t *testing.T) {
	svc, _ := testService(t)

	assert.False(t, svc.Health().Healthy)

	lookupReply(t, svc, `{"hemisphere":"left","region":"precuneus"}`)
	lookupReply(t, svc, "not json")

	flow := svc.DataFlow()
	assert.Equal(t, 0.5, flow.ErrorRate)
	assert.False(t, flow.LastActivity.IsZero())
}

func TestStopBeforeStart(t *testing.T) {
	svc, _ := testService(t)
	assert.NoError(t, svc.Stop(time.Second))
}
