package message

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/neurostreams/errors"
	"github.com/c360/neurostreams/restingstate"
)

func validObservation() *RegionObservation {
	return &RegionObservation{
		SubjectID:  "sub-001",
		Hemisphere: restingstate.HemisphereLeft,
		Region:     "precuneus",
		Metric:     "bold_signal",
		Value:      0.82,
		Timestamp:  time.Date(2026, 8, 20, 14, 30, 0, 0, time.UTC),
	}
}

func TestRegionObservationValidate(t *testing.T) {
	require.NoError(t, validObservation().Validate())

	tests := []struct {
		name   string
		mutate func(*RegionObservation)
	}{
		{"missing subject", func(o *RegionObservation) { o.SubjectID = "" }},
		{"bad hemisphere", func(o *RegionObservation) { o.Hemisphere = "medial" }},
		{"missing region", func(o *RegionObservation) { o.Region = "" }},
		{"missing metric", func(o *RegionObservation) { o.Metric = "" }},
		{"zero timestamp", func(o *RegionObservation) { o.Timestamp = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := validObservation()
			tt.mutate(obs)
			err := obs.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err))
		})
	}
}

func TestValidateAcceptsUnknownRegionName(t *testing.T) {
	// Structural validation does not consult the parcellation.
	obs := validObservation()
	obs.Region = "not_a_region"
	assert.NoError(t, obs.Validate())
}

func TestParseRegionObservation(t *testing.T) {
	data := []byte(`{
		"subject_id": "sub-042",
		"hemisphere": "right",
		"region": "cuneus",
		"metric": "connectivity_strength",
		"value": 0.37,
		"timestamp": "2026-08-20T14:30:00Z"
	}`)

	obs, err := ParseRegionObservation(data)
	require.NoError(t, err)
	assert.Equal(t, "sub-042", obs.SubjectID)
	assert.Equal(t, restingstate.HemisphereRight, obs.Hemisphere)
	assert.Equal(t, "cuneus", obs.Region)
	assert.InDelta(t, 0.37, obs.Value, 1e-9)
}

func TestParseRegionObservationErrors(t *testing.T) {
	_, err := ParseRegionObservation([]byte("not json"))
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	_, err = ParseRegionObservation([]byte(`{"subject_id":""}`))
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestNewAnnotatedObservation(t *testing.T) {
	obs := validObservation()
	annotated := NewAnnotatedObservation(obs, restingstate.NetworkDMN)

	require.NoError(t, annotated.Validate())
	assert.Equal(t, obs.SubjectID, annotated.SubjectID)
	assert.Equal(t, restingstate.NetworkDMN, annotated.Network)
	assert.False(t, annotated.AnnotatedAt.IsZero())
}

func TestAnnotatedObservationValidateNetwork(t *testing.T) {
	annotated := NewAnnotatedObservation(validObservation(), restingstate.Network("limbic"))
	err := annotated.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestAnnotatedObservationMarshal(t *testing.T) {
	annotated := NewAnnotatedObservation(validObservation(), restingstate.NetworkVIS)

	data, err := annotated.Marshal()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "VIS", decoded["network"])
	assert.Equal(t, "precuneus", decoded["region"])
	assert.Equal(t, "left", decoded["hemisphere"])
}
