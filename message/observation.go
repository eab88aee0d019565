// Package message defines the wire payloads exchanged between
// NeuroStreams components.
package message

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/c360/neurostreams/errors"
	"github.com/c360/neurostreams/restingstate"
)

// RegionObservation is a single measurement for one cortical region of
// one subject, as published by acquisition pipelines on the raw
// observation subject.
type RegionObservation struct {
	SubjectID  string                  `json:"subject_id"`
	Hemisphere restingstate.Hemisphere `json:"hemisphere"`
	Region     string                  `json:"region"`
	Metric     string                  `json:"metric"` // e.g. "bold_signal", "connectivity_strength"
	Value      float64                 `json:"value"`
	Timestamp  time.Time               `json:"timestamp"`
}

// Validate checks structural validity of the observation. Whether the
// region exists in the parcellation is the annotator's concern, not a
// structural property of the message.
func (o *RegionObservation) Validate() error {
	if o.SubjectID == "" {
		return errors.WrapInvalid(errors.ErrInvalidData,
			"RegionObservation", "Validate", "subject_id required")
	}
	if !o.Hemisphere.Valid() {
		return errors.WrapInvalid(
			fmt.Errorf("%w: hemisphere %q", errors.ErrInvalidData, o.Hemisphere),
			"RegionObservation", "Validate", "check hemisphere")
	}
	if o.Region == "" {
		return errors.WrapInvalid(errors.ErrInvalidData,
			"RegionObservation", "Validate", "region required")
	}
	if o.Metric == "" {
		return errors.WrapInvalid(errors.ErrInvalidData,
			"RegionObservation", "Validate", "metric required")
	}
	if o.Timestamp.IsZero() {
		return errors.WrapInvalid(errors.ErrInvalidData,
			"RegionObservation", "Validate", "timestamp required")
	}
	return nil
}

// ParseRegionObservation decodes and validates a raw observation.
func ParseRegionObservation(data []byte) (*RegionObservation, error) {
	var obs RegionObservation
	if err := json.Unmarshal(data, &obs); err != nil {
		return nil, errors.WrapInvalid(err, "RegionObservation", "Parse", "decode JSON")
	}
	if err := obs.Validate(); err != nil {
		return nil, err
	}
	return &obs, nil
}

// AnnotatedObservation is a RegionObservation enriched with the
// resting-state network its region belongs to.
type AnnotatedObservation struct {
	RegionObservation
	Network     restingstate.Network `json:"network"`
	AnnotatedAt time.Time            `json:"annotated_at"`
}

// NewAnnotatedObservation labels an observation with its network. The
// lookup's hemisphere/region resolution must already have happened;
// this only attaches the result.
func NewAnnotatedObservation(obs *RegionObservation, network restingstate.Network) *AnnotatedObservation {
	return &AnnotatedObservation{
		RegionObservation: *obs,
		Network:           network,
		AnnotatedAt:       time.Now().UTC(),
	}
}

// Validate checks the annotated observation, including that the network
// label is a member of the closed network set.
func (a *AnnotatedObservation) Validate() error {
	if err := a.RegionObservation.Validate(); err != nil {
		return err
	}
	if !a.Network.Valid() {
		return errors.WrapInvalid(
			fmt.Errorf("%w: network %q", errors.ErrInvalidData, a.Network),
			"AnnotatedObservation", "Validate", "check network")
	}
	return nil
}

// Marshal encodes the annotated observation for publishing.
func (a *AnnotatedObservation) Marshal() ([]byte, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, errors.WrapInvalid(err, "AnnotatedObservation", "Marshal", "encode JSON")
	}
	return data, nil
}
