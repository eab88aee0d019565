package restingstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNetworkValid(t *testing.T) {
	tests := []struct {
		name     string
		network  Network
		expected bool
	}{
		{"DMN", NetworkDMN, true},
		{"DAN", NetworkDAN, true},
		{"SAN", NetworkSAN, true},
		{"AUD", NetworkAUD, true},
		{"VIS", NetworkVIS, true},
		{"other", NetworkOther, true},
		{"empty", Network(""), false},
		{"lowercase dmn", Network("dmn"), false},
		{"arbitrary", Network("SMN"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.network.Valid())
		})
	}
}

func TestNetworkTitle(t *testing.T) {
	assert.Equal(t, "Default Mode Network", NetworkDMN.Title())
	assert.Equal(t, "Dorsal Attentional Network", NetworkDAN.Title())
	assert.Equal(t, "Salience Network", NetworkSAN.Title())
	assert.Equal(t, "Auditory Network", NetworkAUD.Title())
	assert.Equal(t, "Visual Network", NetworkVIS.Title())
	assert.Equal(t, "Unassigned", NetworkOther.Title())
	assert.Equal(t, "Unknown", Network("bogus").Title())
}

func TestNetworksAreStable(t *testing.T) {
	networks := Networks()
	assert.Equal(t, []Network{
		NetworkDMN, NetworkDAN, NetworkSAN, NetworkAUD, NetworkVIS, NetworkOther,
	}, networks)

	for _, n := range networks {
		assert.True(t, n.Valid())
	}
}

func TestHemisphereValid(t *testing.T) {
	assert.True(t, HemisphereLeft.Valid())
	assert.True(t, HemisphereRight.Valid())
	assert.False(t, Hemisphere("").Valid())
	assert.False(t, Hemisphere("Left").Valid())
	assert.False(t, Hemisphere("medial").Valid())
}

func TestHemispheres(t *testing.T) {
	assert.Equal(t, []Hemisphere{HemisphereLeft, HemisphereRight}, Hemispheres())
}
