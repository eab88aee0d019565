package restingstate

// Network identifies a resting-state network of the human brain at rest.
//
// The label set is closed: the five named networks from Kabbara et al.
// (Sci Rep 7, 2936, 2017) plus NetworkOther for cortical regions the
// study assigns to none of them. NetworkOther is a legitimate anatomical
// assignment, never a fallback for unrecognized input.
type Network string

const (
	// NetworkDMN is the default mode network.
	NetworkDMN Network = "DMN"
	// NetworkDAN is the dorsal attentional network.
	NetworkDAN Network = "DAN"
	// NetworkSAN is the salience network.
	NetworkSAN Network = "SAN"
	// NetworkAUD is the auditory network.
	NetworkAUD Network = "AUD"
	// NetworkVIS is the visual network.
	NetworkVIS Network = "VIS"
	// NetworkOther marks regions outside the five named networks.
	NetworkOther Network = "other"
)

// String returns the wire label of the network.
func (n Network) String() string {
	return string(n)
}

// Valid reports whether n is one of the closed set of network labels.
func (n Network) Valid() bool {
	switch n {
	case NetworkDMN, NetworkDAN, NetworkSAN, NetworkAUD, NetworkVIS, NetworkOther:
		return true
	default:
		return false
	}
}

// Title returns the human-readable name of the network.
func (n Network) Title() string {
	switch n {
	case NetworkDMN:
		return "Default Mode Network"
	case NetworkDAN:
		return "Dorsal Attentional Network"
	case NetworkSAN:
		return "Salience Network"
	case NetworkAUD:
		return "Auditory Network"
	case NetworkVIS:
		return "Visual Network"
	case NetworkOther:
		return "Unassigned"
	default:
		return "Unknown"
	}
}

// Networks returns the closed set of network labels in a stable order.
func Networks() []Network {
	return []Network{NetworkDMN, NetworkDAN, NetworkSAN, NetworkAUD, NetworkVIS, NetworkOther}
}

// Hemisphere identifies a cerebral hemisphere.
type Hemisphere string

const (
	// HemisphereLeft selects the left-hemisphere ordering table.
	HemisphereLeft Hemisphere = "left"
	// HemisphereRight selects the right-hemisphere ordering table.
	HemisphereRight Hemisphere = "right"
)

// String returns the wire label of the hemisphere.
func (h Hemisphere) String() string {
	return string(h)
}

// Valid reports whether h names a known hemisphere.
func (h Hemisphere) Valid() bool {
	return h == HemisphereLeft || h == HemisphereRight
}

// Hemispheres returns both hemispheres in left, right order.
func Hemispheres() []Hemisphere {
	return []Hemisphere{HemisphereLeft, HemisphereRight}
}
