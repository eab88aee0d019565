package restingstate

import (
	stderrors "errors"
	"fmt"
	"sort"

	"github.com/c360/neurostreams/errors"
)

// Lookup error variables. Callers must treat an unknown region as an
// error condition: the "other" label belongs to specific anatomical
// regions and is never a fallback for unrecognized input.
var (
	ErrUnknownRegion     = stderrors.New("unrecognized region name")
	ErrUnknownHemisphere = stderrors.New("unrecognized hemisphere")
)

// LeftOrdering maps left-hemisphere Desikan-Killiany region names to
// their resting-state network assignment.
//
// Assignment of areas to resting state networks follows:
// Kabbara, A., EL Falou, W., Khalil, M. et al.
// The dynamic functional core network of the human brain at rest.
// Sci Rep 7, 2936 (2017). https://doi.org/10.1038/s41598-017-03420-6
//
// The map is reference data; it is populated once and never mutated.
// Use Lookup or Ordering for checked access.
var LeftOrdering = map[string]Network{
	"isthmuscingulate":         NetworkDMN,
	"medialorbitofrontal":      NetworkDMN,
	"posteriorcingulate":       NetworkDMN,
	"precuneus":                NetworkDMN,
	"rostralanteriorcingulate": NetworkDMN,
	"lateralorbitofrontal":     NetworkDMN,
	"parahippocampal":          NetworkDMN,
	"caudalanteriorcingulate":  NetworkDAN,
	"inferiortemporal":         NetworkDAN,
	"middletemporal":           NetworkDAN,
	"parsopercularis":          NetworkDAN,
	"parsorbitalis":            NetworkDAN,
	"parstriangularis":         NetworkDAN,
	"insula":                   NetworkSAN,
	"rostralmiddlefrontal":     NetworkSAN,
	"supramarginal":            NetworkSAN,
	"caudalmiddlefrontal":      NetworkSAN,
	"superiortemporal":         NetworkAUD,
	"cuneus":                   NetworkVIS,
	"lateraloccipital":         NetworkVIS,
	"fusiform":                 NetworkVIS,
	"lingual":                  NetworkVIS,
	"bankssts":                 NetworkOther,
	"entorhinal":               NetworkOther,
	"frontalpole":              NetworkOther,
	"inferiorparietal":         NetworkOther,
	"superiorfrontal":          NetworkOther,
	"paracentral":              NetworkOther,
	"pericalcarine":            NetworkOther,
	"postcentral":              NetworkOther,
	"precentral":               NetworkOther,
	"superiorparietal":         NetworkOther,
	"temporalpole":             NetworkOther,
	"transversetemporal":       NetworkOther,
}

// RightOrdering maps right-hemisphere region names to their
// resting-state network assignment. The key set is identical to
// LeftOrdering; assignments differ only for caudalanteriorcingulate,
// which joins the DMN on the right.
var RightOrdering = map[string]Network{
	"isthmuscingulate":         NetworkDMN,
	"medialorbitofrontal":      NetworkDMN,
	"posteriorcingulate":       NetworkDMN,
	"precuneus":                NetworkDMN,
	"rostralanteriorcingulate": NetworkDMN,
	"lateralorbitofrontal":     NetworkDMN,
	"parahippocampal":          NetworkDMN,
	"caudalanteriorcingulate":  NetworkDMN,
	"inferiortemporal":         NetworkDAN,
	"middletemporal":           NetworkDAN,
	"parsopercularis":          NetworkDAN,
	"parsorbitalis":            NetworkDAN,
	"parstriangularis":         NetworkDAN,
	"insula":                   NetworkSAN,
	"rostralmiddlefrontal":     NetworkSAN,
	"supramarginal":            NetworkSAN,
	"caudalmiddlefrontal":      NetworkSAN,
	"superiortemporal":         NetworkAUD,
	"cuneus":                   NetworkVIS,
	"lateraloccipital":         NetworkVIS,
	"fusiform":                 NetworkVIS,
	"lingual":                  NetworkVIS,
	"bankssts":                 NetworkOther,
	"entorhinal":               NetworkOther,
	"frontalpole":              NetworkOther,
	"inferiorparietal":         NetworkOther,
	"superiorfrontal":          NetworkOther,
	"paracentral":              NetworkOther,
	"pericalcarine":            NetworkOther,
	"postcentral":              NetworkOther,
	"precentral":               NetworkOther,
	"superiorparietal":         NetworkOther,
	"temporalpole":             NetworkOther,
	"transversetemporal":       NetworkOther,
}

// ordering returns the raw table for a hemisphere.
func ordering(h Hemisphere) (map[string]Network, error) {
	switch h {
	case HemisphereLeft:
		return LeftOrdering, nil
	case HemisphereRight:
		return RightOrdering, nil
	default:
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %q", ErrUnknownHemisphere, h),
			"restingstate", "ordering", "select hemisphere table")
	}
}

// Lookup resolves the resting-state network for a region name in the
// given hemisphere. Region names follow the Desikan-Killiany naming
// convention: lowercase, no whitespace (e.g. "posteriorcingulate").
//
// Unknown region names return ErrUnknownRegion; the caller must not
// substitute NetworkOther, which is a real anatomical assignment.
func Lookup(h Hemisphere, region string) (Network, error) {
	table, err := ordering(h)
	if err != nil {
		return "", err
	}

	network, ok := table[region]
	if !ok {
		return "", errors.WrapInvalid(
			fmt.Errorf("%w: %q (%s hemisphere)", ErrUnknownRegion, region, h),
			"restingstate", "Lookup", "resolve region")
	}

	return network, nil
}

// Ordering returns a copy of the hemisphere table so callers can
// iterate or serialize it without being able to mutate the reference
// data.
func Ordering(h Hemisphere) (map[string]Network, error) {
	table, err := ordering(h)
	if err != nil {
		return nil, err
	}

	out := make(map[string]Network, len(table))
	for region, network := range table {
		out[region] = network
	}
	return out, nil
}

// Regions returns all recognized region names in sorted order. Both
// hemisphere tables share the same key set, so the list applies to
// either hemisphere.
func Regions() []string {
	regions := make([]string, 0, len(LeftOrdering))
	for region := range LeftOrdering {
		regions = append(regions, region)
	}
	sort.Strings(regions)
	return regions
}

// RegionCount is the number of cortical regions per hemisphere in the
// Desikan-Killiany parcellation.
const RegionCount = 34

// RegionsInNetwork returns the sorted region names assigned to a
// network in the given hemisphere.
func RegionsInNetwork(h Hemisphere, n Network) ([]string, error) {
	table, err := ordering(h)
	if err != nil {
		return nil, err
	}

	var regions []string
	for region, network := range table {
		if network == n {
			regions = append(regions, region)
		}
	}
	sort.Strings(regions)
	return regions, nil
}
