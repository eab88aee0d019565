// Package restingstate provides the resting-state network reference
// tables for the Desikan-Killiany cortical parcellation.
//
// # Data Source
//
// The assignment of cortical areas to resting-state networks follows:
//
//	Kabbara, A., EL Falou, W., Khalil, M. et al.
//	The dynamic functional core network of the human brain at rest.
//	Sci Rep 7, 2936 (2017). https://doi.org/10.1038/s41598-017-03420-6
//
// Five networks are named, plus an explicit "other" bucket:
//   - DMN: Default Mode Network
//   - DAN: Dorsal Attentional Network
//   - SAN: Salience Network
//   - AUD: Auditory Network
//   - VIS: Visual Network
//   - other: regions outside the five named networks
//
// # Hemisphere Tables
//
// Two tables exist, one per hemisphere. They share an identical key
// set (the 34 Desikan-Killiany cortical regions) but are allowed to
// assign different networks to the same region; in the published
// assignment only caudalanteriorcingulate differs (DAN on the left,
// DMN on the right).
//
// The tables are immutable reference data: populated at package init
// and never mutated, so any number of goroutines may read them
// concurrently without synchronization.
//
// # Lookup Semantics
//
// Lookup is a total function over the recognized region names and an
// error for everything else:
//
//	network, err := restingstate.Lookup(restingstate.HemisphereLeft, "insula")
//	// network == restingstate.NetworkSAN
//
//	_, err = restingstate.Lookup(restingstate.HemisphereLeft, "unknown_region")
//	// errors.Is(err, restingstate.ErrUnknownRegion)
//
// Unrecognized region names are an error, never a silent default:
// the "other" label is a real anatomical assignment (bankssts,
// precentral, ...) and must not be conflated with bad input.
//
// # Region Metadata
//
// Beyond the network assignment, each region carries registered
// metadata (display title, anatomical lobe) in a global registry
// mirroring the platform vocabulary pattern:
//
//	meta := restingstate.GetRegionMetadata("bankssts")
//	// meta.Title == "Banks of the Superior Temporal Sulcus"
//	// meta.Lobe  == restingstate.LobeTemporal
//
// Applications may Register additional metadata or override the
// built-in entries during their own initialization.
package restingstate
