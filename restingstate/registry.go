package restingstate

import (
	"sync"
)

// Lobe identifies the anatomical lobe a cortical region belongs to.
type Lobe string

const (
	// LobeFrontal is the frontal lobe.
	LobeFrontal Lobe = "frontal"
	// LobeParietal is the parietal lobe.
	LobeParietal Lobe = "parietal"
	// LobeTemporal is the temporal lobe.
	LobeTemporal Lobe = "temporal"
	// LobeOccipital is the occipital lobe.
	LobeOccipital Lobe = "occipital"
	// LobeCingulate is the cingulate cortex.
	LobeCingulate Lobe = "cingulate"
	// LobeInsula is the insular cortex.
	LobeInsula Lobe = "insula"
)

// String returns the string representation of the lobe.
func (l Lobe) String() string {
	return string(l)
}

// RegionMetadata describes a parcellation region beyond its network
// assignment. Name is the atlas key used in the ordering tables;
// Title is the human-readable form for display and reports.
type RegionMetadata struct {
	Name        string
	Title       string
	Lobe        Lobe
	Description string
}

// Global region registry
var (
	registryMu     sync.RWMutex
	regionRegistry = make(map[string]RegionMetadata)
)

// Option is a functional option for configuring region registration.
type Option func(*RegionMetadata)

// WithTitle sets the human-readable title of the region.
func WithTitle(title string) Option {
	return func(m *RegionMetadata) {
		m.Title = title
	}
}

// WithLobe sets the anatomical lobe of the region.
func WithLobe(lobe Lobe) Option {
	return func(m *RegionMetadata) {
		m.Lobe = lobe
	}
}

// WithDescription sets a free-form description of the region.
func WithDescription(desc string) Option {
	return func(m *RegionMetadata) {
		m.Description = desc
	}
}

// Register registers a region with its metadata in the global registry.
// Called during package initialization for the built-in atlas; domain
// applications may override entries with their own metadata.
func Register(name string, opts ...Option) {
	meta := RegionMetadata{
		Name: name,
	}

	for _, opt := range opts {
		opt(&meta)
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	regionRegistry[name] = meta
}

// GetRegionMetadata retrieves metadata for a region from the registry.
// Returns nil if the region has no registered metadata. Thread-safe for
// concurrent callers.
func GetRegionMetadata(name string) *RegionMetadata {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if meta, exists := regionRegistry[name]; exists {
		// Return a copy to prevent external modification
		metaCopy := meta
		return &metaCopy
	}

	return nil
}

// ListRegisteredRegions returns the names of all regions with
// registered metadata. Useful for debugging and introspection.
func ListRegisteredRegions() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(regionRegistry))
	for name := range regionRegistry {
		names = append(names, name)
	}
	return names
}

// RegionsInLobe returns the names of registered regions assigned to
// the given lobe.
func RegionsInLobe(lobe Lobe) []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var names []string
	for name, meta := range regionRegistry {
		if meta.Lobe == lobe {
			names = append(names, name)
		}
	}
	return names
}

// ClearRegistry clears all registered region metadata.
// This is primarily useful for testing.
func ClearRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()
	regionRegistry = make(map[string]RegionMetadata)
}
