package component

import (
	"log/slog"

	"github.com/c360/neurostreams/metric"
	"github.com/c360/neurostreams/natsclient"
)

// PlatformMeta identifies the deployment a component runs inside.
type PlatformMeta struct {
	Org         string `json:"org"`
	ID          string `json:"id"`
	Environment string `json:"environment,omitempty"`
}

// Dependencies provides the external dependencies components need.
// Components receive this structure at construction instead of
// individual fields.
type Dependencies struct {
	NATSClient      *natsclient.Client      // NATS client for messaging
	MetricsRegistry *metric.MetricsRegistry // Metrics registry for Prometheus (can be nil)
	Logger          *slog.Logger            // Structured logger (can be nil, defaults to slog.Default())
	Platform        PlatformMeta            // Platform identity
}

// GetLogger returns the configured logger or a default logger if none is provided
func (d *Dependencies) GetLogger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// GetLoggerWithComponent returns a logger configured with component context
func (d *Dependencies) GetLoggerWithComponent(componentName string) *slog.Logger {
	return d.GetLogger().With("component", componentName)
}
