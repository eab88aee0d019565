package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/c360/neurostreams/errors"
)

// EnvPrefix is the prefix for all environment variable overrides.
const EnvPrefix = "NEUROSTREAMS_"

// PlatformConfig identifies the deployment this instance belongs to.
type PlatformConfig struct {
	Org         string `json:"org"`
	ID          string `json:"id"`
	Environment string `json:"environment,omitempty"`
}

// NATSConfig holds NATS connection settings.
type NATSConfig struct {
	URLs     []string `json:"urls"`
	Name     string   `json:"name,omitempty"`
	Username string   `json:"username,omitempty"`
	Password string   `json:"password,omitempty"`
	Token    string   `json:"token,omitempty"`
}

// URL returns the first configured server URL, honoring the
// NEUROSTREAMS_NATS_URL environment override, with the standard local
// default as fallback.
func (n NATSConfig) URL() string {
	if envURL := os.Getenv(EnvPrefix + "NATS_URL"); envURL != "" {
		return envURL
	}
	if len(n.URLs) > 0 {
		return n.URLs[0]
	}
	return "nats://localhost:4222"
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Port    int    `json:"port,omitempty"`
	Path    string `json:"path,omitempty"`
}

// AnnotatorConfig holds settings for the streaming annotator.
type AnnotatorConfig struct {
	Enabled       bool   `json:"enabled"`
	InputSubject  string `json:"input_subject,omitempty"`
	OutputSubject string `json:"output_subject,omitempty"`
	// StreamName, when set, makes the annotator publish annotated
	// observations to the named JetStream stream instead of core NATS.
	StreamName string `json:"stream_name,omitempty"`
}

// LookupConfig holds settings for the request/reply lookup service.
type LookupConfig struct {
	Enabled        bool   `json:"enabled"`
	Subject        string `json:"subject,omitempty"`
	RegionsSubject string `json:"regions_subject,omitempty"`
}

// WebsocketConfig holds settings for the websocket output.
type WebsocketConfig struct {
	Enabled bool   `json:"enabled"`
	Port    int    `json:"port,omitempty"`
	Path    string `json:"path,omitempty"`
	Subject string `json:"subject,omitempty"`
}

// Config represents the complete application configuration.
type Config struct {
	Version   string          `json:"version"`
	Platform  PlatformConfig  `json:"platform"`
	NATS      NATSConfig      `json:"nats"`
	Metrics   MetricsConfig   `json:"metrics"`
	Annotator AnnotatorConfig `json:"annotator"`
	Lookup    LookupConfig    `json:"lookup"`
	Websocket WebsocketConfig `json:"websocket"`
}

// DefaultConfig returns a configuration with every component enabled
// on its default subjects, suitable for local development.
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0.0",
		Platform: PlatformConfig{
			Org:         "local",
			ID:          "standalone",
			Environment: "development",
		},
		NATS: NATSConfig{
			URLs: []string{"nats://localhost:4222"},
			Name: "neurostreams",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
		Annotator: AnnotatorConfig{
			Enabled:       true,
			InputSubject:  "neuro.observations.raw",
			OutputSubject: "neuro.observations.labeled",
		},
		Lookup: LookupConfig{
			Enabled:        true,
			Subject:        "neuro.atlas.lookup",
			RegionsSubject: "neuro.atlas.regions",
		},
		Websocket: WebsocketConfig{
			Enabled: false,
			Port:    8081,
			Path:    "/ws",
			Subject: "neuro.observations.labeled",
		},
	}
}

// Validate checks the configuration for consistency. Validation errors
// are fatal: a process with a broken config must not start.
func (c *Config) Validate() error {
	if c.Version == "" {
		return errors.WrapFatal(errors.ErrMissingConfig, "Config", "Validate", "version required")
	}
	if c.Platform.Org == "" {
		return errors.WrapFatal(errors.ErrMissingConfig, "Config", "Validate", "platform.org required")
	}
	if c.Platform.ID == "" {
		return errors.WrapFatal(errors.ErrMissingConfig, "Config", "Validate", "platform.id required")
	}

	for _, url := range c.NATS.URLs {
		if !strings.HasPrefix(url, "nats://") && !strings.HasPrefix(url, "tls://") {
			return errors.WrapFatal(
				fmt.Errorf("%w: malformed NATS URL %q", errors.ErrInvalidConfig, url),
				"Config", "Validate", "check NATS URLs")
		}
	}

	if c.Metrics.Enabled && (c.Metrics.Port < 0 || c.Metrics.Port > 65535) {
		return errors.WrapFatal(
			fmt.Errorf("%w: metrics port %d", errors.ErrInvalidConfig, c.Metrics.Port),
			"Config", "Validate", "check metrics port")
	}

	if c.Annotator.Enabled {
		if c.Annotator.InputSubject == "" {
			return errors.WrapFatal(errors.ErrMissingConfig,
				"Config", "Validate", "annotator.input_subject required")
		}
		if c.Annotator.OutputSubject == "" {
			return errors.WrapFatal(errors.ErrMissingConfig,
				"Config", "Validate", "annotator.output_subject required")
		}
	}

	if c.Lookup.Enabled && c.Lookup.Subject == "" {
		return errors.WrapFatal(errors.ErrMissingConfig,
			"Config", "Validate", "lookup.subject required")
	}

	if c.Websocket.Enabled {
		if c.Websocket.Port <= 0 || c.Websocket.Port > 65535 {
			return errors.WrapFatal(
				fmt.Errorf("%w: websocket port %d", errors.ErrInvalidConfig, c.Websocket.Port),
				"Config", "Validate", "check websocket port")
		}
		if c.Websocket.Subject == "" {
			return errors.WrapFatal(errors.ErrMissingConfig,
				"Config", "Validate", "websocket.subject required")
		}
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.NATS.URLs = append([]string(nil), c.NATS.URLs...)
	return &clone
}

// Loader loads configuration from JSON files.
type Loader struct{}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadFile reads and parses a JSON configuration file. Fields absent
// from the file keep their DefaultConfig values.
func (l *Loader) LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapFatal(err, "Loader", "LoadFile", fmt.Sprintf("read %s", path))
	}
	return l.LoadBytes(data)
}

// LoadBytes parses JSON configuration data over the defaults.
func (l *Loader) LoadBytes(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.WrapInvalid(err, "Loader", "LoadBytes", "parse JSON config")
	}
	return cfg, nil
}
