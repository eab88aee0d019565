// Package lookupservice answers atlas queries over NATS request/reply.
package lookupservice

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/neurostreams/component"
	"github.com/c360/neurostreams/errors"
	"github.com/c360/neurostreams/metric"
	"github.com/c360/neurostreams/natsclient"
	"github.com/c360/neurostreams/restingstate"
)

// Config holds configuration for the lookup service
type Config struct {
	Subject        string `json:"subject"`
	RegionsSubject string `json:"regions_subject"`
}

// DefaultConfig returns the default lookup service configuration
func DefaultConfig() Config {
	return Config{
		Subject:        "neuro.atlas.lookup",
		RegionsSubject: "neuro.atlas.regions",
	}
}

// LookupRequest asks which network a region belongs to.
type LookupRequest struct {
	Hemisphere restingstate.Hemisphere `json:"hemisphere"`
	Region     string                  `json:"region"`
}

// LookupResponse carries the network for a known region, or an error
// string for requests the atlas cannot answer. Exactly one of Network
// and Error is set.
type LookupResponse struct {
	Hemisphere restingstate.Hemisphere `json:"hemisphere,omitempty"`
	Region     string                  `json:"region,omitempty"`
	Network    restingstate.Network    `json:"network,omitempty"`
	Error      string                  `json:"error,omitempty"`
}

// RegionsRequest asks for the full ordering table of one hemisphere.
// An empty hemisphere returns both tables.
type RegionsRequest struct {
	Hemisphere restingstate.Hemisphere `json:"hemisphere,omitempty"`
}

// RegionsResponse carries per-hemisphere region-to-network tables.
type RegionsResponse struct {
	Hemispheres map[string]map[string]restingstate.Network `json:"hemispheres,omitempty"`
	Error       string                                      `json:"error,omitempty"`
}

// Service answers region-to-network queries over NATS request/reply.
type Service struct {
	name       string
	config     Config
	natsClient *natsclient.Client
	logger     *slog.Logger
	core       *metric.Metrics

	running     bool
	startTime   time.Time
	mu          sync.RWMutex
	lifecycleMu sync.Mutex

	requestsServed int64
	errorCount     int64
	lastActivity   time.Time
}

// NewService creates a lookup service from raw JSON configuration
func NewService(rawConfig json.RawMessage, deps component.Dependencies) (*Service, error) {
	config := DefaultConfig()
	if len(rawConfig) > 0 {
		if err := json.Unmarshal(rawConfig, &config); err != nil {
			return nil, errors.WrapInvalid(err, "LookupService", "NewService", "config unmarshal")
		}
	}

	if config.Subject == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig,
			"LookupService", "NewService", "subject required")
	}

	s := &Service{
		name:       "lookup-service",
		config:     config,
		natsClient: deps.NATSClient,
		logger:     deps.GetLoggerWithComponent("lookup-service"),
	}
	if deps.MetricsRegistry != nil {
		s.core = deps.MetricsRegistry.CoreMetrics()
	}
	return s, nil
}

// Initialize prepares the service (no-op for the lookup service)
func (s *Service) Initialize() error {
	return nil
}

// Start subscribes to the lookup and regions subjects
func (s *Service) Start(ctx context.Context) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.running {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "LookupService", "Start", "check running state")
	}
	if s.natsClient == nil {
		return errors.WrapFatal(errors.ErrMissingConfig, "LookupService", "Start", "NATS client required")
	}

	if err := s.natsClient.SubscribeRequest(ctx, s.config.Subject, s.handleLookup); err != nil {
		return errors.WrapTransient(err, "LookupService", "Start",
			fmt.Sprintf("subscribe to %s", s.config.Subject))
	}
	if s.config.RegionsSubject != "" {
		if err := s.natsClient.SubscribeRequest(ctx, s.config.RegionsSubject, s.handleRegions); err != nil {
			return errors.WrapTransient(err, "LookupService", "Start",
				fmt.Sprintf("subscribe to %s", s.config.RegionsSubject))
		}
	}

	s.mu.Lock()
	s.running = true
	s.startTime = time.Now()
	s.mu.Unlock()

	if s.core != nil {
		s.core.RecordServiceStatus(s.name, 2)
		s.core.RecordHealthStatus(s.name, true)
	}
	s.logger.Info("lookup service started",
		"subject", s.config.Subject,
		"regions_subject", s.config.RegionsSubject)

	return nil
}

// Stop stops the service. Subscriptions are drained by the client on
// close, so there is nothing to tear down here beyond state.
func (s *Service) Stop(_ time.Duration) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if !s.running {
		return nil
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	if s.core != nil {
		s.core.RecordServiceStatus(s.name, 0)
		s.core.RecordHealthStatus(s.name, false)
	}
	s.logger.Info("lookup service stopped",
		"requests_served", atomic.LoadInt64(&s.requestsServed))

	return nil
}

// recordRequest counts one inbound request on the core metrics.
func (s *Service) recordRequest(kind string) {
	if s.core != nil {
		s.core.RecordMessageReceived(s.name, kind)
	}
}

// recordResult counts the outcome and duration of one request.
func (s *Service) recordResult(kind string, start time.Time, failed bool) {
	if failed {
		atomic.AddInt64(&s.errorCount, 1)
	}
	if s.core == nil {
		return
	}
	status := "ok"
	if failed {
		status = "error"
		s.core.RecordError(s.name, kind)
	}
	s.core.RecordMessageProcessed(s.name, kind, status)
	s.core.RecordProcessingDuration(s.name, kind, time.Since(start))
}

// handleLookup answers a single region-to-network query. Unknown
// regions and hemispheres produce an error response; the service never
// substitutes a default network.
func (s *Service) handleLookup(_ context.Context, data []byte) []byte {
	start := time.Now()
	atomic.AddInt64(&s.requestsServed, 1)
	s.recordRequest("lookup")
	s.mu.Lock()
	s.lastActivity = start
	s.mu.Unlock()

	resp := s.resolveLookup(data)
	s.recordResult("lookup", start, resp.Error != "")
	return mustMarshal(resp)
}

func (s *Service) resolveLookup(data []byte) LookupResponse {
	var req LookupRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return LookupResponse{Error: "malformed request: expected JSON with hemisphere and region"}
	}

	network, err := restingstate.Lookup(req.Hemisphere, req.Region)
	if err != nil {
		switch {
		case stderrors.Is(err, restingstate.ErrUnknownHemisphere):
			return LookupResponse{
				Region: req.Region,
				Error:  fmt.Sprintf("unknown hemisphere %q", req.Hemisphere),
			}
		case stderrors.Is(err, restingstate.ErrUnknownRegion):
			if s.core != nil {
				s.core.RecordUnknownRegion(req.Hemisphere.String())
			}
			return LookupResponse{
				Hemisphere: req.Hemisphere,
				Region:     req.Region,
				Error:      fmt.Sprintf("unknown region %q", req.Region),
			}
		default:
			return LookupResponse{Error: err.Error()}
		}
	}

	if s.core != nil {
		s.core.RecordLookup(req.Hemisphere.String(), network.String())
	}

	return LookupResponse{
		Hemisphere: req.Hemisphere,
		Region:     req.Region,
		Network:    network,
	}
}

// handleRegions answers an ordering-table query for one or both
// hemispheres.
func (s *Service) handleRegions(_ context.Context, data []byte) []byte {
	start := time.Now()
	atomic.AddInt64(&s.requestsServed, 1)
	s.recordRequest("regions")
	s.mu.Lock()
	s.lastActivity = start
	s.mu.Unlock()

	resp := s.resolveRegions(data)
	s.recordResult("regions", start, resp.Error != "")
	return mustMarshal(resp)
}

func (s *Service) resolveRegions(data []byte) RegionsResponse {
	var req RegionsRequest
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			return RegionsResponse{Error: "malformed request"}
		}
	}

	hemispheres := restingstate.Hemispheres()
	if req.Hemisphere != "" {
		if !req.Hemisphere.Valid() {
			return RegionsResponse{
				Error: fmt.Sprintf("unknown hemisphere %q", req.Hemisphere),
			}
		}
		hemispheres = []restingstate.Hemisphere{req.Hemisphere}
	}

	resp := RegionsResponse{
		Hemispheres: make(map[string]map[string]restingstate.Network, len(hemispheres)),
	}
	for _, h := range hemispheres {
		ordering, err := restingstate.Ordering(h)
		if err != nil {
			return RegionsResponse{Error: err.Error()}
		}
		resp.Hemispheres[h.String()] = ordering
	}

	return resp
}

func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		// Response types contain only strings and maps of strings;
		// marshal cannot fail on them.
		return []byte(`{"error":"internal encoding failure"}`)
	}
	return data
}

// Meta returns metadata describing this service
func (s *Service) Meta() component.Metadata {
	return component.Metadata{
		Name:        s.name,
		Type:        "service",
		Description: "Answers region-to-network atlas queries over request/reply",
		Version:     "1.0.0",
	}
}

// Health returns the current health status of this service
func (s *Service) Health() component.HealthStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := component.HealthStatus{
		Healthy:    s.running,
		LastCheck:  time.Now(),
		ErrorCount: int(atomic.LoadInt64(&s.errorCount)),
	}
	if s.running {
		status.Uptime = time.Since(s.startTime)
	}
	return status
}

// DataFlow returns current data flow metrics for this service
func (s *Service) DataFlow() component.FlowMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	served := atomic.LoadInt64(&s.requestsServed)
	errorCount := atomic.LoadInt64(&s.errorCount)

	var errorRate float64
	if served > 0 {
		errorRate = float64(errorCount) / float64(served)
	}

	return component.FlowMetrics{
		ErrorRate:    errorRate,
		LastActivity: s.lastActivity,
	}
}
