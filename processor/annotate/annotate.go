// Package annotateprocessor labels streaming region observations with
// their resting-state network.
package annotateprocessor

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
	"github.com/c360/neurostreams/message"
	"github.com/c360/neurostreams/natsclient"
	"github.com/c360/neurostreams/restingstate"
)

// Config holds configuration for the annotator processor
type Config struct {
	InputSubject  string `json:"input_subject"`
	OutputSubject string `json:"output_subject"`
	// StreamName, when set, routes annotated observations through
	// JetStream instead of core NATS publish.
	StreamName string `json:"stream_name,omitempty"`
}

// DefaultConfig returns the default annotator configuration
func DefaultConfig() Config {
	return Config{
		InputSubject:  "neuro.observations.raw",
		OutputSubject: "neuro.observations.labeled",
	}
}

// Processor subscribes to raw region observations, resolves each
// region's resting-state network, and republishes the labeled result.
// Observations naming a region outside the parcellation are counted
// and dropped; they are never published with a guessed label.
type Processor struct {
	name       string
	config     Config
	natsClient *natsclient.Client
	logger     *slog.Logger

	// Lifecycle management
	shutdown    chan struct{}
	done        chan struct{}
	running     bool
	startTime   time.Time
	mu          sync.RWMutex
	lifecycleMu sync.Mutex

	// Flow counters
	messagesProcessed int64
	messagesAnnotated int64
	messagesDropped   int64
	errorCount        int64
	lastActivity      time.Time

	metrics *annotateMetrics
}

// NewProcessor creates an annotator from raw JSON configuration
func NewProcessor(rawConfig json.RawMessage, deps component.Dependencies) (*Processor, error) {
	config := DefaultConfig()
	if len(rawConfig) > 0 {
		if err := json.Unmarshal(rawConfig, &config); err != nil {
			return nil, errors.WrapInvalid(err, "AnnotateProcessor", "NewProcessor", "config unmarshal")
		}
	}

	if config.InputSubject == "" || config.OutputSubject == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig,
			"AnnotateProcessor", "NewProcessor", "input and output subjects required")
	}
	if config.InputSubject == config.OutputSubject {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig,
			"AnnotateProcessor", "NewProcessor", "input and output subjects must differ")
	}

	metrics, err := newAnnotateMetrics(deps.MetricsRegistry)
	if err != nil {
		deps.GetLogger().Error("Failed to initialize annotator metrics", "error", err)
		metrics = nil // continue without processor-level metrics
	}

	return &Processor{
		name:       "annotate-processor",
		config:     config,
		natsClient: deps.NATSClient,
		logger:     deps.GetLoggerWithComponent("annotate-processor"),
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		metrics:    metrics,
	}, nil
}

// Initialize prepares the processor (no-op for the annotator)
func (p *Processor) Initialize() error {
	return nil
}

// Start subscribes to the raw observation subject
func (p *Processor) Start(ctx context.Context) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if p.running {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "AnnotateProcessor", "Start", "check running state")
	}
	if p.natsClient == nil {
		return errors.WrapFatal(errors.ErrMissingConfig, "AnnotateProcessor", "Start", "NATS client required")
	}

	if err := p.natsClient.Subscribe(ctx, p.config.InputSubject, p.handleMessage); err != nil {
		return errors.WrapTransient(err, "AnnotateProcessor", "Start",
			fmt.Sprintf("subscribe to %s", p.config.InputSubject))
	}

	p.mu.Lock()
	p.running = true
	p.startTime = time.Now()
	p.mu.Unlock()

	p.metrics.recordRunning(true)
	p.logger.Info("annotator started",
		"input_subject", p.config.InputSubject,
		"output_subject", p.config.OutputSubject,
		"stream", p.config.StreamName)

	return nil
}

// Stop gracefully stops the processor
func (p *Processor) Stop(_ time.Duration) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if !p.running {
		return nil
	}

	close(p.shutdown)

	p.mu.Lock()
	p.running = false
	close(p.done)
	p.mu.Unlock()

	p.metrics.recordRunning(false)
	p.logger.Info("annotator stopped",
		"processed", atomic.LoadInt64(&p.messagesProcessed),
		"annotated", atomic.LoadInt64(&p.messagesAnnotated),
		"dropped", atomic.LoadInt64(&p.messagesDropped))

	return nil
}

// handleMessage annotates one raw observation
func (p *Processor) handleMessage(ctx context.Context, msgData []byte) {
	atomic.AddInt64(&p.messagesProcessed, 1)
	p.metrics.recordReceived()
	p.mu.Lock()
	p.lastActivity = time.Now()
	p.mu.Unlock()

	obs, err := message.ParseRegionObservation(msgData)
	if err != nil {
		atomic.AddInt64(&p.errorCount, 1)
		p.metrics.recordDrop("invalid")
		p.logger.Debug("dropping malformed observation", "error", err)
		return
	}

	start := time.Now()
	network, err := restingstate.Lookup(obs.Hemisphere, obs.Region)
	if err != nil {
		// Unknown regions are dropped, not labeled. Guessing a
		// network for an unrecognized parcellation name would
		// silently corrupt downstream analyses.
		atomic.AddInt64(&p.messagesDropped, 1)
		if stderrors.Is(err, restingstate.ErrUnknownRegion) {
			p.metrics.recordUnknownRegion(obs.Hemisphere)
			p.logger.Debug("dropping observation for unknown region",
				"hemisphere", obs.Hemisphere,
				"region", obs.Region)
		} else {
			p.metrics.recordDrop("hemisphere")
		}
		return
	}
	p.metrics.recordLookup(obs.Hemisphere, network)

	annotated := message.NewAnnotatedObservation(obs, network)
	data, err := annotated.Marshal()
	if err != nil {
		atomic.AddInt64(&p.errorCount, 1)
		p.metrics.recordDrop("marshal")
		p.logger.Error("failed to marshal annotated observation", "error", err)
		return
	}

	if p.config.StreamName != "" {
		err = p.natsClient.PublishToStream(ctx, p.config.OutputSubject, data)
	} else {
		err = p.natsClient.Publish(ctx, p.config.OutputSubject, data)
	}
	if err != nil {
		atomic.AddInt64(&p.errorCount, 1)
		p.metrics.recordDrop("publish")
		p.logger.Error("failed to publish annotated observation",
			"output_subject", p.config.OutputSubject,
			"error", err)
		return
	}

	atomic.AddInt64(&p.messagesAnnotated, 1)
	p.metrics.recordAnnotation(network, time.Since(start))
}

// Meta returns metadata describing this processor
func (p *Processor) Meta() component.Metadata {
	return component.Metadata{
		Name:        p.name,
		Type:        "processor",
		Description: "Labels region observations with their resting-state network",
		Version:     "1.0.0",
	}
}

// Health returns the current health status of this processor
func (p *Processor) Health() component.HealthStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	status := component.HealthStatus{
		Healthy:    p.running,
		LastCheck:  time.Now(),
		ErrorCount: int(atomic.LoadInt64(&p.errorCount)),
	}
	if p.running {
		status.Uptime = time.Since(p.startTime)
	}
	return status
}

// DataFlow returns current data flow metrics for this processor
func (p *Processor) DataFlow() component.FlowMetrics {
	p.mu.RLock()
	defer p.mu.RUnlock()

	processed := atomic.LoadInt64(&p.messagesProcessed)
	errorCount := atomic.LoadInt64(&p.errorCount)

	var errorRate float64
	if processed > 0 {
		errorRate = float64(errorCount) / float64(processed)
	}

	return component.FlowMetrics{
		ErrorRate:    errorRate,
		LastActivity: p.lastActivity,
	}
}
