package natsclient

import (
	"log/slog"
	"sync"
	"time"

	"github.com/c360/neurostreams/metric"
)

// ClientOption is a functional option for configuring the Client
type ClientOption func(*Client) error

// WithLogger sets a structured logger for the client
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// WithMaxReconnects sets the maximum number of reconnection attempts (-1 for infinite)
func WithMaxReconnects(max int) ClientOption {
	return func(c *Client) error {
		c.maxReconnects = max
		return nil
	}
}

// WithReconnectWait sets the wait time between reconnection attempts
func WithReconnectWait(d time.Duration) ClientOption {
	return func(c *Client) error {
		c.reconnectWait = d
		return nil
	}
}

// WithPingInterval sets the ping interval for connection health checks
func WithPingInterval(d time.Duration) ClientOption {
	return func(c *Client) error {
		c.pingInterval = d
		return nil
	}
}

// WithTimeout sets the connection timeout
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) error {
		c.timeout = d
		return nil
	}
}

// WithDrainTimeout sets the timeout for draining on close
func WithDrainTimeout(d time.Duration) ClientOption {
	return func(c *Client) error {
		c.drainTimeout = d
		return nil
	}
}

// WithHandlerTimeout sets the per-message processing timeout applied to
// subscription handler contexts
func WithHandlerTimeout(d time.Duration) ClientOption {
	return func(c *Client) error {
		if d <= 0 {
			d = 30 * time.Second
		}
		c.handlerTimeout = d
		return nil
	}
}

// WithCircuitBreakerThreshold sets the number of failures before opening circuit
func WithCircuitBreakerThreshold(threshold int32) ClientOption {
	return func(c *Client) error {
		if threshold < 1 {
			threshold = 5
		}
		c.circuitThreshold = threshold
		return nil
	}
}

// WithMaxBackoff sets the maximum backoff duration for the circuit breaker
func WithMaxBackoff(d time.Duration) ClientOption {
	return func(c *Client) error {
		if d < time.Second {
			d = time.Minute
		}
		c.maxBackoff = d
		return nil
	}
}

// WithCredentials sets username and password for authentication
func WithCredentials(username, password string) ClientOption {
	return func(c *Client) error {
		c.username = username
		c.password = password
		return nil
	}
}

// WithToken sets a token for authentication
func WithToken(token string) ClientOption {
	return func(c *Client) error {
		c.token = token
		return nil
	}
}

// WithName sets the client name for identification
func WithName(name string) ClientOption {
	return func(c *Client) error {
		c.clientName = name
		return nil
	}
}

// WithHealthChangeCallback sets a callback for health status changes
func WithHealthChangeCallback(fn func(healthy bool)) ClientOption {
	return func(c *Client) error {
		c.onHealthChange = fn
		return nil
	}
}

// WithMetrics wires connection metrics (connected gauge, RTT,
// reconnect counter) into the provided registry's core metrics.
func WithMetrics(registry *metric.MetricsRegistry) ClientOption {
	return func(c *Client) error {
		if registry == nil {
			return nil
		}
		c.metrics = &connMetrics{core: registry.CoreMetrics()}
		return nil
	}
}

// connMetrics bridges connection events to the core platform metrics.
type connMetrics struct {
	core *metric.Metrics

	mu   sync.Mutex
	done chan struct{}
}

func (m *connMetrics) recordStatus(status ConnectionStatus) {
	m.core.RecordNATSStatus(status == StatusConnected)
}

func (m *connMetrics) recordReconnect() {
	m.core.RecordNATSReconnect()
}

// startRTTPolling samples connection RTT every 30 seconds until
// stopRTTPolling is called.
func (m *connMetrics) startRTTPolling(c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.done != nil {
		return
	}
	m.done = make(chan struct{})
	done := m.done

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if rtt, err := c.RTT(); err == nil {
					m.core.RecordNATSRTT(rtt)
				}
			}
		}
	}()
}

func (m *connMetrics) stopRTTPolling() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.done != nil {
		close(m.done)
		m.done = nil
	}
}
