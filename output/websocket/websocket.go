// Package websocket streams labeled observations to browser clients.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/c360/neurostreams/component"
	"github.com/c360/neurostreams/errors"
	"github.com/c360/neurostreams/message"
	"github.com/c360/neurostreams/metric"
	"github.com/c360/neurostreams/natsclient"
)

// Config holds configuration for the websocket output
type Config struct {
	Port    int    `json:"port"`
	Path    string `json:"path"`
	Subject string `json:"subject"`
}

// DefaultConfig returns the default websocket output configuration
func DefaultConfig() Config {
	return Config{
		Port:    8081,
		Path:    "/ws",
		Subject: "neuro.observations.labeled",
	}
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 45 * time.Second
	maxMessageSize = 4096
)

type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	closed  atomic.Bool
}

func (c *client) write(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}

// Output runs a WebSocket server that broadcasts labeled observations
// from NATS to every connected client. Delivery is at-most-once: a
// slow or broken client is disconnected, never allowed to stall the
// broadcast.
type Output struct {
	name       string
	config     Config
	natsClient *natsclient.Client
	logger     *slog.Logger
	core       *metric.Metrics

	server    *http.Server
	upgrader  websocket.Upgrader
	clients   map[*client]struct{}
	clientsMu sync.RWMutex

	running     bool
	startTime   time.Time
	mu          sync.RWMutex
	lifecycleMu sync.Mutex

	messagesSent int64
	errorCount   int64
	lastActivity time.Time
}

var _ component.LifecycleComponent = (*Output)(nil)

// NewOutput creates a websocket output from raw JSON configuration
func NewOutput(rawConfig json.RawMessage, deps component.Dependencies) (*Output, error) {
	config := DefaultConfig()
	if len(rawConfig) > 0 {
		if err := json.Unmarshal(rawConfig, &config); err != nil {
			return nil, errors.WrapInvalid(err, "WebsocketOutput", "NewOutput", "config unmarshal")
		}
	}

	if config.Port <= 0 || config.Port > 65535 {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: port %d", errors.ErrInvalidConfig, config.Port),
			"WebsocketOutput", "NewOutput", "check port")
	}
	if config.Path == "" {
		config.Path = "/ws"
	}
	if config.Subject == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig,
			"WebsocketOutput", "NewOutput", "subject required")
	}

	o := &Output{
		name:       "websocket-output",
		config:     config,
		natsClient: deps.NATSClient,
		logger:     deps.GetLoggerWithComponent("websocket-output"),
		clients:    make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Visualization dashboards connect from arbitrary origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	if deps.MetricsRegistry != nil {
		o.core = deps.MetricsRegistry.CoreMetrics()
	}
	return o, nil
}

// Initialize prepares the output (no-op for websocket)
func (o *Output) Initialize() error {
	return nil
}

// Start subscribes to the labeled subject and starts the HTTP server
func (o *Output) Start(ctx context.Context) error {
	o.lifecycleMu.Lock()
	defer o.lifecycleMu.Unlock()

	if o.running {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "WebsocketOutput", "Start", "check running state")
	}
	if o.natsClient == nil {
		return errors.WrapFatal(errors.ErrMissingConfig, "WebsocketOutput", "Start", "NATS client required")
	}

	if err := o.natsClient.Subscribe(ctx, o.config.Subject, o.handleMessage); err != nil {
		return errors.WrapTransient(err, "WebsocketOutput", "Start",
			fmt.Sprintf("subscribe to %s", o.config.Subject))
	}

	mux := http.NewServeMux()
	mux.HandleFunc(o.config.Path, o.handleUpgrade)

	o.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", o.config.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := o.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			o.logger.Error("websocket server failed", "error", err)
		}
	}()

	o.mu.Lock()
	o.running = true
	o.startTime = time.Now()
	o.mu.Unlock()

	if o.core != nil {
		o.core.RecordServiceStatus(o.name, 2)
		o.core.RecordHealthStatus(o.name, true)
	}
	o.logger.Info("websocket output started",
		"port", o.config.Port,
		"path", o.config.Path,
		"subject", o.config.Subject)

	return nil
}

// Stop closes client connections and shuts down the HTTP server
func (o *Output) Stop(timeout time.Duration) error {
	o.lifecycleMu.Lock()
	defer o.lifecycleMu.Unlock()

	if !o.running {
		return nil
	}

	o.clientsMu.Lock()
	for c := range o.clients {
		o.closeClient(c)
	}
	o.clients = make(map[*client]struct{})
	o.clientsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var shutdownErr error
	if o.server != nil {
		if err := o.server.Shutdown(ctx); err != nil {
			shutdownErr = errors.WrapTransient(err, "WebsocketOutput", "Stop", "shutdown HTTP server")
		}
		o.server = nil
	}

	o.mu.Lock()
	o.running = false
	o.mu.Unlock()

	if o.core != nil {
		o.core.RecordServiceStatus(o.name, 0)
		o.core.RecordHealthStatus(o.name, false)
	}
	o.logger.Info("websocket output stopped",
		"messages_sent", atomic.LoadInt64(&o.messagesSent))

	return shutdownErr
}

// ClientCount returns the number of connected clients
func (o *Output) ClientCount() int {
	o.clientsMu.RLock()
	defer o.clientsMu.RUnlock()
	return len(o.clients)
}

// handleUpgrade upgrades an HTTP request to a websocket connection
func (o *Output) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := o.upgrader.Upgrade(w, r, nil)
	if err != nil {
		atomic.AddInt64(&o.errorCount, 1)
		o.logger.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &client{conn: conn}
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	o.clientsMu.Lock()
	o.clients[c] = struct{}{}
	count := len(o.clients)
	o.clientsMu.Unlock()

	o.logger.Debug("client connected", "remote", r.RemoteAddr, "clients", count)

	go o.readLoop(c)
	go o.pingLoop(c)
}

// readLoop drains inbound frames so pong handlers run, and detects
// disconnects.
func (o *Output) readLoop(c *client) {
	defer o.removeClient(c)

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (o *Output) pingLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		if c.closed.Load() {
			return
		}
		if err := c.write(websocket.PingMessage, nil); err != nil {
			o.removeClient(c)
			return
		}
	}
}

// handleMessage broadcasts one labeled observation to all clients.
// Payloads that do not decode as annotated observations are dropped;
// the broadcast carries only the domain protocol.
func (o *Output) handleMessage(_ context.Context, data []byte) {
	o.mu.Lock()
	o.lastActivity = time.Now()
	o.mu.Unlock()

	if o.core != nil {
		o.core.RecordMessageReceived(o.name, "observation")
	}

	var annotated message.AnnotatedObservation
	if err := json.Unmarshal(data, &annotated); err != nil {
		atomic.AddInt64(&o.errorCount, 1)
		if o.core != nil {
			o.core.RecordError(o.name, "invalid")
		}
		o.logger.Debug("dropping non-observation payload", "error", err)
		return
	}
	if err := annotated.Validate(); err != nil {
		atomic.AddInt64(&o.errorCount, 1)
		if o.core != nil {
			o.core.RecordError(o.name, "invalid")
		}
		return
	}

	o.clientsMu.RLock()
	clients := make([]*client, 0, len(o.clients))
	for c := range o.clients {
		clients = append(clients, c)
	}
	o.clientsMu.RUnlock()

	for _, c := range clients {
		if err := c.write(websocket.TextMessage, data); err != nil {
			o.removeClient(c)
			continue
		}
		atomic.AddInt64(&o.messagesSent, 1)
	}

	if o.core != nil && len(clients) > 0 {
		o.core.RecordMessagePublished(o.name, "websocket")
	}
}

func (o *Output) removeClient(c *client) {
	o.clientsMu.Lock()
	if _, ok := o.clients[c]; ok {
		delete(o.clients, c)
		o.closeClient(c)
	}
	o.clientsMu.Unlock()
}

func (o *Output) closeClient(c *client) {
	if c.closed.CompareAndSwap(false, true) {
		_ = c.write(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = c.conn.Close()
	}
}

// Meta returns metadata describing this output
func (o *Output) Meta() component.Metadata {
	return component.Metadata{
		Name:        o.name,
		Type:        "output",
		Description: "Broadcasts labeled observations to websocket clients",
		Version:     "1.0.0",
	}
}

// Health returns the current health status of this output
func (o *Output) Health() component.HealthStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()

	status := component.HealthStatus{
		Healthy:    o.running,
		LastCheck:  time.Now(),
		ErrorCount: int(atomic.LoadInt64(&o.errorCount)),
	}
	if o.running {
		status.Uptime = time.Since(o.startTime)
	}
	return status
}

// DataFlow returns current data flow metrics for this output
func (o *Output) DataFlow() component.FlowMetrics {
	o.mu.RLock()
	defer o.mu.RUnlock()

	sent := atomic.LoadInt64(&o.messagesSent)
	errorCount := atomic.LoadInt64(&o.errorCount)

	var errorRate float64
	if sent > 0 {
		errorRate = float64(errorCount) / float64(sent)
	}

	return component.FlowMetrics{
		ErrorRate:    errorRate,
		LastActivity: o.lastActivity,
	}
}
