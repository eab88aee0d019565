package component

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/c360/neurostreams/errors"
)

// State represents the current lifecycle state of a component
type State int

const (
	// StateCreated indicates component was created but not initialized
	StateCreated State = iota
	// StateInitialized indicates component was initialized but not started
	StateInitialized
	// StateStarted indicates component is running
	StateStarted
	// StateStopped indicates component was stopped
	StateStopped
	// StateFailed indicates component failed during lifecycle operation
	StateFailed
)

// String returns a string representation of the component state
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInitialized:
		return "initialized"
	case StateStarted:
		return "started"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// LifecycleComponent defines components with full lifecycle management:
//   - Initialize() error                  // setup only, no context
//   - Start(ctx context.Context) error    // start with context passed through
//   - Stop(timeout time.Duration) error   // graceful shutdown with timeout
type LifecycleComponent interface {
	Discoverable
	Initialize() error
	Start(ctx context.Context) error
	Stop(timeout time.Duration) error
}

type managed struct {
	component LifecycleComponent
	state     State
	lastError error
}

// Manager starts registered components in registration order and stops
// them in reverse.
type Manager struct {
	mu         sync.Mutex
	components []*managed
}

// NewManager creates an empty component manager.
func NewManager() *Manager {
	return &Manager{}
}

// Register adds a component to the manager. Registration order is
// start order.
func (m *Manager) Register(c LifecycleComponent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components = append(m.components, &managed{component: c, state: StateCreated})
}

// Names returns the registered component names in start order.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.components))
	for _, mc := range m.components {
		names = append(names, mc.component.Meta().Name)
	}
	return names
}

// State returns the lifecycle state of a named component.
func (m *Manager) State(name string) (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, mc := range m.components {
		if mc.component.Meta().Name == name {
			return mc.state, true
		}
	}
	return StateCreated, false
}

// InitializeAll initializes every registered component and stops at the
// first failure.
func (m *Manager) InitializeAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, mc := range m.components {
		if err := mc.component.Initialize(); err != nil {
			mc.state = StateFailed
			mc.lastError = err
			return errors.WrapFatal(err, "Manager", "InitializeAll",
				fmt.Sprintf("initialize %s", mc.component.Meta().Name))
		}
		mc.state = StateInitialized
	}
	return nil
}

// StartAll starts every initialized component in registration order.
// Every component must have passed InitializeAll first. On failure,
// components already started are stopped in reverse.
func (m *Manager) StartAll(ctx context.Context, stopTimeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, mc := range m.components {
		if mc.state != StateInitialized {
			return errors.WrapFatal(errors.ErrNotStarted, "Manager", "StartAll",
				fmt.Sprintf("start uninitialized %s", mc.component.Meta().Name))
		}
		if err := mc.component.Start(ctx); err != nil {
			mc.state = StateFailed
			mc.lastError = err

			for j := i - 1; j >= 0; j-- {
				_ = m.components[j].component.Stop(stopTimeout)
				m.components[j].state = StateStopped
			}
			return errors.WrapFatal(err, "Manager", "StartAll",
				fmt.Sprintf("start %s", mc.component.Meta().Name))
		}
		mc.state = StateStarted
	}
	return nil
}

// StopAll stops every started component in reverse registration order,
// collecting all errors.
func (m *Manager) StopAll(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for i := len(m.components) - 1; i >= 0; i-- {
		mc := m.components[i]
		if mc.state != StateStarted {
			continue
		}
		if err := mc.component.Stop(timeout); err != nil {
			mc.state = StateFailed
			mc.lastError = err
			errs = append(errs, errors.Wrap(err, "Manager", "StopAll",
				fmt.Sprintf("stop %s", mc.component.Meta().Name)))
			continue
		}
		mc.state = StateStopped
	}
	return stderrors.Join(errs...)
}
