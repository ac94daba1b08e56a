package status

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/matheus3301/chatwire/internal/bus"
)

// State is a named runtime state.
type State string

// Session coordinator states.
const (
	Booting         State = "BOOTING"
	Unauthenticated State = "UNAUTHENTICATED"
	Authenticated   State = "AUTHENTICATED"
)

// Push channel states.
const (
	Disconnected State = "DISCONNECTED"
	Connecting   State = "CONNECTING"
	Connected    State = "CONNECTED"
	Reconnecting State = "RECONNECTING"
)

// Table lists the allowed target states for each state.
type Table map[State][]State

// SessionTransitions drives the session coordinator.
var SessionTransitions = Table{
	Booting:         {Unauthenticated, Authenticated},
	Unauthenticated: {Authenticated},
	Authenticated:   {Unauthenticated},
}

// ChannelTransitions drives the push channel connection. Disconnected is
// reachable from every state because Disconnect() may be called at any time.
var ChannelTransitions = Table{
	Disconnected: {Connecting},
	Connecting:   {Connected, Reconnecting, Disconnected},
	Connected:    {Reconnecting, Disconnected},
	Reconnecting: {Connecting, Disconnected},
}

// Machine tracks and enforces state transitions, publishing each change.
type Machine struct {
	mu          sync.RWMutex
	current     State
	transitions Table
	bus         *bus.Bus
	kind        string
}

// NewMachine creates a machine in initial that publishes kind events on b.
// b may be nil.
func NewMachine(initial State, transitions Table, b *bus.Bus, kind string) *Machine {
	return &Machine{
		current:     initial,
		transitions: transitions,
		bus:         b,
		kind:        kind,
	}
}

// NewSessionMachine creates the coordinator's machine starting in Booting.
func NewSessionMachine(b *bus.Bus) *Machine {
	return NewMachine(Booting, SessionTransitions, b, bus.KindSessionStatus)
}

// NewChannelMachine creates the push channel's machine starting in Disconnected.
func NewChannelMachine(b *bus.Bus) *Machine {
	return NewMachine(Disconnected, ChannelTransitions, b, bus.KindPushStatus)
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Is reports whether the current state is any of states.
func (m *Machine) Is(states ...State) bool {
	return slices.Contains(states, m.Current())
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transitionLocked(to)
}

// TransitionFrom moves to to only if the current state is one of from. It
// reports whether the move happened.
func (m *Machine) TransitionFrom(to State, from ...State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !slices.Contains(from, m.current) {
		return false
	}
	return m.transitionLocked(to) == nil
}

func (m *Machine) transitionLocked(to State) error {
	allowed := m.transitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Kind:      m.kind,
			Timestamp: time.Now(),
			Payload: StatusChange{
				From: from,
				To:   to,
			},
		})
	}
	return nil
}

// StatusChange is the payload for status change events.
type StatusChange struct {
	From State
	To   State
}
