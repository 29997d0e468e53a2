package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/hobbynet/hobnet/internal/bus"
)

// Status represents the session request lifecycle.
type Status string

const (
	Idle      Status = "idle"
	Loading   Status = "loading"
	Succeeded Status = "succeeded"
	Failed    Status = "failed"
)

// validTransitions defines the allowed session status transitions.
// Succeeded only ever returns to Idle, and only logout does that.
var validTransitions = map[Status][]Status{
	Idle:      {Loading},
	Loading:   {Succeeded, Failed},
	Succeeded: {Idle},
	Failed:    {Loading, Idle},
}

// Machine tracks and enforces session status transitions.
type Machine struct {
	mu      sync.RWMutex
	current Status
	bus     *bus.Bus
}

// Change is the payload of a session.status_changed event.
type Change struct {
	From Status
	To   Status
}

// NewMachine creates a machine starting in Idle.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{current: Idle, bus: b}
}

// NewMachineAt creates a machine in the given state. Used when restoring
// a persisted session, which boots directly into Succeeded.
func NewMachineAt(b *bus.Bus, s Status) *Machine {
	return &Machine{current: s, bus: b}
}

// Current returns the current status.
func (m *Machine) Current() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition moves to a new status, or errors if the move is not allowed.
func (m *Machine) Transition(to Status) error {
	m.mu.Lock()
	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		from := m.current
		m.mu.Unlock()
		return fmt.Errorf("invalid status transition from %s to %s", from, to)
	}
	from := m.current
	m.current = to
	m.mu.Unlock()

	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Topic:   bus.TopicSessionStatus,
			Payload: Change{From: from, To: to},
		})
	}
	return nil
}
