package status

import (
	"testing"

	"github.com/hobbynet/hobnet/internal/bus"
)

func TestInitialStatus(t *testing.T) {
	m := NewMachine(nil)
	if m.Current() != Idle {
		t.Errorf("initial status = %s, want idle", m.Current())
	}
}

func TestValidTransitions(t *testing.T) {
	tests := []struct {
		path []Status
	}{
		{[]Status{Loading, Succeeded, Idle}},
		{[]Status{Loading, Failed, Loading, Succeeded}},
		{[]Status{Loading, Failed, Idle}},
	}
	for _, tt := range tests {
		m := NewMachine(nil)
		for _, s := range tt.path {
			if err := m.Transition(s); err != nil {
				t.Fatalf("Transition(%s): %v", s, err)
			}
		}
		if m.Current() != tt.path[len(tt.path)-1] {
			t.Errorf("status = %s, want %s", m.Current(), tt.path[len(tt.path)-1])
		}
	}
}

func TestInvalidTransitions(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
	}{
		{Idle, Succeeded},
		{Idle, Failed},
		{Succeeded, Loading},
		{Succeeded, Failed},
		{Loading, Idle},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			m := NewMachineAt(nil, tt.from)
			if err := m.Transition(tt.to); err == nil {
				t.Errorf("Transition(%s -> %s) should fail", tt.from, tt.to)
			}
			if m.Current() != tt.from {
				t.Errorf("failed transition changed status to %s", m.Current())
			}
		})
	}
}

func TestTransitionPublishesChange(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("session.", 10)
	defer unsub()

	m := NewMachine(b)
	if err := m.Transition(Loading); err != nil {
		t.Fatal(err)
	}

	evt := <-ch
	if evt.Topic != bus.TopicSessionStatus {
		t.Errorf("topic = %q, want %q", evt.Topic, bus.TopicSessionStatus)
	}
	change, ok := evt.Payload.(Change)
	if !ok {
		t.Fatalf("payload type = %T, want Change", evt.Payload)
	}
	if change.From != Idle || change.To != Loading {
		t.Errorf("change = %+v, want idle->loading", change)
	}
}
