package linkowl

import (
	"fmt"
	"sync"
)

// State is the install tracking lifecycle state of a Tracker.
type State string

const (
	StateNotConfigured        State = "not_configured"
	StateConfiguredNotTracked State = "configured_not_tracked"
	StateTracking             State = "tracking"
	StateTracked              State = "tracked"
)

type event string

const (
	eventConfigure  event = "configure"
	eventBegin      event = "begin_tracking"
	eventSucceed    event = "tracking_succeeded"
	eventFail       event = "tracking_failed"
	eventRestore    event = "restore_tracked"
	eventInvalidate event = "record_cleared"
)

// transitions lists every allowed [from][event] -> to move.
var transitions = map[State]map[event]State{
	StateNotConfigured: {
		eventConfigure: StateConfiguredNotTracked,
	},
	StateConfiguredNotTracked: {
		eventBegin:   StateTracking,
		eventRestore: StateTracked,
	},
	StateTracking: {
		eventSucceed: StateTracked,
		eventFail:    StateConfiguredNotTracked,
	},
	StateTracked: {
		eventInvalidate: StateConfiguredNotTracked,
	},
}

// errNoTransition reports an event fired in a state that does not accept it.
type errNoTransition struct {
	from  State
	event event
}

func (e *errNoTransition) Error() string {
	return fmt.Sprintf("no transition from state %q for event %q", e.from, e.event)
}

// stateMachine is a mutex-guarded FSM over transitions. Fire is atomic, so
// two concurrent begin events cannot both move the machine into StateTracking.
type stateMachine struct {
	mu      sync.Mutex
	current State
}

func newStateMachine() *stateMachine {
	return &stateMachine{current: StateNotConfigured}
}

func (m *stateMachine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *stateMachine) Fire(ev event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	to, ok := transitions[m.current][ev]
	if !ok {
		return &errNoTransition{from: m.current, event: ev}
	}
	m.current = to
	return nil
}
