// Package playback implements the engine's playback manager and
// playback state machine.
package playback

// State is a playback lifecycle state. Stopped, Playing, Paused and
// Finished are the stable states; Seeking is only used in the transient
// notification pair around a seek and is never stored by StateMachine.
type State int

const (
	Stopped State = iota
	Playing
	Paused
	Finished
	// Seeking never appears as a StateMachine value; it exists only so
	// the facade can emit the transient SEEKING notification pair
	// around a seek.
	Seeking
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "STOPPED"
	case Playing:
		return "PLAYING"
	case Paused:
		return "PAUSED"
	case Finished:
		return "FINISHED"
	case Seeking:
		return "SEEKING"
	default:
		return "UNKNOWN"
	}
}

// transitions is the single source of truth for legal state changes
// (Design Note "centralize the table so validity checks and CAS logic
// share it").
var transitions = map[State]map[State]bool{
	Stopped:  {Playing: true},
	Playing:  {Paused: true, Stopped: true, Finished: true},
	Paused:   {Playing: true, Stopped: true},
	Finished: {Playing: true, Stopped: true},
}

// CanTransition reports whether from->to is a legal playback state
// transition, independent of transitionToStopped's broader allowance.
func CanTransition(from, to State) bool {
	return transitions[from][to]
}

// StateMachine tracks one playback's stable state. It has no internal
// lock; callers must serialize access to it.
type StateMachine struct {
	current State
}

// NewStateMachine starts in Stopped.
func NewStateMachine() *StateMachine {
	return &StateMachine{current: Stopped}
}

// Current returns the current state.
func (sm *StateMachine) Current() State { return sm.current }

// CompareAndSet validates both identity (current == expected) and
// legality (expected -> next is allowed) before applying.
func (sm *StateMachine) CompareAndSet(expected, next State) bool {
	if sm.current != expected {
		return false
	}
	if !CanTransition(expected, next) {
		return false
	}
	sm.current = next
	return true
}

// TransitionToStopped is accepted from any non-Stopped state,
// including Finished.
func (sm *StateMachine) TransitionToStopped() {
	sm.current = Stopped
}

// ValidateSeekAllowed succeeds only from Playing or Paused.
func (sm *StateMachine) ValidateSeekAllowed() bool {
	return sm.current == Playing || sm.current == Paused
}

// HandleChannelInvalid forces Playing/Paused to Stopped; Stopped and
// Finished are left unchanged.
func (sm *StateMachine) HandleChannelInvalid() {
	if sm.current == Playing || sm.current == Paused {
		sm.current = Stopped
	}
}

// Set forcibly sets the state, bypassing the transition table. The
// facade does not call it (its SEEKING notification bracket never
// touches this type — see engine.Engine.Seek); tests use it to place
// the machine in a given state.
func (sm *StateMachine) Set(s State) { sm.current = s }
