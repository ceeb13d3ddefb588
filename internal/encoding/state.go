package encoding

// State is a step of the two-pass encode lifecycle.
type State string

const (
	StateValidated    State = "validated"
	StatePass1Running State = "pass1_running"
	StatePass1Done    State = "pass1_done"
	StatePass2Running State = "pass2_running"
	StatePass2Done    State = "pass2_done"
	StateVerified     State = "verified"
	StateCleanedUp    State = "cleaned_up"
	StateFailed       State = "failed"
)

var nextState = map[State]State{
	StateValidated:    StatePass1Running,
	StatePass1Running: StatePass1Done,
	StatePass1Done:    StatePass2Running,
	StatePass2Running: StatePass2Done,
	StatePass2Done:    StateVerified,
	StateVerified:     StateCleanedUp,
}

// Terminal reports whether no further transition leaves s.
func (s State) Terminal() bool {
	return s == StateCleanedUp || s == StateFailed
}

// CanTransition reports whether from -> to is a legal step. Any non-terminal
// state may fail.
func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	return nextState[from] == to
}

// Transition is reported to observers on every state change. From is empty
// for the initial state.
type Transition struct {
	From State
	To   State
	Err  error
}
