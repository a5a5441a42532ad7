package orchestrator

// State is the lifecycle position of the single clip request the orchestrator
// owns.
type State string

const (
	// StateIdle means no confirmed source; dependent inputs are disabled.
	StateIdle State = "idle"

	// StateLookingUp means a metadata lookup for the current source id is outstanding.
	StateLookingUp State = "looking_up"

	// StateAwaitingConfirmation means metadata arrived and the user must accept or reject it.
	StateAwaitingConfirmation State = "awaiting_confirmation"

	// StateReady means the source is confirmed and the clip fields may be edited and submitted.
	StateReady State = "ready"

	// StateSubmitting means a clip job is in flight.
	StateSubmitting State = "submitting"
)

func (s State) String() string {
	return string(s)
}

// InputsEnabled reports whether the clip fields may be edited in this state.
func (s State) InputsEnabled() bool {
	return s == StateReady
}

// IsBusy reports whether a remote call issued from this state is outstanding.
func (s State) IsBusy() bool {
	return s == StateLookingUp || s == StateSubmitting
}
