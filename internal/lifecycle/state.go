// Package lifecycle drives the multi-step marketplace workflows through
// explicit state machines. One sum-typed state per workflow replaces the
// usual pile of boolean flags, so invalid combinations cannot be represented.
package lifecycle

// Phase is the discriminant of a workflow state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseApproving
	PhaseApproved
	PhaseCreatingSale
	PhaseCreated
	PhasePurchasing
	PhasePurchased
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseApproving:
		return "approving"
	case PhaseApproved:
		return "approved"
	case PhaseCreatingSale:
		return "creating_sale"
	case PhaseCreated:
		return "created"
	case PhasePurchasing:
		return "purchasing"
	case PhasePurchased:
		return "purchased"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is one workflow instance's current position plus its user-facing
// status text.
type State struct {
	Phase   Phase
	Message string
}

// Pending reports whether a remote operation is outstanding. A pending
// workflow refuses re-dispatch.
func (s State) Pending() bool {
	switch s.Phase {
	case PhaseApproving, PhaseCreatingSale, PhasePurchasing:
		return true
	default:
		return false
	}
}

// Terminal reports whether the workflow instance has finished, successfully
// or not. A terminal instance restarts from Idle on the next user action.
func (s State) Terminal() bool {
	switch s.Phase {
	case PhaseCreated, PhasePurchased, PhaseFailed:
		return true
	default:
		return false
	}
}
