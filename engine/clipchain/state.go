package clipchain

import (
	"fmt"
)

// Phase is the coarse stage of a chain.
type Phase int

const (
	// PhaseIdle is the phase before Start.
	PhaseIdle Phase = iota
	// PhasePendingBase waits for the base model resource.
	PhasePendingBase
	// PhasePendingClip waits for the clip resource at State.Index.
	PhasePendingClip
	// PhaseReady is reached once every entry has loaded.
	PhaseReady
	// PhaseFailed is terminal after a load failure at State.Index.
	PhaseFailed
)

// State is a chain's position in its linear sequence of loads.
type State struct {
	// Phase is the current stage.
	Phase Phase

	// Index is the entry being loaded (pending phases) or the entry that failed (PhaseFailed).
	Index int
}

// String returns the state name: Idle, PendingBase, PendingClip<k>, Ready or Failed.
func (s State) String() string {
	switch s.Phase {
	case PhaseIdle:
		return "Idle"
	case PhasePendingBase:
		return "PendingBase"
	case PhasePendingClip:
		return fmt.Sprintf("PendingClip%d", s.Index)
	case PhaseReady:
		return "Ready"
	case PhaseFailed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s.Phase))
	}
}

// pendingState returns the pending state for entry i.
func pendingState(i int) State {
	if i == 0 {
		return State{Phase: PhasePendingBase}
	}
	return State{Phase: PhasePendingClip, Index: i}
}
