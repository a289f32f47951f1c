package clipchain

import (
	"github.com/Carmen-Shannon/oxy-vanguard/engine/animation"
)

// registryEntry pairs an action with its trigger name.
type registryEntry struct {
	name   string
	action animation.Action
}

// registry is the implementation of the Registry interface.
type registry struct {
	entries []registryEntry
}

// Registry is the append-only list of actions created by a chain, in load-completion order.
// Index 0 is the base model's default action once it exists.
type Registry interface {
	// At returns the action at index i.
	//
	// Parameters:
	//   - i: the registry index
	//
	// Returns:
	//   - animation.Action: the action
	//   - bool: false if no action exists at i yet
	At(i int) (animation.Action, bool)

	// ByName returns the action registered under a trigger name.
	//
	// Parameters:
	//   - name: the trigger name
	//
	// Returns:
	//   - animation.Action: the action
	//   - bool: false if no such action exists
	ByName(name string) (animation.Action, bool)

	// Len returns the number of registered actions.
	Len() int

	// Names returns the trigger names in registration order.
	Names() []string

	// Actions returns the registered actions in registration order.
	Actions() []animation.Action
}

var _ Registry = &registry{}

// newRegistry creates an empty registry.
func newRegistry() *registry {
	return &registry{}
}

// append adds an action under name.
func (r *registry) append(name string, a animation.Action) {
	r.entries = append(r.entries, registryEntry{name: name, action: a})
}

func (r *registry) At(i int) (animation.Action, bool) {
	if i < 0 || i >= len(r.entries) {
		return nil, false
	}
	return r.entries[i].action, true
}

func (r *registry) ByName(name string) (animation.Action, bool) {
	for _, e := range r.entries {
		if e.name == name {
			return e.action, true
		}
	}
	return nil, false
}

func (r *registry) Len() int {
	return len(r.entries)
}

func (r *registry) Names() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.name
	}
	return out
}

func (r *registry) Actions() []animation.Action {
	out := make([]animation.Action, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.action
	}
	return out
}
