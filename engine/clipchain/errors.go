package clipchain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSpec is returned by NewClipChain for an empty chain, blank names or locators, or
	// duplicate names.
	ErrInvalidSpec = errors.New("invalid clip spec")

	// ErrAlreadyStarted is returned when Start is called more than once.
	ErrAlreadyStarted = errors.New("clip chain already started")

	// ErrNoAnimation is the load failure cause for a resource without any animation clip.
	ErrNoAnimation = errors.New("resource has no animation")

	// ErrNoMixer is the load failure cause when the mixer factory returns nil for the base model.
	ErrNoMixer = errors.New("mixer factory returned nil")
)

// LoadError is the single runtime failure of a chain: the resource of one entry could not be
// loaded or bound. It unwraps to the cause reported by the loader.
type LoadError struct {
	// Index is the position of the failed entry in the chain.
	Index int

	// Name is the trigger name of the failed entry.
	Name string

	// Locator is the resource locator of the failed entry.
	Locator string

	// Err is the underlying cause.
	Err error
}

// Error returns the error message.
func (e *LoadError) Error() string {
	return fmt.Sprintf("load clip %d (%s) from %s: %v", e.Index, e.Name, e.Locator, e.Err)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error {
	return e.Err
}
