package clipchain

import (
	"github.com/Carmen-Shannon/oxy-vanguard/engine/animation"

	"go.uber.org/zap"
)

// DefaultFadeDuration is the cross-fade length in seconds.
const DefaultFadeDuration float32 = 1

// switcher is the implementation of the Switcher interface.
type switcher struct {
	registry Registry
	duration float32
	active   animation.Action
	last     animation.Action
	logger   *zap.Logger
}

// Switcher keeps a single active action and cross-fades between actions.
//
// Switches are fire-and-forget: a switch issued while earlier fades are still running just
// reassigns the active and last actions and issues fresh fades. Blending the overlap is left to
// the mixer.
type Switcher interface {
	// Switch makes target the active action. The previous active action fades out over the fade
	// duration while target is reset, faded in and played. Switching to the active action or to
	// nil does nothing.
	//
	// Parameters:
	//   - target: the action to activate
	//
	// Returns:
	//   - bool: true if a switch happened
	Switch(target animation.Action) bool

	// SwitchTo switches to the registry action at index. Unknown indices do nothing.
	//
	// Parameters:
	//   - index: the registry index
	//
	// Returns:
	//   - bool: true if a switch happened
	SwitchTo(index int) bool

	// Active returns the active action (nil before the base model loads).
	Active() animation.Action

	// Last returns the previously active action (nil before the first switch).
	Last() animation.Action

	// FadeDuration returns the cross-fade length in seconds.
	FadeDuration() float32
}

var _ Switcher = &switcher{}

// newSwitcher creates a switcher resolving indices through reg.
func newSwitcher(reg Registry, duration float32, logger *zap.Logger) *switcher {
	return &switcher{registry: reg, duration: duration, logger: logger}
}

// setInitial marks a as active without fading or playing it.
func (s *switcher) setInitial(a animation.Action) {
	s.active = a
}

func (s *switcher) Switch(target animation.Action) bool {
	if target == nil || target == s.active {
		return false
	}

	s.last = s.active
	s.active = target

	if s.last != nil {
		s.last.FadeOut(s.duration)
	}
	target.Reset().FadeIn(s.duration).Play()

	s.logger.Debug("action switched",
		zap.String("to", clipName(target)),
		zap.String("from", clipName(s.last)),
		zap.Float32("fade", s.duration),
	)
	return true
}

func (s *switcher) SwitchTo(index int) bool {
	a, ok := s.registry.At(index)
	if !ok {
		return false
	}
	return s.Switch(a)
}

func (s *switcher) Active() animation.Action {
	return s.active
}

func (s *switcher) Last() animation.Action {
	return s.last
}

func (s *switcher) FadeDuration() float32 {
	return s.duration
}

// clipName returns the clip name of a, or "" for nil.
func clipName(a animation.Action) string {
	if a == nil || a.Clip() == nil {
		return ""
	}
	return a.Clip().Name
}
