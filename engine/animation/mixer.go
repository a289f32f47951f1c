// Package animation plays keyframe clips on a node hierarchy. A Mixer owns one Action per clip,
// advances the scheduled actions every frame and blends their weighted samples per node property.
package animation

import (
	"github.com/Carmen-Shannon/oxy-vanguard/engine/model"

	"go.uber.org/zap"
)

// mixer is the implementation of the Mixer interface.
type mixer struct {
	target    Target
	time      float32
	timeScale float32

	actions []*action
	byClip  map[*model.AnimationClip]*action
	active  []*action

	props    map[bindingKey]*propertyMixer
	propList []*propertyMixer

	onFinished []func(Action)
	logger     *zap.Logger
}

// Mixer drives the actions of one animated Target. It is not safe for concurrent use; all calls,
// including those on its actions, belong on the goroutine that calls Update.
type Mixer interface {
	// ClipAction returns the action for clip, creating and binding it on first use.
	// The same clip pointer always yields the same action. A nil clip returns nil.
	//
	// Parameters:
	//   - clip: the animation clip
	//
	// Returns:
	//   - Action: the clip's action (not playing until Play is called)
	ClipAction(clip *model.AnimationClip) Action

	// ExistingAction returns the action previously created for clip, or nil.
	//
	// Parameters:
	//   - clip: the animation clip
	//
	// Returns:
	//   - Action: the existing action or nil
	ExistingAction(clip *model.AnimationClip) Action

	// Update advances the mixer clock by dt seconds, advances every scheduled action and writes the
	// blended values to the target.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	Update(dt float32)

	// Time returns the mixer clock in seconds.
	Time() float32

	// TimeScale returns the global speed multiplier.
	TimeScale() float32

	// SetTimeScale sets the global speed multiplier.
	//
	// Parameters:
	//   - scale: the multiplier applied to every Update delta
	SetTimeScale(scale float32)

	// Actions returns every action created by ClipAction in creation order.
	Actions() []Action

	// ScheduledActions returns the actions currently scheduled with Play, in scheduling order.
	ScheduledActions() []Action

	// StopAllActions stops and resets every scheduled action.
	StopAllActions()

	// OnFinished registers a callback invoked after Update for every action that finished its
	// last repetition during that update.
	//
	// Parameters:
	//   - fn: the callback
	OnFinished(fn func(Action))

	// Target returns the animated target.
	Target() Target
}

var _ Mixer = &mixer{}

// NewMixer creates a Mixer animating target.
//
// Parameters:
//   - target: the object whose node properties are animated
//   - options: a variadic list of MixerBuilderOption functions to configure the Mixer
//
// Returns:
//   - Mixer: the new mixer with its clock at zero
func NewMixer(target Target, options ...MixerBuilderOption) Mixer {
	m := &mixer{
		target:    target,
		timeScale: 1,
		byClip:    make(map[*model.AnimationClip]*action),
		props:     make(map[bindingKey]*propertyMixer),
		logger:    zap.NewNop(),
	}

	for _, option := range options {
		option(m)
	}
	return m
}

func (m *mixer) ClipAction(clip *model.AnimationClip) Action {
	if clip == nil {
		return nil
	}
	if a, ok := m.byClip[clip]; ok {
		return a
	}

	a := newAction(m, clip)
	m.bind(a)
	m.byClip[clip] = a
	m.actions = append(m.actions, a)

	m.logger.Debug("clip action created",
		zap.String("clip", clip.Name),
		zap.Int("tracks", len(clip.Tracks)),
		zap.Int("bound", len(a.bindings)),
	)
	return a
}

func (m *mixer) ExistingAction(clip *model.AnimationClip) Action {
	if a, ok := m.byClip[clip]; ok {
		return a
	}
	return nil
}

func (m *mixer) Update(dt float32) {
	dt *= m.timeScale
	m.time += dt

	for _, p := range m.propList {
		p.begin()
	}

	// Finish callbacks may schedule or stop actions, so iterate a snapshot.
	active := append([]*action(nil), m.active...)
	for _, a := range active {
		a.update(m.time, dt)
	}

	for _, p := range m.propList {
		p.apply(m.target)
	}

	for _, a := range active {
		if !a.finished {
			continue
		}
		a.finished = false
		for _, fn := range m.onFinished {
			fn(a)
		}
	}
}

func (m *mixer) Time() float32 {
	return m.time
}

func (m *mixer) TimeScale() float32 {
	return m.timeScale
}

func (m *mixer) SetTimeScale(scale float32) {
	m.timeScale = scale
}

func (m *mixer) Actions() []Action {
	out := make([]Action, len(m.actions))
	for i, a := range m.actions {
		out[i] = a
	}
	return out
}

func (m *mixer) ScheduledActions() []Action {
	out := make([]Action, len(m.active))
	for i, a := range m.active {
		out[i] = a
	}
	return out
}

func (m *mixer) StopAllActions() {
	for _, a := range append([]*action(nil), m.active...) {
		a.Stop()
	}
}

func (m *mixer) OnFinished(fn func(Action)) {
	if fn != nil {
		m.onFinished = append(m.onFinished, fn)
	}
}

func (m *mixer) Target() Target {
	return m.target
}

// --- Internal ---

// bind resolves every track of the action's clip against the target. Tracks naming unknown nodes
// or properties whose size does not match the target are skipped.
func (m *mixer) bind(a *action) {
	if m.target == nil {
		return
	}

	for i := range a.clip.Tracks {
		track := &a.clip.Tracks[i]

		node, ok := m.target.ResolveNode(track.NodeName)
		if !ok {
			m.logger.Debug("track skipped: unknown node", zap.String("clip", a.clip.Name), zap.String("track", track.Name()))
			continue
		}

		key := bindingKey{node: node, path: track.Path}
		prop, ok := m.props[key]
		if !ok {
			rest := m.target.RestValue(node, track.Path)
			if len(rest) == 0 {
				m.logger.Debug("track skipped: no such property", zap.String("clip", a.clip.Name), zap.String("track", track.Name()))
				continue
			}
			prop = newPropertyMixer(key, rest)
			m.props[key] = prop
			m.propList = append(m.propList, prop)
		}

		if track.ValueSize() != prop.size {
			m.logger.Debug("track skipped: size mismatch",
				zap.String("clip", a.clip.Name),
				zap.String("track", track.Name()),
				zap.Int("want", prop.size),
				zap.Int("got", track.ValueSize()),
			)
			continue
		}

		prop.useCount++
		a.bindings = append(a.bindings, actionBinding{
			track:   track,
			prop:    prop,
			scratch: make([]float32, prop.size),
		})
	}
}

// activate schedules a on the mixer.
func (m *mixer) activate(a *action) {
	if m.isActive(a) {
		return
	}
	m.active = append(m.active, a)
}

// deactivate removes a from the schedule.
func (m *mixer) deactivate(a *action) {
	for i, s := range m.active {
		if s == a {
			m.active = append(m.active[:i], m.active[i+1:]...)
			return
		}
	}
}

// isActive reports whether a is scheduled.
func (m *mixer) isActive(a *action) bool {
	for _, s := range m.active {
		if s == a {
			return true
		}
	}
	return false
}
