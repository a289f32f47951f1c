package animation

import (
	"github.com/Carmen-Shannon/oxy-vanguard/common"
	"github.com/Carmen-Shannon/oxy-vanguard/engine/model"

	"github.com/chewxy/math32"
)

// LoopMode controls what an action does when its time runs past the clip duration.
type LoopMode int

const (
	// LoopRepeat restarts the clip from the beginning.
	LoopRepeat LoopMode = iota
	// LoopOnce plays the clip a single time and then finishes.
	LoopOnce
	// LoopPingPong alternates playing the clip forwards and backwards.
	LoopPingPong
)

// String returns the name of the loop mode.
func (m LoopMode) String() string {
	switch m {
	case LoopOnce:
		return "once"
	case LoopPingPong:
		return "pingpong"
	default:
		return "repeat"
	}
}

// RepeatForever is the repetition count meaning "loop without limit".
const RepeatForever = 0

// fade is a scheduled linear weight ramp in mixer time.
type fade struct {
	start, end float32
	from, to   float32
}

// value evaluates the ramp at mixer time t, clamped to its end points.
func (f *fade) value(t float32) float32 {
	if f.end <= f.start || t >= f.end {
		return f.to
	}
	if t <= f.start {
		return f.from
	}
	return common.Lerp(f.from, f.to, (t-f.start)/(f.end-f.start))
}

// actionBinding ties one clip track to the shared property mixer of the node property it animates.
type actionBinding struct {
	track   *model.KeyframeTrack
	prop    *propertyMixer
	scratch []float32
}

// action is the implementation of the Action interface.
type action struct {
	mixer    *mixer
	clip     *model.AnimationClip
	bindings []actionBinding

	time            float32
	timeScale       float32
	weight          float32
	effectiveWeight float32

	enabled bool
	paused  bool

	loop              LoopMode
	repetitions       int
	loopCount         int
	clampWhenFinished bool
	finished          bool

	fade *fade
}

// Action schedules playback of one clip on a Mixer. Every mutator returns the action so calls can
// be chained, as in action.Reset().FadeIn(1).Play(). Actions are not safe for concurrent use; drive
// them from the goroutine that updates the mixer.
type Action interface {
	// Play schedules the action on its mixer. Playing an already scheduled action has no effect.
	Play() Action

	// Stop unschedules the action and resets it.
	Stop() Action

	// Reset clears pause, re-enables the action, rewinds it to time zero and cancels any fade.
	Reset() Action

	// FadeIn ramps the weight from 0 to 1 over duration seconds, starting at the mixer's current time.
	// A new fade replaces any fade already scheduled on this action.
	FadeIn(duration float32) Action

	// FadeOut ramps the weight from 1 to 0 over duration seconds. The action is disabled when the
	// ramp completes.
	FadeOut(duration float32) Action

	// StopFading cancels a scheduled fade.
	StopFading() Action

	// IsRunning reports whether the action is scheduled, enabled, unpaused and has a non-zero time scale.
	IsRunning() bool

	// IsScheduled reports whether Play has been called since the last Stop.
	IsScheduled() bool

	// IsFading reports whether a fade is in progress.
	IsFading() bool

	// Enabled reports whether the action contributes to the mix.
	Enabled() bool

	// SetEnabled enables or disables the action.
	SetEnabled(enabled bool) Action

	// Paused reports whether the action's time is frozen.
	Paused() bool

	// SetPaused freezes or resumes the action's time.
	SetPaused(paused bool) Action

	// Weight returns the configured weight before fades are applied.
	Weight() float32

	// SetEffectiveWeight sets the configured weight. Fades scale this value.
	SetEffectiveWeight(weight float32) Action

	// EffectiveWeight returns the weight the action contributed during the last mixer update.
	EffectiveWeight() float32

	// Time returns the action's local time in seconds.
	Time() float32

	// SetTime sets the action's local time in seconds.
	SetTime(t float32) Action

	// TimeScale returns the playback speed multiplier.
	TimeScale() float32

	// SetEffectiveTimeScale sets the playback speed multiplier.
	SetEffectiveTimeScale(scale float32) Action

	// SetLoop sets the loop mode and the number of repetitions (RepeatForever for no limit).
	SetLoop(mode LoopMode, repetitions int) Action

	// SetClampWhenFinished makes a finished action hold its last frame (paused) instead of disabling.
	SetClampWhenFinished(clamp bool) Action

	// Clip returns the clip this action plays.
	Clip() *model.AnimationClip

	// BoundTracks returns the number of clip tracks that resolved against the mixer's target.
	BoundTracks() int
}

var _ Action = &action{}

// newAction creates an action for clip with default settings: enabled, weight 1, time scale 1,
// repeating forever.
func newAction(m *mixer, clip *model.AnimationClip) *action {
	return &action{
		mixer:       m,
		clip:        clip,
		timeScale:   1,
		weight:      1,
		enabled:     true,
		loop:        LoopRepeat,
		repetitions: RepeatForever,
		loopCount:   -1,
	}
}

func (a *action) Play() Action {
	a.mixer.activate(a)
	return a
}

func (a *action) Stop() Action {
	a.mixer.deactivate(a)
	return a.Reset()
}

func (a *action) Reset() Action {
	a.paused = false
	a.enabled = true
	a.time = 0
	a.loopCount = -1
	a.finished = false
	a.fade = nil
	return a
}

func (a *action) FadeIn(duration float32) Action {
	return a.scheduleFade(duration, 0, 1)
}

func (a *action) FadeOut(duration float32) Action {
	return a.scheduleFade(duration, 1, 0)
}

func (a *action) StopFading() Action {
	a.fade = nil
	return a
}

func (a *action) IsRunning() bool {
	return a.enabled && !a.paused && a.timeScale != 0 && a.mixer.isActive(a)
}

func (a *action) IsScheduled() bool {
	return a.mixer.isActive(a)
}

func (a *action) IsFading() bool {
	return a.fade != nil
}

func (a *action) Enabled() bool {
	return a.enabled
}

func (a *action) SetEnabled(enabled bool) Action {
	a.enabled = enabled
	return a
}

func (a *action) Paused() bool {
	return a.paused
}

func (a *action) SetPaused(paused bool) Action {
	a.paused = paused
	return a
}

func (a *action) Weight() float32 {
	return a.weight
}

func (a *action) SetEffectiveWeight(weight float32) Action {
	a.weight = weight
	if a.enabled {
		a.effectiveWeight = weight
	} else {
		a.effectiveWeight = 0
	}
	return a
}

func (a *action) EffectiveWeight() float32 {
	return a.effectiveWeight
}

func (a *action) Time() float32 {
	return a.time
}

func (a *action) SetTime(t float32) Action {
	a.time = t
	return a
}

func (a *action) TimeScale() float32 {
	return a.timeScale
}

func (a *action) SetEffectiveTimeScale(scale float32) Action {
	a.timeScale = scale
	return a
}

func (a *action) SetLoop(mode LoopMode, repetitions int) Action {
	a.loop = mode
	a.repetitions = repetitions
	return a
}

func (a *action) SetClampWhenFinished(clamp bool) Action {
	a.clampWhenFinished = clamp
	return a
}

func (a *action) Clip() *model.AnimationClip {
	return a.clip
}

func (a *action) BoundTracks() int {
	return len(a.bindings)
}

// --- Update ---

// scheduleFade replaces the current fade with a ramp starting at the mixer's current time.
func (a *action) scheduleFade(duration, from, to float32) Action {
	now := a.mixer.time
	a.fade = &fade{start: now, end: now + duration, from: from, to: to}
	return a
}

// update advances the action to mixer time mixerTime and feeds its samples to the property mixers.
//
// Parameters:
//   - mixerTime: the mixer time after this frame's advance
//   - dt: the mixer-scaled delta time in seconds
func (a *action) update(mixerTime, dt float32) {
	for i := range a.bindings {
		a.bindings[i].prop.touched = true
	}

	if !a.enabled {
		a.updateWeight(mixerTime)
		return
	}

	if a.paused {
		dt = 0
	}
	clipTime := a.updateTime(dt * a.timeScale)

	w := a.updateWeight(mixerTime)
	if w <= 0 {
		return
	}

	for i := range a.bindings {
		b := &a.bindings[i]
		sampleTrack(b.track, clipTime, b.scratch)
		b.prop.accumulate(b.scratch, w)
	}
}

// updateWeight evaluates the fade at mixer time t and stores the resulting effective weight.
// A completed fade to zero disables the action.
func (a *action) updateWeight(t float32) float32 {
	var w float32
	if a.enabled {
		w = a.weight
		if a.fade != nil {
			v := a.fade.value(t)
			w *= v
			if t >= a.fade.end {
				a.fade = nil
				if v == 0 {
					a.enabled = false
				}
			}
		}
	}
	a.effectiveWeight = w
	return w
}

// updateTime advances the local time by dt, applying the loop mode, and returns the clip time to sample.
func (a *action) updateTime(dt float32) float32 {
	duration := a.clip.Duration
	if duration <= 0 {
		a.time = 0
		return 0
	}
	if a.loopCount == -1 {
		a.loopCount = 0
	}
	if dt == 0 {
		return a.sampleTime()
	}

	t := a.time + dt

	if a.loop == LoopOnce {
		switch {
		case t >= duration:
			t = duration
		case t < 0:
			t = 0
		default:
			a.time = t
			return t
		}
		a.finish()
		a.time = t
		return t
	}

	if t >= duration || t < 0 {
		loops := math32.Floor(t / duration)
		t -= duration * loops
		a.loopCount += int(math32.Abs(loops))

		if a.repetitions > RepeatForever && a.loopCount >= a.repetitions {
			a.finish()
			if dt > 0 {
				t = duration
			} else {
				t = 0
			}
			a.time = t
			return t
		}
	}

	a.time = t
	return a.sampleTime()
}

// sampleTime maps the local time to clip time, mirroring odd ping-pong passes.
func (a *action) sampleTime() float32 {
	if a.loop == LoopPingPong && a.loopCount%2 == 1 {
		return a.clip.Duration - a.time
	}
	return a.time
}

// finish ends playback: a clamped action pauses on its last frame, otherwise it is disabled.
func (a *action) finish() {
	if a.clampWhenFinished {
		a.paused = true
	} else {
		a.enabled = false
	}
	a.finished = true
}
