// Package clipchain loads a base model followed by clip-only resources one after another, binds the
// first animation of each to a shared mixer and exposes every bound clip as a named trigger that
// cross-fades to it.
//
// A chain is not safe for concurrent use. The loader must deliver its callbacks on the goroutine
// that calls Update and Switch (see dispatch.Queue).
package clipchain

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-vanguard/common"
	"github.com/Carmen-Shannon/oxy-vanguard/engine/animation"
	"github.com/Carmen-Shannon/oxy-vanguard/engine/model"

	"go.uber.org/zap"
)

// ClipSpec describes one entry of a chain.
type ClipSpec struct {
	// Name is the trigger name, e.g. "default" or "samba".
	Name string

	// Locator is the file path or URL of the resource.
	Locator string

	// StripFirstTrack drops track 0 of the clip before binding. Use it for clips with root motion
	// baked into their first track so the character animates in place.
	StripFirstTrack bool
}

// ResourceLoader fetches a model resource asynchronously. Exactly one of onLoad or onError is
// called per Load; onProgress may be called any number of times before that.
type ResourceLoader interface {
	Load(locator string, onLoad func(*model.ImportedModel), onProgress func(loaded, total int64), onError func(error))
}

// TriggerRegistry receives a named trigger for every clip the chain binds.
type TriggerRegistry interface {
	Add(name string, fn func()) error
}

// MixerFactory creates the shared mixer for the base model.
type MixerFactory func(base *model.ImportedModel) animation.Mixer

// chain is the implementation of the Chain interface.
type chain struct {
	specs    []ClipSpec
	loader   ResourceLoader
	triggers TriggerRegistry

	mixerFactory MixerFactory
	autoplay     bool
	fadeDuration float32
	logger       *zap.Logger

	state    State
	started  bool
	ready    bool
	err      error
	base     *model.ImportedModel
	mixer    animation.Mixer
	registry *registry
	switcher *switcher
	onReady  []func()
}

// Chain is a load session for one animated model: the base model plus its clip resources, the
// shared mixer, the action registry and the switcher.
type Chain interface {
	// Start issues the load of the base model. Each following entry is loaded from the success
	// callback of the previous one.
	//
	// Returns:
	//   - error: ErrAlreadyStarted on a second call
	Start() error

	// State returns the chain's current state.
	State() State

	// Ready reports whether every entry has loaded and bound successfully.
	Ready() bool

	// Err returns the load failure that halted the chain, or nil.
	Err() error

	// Update advances the mixer by dt seconds once the chain is ready; before that it does nothing.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	Update(dt float32)

	// OnReady registers fn to run when the chain becomes ready. It runs immediately if the chain
	// is already ready.
	//
	// Parameters:
	//   - fn: the callback
	OnReady(fn func())

	// Base returns the base model (nil until it loads).
	Base() *model.ImportedModel

	// Mixer returns the shared mixer (nil until the base model loads).
	Mixer() animation.Mixer

	// Registry returns the action registry.
	Registry() Registry

	// Switcher returns the action switcher.
	Switcher() Switcher

	// Specs returns a copy of the chain entries.
	Specs() []ClipSpec
}

var _ Chain = &chain{}

// NewClipChain validates specs and creates an idle chain. Entry 0 is the base model.
//
// Parameters:
//   - specs: the ordered chain entries
//   - loader: the resource loader
//   - triggers: the trigger registry (may be nil)
//   - options: a variadic list of ChainBuilderOption functions to configure the chain
//
// Returns:
//   - Chain: the idle chain
//   - error: ErrInvalidSpec if specs is empty or has blank or duplicate entries
func NewClipChain(specs []ClipSpec, loader ResourceLoader, triggers TriggerRegistry, options ...ChainBuilderOption) (Chain, error) {
	if err := validateSpecs(specs); err != nil {
		return nil, err
	}
	if loader == nil {
		return nil, fmt.Errorf("%w: nil loader", ErrInvalidSpec)
	}

	c := &chain{
		specs:        append([]ClipSpec(nil), specs...),
		loader:       loader,
		triggers:     triggers,
		fadeDuration: DefaultFadeDuration,
		logger:       zap.NewNop(),
		registry:     newRegistry(),
	}

	for _, option := range options {
		option(c)
	}

	if c.mixerFactory == nil {
		logger := c.logger
		c.mixerFactory = func(base *model.ImportedModel) animation.Mixer {
			return animation.NewMixer(animation.NewRigTarget(base), animation.WithLogger(logger))
		}
	}
	c.switcher = newSwitcher(c.registry, c.fadeDuration, c.logger)
	return c, nil
}

func (c *chain) Start() error {
	if c.started {
		return ErrAlreadyStarted
	}
	c.started = true
	c.issue(0)
	return nil
}

func (c *chain) State() State {
	return c.state
}

func (c *chain) Ready() bool {
	return c.ready
}

func (c *chain) Err() error {
	return c.err
}

func (c *chain) Update(dt float32) {
	if !c.ready {
		return
	}
	c.mixer.Update(dt)
}

func (c *chain) OnReady(fn func()) {
	if fn == nil {
		return
	}
	if c.ready {
		fn()
		return
	}
	c.onReady = append(c.onReady, fn)
}

func (c *chain) Base() *model.ImportedModel {
	return c.base
}

func (c *chain) Mixer() animation.Mixer {
	return c.mixer
}

func (c *chain) Registry() Registry {
	return c.registry
}

func (c *chain) Switcher() Switcher {
	return c.switcher
}

func (c *chain) Specs() []ClipSpec {
	return append([]ClipSpec(nil), c.specs...)
}

// --- Steps ---

// issue starts the load of entry i.
func (c *chain) issue(i int) {
	spec := c.specs[i]
	c.state = pendingState(i)
	c.logger.Info("loading clip",
		zap.Int("index", i),
		zap.String("name", spec.Name),
		zap.String("locator", spec.Locator),
		zap.Stringer("state", c.state),
	)

	c.loader.Load(spec.Locator,
		func(m *model.ImportedModel) { c.loaded(i, m) },
		func(loaded, total int64) { c.progress(i, loaded, total) },
		func(err error) { c.fail(i, err) },
	)
}

// current reports whether a callback for entry i belongs to the load in progress.
func (c *chain) current(i int) bool {
	return c.state == pendingState(i)
}

// loaded binds entry i and issues the next load, or marks the chain ready after the last entry.
func (c *chain) loaded(i int, m *model.ImportedModel) {
	if !c.current(i) {
		c.logger.Warn("ignoring stale load result", zap.Int("index", i), zap.Stringer("state", c.state))
		return
	}

	spec := c.specs[i]
	clip := m.FirstAnimation()
	if clip == nil {
		c.fail(i, ErrNoAnimation)
		return
	}

	if i == 0 {
		mixer := c.mixerFactory(m)
		if mixer == nil {
			c.fail(i, ErrNoMixer)
			return
		}
		c.base = m
		c.mixer = mixer
	}

	if spec.StripFirstTrack {
		clip = clip.WithoutFirstTrack()
	}

	act := c.mixer.ClipAction(clip)
	c.registry.append(spec.Name, act)
	c.registerTrigger(spec.Name, act)

	if i == 0 {
		c.switcher.setInitial(act)
		if c.autoplay {
			act.Play()
		}
	}

	c.logger.Info("clip bound",
		zap.Int("index", i),
		zap.String("name", spec.Name),
		zap.String("clip", clip.Name),
		zap.Int("tracks", len(clip.Tracks)),
	)

	if i == len(c.specs)-1 {
		c.ready = true
		c.state = State{Phase: PhaseReady}
		c.logger.Info("clip chain ready", zap.Int("actions", c.registry.Len()))
		for _, fn := range c.onReady {
			fn()
		}
		c.onReady = nil
		return
	}

	c.issue(i + 1)
}

// progress logs load progress. It never affects control flow.
func (c *chain) progress(i int, loaded, total int64) {
	percent, ok := common.Percent(loaded, total)
	if !ok {
		return
	}
	c.logger.Debug("clip progress",
		zap.String("name", c.specs[i].Name),
		zap.Float64("percent", percent),
	)
}

// fail halts the chain at entry i.
func (c *chain) fail(i int, cause error) {
	if !c.current(i) {
		c.logger.Warn("ignoring stale load error", zap.Int("index", i), zap.Error(cause))
		return
	}

	spec := c.specs[i]
	c.err = &LoadError{Index: i, Name: spec.Name, Locator: spec.Locator, Err: cause}
	c.state = State{Phase: PhaseFailed, Index: i}
	c.logger.Error("clip chain halted", zap.Int("index", i), zap.String("name", spec.Name), zap.Error(c.err))
}

// registerTrigger exposes act under name on the trigger registry.
func (c *chain) registerTrigger(name string, act animation.Action) {
	if c.triggers == nil {
		return
	}
	if err := c.triggers.Add(name, func() { c.switcher.Switch(act) }); err != nil {
		c.logger.Warn("trigger not registered", zap.String("name", name), zap.Error(err))
	}
}

// --- Helper Functions ---

// validateSpecs rejects empty chains, blank fields and duplicate names.
func validateSpecs(specs []ClipSpec) error {
	if len(specs) == 0 {
		return fmt.Errorf("%w: no entries", ErrInvalidSpec)
	}

	seen := make(map[string]bool, len(specs))
	for i, s := range specs {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("%w: entry %d has no name", ErrInvalidSpec, i)
		}
		if strings.TrimSpace(s.Locator) == "" {
			return fmt.Errorf("%w: entry %d (%s) has no locator", ErrInvalidSpec, i, s.Name)
		}
		if seen[s.Name] {
			return fmt.Errorf("%w: duplicate name %q", ErrInvalidSpec, s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}
