package main

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-vanguard/common"
	"github.com/Carmen-Shannon/oxy-vanguard/engine/animation"
	"github.com/Carmen-Shannon/oxy-vanguard/engine/clipchain"
	"github.com/Carmen-Shannon/oxy-vanguard/engine/config"
	"github.com/Carmen-Shannon/oxy-vanguard/engine/dispatch"
	"github.com/Carmen-Shannon/oxy-vanguard/engine/model"
	"github.com/Carmen-Shannon/oxy-vanguard/engine/panel"
	"github.com/Carmen-Shannon/oxy-vanguard/engine/renderer"

	"go.uber.org/zap"
)

// app owns the demo's animation state. Every method runs on the frame-loop goroutine.
type app struct {
	cfg    *config.Config
	log    *zap.Logger
	chain  clipchain.Chain
	panel  panel.Panel // nil when the panel is disabled
	colors [][3]float32
	paused bool
}

// newApp builds the trigger panel and the clip chain from cfg. Loader callbacks and panel
// triggers are delivered through d.
func newApp(cfg *config.Config, log *zap.Logger, d dispatch.Dispatcher, ldr clipchain.ResourceLoader) (*app, error) {
	a := &app{cfg: cfg, log: log}

	specs := make([]clipchain.ClipSpec, 0, len(cfg.Clips))
	for _, c := range cfg.Clips {
		specs = append(specs, clipchain.ClipSpec{
			Name:            c.Name,
			Locator:         c.Locator,
			StripFirstTrack: c.StripFirstTrack,
		})
		a.colors = append(a.colors, c.Color)
	}

	var triggers clipchain.TriggerRegistry
	if cfg.Panel.Enabled {
		a.panel = panel.NewPanel(panel.WithDispatcher(d), panel.WithLogger(log))
		triggers = a.panel
	}

	chain, err := clipchain.NewClipChain(specs, ldr, triggers,
		clipchain.WithAutoplay(cfg.Animation.Autoplay),
		clipchain.WithFadeDuration(cfg.Animation.FadeDuration),
		clipchain.WithLogger(log),
		clipchain.WithMixerFactory(func(base *model.ImportedModel) animation.Mixer {
			return animation.NewMixer(animation.NewRigTarget(base),
				animation.WithTimeScale(cfg.Animation.TimeScale),
				animation.WithLogger(log),
			)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("build clip chain: %w", err)
	}
	a.chain = chain

	chain.OnReady(func() {
		log.Info("all clips ready", zap.Strings("names", chain.Registry().Names()))
	})
	return a, nil
}

// start issues the first load.
func (a *app) start() error {
	return a.chain.Start()
}

// tick advances the mixer. It does nothing until every clip has loaded.
func (a *app) tick(dt float32) {
	a.chain.Update(dt)
}

// handleKey switches clips with the number row and toggles pause with space.
//
// Returns:
//   - bool: true if the key changed playback
func (a *app) handleKey(keyCode uint32) bool {
	if keyCode == common.KeySpace {
		return a.togglePause()
	}

	idx, ok := common.DigitKeyIndex(keyCode)
	if !ok {
		return false
	}
	if !a.chain.Switcher().SwitchTo(idx) {
		return false
	}
	a.log.Info("switched clip", zap.Int("index", idx), zap.String("name", a.activeName()))
	return true
}

// togglePause freezes or resumes the mixer clock.
func (a *app) togglePause() bool {
	m := a.chain.Mixer()
	if m == nil {
		return false
	}

	a.paused = !a.paused
	if a.paused {
		m.SetTimeScale(0)
	} else {
		m.SetTimeScale(a.cfg.Animation.TimeScale)
	}
	a.log.Info("playback toggled", zap.Bool("paused", a.paused))
	return true
}

// activeName returns the chain name of the active action, or "" before one is bound.
func (a *app) activeName() string {
	active := a.chain.Switcher().Active()
	if active == nil {
		return ""
	}

	reg := a.chain.Registry()
	names := reg.Names()
	for i, act := range reg.Actions() {
		if act == active {
			return names[i]
		}
	}
	return ""
}

// title is the window title for the current state.
func (a *app) title() string {
	state := a.chain.State()
	switch state.Phase {
	case clipchain.PhaseReady:
		if name := a.activeName(); name != "" {
			return fmt.Sprintf("%s - %s", a.cfg.Window.Title, name)
		}
	case clipchain.PhaseFailed:
		return fmt.Sprintf("%s - load failed", a.cfg.Window.Title)
	case clipchain.PhasePendingBase, clipchain.PhasePendingClip:
		return fmt.Sprintf("%s - loading %d/%d", a.cfg.Window.Title, state.Index+1, len(a.cfg.Clips))
	}
	return a.cfg.Window.Title
}

// stageColor blends the clip tints by the weights from the last mixer update.
func (a *app) stageColor() renderer.Color {
	actions := a.chain.Registry().Actions()
	weights := make([]float32, len(actions))
	for i, act := range actions {
		weights[i] = act.EffectiveWeight()
	}
	return renderer.BlendColor(weights, a.colors)
}
