package clipchain

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-vanguard/engine/animation"
	"github.com/Carmen-Shannon/oxy-vanguard/engine/model"
)

var errFetch = errors.New("fetch failed")

// loadRequest is one Load call captured by fakeLoader.
type loadRequest struct {
	locator    string
	onLoad     func(*model.ImportedModel)
	onProgress func(loaded, total int64)
	onError    func(error)
}

// fakeLoader records Load calls; tests complete them explicitly with succeed or fail.
type fakeLoader struct {
	requests []loadRequest
}

func (l *fakeLoader) Load(locator string, onLoad func(*model.ImportedModel), onProgress func(loaded, total int64), onError func(error)) {
	l.requests = append(l.requests, loadRequest{locator: locator, onLoad: onLoad, onProgress: onProgress, onError: onError})
}

func (l *fakeLoader) locators() []string {
	out := make([]string, len(l.requests))
	for i, r := range l.requests {
		out[i] = r.locator
	}
	return out
}

func (l *fakeLoader) succeed(i int, m *model.ImportedModel) {
	r := l.requests[i]
	r.onProgress(50, 100)
	r.onProgress(100, 100)
	r.onLoad(m)
}

func (l *fakeLoader) fail(i int, err error) {
	l.requests[i].onError(err)
}

// scriptedLoader completes every Load synchronously: locators in failures fail, all others
// return the model registered for them.
type scriptedLoader struct {
	models   map[string]*model.ImportedModel
	failures map[string]bool
	calls    []string
}

func (l *scriptedLoader) Load(locator string, onLoad func(*model.ImportedModel), onProgress func(loaded, total int64), onError func(error)) {
	l.calls = append(l.calls, locator)
	if l.failures[locator] {
		onError(fmt.Errorf("%s: %w", locator, errFetch))
		return
	}
	onProgress(0, 0)
	onLoad(l.models[locator])
}

// fakeTriggers is an in-memory TriggerRegistry.
type fakeTriggers struct {
	names []string
	fns   map[string]func()
}

func newFakeTriggers() *fakeTriggers {
	return &fakeTriggers{fns: make(map[string]func())}
}

func (t *fakeTriggers) Add(name string, fn func()) error {
	if _, ok := t.fns[name]; ok {
		return fmt.Errorf("duplicate trigger %q", name)
	}
	t.names = append(t.names, name)
	t.fns[name] = fn
	return nil
}

func (t *fakeTriggers) invoke(name string) {
	t.fns[name]()
}

// recordingMixer wraps a real mixer so that every action it hands out logs its fade commands.
type recordingMixer struct {
	animation.Mixer
	log     *[]string
	wrapped map[*model.AnimationClip]*recordingAction
}

func newRecordingMixer(inner animation.Mixer, log *[]string) *recordingMixer {
	return &recordingMixer{Mixer: inner, log: log, wrapped: make(map[*model.AnimationClip]*recordingAction)}
}

func (m *recordingMixer) ClipAction(clip *model.AnimationClip) animation.Action {
	if a, ok := m.wrapped[clip]; ok {
		return a
	}
	a := &recordingAction{Action: m.Mixer.ClipAction(clip), log: m.log, name: clip.Name}
	m.wrapped[clip] = a
	return a
}

// recordingAction logs FadeIn, FadeOut, Reset and Play calls as "<clip>.<command>".
type recordingAction struct {
	animation.Action
	log  *[]string
	name string
}

func (a *recordingAction) record(cmd string) {
	*a.log = append(*a.log, a.name+"."+cmd)
}

func (a *recordingAction) FadeIn(d float32) animation.Action {
	a.record("fadeIn")
	a.Action.FadeIn(d)
	return a
}

func (a *recordingAction) FadeOut(d float32) animation.Action {
	a.record("fadeOut")
	a.Action.FadeOut(d)
	return a
}

func (a *recordingAction) Reset() animation.Action {
	a.record("reset")
	a.Action.Reset()
	return a
}

func (a *recordingAction) Play() animation.Action {
	a.record("play")
	a.Action.Play()
	return a
}

// clipModel returns a model with nodes Hips and Spine and one animation named clipName with
// trackCount translation tracks alternating between the two nodes.
func clipModel(clipName string, trackCount int) *model.ImportedModel {
	clip := &model.AnimationClip{Name: clipName, Duration: 1}
	for i := 0; i < trackCount; i++ {
		node := "Hips"
		if i%2 == 1 {
			node = "Spine"
		}
		clip.Tracks = append(clip.Tracks, model.KeyframeTrack{
			NodeName: node,
			Path:     model.TrackPathTranslation,
			Times:    []float32{0, 1},
			Values:   []float32{0, 0, 0, float32(i + 1), 0, 0},
		})
	}
	return &model.ImportedModel{
		Name: clipName,
		Nodes: []model.Node{
			{Name: "Hips", ParentIndex: -1, Rest: model.IdentityTransform()},
			{Name: "Spine", ParentIndex: 0, Rest: model.IdentityTransform()},
		},
		RootNodeIndices: []int32{0},
		NodeNameToIndex: map[string]int32{"Hips": 0, "Spine": 1},
		Animations:      []*model.AnimationClip{clip},
	}
}

// vanguardSpecs mirrors the demo: a base model and three clip files, the last with root motion.
func vanguardSpecs() []ClipSpec {
	return []ClipSpec{
		{Name: "default", Locator: "models/vanguard.glb"},
		{Name: "samba", Locator: "models/vanguard@samba.glb"},
		{Name: "bellydance", Locator: "models/vanguard@bellydance.glb"},
		{Name: "goofyrunning", Locator: "models/vanguard@goofyrunning.glb", StripFirstTrack: true},
	}
}
