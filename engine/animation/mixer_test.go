package animation

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-vanguard/engine/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRig returns a model with a root "Hips" node and a "Spine" child, both at identity.
func testRig() *model.ImportedModel {
	return &model.ImportedModel{
		Name: "vanguard",
		Nodes: []model.Node{
			{Name: "Hips", ParentIndex: -1, Rest: model.IdentityTransform()},
			{Name: "Spine", ParentIndex: 0, Rest: model.IdentityTransform()},
		},
		RootNodeIndices: []int32{0},
		NodeNameToIndex: map[string]int32{"Hips": 0, "Spine": 1},
	}
}

// constantClip returns a one-second clip holding Hips.translation at (x, 0, 0).
func constantClip(name string, x float32) *model.AnimationClip {
	return &model.AnimationClip{
		Name:     name,
		Duration: 1,
		Tracks: []model.KeyframeTrack{{
			NodeName: "Hips",
			Path:     model.TrackPathTranslation,
			Times:    []float32{0, 1},
			Values:   []float32{x, 0, 0, x, 0, 0},
		}},
	}
}

// hipsX returns the current Hips translation x component.
func hipsX(t *testing.T, rig RigTarget) float32 {
	t.Helper()
	tr, ok := rig.LocalTransform("Hips")
	require.True(t, ok)
	return tr.Translation[0]
}

func TestClipActionIsCachedPerClip(t *testing.T) {
	m := NewMixer(NewRigTarget(testRig()))
	clip := constantClip("samba", 1)

	a := m.ClipAction(clip)
	require.NotNil(t, a)
	assert.Same(t, a, m.ClipAction(clip))
	assert.Same(t, a, m.ExistingAction(clip))
	assert.NotSame(t, a, m.ClipAction(clip.Clone()))
	assert.Len(t, m.Actions(), 2)
	assert.Nil(t, m.ClipAction(nil))
}

func TestUnresolvableTracksAreSkipped(t *testing.T) {
	m := NewMixer(NewRigTarget(testRig()))
	clip := constantClip("samba", 1)
	clip.Tracks = append(clip.Tracks,
		model.KeyframeTrack{NodeName: "Tail", Path: model.TrackPathTranslation, Times: []float32{0}, Values: []float32{0, 0, 0}},
		model.KeyframeTrack{NodeName: "Spine", Path: model.TrackPathWeights, Times: []float32{0}, Values: []float32{1}},
	)

	a := m.ClipAction(clip)
	assert.Equal(t, 1, a.BoundTracks())
}

func TestUnplayedActionDoesNotAnimate(t *testing.T) {
	rig := NewRigTarget(testRig())
	m := NewMixer(rig)
	m.ClipAction(constantClip("idle", 5))

	m.Update(0.5)
	assert.Equal(t, float32(0), hipsX(t, rig))
	assert.Equal(t, float32(0.5), m.Time())
}

func TestPlayAppliesClip(t *testing.T) {
	rig := NewRigTarget(testRig())
	m := NewMixer(rig)

	clip := &model.AnimationClip{
		Name:     "walk",
		Duration: 1,
		Tracks: []model.KeyframeTrack{{
			NodeName: "Hips",
			Path:     model.TrackPathTranslation,
			Times:    []float32{0, 1},
			Values:   []float32{0, 0, 0, 2, 0, 0},
		}},
	}
	a := m.ClipAction(clip).Play()
	assert.True(t, a.IsRunning())

	m.Update(0.5)
	assert.InDelta(t, 1, hipsX(t, rig), 1e-6)
	assert.Equal(t, float32(1), a.EffectiveWeight())

	m.Update(0.75) // wraps to 0.25
	assert.InDelta(t, 0.25, a.Time(), 1e-6)
	assert.InDelta(t, 0.5, hipsX(t, rig), 1e-6)
}

func TestPartialWeightBlendsTowardRest(t *testing.T) {
	rig := NewRigTarget(testRig())
	m := NewMixer(rig)

	m.ClipAction(constantClip("a", 2)).SetEffectiveWeight(0.5).Play()
	m.Update(0.1)
	assert.InDelta(t, 1, hipsX(t, rig), 1e-6)

	m.ClipAction(constantClip("b", 4)).SetEffectiveWeight(0.5).Play()
	m.Update(0.1)
	assert.InDelta(t, 3, hipsX(t, rig), 1e-6)
}

func TestCrossFade(t *testing.T) {
	rig := NewRigTarget(testRig())
	m := NewMixer(rig)

	from := m.ClipAction(constantClip("default", 2)).Play()
	to := m.ClipAction(constantClip("samba", 4))

	from.FadeOut(1)
	to.Reset().FadeIn(1).Play()
	assert.True(t, from.IsFading())
	assert.True(t, to.IsFading())

	m.Update(0.25)
	assert.InDelta(t, 0.75, from.EffectiveWeight(), 1e-6)
	assert.InDelta(t, 0.25, to.EffectiveWeight(), 1e-6)
	assert.InDelta(t, 2.5, hipsX(t, rig), 1e-5)

	m.Update(1)
	assert.False(t, from.Enabled(), "a completed fade-out disables the action")
	assert.False(t, from.IsFading())
	assert.True(t, from.IsScheduled())
	assert.Equal(t, float32(0), from.EffectiveWeight())
	assert.Equal(t, float32(1), to.EffectiveWeight())
	assert.InDelta(t, 4, hipsX(t, rig), 1e-6)
}

func TestResetCancelsFadeAndReenables(t *testing.T) {
	m := NewMixer(NewRigTarget(testRig()))
	a := m.ClipAction(constantClip("samba", 1)).Play()

	a.FadeOut(0.1)
	m.Update(0.5)
	require.False(t, a.Enabled())

	a.SetTime(0.3).SetPaused(true).Reset()
	assert.True(t, a.Enabled())
	assert.False(t, a.Paused())
	assert.False(t, a.IsFading())
	assert.Equal(t, float32(0), a.Time())
}

func TestRefadeReplacesSchedule(t *testing.T) {
	m := NewMixer(NewRigTarget(testRig()))
	a := m.ClipAction(constantClip("samba", 1)).Play()

	a.FadeOut(1)
	m.Update(0.5)
	assert.InDelta(t, 0.5, a.EffectiveWeight(), 1e-6)

	// Fading in again restarts the ramp from zero at the current mixer time.
	a.FadeIn(1)
	m.Update(0.25)
	assert.InDelta(t, 0.25, a.EffectiveWeight(), 1e-6)
}

func TestDisabledScheduledActionRestoresRest(t *testing.T) {
	rig := NewRigTarget(testRig())
	m := NewMixer(rig)

	a := m.ClipAction(constantClip("default", 2)).Play()
	m.Update(0.1)
	require.InDelta(t, 2, hipsX(t, rig), 1e-6)

	a.FadeOut(0.1)
	m.Update(0.2)
	assert.Equal(t, float32(0), hipsX(t, rig))
}

func TestLoopOnceFinishes(t *testing.T) {
	m := NewMixer(NewRigTarget(testRig()))
	a := m.ClipAction(constantClip("wave", 1)).SetLoop(LoopOnce, 1).Play()

	var finished []Action
	m.OnFinished(func(done Action) { finished = append(finished, done) })

	m.Update(0.5)
	assert.Empty(t, finished)

	m.Update(0.75)
	require.Len(t, finished, 1)
	assert.Same(t, a, finished[0])
	assert.False(t, a.Enabled())
	assert.Equal(t, float32(1), a.Time())

	m.Update(0.5)
	assert.Len(t, finished, 1)
}

func TestClampWhenFinishedPauses(t *testing.T) {
	m := NewMixer(NewRigTarget(testRig()))
	a := m.ClipAction(constantClip("wave", 1)).SetLoop(LoopRepeat, 2).SetClampWhenFinished(true).Play()

	m.Update(2.5)
	assert.True(t, a.Paused())
	assert.True(t, a.Enabled())
	assert.Equal(t, float32(1), a.Time())
	assert.False(t, a.IsRunning())
}

func TestPingPongMirrorsOddPasses(t *testing.T) {
	rig := NewRigTarget(testRig())
	m := NewMixer(rig)

	clip := &model.AnimationClip{
		Name:     "sway",
		Duration: 1,
		Tracks: []model.KeyframeTrack{{
			NodeName: "Hips",
			Path:     model.TrackPathTranslation,
			Times:    []float32{0, 1},
			Values:   []float32{0, 0, 0, 1, 0, 0},
		}},
	}
	m.ClipAction(clip).SetLoop(LoopPingPong, RepeatForever).Play()

	m.Update(1.25)
	assert.InDelta(t, 0.75, hipsX(t, rig), 1e-6)
}

func TestStopAllActions(t *testing.T) {
	m := NewMixer(NewRigTarget(testRig()))
	a := m.ClipAction(constantClip("a", 1)).Play()
	b := m.ClipAction(constantClip("b", 1)).Play()
	require.Len(t, m.ScheduledActions(), 2)

	m.Update(0.3)
	m.StopAllActions()

	assert.Empty(t, m.ScheduledActions())
	assert.False(t, a.IsScheduled())
	assert.Equal(t, float32(0), b.Time())
}

func TestTimeScale(t *testing.T) {
	m := NewMixer(NewRigTarget(testRig()), WithTimeScale(2))
	a := m.ClipAction(constantClip("a", 1)).Play()

	m.Update(0.25)
	assert.InDelta(t, 0.5, m.Time(), 1e-6)
	assert.InDelta(t, 0.5, a.Time(), 1e-6)

	a.SetEffectiveTimeScale(0)
	assert.False(t, a.IsRunning())
}

func TestRigTargetResetPose(t *testing.T) {
	rig := NewRigTarget(testRig())
	rig.SetValue(0, model.TrackPathTranslation, []float32{1, 2, 3})

	tr, _ := rig.LocalTransform("Hips")
	assert.Equal(t, [3]float32{1, 2, 3}, tr.Translation)

	rig.ResetPose()
	tr, _ = rig.LocalTransform("Hips")
	assert.Equal(t, [3]float32{0, 0, 0}, tr.Translation)
	assert.Equal(t, 2, rig.NodeCount())

	_, ok := rig.LocalTransform("Tail")
	assert.False(t, ok)
}
