package animation

import (
	"github.com/Carmen-Shannon/oxy-vanguard/common"
	"github.com/Carmen-Shannon/oxy-vanguard/engine/model"
)

// bindingKey identifies one animated property of one target node.
type bindingKey struct {
	node int
	path model.TrackPath
}

// propertyMixer accumulates the weighted samples every playing action produces for a single
// property and writes the blend to the target. Actions animating the same node property share
// one propertyMixer.
type propertyMixer struct {
	key  bindingKey
	size int
	rest []float32

	buffer     []float32
	cumulative float32
	touched    bool

	// useCount is the number of actions bound to this property.
	useCount int
}

// newPropertyMixer creates a property mixer for key with the given rest value.
func newPropertyMixer(key bindingKey, rest []float32) *propertyMixer {
	return &propertyMixer{
		key:    key,
		size:   len(rest),
		rest:   rest,
		buffer: make([]float32, len(rest)),
	}
}

// quaternion reports whether the property blends with slerp.
func (p *propertyMixer) quaternion() bool {
	return p.key.path == model.TrackPathRotation
}

// begin clears the accumulation state for a new frame.
func (p *propertyMixer) begin() {
	p.cumulative = 0
	p.touched = false
}

// accumulate folds a weighted sample into the buffer. Each new sample is mixed in by its share of
// the cumulative weight, which yields the weighted average of all samples.
//
// Parameters:
//   - value: the sampled property value
//   - weight: the action's effective weight (> 0)
func (p *propertyMixer) accumulate(value []float32, weight float32) {
	p.touched = true
	if weight <= 0 {
		return
	}

	if p.cumulative == 0 {
		copy(p.buffer, value)
		p.cumulative = weight
		return
	}

	p.cumulative += weight
	mix := weight / p.cumulative
	if p.quaternion() {
		common.QuatSlerpInto(p.buffer, p.buffer, value, mix)
	} else {
		common.LerpInto(p.buffer, p.buffer, value, mix)
	}
}

// apply writes the blended value to the target. When the cumulative weight is below one the
// remainder is taken from the rest value. Properties no playing action touched are left alone.
//
// Parameters:
//   - target: the animated target
func (p *propertyMixer) apply(target Target) {
	if !p.touched {
		return
	}

	switch {
	case p.cumulative <= 0:
		copy(p.buffer, p.rest)
	case p.cumulative < 1:
		mix := 1 - p.cumulative
		if p.quaternion() {
			common.QuatSlerpInto(p.buffer, p.buffer, p.rest, mix)
		} else {
			common.LerpInto(p.buffer, p.buffer, p.rest, mix)
		}
	}

	target.SetValue(p.key.node, p.key.path, p.buffer)
}
