package animation

import (
	"go.uber.org/zap"
)

// MixerBuilderOption is a functional option for configuring a Mixer via NewMixer.
type MixerBuilderOption func(*mixer)

// WithTimeScale is an option builder that sets the mixer's global speed multiplier.
//
// Parameters:
//   - scale: the multiplier applied to every Update delta
//
// Returns:
//   - MixerBuilderOption: a function that applies the time scale option to a mixer
func WithTimeScale(scale float32) MixerBuilderOption {
	return func(m *mixer) {
		m.timeScale = scale
	}
}

// WithLogger is an option builder that sets the mixer's logger.
//
// Parameters:
//   - logger: the zap logger
//
// Returns:
//   - MixerBuilderOption: a function that applies the logger option to a mixer
func WithLogger(logger *zap.Logger) MixerBuilderOption {
	return func(m *mixer) {
		if logger != nil {
			m.logger = logger.Named("mixer")
		}
	}
}
