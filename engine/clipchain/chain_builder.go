package clipchain

import (
	"go.uber.org/zap"
)

// ChainBuilderOption is a functional option for configuring a Chain via NewClipChain.
type ChainBuilderOption func(*chain)

// WithMixerFactory is an option builder that sets how the shared mixer is created from the base
// model. The default animates an animation.RigTarget over the base model's nodes.
//
// Parameters:
//   - f: the mixer factory
//
// Returns:
//   - ChainBuilderOption: a function that applies the factory option to a chain
func WithMixerFactory(f MixerFactory) ChainBuilderOption {
	return func(c *chain) {
		c.mixerFactory = f
	}
}

// WithAutoplay is an option builder that plays the default action as soon as the base model binds.
// It is off by default: the default action only becomes the active action.
//
// Parameters:
//   - autoplay: whether to play the default action
//
// Returns:
//   - ChainBuilderOption: a function that applies the autoplay option to a chain
func WithAutoplay(autoplay bool) ChainBuilderOption {
	return func(c *chain) {
		c.autoplay = autoplay
	}
}

// WithFadeDuration is an option builder that sets the cross-fade length in seconds.
//
// Parameters:
//   - seconds: the fade duration (values <= 0 are ignored)
//
// Returns:
//   - ChainBuilderOption: a function that applies the fade option to a chain
func WithFadeDuration(seconds float32) ChainBuilderOption {
	return func(c *chain) {
		if seconds > 0 {
			c.fadeDuration = seconds
		}
	}
}

// WithLogger is an option builder that sets the chain's logger.
//
// Parameters:
//   - logger: the zap logger
//
// Returns:
//   - ChainBuilderOption: a function that applies the logger option to a chain
func WithLogger(logger *zap.Logger) ChainBuilderOption {
	return func(c *chain) {
		if logger != nil {
			c.logger = logger.Named("clipchain")
		}
	}
}
