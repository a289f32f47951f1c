package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-vanguard/engine/dispatch"
	"github.com/Carmen-Shannon/oxy-vanguard/engine/window"

	"go.uber.org/zap"
)

// EngineBuilderOption is a functional option for configuring an Engine.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables frame statistics logging.
//
// Parameters:
//   - enabled: if true, enables the profiler
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfileInterval sets how often the profiler reports.
//
// Parameters:
//   - interval: the reporting interval, non-positive keeps the default of 1 second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfileInterval(interval time.Duration) EngineBuilderOption {
	return func(e *engine) {
		if interval > 0 {
			e.profileInterval = interval
		}
	}
}

// WithWindow sets the window whose message loop drives the frames. Without a window the engine
// runs headless.
//
// Parameters:
//   - w: an open Window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithQueue sets the dispatch queue drained each frame, for callers that create the queue before
// the engine.
//
// Parameters:
//   - q: the queue
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithQueue(q dispatch.Queue) EngineBuilderOption {
	return func(e *engine) {
		if q != nil {
			e.queue = q
		}
	}
}

// WithRenderFrameLimit sets an optional frame rate cap in frames per second.
// Pass 0 to uncap the loop (default).
//
// Parameters:
//   - fps: maximum frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.renderFrameLimit = frameDuration(fps)
	}
}

// WithLogger sets the engine's logger.
//
// Parameters:
//   - logger: the zap logger
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(logger *zap.Logger) EngineBuilderOption {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger.Named("engine")
		}
	}
}
