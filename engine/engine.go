package engine

import (
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-vanguard/engine/dispatch"
	"github.com/Carmen-Shannon/oxy-vanguard/engine/profiler"
	"github.com/Carmen-Shannon/oxy-vanguard/engine/window"

	"go.uber.org/zap"
)

// engine implements the Engine interface.
type engine struct {
	quitChannel chan struct{}
	quitOnce    sync.Once

	window window.Window
	queue  dispatch.Queue

	profiler         *profiler.Profiler
	profilingEnabled bool
	profileInterval  time.Duration

	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	lastFrame        time.Time
	frames           uint64

	now    func() time.Time
	sleep  func(time.Duration)
	logger *zap.Logger
}

// Engine runs the single-threaded frame loop. Every frame drains the dispatch queue, then calls
// the tick callback and the render callback on the loop goroutine, so work posted from loader or
// panel goroutines never races scene state.
type Engine interface {
	// Window returns the window driving the loop, or nil when running headless.
	Window() window.Window

	// Dispatcher returns the queue drained at the start of every frame.
	//
	// Returns:
	//   - dispatch.Dispatcher: the frame-loop dispatcher
	Dispatcher() dispatch.Dispatcher

	// EnableProfiler enables frame statistics logging.
	EnableProfiler()

	// DisableProfiler disables frame statistics logging.
	DisableProfiler()

	// SetTickCallback registers the function called each frame after the queue is drained.
	// Use it for animation updates.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called each frame after the tick callback.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional frame rate cap in frames per second.
	// Pass 0 to uncap the loop.
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Frames returns the number of frames run so far.
	Frames() uint64

	// Run runs frames on the calling goroutine until the window closes or Quit is called.
	// With a window it must be the goroutine that created the window.
	Run()

	// Quit stops the loop after the current frame. Safe to call multiple times and from any goroutine.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine instance with the provided options.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		quitChannel:     make(chan struct{}),
		queue:           dispatch.NewQueue(),
		profileInterval: time.Second,
		now:             time.Now,
		sleep:           time.Sleep,
		logger:          zap.NewNop(),
	}

	for _, opt := range options {
		opt(e)
	}

	e.profiler = profiler.NewProfiler(e.profileInterval, e.logger)
	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Dispatcher() dispatch.Dispatcher {
	return e.queue
}

func (e *engine) Run() {
	e.lastFrame = e.now()
	e.logger.Info("frame loop started", zap.Bool("headless", e.window == nil))

	if e.window == nil {
		for !e.quitting() {
			e.frame()
		}
	} else {
		e.window.SetUpdateCallback(func() {
			if e.quitting() {
				e.window.RequestClose()
				return
			}
			e.frame()
		})
		e.window.ProcessMessages()
		e.signalQuit()
	}

	e.logger.Info("frame loop stopped", zap.Uint64("frames", e.frames))
}

func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// quitting reports whether Quit has been called.
func (e *engine) quitting() bool {
	select {
	case <-e.quitChannel:
		return true
	default:
		return false
	}
}

// frame runs one iteration: drain posted work, tick, render, profile, then honour the frame limit.
func (e *engine) frame() {
	start := e.now()
	dt := float32(start.Sub(e.lastFrame).Seconds())
	e.lastFrame = start

	e.queue.Drain()

	if e.tickCallback != nil {
		e.tickCallback(dt)
	}
	if e.renderCallback != nil {
		e.renderCallback(dt)
	}

	if e.profilingEnabled {
		e.profiler.Tick()
	}
	e.frames++

	if e.renderFrameLimit > 0 {
		if remaining := e.renderFrameLimit - e.now().Sub(start); remaining > 0 {
			e.sleep(remaining)
		}
	}
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.renderFrameLimit = frameDuration(fps)
}

func (e *engine) Frames() uint64 {
	return e.frames
}

// frameDuration converts a frame rate cap into a minimum frame duration. Non-positive rates uncap.
func frameDuration(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
