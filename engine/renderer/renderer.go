package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-vanguard/engine/window"

	"go.uber.org/zap"
)

// ErrReleased is returned by Draw and Resize after Release.
var ErrReleased = errors.New("renderer released")

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend
	clear       Color
	released    bool

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	presentMode          PresentMode
	logger               *zap.Logger
}

// Renderer presents the stage: every frame clears the window surface to the current clear colour.
type Renderer interface {
	// SetClearColor sets the colour the next Draw clears to.
	//
	// Parameters:
	//   - c: the clear colour
	SetClearColor(c Color)

	// ClearColor returns the colour the next Draw clears to.
	ClearColor() Color

	// Resize reconfigures the surface for a new framebuffer size. Zero sizes are ignored.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	//
	// Returns:
	//   - error: error if the surface cannot be configured
	Resize(width, height int) error

	// Draw clears and presents one frame.
	//
	// Returns:
	//   - error: error if the surface texture cannot be acquired or submitted
	Draw() error

	// Release frees the GPU resources. Further Draw and Resize calls return ErrReleased.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer bound to the window's surface and configures it for the window's
// current size.
//
// Parameters:
//   - backendType: the rendering backend to use
//   - w: the window providing the surface descriptor and size
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the configured renderer
//   - error: error if the GPU device or surface cannot be set up
func NewRenderer(backendType RendererBackendType, w window.Window, options ...RendererBuilderOption) (Renderer, error) {
	r := newRenderer(backendType, options...)

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		backend, err := newWGPURendererBackend(w.SurfaceDescriptor(), r.forceFallbackAdapter)
		if err != nil {
			return nil, fmt.Errorf("create wgpu backend: %w", err)
		}
		r.backend = backend
	}

	if err := r.init(w.Width(), w.Height()); err != nil {
		r.backend.Release()
		return nil, err
	}
	return r, nil
}

// newRenderer applies options over the defaults without creating a backend.
func newRenderer(backendType RendererBackendType, options ...RendererBuilderOption) *renderer {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
		clear:       DefaultBackground,
		presentMode: PresentModeVSync,
		logger:      zap.NewNop(),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// init applies the present mode and performs the first surface configuration.
func (r *renderer) init(width, height int) error {
	r.backend.SetPresentMode(r.presentMode)
	if err := r.backend.ConfigureSurface(width, height); err != nil {
		return fmt.Errorf("configure surface: %w", err)
	}
	r.logger.Info("renderer ready", zap.Int("width", width), zap.Int("height", height))
	return nil
}

func (r *renderer) SetClearColor(c Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clear = c
}

func (r *renderer) ClearColor() Color {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clear
}

func (r *renderer) Resize(width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return ErrReleased
	}
	if width <= 0 || height <= 0 {
		return nil
	}
	if err := r.backend.ConfigureSurface(width, height); err != nil {
		return fmt.Errorf("configure surface %dx%d: %w", width, height, err)
	}
	r.logger.Debug("surface resized", zap.Int("width", width), zap.Int("height", height))
	return nil
}

func (r *renderer) Draw() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return ErrReleased
	}
	return r.backend.ClearFrame(r.clear)
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return
	}
	r.released = true
	r.backend.Release()
}
