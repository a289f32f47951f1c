package renderer

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	PresentModeUncapped
)

// RendererBackend is the GPU side of the Renderer.
type RendererBackend interface {
	// ConfigureSurface (re)configures the presentation surface for the given pixel size.
	ConfigureSurface(width, height int) error

	// SetPresentMode stores the present mode applied by the next ConfigureSurface.
	SetPresentMode(mode PresentMode)

	// ClearFrame acquires the next surface texture, clears it to c and presents it.
	ClearFrame(c Color) error

	// Release frees every GPU object held by the backend.
	Release()
}
