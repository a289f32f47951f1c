// gltf_types.go contains the subset of glTF 2.0 data structures needed to read node hierarchies
// and animations. Mesh, material and texture objects are ignored by encoding/json.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html
package loader

// --- glTF Root Structure ---

// gltfDocument represents the root of a glTF JSON document.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-gltf
type gltfDocument struct {
	// Asset contains metadata about the glTF asset.
	Asset gltfAsset `json:"asset"`

	// Scene is the index of the default scene.
	Scene *int `json:"scene,omitempty"`

	// Scenes is an array of scenes.
	Scenes []gltfScene `json:"scenes,omitempty"`

	// Nodes is an array of nodes (transform hierarchy).
	Nodes []gltfNode `json:"nodes,omitempty"`

	// Accessors define how to interpret buffer data.
	Accessors []gltfAccessor `json:"accessors,omitempty"`

	// BufferViews define portions of buffers.
	BufferViews []gltfBufferView `json:"bufferViews,omitempty"`

	// Buffers are raw binary data containers.
	Buffers []gltfBuffer `json:"buffers,omitempty"`

	// Animations is an array of animations.
	Animations []gltfAnimation `json:"animations,omitempty"`

	// ExtensionsRequired lists extensions required to load this asset.
	ExtensionsRequired []string `json:"extensionsRequired,omitempty"`
}

// --- Asset Metadata ---

// gltfAsset contains metadata about the glTF asset.
type gltfAsset struct {
	// Version is the glTF version this asset targets (e.g. "2.0").
	Version string `json:"version"`

	// MinVersion is the minimum glTF version required to load this asset.
	MinVersion string `json:"minVersion,omitempty"`

	// Generator is the tool that produced the asset.
	Generator string `json:"generator,omitempty"`
}

// --- Scene Graph ---

// gltfScene is a set of root nodes.
type gltfScene struct {
	Name  string `json:"name,omitempty"`
	Nodes []int  `json:"nodes,omitempty"`
}

// gltfNode is a node in the glTF transform hierarchy.
// A node carries either a matrix or any combination of TRS properties.
type gltfNode struct {
	Name        string       `json:"name,omitempty"`
	Children    []int        `json:"children,omitempty"`
	Matrix      *[16]float32 `json:"matrix,omitempty"`
	Translation *[3]float32  `json:"translation,omitempty"`
	Rotation    *[4]float32  `json:"rotation,omitempty"`
	Scale       *[3]float32  `json:"scale,omitempty"`
	Weights     []float32    `json:"weights,omitempty"`
}

// --- Buffers & Accessors ---

// gltfAccessor describes a typed view into a buffer view.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-accessor
type gltfAccessor struct {
	// BufferView is the index of the buffer view. When absent the accessor reads as zeros.
	BufferView *int `json:"bufferView,omitempty"`

	// ByteOffset is the offset relative to the start of the buffer view.
	ByteOffset int `json:"byteOffset,omitempty"`

	// ComponentType is the datatype of the accessor's components.
	ComponentType int `json:"componentType"`

	// Normalized reports whether integer data values are normalized to [0,1] or [-1,1].
	Normalized bool `json:"normalized,omitempty"`

	// Count is the number of elements referenced by this accessor.
	Count int `json:"count"`

	// Type specifies if the elements are scalars, vectors or matrices.
	Type string `json:"type"`

	// Sparse defines sparse storage of accessor values (unsupported, presence is an error).
	Sparse *struct {
		Count int `json:"count"`
	} `json:"sparse,omitempty"`
}

// ComponentType constants
const (
	gltfComponentTypeByte          = 5120
	gltfComponentTypeUnsignedByte  = 5121
	gltfComponentTypeShort         = 5122
	gltfComponentTypeUnsignedShort = 5123
	gltfComponentTypeUnsignedInt   = 5125
	gltfComponentTypeFloat         = 5126
)

// Accessor type constants
const (
	gltfAccessorTypeScalar = "SCALAR"
	gltfAccessorTypeVec2   = "VEC2"
	gltfAccessorTypeVec3   = "VEC3"
	gltfAccessorTypeVec4   = "VEC4"
	gltfAccessorTypeMat2   = "MAT2"
	gltfAccessorTypeMat3   = "MAT3"
	gltfAccessorTypeMat4   = "MAT4"
)

// gltfBufferView represents a subset of a buffer.
type gltfBufferView struct {
	Buffer     int  `json:"buffer"`
	ByteOffset int  `json:"byteOffset,omitempty"`
	ByteLength int  `json:"byteLength"`
	ByteStride *int `json:"byteStride,omitempty"`
}

// gltfBuffer points to binary data: an external file, a data URI or the GLB BIN chunk.
type gltfBuffer struct {
	URI        string `json:"uri,omitempty"`
	ByteLength int    `json:"byteLength"`

	// Data is populated by the parser after resolving the URI.
	Data []byte `json:"-"`
}

// --- Animation ---

// gltfAnimation is a keyframe animation.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-animation
type gltfAnimation struct {
	Name     string            `json:"name,omitempty"`
	Channels []gltfAnimChannel `json:"channels"`
	Samplers []gltfAnimSampler `json:"samplers"`
}

// gltfAnimChannel targets one property of one node with a sampler.
type gltfAnimChannel struct {
	Sampler int            `json:"sampler"`
	Target  gltfAnimTarget `json:"target"`
}

// gltfAnimTarget identifies the animated node and property.
type gltfAnimTarget struct {
	Node *int   `json:"node,omitempty"`
	Path string `json:"path"`
}

// gltfAnimSampler combines keyframe timestamps with output values and an interpolation mode.
type gltfAnimSampler struct {
	Input         int    `json:"input"`
	Output        int    `json:"output"`
	Interpolation string `json:"interpolation,omitempty"`
}

// Animation interpolation constants
const (
	gltfAnimInterpolationLinear      = "LINEAR"
	gltfAnimInterpolationStep        = "STEP"
	gltfAnimInterpolationCubicSpline = "CUBICSPLINE"
)

// Animation path constants
const (
	gltfAnimPathTranslation = "translation"
	gltfAnimPathRotation    = "rotation"
	gltfAnimPathScale       = "scale"
	gltfAnimPathWeights     = "weights"
)

// --- GLB Binary Format ---

// gltfGLBHeader is the header of a GLB file (12 bytes).
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
type gltfGLBHeader struct {
	Magic   uint32 // Must be 0x46546C67 ("glTF" in ASCII)
	Version uint32 // Must be 2
	Length  uint32 // Total file length
}

// gltfGLBChunkHeader is the header of a GLB chunk (8 bytes).
type gltfGLBChunkHeader struct {
	ChunkLength uint32
	ChunkType   uint32 // 0x4E4F534A for JSON, 0x004E4942 for BIN
}

// GLB magic number and chunk type constants
const (
	gltfGLBMagic     = 0x46546C67 // "glTF" in little-endian ASCII
	gltfGLBVersion   = 2
	gltfGLBChunkJSON = 0x4E4F534A // "JSON" in little-endian ASCII
	gltfGLBChunkBIN  = 0x004E4942 // "BIN\0" in little-endian ASCII
)
