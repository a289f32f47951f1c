package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Common errors returned by the parser
var (
	errInvalidGLTFVersion    = errors.New("invalid glTF version: must be 2.x")
	errUnsupportedMinVersion = errors.New("glTF asset requires a newer minVersion")
	errInvalidGLBMagic       = errors.New("invalid GLB magic number")
	errInvalidGLBVersion     = errors.New("invalid GLB version: must be 2")
	errMissingJSONChunk      = errors.New("GLB file missing JSON chunk")
	errInvalidBufferURI      = errors.New("invalid buffer URI")
	errBufferSizeMismatch    = errors.New("buffer size mismatch")
	errNoURIResolver         = errors.New("external buffer URI without a resolver")
	errInvalidAccessor       = errors.New("invalid accessor layout")
	errChunkTooLarge         = errors.New("GLB chunk exceeds file size")
)

// maxAccessorBytes caps the decoded size of a single accessor.
const maxAccessorBytes = 1 << 30

// gltfSupportedVersion is the newest glTF version this parser understands.
var gltfSupportedVersion = semver.MustParse("2.0.0")

// uriResolver fetches the bytes of an external buffer URI relative to the document being parsed.
type uriResolver func(uri string) ([]byte, error)

// gltfParserImpl is the implementation of the gltfParser interface.
type gltfParserImpl struct {
	resolve        uriResolver
	document       *gltfDocument
	glbBinaryChunk []byte
}

// gltfParser defines the interface for parsing glTF/GLB documents.
// It handles JSON deserialization, buffer loading, and typed accessor reads.
// This is internal to the loader package.
type gltfParser interface {
	// ParseBytes parses a glTF JSON or GLB binary document.
	// The format is detected from the GLB magic number.
	//
	// Parameters:
	//   - data: the complete document bytes
	//
	// Returns:
	//   - error: error if parsing fails
	ParseBytes(data []byte) error

	// ParseReader parses a glTF document from a reader.
	// Use this when loading from embedded resources or network streams.
	//
	// Parameters:
	//   - r: reader containing glTF JSON or GLB data
	//   - isGLB: true if the data is in GLB format
	//
	// Returns:
	//   - error: error if parsing fails
	ParseReader(r io.Reader, isGLB bool) error

	// Document returns the parsed glTF document.
	// Returns nil if no parse has succeeded.
	//
	// Returns:
	//   - *gltfDocument: the parsed document or nil
	Document() *gltfDocument

	// ReadAccessorData reads the raw, de-strided bytes of an accessor.
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//
	// Returns:
	//   - []byte: the raw data
	//   - error: error if reading fails
	ReadAccessorData(accessorIndex int) ([]byte, error)

	// ReadFloatAccessor reads any accessor as a flat float32 slice.
	// FLOAT data is copied as-is; normalized integer data is mapped to [0,1] or [-1,1]
	// following the glTF normalization rules; other integer data is converted directly.
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//
	// Returns:
	//   - []float32: count * components values
	//   - int: number of components per element
	//   - error: error if reading fails
	ReadFloatAccessor(accessorIndex int) ([]float32, int, error)

	// ReadScalarAccessor reads an accessor as scalar float data.
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//
	// Returns:
	//   - []float32: the scalar data
	//   - error: error if reading fails
	ReadScalarAccessor(accessorIndex int) ([]float32, error)
}

var _ gltfParser = &gltfParserImpl{}

// newGLTFParser creates a new glTF parser instance.
//
// Parameters:
//   - resolve: resolver for external buffer URIs (nil allows only embedded and GLB buffers)
//
// Returns:
//   - gltfParser: a new parser instance
func newGLTFParser(resolve uriResolver) gltfParser {
	return &gltfParserImpl{resolve: resolve}
}

func (p *gltfParserImpl) Document() *gltfDocument {
	return p.document
}

func (p *gltfParserImpl) ParseBytes(data []byte) error {
	if gltfIsGLB(data) {
		return p.parseGLB(data)
	}
	return p.parseGLTF(data)
}

func (p *gltfParserImpl) ParseReader(r io.Reader, isGLB bool) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read data: %w", err)
	}

	if isGLB {
		return p.parseGLB(data)
	}
	return p.parseGLTF(data)
}

// parseGLTF parses a glTF JSON document.
func (p *gltfParserImpl) parseGLTF(data []byte) error {
	var doc gltfDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse glTF JSON: %w", err)
	}

	if err := gltfCheckVersion(doc.Asset); err != nil {
		return err
	}

	if err := p.loadBuffers(&doc); err != nil {
		return fmt.Errorf("failed to load buffers: %w", err)
	}

	p.document = &doc
	return nil
}

// parseGLB parses a GLB binary document.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
func (p *gltfParserImpl) parseGLB(data []byte) error {
	if len(data) < 12 {
		return errors.New("GLB file too small")
	}

	r := bytes.NewReader(data)

	var header gltfGLBHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to read GLB header: %w", err)
	}

	if header.Magic != gltfGLBMagic {
		return errInvalidGLBMagic
	}
	if header.Version != gltfGLBVersion {
		return errInvalidGLBVersion
	}

	var jsonData []byte
	var binData []byte

	for {
		var chunkHeader gltfGLBChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &chunkHeader); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("failed to read chunk header: %w", err)
		}

		if int64(chunkHeader.ChunkLength) > int64(r.Len()) {
			return fmt.Errorf("chunk of %d bytes with %d left: %w", chunkHeader.ChunkLength, r.Len(), errChunkTooLarge)
		}
		chunkData := make([]byte, chunkHeader.ChunkLength)
		if _, err := io.ReadFull(r, chunkData); err != nil {
			return fmt.Errorf("failed to read chunk data: %w", err)
		}

		switch chunkHeader.ChunkType {
		case gltfGLBChunkJSON:
			jsonData = chunkData
		case gltfGLBChunkBIN:
			binData = chunkData
		}
	}

	if jsonData == nil {
		return errMissingJSONChunk
	}

	p.glbBinaryChunk = binData

	var doc gltfDocument
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return fmt.Errorf("failed to parse glTF JSON: %w", err)
	}

	if err := gltfCheckVersion(doc.Asset); err != nil {
		return err
	}

	if err := p.loadBuffers(&doc); err != nil {
		return fmt.Errorf("failed to load buffers: %w", err)
	}

	p.document = &doc
	return nil
}

// loadBuffers loads all buffer data (from URIs, embedded data, or the GLB binary chunk).
func (p *gltfParserImpl) loadBuffers(doc *gltfDocument) error {
	for i := range doc.Buffers {
		buf := &doc.Buffers[i]

		if buf.URI == "" {
			if i == 0 && p.glbBinaryChunk != nil {
				buf.Data = p.glbBinaryChunk
				if len(buf.Data) < buf.ByteLength {
					return fmt.Errorf("buffer %d: %w", i, errBufferSizeMismatch)
				}
				continue
			}
			return fmt.Errorf("buffer %d has no URI and no GLB binary chunk", i)
		}

		data, err := p.loadBufferURI(buf.URI)
		if err != nil {
			return fmt.Errorf("buffer %d: %w", i, err)
		}
		buf.Data = data

		if len(buf.Data) < buf.ByteLength {
			return fmt.Errorf("buffer %d: %w", i, errBufferSizeMismatch)
		}
	}

	return nil
}

// loadBufferURI loads buffer data from a data: URI or through the external resolver.
func (p *gltfParserImpl) loadBufferURI(uri string) ([]byte, error) {
	if strings.HasPrefix(uri, "data:") {
		return gltfDecodeDataURI(uri)
	}

	if p.resolve == nil {
		return nil, fmt.Errorf("%w: %q", errNoURIResolver, uri)
	}

	data, err := p.resolve(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to load buffer %q: %w", uri, err)
	}
	return data, nil
}

// --- Accessor Data Reading ---

func (p *gltfParserImpl) ReadAccessorData(accessorIndex int) ([]byte, error) {
	acc, err := p.accessor(accessorIndex)
	if err != nil {
		return nil, err
	}

	if acc.Sparse != nil {
		return nil, errors.New("sparse accessors not yet supported")
	}

	componentSize := gltfComponentTypeSize(acc.ComponentType)
	componentCount := gltfAccessorTypeComponentCount(acc.Type)
	elementSize := componentSize * componentCount
	if elementSize == 0 {
		return nil, fmt.Errorf("accessor %d: unsupported layout type=%s componentType=%d", accessorIndex, acc.Type, acc.ComponentType)
	}
	if acc.Count < 0 || acc.Count > maxAccessorBytes/elementSize {
		return nil, fmt.Errorf("accessor %d: count %d: %w", accessorIndex, acc.Count, errInvalidAccessor)
	}
	if acc.ByteOffset < 0 {
		return nil, fmt.Errorf("accessor %d: byteOffset %d: %w", accessorIndex, acc.ByteOffset, errInvalidAccessor)
	}

	// An accessor without a buffer view is all zeros.
	if acc.BufferView == nil {
		return make([]byte, acc.Count*elementSize), nil
	}

	if *acc.BufferView < 0 || *acc.BufferView >= len(p.document.BufferViews) {
		return nil, fmt.Errorf("accessor %d: bufferView %d out of range", accessorIndex, *acc.BufferView)
	}
	bv := &p.document.BufferViews[*acc.BufferView]
	if bv.Buffer < 0 || bv.Buffer >= len(p.document.Buffers) {
		return nil, fmt.Errorf("accessor %d: buffer %d out of range", accessorIndex, bv.Buffer)
	}
	if bv.ByteOffset < 0 {
		return nil, fmt.Errorf("accessor %d: bufferView byteOffset %d: %w", accessorIndex, bv.ByteOffset, errInvalidAccessor)
	}
	buf := &p.document.Buffers[bv.Buffer]

	stride := elementSize
	if bv.ByteStride != nil {
		if *bv.ByteStride < 0 {
			return nil, fmt.Errorf("accessor %d: byteStride %d: %w", accessorIndex, *bv.ByteStride, errInvalidAccessor)
		}
		if *bv.ByteStride > 0 {
			stride = *bv.ByteStride
		}
	}

	bufferOffset := bv.ByteOffset + acc.ByteOffset
	if acc.Count > 0 {
		// (count-1)*stride is compared by division so a huge count cannot overflow.
		room := len(buf.Data) - bufferOffset - elementSize
		if bufferOffset < 0 || room < 0 || (acc.Count-1) > room/stride {
			return nil, fmt.Errorf("accessor %d: %w", accessorIndex, errBufferSizeMismatch)
		}
	}

	result := make([]byte, acc.Count*elementSize)
	for i := 0; i < acc.Count; i++ {
		srcOffset := bufferOffset + i*stride
		dstOffset := i * elementSize
		copy(result[dstOffset:dstOffset+elementSize], buf.Data[srcOffset:srcOffset+elementSize])
	}

	return result, nil
}

func (p *gltfParserImpl) ReadFloatAccessor(accessorIndex int) ([]float32, int, error) {
	acc, err := p.accessor(accessorIndex)
	if err != nil {
		return nil, 0, err
	}

	data, err := p.ReadAccessorData(accessorIndex)
	if err != nil {
		return nil, 0, err
	}

	components := gltfAccessorTypeComponentCount(acc.Type)
	total := acc.Count * components
	result := make([]float32, total)

	le := binary.LittleEndian
	switch acc.ComponentType {
	case gltfComponentTypeFloat:
		for i := range result {
			result[i] = math.Float32frombits(le.Uint32(data[i*4:]))
		}
	case gltfComponentTypeByte:
		for i := range result {
			v := float32(int8(data[i]))
			if acc.Normalized {
				v = max(v/127, -1)
			}
			result[i] = v
		}
	case gltfComponentTypeUnsignedByte:
		for i := range result {
			v := float32(data[i])
			if acc.Normalized {
				v /= 255
			}
			result[i] = v
		}
	case gltfComponentTypeShort:
		for i := range result {
			v := float32(int16(le.Uint16(data[i*2:])))
			if acc.Normalized {
				v = max(v/32767, -1)
			}
			result[i] = v
		}
	case gltfComponentTypeUnsignedShort:
		for i := range result {
			v := float32(le.Uint16(data[i*2:]))
			if acc.Normalized {
				v /= 65535
			}
			result[i] = v
		}
	case gltfComponentTypeUnsignedInt:
		for i := range result {
			result[i] = float32(le.Uint32(data[i*4:]))
		}
	default:
		return nil, 0, fmt.Errorf("unsupported component type: %d", acc.ComponentType)
	}

	return result, components, nil
}

func (p *gltfParserImpl) ReadScalarAccessor(accessorIndex int) ([]float32, error) {
	acc, err := p.accessor(accessorIndex)
	if err != nil {
		return nil, err
	}
	if acc.Type != gltfAccessorTypeScalar || acc.ComponentType != gltfComponentTypeFloat {
		return nil, fmt.Errorf("accessor is not SCALAR FLOAT: type=%s, componentType=%d", acc.Type, acc.ComponentType)
	}

	values, _, err := p.ReadFloatAccessor(accessorIndex)
	return values, err
}

// accessor returns the accessor at the given index after bounds checking.
func (p *gltfParserImpl) accessor(accessorIndex int) (*gltfAccessor, error) {
	if p.document == nil {
		return nil, errors.New("no document loaded")
	}
	if accessorIndex < 0 || accessorIndex >= len(p.document.Accessors) {
		return nil, fmt.Errorf("accessor index %d out of range", accessorIndex)
	}
	return &p.document.Accessors[accessorIndex], nil
}

// --- Helper Functions ---

// gltfIsGLB reports whether data starts with the GLB magic number.
func gltfIsGLB(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == gltfGLBMagic
}

// gltfCheckVersion validates asset.version and asset.minVersion against the supported version.
func gltfCheckVersion(asset gltfAsset) error {
	v, err := semver.NewVersion(asset.Version)
	if err != nil {
		return fmt.Errorf("%w: %q", errInvalidGLTFVersion, asset.Version)
	}
	if v.Major() != gltfSupportedVersion.Major() {
		return fmt.Errorf("%w: %q", errInvalidGLTFVersion, asset.Version)
	}

	if asset.MinVersion != "" {
		minV, err := semver.NewVersion(asset.MinVersion)
		if err != nil || minV.GreaterThan(gltfSupportedVersion) {
			return fmt.Errorf("%w: %q", errUnsupportedMinVersion, asset.MinVersion)
		}
	}
	return nil
}

// gltfDecodeDataURI decodes a base64 data URI.
// Format: data:[<mediatype>][;base64],<data>
func gltfDecodeDataURI(uri string) ([]byte, error) {
	commaIdx := strings.Index(uri, ",")
	if commaIdx < 0 {
		return nil, errInvalidBufferURI
	}

	header := uri[5:commaIdx]
	dataStr := uri[commaIdx+1:]

	if !strings.Contains(header, "base64") {
		return nil, fmt.Errorf("unsupported data URI encoding: %s", header)
	}

	data, err := base64.StdEncoding.DecodeString(dataStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}

	return data, nil
}

// gltfComponentTypeSize returns the byte size of a component type.
func gltfComponentTypeSize(componentType int) int {
	switch componentType {
	case gltfComponentTypeByte, gltfComponentTypeUnsignedByte:
		return 1
	case gltfComponentTypeShort, gltfComponentTypeUnsignedShort:
		return 2
	case gltfComponentTypeUnsignedInt, gltfComponentTypeFloat:
		return 4
	default:
		return 0
	}
}

// gltfAccessorTypeComponentCount returns the number of components for an accessor type.
func gltfAccessorTypeComponentCount(accessorType string) int {
	switch accessorType {
	case gltfAccessorTypeScalar:
		return 1
	case gltfAccessorTypeVec2:
		return 2
	case gltfAccessorTypeVec3:
		return 3
	case gltfAccessorTypeVec4:
		return 4
	case gltfAccessorTypeMat2:
		return 4
	case gltfAccessorTypeMat3:
		return 9
	case gltfAccessorTypeMat4:
		return 16
	default:
		return 0
	}
}
