package loader

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-vanguard/engine/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBytesDetectsContainer(t *testing.T) {
	fx := newFixture(fixtureClip{name: "idle", trackNodes: []int{0, 1}})

	for name, data := range map[string][]byte{
		"gltf": fx.gltf(t),
		"glb":  fx.glb(t),
	} {
		t.Run(name, func(t *testing.T) {
			p := newGLTFParser(nil)
			require.NoError(t, p.ParseBytes(data))

			doc := p.Document()
			require.NotNil(t, doc)
			assert.Len(t, doc.Nodes, 2)
			assert.Len(t, doc.Animations, 1)

			times, err := p.ReadScalarAccessor(0)
			require.NoError(t, err)
			assert.Equal(t, []float32{0, 1}, times)
		})
	}
}

func TestParseReaderGLB(t *testing.T) {
	p := newGLTFParser(nil)
	require.NoError(t, p.ParseReader(bytes.NewReader(newFixture().glb(t)), true))
	assert.Equal(t, "2.0", p.Document().Asset.Version)
}

func TestGLTFCheckVersion(t *testing.T) {
	cases := []struct {
		name  string
		asset gltfAsset
		want  error
	}{
		{name: "2.0", asset: gltfAsset{Version: "2.0"}},
		{name: "2.1 minor", asset: gltfAsset{Version: "2.1"}},
		{name: "1.0", asset: gltfAsset{Version: "1.0"}, want: errInvalidGLTFVersion},
		{name: "garbage", asset: gltfAsset{Version: "two"}, want: errInvalidGLTFVersion},
		{name: "min ok", asset: gltfAsset{Version: "2.0", MinVersion: "2.0"}},
		{name: "min too new", asset: gltfAsset{Version: "2.0", MinVersion: "2.1"}, want: errUnsupportedMinVersion},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := gltfCheckVersion(tc.asset)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestParseRejectsBadGLB(t *testing.T) {
	data := newFixture().glb(t)
	data[4] = 1 // container version

	err := newGLTFParser(nil).ParseBytes(data)
	assert.ErrorIs(t, err, errInvalidGLBVersion)
}

func TestExternalBufferNeedsResolver(t *testing.T) {
	doc, bin := newFixture(fixtureClip{name: "idle", trackNodes: []int{0}}).gltfExternal(t, "anim.bin")

	err := newGLTFParser(nil).ParseBytes(doc)
	assert.ErrorIs(t, err, errNoURIResolver)

	var requested string
	p := newGLTFParser(func(uri string) ([]byte, error) {
		requested = uri
		return bin, nil
	})
	require.NoError(t, p.ParseBytes(doc))
	assert.Equal(t, "anim.bin", requested)

	resolveErr := errors.New("missing")
	p = newGLTFParser(func(string) ([]byte, error) { return nil, resolveErr })
	assert.ErrorIs(t, p.ParseBytes(doc), resolveErr)
}

func TestReadAccessorWithoutBufferViewIsZero(t *testing.T) {
	p := &gltfParserImpl{document: &gltfDocument{
		Accessors: []gltfAccessor{{ComponentType: gltfComponentTypeFloat, Count: 2, Type: gltfAccessorTypeVec3}},
	}}

	values, components, err := p.ReadFloatAccessor(0)
	require.NoError(t, err)
	assert.Equal(t, 3, components)
	assert.Equal(t, make([]float32, 6), values)
}

func TestReadFloatAccessorNormalized(t *testing.T) {
	view := 0
	p := &gltfParserImpl{document: &gltfDocument{
		Buffers:     []gltfBuffer{{ByteLength: 2, Data: []byte{255, 0}}},
		BufferViews: []gltfBufferView{{Buffer: 0, ByteLength: 2}},
		Accessors: []gltfAccessor{{
			BufferView:    &view,
			ComponentType: gltfComponentTypeUnsignedByte,
			Normalized:    true,
			Count:         2,
			Type:          gltfAccessorTypeScalar,
		}},
	}}

	values, _, err := p.ReadFloatAccessor(0)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, values)
}

func TestReadAccessorOutOfBounds(t *testing.T) {
	view := 0
	p := &gltfParserImpl{document: &gltfDocument{
		Buffers:     []gltfBuffer{{ByteLength: 4, Data: make([]byte, 4)}},
		BufferViews: []gltfBufferView{{Buffer: 0, ByteLength: 4}},
		Accessors:   []gltfAccessor{{BufferView: &view, ComponentType: gltfComponentTypeFloat, Count: 2, Type: gltfAccessorTypeScalar}},
	}}

	_, err := p.ReadAccessorData(0)
	assert.ErrorIs(t, err, errBufferSizeMismatch)
}

func TestReadAccessorRejectsMalformedLayout(t *testing.T) {
	view := 0
	stride := -4
	base := func() *gltfDocument {
		return &gltfDocument{
			Buffers:     []gltfBuffer{{ByteLength: 16, Data: make([]byte, 16)}},
			BufferViews: []gltfBufferView{{Buffer: 0, ByteLength: 16}},
			Accessors:   []gltfAccessor{{BufferView: &view, ComponentType: gltfComponentTypeFloat, Count: 2, Type: gltfAccessorTypeScalar}},
		}
	}

	tests := []struct {
		name   string
		mutate func(doc *gltfDocument)
		want   error
	}{
		{"negative accessor offset", func(doc *gltfDocument) { doc.Accessors[0].ByteOffset = -1000 }, errInvalidAccessor},
		{"negative view offset", func(doc *gltfDocument) { doc.BufferViews[0].ByteOffset = -8 }, errInvalidAccessor},
		{"negative stride", func(doc *gltfDocument) { doc.BufferViews[0].ByteStride = &stride }, errInvalidAccessor},
		{"negative count", func(doc *gltfDocument) { doc.Accessors[0].Count = -1 }, errInvalidAccessor},
		{"negative count without view", func(doc *gltfDocument) {
			doc.Accessors[0].BufferView = nil
			doc.Accessors[0].Count = -3
		}, errInvalidAccessor},
		{"huge count", func(doc *gltfDocument) { doc.Accessors[0].Count = math.MaxInt / 2 }, errInvalidAccessor},
		{"offset past buffer", func(doc *gltfDocument) { doc.Accessors[0].ByteOffset = 100 }, errBufferSizeMismatch},
		{"offsets overflow", func(doc *gltfDocument) {
			doc.Accessors[0].ByteOffset = math.MaxInt
			doc.BufferViews[0].ByteOffset = math.MaxInt
		}, errBufferSizeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := base()
			tt.mutate(doc)
			p := &gltfParserImpl{document: doc}

			var err error
			require.NotPanics(t, func() { _, err = p.ReadAccessorData(0) })
			assert.ErrorIs(t, err, tt.want)
		})
	}

	p := &gltfParserImpl{document: base()}
	data, err := p.ReadAccessorData(0)
	require.NoError(t, err)
	assert.Len(t, data, 8)
}

func TestParseRejectsOversizedGLBChunk(t *testing.T) {
	data := newFixture().glb(t)
	// first chunk length, right after the 12-byte header
	binary.LittleEndian.PutUint32(data[12:], math.MaxUint32)

	var err error
	require.NotPanics(t, func() { err = newGLTFParser(nil).ParseBytes(data) })
	assert.ErrorIs(t, err, errChunkTooLarge)
}

func TestImportExtractsNodesAndAnimations(t *testing.T) {
	fx := newFixture(
		fixtureClip{name: "samba", trackNodes: []int{0, 1, 1}},
		fixtureClip{name: "idle", trackNodes: []int{1}},
	)

	m, err := newGLTFImporter().ImportBytes("vanguard.glb", fx.glb(t), nil)
	require.NoError(t, err)

	assert.Equal(t, "Vanguard", m.Name)
	require.Len(t, m.Nodes, 2)
	assert.Equal(t, "Hips", m.Nodes[0].Name)
	assert.Equal(t, int32(-1), m.Nodes[0].ParentIndex)
	assert.Equal(t, int32(0), m.Nodes[1].ParentIndex)
	assert.Equal(t, [3]float32{0, 1, 0}, m.Nodes[0].Rest.Translation)
	assert.Equal(t, []int32{0}, m.RootNodeIndices)
	assert.Equal(t, int32(1), m.NodeNameToIndex["Spine"])

	require.Len(t, m.Animations, 2)
	clip := m.FirstAnimation()
	assert.Equal(t, "samba", clip.Name)
	assert.InDelta(t, 1.0, clip.Duration, 1e-6)
	require.Len(t, clip.Tracks, 3)
	assert.Equal(t, "Hips.translation", clip.Tracks[0].Name())
	assert.Equal(t, "Spine.translation", clip.Tracks[1].Name())
	assert.Equal(t, model.InterpolationLinear, clip.Tracks[0].Interpolation)
	assert.Equal(t, []float32{0, 0, 0, 3, 0, 0}, clip.Tracks[2].Values)
}

func TestImportFallbackName(t *testing.T) {
	fx := newFixture()
	fx.sceneName = ""

	m, err := newGLTFImporter().ImportBytes("model.gltf", fx.gltf(t), nil)
	require.NoError(t, err)
	assert.Equal(t, "model.gltf", m.Name)
	assert.Nil(t, m.FirstAnimation())
}

func TestDecomposeMatrixTranslationScale(t *testing.T) {
	// Column-major: scale (2,3,4) then translation (5,6,7).
	m := [16]float32{
		2, 0, 0, 0,
		0, 3, 0, 0,
		0, 0, 4, 0,
		5, 6, 7, 1,
	}

	tr := gltfDecomposeMatrix(m)
	assert.Equal(t, [3]float32{5, 6, 7}, tr.Translation)
	assert.InDeltaSlice(t, []float32{2, 3, 4}, tr.Scale[:], 1e-5)
	assert.InDeltaSlice(t, []float32{0, 0, 0, 1}, tr.Rotation[:], 1e-5)
}
