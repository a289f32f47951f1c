package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// fixtureClip describes one animation written into a test document. Each track animates
// the node at trackNodes[i] with a two-key translation track.
type fixtureClip struct {
	name       string
	trackNodes []int
}

// fixtureDoc assembles minimal glTF documents with a two-node hierarchy ("Hips" -> "Spine")
// and any number of translation-only animations.
type fixtureDoc struct {
	clips     []fixtureClip
	version   string
	sceneName string
	mutate    func(doc map[string]any) // applied to the JSON document before encoding
}

func newFixture(clips ...fixtureClip) *fixtureDoc {
	return &fixtureDoc{clips: clips, version: "2.0", sceneName: "Vanguard"}
}

// build returns the JSON document and its binary buffer.
func (f *fixtureDoc) build(t *testing.T) (map[string]any, []byte) {
	t.Helper()

	var bin bytes.Buffer
	var accessors, views []map[string]any

	addFloats := func(typ string, count int, values []float32) int {
		offset := bin.Len()
		require.NoError(t, binary.Write(&bin, binary.LittleEndian, values))
		views = append(views, map[string]any{
			"buffer":     0,
			"byteOffset": offset,
			"byteLength": len(values) * 4,
		})
		accessors = append(accessors, map[string]any{
			"bufferView":    len(views) - 1,
			"componentType": gltfComponentTypeFloat,
			"count":         count,
			"type":          typ,
		})
		return len(accessors) - 1
	}

	times := addFloats(gltfAccessorTypeScalar, 2, []float32{0, 1})

	var animations []map[string]any
	for _, clip := range f.clips {
		var channels, samplers []map[string]any
		for i, node := range clip.trackNodes {
			out := addFloats(gltfAccessorTypeVec3, 2, []float32{0, 0, 0, float32(i + 1), 0, 0})
			samplers = append(samplers, map[string]any{"input": times, "output": out})
			channels = append(channels, map[string]any{
				"sampler": len(samplers) - 1,
				"target":  map[string]any{"node": node, "path": gltfAnimPathTranslation},
			})
		}
		animations = append(animations, map[string]any{
			"name":     clip.name,
			"channels": channels,
			"samplers": samplers,
		})
	}

	doc := map[string]any{
		"asset":  map[string]any{"version": f.version},
		"scene":  0,
		"scenes": []map[string]any{{"name": f.sceneName, "nodes": []int{0}}},
		"nodes": []map[string]any{
			{"name": "Hips", "children": []int{1}, "translation": []float32{0, 1, 0}},
			{"name": "Spine", "rotation": []float32{0, 0, 0, 1}},
		},
		"accessors":   accessors,
		"bufferViews": views,
		"buffers":     []map[string]any{{"byteLength": bin.Len()}},
	}
	if len(animations) > 0 {
		doc["animations"] = animations
	}
	if f.mutate != nil {
		f.mutate(doc)
	}
	return doc, bin.Bytes()
}

// gltf returns a .gltf JSON document with its buffer embedded as a data URI.
func (f *fixtureDoc) gltf(t *testing.T) []byte {
	t.Helper()
	doc, bin := f.build(t)
	doc["buffers"] = []map[string]any{{
		"byteLength": len(bin),
		"uri":        "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(bin),
	}}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return data
}

// gltfExternal returns a .gltf JSON document referencing its buffer by relative URI, plus the buffer.
func (f *fixtureDoc) gltfExternal(t *testing.T, uri string) ([]byte, []byte) {
	t.Helper()
	doc, bin := f.build(t)
	doc["buffers"] = []map[string]any{{"byteLength": len(bin), "uri": uri}}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return data, bin
}

// glb returns a binary GLB container.
func (f *fixtureDoc) glb(t *testing.T) []byte {
	t.Helper()
	doc, bin := f.build(t)
	jsonData, err := json.Marshal(doc)
	require.NoError(t, err)

	jsonData = pad4(jsonData, ' ')
	bin = pad4(bin, 0)

	var out bytes.Buffer
	total := 12 + 8 + len(jsonData) + 8 + len(bin)
	require.NoError(t, binary.Write(&out, binary.LittleEndian, gltfGLBHeader{
		Magic:   gltfGLBMagic,
		Version: gltfGLBVersion,
		Length:  uint32(total),
	}))
	require.NoError(t, binary.Write(&out, binary.LittleEndian, gltfGLBChunkHeader{
		ChunkLength: uint32(len(jsonData)),
		ChunkType:   gltfGLBChunkJSON,
	}))
	out.Write(jsonData)
	require.NoError(t, binary.Write(&out, binary.LittleEndian, gltfGLBChunkHeader{
		ChunkLength: uint32(len(bin)),
		ChunkType:   gltfGLBChunkBIN,
	}))
	out.Write(bin)
	return out.Bytes()
}

func pad4(b []byte, fill byte) []byte {
	for len(b)%4 != 0 {
		b = append(b, fill)
	}
	return b
}
