package loader

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-vanguard/engine/dispatch"
	"github.com/Carmen-Shannon/oxy-vanguard/engine/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loadResult collects the callbacks of a single Load.
type loadResult struct {
	model    *model.ImportedModel
	err      error
	progress [][2]int64
	done     int
}

// start issues a Load whose callbacks record into r.
func (r *loadResult) start(l Loader, locator string) {
	onLoad, onProgress, onError := r.callbacks()
	l.Load(locator, onLoad, onProgress, onError)
}

func (r *loadResult) callbacks() (func(*model.ImportedModel), ProgressFunc, func(error)) {
	return func(m *model.ImportedModel) {
			r.model = m
			r.done++
		}, func(loaded, total int64) {
			r.progress = append(r.progress, [2]int64{loaded, total})
		}, func(err error) {
			r.err = err
			r.done++
		}
}

// drainUntil drains q until the result completes.
func drainUntil(t *testing.T, q dispatch.Queue, r *loadResult) {
	t.Helper()
	require.Eventually(t, func() bool {
		q.Drain()
		return r.done > 0
	}, 5*time.Second, 5*time.Millisecond)
}

func writeFixture(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoadFileDeliversOnDispatcher(t *testing.T) {
	data := newFixture(fixtureClip{name: "samba", trackNodes: []int{0, 1}}).glb(t)
	path := writeFixture(t, "vanguard@samba.glb", data)

	q := dispatch.NewQueue()
	l := NewLoader(WithDispatcher(q))
	defer l.Close()

	var r loadResult
	r.start(l, path)
	assert.Nil(t, r.model, "callbacks must wait for Drain")

	drainUntil(t, q, &r)
	require.NoError(t, r.err)
	require.NotNil(t, r.model)
	assert.Equal(t, "samba", r.model.FirstAnimation().Name)
	assert.Equal(t, 1, r.done)

	require.NotEmpty(t, r.progress)
	last := r.progress[len(r.progress)-1]
	assert.Equal(t, int64(len(data)), last[0])
	assert.Equal(t, int64(len(data)), last[1])

	assert.Same(t, r.model, l.Get(path))
}

func TestLoadMissingFileReportsError(t *testing.T) {
	q := dispatch.NewQueue()
	l := NewLoader(WithDispatcher(q))
	defer l.Close()

	var r loadResult
	r.start(l, filepath.Join(t.TempDir(), "missing.glb"))

	drainUntil(t, q, &r)
	assert.Error(t, r.err)
	assert.Nil(t, r.model)
	assert.Equal(t, 1, r.done)
	assert.Empty(t, l.Models())
}

func TestLoadCorruptResourceReportsError(t *testing.T) {
	path := writeFixture(t, "broken.glb", []byte("not a model"))

	q := dispatch.NewQueue()
	l := NewLoader(WithDispatcher(q))
	defer l.Close()

	var r loadResult
	r.start(l, path)

	drainUntil(t, q, &r)
	assert.Error(t, r.err)
	assert.Nil(t, r.model)
}

func TestLoadHTTPWithRelativeBuffer(t *testing.T) {
	doc, bin := newFixture(fixtureClip{name: "bellydance", trackNodes: []int{1}}).gltfExternal(t, "anim.bin")

	mux := http.NewServeMux()
	mux.HandleFunc("/models/vanguard.gltf", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
		_, _ = w.Write(doc)
	})
	mux.HandleFunc("/models/anim.bin", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(bin)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	q := dispatch.NewQueue()
	l := NewLoader(WithDispatcher(q), WithHTTPClient(srv.Client()))
	defer l.Close()

	var r loadResult
	r.start(l, srv.URL+"/models/vanguard.gltf")

	drainUntil(t, q, &r)
	require.NoError(t, r.err)
	assert.Equal(t, "bellydance", r.model.FirstAnimation().Name)
	require.NotEmpty(t, r.progress)
	assert.Equal(t, int64(len(doc)), r.progress[len(r.progress)-1][1])
}

func TestLoadHTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	q := dispatch.NewQueue()
	l := NewLoader(WithDispatcher(q), WithHTTPClient(srv.Client()))
	defer l.Close()

	var r loadResult
	r.start(l, srv.URL+"/missing.glb")

	drainUntil(t, q, &r)
	assert.ErrorContains(t, r.err, "404")
}

func TestLoadCacheHitStillDispatches(t *testing.T) {
	cached := &model.ImportedModel{Name: "cached"}
	q := dispatch.NewQueue()
	l := NewLoader(WithDispatcher(q), WithModel("vanguard.glb", cached))
	defer l.Close()

	var r loadResult
	r.start(l, "vanguard.glb")
	assert.Equal(t, 0, r.done)
	assert.Equal(t, 1, q.Pending())

	q.Drain()
	assert.Same(t, cached, r.model)
}

func TestLoadAfterClose(t *testing.T) {
	l := NewLoader()
	l.Close()
	l.Close()

	var r loadResult
	r.start(l, "vanguard.glb")
	assert.ErrorIs(t, r.err, ErrLoaderClosed)
	assert.Equal(t, 1, r.done)

	_, err := l.Import("vanguard.glb")
	assert.ErrorIs(t, err, ErrLoaderClosed)
}

func TestCloseWaitsForInFlightCallbacks(t *testing.T) {
	path := writeFixture(t, "vanguard.glb", newFixture().glb(t))

	l := NewLoader(WithWorkers(1))
	var r loadResult
	onLoad, onProgress, onError := r.callbacks()
	done := make(chan struct{})
	l.Load(path, func(m *model.ImportedModel) {
		onLoad(m)
		close(done)
	}, onProgress, onError)
	l.Close()

	select {
	case <-done:
	default:
		t.Fatal("Close returned before the in-flight load delivered its callback")
	}
	assert.NotNil(t, r.model)
}

func TestImportAndImportReader(t *testing.T) {
	fx := newFixture(fixtureClip{name: "goofyrunning", trackNodes: []int{0, 1}})
	path := writeFixture(t, "vanguard@goofyrunning.gltf", fx.gltf(t))

	l := NewLoader()
	defer l.Close()

	m, err := l.Import(path)
	require.NoError(t, err)
	again, err := l.Import(path)
	require.NoError(t, err)
	assert.Same(t, m, again)

	fromReader, err := l.ImportReader("stream", bytes.NewReader(fx.glb(t)), true)
	require.NoError(t, err)
	assert.Equal(t, "goofyrunning", fromReader.FirstAnimation().Name)
	assert.Len(t, l.Models(), 2)
}

// panicBackend fails every decode with a panic.
type panicBackend struct{}

func (panicBackend) Decode(string, []byte, uriResolver) (*model.ImportedModel, error) {
	panic("corrupt index")
}

func (panicBackend) DecodeReader(string, io.Reader, bool) (*model.ImportedModel, error) {
	panic("corrupt index")
}

func TestLoadMalformedAccessorReportsError(t *testing.T) {
	fx := newFixture(fixtureClip{name: "samba", trackNodes: []int{0}})
	fx.mutate = func(doc map[string]any) {
		doc["accessors"].([]map[string]any)[1]["byteOffset"] = -1000
	}
	path := writeFixture(t, "vanguard@samba.gltf", fx.gltf(t))

	q := dispatch.NewQueue()
	l := NewLoader(WithDispatcher(q))
	defer l.Close()

	var r loadResult
	r.start(l, path)

	drainUntil(t, q, &r)
	assert.ErrorIs(t, r.err, errInvalidAccessor)
	assert.Nil(t, r.model)
	assert.Equal(t, 1, r.done)
}

func TestLoadRecoversDecodePanic(t *testing.T) {
	path := writeFixture(t, "vanguard.glb", newFixture().glb(t))

	q := dispatch.NewQueue()
	l := NewLoader(WithDispatcher(q))
	defer l.Close()
	l.(*loader).backend = panicBackend{}

	var r loadResult
	r.start(l, path)

	drainUntil(t, q, &r)
	assert.ErrorIs(t, r.err, ErrDecodePanic)
	assert.ErrorContains(t, r.err, "corrupt index")
	assert.Empty(t, l.Models())

	_, err := l.Import(path)
	assert.ErrorIs(t, err, ErrDecodePanic, "the failed load is not cached")
}

func TestFetchFileKeepsBufferURIsInsideModelDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.bin"), []byte("secret"), 0o644))
	modelDir := filepath.Join(dir, "models")
	require.NoError(t, os.Mkdir(modelDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(modelDir, "anim.bin"), []byte("anim"), 0o644))
	path := filepath.Join(modelDir, "vanguard.gltf")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	_, resolve, err := fetchFile(path, nil)
	require.NoError(t, err)

	data, err := resolve("anim.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte("anim"), data)

	for _, uri := range []string{"../secret.bin", "sub/../../secret.bin", filepath.ToSlash(filepath.Join(dir, "secret.bin"))} {
		_, err := resolve(uri)
		assert.ErrorIs(t, err, errURIOutsideBase, uri)
	}
}
