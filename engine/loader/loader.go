package loader

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-vanguard/engine/dispatch"
	"github.com/Carmen-Shannon/oxy-vanguard/engine/model"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrLoaderClosed is returned for loads issued after Close.
	ErrLoaderClosed = errors.New("loader closed")
	// ErrDecodePanic wraps a panic recovered while fetching or decoding a resource.
	ErrDecodePanic = errors.New("decode panicked")
)

const (
	defaultWorkers     = 2
	defaultQueueSize   = 16
	defaultHTTPTimeout = 30 * time.Second
	workerIdleTimeout  = 1 * time.Second
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	modelCache map[string]*model.ImportedModel
	backend    loaderBackend
	group      singleflight.Group

	pool       worker.DynamicWorkerPool
	workers    int
	queueSize  int
	taskID     atomic.Int64
	inFlight   sync.WaitGroup
	closed     bool
	closeOnce  sync.Once
	dispatcher dispatch.Dispatcher
	client     *http.Client
	logger     *zap.Logger
}

// Loader defines the public-facing interface for loading and caching animated models.
// Fetching and decoding run on a worker pool; every callback is delivered through the
// configured dispatcher so callers observe results on their own update goroutine.
type Loader interface {
	// Load fetches and decodes the resource behind locator asynchronously.
	// Exactly one of onLoad or onError is called per Load. Progress notifications are
	// delivered in read order before the final callback.
	//
	// Parameters:
	//   - locator: a file path or http(s) URL of a .glb/.gltf resource
	//   - onLoad: called with the decoded model on success
	//   - onProgress: called with (loaded, total) bytes while reading; total is 0 when unknown (may be nil)
	//   - onError: called with the failure cause (may be nil)
	Load(locator string, onLoad func(*model.ImportedModel), onProgress ProgressFunc, onError func(error))

	// Import fetches and decodes the resource behind locator on the caller's goroutine.
	// Cached results are returned without refetching.
	//
	// Parameters:
	//   - locator: a file path or http(s) URL
	//
	// Returns:
	//   - *model.ImportedModel: the decoded model
	//   - error: error if loading fails
	Import(locator string) (*model.ImportedModel, error)

	// ImportReader decodes a model from a reader stream and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key for the loaded model
	//   - r: the reader providing model data
	//   - isGLB: true if the reader provides GLB binary data
	//
	// Returns:
	//   - *model.ImportedModel: the decoded model
	//   - error: error if loading fails
	ImportReader(name string, r io.Reader, isGLB bool) (*model.ImportedModel, error)

	// Get retrieves a cached model by locator or name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - *model.ImportedModel: the cached model or nil
	Get(name string) *model.ImportedModel

	// Models returns a snapshot of the model cache.
	//
	// Returns:
	//   - map[string]*model.ImportedModel: all cached models keyed by locator or name
	Models() map[string]*model.ImportedModel

	// Close waits for in-flight loads to deliver their callbacks and stops the worker pool.
	// Later loads fail with ErrLoaderClosed. Close is idempotent.
	Close()
}

var _ Loader = &loader{}

// NewLoader creates a new glTF Loader with the provided options applied.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new Loader ready to accept loads
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		modelCache: make(map[string]*model.ImportedModel),
		backend:    newGLTFLoaderBackend(),
		workers:    defaultWorkers,
		queueSize:  defaultQueueSize,
		dispatcher: dispatch.Immediate{},
		client:     &http.Client{Timeout: defaultHTTPTimeout},
		logger:     zap.NewNop(),
	}

	for _, option := range options {
		option(l)
	}

	l.pool = worker.NewDynamicWorkerPool(l.workers, l.queueSize, workerIdleTimeout)
	return l
}

func (l *loader) Load(locator string, onLoad func(*model.ImportedModel), onProgress ProgressFunc, onError func(error)) {
	fail := func(err error) {
		l.dispatcher.Post(func() {
			if onError != nil {
				onError(err)
			}
		})
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		fail(fmt.Errorf("load %s: %w", locator, ErrLoaderClosed))
		return
	}
	cached, ok := l.modelCache[locator]
	if !ok {
		l.inFlight.Add(1)
	}
	l.mu.Unlock()

	if ok {
		l.logger.Debug("model cache hit", zap.String("locator", locator))
		l.dispatcher.Post(func() {
			if onLoad != nil {
				onLoad(cached)
			}
		})
		return
	}

	progress := func(loaded, total int64) {
		if onProgress == nil {
			return
		}
		l.dispatcher.Post(func() { onProgress(loaded, total) })
	}

	id := int(l.taskID.Add(1))
	l.pool.SubmitTask(worker.Task{
		ID:      id,
		Payload: locator,
		Do: func() (any, error) {
			defer l.inFlight.Done()

			m, err := l.load(locator, progress)
			if err != nil {
				l.logger.Error("model load failed", zap.String("locator", locator), zap.Int("task", id), zap.Error(err))
				fail(err)
				return nil, err
			}

			l.logger.Info("model loaded",
				zap.String("locator", locator),
				zap.String("model", m.Name),
				zap.Int("animations", len(m.Animations)),
			)
			l.dispatcher.Post(func() {
				if onLoad != nil {
					onLoad(m)
				}
			})
			return m, nil
		},
	})
}

func (l *loader) Import(locator string) (*model.ImportedModel, error) {
	l.mu.RLock()
	closed := l.closed
	cached, ok := l.modelCache[locator]
	l.mu.RUnlock()

	if closed {
		return nil, fmt.Errorf("import %s: %w", locator, ErrLoaderClosed)
	}
	if ok {
		return cached, nil
	}
	return l.load(locator, nil)
}

func (l *loader) ImportReader(name string, r io.Reader, isGLB bool) (*model.ImportedModel, error) {
	l.mu.RLock()
	closed := l.closed
	l.mu.RUnlock()
	if closed {
		return nil, fmt.Errorf("import %s: %w", name, ErrLoaderClosed)
	}

	m, err := l.backend.DecodeReader(name, r, isGLB)
	if err != nil {
		return nil, fmt.Errorf("failed to import %s: %w", name, err)
	}

	l.mu.Lock()
	l.modelCache[name] = m
	l.mu.Unlock()
	return m, nil
}

func (l *loader) Get(name string) *model.ImportedModel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.modelCache[name]
}

func (l *loader) Models() map[string]*model.ImportedModel {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]*model.ImportedModel, len(l.modelCache))
	for k, v := range l.modelCache {
		out[k] = v
	}
	return out
}

func (l *loader) Close() {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()

		l.inFlight.Wait()
		l.pool.Stop()
		l.logger.Debug("loader closed")
	})
}

// load fetches, decodes and caches a resource. Concurrent loads of the same locator share one
// fetch; only the first caller's progress function observes the read.
//
// Parameters:
//   - locator: a file path or http(s) URL
//   - onProgress: progress callback (may be nil)
//
// Returns:
//   - *model.ImportedModel: the decoded model
//   - error: error if fetching or decoding fails
func (l *loader) load(locator string, onProgress ProgressFunc) (*model.ImportedModel, error) {
	v, err, shared := l.group.Do(locator, func() (_ any, err error) {
		// A malformed resource fails its own load instead of taking the process down.
		defer func() {
			if r := recover(); r != nil {
				l.logger.Error("model decode panicked", zap.String("locator", locator), zap.Any("panic", r))
				err = fmt.Errorf("load %s: %w: %v", locator, ErrDecodePanic, r)
			}
		}()

		data, resolve, err := fetch(l.client, locator, onProgress)
		if err != nil {
			return nil, err
		}

		m, err := l.backend.Decode(locator, data, resolve)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", locator, err)
		}

		l.mu.Lock()
		l.modelCache[locator] = m
		l.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		l.logger.Debug("shared model fetch", zap.String("locator", locator))
	}
	return v.(*model.ImportedModel), nil
}
