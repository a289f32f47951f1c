package loader

import (
	"net/http"

	"github.com/Carmen-Shannon/oxy-vanguard/engine/dispatch"
	"github.com/Carmen-Shannon/oxy-vanguard/engine/model"

	"go.uber.org/zap"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithDispatcher is an option builder that sets where load callbacks are delivered.
// The default runs callbacks inline on the worker goroutine.
//
// Parameters:
//   - d: the dispatcher owned by the update loop
//
// Returns:
//   - LoaderBuilderOption: a function that applies the dispatcher option to a loader
func WithDispatcher(d dispatch.Dispatcher) LoaderBuilderOption {
	return func(l *loader) {
		if d != nil {
			l.dispatcher = d
		}
	}
}

// WithWorkers is an option builder that sets the number of fetch workers.
//
// Parameters:
//   - n: the maximum number of concurrent fetches (values < 1 are ignored)
//
// Returns:
//   - LoaderBuilderOption: a function that applies the workers option to a loader
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithQueueSize is an option builder that sets the pending load queue capacity.
//
// Parameters:
//   - n: the queue capacity (values < 1 are ignored)
//
// Returns:
//   - LoaderBuilderOption: a function that applies the queue size option to a loader
func WithQueueSize(n int) LoaderBuilderOption {
	return func(l *loader) {
		if n > 0 {
			l.queueSize = n
		}
	}
}

// WithHTTPClient is an option builder that sets the client used for http(s) locators.
//
// Parameters:
//   - c: the HTTP client
//
// Returns:
//   - LoaderBuilderOption: a function that applies the client option to a loader
func WithHTTPClient(c *http.Client) LoaderBuilderOption {
	return func(l *loader) {
		if c != nil {
			l.client = c
		}
	}
}

// WithLogger is an option builder that sets the loader's logger.
//
// Parameters:
//   - logger: the zap logger
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger option to a loader
func WithLogger(logger *zap.Logger) LoaderBuilderOption {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger.Named("loader")
		}
	}
}

// WithModel is an option builder that pre-populates the model cache with a model.
//
// Parameters:
//   - key: the cache key for the model
//   - m: the model to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the model option to a loader
func WithModel(key string, m *model.ImportedModel) LoaderBuilderOption {
	return func(l *loader) {
		l.modelCache[key] = m
	}
}
