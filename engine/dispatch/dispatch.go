// Package dispatch provides the event queue that keeps all scene state mutation on the frame-loop
// goroutine. Work produced elsewhere (loader callbacks, remote panel triggers) is posted here and
// runs when the frame loop drains the queue.
package dispatch

import (
	"sync"
)

// Dispatcher accepts work to be executed on the owning goroutine.
type Dispatcher interface {
	// Post enqueues fn. Post is safe to call from any goroutine and never blocks on fn.
	//
	// Parameters:
	//   - fn: the function to run; nil is ignored
	Post(fn func())
}

// queue is the implementation of the Queue interface.
type queue struct {
	mu      sync.Mutex
	pending []func()
}

// Queue is a FIFO Dispatcher drained explicitly by its owner.
type Queue interface {
	Dispatcher

	// Drain runs every function queued before the call, in post order, on the caller's goroutine.
	// Functions posted while draining run on the next Drain.
	//
	// Returns:
	//   - int: the number of functions executed
	Drain() int

	// Pending returns the number of queued functions.
	//
	// Returns:
	//   - int: queued function count
	Pending() int
}

var _ Queue = &queue{}

// NewQueue creates an empty Queue.
//
// Returns:
//   - Queue: the new queue
func NewQueue() Queue {
	return &queue{}
}

func (q *queue) Post(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
}

func (q *queue) Drain() int {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

func (q *queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Immediate is a Dispatcher that runs work inline on the posting goroutine.
// It suits tests and tools that have no frame loop.
type Immediate struct{}

var _ Dispatcher = Immediate{}

// Post runs fn immediately.
func (Immediate) Post(fn func()) {
	if fn != nil {
		fn()
	}
}
