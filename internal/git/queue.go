package git

import (
	"errors"
	"sync"
)

// ErrClosed is returned when a call reaches the gateway after Close.
var ErrClosed = errors.New("git gateway is closed")

// queue executes submitted functions strictly in submission order on a
// single worker goroutine. Every git invocation in the process funnels
// through one queue, so two callers mutating different repositories still
// serialize behind one another. Git's working-directory state is
// process-global per repository and interleaved mutations corrupt it; one
// global serialization point removes the need for path-scoped locking at
// the cost of cross-repository parallelism.
type queue struct {
	tasks chan func()
	quit  chan struct{}

	closeOnce sync.Once
	done      chan struct{}
}

func newQueue() *queue {
	q := &queue{
		tasks: make(chan func()),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go q.loop()
	return q
}

func (q *queue) loop() {
	defer close(q.done)
	for {
		select {
		case fn := <-q.tasks:
			fn()
		case <-q.quit:
			return
		}
	}
}

// submit hands fn to the worker and returns once it has been accepted.
// After close it returns ErrClosed instead of blocking; a submit racing
// close may land either way. The caller collects results via its own
// channel.
func (q *queue) submit(fn func()) error {
	select {
	case q.tasks <- fn:
		return nil
	case <-q.quit:
		return ErrClosed
	}
}

// close stops the worker after the in-flight task finishes. Idempotent.
func (q *queue) close() {
	q.closeOnce.Do(func() {
		close(q.quit)
	})
	<-q.done
}
