// Package notify implements the per-client notification channel: a bounded,
// ordered queue of pre-rendered text messages with any number of producers and
// exactly one consumer.
//
// Producers never block. When the queue is full the message is dropped and
// the producer is told so through the return value of Enqueue; nothing else
// observes the loss besides the dropped counter. The consumer waits without
// spinning and delivers messages with the queue lock released, so a stalled
// connection can only fill its own queue.
//
// A Queue never acquires any lock other than its own. Callers may therefore
// enqueue while holding the global marketplace lock.
package notify

import (
	"context"
	"errors"

	tmsync "github.com/supdem/supdem/libs/sync"
)

// DefaultCapacity is the number of undelivered messages a client may have
// before new ones are dropped.
const DefaultCapacity = 1000

// ErrQueueClosed is returned by Drain once Close was called and every message
// enqueued before that has been delivered.
var ErrQueueClosed = errors.New("notification queue closed")

// Queue is a fixed-capacity circular buffer of messages.
type Queue struct {
	mtx    tmsync.Mutex
	buf    []string
	head   int // index of the oldest message
	size   int
	closed bool

	// wake has capacity one: a pending token means "at least one message may
	// be available".
	wake chan struct{}

	metrics *Metrics
}

// Option sets an optional parameter on the Queue.
type Option func(*Queue)

// WithMetrics sets the metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(q *Queue) { q.metrics = metrics }
}

// NewQueue returns an empty queue holding at most capacity messages. A
// non-positive capacity selects DefaultCapacity.
func NewQueue(capacity int, options ...Option) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	q := &Queue{
		buf:     make([]string, capacity),
		wake:    make(chan struct{}, 1),
		metrics: NopMetrics(),
	}
	for _, option := range options {
		option(q)
	}
	return q
}

// Enqueue appends msg and wakes the consumer. It reports false, without
// blocking, when the queue is full or closed and msg was dropped.
func (q *Queue) Enqueue(msg string) bool {
	q.mtx.Lock()
	if q.closed || q.size == len(q.buf) {
		q.mtx.Unlock()
		q.metrics.Dropped.Add(1)
		return false
	}
	q.buf[(q.head+q.size)%len(q.buf)] = msg
	q.size++
	q.mtx.Unlock()

	q.metrics.Enqueued.Add(1)
	q.signal()
	return true
}

// Dequeue blocks until a message is available, the queue is closed and empty,
// or ctx is done.
func (q *Queue) Dequeue(ctx context.Context) (string, error) {
	for {
		if msg, ok, closed := q.pop(); ok {
			return msg, nil
		} else if closed {
			return "", ErrQueueClosed
		}

		select {
		case <-q.wake:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// Drain runs the consumer loop: it waits for messages and passes them to
// deliver one at a time, in order, without holding the queue lock. It returns
// when ctx is done, when deliver fails, or with ErrQueueClosed after Close.
func (q *Queue) Drain(ctx context.Context, deliver func(string) error) error {
	for {
		msg, err := q.Dequeue(ctx)
		if err != nil {
			return err
		}
		if err := deliver(msg); err != nil {
			return err
		}
	}
}

// Close stops accepting messages. Messages already queued are still handed out
// by Dequeue, after which it reports ErrQueueClosed.
func (q *Queue) Close() {
	q.mtx.Lock()
	q.closed = true
	q.mtx.Unlock()
	q.signal()
}

// Len returns the number of undelivered messages.
func (q *Queue) Len() int {
	q.mtx.Lock()
	defer q.mtx.Unlock()
	return q.size
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int { return len(q.buf) }

func (q *Queue) pop() (msg string, ok bool, closed bool) {
	q.mtx.Lock()
	defer q.mtx.Unlock()

	if q.size == 0 {
		return "", false, q.closed
	}
	msg = q.buf[q.head]
	q.buf[q.head] = ""
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return msg, true, false
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
