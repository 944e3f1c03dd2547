// Package queue provides the lock-free FIFO that carries commands from the
// network receive loop to the dispatcher.
//
// Features and Guarantees:
//
//   - Lock-Free writes: producers append with atomic operations only
//   - Unbounded by default: the queue grows as needed, limited only by memory.
//     An optional bound rejects the newest item once MaxPending items are queued.
//   - FIFO: with a single producer, items are delivered in push order
//   - Single Consumer: one goroutine consumes via Recv() or TryPop()
//   - Exact Len(): an atomic counter, cheap enough for metrics
package queue

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("queue")

// node represents a single element in the queue
type node[T any] struct {
	value *T
	next  atomic.Pointer[node[T]]
}

// Options configures a Queue
type Options struct {
	// MaxPending bounds the number of queued items. 0 means unbounded.
	MaxPending int
}

// Queue is a lock-free multi-producer single-consumer queue.
// The implementation uses a linked list of nodes and a consumer goroutine
// that hands items to an unbuffered channel.
type Queue[T any] struct {
	head     atomic.Pointer[node[T]]
	tail     atomic.Pointer[node[T]]
	out      chan *T
	consumer sync.WaitGroup
	closed   atomic.Bool

	maxPending int64
	pending    atomic.Int64
	dropped    atomic.Uint64

	mu   sync.Mutex
	cond *sync.Cond
}

// New creates a new queue and starts its consumer goroutine
func New[T any](opts Options) *Queue[T] {
	sentinel := &node[T]{}

	q := &Queue[T]{
		out:        make(chan *T),
		maxPending: int64(opts.MaxPending),
	}
	q.cond = sync.NewCond(&q.mu)

	q.head.Store(sentinel)
	q.tail.Store(sentinel)

	q.consumer.Add(1)
	go q.consume()

	return q
}

// Push appends an item to the queue.
// Returns false if the item is nil, the queue is closed or the bound is reached.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (q *Queue[T]) Push(value *T) bool {
	if value == nil || q.closed.Load() {
		return false
	}

	if q.maxPending > 0 {
		if q.pending.Add(1) > q.maxPending {
			q.pending.Add(-1)
			q.dropped.Add(1)
			Logger.Warningf("queue full (%d pending), rejecting item", q.maxPending)
			return false
		}
	} else {
		q.pending.Add(1)
	}

	newNode := &node[T]{value: value}

	var backoff uint8 = 0
	for {
		tailNode := q.tail.Load()
		next := tailNode.next.Load()
		if next == nil {
			if tailNode.next.CompareAndSwap(nil, newNode) {
				// a failed CAS means another producer already advanced the tail
				q.tail.CompareAndSwap(tailNode, newNode)

				q.mu.Lock()
				q.cond.Signal()
				q.mu.Unlock()
				return true
			}
		} else {
			// help a producer that appended but has not moved the tail yet
			q.tail.CompareAndSwap(tailNode, next)
		}

		if backoff < 10 {
			backoff++
			for i := 0; i < 1<<backoff; i++ {
				runtime.Gosched()
			}
		}
		runtime.Gosched()
	}
}

// consume moves items from the linked list to the output channel
func (q *Queue[T]) consume() {
	defer q.consumer.Done()
	defer close(q.out)

	for {
		hasItems := false

		for {
			head := q.head.Load()
			next := head.next.Load()
			if next == nil {
				break
			}
			hasItems = true

			value := next.value
			q.head.Store(next)

			q.out <- value
			q.pending.Add(-1)

			// help go gc
			next.value = nil
		}

		if !hasItems && q.closed.Load() {
			return
		}

		if !hasItems {
			q.mu.Lock()
			head := q.head.Load()
			if head.next.Load() == nil && !q.closed.Load() {
				q.cond.Wait()
			}
			q.mu.Unlock()
		}
	}
}

// Recv returns a receive-only channel for consuming from the queue.
// The channel is closed after Close() once every queued item was delivered.
func (q *Queue[T]) Recv() <-chan *T {
	return q.out
}

// TryPop returns the next item if one is immediately available
func (q *Queue[T]) TryPop() (*T, bool) {
	select {
	case v, ok := <-q.out:
		return v, ok
	default:
		return nil, false
	}
}

// Close closes the queue, preventing further writes.
// Items already in the queue are still delivered to the consumer.
func (q *Queue[T]) Close() {
	q.closed.Store(true)

	q.mu.Lock()
	q.cond.Signal()
	q.mu.Unlock()
}

// IsClosed returns true if the queue is closed
func (q *Queue[T]) IsClosed() bool {
	return q.closed.Load()
}

// Len returns the number of items pushed but not yet received
func (q *Queue[T]) Len() int {
	return int(q.pending.Load())
}

// Dropped returns the number of items rejected because the bound was reached
func (q *Queue[T]) Dropped() uint64 {
	return q.dropped.Load()
}
