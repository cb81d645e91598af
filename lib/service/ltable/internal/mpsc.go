// Package internal
//
// This file provides the lock-free Multi-Producer Single-Consumer queue that
// carries janitor events from writers to the janitor goroutine.
//
// Guarantees:
//
//   - Lock-free writes: any number of goroutines may Push() concurrently
//   - Unbounded: the queue grows as needed, limited only by memory
//   - Single consumer: exactly one goroutine drains the Recv() channel
//   - No strict FIFO under contention: concurrent pushes are ordered by which
//     producer wins the append race, not by which started first
package internal

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// qnode is a single element of the queue's linked list.
type qnode[T any] struct {
	value *T
	next  atomic.Pointer[qnode[T]]
}

// MPSC is a lock-free multi-producer single-consumer queue built on a linked
// list with atomic appends.
type MPSC[T any] struct {
	head     atomic.Pointer[qnode[T]]
	tail     atomic.Pointer[qnode[T]]
	out      chan *T
	consumer sync.WaitGroup
	closed   atomic.Bool

	// Condition variable so the consumer can sleep while the queue is empty
	mu   sync.Mutex
	cond *sync.Cond
}

// NewMPSC creates a new queue and starts its consumer goroutine.
func NewMPSC[T any]() *MPSC[T] {
	// Sentinel node so head is never nil
	sentinel := &qnode[T]{}

	q := &MPSC[T]{
		out: make(chan *T),
	}
	q.cond = sync.NewCond(&q.mu)
	q.head.Store(sentinel)
	q.tail.Store(sentinel)

	q.consumer.Add(1)
	go q.consume()

	return q
}

// Push adds an item to the queue.
// Returns true if the item was added, or false if the queue is closed.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (q *MPSC[T]) Push(value *T) bool {
	if value == nil {
		return false
	}

	if q.closed.Load() {
		return false
	}

	newNode := &qnode[T]{value: value}

	var backoff uint8 = 0

	for {
		tailNode := q.tail.Load()

		next := tailNode.next.Load()
		if next == nil {
			// Tail has no successor yet, try to append our node
			if tailNode.next.CompareAndSwap(nil, newNode) {
				// Appended. The tail CAS may lose to a helping producer,
				// which is fine: tail still ends up at the new node.
				q.tail.CompareAndSwap(tailNode, newNode)

				// Wake the consumer
				q.cond.Signal()

				return true
			}
		} else {
			// Another producer appended but has not advanced tail yet, help it
			q.tail.CompareAndSwap(tailNode, next)
		}

		// Exponential backoff under contention: spin at low retry counts,
		// yield at higher ones, so producers stop retrying in lockstep.
		if backoff < 10 {
			backoff++
			for i := 0; i < 1<<backoff; i++ {
				runtime.Gosched()
			}
		}
		runtime.Gosched()
	}
}

// consume drains the linked list into the output channel and frees nodes.
func (q *MPSC[T]) consume() {
	defer q.consumer.Done()
	defer close(q.out)

	for {
		hasItems := false

		for {
			head := q.head.Load()
			next := head.next.Load()

			if next == nil {
				break // Nothing available
			}

			hasItems = true

			value := next.value

			// Advance head so the old node can be collected
			q.head.Store(next)

			q.out <- value

			next.value = nil
		}

		if !hasItems && q.closed.Load() {
			return
		}

		// Nothing was processed, sleep until a producer signals
		if !hasItems {
			q.mu.Lock()
			// Double-check after acquiring the lock
			head := q.head.Load()
			if head.next.Load() == nil && !q.closed.Load() {
				q.cond.Wait()
			}
			q.mu.Unlock()
		}
	}
}

// Recv returns the receive-only channel the consumer drains.
func (q *MPSC[T]) Recv() <-chan *T {
	return q.out
}

// Close closes the queue, preventing further writes.
// Items already queued are still delivered to the consumer.
func (q *MPSC[T]) Close() {
	q.closed.Store(true)
	q.cond.Signal()
}

// IsClosed returns true if the queue is closed.
func (q *MPSC[T]) IsClosed() bool {
	return q.closed.Load()
}
