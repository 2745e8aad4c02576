package filestat

import (
	"sync"
)

// Queue is an unbounded FIFO of paths fed by one producer and drained by many
// workers. Items are appended until Close; a cursor marks the next unconsumed
// item. Every method takes the same lock.
//
// A Queue must be created with NewQueue.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond // Signalled on Push and broadcast on Close, tied to mu
	items  []string
	cursor int
	closed bool
}

// NewQueue returns an empty, open queue.
func NewQueue() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)

	return q
}

// Push appends item. Empty items are ignored.
// Pushing onto a closed queue returns ErrQueueClosed and leaves the queue unchanged.
func (q *Queue) Push(item string) error {
	if item == "" {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	q.items = append(q.items, item)
	q.cond.Signal()

	return nil
}

// Pop returns the next unconsumed item without waiting.
// It reports false when the queue is momentarily drained, whether or not it is closed.
func (q *Queue) Pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.take()
}

// Next returns the next unconsumed item, waiting for one to be pushed.
// It reports false only once the queue is closed and drained.
func (q *Queue) Next() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		if item, ok := q.take(); ok {
			return item, true
		}

		if q.closed {
			return "", false
		}

		q.cond.Wait()
	}
}

// take consumes the item at the cursor. The caller must hold mu.
func (q *Queue) take() (string, bool) {
	if q.cursor >= len(q.items) {
		return "", false
	}

	item := q.items[q.cursor]
	// Drop the reference so consumed paths can be collected.
	q.items[q.cursor] = ""
	q.cursor++

	return item, true
}

// Close marks the end of input. It is idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
}

// Done reports whether the queue is closed and every item has been consumed.
// Once true it stays true.
func (q *Queue) Done() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.closed && q.cursor >= len(q.items)
}

// Progress returns how many items have been consumed and pushed so far.
func (q *Queue) Progress() (consumed, pushed int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.cursor, len(q.items)
}
