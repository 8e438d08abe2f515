package scan

import (
	"io/fs"
	"sync"
)

// Entry is one filesystem object discovered by the walk.
type Entry struct {
	// Path is the absolute path of the entry.
	Path string
	// Type holds the type bits reported by the walk (fs.ModeDir, fs.ModeSymlink, ...).
	Type fs.FileMode
}

// Queue is an unbounded FIFO of pending entries shared by one producer and
// many consumers. The slice and the closed flag are guarded by the same mutex,
// and consumers wait on a condition bound to it.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []Entry
	closed bool
}

// NewQueue creates an empty, open queue.
func NewQueue() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)

	return q
}

// Push appends e to the tail and wakes one waiting consumer.
// It returns ErrQueueClosed if Close was already called.
func (q *Queue) Push(e Entry) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()

		return ErrQueueClosed
	}

	q.items = append(q.items, e)
	q.mu.Unlock()
	q.cond.Signal()

	return nil
}

// Close marks the queue as finished and wakes every waiting consumer.
// Entries already queued are still handed out by Pop. Calling Close more
// than once has no further effect.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Pop removes and returns the head entry, blocking while the queue is empty
// and open. The boolean is false only once the queue is closed and drained.
func (q *Queue) Pop() (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}

	if len(q.items) == 0 {
		return Entry{}, false
	}

	e := q.items[0]
	q.items[0] = Entry{}
	q.items = q.items[1:]

	return e, true
}

// Len returns the number of entries waiting to be popped.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}
