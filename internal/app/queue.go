package app

import "github.com/bft-labs/logship/internal/domain"

// Unbounded disables the waiting-count bound of a Queue.
const Unbounded = -1

// Queue is the FIFO of records awaiting transmission.
// Head is the oldest record. When the bound is exceeded the oldest records
// are evicted; the newest are always kept.
//
// Queue is not safe for concurrent use; the Dispatcher owns it.
type Queue struct {
	items      []domain.Record
	maxWaiting int
}

// NewQueue creates a queue holding at most maxWaiting records.
// A negative maxWaiting means unbounded.
func NewQueue(maxWaiting int) *Queue {
	return &Queue{maxWaiting: maxWaiting}
}

// Push appends r at the tail and returns the records evicted from the head
// to keep the queue within its bound.
func (q *Queue) Push(r domain.Record) []domain.Record {
	q.items = append(q.items, r)
	return q.trim()
}

// PushFront puts r back at the head, ahead of everything queued.
// The bound is not enforced; a record returned by the assembler only
// restores the length the queue had before it was taken.
func (q *Queue) PushFront(r domain.Record) {
	q.items = append(q.items, "")
	copy(q.items[1:], q.items)
	q.items[0] = r
}

// Requeue puts rs back at the head in their original order and returns
// the records evicted to respect the bound.
func (q *Queue) Requeue(rs []domain.Record) []domain.Record {
	if len(rs) == 0 {
		return nil
	}
	items := make([]domain.Record, 0, len(rs)+len(q.items))
	items = append(items, rs...)
	items = append(items, q.items...)
	q.items = items
	return q.trim()
}

// Pop removes and returns the head record.
func (q *Queue) Pop() (domain.Record, bool) {
	if len(q.items) == 0 {
		return "", false
	}
	r := q.items[0]
	q.items[0] = ""
	q.items = q.items[1:]
	return r, true
}

// Len returns the number of queued records.
func (q *Queue) Len() int {
	return len(q.items)
}

// IsEmpty returns true if nothing is queued.
func (q *Queue) IsEmpty() bool {
	return len(q.items) == 0
}

// MaxWaiting returns the current bound (negative when unbounded).
func (q *Queue) MaxWaiting() int {
	return q.maxWaiting
}

// SetMaxWaiting changes the bound and returns the records evicted to honor it.
func (q *Queue) SetMaxWaiting(n int) []domain.Record {
	q.maxWaiting = n
	return q.trim()
}

// Snapshot returns a copy of the queued records, head first.
func (q *Queue) Snapshot() []domain.Record {
	out := make([]domain.Record, len(q.items))
	copy(out, q.items)
	return out
}

func (q *Queue) trim() []domain.Record {
	if q.maxWaiting < 0 || len(q.items) <= q.maxWaiting {
		return nil
	}
	n := len(q.items) - q.maxWaiting
	evicted := make([]domain.Record, n)
	copy(evicted, q.items[:n])
	clear(q.items[:n])
	q.items = q.items[n:]
	return evicted
}
