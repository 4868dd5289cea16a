package app

import "github.com/bft-labs/logship/internal/domain"

// Default batch limits.
const (
	DefaultMaxPostCount   = 10
	DefaultMaxContentSize = 200 * 1024
)

// Drop describes a record the Assembler removed because it could never fit
// the content cap on its own.
type Drop struct {
	Size int
	// WarningQueued is false when the warning record was itself too large
	// to be sent under the cap.
	WarningQueued bool
}

// Assembler takes batches from the head of a Queue under a record count cap
// and a byte cap.
type Assembler struct {
	maxPostCount   int
	maxContentSize int
	warning        func(limit int) domain.Record
}

// NewAssembler creates an assembler. warning builds the record substituted
// for an oversized one; nil uses a plain drop warning without metadata.
func NewAssembler(maxPostCount, maxContentSize int, warning func(limit int) domain.Record) *Assembler {
	a := &Assembler{warning: warning}
	if a.warning == nil {
		a.warning = func(limit int) domain.Record {
			return domain.DropWarning(domain.DefaultLevelKey, limit, nil)
		}
	}
	a.SetLimits(maxPostCount, maxContentSize)
	return a
}

// SetLimits changes the caps. maxPostCount is floored to 1; a non-positive
// maxContentSize disables the byte cap.
func (a *Assembler) SetLimits(maxPostCount, maxContentSize int) {
	a.maxPostCount = max(maxPostCount, 1)
	a.maxContentSize = maxContentSize
}

// MaxPostCount returns the record count cap.
func (a *Assembler) MaxPostCount() int {
	return a.maxPostCount
}

// MaxContentSize returns the byte cap (non-positive when disabled).
func (a *Assembler) MaxContentSize() int {
	return a.maxContentSize
}

// Take removes the next batch from q.
//
// A record that does not fit behind already taken records stays at the head
// for the next batch. A head record that alone exceeds the byte cap is
// removed and replaced at the head by a warning record; Take then returns an
// empty batch and the non-nil Drop.
func (a *Assembler) Take(q *Queue) (*domain.Batch, *Drop) {
	batch := domain.NewBatch(min(a.maxPostCount, q.Len()))

	for batch.Size() < a.maxPostCount {
		r, ok := q.Pop()
		if !ok {
			break
		}
		if a.fits(batch.TotalBytes + r.Size()) {
			batch.Add(r)
			continue
		}
		if !batch.Empty() {
			q.PushFront(r)
			break
		}

		drop := &Drop{Size: r.Size()}
		if w := a.warning(a.maxContentSize); a.fits(w.Size()) {
			q.PushFront(w)
			drop.WarningQueued = true
		}
		return batch, drop
	}
	return batch, nil
}

func (a *Assembler) fits(size int) bool {
	return a.maxContentSize <= 0 || size <= a.maxContentSize
}
