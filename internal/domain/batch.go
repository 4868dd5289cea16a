package domain

import "strings"

// Batch is the ordered set of records sent in one request.
// TotalBytes is the sum of record sizes; the JSON brackets and separators
// are not counted against the content cap.
type Batch struct {
	Records    []Record
	TotalBytes int
}

// NewBatch creates an empty batch with room for n records.
func NewBatch(n int) *Batch {
	return &Batch{Records: make([]Record, 0, n)}
}

// Add appends a record to the batch.
func (b *Batch) Add(r Record) {
	b.Records = append(b.Records, r)
	b.TotalBytes += r.Size()
}

// Size returns the number of records in the batch.
func (b *Batch) Size() int {
	return len(b.Records)
}

// Empty returns true if the batch has no records.
func (b *Batch) Empty() bool {
	return len(b.Records) == 0
}

// Payload renders the wire body: a JSON array whose elements are the
// records verbatim.
func (b *Batch) Payload() []byte {
	var sb strings.Builder
	sb.Grow(b.TotalBytes + len(b.Records) + 1)
	sb.WriteByte('[')
	for i, r := range b.Records {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(string(r))
	}
	sb.WriteByte(']')
	return []byte(sb.String())
}
