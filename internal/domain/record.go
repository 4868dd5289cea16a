package domain

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/hyp3rd/ewrap"
)

// DefaultLevelKey is the attribute carrying a record's severity.
const DefaultLevelKey = "severity"

// Record is one serialized log event (a JSON object).
type Record string

// Size returns the record's serialized size in bytes.
func (r Record) Size() int {
	return len(r)
}

// NewRecord serializes fields into a Record. On failure it returns a record
// holding only the message (if any) and the encoding error, together with an
// error wrapping ErrSerialize.
func NewRecord(fields map[string]any) (Record, error) {
	b, err := json.Marshal(fields)
	if err == nil {
		return Record(b), nil
	}

	fallback := map[string]any{"serialization_error": err.Error()}
	if msg, ok := fields["message"]; ok {
		fallback["message"] = fmt.Sprint(msg)
	}
	fb, ferr := json.Marshal(fallback)
	if ferr != nil {
		return Record(`{"serialization_error":"unencodable record"}`), ewrap.Wrap(ErrSerialize, err.Error())
	}
	return Record(fb), ewrap.Wrap(ErrSerialize, err.Error())
}

// DropWarning builds the record that replaces a record larger than limit
// bytes. metas are merged last, as for every other record.
//
// The severity goes under levelKey, the same attribute the shipper's own
// records use, so a renamed level attribute also applies to the warning.
// The limit is reported in kilobytes, rounded up.
func DropWarning(levelKey string, limit int, metas map[string]any) Record {
	if levelKey == "" {
		levelKey = DefaultLevelKey
	}
	fields := map[string]any{
		"message": fmt.Sprintf("Message dropped as its size exceeded the hard limit of %d kBytes", (limit+1023)/1024),
		levelKey:  "warn",
	}
	maps.Copy(fields, metas)

	r, _ := NewRecord(fields)
	return r
}
