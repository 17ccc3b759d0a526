package record

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ID is a record identifier. The zero value means "not admitted yet".
//
// Stored collections written by older tooling may carry ids that are not
// integers. Those are kept verbatim (so re-saving does not rewrite them) and
// count as 0 for allocation purposes.
type ID struct {
	n   int64
	raw json.RawMessage
	set bool
}

// NewID returns an assigned numeric id.
func NewID(n int64) ID {
	return ID{n: n, set: true}
}

// IsZero reports whether the id is absent.
func (id ID) IsZero() bool {
	return !id.set
}

// Int returns the numeric value of the id, 0 when absent or non-numeric.
func (id ID) Int() int64 {
	return id.n
}

// String formats the id for logs.
func (id ID) String() string {
	switch {
	case !id.set:
		return "<none>"
	case id.raw != nil:
		return string(id.raw)
	default:
		return strconv.FormatInt(id.n, 10)
	}
}

// MarshalJSON implements json.Marshaler.
func (id ID) MarshalJSON() ([]byte, error) {
	switch {
	case !id.set:
		return []byte("null"), nil
	case id.raw != nil:
		return id.raw, nil
	default:
		return strconv.AppendInt(nil, id.n, 10), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ID{}
		return nil
	}

	if n, err := strconv.ParseInt(string(data), 10, 64); err == nil {
		*id = NewID(n)
		return nil
	}

	raw := make(json.RawMessage, len(data))
	copy(raw, data)
	*id = ID{n: coerceID(data), raw: raw, set: true}
	return nil
}

// coerceID mirrors loose numeric coercion: numeric strings and floats count,
// anything else is 0.
func coerceID(data []byte) int64 {
	text := string(data)
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		text = s
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f < 0 {
		return 0
	}
	return int64(f)
}
