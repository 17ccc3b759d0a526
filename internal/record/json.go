package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// knownFields lists the JSON keys owned by Record in output order; everything
// else goes to Extra.
var knownFields = []string{
	"id", "title", "author",
	"isbn", "doi", "source_id", "barcode",
	"download_source",
	"material_type_code", "language", "publication_year", "access_type", "url",
	"created_at", "updated_at",
}

func isKnownField(key string) bool {
	for _, k := range knownFields {
		if k == key {
			return true
		}
	}
	return false
}

type field struct {
	key   string
	value json.RawMessage
}

// stored remembers how a record looked on disk. canonical holds what the
// decoded known fields re-encode to at load time; a field whose current
// encoding still matches is written back with its original bytes.
type stored struct {
	fields    []field
	canonical map[string]json.RawMessage
}

type recordAlias Record

// MarshalJSON implements json.Marshaler. Records read from JSON keep their key
// order and the original bytes of every field that was not modified.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.stored == nil && len(r.Extra) == 0 {
		return json.Marshal(recordAlias(r))
	}

	current, err := r.knownFieldValues()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	written := make(map[string]bool)
	write := func(key string, value json.RawMessage) {
		if written[key] {
			return
		}
		written[key] = true
		if buf.Len() > 0 {
			buf.WriteByte(',')
		}
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(value)
	}

	if r.stored != nil {
		for _, f := range r.stored.fields {
			if !isKnownField(f.key) {
				if v, ok := r.Extra[f.key]; ok {
					write(f.key, v)
				}
				continue
			}
			cur, has := current[f.key]
			was, had := r.stored.canonical[f.key]
			switch {
			case has == had && (!has || bytes.Equal(cur, was)):
				write(f.key, f.value)
			case has:
				write(f.key, cur)
			}
		}
	}
	for _, k := range knownFields {
		if v, ok := current[k]; ok {
			write(k, v)
		}
	}
	extra := make([]string, 0, len(r.Extra))
	for k := range r.Extra {
		if !isKnownField(k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		write(k, r.Extra[k])
	}

	return append(append([]byte{'{'}, buf.Bytes()...), '}'), nil
}

// knownFieldValues encodes the known fields that are present.
func (r Record) knownFieldValues() (map[string]json.RawMessage, error) {
	plain := r
	plain.stored = nil
	plain.Extra = nil
	data, err := json.Marshal(recordAlias(plain))
	if err != nil {
		return nil, err
	}
	var values map[string]json.RawMessage
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return values, nil
}

// UnmarshalJSON implements json.Unmarshaler. Only a value that is not a JSON
// object is an error: known fields holding an unexpected type decode as
// absent (or are coerced where the meaning is clear) and keep their stored
// bytes, and unknown keys go to Extra.
func (r *Record) UnmarshalJSON(data []byte) error {
	fields, err := objectFields(data)
	if err != nil {
		return err
	}

	var out Record
	for _, f := range fields {
		if !out.decodeField(f.key, f.value) {
			if out.Extra == nil {
				out.Extra = make(map[string]json.RawMessage)
			}
			out.Extra[f.key] = f.value
		}
	}

	canonical, err := out.knownFieldValues()
	if err != nil {
		return err
	}
	out.stored = &stored{fields: fields, canonical: canonical}
	*r = out
	return nil
}

// decodeField sets the field named key and reports whether key is known.
func (r *Record) decodeField(key string, raw json.RawMessage) bool {
	switch key {
	case "id":
		_ = json.Unmarshal(raw, &r.ID)
	case "title":
		r.Title = Value(looseString(raw))
	case "author":
		if !isNull(raw) {
			var a Author
			if json.Unmarshal(raw, &a) == nil {
				r.Author = &a
			}
		}
	case "isbn":
		r.ISBN = looseString(raw)
	case "doi":
		r.DOI = looseString(raw)
	case "source_id":
		r.SourceID = looseString(raw)
	case "barcode":
		r.Barcode = looseString(raw)
	case "download_source":
		r.DownloadSource = looseString(raw)
	case "material_type_code":
		r.MaterialTypeCode = looseString(raw)
	case "language":
		r.Language = looseString(raw)
	case "publication_year":
		r.PublicationYear = looseYear(raw)
	case "access_type":
		r.AccessType = looseString(raw)
	case "url":
		r.URL = looseString(raw)
	case "created_at":
		r.CreatedAt = looseTime(raw)
	case "updated_at":
		r.UpdatedAt = looseTime(raw)
	default:
		return false
	}
	return true
}

// objectFields splits a JSON object into its members in document order. For a
// repeated key the last value wins, at the position of the first.
func objectFields(data []byte) ([]field, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("record: expected JSON object, got %s", strings.TrimSpace(string(data)))
	}

	var fields []field
	pos := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		if i, dup := pos[key]; dup {
			fields[i].value = value
			continue
		}
		pos[key] = len(fields)
		fields = append(fields, field{key: key, value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return fields, nil
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// looseString accepts a string, or a number or boolean taken literally.
func looseString(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	switch raw[0] {
	case '"':
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return nil
		}
		return &s
	case '{', '[', 'n':
		return nil
	default:
		s := string(raw)
		return &s
	}
}

// looseYear accepts a number or a numeric string. Fractions are truncated.
func looseYear(raw json.RawMessage) *int {
	s := looseString(raw)
	if s == nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(*s), 64)
	if err != nil {
		return nil
	}
	y := int(f)
	return &y
}

func looseTime(raw json.RawMessage) *time.Time {
	s := looseString(raw)
	if s == nil {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(*s))
	if err != nil {
		return nil
	}
	return &t
}
