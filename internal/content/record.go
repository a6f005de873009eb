package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// legacyLayout is the timezone-less ISO-8601 layout found in collections
// written by earlier tooling.
const legacyLayout = "2006-01-02T15:04:05.999999"

// Timestamp is a time that serializes as RFC 3339 and also accepts the legacy layout.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp { return Timestamp{Time: t} }

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := parseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func parseTimestamp(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts, nil
	}
	ts, err := time.ParseInLocation(legacyLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
	}
	return ts, nil
}

// Record is one entry of a collection: an id, named scalar fields and timestamps.
type Record struct {
	ID        int
	Fields    map[string]any
	CreatedAt Timestamp
	UpdatedAt *Timestamp
}

// Get returns a raw field value.
func (r Record) Get(name string) (any, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// String returns a field formatted as text. Missing and null fields are empty.
func (r Record) String(name string) string {
	v, ok := r.Fields[name]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// Int returns a field as an integer, or false when it is not numeric.
func (r Record) Int(name string) (int, bool) {
	switch v := r.Fields[name].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), true
		}
		if f, err := v.Float64(); err == nil {
			return int(f), true
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i, true
		}
	}
	return 0, false
}

// Clone returns a deep copy of the record's field map.
func (r Record) Clone() Record {
	c := r
	c.Fields = maps.Clone(r.Fields)
	if r.UpdatedAt != nil {
		u := *r.UpdatedAt
		c.UpdatedAt = &u
	}
	return c
}

const (
	keyID        = "id"
	keyCreatedAt = "created_at"
	keyUpdatedAt = "updated_at"
)

// MarshalJSON writes id first, fields in name order, then the timestamps.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	buf.WriteString(`"id":`)
	buf.WriteString(strconv.Itoa(r.ID))

	for _, name := range slices.Sorted(maps.Keys(r.Fields)) {
		if name == keyID || name == keyCreatedAt || name == keyUpdatedAt {
			continue
		}
		if err := writeMember(&buf, name, r.Fields[name]); err != nil {
			return nil, err
		}
	}
	if err := writeMember(&buf, keyCreatedAt, r.CreatedAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt != nil {
		if err := writeMember(&buf, keyUpdatedAt, *r.UpdatedAt); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, name string, value any) error {
	k, err := marshalNoEscape(name)
	if err != nil {
		return err
	}
	v, err := marshalNoEscape(value)
	if err != nil {
		return fmt.Errorf("field %s: %w", name, err)
	}
	buf.WriteByte(',')
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON requires an integer id. Numbers in fields are kept as json.Number.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("record must be an object")
	}

	num, ok := raw[keyID].(json.Number)
	if !ok {
		return fmt.Errorf("record is missing an integer id")
	}
	id, err := num.Int64()
	if err != nil {
		return fmt.Errorf("record id %q is not an integer", num.String())
	}

	out := Record{ID: int(id), Fields: make(map[string]any, len(raw))}
	if v, ok := raw[keyCreatedAt]; ok && v != nil {
		s, isString := v.(string)
		if !isString {
			return fmt.Errorf("record %d: created_at must be a string", id)
		}
		ts, err := parseTimestamp(s)
		if err != nil {
			return fmt.Errorf("record %d: %w", id, err)
		}
		out.CreatedAt = Timestamp{Time: ts}
	}
	if v, ok := raw[keyUpdatedAt]; ok && v != nil {
		s, isString := v.(string)
		if !isString {
			return fmt.Errorf("record %d: updated_at must be a string", id)
		}
		ts, err := parseTimestamp(s)
		if err != nil {
			return fmt.Errorf("record %d: %w", id, err)
		}
		out.UpdatedAt = &Timestamp{Time: ts}
	}
	for k, v := range raw {
		if k == keyID || k == keyCreatedAt || k == keyUpdatedAt {
			continue
		}
		out.Fields[k] = v
	}
	*r = out
	return nil
}
