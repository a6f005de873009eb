package content

import (
	"fmt"
	"time"

	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
)

// NextID returns one more than the largest id in seq, or 1 for an empty sequence.
// It never derives ids from the sequence length.
func NextID(seq []Record) int {
	maxID := 0
	for _, r := range seq {
		if r.ID > maxID {
			maxID = r.ID
		}
	}
	return maxID + 1
}

// IndexOf returns the position of the record with id, or -1.
func IndexOf(seq []Record, id int) int {
	for i, r := range seq {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the record with id.
func Find(seq []Record, id int) (Record, bool) {
	if i := IndexOf(seq, id); i >= 0 {
		return seq[i], true
	}
	return Record{}, false
}

// NewRecord builds a record of kind from input. Only known fields are taken;
// missing ones receive the kind's defaults.
func NewRecord(kind Kind, id int, input map[string]any, now time.Time) Record {
	fields := make(map[string]any, len(schemas[kind]))
	for _, f := range schemas[kind] {
		if v, ok := input[f.name]; ok && v != nil && v != "" {
			fields[f.name] = normalize(v)
		}
	}
	for _, f := range schemas[kind] {
		if _, ok := fields[f.name]; !ok {
			fields[f.name] = f.def(fields)
		}
	}
	return Record{ID: id, Fields: fields, CreatedAt: NewTimestamp(now)}
}

// Merge applies patch to rec. Only known fields change; id and created_at are
// never taken from the patch. UpdatedAt is set to now.
func Merge(kind Kind, rec Record, patch map[string]any, now time.Time) Record {
	out := rec.Clone()
	if out.Fields == nil {
		out.Fields = make(map[string]any)
	}
	for name, v := range patch {
		if !kind.known(name) {
			continue
		}
		out.Fields[name] = normalize(v)
	}
	ts := NewTimestamp(now)
	out.UpdatedAt = &ts
	return out
}

// Insert appends rec to seq.
func Insert(seq []Record, rec Record) []Record {
	return append(seq, rec)
}

// Replace swaps the record with rec.ID in place.
func Replace(seq []Record, rec Record) ([]Record, error) {
	i := IndexOf(seq, rec.ID)
	if i < 0 {
		return seq, notFound(rec.ID)
	}
	out := append([]Record(nil), seq...)
	out[i] = rec
	return out, nil
}

// Remove deletes exactly the record with id, preserving the order of the rest.
func Remove(seq []Record, id int) ([]Record, Record, error) {
	i := IndexOf(seq, id)
	if i < 0 {
		return seq, Record{}, notFound(id)
	}
	removed := seq[i]
	out := make([]Record, 0, len(seq)-1)
	out = append(out, seq[:i]...)
	out = append(out, seq[i+1:]...)
	return out, removed, nil
}

func notFound(id int) error {
	return errors.NotFoundError(fmt.Sprintf("record %d not found", id)).
		WithContext("id", id).
		Build()
}

func normalize(v any) any {
	if s, ok := v.(string); ok {
		return norm.NFC.String(s)
	}
	return v
}
