package entity

import "time"

// Well-known record fields. Everything else is opaque to the gateway and
// passed through to the store untouched.
const (
	FieldID          = "id"
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldCreatedAt   = "created_at"
	FieldUpdatedAt   = "updated_at"
	FieldEntityType  = "entity_type"
	FieldScore       = "_score"
)

// Record is a schemaless entity document. Kind-specific fields (an event's
// start_time, a thing's serial_number) are carried but never inspected; only
// identity, title, the server-stamped timestamps, and the search score have
// typed accessors.
type Record map[string]any

// ID returns the record's identifier, or "" when unset.
func (r Record) ID() string {
	return r.stringField(FieldID)
}

// Title returns the record's title, or "" when unset.
func (r Record) Title() string {
	return r.stringField(FieldTitle)
}

// SetID overwrites the record's identifier.
func (r Record) SetID(id string) {
	r[FieldID] = id
}

// UpdatedAt parses the record's updated_at timestamp. The zero time is
// returned for a missing or malformed value, which makes such records sort
// after every timestamped one in rank merges.
func (r Record) UpdatedAt() time.Time {
	ts, err := time.Parse(time.RFC3339, r.stringField(FieldUpdatedAt))
	if err != nil {
		return time.Time{}
	}
	return ts
}

// Score returns the relevance score attached by the store's ranking, and
// whether one is present.
func (r Record) Score() (float64, bool) {
	switch v := r[FieldScore].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Overlay returns a copy of r with patch's fields shallow-merged on top.
// Fields absent from patch are retained.
func (r Record) Overlay(patch Record) Record {
	out := r.Clone()
	for k, v := range patch {
		out[k] = v
	}
	return out
}

func (r Record) stringField(key string) string {
	s, _ := r[key].(string)
	return s
}
