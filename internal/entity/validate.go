package entity

import "fmt"

// ValidateFunc checks kind-specific required fields before a create is
// accepted. A nil ValidateFunc means the kind has no requirements beyond the
// common ones.
type ValidateFunc func(Record) error

// RequireField builds a ValidateFunc that rejects records missing a non-empty
// value for name. The error message names the offending field so the router
// can surface it verbatim.
func RequireField(name string, k Kind) ValidateFunc {
	return func(r Record) error {
		if v, ok := r[name]; !ok || v == nil || v == "" {
			return fmt.Errorf("%s is required for %s", name, k.Plural())
		}
		return nil
	}
}

// Validators returns the per-kind required-field predicates. Kinds absent
// from the map have no extra creation requirements.
func Validators() map[Kind]ValidateFunc {
	return map[Kind]ValidateFunc{
		KindEvent:    RequireField("start_time", KindEvent),
		KindReminder: RequireField("remind_at", KindReminder),
	}
}
