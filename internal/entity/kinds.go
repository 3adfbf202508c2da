// Package entity defines the closed set of entity kinds, their ID prefixes,
// and the schemaless record model shared by the routers, the search
// aggregator, and the store client.
package entity

import "strings"

// Kind identifies one of the closed entity categories.
type Kind string

const (
	KindTask         Kind = "task"
	KindEvent        Kind = "event"
	KindReminder     Kind = "reminder"
	KindPerson       Kind = "person"
	KindPlace        Kind = "place"
	KindDocument     Kind = "document"
	KindMemory       Kind = "memory"
	KindProject      Kind = "project"
	KindThing        Kind = "thing"
	KindOrganization Kind = "organization"

	// KindHistory is a search-only kind. It has no ID prefix and no CRUD
	// routes; it exists so unified search can include the store's history
	// namespace.
	KindHistory Kind = "history"
)

// kindInfo pairs a kind with its ID prefix and canonical plural noun. The
// plural doubles as the route segment and the store namespace suffix.
type kindInfo struct {
	prefix string
	plural string
}

// creatableKinds fixes the iteration order for routers and fan-out.
var creatableKinds = []Kind{
	KindTask,
	KindEvent,
	KindReminder,
	KindPerson,
	KindPlace,
	KindDocument,
	KindMemory,
	KindProject,
	KindThing,
	KindOrganization,
}

var kindTable = map[Kind]kindInfo{
	KindTask:         {prefix: "tsk", plural: "tasks"},
	KindEvent:        {prefix: "evt", plural: "events"},
	KindReminder:     {prefix: "rem", plural: "reminders"},
	KindPerson:       {prefix: "per", plural: "people"},
	KindPlace:        {prefix: "plc", plural: "places"},
	KindDocument:     {prefix: "doc", plural: "documents"},
	KindMemory:       {prefix: "mem", plural: "memories"},
	KindProject:      {prefix: "prj", plural: "projects"},
	KindThing:        {prefix: "thg", plural: "things"},
	KindOrganization: {prefix: "org", plural: "organizations"},
	KindHistory:      {plural: "history"},
}

// prefixToKind is the inverse of kindTable, built once so the ID generator
// and the resolver can never diverge.
var prefixToKind = func() map[string]Kind {
	m := make(map[string]Kind, len(kindTable))
	for k, info := range kindTable {
		if info.prefix != "" {
			m[info.prefix] = k
		}
	}
	return m
}()

// Prefix returns the kind's registered ID prefix, or "" for search-only kinds.
func (k Kind) Prefix() string {
	return kindTable[k].prefix
}

// Plural returns the kind's canonical plural noun.
func (k Kind) Plural() string {
	return kindTable[k].plural
}

// Valid reports whether k is a member of the closed kind set.
func (k Kind) Valid() bool {
	_, ok := kindTable[k]
	return ok
}

func (k Kind) String() string {
	return string(k)
}

// Kinds returns the ten creatable kinds in stable order.
func Kinds() []Kind {
	out := make([]Kind, len(creatableKinds))
	copy(out, creatableKinds)
	return out
}

// SearchKinds returns every valid search target: the creatable kinds plus
// history.
func SearchKinds() []Kind {
	return append(Kinds(), KindHistory)
}

// ParseKind maps a caller-supplied token to a kind. The second return is
// false for anything outside the closed set.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.TrimSpace(s))
	if !k.Valid() {
		return "", false
	}
	return k, true
}

// KindForPrefix resolves an ID prefix to its kind.
func KindForPrefix(prefix string) (Kind, bool) {
	k, ok := prefixToKind[prefix]
	return k, ok
}

// KindFromID derives an entity's kind from its opaque ID. The leading token
// before the first underscore is the prefix; an unknown prefix returns false.
func KindFromID(id string) (Kind, bool) {
	prefix, _, found := strings.Cut(id, "_")
	if !found {
		return "", false
	}
	return KindForPrefix(prefix)
}

// ValidPrefixes returns every registered ID prefix, for error responses that
// list the accepted formats.
func ValidPrefixes() []string {
	out := make([]string, 0, len(creatableKinds))
	for _, k := range creatableKinds {
		out = append(out, k.Prefix())
	}
	return out
}
