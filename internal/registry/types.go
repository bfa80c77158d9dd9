// Package registry models the master document registry: one record per row
// of the registry table, kept in declaration order. The registry is rebuilt
// on every invocation and passed explicitly to whoever needs it.
package registry

import (
	"strings"
)

// AllSentinel is the registry/front-matter spelling of "affects every other
// registered document".
const AllSentinel = "ALL"

// EmptySentinel marks an empty list cell in the registry table.
const EmptySentinel = "-"

// AffectsKind tags the shape of an Affects value.
type AffectsKind int

const (
	// AffectsNone means the document affects nothing.
	AffectsNone AffectsKind = iota
	// AffectsList means the document affects an explicit set of ids.
	AffectsList
	// AffectsAll means the document affects every other registered document.
	AffectsAll
)

func (k AffectsKind) String() string {
	switch k {
	case AffectsNone:
		return "none"
	case AffectsList:
		return "list"
	case AffectsAll:
		return "all"
	default:
		return "unknown"
	}
}

// Affects is the downstream edge set of a document: nothing, an explicit
// list of ids, or the ALL wildcard.
type Affects struct {
	kind AffectsKind
	ids  []string
}

// NoAffects returns an empty edge set.
func NoAffects() Affects {
	return Affects{kind: AffectsNone}
}

// AffectsAllDocuments returns the wildcard edge set.
func AffectsAllDocuments() Affects {
	return Affects{kind: AffectsAll}
}

// AffectsIDs returns an explicit edge set. Blank ids and the "-" sentinel are
// dropped; an ALL entry turns the whole set into the wildcard.
func AffectsIDs(ids ...string) Affects {
	cleaned := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || id == EmptySentinel {
			continue
		}
		if strings.EqualFold(id, AllSentinel) {
			return AffectsAllDocuments()
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		cleaned = append(cleaned, id)
	}
	if len(cleaned) == 0 {
		return NoAffects()
	}
	return Affects{kind: AffectsList, ids: cleaned}
}

// Kind returns the variant tag.
func (a Affects) Kind() AffectsKind {
	return a.kind
}

// IsAll reports whether the wildcard is set.
func (a Affects) IsAll() bool {
	return a.kind == AffectsAll
}

// IsEmpty reports whether nothing is affected.
func (a Affects) IsEmpty() bool {
	return a.kind == AffectsNone
}

// IDs returns a copy of the explicit ids. It is nil for None and All.
func (a Affects) IDs() []string {
	if a.kind != AffectsList {
		return nil
	}
	return append([]string(nil), a.ids...)
}

// Resolve expands the edge set against the live registry. The wildcard is
// recomputed on every call so it always reflects the current records.
func (a Affects) Resolve(reg *Registry, self string) []string {
	switch a.kind {
	case AffectsAll:
		return reg.Others(self)
	case AffectsList:
		return a.IDs()
	default:
		return nil
	}
}

// Equal compares two edge sets, ignoring order for explicit lists.
func (a Affects) Equal(other Affects) bool {
	if a.kind != other.kind {
		return false
	}
	if a.kind != AffectsList {
		return true
	}
	return sameSet(a.ids, other.ids)
}

func (a Affects) String() string {
	switch a.kind {
	case AffectsAll:
		return AllSentinel
	case AffectsList:
		return strings.Join(a.ids, ", ")
	default:
		return EmptySentinel
	}
}

// Record is one row of the registry table.
type Record struct {
	ID             string
	Path           string
	Version        string
	DependsOn      []string
	Affects        Affects
	ChangeRequires []string
}

// Registry holds the records in table order with an id index.
type Registry struct {
	order   []string
	records map[string]Record
	columns []string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{records: map[string]Record{}}
}

// Add inserts or replaces a record. A replaced record keeps its original
// position. It reports whether the id was already present.
func (r *Registry) Add(rec Record) bool {
	if r.records == nil {
		r.records = map[string]Record{}
	}
	_, exists := r.records[rec.ID]
	if !exists {
		r.order = append(r.order, rec.ID)
	}
	r.records[rec.ID] = rec
	return exists
}

// HasColumn reports whether the table header named column. A registry built
// in code has no header.
func (r *Registry) HasColumn(column string) bool {
	if r == nil {
		return false
	}
	for _, c := range r.columns {
		if c == column {
			return true
		}
	}
	return false
}

// Lookup returns the record for id.
func (r *Registry) Lookup(id string) (Record, bool) {
	if r == nil {
		return Record{}, false
	}
	rec, ok := r.records[id]
	return rec, ok
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.Lookup(id)
	return ok
}

// Len returns the number of records.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// IsEmpty reports whether the registry has no records.
func (r *Registry) IsEmpty() bool {
	return r.Len() == 0
}

// IDs returns the registered ids in table order.
func (r *Registry) IDs() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.order...)
}

// Records returns the records in table order.
func (r *Registry) Records() []Record {
	if r == nil {
		return nil
	}
	out := make([]Record, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.records[id])
	}
	return out
}

// Others returns every registered id except self, in table order.
func (r *Registry) Others(self string) []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.order))
	for _, id := range r.order {
		if id != self {
			out = append(out, id)
		}
	}
	return out
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[string]int, len(a))
	for _, v := range a {
		counts[v]++
	}
	for _, v := range b {
		counts[v]--
		if counts[v] < 0 {
			return false
		}
	}
	return true
}

// SameIDs compares two id lists as sets.
func SameIDs(a, b []string) bool {
	return sameSet(a, b)
}
