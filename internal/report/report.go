// Package report collects the non-fatal problems found while checking a
// document tree. Checks accumulate issues instead of stopping at the first
// failure so one run surfaces the whole backlog.
package report

import "sort"

// Kind classifies an issue.
type Kind string

const (
	KindMissingPath             Kind = "missing-path"
	KindMissingFile             Kind = "missing-file"
	KindMissingMetadata         Kind = "missing-metadata"
	KindIDMismatch              Kind = "id-mismatch"
	KindVersionMismatch         Kind = "version-mismatch"
	KindMetadataDrift           Kind = "metadata-drift"
	KindSchemaViolation         Kind = "schema-violation"
	KindDanglingDependency      Kind = "dangling-dependency"
	KindCycle                   Kind = "cycle"
	KindUnknownAffected         Kind = "unknown-affected"
	KindAffectedMissingMetadata Kind = "affected-missing-metadata"
	KindAffectedMissingDate     Kind = "affected-missing-date"
	KindStale                   Kind = "stale"
)

// Issue is one human-readable finding tied to the document it concerns.
type Issue struct {
	Kind    Kind
	DocID   string
	Message string
}

func (i Issue) String() string {
	return i.Message
}

// Report is an ordered list of issues in discovery order.
type Report struct {
	Issues []Issue
}

// Add appends an issue.
func (r *Report) Add(kind Kind, docID, message string) {
	r.Issues = append(r.Issues, Issue{Kind: kind, DocID: docID, Message: message})
}

// Merge appends every issue of other, preserving order.
func (r *Report) Merge(other Report) {
	r.Issues = append(r.Issues, other.Issues...)
}

// OK reports whether no issues were collected.
func (r Report) OK() bool {
	return len(r.Issues) == 0
}

// Len returns the number of issues.
func (r Report) Len() int {
	return len(r.Issues)
}

// Strings returns the issue messages in discovery order.
func (r Report) Strings() []string {
	if len(r.Issues) == 0 {
		return nil
	}
	out := make([]string, len(r.Issues))
	for i, issue := range r.Issues {
		out[i] = issue.Message
	}
	return out
}

// Filter returns the issues of the given kind.
func (r Report) Filter(kind Kind) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Kind == kind {
			out = append(out, issue)
		}
	}
	return out
}

// CountByKind tallies issues per kind.
func (r Report) CountByKind() map[Kind]int {
	counts := make(map[Kind]int)
	for _, issue := range r.Issues {
		counts[issue.Kind]++
	}
	return counts
}

// Kinds returns every known kind in a stable order.
func Kinds() []Kind {
	kinds := []Kind{
		KindMissingPath,
		KindMissingFile,
		KindMissingMetadata,
		KindIDMismatch,
		KindVersionMismatch,
		KindMetadataDrift,
		KindSchemaViolation,
		KindDanglingDependency,
		KindCycle,
		KindUnknownAffected,
		KindAffectedMissingMetadata,
		KindAffectedMissingDate,
		KindStale,
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
