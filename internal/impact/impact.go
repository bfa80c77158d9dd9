// Package impact computes which documents are transitively affected when a
// document changes.
package impact

import (
	"github.com/kingrea/dcs/internal/registry"
)

// Analyze returns every document reachable from id over registry affects
// edges, in discovery order. The wildcard contributes every other registered
// document and the walk continues from each of them. id itself is never part
// of the result; an unregistered id has no impact. Targets missing from the
// registry are reported but not expanded.
func Analyze(reg *registry.Registry, id string) []string {
	if !reg.Has(id) {
		return []string{}
	}
	affected := []string{}
	visited := map[string]bool{id: true}
	var gather func(current string)
	gather = func(current string) {
		rec, ok := reg.Lookup(current)
		if !ok {
			return
		}
		for _, target := range rec.Affects.Resolve(reg, current) {
			if visited[target] {
				continue
			}
			visited[target] = true
			affected = append(affected, target)
			gather(target)
		}
	}
	gather(id)
	return affected
}

// Entry is one affected document prepared for display.
type Entry struct {
	ID         string
	Path       string
	Registered bool
}

// Describe pairs affected ids with their registry paths.
func Describe(reg *registry.Registry, ids []string) []Entry {
	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		rec, ok := reg.Lookup(id)
		out = append(out, Entry{ID: id, Path: rec.Path, Registered: ok})
	}
	return out
}

// DisplayPath is the path shown next to an entry.
func (e Entry) DisplayPath() string {
	if !e.Registered || e.Path == "" {
		return "unknown"
	}
	return e.Path
}
