package propagation

import (
	"sort"

	"github.com/kingrea/dcs/internal/frontmatter"
	"github.com/kingrea/dcs/internal/registry"
	"github.com/kingrea/dcs/internal/workspace"
)

// Status is the one-word state of a registered document.
type Status string

const (
	StatusCurrent    Status = "up to date"
	StatusStale      Status = "needs update"
	StatusNoMetadata Status = "no metadata"
	StatusMissing    Status = "missing file"
)

// Entry is a registry row together with what is on disk for it.
type Entry struct {
	Record      registry.Record
	Meta        frontmatter.Metadata
	HasMetadata bool
	Status      Status
}

// Survey returns one entry per registry row, in registry order.
func Survey(ws *workspace.Workspace) []Entry {
	stale := map[string]bool{}
	for _, id := range Stale(ws) {
		stale[id] = true
	}
	out := make([]Entry, 0, ws.Registry.Len())
	for _, rec := range ws.Registry.Records() {
		entry := Entry{Record: rec, Status: StatusCurrent}
		if !ws.Exists(rec) {
			entry.Status = StatusMissing
			out = append(out, entry)
			continue
		}
		entry.Meta, entry.HasMetadata = ws.Docs.Extract(ws.Resolve(rec))
		switch {
		case !entry.HasMetadata:
			entry.Status = StatusNoMetadata
		case stale[rec.ID]:
			entry.Status = StatusStale
		}
		out = append(out, entry)
	}
	return out
}

// MostRecent orders entries by last_updated, newest first, keeping entries
// without a date at the end, and returns at most limit of them. A limit of
// zero or less keeps every entry.
func MostRecent(entries []Entry, limit int) []Entry {
	out := append([]Entry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Meta.LastUpdated, out[j].Meta.LastUpdated
		if a == "" || b == "" {
			return a != "" && b == ""
		}
		return a > b
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
