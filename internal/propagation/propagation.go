// Package propagation checks that changes to a document have been carried
// into the documents it affects, by comparing last_updated dates.
package propagation

import (
	"fmt"

	"github.com/kingrea/dcs/internal/consistency"
	"github.com/kingrea/dcs/internal/report"
	"github.com/kingrea/dcs/internal/workspace"
)

// Options tunes a validation run.
type Options struct {
	// Consistency is forwarded to the consistency check that runs first.
	Consistency consistency.Options
}

// Validate returns the consistency findings followed by every propagation
// finding. A trigger document needs a file, metadata and last_updated; its
// front-matter affects (not the registry row) decide which documents must be
// at least as recent. Dates compare as YYYY-MM-DD strings.
func Validate(ws *workspace.Workspace, opts Options) report.Report {
	rep := consistency.Check(ws, opts.Consistency)
	rep.Merge(findings(ws))
	ws.Log.Debug("propagation check finished", "issues", rep.Len())
	return rep
}

// Stale returns the registered ids whose last_updated predates a document
// that affects them, in registry order.
func Stale(ws *workspace.Workspace) []string {
	seen := map[string]bool{}
	for _, issue := range findings(ws).Filter(report.KindStale) {
		seen[issue.DocID] = true
	}
	var out []string
	for _, id := range ws.Registry.IDs() {
		if seen[id] {
			out = append(out, id)
		}
	}
	return out
}

func findings(ws *workspace.Workspace) report.Report {
	var rep report.Report
	for _, rec := range ws.Registry.Records() {
		if !ws.Exists(rec) {
			continue
		}
		meta, ok := ws.Docs.Extract(ws.Resolve(rec))
		if !ok || meta.LastUpdated == "" {
			continue
		}
		for _, affID := range meta.Affects.Resolve(ws.Registry, rec.ID) {
			checkAffected(ws, rec.ID, meta.LastUpdated, affID, &rep)
		}
	}
	return rep
}

func checkAffected(ws *workspace.Workspace, docID, lastUpdated, affID string, rep *report.Report) {
	aff, ok := ws.Registry.Lookup(affID)
	if !ok {
		rep.Add(report.KindUnknownAffected, docID, fmt.Sprintf("Document %s affects non-existent document %s", docID, affID))
		return
	}
	if !ws.Exists(aff) {
		return
	}
	affMeta, ok := ws.Docs.Extract(ws.Resolve(aff))
	switch {
	case !ok:
		rep.Add(report.KindAffectedMissingMetadata, affID, fmt.Sprintf("Affected document %s has no metadata", affID))
	case affMeta.LastUpdated == "":
		rep.Add(report.KindAffectedMissingDate, affID, fmt.Sprintf("Affected document %s has no last_updated date", affID))
	case affMeta.LastUpdated < lastUpdated:
		rep.Add(report.KindStale, affID, fmt.Sprintf("Document %s needs to be updated to reflect changes in %s (last updated: %s)", affID, docID, lastUpdated))
	}
}
