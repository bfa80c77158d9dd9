// Package consistency cross-checks the registry against the documents it
// names: paths, front matter identity and version, dependency targets and
// dependency cycles.
package consistency

import (
	"fmt"
	"strings"

	"github.com/kingrea/dcs/internal/frontmatter"
	"github.com/kingrea/dcs/internal/registry"
	"github.com/kingrea/dcs/internal/report"
	"github.com/kingrea/dcs/internal/workspace"
)

// Options tunes a check run.
type Options struct {
	// Strict also reports front matter whose depends_on/affects drift from
	// the registry and blocks that fail the metadata schema.
	Strict bool
	// Schema is used in strict mode. Nil compiles the built-in schema.
	Schema *frontmatter.Schema
}

// Check runs every consistency rule and returns all findings. It never
// stops at the first problem.
func Check(ws *workspace.Workspace, opts Options) report.Report {
	var rep report.Report
	schema := opts.schema(ws)

	for _, rec := range ws.Registry.Records() {
		checkRecord(ws, rec, opts.Strict, schema, &rep)
	}
	checkDependencies(ws.Registry, &rep)
	for _, cycle := range FindCycles(ws.Registry) {
		rep.Add(report.KindCycle, cycle[0], "Circular dependency detected: "+strings.Join(cycle, " -> "))
	}
	ws.Log.Debug("consistency check finished", "documents", ws.Registry.Len(), "issues", rep.Len())
	return rep
}

func (o Options) schema(ws *workspace.Workspace) *frontmatter.Schema {
	if !o.Strict || o.Schema != nil {
		return o.Schema
	}
	schema, err := frontmatter.NewSchema()
	if err != nil {
		ws.Log.Error("metadata schema unavailable, skipping schema checks", "err", err)
		return nil
	}
	return schema
}

func checkRecord(ws *workspace.Workspace, rec registry.Record, strict bool, schema *frontmatter.Schema, rep *report.Report) {
	if rec.Path == "" {
		rep.Add(report.KindMissingPath, rec.ID, fmt.Sprintf("Document ID %s has no path in registry", rec.ID))
		return
	}
	if !ws.Exists(rec) {
		rep.Add(report.KindMissingFile, rec.ID, fmt.Sprintf("Document %s (%s) does not exist", rec.ID, rec.Path))
		return
	}
	path := ws.Resolve(rec)
	meta, ok := ws.Docs.Extract(path)
	if !ok {
		rep.Add(report.KindMissingMetadata, rec.ID, fmt.Sprintf("Document %s (%s) has no metadata", rec.ID, rec.Path))
		return
	}
	if meta.DocID != rec.ID {
		rep.Add(report.KindIDMismatch, rec.ID, fmt.Sprintf("Document %s has inconsistent doc_id: %s", rec.ID, orNone(meta.DocID)))
	}
	if meta.Version != rec.Version {
		rep.Add(report.KindVersionMismatch, rec.ID, fmt.Sprintf("Document %s has inconsistent version: %s (metadata) vs %s (registry)",
			rec.ID, orNone(meta.Version), orNone(rec.Version)))
	}
	if !strict {
		return
	}
	if !registry.SameIDs(meta.DependsOn, rec.DependsOn) {
		rep.Add(report.KindMetadataDrift, rec.ID, fmt.Sprintf("Document %s has inconsistent depends_on: %s (metadata) vs %s (registry)",
			rec.ID, listOrDash(meta.DependsOn), listOrDash(rec.DependsOn)))
	}
	if !meta.Affects.Equal(rec.Affects) {
		rep.Add(report.KindMetadataDrift, rec.ID, fmt.Sprintf("Document %s has inconsistent affects: %s (metadata) vs %s (registry)",
			rec.ID, meta.Affects, rec.Affects))
	}
	if schema == nil {
		return
	}
	raw, ok := ws.Docs.ExtractRaw(path)
	if !ok {
		return
	}
	for _, v := range schema.Validate(raw) {
		rep.Add(report.KindSchemaViolation, rec.ID, fmt.Sprintf("Document %s has invalid metadata: %s", rec.ID, v))
	}
}

// checkDependencies reports one issue per depends_on reference that names
// an unregistered document.
func checkDependencies(reg *registry.Registry, rep *report.Report) {
	for _, rec := range reg.Records() {
		for _, dep := range rec.DependsOn {
			if !reg.Has(dep) {
				rep.Add(report.KindDanglingDependency, rec.ID, fmt.Sprintf("Document %s depends on non-existent document %s", rec.ID, dep))
			}
		}
	}
}

func orNone(value string) string {
	if value == "" {
		return "(none)"
	}
	return value
}

func listOrDash(ids []string) string {
	if len(ids) == 0 {
		return registry.EmptySentinel
	}
	return strings.Join(ids, ", ")
}
