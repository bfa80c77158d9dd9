// Package render draws the registry dependency graph as indented text or
// Graphviz DOT.
package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kingrea/dcs/internal/registry"
)

// Format names an output format.
type Format string

const (
	FormatText Format = "text"
	FormatDOT  Format = "dot"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatText, FormatDOT}
}

// ErrUnsupportedFormat is returned for any format other than text or dot.
var ErrUnsupportedFormat = errors.New("unsupported output format")

type formatError struct {
	format string
}

func (e *formatError) Error() string {
	return "Unsupported output format: " + e.format
}

func (e *formatError) Unwrap() error {
	return ErrUnsupportedFormat
}

// Render draws reg in the requested format.
func Render(reg *registry.Registry, format Format) (string, error) {
	switch Format(strings.ToLower(strings.TrimSpace(string(format)))) {
	case FormatText:
		return Text(reg), nil
	case FormatDOT:
		return DOT(reg), nil
	default:
		return "", &formatError{format: string(format)}
	}
}

// Text lists every document with its dependencies, affected documents and
// change hints.
func Text(reg *registry.Registry) string {
	var b strings.Builder
	b.WriteString("Document Dependency Graph:\n")
	for _, rec := range reg.Records() {
		path := rec.Path
		if path == "" {
			path = "unknown"
		}
		fmt.Fprintf(&b, "\n%s (%s)\n", rec.ID, path)

		if len(rec.DependsOn) > 0 {
			b.WriteString("  Depends on:\n")
			for _, dep := range rec.DependsOn {
				fmt.Fprintf(&b, "    ↑ %s\n", dep)
			}
		}

		switch rec.Affects.Kind() {
		case registry.AffectsAll:
			b.WriteString("  Affects: ALL OTHER DOCUMENTS\n")
		case registry.AffectsList:
			b.WriteString("  Affects:\n")
			for _, aff := range rec.Affects.IDs() {
				fmt.Fprintf(&b, "    ↓ %s\n", aff)
			}
		}

		if len(rec.ChangeRequires) > 0 {
			b.WriteString("  Changes require:\n")
			for _, req := range rec.ChangeRequires {
				fmt.Fprintf(&b, "    • %s\n", req)
			}
		}
	}
	return b.String()
}

// DOT emits a Graphviz digraph. Dependency edges point from the dependency
// to the dependent in blue; affects edges point at the affected document in
// red, with the wildcard expanded against the registry.
func DOT(reg *registry.Registry) string {
	lines := []string{
		"digraph DocDependencies {",
		"  rankdir=LR;",
		"  node [shape=box, style=filled, fillcolor=lightblue];",
	}
	for _, id := range reg.IDs() {
		lines = append(lines, fmt.Sprintf("  %s;", quote(id)))
	}
	for _, rec := range reg.Records() {
		for _, dep := range rec.DependsOn {
			lines = append(lines, fmt.Sprintf("  %s -> %s [color=blue];", quote(dep), quote(rec.ID)))
		}
		for _, aff := range rec.Affects.Resolve(reg, rec.ID) {
			lines = append(lines, fmt.Sprintf("  %s -> %s [color=red];", quote(rec.ID), quote(aff)))
		}
	}
	lines = append(lines, "}")
	return strings.Join(lines, "\n")
}

func quote(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `\"`) + `"`
}
