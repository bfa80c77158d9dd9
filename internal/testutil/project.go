// Package testutil builds throwaway documentation projects for tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/dcs/internal/registry"
	"github.com/kingrea/dcs/internal/workspace"
)

// MasterFile is the default master document name.
const MasterFile = "README-Master.md"

// Row is one registry table row. Empty list cells are written as "-".
type Row struct {
	ID             string
	Path           string
	Version        string
	DependsOn      string
	Affects        string
	ChangeRequires string
}

// Project is a temporary project root.
type Project struct {
	t    testing.TB
	Root string
}

// NewProject creates an empty project under t.TempDir().
func NewProject(t testing.TB) *Project {
	t.Helper()
	return &Project{t: t, Root: t.TempDir()}
}

// Write stores content at rel and returns the absolute path.
func (p *Project) Write(rel, content string) string {
	p.t.Helper()
	path := filepath.Join(p.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		p.t.Fatalf("mkdir %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		p.t.Fatalf("write %s: %v", rel, err)
	}
	return path
}

// Read returns the content stored at rel.
func (p *Project) Read(rel string) string {
	p.t.Helper()
	data, err := os.ReadFile(filepath.Join(p.Root, filepath.FromSlash(rel)))
	if err != nil {
		p.t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}

// WriteMaster writes the master document with a registry table of rows.
func (p *Project) WriteMaster(rows ...Row) string {
	p.t.Helper()
	return p.Write(MasterFile, "# Master\n\n"+MasterTable(rows...)+"\n## Notes\n\nFree text.\n")
}

// WriteDoc writes a document whose front matter is the given YAML lines.
func (p *Project) WriteDoc(rel string, frontMatter ...string) string {
	p.t.Helper()
	var b strings.Builder
	if len(frontMatter) > 0 {
		b.WriteString("---\n")
		for _, line := range frontMatter {
			b.WriteString(line + "\n")
		}
		b.WriteString("---\n\n")
	}
	b.WriteString("# " + filepath.Base(rel) + "\n\nBody.\n")
	return p.Write(rel, b.String())
}

// Workspace loads the master document into a workspace.
func (p *Project) Workspace(opts ...workspace.Option) *workspace.Workspace {
	p.t.Helper()
	reg, err := registry.LoadFile(filepath.Join(p.Root, MasterFile), registry.Options{})
	if err != nil {
		p.t.Fatalf("load registry: %v", err)
	}
	return workspace.New(p.Root, reg, opts...)
}

// MasterTable renders rows under a "### Document Registry" heading.
func MasterTable(rows ...Row) string {
	var b strings.Builder
	b.WriteString("### Document Registry\n\n")
	b.WriteString("| Document ID | Path | Version | Depends On | Affects | Change Requires |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, r := range rows {
		cells := []string{r.ID, r.Path, r.Version, dash(r.DependsOn), dash(r.Affects), dash(r.ChangeRequires)}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return b.String()
}

func dash(cell string) string {
	if cell == "" {
		return registry.EmptySentinel
	}
	return cell
}

// FixedClock returns a clock stuck at date (YYYY-MM-DD, noon UTC).
func FixedClock(date string) func() time.Time {
	t, err := time.Parse(workspace.DateLayout, date)
	if err != nil {
		panic(err)
	}
	t = t.Add(12 * time.Hour)
	return func() time.Time { return t }
}
