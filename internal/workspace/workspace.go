// Package workspace binds a loaded registry to the project tree it describes.
// It is the context object every analysis receives; nothing in dcs keeps the
// registry in package state.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kingrea/dcs/internal/config"
	"github.com/kingrea/dcs/internal/frontmatter"
	"github.com/kingrea/dcs/internal/logbook"
	"github.com/kingrea/dcs/internal/logging"
	"github.com/kingrea/dcs/internal/registry"
)

// DateLayout is the last_updated format.
const DateLayout = "2006-01-02"

const (
	defaultVersion = "1.0.0"
	defaultAuthor  = "system"
)

var (
	// ErrUnknownDocument indicates the id has no registry row.
	ErrUnknownDocument = errors.New("document not found in registry")
	// ErrNoPath indicates the registry row has an empty path.
	ErrNoPath = errors.New("document has no path in registry")
	// ErrDocumentMissing indicates the registered file does not exist.
	ErrDocumentMissing = errors.New("document file does not exist")
)

// Workspace is one project root plus its registry.
type Workspace struct {
	Root     string
	Master   string
	Registry *registry.Registry
	Docs     *frontmatter.Store
	Log      *logging.Logger
	Journal  *logbook.Logbook
	Clock    func() time.Time
}

// Option customizes a Workspace.
type Option func(*Workspace)

// WithLogger sets the diagnostic logger.
func WithLogger(log *logging.Logger) Option {
	return func(w *Workspace) {
		w.Log = log
	}
}

// WithJournal records metadata updates in book.
func WithJournal(book *logbook.Logbook) Option {
	return func(w *Workspace) {
		w.Journal = book
	}
}

// WithClock overrides the clock that stamps last_updated.
func WithClock(clock func() time.Time) Option {
	return func(w *Workspace) {
		w.Clock = clock
	}
}

// New wraps an already loaded registry.
func New(root string, reg *registry.Registry, opts ...Option) *Workspace {
	if reg == nil {
		reg = registry.New()
	}
	w := &Workspace{
		Root:     root,
		Registry: reg,
		Clock:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.Docs = frontmatter.NewStore(frontmatter.WithLogger(w.Log))
	return w
}

// Open loads the registry from the configured master document. An absent
// section or a table without rows is returned as an error; callers treat it
// as a configuration problem.
func Open(cfg *config.Config, opts ...Option) (*Workspace, error) {
	probe := New(cfg.ProjectDir, nil, opts...)
	reg, err := registry.LoadFile(cfg.MasterPath(), registry.Options{
		Section: cfg.RegistrySection(),
		Log:     probe.Log,
	})
	if err != nil {
		return nil, err
	}
	probe.Registry = reg
	probe.Master = cfg.MasterPath()
	probe.Log.Debug("registry loaded", "master", probe.Master, "documents", reg.Len())
	return probe, nil
}

// Resolve returns the absolute path of rec, or "" when it has none.
func (w *Workspace) Resolve(rec registry.Record) string {
	if rec.Path == "" {
		return ""
	}
	path := filepath.FromSlash(rec.Path)
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(w.Root, path)
}

// Exists reports whether rec points at a regular file.
func (w *Workspace) Exists(rec registry.Record) bool {
	path := w.Resolve(rec)
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Metadata extracts the front matter of the registered document id.
func (w *Workspace) Metadata(id string) (frontmatter.Metadata, bool) {
	rec, ok := w.Registry.Lookup(id)
	if !ok || !w.Exists(rec) {
		return frontmatter.Metadata{}, false
	}
	return w.Docs.Extract(w.Resolve(rec))
}

// Today returns the current date in last_updated form.
func (w *Workspace) Today() string {
	return w.Clock().Format(DateLayout)
}

// UpdateMetadata rewrites the front matter of id from its registry row,
// stamping today's date. Keys not owned by the registry survive. version is
// copied even when the cell is blank, and is 1.0.0 only when the table has no
// Version column. updated_by is author when given, else the existing value,
// else "system".
func (w *Workspace) UpdateMetadata(id, author string) (frontmatter.Metadata, error) {
	meta, err := w.updateMetadata(id, author)
	if err != nil {
		w.Log.Error("metadata update failed", "id", id, "err", err)
		_ = w.Journal.Failed(id, err)
		return frontmatter.Metadata{}, err
	}
	if err := w.Journal.Updated(meta.DocID, meta.Version, meta.UpdatedBy); err != nil {
		w.Log.Warn("journal append failed", "err", err)
	}
	w.Log.Info("metadata updated", "id", id, "version", meta.Version, "date", meta.LastUpdated)
	return meta, nil
}

func (w *Workspace) updateMetadata(id, author string) (frontmatter.Metadata, error) {
	rec, ok := w.Registry.Lookup(id)
	if !ok {
		return frontmatter.Metadata{}, fmt.Errorf("%w: %s", ErrUnknownDocument, id)
	}
	if rec.Path == "" {
		return frontmatter.Metadata{}, fmt.Errorf("%w: %s", ErrNoPath, id)
	}
	path := w.Resolve(rec)
	if !w.Exists(rec) {
		return frontmatter.Metadata{}, fmt.Errorf("%w: %s (%s)", ErrDocumentMissing, id, rec.Path)
	}

	meta, err := w.Docs.Read(path)
	switch {
	case err == nil:
	case errors.Is(err, frontmatter.ErrMissingFrontMatter):
		meta = frontmatter.Metadata{}
	case errors.Is(err, frontmatter.ErrMalformedFrontMatter):
		w.Log.Warn("replacing unparsable front matter", "id", id, "err", err)
		meta = frontmatter.Metadata{}
	default:
		return frontmatter.Metadata{}, err
	}

	meta.DocID = rec.ID
	meta.Version = rec.Version
	if !w.Registry.HasColumn(registry.ColumnVersion) {
		meta.Version = defaultVersion
	}
	meta.LastUpdated = w.Today()
	switch {
	case author != "":
		meta.UpdatedBy = author
	case meta.UpdatedBy == "":
		meta.UpdatedBy = defaultAuthor
	}
	meta.DependsOn = append([]string(nil), rec.DependsOn...)
	meta.Affects = rec.Affects
	meta.ChangeRequires = append([]string(nil), rec.ChangeRequires...)

	if err := w.Docs.Write(path, meta); err != nil {
		return frontmatter.Metadata{}, err
	}
	return meta, nil
}
