package consistency

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kingrea/dcs/internal/workspace"
)

// Unregistered lists project files matched by include but not excluded that
// no registry row points to. Paths are slash separated and relative to the
// workspace root.
func Unregistered(ws *workspace.Workspace, include, exclude []string) ([]string, error) {
	registered := map[string]bool{}
	for _, rec := range ws.Registry.Records() {
		if path := ws.Resolve(rec); path != "" {
			if rel, err := filepath.Rel(ws.Root, path); err == nil {
				registered[filepath.ToSlash(rel)] = true
			}
		}
	}
	if ws.Master != "" {
		if rel, err := filepath.Rel(ws.Root, ws.Master); err == nil {
			registered[filepath.ToSlash(rel)] = true
		}
	}

	fsys := os.DirFS(ws.Root)
	found := map[string]bool{}
	for _, pattern := range include {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("consistency: glob %q: %w", pattern, err)
		}
		for _, match := range matches {
			if registered[match] || found[match] {
				continue
			}
			skip, err := excluded(match, exclude)
			if err != nil {
				return nil, err
			}
			if !skip {
				found[match] = true
			}
		}
	}

	out := make([]string, 0, len(found))
	for path := range found {
		out = append(out, path)
	}
	sort.Strings(out)
	ws.Log.Debug("unregistered scan finished", "patterns", len(include), "unregistered", len(out))
	return out, nil
}

func excluded(path string, patterns []string) (bool, error) {
	for _, pattern := range patterns {
		ok, err := doublestar.Match(pattern, path)
		if err != nil {
			return false, fmt.Errorf("consistency: exclude %q: %w", pattern, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
