package registry

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/kingrea/dcs/internal/logging"
)

// DefaultSection is the heading that introduces the registry table.
const DefaultSection = "Document Registry"

// Column names recognised in the registry header.
const (
	ColumnID             = "Document ID"
	ColumnPath           = "Path"
	ColumnVersion        = "Version"
	ColumnDependsOn      = "Depends On"
	ColumnAffects        = "Affects"
	ColumnChangeRequires = "Change Requires"
)

var (
	// ErrSectionNotFound indicates the master document has no registry heading.
	ErrSectionNotFound = errors.New("registry: section not found")
	// ErrEmptyRegistry indicates the table is missing or has no data rows.
	ErrEmptyRegistry = errors.New("registry: table is empty or malformed")
	// ErrMissingIDColumn indicates the header has no Document ID column.
	ErrMissingIDColumn = errors.New("registry: header has no Document ID column")
)

var (
	headingPattern   = regexp.MustCompile(`^\s{0,3}(#{1,6})\s+(.*?)\s*#*\s*$`)
	separatorPattern = regexp.MustCompile(`^:?-+:?$`)
)

// Options tunes registry parsing.
type Options struct {
	// Section is the heading title of the registry section.
	Section string
	// Log receives warnings about skipped rows.
	Log *logging.Logger
}

func (o Options) section() string {
	if s := strings.TrimSpace(o.Section); s != "" {
		return s
	}
	return DefaultSection
}

// LoadFile reads the master document at path and parses its registry.
func LoadFile(path string, opts Options) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return New(), fmt.Errorf("registry: read %s: %w", path, err)
	}
	reg, err := Parse(string(data), opts)
	if err != nil {
		return reg, fmt.Errorf("registry: %s: %w", path, err)
	}
	return reg, nil
}

// Parse extracts the registry table from the master document text. On error
// an empty registry is returned alongside it; callers must treat that as a
// configuration error.
func Parse(text string, opts Options) (*Registry, error) {
	rows, err := sectionRows(normalizeNewlines(text), opts.section())
	if err != nil {
		return New(), err
	}
	if len(rows) < 2 {
		return New(), ErrEmptyRegistry
	}

	header := rows[0]
	columns := make(map[string]int, len(header))
	for idx, name := range header {
		if _, dup := columns[name]; !dup {
			columns[name] = idx
		}
	}
	if _, ok := columns[ColumnID]; !ok {
		return New(), ErrMissingIDColumn
	}

	data := rows[1:]
	if isSeparator(data[0]) {
		data = data[1:]
	}

	reg := New()
	reg.columns = append([]string(nil), header...)
	for _, cells := range data {
		if len(cells) != len(header) {
			opts.Log.Warn("skipping malformed registry row", "row", "| "+strings.Join(cells, " | ")+" |")
			continue
		}
		cell := func(name string) string {
			if idx, ok := columns[name]; ok {
				return cells[idx]
			}
			return ""
		}
		id := cell(ColumnID)
		if id == "" {
			continue
		}
		rec := Record{
			ID:             id,
			Path:           cell(ColumnPath),
			Version:        cell(ColumnVersion),
			DependsOn:      SplitList(cell(ColumnDependsOn)),
			Affects:        AffectsIDs(SplitList(cell(ColumnAffects))...),
			ChangeRequires: SplitList(cell(ColumnChangeRequires)),
		}
		if replaced := reg.Add(rec); replaced {
			opts.Log.Warn("duplicate registry id, later row wins", "id", id)
		}
	}
	if reg.IsEmpty() {
		return reg, ErrEmptyRegistry
	}
	return reg, nil
}

// SplitList turns a list cell into its entries. "-" and blank cells are empty.
func SplitList(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" || value == EmptySentinel {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" || part == EmptySentinel {
			continue
		}
		out = append(out, part)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// sectionRows returns the table rows found between the registry heading and
// the next heading, each already split into trimmed cells. Headings and
// tables inside code fences are ignored.
func sectionRows(text, section string) ([][]string, error) {
	lines := strings.Split(text, "\n")
	start := -1
	inFence := false
	for idx, line := range lines {
		if isFence(line) {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		if m := headingPattern.FindStringSubmatch(line); m != nil && strings.EqualFold(m[2], section) {
			start = idx + 1
			break
		}
	}
	if start < 0 {
		return nil, ErrSectionNotFound
	}
	var rows [][]string
	inFence = false
	for _, line := range lines[start:] {
		trimmed := strings.TrimSpace(line)
		if isFence(line) {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		if headingPattern.MatchString(line) {
			break
		}
		if len(trimmed) < 2 || !strings.HasPrefix(trimmed, "|") || !strings.HasSuffix(trimmed, "|") {
			continue
		}
		rows = append(rows, splitRow(trimmed))
	}
	return rows, nil
}

func splitRow(line string) []string {
	inner := line[1 : len(line)-1]
	parts := strings.Split(inner, "|")
	cells := make([]string, len(parts))
	for i, part := range parts {
		cells[i] = strings.TrimSpace(part)
	}
	return cells
}

func isSeparator(cells []string) bool {
	if len(cells) == 0 {
		return false
	}
	for _, c := range cells {
		if !separatorPattern.MatchString(strings.ReplaceAll(c, " ", "")) {
			return false
		}
	}
	return true
}

func isFence(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~")
}

func normalizeNewlines(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}
