// Package frontmatter reads and writes the YAML metadata block that opens a
// governed document.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/dcs/internal/registry"
)

var (
	// ErrMissingFrontMatter indicates the document did not start with a YAML fence.
	ErrMissingFrontMatter = errors.New("frontmatter: missing block")
	// ErrMalformedFrontMatter indicates the fences or the YAML between them are broken.
	ErrMalformedFrontMatter = errors.New("frontmatter: malformed block")
)

const fence = "---"

// Metadata is the decoded front-matter block. Keys the tool does not manage
// are kept in Extra and written back untouched.
type Metadata struct {
	DocID          string           `yaml:"doc_id"`
	Version        string           `yaml:"version"`
	LastUpdated    string           `yaml:"last_updated,omitempty"`
	UpdatedBy      string           `yaml:"updated_by,omitempty"`
	DependsOn      []string         `yaml:"depends_on"`
	Affects        registry.Affects `yaml:"affects"`
	ChangeRequires []string         `yaml:"change_requires"`
	Extra          map[string]any   `yaml:",inline"`

	// dates names the Extra keys written as bare YAML timestamps, so they go
	// back out unquoted and in the author's form.
	dates map[string]bool
}

// IsZero reports whether the block carried nothing at all.
func (m Metadata) IsZero() bool {
	return m.DocID == "" && m.Version == "" && m.LastUpdated == "" && m.UpdatedBy == "" &&
		len(m.DependsOn) == 0 && m.Affects.IsEmpty() && len(m.ChangeRequires) == 0 && len(m.Extra) == 0
}

// Parse splits content into its metadata and the body that follows the
// closing fence. Leading blank lines and a UTF-8 BOM are tolerated; anything
// else before the opening fence means there is no block.
func Parse(content []byte) (Metadata, []byte, error) {
	normalized := normalizeNewlines(content)
	block, ok := locate(normalized)
	if !ok {
		return Metadata{}, nil, ErrMissingFrontMatter
	}
	if !block.closed {
		return Metadata{}, nil, ErrMalformedFrontMatter
	}
	meta, err := decode(block.yaml)
	if err != nil {
		return Metadata{}, nil, err
	}
	return meta, normalized[block.end:], nil
}

// DecodeRaw returns the leading block as a generic map, for schema checks
// that need to see the values before they are coerced into Metadata.
func DecodeRaw(content []byte) (map[string]any, error) {
	block, ok := locate(normalizeNewlines(content))
	if !ok {
		return nil, ErrMissingFrontMatter
	}
	if !block.closed {
		return nil, ErrMalformedFrontMatter
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(block.yaml, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrontMatter, err)
	}
	for key, value := range raw {
		raw[key] = plainValue(value)
	}
	return raw, nil
}

// plainValue turns implicit YAML timestamps back into the text the author
// wrote, so a bare 2024-01-10 stays a date string.
func plainValue(value any) any {
	switch v := value.(type) {
	case time.Time:
		if v.Equal(v.Truncate(24*time.Hour)) && v.Location() == time.UTC {
			return v.Format("2006-01-02")
		}
		return v.Format(time.RFC3339)
	case []any:
		for i := range v {
			v[i] = plainValue(v[i])
		}
		return v
	case map[string]any:
		for key := range v {
			v[key] = plainValue(v[key])
		}
		return v
	default:
		return value
	}
}

// Render encodes meta between fences and appends body.
func Render(meta Metadata, body []byte) ([]byte, error) {
	var encoded bytes.Buffer
	enc := yaml.NewEncoder(&encoded)
	enc.SetIndent(2)
	if err := enc.Encode(normalize(meta).encodable()); err != nil {
		return nil, fmt.Errorf("frontmatter: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("frontmatter: encode: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString(fence + "\n")
	buf.Write(bytes.TrimRight(encoded.Bytes(), "\n"))
	buf.WriteString("\n" + fence + "\n")
	buf.Write(body)
	return buf.Bytes(), nil
}

// Replace swaps the leading block of content for meta, or prepends a block
// when the document has none. Everything after the block is kept verbatim.
func Replace(content []byte, meta Metadata) ([]byte, error) {
	normalized := normalizeNewlines(content)
	block, ok := locate(normalized)
	if !ok {
		return Render(meta, trimBOM(normalized))
	}
	if !block.closed {
		return nil, ErrMalformedFrontMatter
	}
	rendered, err := Render(meta, normalized[block.end:])
	if err != nil {
		return nil, err
	}
	return append(append([]byte(nil), normalized[:block.start]...), rendered...), nil
}

type span struct {
	start  int
	end    int
	yaml   []byte
	closed bool
}

// locate finds the opening fence on the first non-blank line and the next
// line that is exactly a fence.
func locate(content []byte) (span, bool) {
	offset := 0
	if bytes.HasPrefix(content, bom) {
		offset = len(bom)
	}
	for offset < len(content) {
		end := lineEnd(content, offset)
		line := strings.TrimSpace(string(content[offset:end]))
		if line == "" {
			offset = next(content, end)
			continue
		}
		if line != fence {
			return span{}, false
		}
		break
	}
	if offset >= len(content) {
		return span{}, false
	}
	result := span{start: offset}
	bodyStart := next(content, lineEnd(content, offset))
	for pos := bodyStart; pos < len(content); {
		end := lineEnd(content, pos)
		if strings.TrimRight(string(content[pos:end]), " \t") == fence {
			result.yaml = content[bodyStart:pos]
			result.end = next(content, end)
			result.closed = true
			return result, true
		}
		pos = next(content, end)
	}
	return result, true
}

func decode(data []byte) (Metadata, error) {
	var meta Metadata
	if len(bytes.TrimSpace(data)) == 0 {
		return meta, nil
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrMalformedFrontMatter, err)
	}
	if len(node.Content) == 0 {
		return meta, nil
	}
	if node.Content[0].Kind != yaml.MappingNode {
		return Metadata{}, fmt.Errorf("%w: block is not a mapping", ErrMalformedFrontMatter)
	}
	if err := node.Decode(&meta); err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrMalformedFrontMatter, err)
	}
	for key, value := range meta.Extra {
		meta.Extra[key] = plainValue(value)
	}
	meta.dates = timestampKeys(node.Content[0], meta.Extra)
	return normalize(meta), nil
}

func timestampKeys(mapping *yaml.Node, extra map[string]any) map[string]bool {
	var keys map[string]bool
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key, value := mapping.Content[i].Value, mapping.Content[i+1]
		if _, ok := extra[key]; !ok || value.Kind != yaml.ScalarNode || value.ShortTag() != "!!timestamp" {
			continue
		}
		if keys == nil {
			keys = map[string]bool{}
		}
		keys[key] = true
	}
	return keys
}

// encodable swaps date-valued extras for timestamp nodes.
func (m Metadata) encodable() Metadata {
	if len(m.dates) == 0 {
		return m
	}
	extra := make(map[string]any, len(m.Extra))
	for key, value := range m.Extra {
		if text, ok := value.(string); ok && m.dates[key] {
			extra[key] = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!timestamp", Value: text}
			continue
		}
		extra[key] = value
	}
	m.Extra = extra
	return m
}

func normalize(meta Metadata) Metadata {
	if len(meta.DependsOn) == 0 {
		meta.DependsOn = nil
	}
	if len(meta.ChangeRequires) == 0 {
		meta.ChangeRequires = nil
	}
	if len(meta.Extra) == 0 {
		meta.Extra = nil
	}
	return meta
}

var bom = []byte("\xef\xbb\xbf")

func trimBOM(content []byte) []byte {
	return bytes.TrimPrefix(content, bom)
}

func lineEnd(content []byte, from int) int {
	if idx := bytes.IndexByte(content[from:], '\n'); idx >= 0 {
		return from + idx
	}
	return len(content)
}

func next(content []byte, end int) int {
	if end < len(content) {
		return end + 1
	}
	return end
}

func normalizeNewlines(content []byte) []byte {
	return bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
}
