package frontmatter

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "dcs://frontmatter.schema.json"

// schemaSource describes a well-formed metadata block. Unknown keys are
// allowed so teams can carry their own fields.
const schemaSource = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["doc_id", "version"],
  "properties": {
    "doc_id": {
      "type": "string",
      "pattern": "^[A-Z][A-Z0-9]*(-[A-Za-z0-9_.]+)+$"
    },
    "version": {
      "type": ["string", "number"],
      "minLength": 1
    },
    "last_updated": {
      "type": "string",
      "format": "date"
    },
    "updated_by": {
      "type": "string"
    },
    "depends_on": {
      "type": ["array", "null"],
      "items": {"type": "string"}
    },
    "affects": {
      "type": ["string", "array", "null"],
      "items": {"type": "string"}
    },
    "change_requires": {
      "type": ["array", "null"],
      "items": {"type": "string"}
    }
  }
}`

// Violation is one schema failure inside a block.
type Violation struct {
	Path    string
	Message string
}

func (v Violation) String() string {
	if v.Path == "" {
		return v.Message
	}
	return v.Path + ": " + v.Message
}

// Schema validates decoded metadata blocks.
type Schema struct {
	compiled *jsonschema.Schema
}

// NewSchema compiles the built-in metadata schema.
func NewSchema() (*Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource(schemaURL, strings.NewReader(schemaSource)); err != nil {
		return nil, fmt.Errorf("frontmatter: load schema: %w", err)
	}
	compiled, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("frontmatter: compile schema: %w", err)
	}
	return &Schema{compiled: compiled}, nil
}

// Validate checks a raw block as returned by DecodeRaw. A nil result means
// the block is valid.
func (s *Schema) Validate(raw map[string]any) []Violation {
	// Round-trip through JSON so values carry the types the validator expects.
	data, err := json.Marshal(raw)
	if err != nil {
		return []Violation{{Message: fmt.Sprintf("block cannot be represented as JSON: %v", err)}}
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return []Violation{{Message: fmt.Sprintf("block cannot be represented as JSON: %v", err)}}
	}
	err = s.compiled.Validate(doc)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []Violation{{Message: err.Error()}}
	}
	var out []Violation
	collectViolations(&out, ve)
	return out
}

func collectViolations(out *[]Violation, err *jsonschema.ValidationError) {
	if err == nil {
		return
	}
	if len(err.Causes) == 0 {
		*out = append(*out, Violation{
			Path:    pointerToPath(err.InstanceLocation),
			Message: err.Message,
		})
		return
	}
	for _, cause := range err.Causes {
		collectViolations(out, cause)
	}
}

func pointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}
	return strings.ReplaceAll(ptr, "/", ".")
}
