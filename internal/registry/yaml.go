package registry

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// MarshalYAML writes the wildcard as the scalar ALL and everything else as a
// list, so an empty set round-trips as [].
func (a Affects) MarshalYAML() (interface{}, error) {
	switch a.kind {
	case AffectsAll:
		return AllSentinel, nil
	case AffectsList:
		return a.IDs(), nil
	default:
		return []string{}, nil
	}
}

// UnmarshalYAML accepts ALL, "-", a comma separated scalar, a list, or null.
func (a *Affects) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*a = NoAffects()
			return nil
		}
		*a = AffectsIDs(SplitList(value.Value)...)
		return nil
	case yaml.SequenceNode:
		var ids []string
		if err := value.Decode(&ids); err != nil {
			return fmt.Errorf("registry: decode affects: %w", err)
		}
		*a = AffectsIDs(ids...)
		return nil
	default:
		return fmt.Errorf("registry: affects must be ALL or a list, line %d", value.Line)
	}
}
