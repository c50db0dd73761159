package spec

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// State declares whether a resource should exist on the host.
type State string

// Valid resource states.
const (
	StatePresent State = "present"
	StateAbsent  State = "absent"
)

// normalizeState applies the default and validates the value.
func normalizeState(raw string) (State, error) {
	switch raw {
	case "":
		return StatePresent, nil
	case string(StatePresent):
		return StatePresent, nil
	case string(StateAbsent):
		return StateAbsent, nil
	default:
		return "", fmt.Errorf("state must be 'present' or 'absent', got %q", raw)
	}
}

// StringOrList accepts a YAML scalar or sequence and normalizes to a list.
type StringOrList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *StringOrList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v string
		if err := node.Decode(&v); err != nil {
			return err
		}
		*s = []string{v}
		return nil
	case yaml.SequenceNode:
		var v []string
		if err := node.Decode(&v); err != nil {
			return err
		}
		*s = v
		return nil
	default:
		return fmt.Errorf("expected string or list, got %s", node.Tag)
	}
}

// EnvVars accepts a YAML mapping, a sequence of KEY=VALUE strings, or a
// single KEY=VALUE scalar. Mappings normalize to sorted KEY=VALUE entries
// so the result is deterministic; lists keep their declared order.
type EnvVars []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (e *EnvVars) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		var m map[string]string
		if err := node.Decode(&m); err != nil {
			return err
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		entries := make([]string, 0, len(m))
		for _, k := range keys {
			entries = append(entries, k+"="+m[k])
		}
		*e = entries
		return nil
	case yaml.SequenceNode:
		var v []string
		if err := node.Decode(&v); err != nil {
			return err
		}
		*e = v
		return nil
	case yaml.ScalarNode:
		var v string
		if err := node.Decode(&v); err != nil {
			return err
		}
		*e = []string{v}
		return nil
	default:
		return fmt.Errorf("env must be a map, list, or string, got %s", node.Tag)
	}
}

// Command accepts a YAML scalar or sequence. A scalar stays a single
// token; it is never split on whitespace.
type Command []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Command) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v string
		if err := node.Decode(&v); err != nil {
			return err
		}
		*c = []string{v}
		return nil
	case yaml.SequenceNode:
		var v []string
		if err := node.Decode(&v); err != nil {
			return err
		}
		*c = v
		return nil
	default:
		return fmt.Errorf("command must be a string or list, got %s", node.Tag)
	}
}
