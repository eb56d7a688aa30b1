package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// FromYAML decodes the first YAML document in data into a Node. Mapping
// order is preserved; aliases are expanded.
func FromYAML(data []byte) (*Node, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var root yaml.Node
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return Null(), nil
		}
		return nil, fmt.Errorf("document: yaml: %w", err)
	}
	return fromYAMLNode(&root, 0)
}

const maxYAMLAliasDepth = 64

func fromYAMLNode(y *yaml.Node, depth int) (*Node, error) {
	if depth > maxYAMLAliasDepth {
		return nil, errors.New("document: yaml: nesting too deep")
	}
	switch y.Kind {
	case yaml.DocumentNode:
		if len(y.Content) == 0 {
			return Null(), nil
		}
		return fromYAMLNode(y.Content[0], depth+1)
	case yaml.AliasNode:
		return fromYAMLNode(y.Alias, depth+1)
	case yaml.SequenceNode:
		items := make([]*Node, 0, len(y.Content))
		for _, c := range y.Content {
			n, err := fromYAMLNode(c, depth+1)
			if err != nil {
				return nil, err
			}
			items = append(items, n)
		}
		return Array(items...), nil
	case yaml.MappingNode:
		members := make([]Member, 0, len(y.Content)/2)
		for i := 0; i+1 < len(y.Content); i += 2 {
			k, v := y.Content[i], y.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("document: yaml: line %d: non-scalar mapping key", k.Line)
			}
			n, err := fromYAMLNode(v, depth+1)
			if err != nil {
				return nil, err
			}
			members = append(members, Member{Key: k.Value, Value: n})
		}
		return Object(members...), nil
	case yaml.ScalarNode:
		return fromYAMLScalar(y)
	}
	return Null(), nil
}

func fromYAMLScalar(y *yaml.Node) (*Node, error) {
	switch y.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := y.Decode(&b); err != nil {
			return nil, fmt.Errorf("document: yaml: line %d: %w", y.Line, err)
		}
		return Bool(b), nil
	case "!!int":
		var i int64
		if err := y.Decode(&i); err != nil {
			return nil, fmt.Errorf("document: yaml: line %d: %w", y.Line, err)
		}
		return Int(i), nil
	case "!!float":
		var f float64
		if err := y.Decode(&f); err != nil {
			return nil, fmt.Errorf("document: yaml: line %d: %w", y.Line, err)
		}
		return fromFloat(f)
	default:
		return String(y.Value), nil
	}
}
