package meta

import (
	"fmt"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const schemaKey = "$schema"

// LoadYAML loads a source written as a mapping of tag names to element
// definitions. Schema errors carry the line of the offending field.
func (t *Table) LoadYAML(source string, data []byte) error {
	defs, lines, err := decodeYAML(source, data)
	if err != nil {
		return err
	}
	return t.load(&decoder{source: source, lines: lines}, defs)
}

func decodeYAML(source string, data []byte) ([]Definition, map[string]int, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, errors.Wrapf(err, "element metadata %q", source)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, nil, &SchemaError{
			Source:  source,
			Path:    "/",
			Line:    root.Line,
			Message: "expected a mapping of tag names to element definitions",
		}
	}

	lines := map[string]int{}
	defs := make([]Definition, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if key.Value == schemaKey {
			continue
		}
		path := "/" + key.Value
		if value.Kind != yaml.MappingNode {
			return nil, nil, &SchemaError{Source: source, Path: path, Line: value.Line, Message: "expected a mapping"}
		}
		raw, err := yamlValue(source, value, path, lines)
		if err != nil {
			return nil, nil, err
		}
		defs = append(defs, Definition{TagName: key.Value, Fields: raw.(map[string]any)})
	}
	return defs, lines, nil
}

// yamlValue converts a node into the plain values Load expects, recording
// the line of every path on the way.
func yamlValue(source string, n *yaml.Node, path string, lines map[string]int) (any, error) {
	lines[path] = n.Line
	switch n.Kind {
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			v, err := yamlValue(source, n.Content[i+1], path+"/"+key, lines)
			if err != nil {
				return nil, err
			}
			m[key] = v
		}
		return m, nil
	case yaml.SequenceNode:
		s := make([]any, 0, len(n.Content))
		for i, item := range n.Content {
			v, err := yamlValue(source, item, fmt.Sprintf("%s/%d", path, i), lines)
			if err != nil {
				return nil, err
			}
			s = append(s, v)
		}
		return s, nil
	case yaml.AliasNode:
		return yamlValue(source, n.Alias, path, lines)
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, &SchemaError{Source: source, Path: path, Line: n.Line, Message: err.Error()}
		}
		return v, nil
	}
	return nil, nil
}
