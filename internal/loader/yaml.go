package loader

import (
	"errors"
	"fmt"
	"io"

	"github.com/dgallion1/autopages/internal/record"
	"gopkg.in/yaml.v3"
)

// YAMLLoader handles .yaml/.yml files with the same shape as JSON input.
type YAMLLoader struct{}

func (l *YAMLLoader) Load(r io.Reader, filename string) ([]*record.Fields, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	node := resolveAlias(&root)
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = resolveAlias(node.Content[0])
	}

	switch node.Kind {
	case yaml.SequenceNode:
		rows := make([]*record.Fields, 0, len(node.Content))
		for i, item := range node.Content {
			item = resolveAlias(item)
			if item.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("parse yaml: element %d (line %d) is not a mapping", i, item.Line)
			}
			rows = append(rows, yamlFields(item))
		}
		return rows, nil
	case yaml.MappingNode:
		return []*record.Fields{yamlFields(node)}, nil
	default:
		return nil, fmt.Errorf("parse yaml: line %d: top level must be a sequence or a mapping", node.Line)
	}
}

func yamlFields(n *yaml.Node) *record.Fields {
	f := record.NewFields()
	for i := 0; i+1 < len(n.Content); i += 2 {
		f.Set(n.Content[i].Value, yamlValue(n.Content[i+1]))
	}
	return f
}

func yamlValue(n *yaml.Node) any {
	n = resolveAlias(n)
	switch n.Kind {
	case yaml.MappingNode:
		return yamlFields(n)
	case yaml.SequenceNode:
		list := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			list = append(list, yamlValue(c))
		}
		return list
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil
		}
		return n.Value
	}
	return nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}
