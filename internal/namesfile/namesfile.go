// Package namesfile reads *.names.yaml files and renders greetings as
// canonical YAML.
package namesfile

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Suffix identifies names files during discovery.
const Suffix = ".names.yaml"

// Entry is one item of a names list. Supplied is false for a null item.
type Entry struct {
	Name     string
	Supplied bool
}

// Parse decodes a names file of the form:
//
//	names:
//	  - Ada
//	  - ~
func Parse(data []byte) ([]Entry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %v", err)
	}
	if len(doc.Content) == 0 {
		return nil, errors.New("missing required field: names")
	}
	top := doc.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, errors.New("top-level YAML must be a mapping")
	}
	var list *yaml.Node
	for i := 0; i+1 < len(top.Content); i += 2 {
		if top.Content[i].Value == "names" {
			list = top.Content[i+1]
			break
		}
	}
	if list == nil {
		return nil, errors.New("missing required field: names")
	}
	if list.Kind != yaml.SequenceNode {
		return nil, errors.New("invalid type for field: names (expected list)")
	}
	out := make([]Entry, 0, len(list.Content))
	for i, n := range list.Content {
		e, err := entryFrom(n)
		if err != nil {
			return nil, fmt.Errorf("names[%d]: %v", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func entryFrom(n *yaml.Node) (Entry, error) {
	if n.Kind != yaml.ScalarNode {
		return Entry{}, errors.New("expected string")
	}
	switch n.ShortTag() {
	case "!!null":
		return Entry{}, nil
	case "!!str":
		return Entry{Name: n.Value, Supplied: true}, nil
	default:
		return Entry{}, errors.New("expected string")
	}
}

// Greeting is one rendered item of the YAML output.
type Greeting struct {
	Locator  string
	Name     string
	Greeting string
	Mapped   any
}

// MarshalGreetings returns canonical YAML for greetings. Map keys inside mapped
// values are sorted so output is rewrite-stable.
func MarshalGreetings(items []Greeting) ([]byte, error) {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, it := range items {
		m := &yaml.Node{Kind: yaml.MappingNode}
		m.Content = append(m.Content, scalarNode("locator"), strNode(it.Locator))
		m.Content = append(m.Content, scalarNode("name"), strNode(it.Name))
		m.Content = append(m.Content, scalarNode("greeting"), strNode(it.Greeting))
		if it.Mapped != nil {
			m.Content = append(m.Content, scalarNode("mapped"), canonicalNode(it.Mapped))
		}
		seq.Content = append(seq.Content, m)
	}
	top := &yaml.Node{Kind: yaml.MappingNode}
	top.Content = append(top.Content, scalarNode("greetings"), seq)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(top); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	out := bytes.TrimRight(buf.Bytes(), "\n")
	out = append(out, '\n')
	return out, nil
}

func scalarNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

// strNode quotes values that would otherwise read back as another type.
func strNode(v string) *yaml.Node {
	n := &yaml.Node{}
	_ = n.Encode(v)
	return n
}

func scalarFrom(v any) *yaml.Node {
	n := &yaml.Node{}
	_ = n.Encode(v)
	return n
}

func canonicalNode(v any) *yaml.Node {
	switch x := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case map[string]any:
		return canonicalMapNode(x)
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode}
		for _, it := range x {
			n.Content = append(n.Content, canonicalNode(it))
		}
		return n
	default:
		return scalarFrom(x)
	}
}

func canonicalMapNode(m map[string]any) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		n.Content = append(n.Content, scalarNode(k), canonicalNode(m[k]))
	}
	return n
}
