package tree

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// DecodeYAML parses the first YAML document in data. Mapping key
// order is kept; keys that aren't strings are converted with
// fmt.Sprint. An empty document decodes to nil.
func DecodeYAML(data []byte) (Node, error) {
	var doc yamlNode
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.node, nil
}

// EncodeYAML renders n as a YAML document, keeping map key order and
// the kind of every scalar.
func EncodeYAML(n Node) ([]byte, error) {
	node, err := toYAML(n)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yamlv3.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type yamlNode struct {
	node Node
}

// UnmarshalYAML inspects the kind of the value first; yaml.v2 only
// keeps mapping order when asked to decode into a MapSlice, and then
// does so for every mapping nested inside it.
func (y *yamlNode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	switch raw.(type) {
	case map[interface{}]interface{}:
		var ms yaml.MapSlice
		if err := unmarshal(&ms); err != nil {
			return err
		}
		y.node = fromYAML(ms)
	case []interface{}:
		var items []yamlNode
		if err := unmarshal(&items); err != nil {
			return err
		}
		l := make(List, len(items))
		for i := range items {
			l[i] = items[i].node
		}
		y.node = l
	default:
		y.node = fromYAML(raw)
	}
	return nil
}

func fromYAML(v interface{}) Node {
	switch v := v.(type) {
	case yaml.MapSlice:
		m := NewMap()
		for _, item := range v {
			m.Set(yamlKey(item.Key), fromYAML(item.Value))
		}
		return m
	case map[interface{}]interface{}:
		// Only reached for values decoded outside a MapSlice; the
		// original order is gone, so keep whatever the map yields.
		m := NewMap()
		for k, val := range v {
			m.Set(yamlKey(k), fromYAML(val))
		}
		return m
	case []interface{}:
		l := make(List, len(v))
		for i := range v {
			l[i] = fromYAML(v[i])
		}
		return l
	}
	return Normalize(v)
}

func yamlKey(k interface{}) string {
	if s, ok := k.(string); ok {
		return s
	}
	return fmt.Sprint(k)
}

func toYAML(n Node) (*yamlv3.Node, error) {
	switch n := n.(type) {
	case *Map:
		node := &yamlv3.Node{Kind: yamlv3.MappingNode, Tag: "!!map"}
		for _, k := range n.Keys() {
			v, _ := n.Get(k)
			yv, err := toYAML(v)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, yamlString(k), yv)
		}
		return node, nil
	case List:
		node := &yamlv3.Node{Kind: yamlv3.SequenceNode, Tag: "!!seq"}
		for i := range n {
			yv, err := toYAML(n[i])
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, yv)
		}
		return node, nil
	case string:
		return yamlString(n), nil
	case int64:
		return yamlScalar("!!int", strconv.FormatInt(n, 10)), nil
	case float64:
		return yamlScalar("!!float", yamlFloat(n)), nil
	case bool:
		return yamlScalar("!!bool", strconv.FormatBool(n)), nil
	case nil:
		return yamlScalar("!!null", "null"), nil
	}
	return nil, fmt.Errorf("cannot encode %T as YAML", n)
}

func yamlScalar(tag, value string) *yamlv3.Node {
	return &yamlv3.Node{Kind: yamlv3.ScalarNode, Tag: tag, Value: value}
}

// yamlString quotes s wherever DecodeYAML would read it back as
// something other than the same string.
func yamlString(s string) *yamlv3.Node {
	node := yamlScalar("!!str", s)
	if !strings.Contains(s, "\n") && !plainString(s) {
		node.Style = yamlv3.DoubleQuotedStyle
	}
	return node
}

func plainString(s string) bool {
	var v interface{}
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return false
	}
	got, ok := v.(string)
	return ok && got == s
}

// yamlFloat always has a decimal point or exponent, so that floats
// with integral values don't come back as ints.
func yamlFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case math.IsNaN(f):
		return ".nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
