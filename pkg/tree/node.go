package tree

import (
	"fmt"
	"math"
)

// Node is a single value in a configuration tree. It is always one
// of:
//  - *Map, an ordered mapping of string keys to Nodes
//  - List, an ordered sequence of Nodes
//  - a scalar: string, int64, float64, bool or nil
//
// Decoders in this package normalise integers to int64 and floating
// point numbers to float64; Normalize does the same for values built
// by hand.
type Node interface{}

// List is an ordered sequence of Nodes.
type List []Node

// Map is a mapping from string keys to Nodes that remembers the
// order in which keys were first inserted.
type Map struct {
	keys   []string
	values map[string]Node
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{values: map[string]Node{}}
}

// MapOf builds a Map from alternating keys and values, in order. It
// panics if given an odd number of arguments or a non-string key;
// it's meant for tests and literals.
func MapOf(kvs ...interface{}) *Map {
	if len(kvs)%2 != 0 {
		panic("tree.MapOf: odd number of arguments")
	}
	m := NewMap()
	for i := 0; i < len(kvs); i += 2 {
		k, ok := kvs[i].(string)
		if !ok {
			panic(fmt.Sprintf("tree.MapOf: key %v is not a string", kvs[i]))
		}
		m.Set(k, Normalize(kvs[i+1]))
	}
	return m
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order. The slice is a copy.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

func (m *Map) Get(key string) (Node, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set assigns the value for key. A new key goes to the end; an
// existing key keeps its position.
func (m *Map) Set(key string, value Node) {
	if m.values == nil {
		m.values = map[string]Node{}
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Delete removes key, reporting whether it was present.
func (m *Map) Delete(key string) bool {
	if m == nil {
		return false
	}
	if _, ok := m.values[key]; !ok {
		return false
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
	return true
}

// Kind names the kind of a node, for messages.
type Kind string

const (
	KindMap    Kind = "map"
	KindList   Kind = "list"
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindBool   Kind = "bool"
	KindNull   Kind = "null"
)

// KindOf reports the kind of n. It panics on a value that is not a
// valid Node.
func KindOf(n Node) Kind {
	switch n.(type) {
	case *Map:
		return KindMap
	case List:
		return KindList
	case string:
		return KindString
	case int64:
		return KindInt
	case float64:
		return KindFloat
	case bool:
		return KindBool
	case nil:
		return KindNull
	}
	panic(fmt.Sprintf("tree: %T is not a valid node", n))
}

// IsScalar is true for anything other than a Map or List.
func IsScalar(n Node) bool {
	switch n.(type) {
	case *Map, List:
		return false
	}
	return true
}

// Normalize converts Go values that commonly come out of decoders or
// literals into valid Nodes: integer types become int64, float32
// becomes float64, []interface{} becomes List. Maps are left alone
// since their key order is already lost.
func Normalize(v interface{}) Node {
	switch v := v.(type) {
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		if v > math.MaxInt64 {
			return float64(v)
		}
		return int64(v)
	case float32:
		return float64(v)
	case []interface{}:
		l := make(List, len(v))
		for i := range v {
			l[i] = Normalize(v[i])
		}
		return l
	}
	return v
}

// Copy returns a deep copy of n.
func Copy(n Node) Node {
	switch n := n.(type) {
	case *Map:
		if n == nil {
			return (*Map)(nil)
		}
		m := &Map{
			keys:   make([]string, len(n.keys)),
			values: make(map[string]Node, len(n.values)),
		}
		copy(m.keys, n.keys)
		for k, v := range n.values {
			m.values[k] = Copy(v)
		}
		return m
	case List:
		if n == nil {
			return List(nil)
		}
		l := make(List, len(n))
		for i := range n {
			l[i] = Copy(n[i])
		}
		return l
	}
	return n
}

// Equal compares two nodes structurally. Map key order is not
// significant; list order is. Integers and floats are compared by
// numeric value.
func Equal(a, b Node) bool {
	switch a := a.(type) {
	case *Map:
		b, ok := b.(*Map)
		if !ok || a.Len() != b.Len() {
			return false
		}
		if a.Len() == 0 {
			return true
		}
		for _, k := range a.keys {
			bv, ok := b.Get(k)
			if !ok || !Equal(a.values[k], bv) {
				return false
			}
		}
		return true
	case List:
		b, ok := b.(List)
		if !ok || len(a) != len(b) {
			return false
		}
		for i := range a {
			if !Equal(a[i], b[i]) {
				return false
			}
		}
		return true
	case int64:
		switch b := b.(type) {
		case int64:
			return a == b
		case float64:
			return float64(a) == b
		}
		return false
	case float64:
		switch b := b.(type) {
		case int64:
			return a == float64(b)
		case float64:
			return a == b
		}
		return false
	case string:
		b, ok := b.(string)
		return ok && a == b
	case bool:
		b, ok := b.(bool)
		return ok && a == b
	case nil:
		return b == nil
	}
	return false
}
