package tree

// Tree is a configuration tree: root entities, by name, in the order
// they were added. Each entity usually corresponds to one source
// document.
type Tree struct {
	roots Map
}

// New returns an empty Tree.
func New() *Tree {
	return &Tree{}
}

// FromMap builds a Tree whose entities are the entries of m. The
// entries are not copied.
func FromMap(m *Map) *Tree {
	t := New()
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		t.Set(k, v)
	}
	return t
}

func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return t.roots.Len()
}

// Keys returns the entity names in order.
func (t *Tree) Keys() []string {
	if t == nil {
		return nil
	}
	return t.roots.Keys()
}

func (t *Tree) Get(entity string) (Node, bool) {
	if t == nil {
		return nil, false
	}
	return t.roots.Get(entity)
}

func (t *Tree) Has(entity string) bool {
	_, ok := t.Get(entity)
	return ok
}

// Set inserts or overwrites an entity.
func (t *Tree) Set(entity string, n Node) {
	t.roots.Set(entity, n)
}

// Delete removes an entity, reporting whether it was there.
func (t *Tree) Delete(entity string) bool {
	if t == nil {
		return false
	}
	return t.roots.Delete(entity)
}

// Copy returns a deep copy of the whole tree.
func (t *Tree) Copy() *Tree {
	c := New()
	for _, k := range t.Keys() {
		v, _ := t.Get(k)
		c.Set(k, Copy(v))
	}
	return c
}

// Map returns the tree as a single Map node, entity names as keys.
// The returned map shares structure with the tree.
func (t *Tree) Map() *Map {
	m := NewMap()
	for _, k := range t.Keys() {
		v, _ := t.Get(k)
		m.Set(k, v)
	}
	return m
}

// Equal compares two trees entity by entity. Entity order is not
// significant.
func (t *Tree) Equal(other *Tree) bool {
	return Equal(t.Map(), other.Map())
}

func (t *Tree) MarshalJSON() ([]byte, error) {
	return EncodeJSON(t.Map(), "")
}
