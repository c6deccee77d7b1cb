package tree

// Identity returns the identity field key of n, if n is a Map that
// has a scalar value under that key.
func Identity(n Node, key string) (Node, bool) {
	m, ok := n.(*Map)
	if !ok {
		return nil, false
	}
	v, ok := m.Get(key)
	if !ok || !IsScalar(v) {
		return nil, false
	}
	return v, true
}

// IdentityString renders an identity value canonically, so that
// identities can be used as lookup keys. Numerically equal int and
// float identities render the same.
func IdentityString(id Node) string {
	if f, ok := id.(float64); ok && f == float64(int64(f)) {
		id = int64(f)
	}
	b, err := EncodeJSON(id, "")
	if err != nil {
		return ""
	}
	return string(b)
}

// IsIdentityList is true when l is non-empty and every element is a
// Map carrying a scalar value under key.
func IsIdentityList(l List, key string) bool {
	if len(l) == 0 || key == "" {
		return false
	}
	for _, item := range l {
		if _, ok := Identity(item, key); !ok {
			return false
		}
	}
	return true
}

// IndexByIdentity maps canonical identities to the position of the
// first element carrying them.
func IndexByIdentity(l List, key string) map[string]int {
	idx := make(map[string]int, len(l))
	for i, item := range l {
		id, ok := Identity(item, key)
		if !ok {
			continue
		}
		s := IdentityString(id)
		if _, seen := idx[s]; !seen {
			idx[s] = i
		}
	}
	return idx
}
