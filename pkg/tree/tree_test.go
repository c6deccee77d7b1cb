package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_Order(t *testing.T) {
	m := NewMap()
	m.Set("b", int64(1))
	m.Set("a", int64(2))
	m.Set("c", int64(3))
	m.Set("b", int64(4))
	assert.Equal(t, []string{"b", "a", "c"}, m.Keys())

	assert.True(t, m.Delete("a"))
	assert.False(t, m.Delete("a"))
	assert.Equal(t, []string{"b", "c"}, m.Keys())

	v, ok := m.Get("b")
	assert.True(t, ok)
	assert.Equal(t, int64(4), v)
}

func TestMap_NilSafe(t *testing.T) {
	var m *Map
	assert.Equal(t, 0, m.Len())
	assert.Nil(t, m.Keys())
	assert.False(t, m.Has("x"))
	assert.False(t, m.Delete("x"))
}

func TestEqual(t *testing.T) {
	for _, tt := range []struct {
		name  string
		a, b  Node
		equal bool
	}{
		{"scalars", "x", "x", true},
		{"different scalars", "x", "y", false},
		{"int and float", int64(3), 3.0, true},
		{"int and string", int64(3), "3", false},
		{"nulls", nil, nil, true},
		{"null and empty map", nil, NewMap(), false},
		{"key order ignored", MapOf("a", 1, "b", 2), MapOf("b", 2, "a", 1), true},
		{"missing key", MapOf("a", 1), MapOf("a", 1, "b", 2), false},
		{"list order significant", List{int64(1), int64(2)}, List{int64(2), int64(1)}, false},
		{"nested", MapOf("l", List{MapOf("name", "x")}), MapOf("l", List{MapOf("name", "x")}), true},
		{"empty maps", NewMap(), &Map{}, true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, Equal(tt.a, tt.b))
			assert.Equal(t, tt.equal, Equal(tt.b, tt.a))
		})
	}
}

func TestCopy_IsDeep(t *testing.T) {
	orig := MapOf("spec", MapOf("replicas", 2), "env", List{MapOf("name", "A")})
	c := Copy(orig).(*Map)
	require.True(t, Equal(orig, c))

	spec, _ := c.Get("spec")
	spec.(*Map).Set("replicas", int64(3))
	env, _ := c.Get("env")
	env.(List)[0].(*Map).Set("name", "B")

	assert.Equal(t, MapOf("spec", MapOf("replicas", 2), "env", List{MapOf("name", "A")}), orig)
}

func TestTree(t *testing.T) {
	tr := New()
	tr.Set("svc-b", MapOf("a", 1))
	tr.Set("svc-a", nil)
	assert.Equal(t, []string{"svc-b", "svc-a"}, tr.Keys())
	assert.True(t, tr.Has("svc-a"))

	c := tr.Copy()
	c.Delete("svc-b")
	assert.Equal(t, 2, tr.Len())
	assert.Equal(t, 1, c.Len())
	assert.False(t, tr.Equal(c))

	b, err := tr.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"svc-b":{"a":1},"svc-a":null}`, string(b))
}

func TestIdentity(t *testing.T) {
	id, ok := Identity(MapOf("name", "X", "value", "1"), "name")
	assert.True(t, ok)
	assert.Equal(t, "X", id)

	_, ok = Identity(MapOf("name", MapOf()), "name")
	assert.False(t, ok)
	_, ok = Identity("X", "name")
	assert.False(t, ok)

	assert.Equal(t, IdentityString(int64(1)), IdentityString(1.0))
	assert.NotEqual(t, IdentityString("1"), IdentityString(int64(1)))

	assert.True(t, IsIdentityList(List{MapOf("name", "a"), MapOf("name", "b")}, "name"))
	assert.False(t, IsIdentityList(List{MapOf("name", "a"), MapOf("value", "b")}, "name"))
	assert.False(t, IsIdentityList(List{}, "name"))
	assert.False(t, IsIdentityList(List{"a"}, "name"))

	idx := IndexByIdentity(List{MapOf("name", "a"), MapOf("name", "b"), MapOf("name", "a")}, "name")
	assert.Equal(t, map[string]int{`"a"`: 0, `"b"`: 1}, idx)
}

func TestJSON_RoundTrip(t *testing.T) {
	src := `{"z":1,"a":[true,null,"x<y"],"m":{"f":1.5,"g":2.0,"big":12345678901234}}`
	n, err := DecodeJSON([]byte(src))
	require.NoError(t, err)

	m := n.(*Map)
	assert.Equal(t, []string{"z", "a", "m"}, m.Keys())
	z, _ := m.Get("z")
	assert.Equal(t, int64(1), z)
	inner, _ := m.Get("m")
	g, _ := inner.(*Map).Get("g")
	assert.Equal(t, 2.0, g)
	big, _ := inner.(*Map).Get("big")
	assert.Equal(t, int64(12345678901234), big)

	out, err := EncodeJSON(n, "")
	require.NoError(t, err)
	assert.Equal(t, src, string(out))
}

func TestJSON_Indent(t *testing.T) {
	out, err := EncodeJSON(MapOf("a", 1, "b", List{}), "    ")
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"a\": 1,\n    \"b\": []\n}", string(out))
}

func TestJSON_Errors(t *testing.T) {
	for _, src := range []string{"", "{", `{"a":1} 2`, `[1,]`, "nope"} {
		_, err := DecodeJSON([]byte(src))
		assert.Error(t, err, src)
	}
}

func TestYAML_RoundTrip(t *testing.T) {
	src := `image:
  repository: nginx
  tag: "1.17"
replicas: 2
ratio: 0.5
enabled: true
env:
  - name: B
    value: "2"
  - name: A
    value: null
`
	n, err := DecodeYAML([]byte(src))
	require.NoError(t, err)

	m := n.(*Map)
	assert.Equal(t, []string{"image", "replicas", "ratio", "enabled", "env"}, m.Keys())
	replicas, _ := m.Get("replicas")
	assert.Equal(t, int64(2), replicas)
	env, _ := m.Get("env")
	require.IsType(t, List{}, env)
	first := env.(List)[0].(*Map)
	assert.Equal(t, []string{"name", "value"}, first.Keys())

	out, err := EncodeYAML(n)
	require.NoError(t, err)
	assert.Equal(t, src, string(out))
}

func TestYAML_KeepsScalarKinds(t *testing.T) {
	in := MapOf(
		"ratio", 1.0,
		"big", 1e21,
		"count", int64(1),
		"version", "1.0",
		"flag", "yes",
		"empty", "",
		"colon", "a: b",
		"lines", "one\ntwo\n",
		"keys", MapOf("true", "x", "1", "y"),
	)
	out, err := EncodeYAML(in)
	require.NoError(t, err)
	assert.Contains(t, string(out), "ratio: 1.0\n")

	back, err := DecodeYAML(out)
	require.NoError(t, err)
	m := back.(*Map)
	assert.Equal(t, in.Keys(), m.Keys())
	for _, k := range in.Keys() {
		want, _ := in.Get(k)
		got, _ := m.Get(k)
		assert.Equal(t, KindOf(want), KindOf(got), k)
		assert.True(t, Equal(want, got), k)
	}
}

func TestYAML_TopLevelKinds(t *testing.T) {
	n, err := DecodeYAML([]byte("- b: 1\n  a: 2\n- x\n"))
	require.NoError(t, err)
	require.IsType(t, List{}, n)
	assert.Equal(t, []string{"b", "a"}, n.(List)[0].(*Map).Keys())
	assert.Equal(t, "x", n.(List)[1])

	n, err = DecodeYAML([]byte(""))
	require.NoError(t, err)
	assert.Nil(t, n)

	n, err = DecodeYAML([]byte("1: one\ntrue: yes\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "true"}, n.(*Map).Keys())

	_, err = DecodeYAML([]byte("a: [1, 2"))
	assert.Error(t, err)
}
