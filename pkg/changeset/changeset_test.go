package changeset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxcd/promote/pkg/errors"
	"github.com/fluxcd/promote/pkg/tree"
)

func TestPath_Render(t *testing.T) {
	for _, tt := range []struct {
		path Path
		sep  string
		want string
	}{
		{nil, "//", ""},
		{Path{Key("replicas")}, "//", "replicas"},
		{Path{Key("image"), Key("tag")}, "//", "image//tag"},
		{Path{Key("containers"), Index(0), Key("image")}, "//", "containers[0]//image"},
		{Path{Key("m"), Index(1), Index(2)}, "/", "m[1][2]"},
		{Path{Index(3)}, "//", "[3]"},
	} {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.path.Render(tt.sep))
			assert.Equal(t, tt.path, ParsePath(tt.want, tt.sep))
		})
	}
}

func TestParsePath_Odd(t *testing.T) {
	assert.Equal(t, Path{Key("a[x]")}, ParsePath("a[x]", "//"))
	assert.Equal(t, Path{Key("a[-1]")}, ParsePath("a[-1]", "//"))
	assert.Equal(t, Path{Key("a"), Key("b")}, ParsePath(" a//b ", ""))
	assert.Equal(t, Path{Key("a/b")}, ParsePath("a/b", "//"))
}

func TestPath_RenderExact(t *testing.T) {
	s, err := Path{Key("containers"), Index(0), Key("image")}.RenderExact("//")
	require.NoError(t, err)
	assert.Equal(t, "containers[0]//image", s)

	for _, p := range []Path{
		{Key("urls"), Key("http://example.com")},
		{Key("ports[1]")},
		{Key(" padded ")},
	} {
		_, err := p.RenderExact("//")
		assert.True(t, errors.IsValidation(err), "%v", p)
	}
	_, err = Path{Key("http://example.com")}.RenderExact("|")
	assert.NoError(t, err)
}

func TestPath_AppendCopies(t *testing.T) {
	base := make(Path, 1, 4)
	base[0] = Key("a")
	p1 := base.Append(Key("b"))
	p2 := base.Append(Key("c"))
	assert.Equal(t, "a//b", p1.String())
	assert.Equal(t, "a//c", p2.String())
}

func TestValue_Codec(t *testing.T) {
	s, err := EncodeValue(tree.MapOf("a", 1, "b", "x"))
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"a\": 1,\n    \"b\": \"x\"\n}", s)

	assert.Equal(t, tree.MapOf("a", 1, "b", "x"), DecodeValue(s))
	assert.Equal(t, int64(3), DecodeValue("3"))
	assert.Equal(t, true, DecodeValue(" true "))
	assert.Nil(t, DecodeValue("null"))
	assert.Equal(t, "nginx:1.17", DecodeValue("nginx:1.17"))
	assert.Equal(t, "1.17", DecodeValue(`"1.17"`))
}

func TestParseAction(t *testing.T) {
	a, ok := ParseAction(" Modify ")
	assert.True(t, ok)
	assert.Equal(t, Modify, a)
	_, ok = ParseAction("update")
	assert.False(t, ok)
}

func TestRecord_Validate(t *testing.T) {
	for _, tt := range []struct {
		name  string
		rec   Record
		valid bool
	}{
		{"modify", Record{Entity: "svc", Action: Modify, Path: Path{Key("replicas")}}.WithValue(int64(3)), true},
		{"modify without value", Record{Entity: "svc", Action: Modify, Path: Path{Key("replicas")}}, false},
		{"modify to null", Record{Entity: "svc", Action: Modify, Path: Path{Key("replicas")}}.WithValue(nil), true},
		{"add without key", Record{Entity: "svc", Action: Add}.WithValue(int64(1)), false},
		{"add item without key", Record{Entity: "env", Action: Add}.WithValue(tree.MapOf("name", "X")), true},
		{"modify item without key", Record{Entity: "env", Action: Modify}.WithValue(tree.MapOf("name", "X")), true},
		{"delete item without key", Record{Entity: "env", Action: Delete}.WithPrior(tree.MapOf("name", "X")), true},
		{"delete without value", Record{Entity: "svc", Action: Delete, Path: Path{Key("a")}}, true},
		{"delete without key", Record{Entity: "svc", Action: Delete}, false},
		{"root add", Record{Entity: "svc", Action: RootAdd}.WithValue(tree.MapOf("a", 1)), true},
		{"root add without value", Record{Entity: "svc", Action: RootAdd}, false},
		{"root delete", Record{Entity: "svc", Action: RootDelete}, true},
		{"root delete with key", Record{Entity: "svc", Action: RootDelete, Path: Path{Key("a")}}, false},
		{"no entity", Record{Action: RootDelete}, false},
		{"unknown action", Record{Entity: "svc", Action: "rename"}, false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.IsValidation(err), "%v", err)
			}
		})
	}
}

func TestSet(t *testing.T) {
	var s Set
	s.Add(Record{Entity: "b", Action: Add})
	s.Add(Record{Entity: "a", Action: Modify})
	s.Add(Record{Entity: "b", Action: Modify})
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"b", "a"}, s.Entities())
	assert.Equal(t, 2, s.Count(Modify))
	assert.Equal(t, 0, s.Count(Delete))

	only := s.Only(func(r Record) bool { return r.Entity == "b" })
	assert.Equal(t, 2, only.Len())
}

func TestRecord_String(t *testing.T) {
	r := Record{Entity: "svc", Action: Modify, Path: Path{Key("env"), Index(1)}, Row: 4}
	assert.Equal(t, "row 4: svc modify env[1]", r.String())
}
