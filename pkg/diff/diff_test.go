package diff

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxcd/promote/pkg/changeset"
	"github.com/fluxcd/promote/pkg/pattern"
	"github.com/fluxcd/promote/pkg/tree"
)

func treeOf(kvs ...interface{}) *tree.Tree {
	return tree.FromMap(tree.MapOf(kvs...))
}

func key(ks ...string) changeset.Path {
	var p changeset.Path
	for _, k := range ks {
		p = append(p, changeset.Key(k))
	}
	return p
}

func TestDiff_SameTreeIsEmpty(t *testing.T) {
	for _, tr := range []*tree.Tree{
		tree.New(),
		treeOf("svc", tree.MapOf("replicas", 2)),
		treeOf(
			"a", tree.MapOf("env", tree.List{tree.MapOf("name", "X", "value", "1")}, "ports", tree.List{int64(80), int64(443)}),
			"b", "scalar",
			"c", nil,
		),
	} {
		assert.True(t, Diff(tr, tr).Empty())
		assert.True(t, Diff(tr, tr.Copy()).Empty())
	}
}

func TestDiff_ModifiedScalar(t *testing.T) {
	set := Diff(treeOf("svc", tree.MapOf("replicas", 2)), treeOf("svc", tree.MapOf("replicas", 3)))
	require.Equal(t, 1, set.Len())
	assert.Equal(t, changeset.Record{
		Entity:   "svc",
		Action:   changeset.Modify,
		Path:     key("replicas"),
		Value:    int64(3),
		HasValue: true,
		Prior:    int64(2),
		HasPrior: true,
		Comment:  "Modified",
	}, set.Records[0])
}

func TestDiff_RootAdded(t *testing.T) {
	set := Diff(tree.New(), treeOf("svc", tree.MapOf("a", 1)))
	require.Equal(t, 1, set.Len())
	r := set.Records[0]
	assert.Equal(t, "svc", r.Entity)
	assert.Equal(t, changeset.RootAdd, r.Action)
	assert.Empty(t, r.Path)
	assert.Equal(t, tree.MapOf("a", 1), r.Value)
	assert.Equal(t, "Root object added", r.Comment)
}

func TestDiff_RootDeleted(t *testing.T) {
	set := Diff(treeOf("gone", tree.MapOf("a", 1), "kept", int64(1)), treeOf("kept", int64(1)))
	require.Equal(t, 1, set.Len())
	r := set.Records[0]
	assert.Equal(t, changeset.RootDelete, r.Action)
	assert.False(t, r.HasValue)
	assert.Equal(t, tree.MapOf("a", 1), r.Prior)
}

func TestDiff_TopLevelIdentityList(t *testing.T) {
	old := treeOf("env", tree.List{
		tree.MapOf("name", "X", "value", "1"),
		tree.MapOf("name", "Z", "value", "9"),
	})
	new := treeOf("env", tree.List{
		tree.MapOf("name", "X", "value", "2"),
		tree.MapOf("name", "Y", "value", "3"),
	})
	set := Diff(old, new)
	require.Equal(t, 3, set.Len())
	for i, want := range []changeset.Action{changeset.Modify, changeset.Delete, changeset.Add} {
		r := set.Records[i]
		assert.Equal(t, want, r.Action)
		assert.Empty(t, r.Path)
		assert.NoError(t, r.Validate())
	}
	assert.Equal(t, tree.MapOf("name", "Z", "value", "9"), set.Records[1].Prior)
	assert.Equal(t, tree.MapOf("name", "Y", "value", "3"), set.Records[2].Value)
}

func TestDiff_IdentityList(t *testing.T) {
	old := treeOf("svc", tree.MapOf("env", tree.List{
		tree.MapOf("name", "X", "value", "1"),
	}))
	new := treeOf("svc", tree.MapOf("env", tree.List{
		tree.MapOf("name", "X", "value", "2"),
		tree.MapOf("name", "Y", "value", "3"),
	}))
	set := Diff(old, new)
	require.Equal(t, 2, set.Len())

	assert.Equal(t, changeset.Modify, set.Records[0].Action)
	assert.Equal(t, key("env"), set.Records[0].Path)
	assert.Equal(t, tree.MapOf("name", "X", "value", "2"), set.Records[0].Value)
	assert.Equal(t, tree.MapOf("name", "X", "value", "1"), set.Records[0].Prior)

	assert.Equal(t, changeset.Add, set.Records[1].Action)
	assert.Equal(t, key("env"), set.Records[1].Path)
	assert.Equal(t, tree.MapOf("name", "Y", "value", "3"), set.Records[1].Value)
}

func TestDiff_IdentityListReorderIsNoChange(t *testing.T) {
	old := treeOf("svc", tree.MapOf("env", tree.List{
		tree.MapOf("name", "A", "value", "1"),
		tree.MapOf("name", "B", "value", "2"),
		tree.MapOf("name", "C", "value", "3"),
	}))
	new := treeOf("svc", tree.MapOf("env", tree.List{
		tree.MapOf("value", "3", "name", "C"),
		tree.MapOf("name", "A", "value", "1"),
		tree.MapOf("name", "B", "value", "2"),
	}))
	assert.True(t, Diff(old, new).Empty())
}

func TestDiff_IdentityListDelete(t *testing.T) {
	old := treeOf("svc", tree.MapOf("env", tree.List{
		tree.MapOf("name", "A"),
		tree.MapOf("name", "B"),
	}))
	new := treeOf("svc", tree.MapOf("env", tree.List{tree.MapOf("name", "B")}))
	set := Diff(old, new)
	require.Equal(t, 1, set.Len())
	assert.Equal(t, changeset.Delete, set.Records[0].Action)
	assert.Equal(t, tree.MapOf("name", "A"), set.Records[0].Prior)
}

func TestDiff_IdentityListFromEmpty(t *testing.T) {
	set := Diff(
		treeOf("svc", tree.MapOf("env", tree.List{})),
		treeOf("svc", tree.MapOf("env", tree.List{tree.MapOf("name", "A")})),
	)
	require.Equal(t, 1, set.Len())
	assert.Equal(t, changeset.Add, set.Records[0].Action)
	assert.Equal(t, key("env"), set.Records[0].Path)
}

func TestDiff_DuplicateIdentityFirstWins(t *testing.T) {
	old := treeOf("svc", tree.MapOf("env", tree.List{
		tree.MapOf("name", "A", "value", "1"),
		tree.MapOf("name", "A", "value", "other"),
	}))
	new := treeOf("svc", tree.MapOf("env", tree.List{
		tree.MapOf("name", "A", "value", "1"),
	}))
	assert.True(t, Diff(old, new).Empty())
}

func TestDiff_PositionalList(t *testing.T) {
	set := Diff(
		treeOf("svc", tree.MapOf("ports", tree.List{int64(80), int64(443), int64(8080)})),
		treeOf("svc", tree.MapOf("ports", tree.List{int64(80), int64(8443)})),
	)
	require.Equal(t, 2, set.Len())
	assert.Equal(t, changeset.Modify, set.Records[0].Action)
	assert.Equal(t, "ports[1]", set.Records[0].Path.String())
	assert.Equal(t, int64(8443), set.Records[0].Value)
	assert.Equal(t, changeset.Delete, set.Records[1].Action)
	assert.Equal(t, "ports[2]", set.Records[1].Path.String())

	set = Diff(
		treeOf("svc", tree.MapOf("args", tree.List{"a"})),
		treeOf("svc", tree.MapOf("args", tree.List{"a", "b"})),
	)
	require.Equal(t, 1, set.Len())
	assert.Equal(t, changeset.Add, set.Records[0].Action)
	assert.Equal(t, "args[1]", set.Records[0].Path.String())
	assert.Equal(t, "b", set.Records[0].Value)
}

func TestDiff_KindChangeIsOpaqueModify(t *testing.T) {
	set := Diff(
		treeOf("svc", tree.MapOf("resources", tree.MapOf("cpu", "1", "memory", "1Gi"))),
		treeOf("svc", tree.MapOf("resources", "default")),
	)
	require.Equal(t, 1, set.Len())
	assert.Equal(t, changeset.Modify, set.Records[0].Action)
	assert.Equal(t, key("resources"), set.Records[0].Path)
	assert.Equal(t, "default", set.Records[0].Value)
}

func TestDiff_EntityChangesKind(t *testing.T) {
	set := Diff(treeOf("svc", "x"), treeOf("svc", tree.MapOf("a", 1)))
	require.Equal(t, 1, set.Len())
	assert.Equal(t, changeset.RootAdd, set.Records[0].Action)
	assert.Equal(t, "x", set.Records[0].Prior)
	assert.NoError(t, set.Records[0].Validate())
}

func TestDiff_Ordering(t *testing.T) {
	old := treeOf(
		"b", tree.MapOf("keep", 1, "drop", 2, "change", 3),
		"gone", int64(1),
		"a", tree.MapOf(),
	)
	new := treeOf(
		"new", tree.MapOf(),
		"a", tree.MapOf("x", 1),
		"b", tree.MapOf("added", 4, "change", 5, "keep", 1),
	)
	set := Diff(old, new)
	var got []string
	for _, r := range set.Records {
		got = append(got, r.Entity+" "+string(r.Action)+" "+r.Path.String())
	}
	assert.Equal(t, []string{
		"new root-add ",
		"a add x",
		"b delete drop",
		"b modify change",
		"b add added",
		"gone root-delete ",
	}, got)
}

func TestDiff_Filter(t *testing.T) {
	m, err := pattern.NewMatcher([]string{"payment-*"}, nil)
	require.NoError(t, err)
	set := New(WithFilter(m)).Diff(
		treeOf("payment-api", int64(1), "auth", int64(1)),
		treeOf("payment-api", int64(2), "auth", int64(2), "billing", int64(1)),
	)
	assert.Equal(t, []string{"payment-api"}, set.Entities())
}

func TestDiff_IdentityKey(t *testing.T) {
	old := treeOf("svc", tree.MapOf("hosts", tree.List{tree.MapOf("host", "a", "port", 1), tree.MapOf("host", "b", "port", 2)}))
	new := treeOf("svc", tree.MapOf("hosts", tree.List{tree.MapOf("host", "b", "port", 2), tree.MapOf("host", "a", "port", 1)}))
	assert.True(t, New(WithIdentityKey("host")).Diff(old, new).Empty())
	assert.Equal(t, 2, Diff(old, new).Len())
}

func TestDiff_RecordsAreCopies(t *testing.T) {
	new := treeOf("svc", tree.MapOf("a", tree.MapOf("b", 1)))
	set := Diff(tree.New(), new)
	v, _ := new.Get("svc")
	v.(*tree.Map).Set("a", "changed")
	assert.Equal(t, tree.MapOf("a", tree.MapOf("b", 1)), set.Records[0].Value)
}

func TestMergePatches(t *testing.T) {
	old := treeOf(
		"b", tree.MapOf("image", tree.MapOf("tag", "1.0", "repo", "x"), "replicas", 1),
		"a", tree.MapOf("same", true),
		"gone", tree.MapOf(),
	)
	new := treeOf(
		"a", tree.MapOf("same", true),
		"b", tree.MapOf("image", tree.MapOf("tag", "1.1", "repo", "x")),
		"added", tree.MapOf(),
	)
	patches, err := MergePatches(old, new)
	require.NoError(t, err)
	require.Len(t, patches, 1)
	assert.Equal(t, "b", patches[0].Entity)
	assert.JSONEq(t, `{"image":{"tag":"1.1"},"replicas":null}`, string(patches[0].Patch))

	y, err := patches[0].YAML()
	require.NoError(t, err)
	assert.Equal(t, "image:\n  tag: \"1.1\"\nreplicas: null\n", string(y))
}

func TestSummarise(t *testing.T) {
	old := treeOf("svc", tree.MapOf("replicas", 2, "env", tree.List{tree.MapOf("name", "X")}))
	new := treeOf("svc", tree.MapOf("replicas", 3, "env", tree.List{tree.MapOf("name", "X"), tree.MapOf("name", "Y")}), "other", tree.MapOf())
	var buf bytes.Buffer
	Summarise(&buf, Diff(old, new), DefaultIdentityKey)
	assert.Equal(t, `svc:
~ replicas: 2 -> 3
+ env[name="Y"]: (map)
other:
+ (entity)
`, buf.String())
}
