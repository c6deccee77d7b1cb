package releasenote

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxcd/promote/internal/testfiles"
	"github.com/fluxcd/promote/pkg/changeset"
	"github.com/fluxcd/promote/pkg/diff"
	"github.com/fluxcd/promote/pkg/errors"
	"github.com/fluxcd/promote/pkg/patch"
	"github.com/fluxcd/promote/pkg/tree"
)

var sep = changeset.DefaultSeparator

func exampleSet() changeset.Set {
	rec := func(entity string, action changeset.Action, path string) changeset.Record {
		return changeset.Record{
			Entity:  entity,
			Action:  action,
			Path:    changeset.ParsePath(path, sep),
			Comment: changeset.DefaultComment(action),
		}
	}
	return changeset.Set{Records: []changeset.Record{
		rec("svc", changeset.Modify, "replicas").WithValue(int64(3)).WithPrior(int64(2)),
		rec("svc", changeset.Modify, "image//tag").WithValue("1.18").WithPrior("1.17"),
		rec("svc", changeset.Add, "env").WithValue(tree.MapOf("name", "Y", "value", "3")),
		rec("svc", changeset.Delete, "args[2]").WithPrior("--debug"),
		rec("new", changeset.RootAdd, "").WithValue(tree.MapOf("a", 1, "b", tree.List{true, nil})),
		rec("old", changeset.RootDelete, "").WithPrior(tree.MapOf("x", 1)),
	}}
}

func testRoundTrip(t *testing.T, path string) {
	m, err := Open(path)
	require.NoError(t, err)
	set := exampleSet()
	require.NoError(t, Write(m, set, []string{"sit", "uat"}, sep))

	m, err = Open(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"sit", "uat"}, m.Sheets())

	got, rowErrs, err := Read(m, "sit", sep, "name")
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	assert.Equal(t, "sit", got.Environment)
	require.Equal(t, set.Len(), got.Len())
	for i, want := range set.Records {
		r := got.Records[i]
		assert.Equal(t, i+2, r.Row)
		assert.Equal(t, want.Entity, r.Entity)
		assert.Equal(t, want.Action, r.Action)
		assert.Equal(t, want.Path, r.Path)
		assert.Equal(t, want.HasValue, r.HasValue)
		assert.True(t, tree.Equal(want.Value, r.Value), "row %d value", r.Row)
		assert.Equal(t, want.HasPrior, r.HasPrior)
		assert.True(t, tree.Equal(want.Prior, r.Prior), "row %d prior", r.Row)
		assert.Equal(t, want.Comment, r.Comment)
	}

	// later environments have no values, so only deletions survive
	uat, rowErrs, err := Read(m, "uat", sep, "name")
	require.NoError(t, err)
	assert.Len(t, rowErrs, 4)
	for _, err := range rowErrs {
		assert.True(t, errors.IsValidation(err))
	}
	assert.Equal(t, 2, uat.Len())
	assert.True(t, uat.Records[0].HasPrior)

	ready, err := PopulatedSheets(m, "dev")
	require.NoError(t, err)
	assert.Equal(t, []string{"sit"}, ready)
	ready, err = PopulatedSheets(m, "sit")
	require.NoError(t, err)
	assert.Empty(t, ready)
}

func TestRoundTrip_CSV(t *testing.T) {
	dir, cleanup := testfiles.TempDir(t)
	defer cleanup()
	testRoundTrip(t, filepath.Join(dir, "notes.csv"))
	assert.FileExists(t, filepath.Join(dir, "notes.sit.csv"))
	assert.FileExists(t, filepath.Join(dir, "notes.uat.csv"))
}

func TestRoundTrip_Workbook(t *testing.T) {
	dir, cleanup := testfiles.TempDir(t)
	defer cleanup()
	testRoundTrip(t, filepath.Join(dir, "notes.xlsx"))
}

func TestWrite_ReplacesSheet(t *testing.T) {
	for _, name := range []string{"notes.csv", "notes.xlsx"} {
		t.Run(name, func(t *testing.T) {
			dir, cleanup := testfiles.TempDir(t)
			defer cleanup()
			path := filepath.Join(dir, name)
			m, err := Open(path)
			require.NoError(t, err)
			require.NoError(t, Write(m, exampleSet(), []string{"sit"}, sep))

			smaller := changeset.Set{Records: exampleSet().Records[:1]}
			m, err = Open(path)
			require.NoError(t, err)
			require.NoError(t, Write(m, smaller, []string{"sit"}, sep))

			m, err = Open(path)
			require.NoError(t, err)
			got, rowErrs, err := Read(m, "sit", sep, "name")
			require.NoError(t, err)
			assert.Empty(t, rowErrs)
			assert.Equal(t, 1, got.Len())
		})
	}
}

type memory struct {
	sheets []string
	rows   map[string][][]string
}

func (m *memory) Sheets() []string { return m.sheets }

func (m *memory) Rows(sheet string) ([][]string, error) {
	rows, ok := m.rows[sheet]
	if !ok {
		return nil, errors.IOError(assert.AnError, "no sheet %s", sheet)
	}
	return rows, nil
}

func (m *memory) SetRows(sheet string, rows [][]string) error {
	if _, ok := m.rows[sheet]; !ok {
		m.sheets = append(m.sheets, sheet)
	}
	m.rows[sheet] = rows
	return nil
}

func (m *memory) Save() error { return nil }

func TestRead_EditedSheet(t *testing.T) {
	m := &memory{rows: map[string][][]string{}}
	m.SetRows("prod", [][]string{
		{"Comment", "Key", "Value", "Service name", "Change Request"},
		{"bumped", "replicas", "5", "svc", "Modify"},
		{"", "", "", "", ""},
		{"", "image//tag", "nginx:1.19", "svc", "modify"},
		{"", "env", `{"name": "X"}`, "svc", "delete"},
		{"", "replicas", "", "svc", "modify"},
		{"", "replicas", "1", "svc", "rename"},
		{"", "", "", "svc", "modify"},
		{"", "", `{"a": 1}`, "new", "add"},
	})
	set, rowErrs, err := Read(m, "prod", sep, "name")
	require.NoError(t, err)
	require.Len(t, rowErrs, 3)
	for _, err := range rowErrs {
		assert.True(t, errors.IsValidation(err), "%v", err)
	}
	require.Equal(t, 4, set.Len())

	assert.Equal(t, changeset.Modify, set.Records[0].Action)
	assert.Equal(t, int64(5), set.Records[0].Value)
	assert.Equal(t, "bumped", set.Records[0].Comment)
	assert.False(t, set.Records[0].HasPrior)
	assert.Equal(t, "nginx:1.19", set.Records[1].Value)
	assert.Equal(t, 4, set.Records[1].Row)
	assert.Equal(t, changeset.Delete, set.Records[2].Action)
	assert.Equal(t, changeset.RootAdd, set.Records[3].Action)
}

func TestRead_Errors(t *testing.T) {
	m := &memory{rows: map[string][][]string{
		"bad": {{"Service name", "Key"}},
	}}
	_, _, err := Read(m, "missing", sep, "name")
	assert.True(t, errors.IsIO(err))
	_, _, err = Read(m, "bad", sep, "name")
	assert.True(t, errors.IsIO(err))

	_, err = Open("notes.ods")
	assert.True(t, errors.IsIO(err), "%v", err)
}

func TestWrite_RejectsUnreadableKeys(t *testing.T) {
	m := &memory{rows: map[string][][]string{}}
	set := changeset.Set{Records: []changeset.Record{{
		Entity: "svc",
		Action: changeset.Add,
		Path:   changeset.Path{changeset.Key("links"), changeset.Key("https://example.com")},
	}}}
	set.Records[0] = set.Records[0].WithValue("docs")
	err := Write(m, set, []string{"sit"}, sep)
	assert.True(t, errors.IsValidation(err), "%v", err)
	assert.Empty(t, m.Sheets())
}

func TestRead_TopLevelListRows(t *testing.T) {
	m := &memory{rows: map[string][][]string{}}
	m.SetRows("sit", [][]string{
		headers,
		{"env", "add", "", `{"name": "Y", "value": "3"}`, "", "Added"},
		{"env", "modify", "", `{"name": "X", "value": "2"}`, `{"name": "X", "value": "1"}`, "Modified"},
		{"env", "delete", "", "", `{"name": "Z"}`, ""},
		{"data", "add", "", `{"name": "Y"}`, "", "root object added"},
		{"new", "add", "", `{"a": 1}`, "", ""},
		{"old", "delete", "", "", "", ""},
	})
	set, rowErrs, err := Read(m, "sit", sep, "name")
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	var actions []changeset.Action
	for _, r := range set.Records {
		assert.Empty(t, r.Path)
		actions = append(actions, r.Action)
	}
	assert.Equal(t, []changeset.Action{
		changeset.Add, changeset.Modify, changeset.Delete,
		changeset.RootAdd, changeset.RootAdd, changeset.RootDelete,
	}, actions)
}

func TestRoundTrip_TopLevelList(t *testing.T) {
	old := tree.FromMap(tree.MapOf("env", tree.List{
		tree.MapOf("name", "X", "value", "1"),
		tree.MapOf("name", "Z", "value", "9"),
	}))
	current := tree.FromMap(tree.MapOf("env", tree.List{
		tree.MapOf("name", "X", "value", "2"),
		tree.MapOf("name", "Y", "value", "3"),
	}))
	for _, name := range []string{"notes.csv", "notes.xlsx"} {
		t.Run(name, func(t *testing.T) {
			dir, cleanup := testfiles.TempDir(t)
			defer cleanup()
			path := filepath.Join(dir, name)
			m, err := Open(path)
			require.NoError(t, err)
			require.NoError(t, Write(m, diff.Diff(old, current), []string{"sit"}, sep))

			m, err = Open(path)
			require.NoError(t, err)
			set, rowErrs, err := Read(m, "sit", sep, "name")
			require.NoError(t, err)
			assert.Empty(t, rowErrs)
			require.Equal(t, 3, set.Len())

			out, report := patch.Apply(old, set)
			assert.True(t, report.Clean(), "%v", report.Diagnostics)
			assert.True(t, current.Equal(out))
		})
	}
}

func TestServices(t *testing.T) {
	assert.Equal(t, []string{"svc", "new", "old"}, Services(exampleSet()))
}
