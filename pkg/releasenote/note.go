package releasenote

import (
	"fmt"
	"strings"

	"github.com/fluxcd/promote/pkg/changeset"
	"github.com/fluxcd/promote/pkg/errors"
	"github.com/fluxcd/promote/pkg/tree"
)

// Column headings, in the order they are written.
const (
	ColumnService = "Service name"
	ColumnAction  = "Change Request"
	ColumnKey     = "Key"
	ColumnValue   = "Value"
	ColumnPrior   = "Value before modification"
	ColumnComment = "Comment"
)

var headers = []string{ColumnService, ColumnAction, ColumnKey, ColumnValue, ColumnPrior, ColumnComment}

const (
	colService = iota
	colAction
	colKey
	colValue
	colPrior
	colComment
)

// Write puts the records of set into one sheet per environment, and
// saves the medium. The first environment gets every value; the
// others get the same rows with the Value column left blank, to be
// filled in for that environment.
func Write(m Medium, set changeset.Set, envs []string, sep string) error {
	rows := [][]string{headers}
	for _, r := range set.Records {
		row, err := recordRow(r, sep)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	for i, env := range envs {
		sheetRows := rows
		if i > 0 {
			sheetRows = blankValues(rows)
		}
		if err := m.SetRows(env, sheetRows); err != nil {
			return err
		}
	}
	return m.Save()
}

func blankValues(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	out[0] = rows[0]
	for i := 1; i < len(rows); i++ {
		row := append([]string(nil), rows[i]...)
		row[colValue] = ""
		out[i] = row
	}
	return out
}

func recordRow(r changeset.Record, sep string) ([]string, error) {
	action := string(r.Action)
	switch r.Action {
	case changeset.RootAdd:
		action = string(changeset.Add)
	case changeset.RootDelete:
		action = string(changeset.Delete)
	}
	key, err := r.Path.RenderExact(sep)
	if err != nil {
		return nil, errors.ValidationError("%s: %s", r, err)
	}
	row := []string{r.Entity, action, key, "", "", r.Comment}
	if r.HasValue {
		v, err := changeset.EncodeValue(r.Value)
		if err != nil {
			return nil, errors.ValidationError("%s: encoding value: %s", r, err)
		}
		row[colValue] = v
	}
	if r.HasPrior {
		v, err := changeset.EncodeValue(r.Prior)
		if err != nil {
			return nil, errors.ValidationError("%s: encoding prior value: %s", r, err)
		}
		row[colPrior] = v
	}
	return row, nil
}

// Read returns the records in a sheet. Rows that don't make a valid
// record are left out, and an error for each is returned alongside;
// the error return is for a sheet that can't be read at all.
//
// A row with no key is about a whole service, unless it's an add or
// delete of an item carrying identityKey without a root object
// comment: then it's about an item of a service that is itself a
// list.
func Read(m Medium, sheet, sep, identityKey string) (changeset.Set, []error, error) {
	set := changeset.Set{Environment: sheet}
	rows, err := m.Rows(sheet)
	if err != nil {
		return set, nil, err
	}
	if len(rows) == 0 {
		return set, nil, nil
	}
	cols, err := columns(rows[0])
	if err != nil {
		return set, nil, errors.IOError(err, "reading sheet %q", sheet)
	}
	var rowErrs []error
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		r, err := rowRecord(row, cols, i+2, sep, identityKey)
		if err == nil {
			err = r.Validate()
		}
		if err != nil {
			rowErrs = append(rowErrs, err)
			continue
		}
		set.Add(r)
	}
	return set, rowErrs, nil
}

// columns finds each heading in a header row, so that columns can be
// moved around. The prior value and comment may be missing.
func columns(header []string) (map[int]int, error) {
	cols := map[int]int{}
	for i, h := range header {
		for c, want := range headers {
			if strings.EqualFold(strings.TrimSpace(h), want) {
				if _, dup := cols[c]; !dup {
					cols[c] = i
				}
			}
		}
	}
	for _, c := range []int{colService, colAction, colKey, colValue} {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("no %q column in header", headers[c])
		}
	}
	return cols, nil
}

func cell(row []string, cols map[int]int, c int) string {
	i, ok := cols[c]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func rowRecord(row []string, cols map[int]int, rowNum int, sep, identityKey string) (changeset.Record, error) {
	r := changeset.Record{
		Entity:  strings.TrimSpace(cell(row, cols, colService)),
		Path:    changeset.ParsePath(cell(row, cols, colKey), sep),
		Comment: cell(row, cols, colComment),
		Row:     rowNum,
	}
	actionCell := cell(row, cols, colAction)
	action, ok := changeset.ParseAction(actionCell)
	if !ok {
		return r, errors.ValidationError("row %d: unknown change request %q", rowNum, strings.TrimSpace(actionCell))
	}
	r.Action = action
	if v := cell(row, cols, colValue); strings.TrimSpace(v) != "" {
		r = r.WithValue(changeset.DecodeValue(v))
	}
	if v := cell(row, cols, colPrior); strings.TrimSpace(v) != "" {
		r = r.WithPrior(changeset.DecodeValue(v))
	}
	if len(r.Path) == 0 && isRootRow(r, identityKey) {
		switch action {
		case changeset.Add:
			r.Action = changeset.RootAdd
		case changeset.Delete:
			r.Action = changeset.RootDelete
		}
	}
	return r, nil
}

func isRootRow(r changeset.Record, identityKey string) bool {
	comment := strings.TrimSpace(r.Comment)
	if strings.EqualFold(comment, changeset.CommentRootAdded) || strings.EqualFold(comment, changeset.CommentRootDeleted) {
		return true
	}
	item, ok := r.Item()
	if !ok || identityKey == "" {
		return true
	}
	_, ok = tree.Identity(item, identityKey)
	return !ok
}

// PopulatedSheets lists the sheets, other than those excluded, that
// have at least one Value filled in: the environments that are ready
// to be promoted to.
func PopulatedSheets(m Medium, exclude ...string) ([]string, error) {
	skip := map[string]bool{}
	for _, e := range exclude {
		skip[e] = true
	}
	var ready []string
	for _, sheet := range m.Sheets() {
		if skip[sheet] {
			continue
		}
		rows, err := m.Rows(sheet)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			continue
		}
		cols, err := columns(rows[0])
		if err != nil {
			continue
		}
		for _, row := range rows[1:] {
			if strings.TrimSpace(cell(row, cols, colValue)) != "" {
				ready = append(ready, sheet)
				break
			}
		}
	}
	return ready, nil
}

// Services lists the services a set of records touches, in the order
// they first appear. This is the list of what needs deploying.
func Services(set changeset.Set) []string {
	return set.Entities()
}
