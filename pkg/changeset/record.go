package changeset

import (
	"fmt"
	"strings"

	"github.com/fluxcd/promote/pkg/errors"
	"github.com/fluxcd/promote/pkg/tree"
)

type Action string

const (
	Add        Action = "add"
	Modify     Action = "modify"
	Delete     Action = "delete"
	RootAdd    Action = "root-add"
	RootDelete Action = "root-delete"
)

// Actions lists every action, in the order they are presented to
// people editing a release note.
var Actions = []Action{Add, Modify, Delete, RootAdd, RootDelete}

// ParseAction accepts an action name in any case, ignoring
// surrounding space.
func ParseAction(s string) (Action, bool) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Actions {
		if a == known {
			return a, true
		}
	}
	return "", false
}

func (a Action) IsRoot() bool {
	return a == RootAdd || a == RootDelete
}

// Comments classifying records, as written by the differ.
const (
	CommentAdded       = "Added"
	CommentModified    = "Modified"
	CommentDeleted     = "Deleted"
	CommentRootAdded   = "Root object added"
	CommentRootDeleted = "Root object deleted"
)

// DefaultComment gives the classifying comment for an action.
func DefaultComment(a Action) string {
	switch a {
	case Add:
		return CommentAdded
	case Modify:
		return CommentModified
	case Delete:
		return CommentDeleted
	case RootAdd:
		return CommentRootAdded
	case RootDelete:
		return CommentRootDeleted
	}
	return ""
}

// Record is a single change to one entity.
type Record struct {
	Entity string
	Action Action
	Path   Path
	// Value is the new value; for a root-add, the whole entity.
	Value    tree.Node
	HasValue bool
	// Prior is the value being replaced or removed, kept for audit.
	Prior    tree.Node
	HasPrior bool
	Comment  string
	// Row is the 1-based row a record was read from, or 0 for
	// records that did not come from a release note.
	Row int
}

func (r Record) WithValue(v tree.Node) Record {
	r.Value, r.HasValue = v, true
	return r
}

func (r Record) WithPrior(v tree.Node) Record {
	r.Prior, r.HasPrior = v, true
	return r
}

func (r Record) String() string {
	s := fmt.Sprintf("%s %s", r.Entity, r.Action)
	if len(r.Path) > 0 {
		s += " " + r.Path.String()
	}
	if r.Row > 0 {
		s = fmt.Sprintf("row %d: %s", r.Row, s)
	}
	return s
}

// Item returns the map a record carries as a list item: the value,
// or for a deletion without one, the prior value. Records with an
// empty path are about the items of an entity that is itself a list.
func (r Record) Item() (*tree.Map, bool) {
	item := r.Value
	if r.Action == Delete && !r.HasValue {
		item = r.Prior
	}
	m, ok := item.(*tree.Map)
	return m, ok && m != nil
}

// Validate checks that a record has the shape required by its
// action.
func (r Record) Validate() error {
	where := "record"
	if r.Row > 0 {
		where = fmt.Sprintf("row %d", r.Row)
	}
	if r.Entity == "" {
		return errors.ValidationError("%s: no service name", where)
	}
	switch r.Action {
	case RootAdd:
		if len(r.Path) > 0 {
			return errors.ValidationError("%s: %s of %s has a key %q", where, r.Action, r.Entity, r.Path)
		}
		if !r.HasValue {
			return errors.ValidationError("%s: %s of %s has no value", where, r.Action, r.Entity)
		}
	case RootDelete:
		if len(r.Path) > 0 {
			return errors.ValidationError("%s: %s of %s has a key %q", where, r.Action, r.Entity, r.Path)
		}
	case Add, Modify:
		if !r.HasValue {
			if len(r.Path) == 0 {
				return errors.ValidationError("%s: %s in %s has no value", where, r.Action, r.Entity)
			}
			return errors.ValidationError("%s: %s of %s in %s has no value", where, r.Action, r.Path, r.Entity)
		}
		if _, ok := r.Item(); len(r.Path) == 0 && !ok {
			return errors.ValidationError("%s: %s in %s has no key", where, r.Action, r.Entity)
		}
	case Delete:
		if _, ok := r.Item(); len(r.Path) == 0 && !ok {
			return errors.ValidationError("%s: %s in %s has no key", where, r.Action, r.Entity)
		}
	default:
		return errors.ValidationError("%s: unknown change request %q", where, r.Action)
	}
	return nil
}
