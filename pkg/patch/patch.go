package patch

import (
	"sort"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/fluxcd/promote/pkg/changeset"
	"github.com/fluxcd/promote/pkg/errors"
	promotemetrics "github.com/fluxcd/promote/pkg/metrics"
	"github.com/fluxcd/promote/pkg/tree"
)

// DefaultIdentityKey is the field that identifies the items of a list
// of maps.
const DefaultIdentityKey = "name"

// Patcher replays change records onto a tree.
type Patcher struct {
	IdentityKey string
	Logger      log.Logger
}

type Option func(*Patcher)

func WithIdentityKey(key string) Option {
	return func(p *Patcher) {
		p.IdentityKey = key
	}
}

func WithLogger(logger log.Logger) Option {
	return func(p *Patcher) {
		p.Logger = logger
	}
}

func New(opts ...Option) *Patcher {
	p := &Patcher{
		IdentityKey: DefaultIdentityKey,
		Logger:      log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Apply replays set onto base with the default settings.
func Apply(base *tree.Tree, set changeset.Set) (*tree.Tree, *Report) {
	return New().Apply(base, set)
}

// Apply replays the records of set, in order, onto a copy of base,
// and returns the copy. A record that can't be applied is skipped and
// reported; it doesn't stop the others.
//
// Every index in the set refers to the lists as they are in base:
// items removed by position or by identity are only taken out of
// their lists once all records have been applied.
func (p *Patcher) Apply(base *tree.Tree, set changeset.Set) (*tree.Tree, *Report) {
	s := &state{
		identityKey: p.IdentityKey,
		t:           base.Copy(),
		deleted:     map[string]*mark{},
	}
	report := &Report{Environment: set.Environment}
	for _, r := range set.Records {
		err := r.Validate()
		if err == nil {
			err = s.apply(r)
		}
		report.add(r, err)
		recordsTotal.With(
			promotemetrics.LabelAction, string(r.Action),
			promotemetrics.LabelOutcome, outcome(err),
		).Add(1)
		if err != nil {
			level.Warn(p.Logger).Log("row", r.Row, "service", r.Entity, "action", r.Action, "key", r.Path, "err", err)
		} else {
			level.Debug(p.Logger).Log("row", r.Row, "service", r.Entity, "action", r.Action, "key", r.Path, "applied", true)
		}
	}
	s.compact()
	return s.t, report
}

func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeApplied
	case errors.IsDuplicate(err):
		return outcomeDuplicate
	case errors.IsNotFound(err):
		return outcomeNotFound
	}
	return outcomeInvalid
}

// mark records the items of one list that have been deleted.
type mark struct {
	entity  string
	path    changeset.Path
	indices map[int]bool
}

type state struct {
	identityKey string
	t           *tree.Tree
	deleted     map[string]*mark
}

// location is a node in the working tree together with a way of
// replacing it in its parent.
type location struct {
	node tree.Node
	set  func(tree.Node)
}

func markKey(entity string, path changeset.Path) string {
	var b strings.Builder
	b.WriteString(entity)
	for _, seg := range path {
		b.WriteByte(0)
		b.WriteString(seg.String())
		if !seg.IsIndex {
			// keep a key "[0]" apart from index 0
			b.WriteByte(1)
		}
	}
	return b.String()
}

func (s *state) isDeleted(entity string, path changeset.Path, i int) bool {
	m, ok := s.deleted[markKey(entity, path)]
	return ok && m.indices[i]
}

func (s *state) markDeleted(entity string, path changeset.Path, i int) {
	k := markKey(entity, path)
	m, ok := s.deleted[k]
	if !ok {
		m = &mark{entity: entity, path: path, indices: map[int]bool{}}
		s.deleted[k] = m
	}
	m.indices[i] = true
}

func (s *state) unmarkDeleted(entity string, path changeset.Path, i int) {
	if m, ok := s.deleted[markKey(entity, path)]; ok {
		delete(m.indices, i)
	}
}

// forget drops the deletion marks at or below path, when whatever
// was there has been replaced or removed.
func (s *state) forget(entity string, path changeset.Path) {
	for k, m := range s.deleted {
		if m.entity == entity && hasPrefix(m.path, path) {
			delete(s.deleted, k)
		}
	}
}

func hasPrefix(p, prefix changeset.Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}

func (s *state) apply(r changeset.Record) error {
	switch r.Action {
	case changeset.RootAdd:
		s.t.Set(r.Entity, tree.Copy(r.Value))
		s.forget(r.Entity, nil)
		return nil
	case changeset.RootDelete:
		if !s.t.Delete(r.Entity) {
			return errors.PathNotFoundError(r.Entity, "")
		}
		s.forget(r.Entity, nil)
		return nil
	}
	if len(r.Path) == 0 {
		return s.applyRootItem(r)
	}

	parent, last := r.Path[:len(r.Path)-1], r.Path[len(r.Path)-1]
	// Lists are never created, so neither is the parent of an index.
	loc, ok := s.walk(r.Entity, parent, r.Action == changeset.Add && !last.IsIndex)
	if !ok {
		return errors.PathNotFoundError(r.Entity, r.Path.String())
	}
	if last.IsIndex {
		return s.applyIndex(r, parent, loc, last.Index)
	}
	return s.applyKey(r, loc, last.Key)
}

// walk finds the node at path. With create, missing maps along the
// way (and null values standing in their place) are created; lists
// never are.
func (s *state) walk(entity string, path changeset.Path, create bool) (location, bool) {
	root, ok := s.t.Get(entity)
	if !ok || (create && root == nil) {
		if !create {
			return location{}, false
		}
		root = tree.NewMap()
		s.t.Set(entity, root)
	}
	loc := location{node: root, set: func(n tree.Node) { s.t.Set(entity, n) }}
	for i, seg := range path {
		next, ok := s.child(entity, path[:i], loc.node, seg, create)
		if !ok {
			return location{}, false
		}
		loc = next
	}
	return loc, true
}

func (s *state) child(entity string, at changeset.Path, n tree.Node, seg changeset.Segment, create bool) (location, bool) {
	if seg.IsIndex {
		l, ok := n.(tree.List)
		i := seg.Index
		if !ok || i >= len(l) || s.isDeleted(entity, at, i) {
			return location{}, false
		}
		return location{node: l[i], set: func(v tree.Node) { l[i] = v }}, true
	}
	m, ok := n.(*tree.Map)
	if !ok {
		return location{}, false
	}
	key := seg.Key
	v, ok := m.Get(key)
	if !ok || (create && v == nil) {
		if !create {
			return location{}, false
		}
		v = tree.NewMap()
		m.Set(key, v)
	}
	return location{node: v, set: func(v tree.Node) { m.Set(key, v) }}, true
}

func (s *state) applyIndex(r changeset.Record, listPath changeset.Path, loc location, i int) error {
	l, ok := loc.node.(tree.List)
	if !ok {
		return errors.PathNotFoundError(r.Entity, r.Path.String())
	}
	deleted := i < len(l) && s.isDeleted(r.Entity, listPath, i)
	switch r.Action {
	case changeset.Add:
		switch {
		case i == len(l):
			loc.set(append(l, tree.Copy(r.Value)))
		case i < len(l) && deleted:
			s.unmarkDeleted(r.Entity, listPath, i)
			s.forget(r.Entity, r.Path)
			l[i] = tree.Copy(r.Value)
		case i < len(l):
			return errors.DuplicateKeyError(r.Entity, r.Path.String())
		default:
			return errors.PathNotFoundError(r.Entity, r.Path.String())
		}
	case changeset.Modify:
		if i >= len(l) || deleted {
			return errors.PathNotFoundError(r.Entity, r.Path.String())
		}
		s.forget(r.Entity, r.Path)
		l[i] = tree.Copy(r.Value)
	case changeset.Delete:
		if i >= len(l) || deleted {
			return errors.PathNotFoundError(r.Entity, r.Path.String())
		}
		s.markDeleted(r.Entity, listPath, i)
	}
	return nil
}

func (s *state) applyKey(r changeset.Record, loc location, key string) error {
	m, ok := loc.node.(*tree.Map)
	if !ok {
		return errors.PathNotFoundError(r.Entity, r.Path.String())
	}
	existing, exists := m.Get(key)
	if l, isList := existing.(tree.List); isList && !replacesList(r) {
		if item, id, ok := s.identityItem(r); ok {
			return s.applyIdentity(r, l, func(n tree.Node) { m.Set(key, n) }, item, id)
		}
	}
	switch r.Action {
	case changeset.Add:
		if exists {
			return errors.DuplicateKeyError(r.Entity, r.Path.String())
		}
		m.Set(key, tree.Copy(r.Value))
	case changeset.Modify:
		if !exists {
			return errors.PathNotFoundError(r.Entity, r.Path.String())
		}
		s.forget(r.Entity, r.Path)
		m.Set(key, tree.Copy(r.Value))
	case changeset.Delete:
		if !exists {
			return errors.PathNotFoundError(r.Entity, r.Path.String())
		}
		s.forget(r.Entity, r.Path)
		m.Delete(key)
	}
	return nil
}

// replacesList is true when the record's prior value is the whole
// list, so its value takes the list's place rather than an item's.
func replacesList(r changeset.Record) bool {
	_, wasList := r.Prior.(tree.List)
	return r.HasPrior && wasList
}

// applyRootItem adds, modifies or deletes one item of an entity that
// is itself a list of identified maps.
func (s *state) applyRootItem(r changeset.Record) error {
	item, id, ok := s.identityItem(r)
	if !ok {
		return errors.ValidationError("%s: item has no %q field", r, s.identityKey)
	}
	root, _ := s.t.Get(r.Entity)
	if root == nil && r.Action == changeset.Add {
		root = tree.List{}
	}
	l, ok := root.(tree.List)
	if !ok {
		return errors.PathNotFoundError(r.Entity, "["+s.identityKey+"="+id+"]")
	}
	return s.applyIdentity(r, l, func(n tree.Node) { s.t.Set(r.Entity, n) }, item, id)
}

// identityItem returns the list item a record is about, and its
// identity, if it has one. Deletions may have only the prior value.
func (s *state) identityItem(r changeset.Record) (*tree.Map, string, bool) {
	item, ok := r.Item()
	if !ok {
		return nil, "", false
	}
	id, ok := tree.Identity(item, s.identityKey)
	if !ok {
		return nil, "", false
	}
	return item, tree.IdentityString(id), true
}

func (s *state) applyIdentity(r changeset.Record, l tree.List, set func(tree.Node), item *tree.Map, id string) error {
	found := -1
	for i, el := range l {
		if s.isDeleted(r.Entity, r.Path, i) {
			continue
		}
		if elID, ok := tree.Identity(el, s.identityKey); ok && tree.IdentityString(elID) == id {
			found = i
			break
		}
	}
	where := r.Path.String() + "[" + s.identityKey + "=" + id + "]"
	switch r.Action {
	case changeset.Add:
		if found >= 0 {
			return errors.DuplicateKeyError(r.Entity, where)
		}
		set(append(l, tree.Copy(item)))
	case changeset.Modify:
		if found < 0 {
			return errors.PathNotFoundError(r.Entity, where)
		}
		entry := l[found].(*tree.Map)
		for _, k := range item.Keys() {
			v, _ := item.Get(k)
			entry.Set(k, tree.Copy(v))
		}
		s.forget(r.Entity, r.Path.Append(changeset.Index(found)))
	case changeset.Delete:
		if found < 0 {
			return errors.PathNotFoundError(r.Entity, where)
		}
		s.markDeleted(r.Entity, r.Path, found)
	}
	return nil
}

// compact takes deleted items out of their lists, innermost lists
// first so that the positions of enclosing lists stay valid.
func (s *state) compact() {
	marks := make([]*mark, 0, len(s.deleted))
	for _, m := range s.deleted {
		if len(m.indices) > 0 {
			marks = append(marks, m)
		}
	}
	sort.Slice(marks, func(i, j int) bool {
		if len(marks[i].path) != len(marks[j].path) {
			return len(marks[i].path) > len(marks[j].path)
		}
		return markKey(marks[i].entity, marks[i].path) < markKey(marks[j].entity, marks[j].path)
	})
	for _, m := range marks {
		loc, ok := s.walk(m.entity, m.path, false)
		if !ok {
			continue
		}
		l, ok := loc.node.(tree.List)
		if !ok {
			continue
		}
		kept := make(tree.List, 0, len(l))
		for i, item := range l {
			if !m.indices[i] {
				kept = append(kept, item)
			}
		}
		loc.set(kept)
	}
	s.deleted = map[string]*mark{}
}
