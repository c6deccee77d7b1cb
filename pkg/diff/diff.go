package diff

import (
	"github.com/fluxcd/promote/pkg/changeset"
	promotemetrics "github.com/fluxcd/promote/pkg/metrics"
	"github.com/fluxcd/promote/pkg/pattern"
	"github.com/fluxcd/promote/pkg/tree"
)

// DefaultIdentityKey is the field that identifies the items of a list
// of maps.
const DefaultIdentityKey = "name"

type Differ struct {
	IdentityKey string
	// Filter selects the entities to compare; the zero value selects
	// all of them.
	Filter pattern.Matcher
}

type Option func(*Differ)

func WithIdentityKey(key string) Option {
	return func(d *Differ) {
		d.IdentityKey = key
	}
}

func WithFilter(m pattern.Matcher) Option {
	return func(d *Differ) {
		d.Filter = m
	}
}

func New(opts ...Option) *Differ {
	d := &Differ{IdentityKey: DefaultIdentityKey}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Diff compares two trees using the default identity key.
func Diff(old, new *tree.Tree) changeset.Set {
	return New().Diff(old, new)
}

// Diff returns the records that turn old into new. Entities in new
// come first, in order; then the entities that were removed, in
// their order in old. Values in the records are copies, so the trees
// can be changed afterwards without affecting the result.
func (d *Differ) Diff(old, new *tree.Tree) changeset.Set {
	c := &collector{identityKey: d.IdentityKey}
	for _, entity := range new.Keys() {
		if !d.Filter.Matches(entity) {
			continue
		}
		nv, _ := new.Get(entity)
		ov, ok := old.Get(entity)
		if !ok {
			c.emit(changeset.Record{Entity: entity, Action: changeset.RootAdd}.WithValue(nv))
			continue
		}
		c.compare(entity, nil, ov, nv)
	}
	for _, entity := range old.Keys() {
		if !d.Filter.Matches(entity) || new.Has(entity) {
			continue
		}
		ov, _ := old.Get(entity)
		c.emit(changeset.Record{Entity: entity, Action: changeset.RootDelete}.WithPrior(ov))
	}
	return c.set
}

type collector struct {
	identityKey string
	set         changeset.Set
}

func (c *collector) emit(r changeset.Record) {
	if r.HasValue {
		r.Value = tree.Copy(r.Value)
	}
	if r.HasPrior {
		r.Prior = tree.Copy(r.Prior)
	}
	r.Comment = changeset.DefaultComment(r.Action)
	c.set.Add(r)
	recordsTotal.With(promotemetrics.LabelAction, string(r.Action)).Add(1)
}

func (c *collector) compare(entity string, path changeset.Path, old, new tree.Node) {
	switch o := old.(type) {
	case *tree.Map:
		if n, ok := new.(*tree.Map); ok {
			c.compareMaps(entity, path, o, n)
			return
		}
	case tree.List:
		if n, ok := new.(tree.List); ok {
			if c.byIdentity(o, n) {
				c.compareIdentityLists(entity, path, o, n)
			} else {
				c.comparePositional(entity, path, o, n)
			}
			return
		}
	}
	if tree.Equal(old, new) {
		return
	}
	if len(path) == 0 {
		// The entity itself changed kind, or is a bare value: a
		// modify needs a key, so replace the whole entity.
		c.emit(changeset.Record{Entity: entity, Action: changeset.RootAdd}.WithValue(new).WithPrior(old))
		return
	}
	c.emit(changeset.Record{Entity: entity, Action: changeset.Modify, Path: path}.WithValue(new).WithPrior(old))
}

func (c *collector) compareMaps(entity string, path changeset.Path, old, new *tree.Map) {
	for _, k := range old.Keys() {
		ov, _ := old.Get(k)
		p := path.Append(changeset.Key(k))
		if nv, ok := new.Get(k); ok {
			c.compare(entity, p, ov, nv)
		} else {
			c.emit(changeset.Record{Entity: entity, Action: changeset.Delete, Path: p}.WithPrior(ov))
		}
	}
	for _, k := range new.Keys() {
		if old.Has(k) {
			continue
		}
		nv, _ := new.Get(k)
		c.emit(changeset.Record{Entity: entity, Action: changeset.Add, Path: path.Append(changeset.Key(k))}.WithValue(nv))
	}
}

// byIdentity is true when both lists consist only of items that carry
// an identity, and there is at least one item between them.
func (c *collector) byIdentity(old, new tree.List) bool {
	if len(old) == 0 && len(new) == 0 {
		return false
	}
	return (len(old) == 0 || tree.IsIdentityList(old, c.identityKey)) &&
		(len(new) == 0 || tree.IsIdentityList(new, c.identityKey))
}

// compareIdentityLists reports items by identity. The records address
// the list; the item itself is the value (or the prior value, for a
// deletion). Where an identity appears more than once in a list, only
// the first item with it counts.
func (c *collector) compareIdentityLists(entity string, path changeset.Path, old, new tree.List) {
	oldIndex := tree.IndexByIdentity(old, c.identityKey)
	newIndex := tree.IndexByIdentity(new, c.identityKey)
	for i, item := range old {
		id := c.identity(item)
		if oldIndex[id] != i {
			continue
		}
		j, ok := newIndex[id]
		if !ok {
			c.emit(changeset.Record{Entity: entity, Action: changeset.Delete, Path: path}.WithPrior(item))
			continue
		}
		if !tree.Equal(item, new[j]) {
			c.emit(changeset.Record{Entity: entity, Action: changeset.Modify, Path: path}.WithValue(new[j]).WithPrior(item))
		}
	}
	for j, item := range new {
		id := c.identity(item)
		if newIndex[id] != j {
			continue
		}
		if _, ok := oldIndex[id]; !ok {
			c.emit(changeset.Record{Entity: entity, Action: changeset.Add, Path: path}.WithValue(item))
		}
	}
}

func (c *collector) identity(item tree.Node) string {
	id, _ := tree.Identity(item, c.identityKey)
	return tree.IdentityString(id)
}

func (c *collector) comparePositional(entity string, path changeset.Path, old, new tree.List) {
	i := 0
	for ; i < len(old) && i < len(new); i++ {
		if !tree.Equal(old[i], new[i]) {
			c.emit(changeset.Record{Entity: entity, Action: changeset.Modify, Path: path.Append(changeset.Index(i))}.WithValue(new[i]).WithPrior(old[i]))
		}
	}
	for j := i; j < len(old); j++ {
		c.emit(changeset.Record{Entity: entity, Action: changeset.Delete, Path: path.Append(changeset.Index(j))}.WithPrior(old[j]))
	}
	for j := i; j < len(new); j++ {
		c.emit(changeset.Record{Entity: entity, Action: changeset.Add, Path: path.Append(changeset.Index(j))}.WithValue(new[j]))
	}
}
