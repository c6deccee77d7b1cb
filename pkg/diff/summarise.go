package diff

import (
	"fmt"
	"io"

	"github.com/fluxcd/promote/pkg/changeset"
	"github.com/fluxcd/promote/pkg/tree"
)

// Summarise writes a short, human-readable account of a change set,
// grouped by entity in the order entities first appear.
func Summarise(out io.Writer, set changeset.Set, identityKey string) {
	byEntity := map[string][]changeset.Record{}
	for _, r := range set.Records {
		byEntity[r.Entity] = append(byEntity[r.Entity], r)
	}
	for _, entity := range set.Entities() {
		fmt.Fprintf(out, "%s:\n", entity)
		for _, r := range byEntity[entity] {
			summariseRecord(out, r, identityKey)
		}
	}
}

func summariseRecord(out io.Writer, r changeset.Record, identityKey string) {
	where := r.Path.String()
	_, wasList := r.Prior.(tree.List)
	if id, ok := tree.Identity(itemOf(r), identityKey); ok && !wasList && !lastIsIndex(r.Path) {
		where = fmt.Sprintf("%s[%s=%s]", where, identityKey, tree.IdentityString(id))
	}
	switch r.Action {
	case changeset.RootAdd:
		fmt.Fprintf(out, "+ (entity)\n")
	case changeset.RootDelete:
		fmt.Fprintf(out, "- (entity)\n")
	case changeset.Add:
		fmt.Fprintf(out, "+ %s: %s\n", where, short(r.Value))
	case changeset.Delete:
		fmt.Fprintf(out, "- %s\n", where)
	case changeset.Modify:
		if tree.IsScalar(r.Value) && tree.IsScalar(r.Prior) {
			fmt.Fprintf(out, "~ %s: %s -> %s\n", where, short(r.Prior), short(r.Value))
		} else {
			fmt.Fprintf(out, "~ %s: value has changed\n", where)
		}
	}
}

func itemOf(r changeset.Record) tree.Node {
	if r.HasValue {
		return r.Value
	}
	return r.Prior
}

func lastIsIndex(p changeset.Path) bool {
	return len(p) > 0 && p[len(p)-1].IsIndex
}

func short(n tree.Node) string {
	if !tree.IsScalar(n) {
		return fmt.Sprintf("(%s)", tree.KindOf(n))
	}
	b, err := tree.EncodeJSON(n, "")
	if err != nil {
		return fmt.Sprintf("%v", n)
	}
	return string(b)
}
