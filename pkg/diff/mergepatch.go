package diff

import (
	"bytes"
	"sort"

	"github.com/evanphx/json-patch"
	"github.com/ghodss/yaml"
	"github.com/pkg/errors"

	"github.com/fluxcd/promote/pkg/tree"
)

// EntityPatch is a JSON merge patch (RFC 7386) that turns one
// version of an entity into another.
type EntityPatch struct {
	Entity string
	Patch  []byte
}

// YAML renders the patch as YAML, which is easier to read for
// configuration values.
func (p EntityPatch) YAML() ([]byte, error) {
	return yaml.JSONToYAML(p.Patch)
}

var emptyPatch = []byte("{}")

// MergePatches computes a merge patch for each entity present in both
// trees and different between them, ordered by entity name. Merge
// patches replace lists wholesale, so they are coarser than the
// records produced by Diff; they are for showing, not for applying.
func MergePatches(old, new *tree.Tree) ([]EntityPatch, error) {
	var patches []EntityPatch
	for _, entity := range new.Keys() {
		ov, ok := old.Get(entity)
		if !ok {
			continue
		}
		nv, _ := new.Get(entity)
		if tree.Equal(ov, nv) {
			continue
		}
		oj, err := tree.EncodeJSON(ov, "")
		if err != nil {
			return nil, errors.Wrapf(err, "encoding old %s", entity)
		}
		nj, err := tree.EncodeJSON(nv, "")
		if err != nil {
			return nil, errors.Wrapf(err, "encoding new %s", entity)
		}
		patch, err := mergePatch(oj, nj)
		if err != nil {
			return nil, errors.Wrapf(err, "computing merge patch for %s", entity)
		}
		if bytes.Equal(patch, emptyPatch) {
			continue
		}
		patches = append(patches, EntityPatch{Entity: entity, Patch: patch})
	}
	sort.Slice(patches, func(i, j int) bool {
		return patches[i].Entity < patches[j].Entity
	})
	return patches, nil
}

// mergePatch handles documents that aren't objects, for which
// CreateMergePatch has no answer; the patch is then the new document.
func mergePatch(old, new []byte) ([]byte, error) {
	if len(old) > 0 && old[0] == '{' && len(new) > 0 && new[0] == '{' {
		return jsonpatch.CreateMergePatch(old, new)
	}
	return new, nil
}
