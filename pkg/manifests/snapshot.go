package manifests

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	promoteerrors "github.com/fluxcd/promote/pkg/errors"
	"github.com/fluxcd/promote/pkg/tree"
)

// ReadSnapshot reads a tree saved by WriteSnapshot. The tree is never
// nil: a snapshot that is missing or unreadable reads as an empty
// tree, and the error says why. Callers that only want the baseline
// can log the error and carry on.
func ReadSnapshot(path string) (*tree.Tree, error) {
	bytes, err := ioutil.ReadFile(path)
	if err != nil {
		return tree.New(), promoteerrors.IOError(err, "reading snapshot %s", path)
	}
	n, err := tree.DecodeJSON(bytes)
	if err != nil {
		return tree.New(), promoteerrors.ParseError(path, err)
	}
	m, ok := n.(*tree.Map)
	if !ok {
		return tree.New(), promoteerrors.ParseError(path, promoteerrors.ValidationError("snapshot is a %s, not a map of entities", tree.KindOf(n)))
	}
	return tree.FromMap(m), nil
}

// WriteSnapshot saves the whole tree as one JSON document.
func WriteSnapshot(path string, t *tree.Tree) error {
	bytes, err := tree.EncodeJSON(t.Map(), "    ")
	if err != nil {
		return promoteerrors.IOError(err, "encoding snapshot")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return promoteerrors.IOError(err, "creating directory for snapshot %s", path)
	}
	if err := ioutil.WriteFile(path, append(bytes, '\n'), 0644); err != nil {
		return promoteerrors.IOError(err, "writing snapshot %s", path)
	}
	return nil
}

// IsMissing reports whether a ReadSnapshot error means there was no
// snapshot at all.
func IsMissing(err error) bool {
	return promoteerrors.IsIO(err) && os.IsNotExist(errors.Cause(err))
}
