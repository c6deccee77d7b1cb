package manifests

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	promoteerrors "github.com/fluxcd/promote/pkg/errors"
	"github.com/fluxcd/promote/pkg/tree"
)

// Format is the encoding used for emitted values files.
type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
)

// ParseFormat accepts "yaml", "yml" or "json", in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "yaml", "yml":
		return YAML, nil
	case "json":
		return JSON, nil
	}
	return "", errors.Errorf("unknown format %q, expected yaml or json", s)
}

func (f Format) Ext() string {
	if f == JSON {
		return ".json"
	}
	return ".yaml"
}

// Encode renders one entity's document.
func (f Format) Encode(n tree.Node) ([]byte, error) {
	if f == JSON {
		bytes, err := tree.EncodeJSON(n, "    ")
		if err != nil {
			return nil, err
		}
		return append(bytes, '\n'), nil
	}
	return tree.EncodeYAML(n)
}

// Emit writes one file per entity into dir, creating it if
// necessary. Entity names containing slashes are written into
// subdirectories. Files in dir that don't correspond to an entity
// are left alone.
func Emit(t *tree.Tree, dir string, format Format) error {
	for _, entity := range t.Keys() {
		n, _ := t.Get(entity)
		bytes, err := format.Encode(n)
		if err != nil {
			return errors.Wrapf(err, "encoding %s", entity)
		}
		path := filepath.Join(dir, filepath.FromSlash(entity)+format.Ext())
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return promoteerrors.IOError(err, "creating directory for %s", entity)
		}
		if err := ioutil.WriteFile(path, bytes, 0644); err != nil {
			return promoteerrors.IOError(err, "writing %s", path)
		}
	}
	return nil
}
