package manifests

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	sops "go.mozilla.org/sops/v3"
	"go.mozilla.org/sops/v3/decrypt"

	promoteerrors "github.com/fluxcd/promote/pkg/errors"
	"github.com/fluxcd/promote/pkg/pattern"
	"github.com/fluxcd/promote/pkg/tree"
)

type Options struct {
	// Recursive includes files in subdirectories; their entity names
	// are the path relative to the directory, without extension.
	Recursive bool
	// Sops decrypts sops-encrypted files. Files that aren't
	// encrypted are read as they are.
	Sops bool
	// Filter selects entities by name; the zero value selects all.
	Filter pattern.Matcher
}

// Load reads the values files in dir into a tree. Files that can't
// be parsed are left out, and an error for each is returned
// alongside. Files are read in lexical order; if two have the same
// entity name, the later one wins and that is reported too. The
// error return is for a directory that can't be read.
func Load(dir string, opts Options) (*tree.Tree, []error, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, nil, promoteerrors.IOError(err, "reading values directory %s", dir)
	}
	files, err := listFiles(dir, opts.Recursive)
	if err != nil {
		return nil, nil, promoteerrors.IOError(err, "reading values directory %s", dir)
	}

	t := tree.New()
	sources := map[string]string{}
	var diagnostics []error
	for _, rel := range files {
		entity := entityName(rel)
		if !opts.Filter.Matches(entity) {
			continue
		}
		bytes, err := ioutil.ReadFile(filepath.Join(dir, rel))
		if err != nil {
			return nil, nil, promoteerrors.IOError(err, "reading %s", rel)
		}
		if opts.Sops {
			if bytes, err = softDecrypt(bytes, formatOf(rel)); err != nil {
				diagnostics = append(diagnostics, promoteerrors.ParseError(rel, err))
				continue
			}
		}
		n, err := parse(bytes, formatOf(rel))
		if err != nil {
			diagnostics = append(diagnostics, promoteerrors.ParseError(rel, err))
			continue
		}
		if previous, ok := sources[entity]; ok {
			diagnostics = append(diagnostics, promoteerrors.ValidationError("%s and %s both define %q; using %s", previous, rel, entity, rel))
		}
		sources[entity] = rel
		t.Set(entity, n)
	}
	return t, diagnostics, nil
}

// listFiles returns the values files under dir, relative to it and
// with forward slashes, in lexical order.
func listFiles(dir string, recursive bool) ([]string, error) {
	var files []string
	if !recursive {
		infos, err := ioutil.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, info := range infos {
			if !info.IsDir() && isValuesFile(info.Name()) {
				files = append(files, info.Name())
			}
		}
		return files, nil
	}
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return errors.Wrapf(err, "walking %q for values files", path)
		}
		if info.IsDir() || !isValuesFile(path) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return errors.Wrapf(err, "path %q is not under %q", path, dir)
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	sort.Strings(files)
	return files, err
}

func isValuesFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func entityName(rel string) string {
	return strings.TrimSuffix(rel, filepath.Ext(rel))
}

func formatOf(name string) Format {
	if strings.ToLower(filepath.Ext(name)) == ".json" {
		return JSON
	}
	return YAML
}

func parse(data []byte, format Format) (tree.Node, error) {
	if format == JSON {
		return tree.DecodeJSON(data)
	}
	return tree.DecodeYAML(data)
}

// softDecrypt takes data from a file and tries to decrypt it with sops,
// if the file has not been encrypted with sops, the original data will be returned
func softDecrypt(rawData []byte, format Format) ([]byte, error) {
	decryptedData, err := decrypt.Data(rawData, string(format))
	if err == sops.MetadataNotFound {
		return rawData, nil
	} else if err != nil {
		return rawData, errors.Wrap(err, "failed to decrypt file")
	}
	return decryptedData, nil
}
