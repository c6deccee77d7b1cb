package promote

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"

	"github.com/fluxcd/promote/pkg/git"
	"github.com/fluxcd/promote/pkg/manifests"
	"github.com/fluxcd/promote/pkg/tree"
)

// GitSource is a repository holding the values, compared between two
// refs.
type GitSource struct {
	Remote git.Remote
	// Ref is what is being promoted: a branch, tag, revision or
	// `semver:` pattern.
	Ref string
	// PreviousRef is what it is compared against. If empty, the
	// comparison is with the snapshot instead.
	PreviousRef string
	// Path is the directory within the repository holding the values
	// files.
	Path    string
	Timeout time.Duration
}

// load reads a values directory, logging each diagnostic.
func load(logger log.Logger, dir string, opts manifests.Options) (t *tree.Tree, diagnostics []error, err error) {
	defer func(start time.Time) { observeStage(StageLoad, start, err) }(time.Now())
	t, diagnostics, err = manifests.Load(dir, opts)
	if err != nil {
		return nil, nil, err
	}
	for _, d := range diagnostics {
		level.Warn(logger).Log("dir", dir, "err", d)
	}
	level.Debug(logger).Log("dir", dir, "services", t.Len())
	return t, diagnostics, nil
}

// gitValues are the values read from a GitSource.
type gitValues struct {
	current, previous *tree.Tree
	// changedFiles are the files in the values directory changed
	// since the previous ref, relative to that directory.
	changedFiles []string
	diagnostics  []error
}

// loadGit reads the values at both refs of src. previous is nil when
// src has no PreviousRef.
func loadGit(ctx context.Context, logger log.Logger, src GitSource, opts manifests.Options) (*gitValues, error) {
	if src.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, src.Timeout)
		defer cancel()
	}
	logger = log.With(logger, "url", src.Remote.SafeURL())

	export, err := git.NewExport(ctx, src.Remote, src.Ref)
	if err != nil {
		return nil, err
	}
	defer export.Clean()

	dir := filepath.Join(export.Dir(), src.Path)
	values := &gitValues{}
	values.current, values.diagnostics, err = load(log.With(logger, "ref", src.Ref), dir, opts)
	if err != nil {
		return nil, err
	}
	revision, err := export.Revision(ctx, "HEAD")
	if err != nil {
		return nil, err
	}
	if src.PreviousRef == "" {
		level.Info(logger).Log("ref", src.Ref, "revision", revision)
		return values, nil
	}

	since, err := export.Resolve(ctx, src.PreviousRef)
	if err != nil {
		return nil, err
	}
	if values.changedFiles, err = changedValuesFiles(ctx, export, since, src.Path, dir); err != nil {
		return nil, err
	}
	level.Info(logger).Log("ref", src.Ref, "revision", revision, "since", src.PreviousRef, "changed-files", len(values.changedFiles))
	for _, file := range values.changedFiles {
		level.Debug(logger).Log("changed", file)
	}

	if err = export.Checkout(ctx, src.PreviousRef); err != nil {
		return nil, err
	}
	prevLogger := log.With(logger, "ref", src.PreviousRef)
	previous, more, err := load(prevLogger, dir, opts)
	if err != nil {
		if !os.IsNotExist(errors.Cause(err)) {
			return nil, err
		}
		level.Warn(prevLogger).Log("dir", src.Path, "msg", "values directory not present; comparing with nothing")
		previous, more = tree.New(), []error{err}
	}
	values.previous = previous
	values.diagnostics = append(values.diagnostics, more...)
	return values, nil
}

func changedValuesFiles(ctx context.Context, export *git.Export, since, path, dir string) ([]string, error) {
	var paths []string
	if path != "" {
		paths = []string{path}
	}
	files, err := export.ChangedFiles(ctx, since, paths)
	if err != nil {
		return nil, errors.Wrapf(err, "listing files changed since %s", since)
	}
	rel := make([]string, 0, len(files))
	for _, f := range files {
		r, err := filepath.Rel(dir, f)
		if err != nil {
			return nil, err
		}
		rel = append(rel, filepath.ToSlash(r))
	}
	return rel, nil
}
