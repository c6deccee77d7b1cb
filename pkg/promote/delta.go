package promote

import (
	"github.com/go-kit/kit/log"

	"github.com/fluxcd/promote/pkg/diff"
	"github.com/fluxcd/promote/pkg/manifests"
)

// Delta returns, for each service present in both directories, the
// JSON merge patch that turns its old values into its new ones.
func Delta(logger log.Logger, oldDir, newDir string, opts manifests.Options) ([]diff.EntityPatch, []error, error) {
	logger = orNop(logger)
	old, diagnostics, err := load(logger, oldDir, opts)
	if err != nil {
		return nil, nil, err
	}
	current, more, err := load(logger, newDir, opts)
	if err != nil {
		return nil, nil, err
	}
	patches, err := diff.MergePatches(old, current)
	if err != nil {
		return nil, nil, err
	}
	return patches, append(diagnostics, more...), nil
}

// Snapshot saves a values directory as a single JSON document.
func Snapshot(logger log.Logger, dir, path string, opts manifests.Options) ([]error, error) {
	t, diagnostics, err := load(orNop(logger), dir, opts)
	if err != nil {
		return nil, err
	}
	return diagnostics, writeSnapshot(path, t)
}
