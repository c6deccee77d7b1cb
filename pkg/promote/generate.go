package promote

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/fluxcd/promote/pkg/changeset"
	"github.com/fluxcd/promote/pkg/diff"
	"github.com/fluxcd/promote/pkg/manifests"
	"github.com/fluxcd/promote/pkg/releasenote"
	"github.com/fluxcd/promote/pkg/tree"
)

type GenerateOptions struct {
	// Values is the directory with the current values. Ignored if Git
	// is given.
	Values string
	// Previous is a directory with the values to compare against. If
	// empty, the values are compared with the snapshot.
	Previous string
	// Snapshot, if given, is read as the previous values when there
	// is no other source of them, and is replaced with the current
	// values once the release note is written.
	Snapshot string
	Git      *GitSource

	// ReleaseNote is the path of the note to write. If empty, no note
	// is written.
	ReleaseNote   string
	Environments  []string
	IdentityKey   string
	PathSeparator string
	Load          manifests.Options
	Logger        log.Logger
}

type GenerateResult struct {
	Previous *tree.Tree
	Current  *tree.Tree
	Changes  changeset.Set
	// ChangedFiles lists the values files git reports as changed
	// between the refs, when comparing two refs of a GitSource.
	ChangedFiles []string
	Diagnostics  []error
}

// Generate works out what changed in the source environment and
// writes it out as a release note.
func Generate(ctx context.Context, opts GenerateOptions) (*GenerateResult, error) {
	logger := orNop(opts.Logger)
	result := &GenerateResult{}

	var err error
	switch {
	case opts.Git != nil:
		var values *gitValues
		if values, err = loadGit(ctx, logger, *opts.Git, opts.Load); err == nil {
			result.Current, result.Previous = values.current, values.previous
			result.ChangedFiles, result.Diagnostics = values.changedFiles, values.diagnostics
		}
	default:
		result.Current, result.Diagnostics, err = load(logger, opts.Values, opts.Load)
		if err == nil && opts.Previous != "" {
			var more []error
			result.Previous, more, err = load(logger, opts.Previous, opts.Load)
			result.Diagnostics = append(result.Diagnostics, more...)
		}
	}
	if err != nil {
		return nil, err
	}

	if opts.Snapshot != "" && result.Previous == nil {
		start := time.Now()
		previous, err := manifests.ReadSnapshot(opts.Snapshot)
		observeStage(StageSnapshot, start, nil)
		if err != nil {
			level.Warn(logger).Log("snapshot", opts.Snapshot, "msg", "no usable previous snapshot; every service counts as added", "err", err)
			result.Diagnostics = append(result.Diagnostics, err)
		}
		result.Previous = previous
	}
	if result.Previous == nil {
		result.Previous = tree.New()
	}

	start := time.Now()
	differ := diff.New(diff.WithIdentityKey(identityKey(opts.IdentityKey)), diff.WithFilter(opts.Load.Filter))
	result.Changes = differ.Diff(result.Previous, result.Current)
	observeStage(StageDiff, start, nil)
	level.Info(logger).Log(
		"changes", result.Changes.Len(),
		"services", len(result.Changes.Entities()),
		"added", result.Changes.Count(changeset.Add)+result.Changes.Count(changeset.RootAdd),
		"modified", result.Changes.Count(changeset.Modify),
		"deleted", result.Changes.Count(changeset.Delete)+result.Changes.Count(changeset.RootDelete),
	)

	if opts.ReleaseNote != "" {
		if err := writeNote(opts.ReleaseNote, result.Changes, opts.Environments, separator(opts.PathSeparator)); err != nil {
			return nil, err
		}
		level.Info(logger).Log("release-note", opts.ReleaseNote, "environments", len(opts.Environments))
	}
	// The snapshot is the baseline for the next run, so it only moves
	// once the changes since the last one are written down.
	if opts.Snapshot != "" {
		if err := writeSnapshot(opts.Snapshot, result.Current); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func writeSnapshot(path string, t *tree.Tree) (err error) {
	defer func(start time.Time) { observeStage(StageSnapshot, start, err) }(time.Now())
	return manifests.WriteSnapshot(path, t)
}

func writeNote(path string, set changeset.Set, envs []string, sep string) (err error) {
	defer func(start time.Time) { observeStage(StageWrite, start, err) }(time.Now())
	m, err := releasenote.Open(path)
	if err != nil {
		return err
	}
	return releasenote.Write(m, set, envs, sep)
}
