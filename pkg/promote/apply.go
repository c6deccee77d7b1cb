package promote

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"

	"github.com/fluxcd/promote/pkg/changeset"
	promoteerrors "github.com/fluxcd/promote/pkg/errors"
	"github.com/fluxcd/promote/pkg/manifests"
	"github.com/fluxcd/promote/pkg/patch"
	"github.com/fluxcd/promote/pkg/pattern"
	"github.com/fluxcd/promote/pkg/releasenote"
	"github.com/fluxcd/promote/pkg/tree"
)

type ApplyOptions struct {
	// Environment names the sheet of the release note to apply.
	Environment string
	// Values is the environment's values directory.
	Values      string
	ReleaseNote string
	// Output is where the patched values are written; if empty, they
	// are written back to Values.
	Output string
	Format manifests.Format

	// Snapshots of the values before and after patching, if wanted.
	SnapshotBefore string
	SnapshotAfter  string
	// ServicesFile lists, one per line, the services the sheet
	// touches.
	ServicesFile string

	IdentityKey   string
	PathSeparator string
	Load          manifests.Options
	Logger        log.Logger
}

type ApplyResult struct {
	Environment string
	Before      *tree.Tree
	After       *tree.Tree
	Report      *patch.Report
	Services    []string
	// Diagnostics are problems reading the values or the sheet; rows
	// that couldn't be read are not included in Report.
	Diagnostics []error
}

// Apply patches one environment's values with its sheet of the
// release note.
func Apply(ctx context.Context, opts ApplyOptions) (*ApplyResult, error) {
	logger := log.With(orNop(opts.Logger), "environment", opts.Environment)
	result := &ApplyResult{Environment: opts.Environment}

	var err error
	result.Before, result.Diagnostics, err = load(logger, opts.Values, opts.Load)
	if err != nil {
		return nil, err
	}
	if opts.SnapshotBefore != "" {
		if err := writeSnapshot(opts.SnapshotBefore, result.Before); err != nil {
			return nil, err
		}
	}

	set, rowErrors, err := readNote(opts.ReleaseNote, opts.Environment, separator(opts.PathSeparator), identityKey(opts.IdentityKey))
	if err != nil {
		return nil, err
	}
	for _, e := range rowErrors {
		level.Warn(logger).Log("release-note", opts.ReleaseNote, "err", e)
	}
	result.Diagnostics = append(result.Diagnostics, rowErrors...)
	set = set.Only(func(r changeset.Record) bool {
		return opts.Load.Filter.Matches(r.Entity)
	})

	start := time.Now()
	patcher := patch.New(
		patch.WithIdentityKey(identityKey(opts.IdentityKey)),
		patch.WithLogger(log.With(logger, "component", "patch")),
	)
	result.After, result.Report = patcher.Apply(result.Before, set)
	observeStage(StagePatch, start, nil)
	level.Info(logger).Log("applied", result.Report.Applied, "skipped", result.Report.Skipped())

	output := opts.Output
	if output == "" {
		output = opts.Values
	}
	if err := emit(result.After, output, opts.Format, opts.Load.Filter); err != nil {
		return nil, err
	}
	if opts.SnapshotAfter != "" {
		if err := writeSnapshot(opts.SnapshotAfter, result.After); err != nil {
			return nil, err
		}
	}

	result.Services = releasenote.Services(set)
	if opts.ServicesFile != "" {
		if err := writeServices(opts.ServicesFile, result.Services); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func readNote(path, sheet, sep, idKey string) (set changeset.Set, rowErrors []error, err error) {
	defer func(start time.Time) { observeStage(StageRead, start, err) }(time.Now())
	m, err := releasenote.Open(path)
	if err != nil {
		return changeset.Set{}, nil, err
	}
	return releasenote.Read(m, sheet, sep, idKey)
}

// emit writes the patched tree. Entities removed by the patch have
// their files removed too.
func emit(t *tree.Tree, dir string, format manifests.Format, filter pattern.Matcher) (err error) {
	defer func(start time.Time) { observeStage(StageEmit, start, err) }(time.Now())
	if format == "" {
		format = manifests.YAML
	}
	if err := removeStale(t, dir, format, filter); err != nil {
		return err
	}
	return manifests.Emit(t, dir, format)
}

// removeStale deletes the values files at the top of dir that would
// otherwise be left behind: those for entities no longer in t, and
// those in a different format from the one being written. Files for
// entities outside the filter are not touched.
func removeStale(t *tree.Tree, dir string, format manifests.Format, filter pattern.Matcher) error {
	infos, err := ioutil.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return promoteerrors.IOError(err, "reading output directory %s", dir)
	}
	for _, info := range infos {
		ext := filepath.Ext(info.Name())
		switch strings.ToLower(ext) {
		case ".yaml", ".yml", ".json":
		default:
			continue
		}
		entity := strings.TrimSuffix(info.Name(), ext)
		if info.IsDir() || !filter.Matches(entity) {
			continue
		}
		if t.Has(entity) && ext == format.Ext() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, info.Name())); err != nil {
			return promoteerrors.IOError(err, "removing %s", info.Name())
		}
	}
	return nil
}

func writeServices(path string, services []string) error {
	content := strings.Join(services, "\n")
	if len(services) > 0 {
		content += "\n"
	}
	if err := ioutil.WriteFile(path, []byte(content), 0644); err != nil {
		return promoteerrors.IOError(err, "writing services list %s", path)
	}
	return nil
}
