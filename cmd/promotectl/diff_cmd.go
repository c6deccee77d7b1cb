package main

import (
	"context"

	"github.com/go-kit/kit/log"
	"github.com/spf13/cobra"

	"github.com/fluxcd/promote/pkg/diff"
	"github.com/fluxcd/promote/pkg/git"
	"github.com/fluxcd/promote/pkg/promote"
)

type diffOpts struct {
	*rootOpts
	values      string
	previous    string
	snapshot    string
	releaseNote string
	envs        []string
	quiet       bool

	gitURL         string
	gitRef         string
	gitPreviousRef string
	gitPath        string
}

func newDiff(root *rootOpts) *diffOpts {
	return &diffOpts{rootOpts: root}
}

func (opts *diffOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Work out what changed in the source environment and write a release note",
		Example: makeExample(
			"promotectl diff --values dev/ --previous dev-last-release/ --release-note notes.xlsx",
			"promotectl diff --values dev/ --snapshot snapshots/config-dev.json --release-note notes.csv",
			"promotectl diff --git-url git@github.com:example/config --git-ref main --git-previous-ref semver:~1 --git-path values/dev",
		),
		RunE: opts.RunE,
	}
	cmd.Flags().StringVar(&opts.values, "values", "", "directory holding the current values files")
	cmd.Flags().StringVar(&opts.previous, "previous", "", "directory holding the values to compare against")
	cmd.Flags().StringVar(&opts.snapshot, "snapshot", "", "JSON snapshot compared against when there is no --previous, and then replaced with the current values")
	cmd.Flags().StringVar(&opts.releaseNote, "release-note", "", "release note to write (.xlsx, or .csv for one file per environment)")
	cmd.Flags().StringSliceVar(&opts.envs, "env", nil, "environments to write sheets for; defaults to the configured environments")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "do not print a summary of the changes")

	cmd.Flags().StringVar(&opts.gitURL, "git-url", "", "URL of a git repo holding the values, instead of --values")
	cmd.Flags().StringVar(&opts.gitRef, "git-ref", "HEAD", "branch, tag, revision or semver: pattern with the current values")
	cmd.Flags().StringVar(&opts.gitPreviousRef, "git-previous-ref", "", "ref with the values to compare against; the snapshot is used if not given")
	cmd.Flags().StringVar(&opts.gitPath, "git-path", "", "directory within the repo holding the values files")
	return cmd
}

func (opts *diffOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errorWantedNoArgs
	}
	if err := checkExactlyOne("--values or --git-url", opts.values != "", opts.gitURL != ""); err != nil {
		return err
	}
	if opts.gitURL != "" && opts.previous != "" {
		return newUsageError("--previous cannot be used with --git-url; use --git-previous-ref")
	}

	settings := opts.global()
	loadOpts, err := opts.loadOptions(settings)
	if err != nil {
		return err
	}
	envs := opts.envs
	if len(envs) == 0 {
		envs = opts.Config.Environments
	}

	genOpts := promote.GenerateOptions{
		Values:        opts.values,
		Previous:      opts.previous,
		Snapshot:      opts.snapshot,
		ReleaseNote:   opts.releaseNote,
		Environments:  envs,
		IdentityKey:   settings.IdentityKey,
		PathSeparator: opts.Config.PathSeparator,
		Load:          loadOpts,
		Logger:        log.With(opts.Logger, "component", "diff"),
	}
	if opts.gitURL != "" {
		genOpts.Git = &promote.GitSource{
			Remote:      git.Remote{URL: opts.gitURL},
			Ref:         opts.gitRef,
			PreviousRef: opts.gitPreviousRef,
			Path:        opts.gitPath,
			Timeout:     opts.Config.GitTimeout,
		}
	}

	result, err := promote.Generate(context.Background(), genOpts)
	if err != nil {
		return err
	}
	if !opts.quiet {
		diff.Summarise(cmd.OutOrStdout(), result.Changes, settings.IdentityKey)
	}
	return nil
}
