package main

import (
	"context"
	"fmt"

	"github.com/go-kit/kit/log"
	"github.com/spf13/cobra"

	"github.com/fluxcd/promote/pkg/config"
	"github.com/fluxcd/promote/pkg/manifests"
	"github.com/fluxcd/promote/pkg/promote"
	"github.com/fluxcd/promote/pkg/releasenote"
)

type applyOpts struct {
	*rootOpts
	values         string
	releaseNote    string
	envs           []string
	output         string
	snapshotBefore string
	snapshotAfter  string
	servicesFile   string
}

func newApply(root *rootOpts) *applyOpts {
	return &applyOpts{rootOpts: root}
}

func (opts *applyOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply the sheets of a release note to each environment's values",
		Long: `Apply the sheets of a release note to each environment's values.

Paths may contain {env}, which is replaced with the name of the
environment being patched. When no --env is given, every sheet with
values filled in is applied, for the environments configured after
the source environment.`,
		Example: makeExample(
			"promotectl apply --values envs/{env} --release-note notes.xlsx",
			"promotectl apply --values envs/sit --release-note notes.xlsx --env sit --output out/sit --services-file deploy-sit.txt",
		),
		RunE: opts.RunE,
	}
	cmd.Flags().StringVar(&opts.values, "values", "", "directory holding the environment's values files; defaults to the environment's configured values")
	cmd.Flags().StringVar(&opts.releaseNote, "release-note", "", "release note to apply")
	cmd.Flags().StringSliceVar(&opts.envs, "env", nil, "environments to apply; defaults to every filled-in sheet but the source environment's")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "directory to write the patched values to; defaults to overwriting --values")
	cmd.Flags().StringVar(&opts.snapshotBefore, "snapshot-before", "", "write a JSON snapshot of the values before patching")
	cmd.Flags().StringVar(&opts.snapshotAfter, "snapshot-after", "", "write a JSON snapshot of the values after patching")
	cmd.Flags().StringVar(&opts.servicesFile, "services-file", "", "write the services touched, one per line, to this file")
	return cmd
}

func (opts *applyOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errorWantedNoArgs
	}
	if opts.releaseNote == "" {
		return newUsageError("--release-note is required")
	}

	envs := opts.envs
	if len(envs) == 0 {
		m, err := releasenote.Open(opts.releaseNote)
		if err != nil {
			return err
		}
		if envs, err = opts.readyEnvironments(m); err != nil {
			return err
		}
		if len(envs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No environment has values filled in; nothing to apply.")
			return nil
		}
	}

	for _, env := range envs {
		envOpts, err := opts.forEnvironment(env)
		if err != nil {
			return err
		}
		result, err := promote.Apply(context.Background(), envOpts)
		if err != nil {
			return err
		}
		result.Report.Print(cmd.OutOrStdout())
		if len(result.Diagnostics) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d problem(s) reading values or release note; see log\n", env, len(result.Diagnostics))
		}
	}
	return nil
}

func (opts *applyOpts) forEnvironment(env string) (promote.ApplyOptions, error) {
	settings, err := opts.Config.ForEnvironment(env)
	if err != nil {
		return promote.ApplyOptions{}, err
	}
	loadOpts, err := opts.loadOptions(settings)
	if err != nil {
		return promote.ApplyOptions{}, err
	}
	format, err := manifests.ParseFormat(settings.Format)
	if err != nil {
		return promote.ApplyOptions{}, newUsageError(err.Error())
	}

	values := firstOf(opts.values, settings.Values)
	if values == "" {
		return promote.ApplyOptions{}, newUsageError(fmt.Sprintf("no values directory for %s; supply --values or configure overrides.%s.values", env, env))
	}
	expand := func(path string) string {
		return config.ExpandEnv(path, env)
	}
	return promote.ApplyOptions{
		Environment:    env,
		Values:         expand(values),
		ReleaseNote:    opts.releaseNote,
		Output:         expand(firstOf(opts.output, settings.Output)),
		Format:         format,
		SnapshotBefore: expand(opts.snapshotBefore),
		SnapshotAfter:  expand(opts.snapshotAfter),
		ServicesFile:   expand(opts.servicesFile),
		IdentityKey:    settings.IdentityKey,
		PathSeparator:  opts.Config.PathSeparator,
		Load:           loadOpts,
		Logger:         log.With(opts.Logger, "component", "apply"),
	}, nil
}

func firstOf(s ...string) string {
	for _, v := range s {
		if v != "" {
			return v
		}
	}
	return ""
}
