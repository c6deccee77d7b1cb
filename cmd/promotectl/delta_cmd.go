package main

import (
	"github.com/spf13/cobra"

	"github.com/fluxcd/promote/pkg/promote"
)

type deltaOpts struct {
	*rootOpts
}

func newDelta(root *rootOpts) *deltaOpts {
	return &deltaOpts{rootOpts: root}
}

func (opts *deltaOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delta <original-dir> <updated-dir>",
		Short: "Print the JSON merge patch, as YAML, for each service changed between two values directories",
		Example: makeExample(
			"promotectl delta envs/sit envs/uat",
		),
		RunE: opts.RunE,
	}
	return cmd
}

func (opts *deltaOpts) RunE(cmd *cobra.Command, args []string) error {
	if err := wantArgs(2, args, "the original and updated values directories"); err != nil {
		return err
	}
	loadOpts, err := opts.loadOptions(opts.global())
	if err != nil {
		return err
	}
	patches, diagnostics, err := promote.Delta(opts.Logger, args[0], args[1], loadOpts)
	if err != nil {
		return err
	}
	opts.warnAll(diagnostics)

	out := cmd.OutOrStdout()
	for _, p := range patches {
		bytes, err := p.YAML()
		if err != nil {
			return err
		}
		if _, err := out.Write([]byte("--- # " + p.Entity + "\n")); err != nil {
			return err
		}
		if _, err := out.Write(bytes); err != nil {
			return err
		}
	}
	return nil
}
