package main

import (
	"github.com/spf13/cobra"

	"github.com/fluxcd/promote/pkg/promote"
)

type snapshotOpts struct {
	*rootOpts
}

func newSnapshot(root *rootOpts) *snapshotOpts {
	return &snapshotOpts{rootOpts: root}
}

func (opts *snapshotOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot <values-dir> <snapshot.json>",
		Short: "Save a values directory as a single JSON document",
		Example: makeExample(
			"promotectl snapshot envs/dev snapshots/config-dev.json",
		),
		RunE: opts.RunE,
	}
	return cmd
}

func (opts *snapshotOpts) RunE(cmd *cobra.Command, args []string) error {
	if err := wantArgs(2, args, "the values directory and the snapshot file"); err != nil {
		return err
	}
	loadOpts, err := opts.loadOptions(opts.global())
	if err != nil {
		return err
	}
	diagnostics, err := promote.Snapshot(opts.Logger, args[0], args[1], loadOpts)
	if err != nil {
		return err
	}
	opts.warnAll(diagnostics)
	return nil
}
