package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fluxcd/promote/pkg/releasenote"
)

type envsOpts struct {
	*rootOpts
	releaseNote string
	all         bool
}

func newEnvs(root *rootOpts) *envsOpts {
	return &envsOpts{rootOpts: root}
}

func (opts *envsOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "envs",
		Short: "List the environments whose sheets are ready to apply",
		Example: makeExample(
			"promotectl envs --release-note notes.xlsx",
			"promotectl envs --release-note notes.xlsx --all",
		),
		RunE: opts.RunE,
	}
	cmd.Flags().StringVar(&opts.releaseNote, "release-note", "", "release note to look at")
	cmd.Flags().BoolVarP(&opts.all, "all", "a", false, "list every sheet, with whether it is ready")
	return cmd
}

func (opts *envsOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errorWantedNoArgs
	}
	if opts.releaseNote == "" {
		return newUsageError("--release-note is required")
	}
	m, err := releasenote.Open(opts.releaseNote)
	if err != nil {
		return err
	}
	ready, err := opts.readyEnvironments(m)
	if err != nil {
		return err
	}
	if !opts.all {
		for _, env := range ready {
			fmt.Fprintln(cmd.OutOrStdout(), env)
		}
		return nil
	}

	isReady := map[string]bool{}
	for _, env := range ready {
		isReady[env] = true
	}
	isLater := map[string]bool{}
	for _, env := range opts.Config.Later() {
		isLater[env] = true
	}
	out := newTabwriter(cmd.OutOrStdout())
	fmt.Fprintln(out, "ENVIRONMENT\tSTATUS")
	for _, sheet := range m.Sheets() {
		status := "waiting for values"
		switch {
		case sheet == opts.Config.SourceEnvironment:
			status = "source"
		case !isLater[sheet]:
			status = "not promoted to"
		case isReady[sheet]:
			status = "ready"
		}
		fmt.Fprintf(out, "%s\t%s\n", sheet, status)
	}
	return out.Flush()
}
