package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fluxcd/promote/pkg/releasenote"
)

type servicesOpts struct {
	*rootOpts
	releaseNote string
	env         string
}

func newServices(root *rootOpts) *servicesOpts {
	return &servicesOpts{rootOpts: root}
}

func (opts *servicesOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "services",
		Short: "List the services a sheet of the release note touches",
		Example: makeExample(
			"promotectl services --release-note notes.xlsx --env sit > deploy-sit.txt",
		),
		RunE: opts.RunE,
	}
	cmd.Flags().StringVar(&opts.releaseNote, "release-note", "", "release note to look at")
	cmd.Flags().StringVar(&opts.env, "env", "", "sheet to look at; defaults to the source environment's")
	return cmd
}

func (opts *servicesOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errorWantedNoArgs
	}
	if opts.releaseNote == "" {
		return newUsageError("--release-note is required")
	}
	env := firstOf(opts.env, opts.Config.SourceEnvironment)
	m, err := releasenote.Open(opts.releaseNote)
	if err != nil {
		return err
	}
	set, rowErrors, err := releasenote.Read(m, env, opts.Config.PathSeparator, opts.global().IdentityKey)
	if err != nil {
		return err
	}
	opts.warnAll(rowErrors)
	for _, service := range releasenote.Services(set) {
		fmt.Fprintln(cmd.OutOrStdout(), service)
	}
	return nil
}
