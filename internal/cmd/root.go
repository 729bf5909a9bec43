// Package cmd holds the root cobra command for qwex.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/qwexsh/qwex/internal/cmd/build"
	"github.com/qwexsh/qwex/internal/cmd/clean"
	"github.com/qwexsh/qwex/internal/cmd/run"
	"github.com/qwexsh/qwex/internal/cmdutil"
)

// RunWithArgs runs qwex with the specified arguments, not including the
// binary name itself, and returns the process exit code. Grounded on
// internal/cmd/root.go's RunWithArgs, trimmed of the daemon/signal-watcher
// machinery qwex's single-shot compile has no use for.
func RunWithArgs(args []string, version string) int {
	helper := cmdutil.NewHelper(version)
	root := getCmd(helper)
	root.SetArgs(args)
	defer helper.Cleanup()

	if err := root.Execute(); err != nil {
		if cmdErr, ok := err.(*cmdutil.Error); ok {
			return cmdErr.ExitCode
		}
		return 1
	}
	return 0
}

// getCmd returns the root cobra command with every qwex subcommand wired
// in, per SPEC_FULL.md §8's "qwex [--qwex-home DIR] [-v|-vv|-vvv]" surface.
func getCmd(helper *cmdutil.Helper) *cobra.Command {
	cmd := &cobra.Command{
		Use:              "qwex",
		Short:            "Compile declarative build modules into a single shell script",
		TraverseChildren: true,
		Version:          helper.Version,
		SilenceUsage:     true,
		SilenceErrors:    true,
	}
	cmd.SetVersionTemplate("{{.Version}}\n")
	helper.AddFlags(cmd.PersistentFlags())

	cmd.AddCommand(build.GetCmd(helper))
	cmd.AddCommand(run.GetCmd(helper))
	cmd.AddCommand(clean.GetCmd(helper))
	return cmd
}
