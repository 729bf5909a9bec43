// Package clean implements "qwex clean": remove the qwex home directory,
// the supplemented feature from original_source/'s Pipeline::clean().
package clean

import (
	"github.com/spf13/cobra"

	"github.com/qwexsh/qwex/internal/cmdutil"
	"github.com/qwexsh/qwex/internal/pipeline"
)

// GetCmd returns the "clean" subcommand.
func GetCmd(helper *cmdutil.Helper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove qwex's persisted home directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := helper.GetCmdBase()
			if err != nil {
				return err
			}
			p := pipeline.New(base.Config)
			if err := p.Clean(); err != nil {
				return base.LogPipelineError(err, "clean failed")
			}
			base.UI.Printf("%s", base.UI.Sucessf("removed %s", base.Config.Home))
			return nil
		},
	}
	return cmd
}
