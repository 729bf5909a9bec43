// Package run implements "qwex run": compile a module and immediately
// execute the emitted script, forwarding its exit code the way
// process.ChildExit propagates a child's exit code in internal/cmd/root.go.
package run

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/qwexsh/qwex/internal/cmdutil"
	"github.com/qwexsh/qwex/internal/pipeline"
)

// GetCmd returns the "run" subcommand.
func GetCmd(helper *cmdutil.Helper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <source> [task]",
		Short: "Compile a module and execute the resulting script",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := helper.GetCmdBase()
			if err != nil {
				return err
			}

			source := args[0]
			task := "main"
			if len(args) == 2 {
				task = args[1]
			}

			p := pipeline.New(base.Config)
			script, err := p.Compile(source)
			if err != nil {
				return base.LogPipelineError(err, "compile failed")
			}

			scriptPath := base.Config.ScriptPath()
			if err := os.MkdirAll(filepath.Dir(scriptPath), 0o755); err != nil {
				return base.LogError("could not create target directory: %v", err)
			}
			if err := os.WriteFile(scriptPath, []byte(script), 0o755); err != nil {
				return base.LogError("could not write script: %v", err)
			}

			child := exec.Command("sh", scriptPath, task)
			child.Stdout = os.Stdout
			child.Stderr = os.Stderr
			child.Stdin = os.Stdin

			runErr := child.Run()
			if runErr == nil {
				return nil
			}
			if exitErr, ok := runErr.(*exec.ExitError); ok {
				return &cmdutil.Error{ExitCode: exitErr.ExitCode(), Err: exitErr}
			}
			return base.LogError("could not execute script: %v", runErr)
		},
	}
	return cmd
}
