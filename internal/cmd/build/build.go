// Package build implements "qwex build", the compiler's primary entry
// point: resolve, render, and emit a module into a shell script on disk.
// Grounded on internal/cmd/prune/prune.go's GetCmd(helper) cobra-command
// shape and RunE error-logging pattern.
package build

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/qwexsh/qwex/internal/cmdutil"
	"github.com/qwexsh/qwex/internal/errs"
	"github.com/qwexsh/qwex/internal/graph"
	"github.com/qwexsh/qwex/internal/pipeline"
)

// GetCmd returns the "build" subcommand.
func GetCmd(helper *cmdutil.Helper) *cobra.Command {
	var opts struct {
		output    string
		graphFile string
	}

	cmd := &cobra.Command{
		Use:   "build <source>",
		Short: "Compile a module into a shell script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := helper.GetCmdBase()
			if err != nil {
				return err
			}

			source := args[0]
			base.Logger.Debug("compiling", "source", source)

			p := pipeline.New(base.Config)
			script, err := p.Compile(source)
			if err != nil {
				return base.LogPipelineError(err, "compile failed")
			}

			out := opts.output
			if out == "" {
				out = base.Config.ScriptPath()
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return base.LogError("could not create output directory: %v", err)
			}
			if err := os.WriteFile(out, []byte(script), 0o755); err != nil {
				return base.LogError("could not write script: %v", err)
			}

			if opts.graphFile != "" {
				if err := writeGraph(p, opts.graphFile); err != nil {
					return base.LogError("could not write graph: %v", err)
				}
			}

			if _, err := p.WriteDiagnostics(); err != nil {
				base.Logger.Warn("failed to write diagnostic dump", "error", err)
			}

			base.UI.Printf("%s", base.UI.Compiledf(source, out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Path to write the compiled script to (default <home>/target/<features>/qwex.sh)")
	cmd.Flags().StringVar(&opts.graphFile, "graph", "", "Path to write a Graphviz dot export of the task dependency graph")
	return cmd
}

func writeGraph(p *pipeline.Pipeline, path string) error {
	g, err := graph.FromTasks(p.Tasks)
	if err != nil {
		return err
	}
	return writeFile(path, graph.Dot(g))
}

func writeFile(path, contents string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &errs.IOError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		return &errs.IOError{Path: path, Err: err}
	}
	return nil
}
