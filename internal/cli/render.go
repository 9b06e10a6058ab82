package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tapirlang/tapir/internal/ir"
)

// RenderResult holds the rendered graph.
type RenderResult struct {
	Program  string `json:"program,omitempty"`
	Rendered string `json:"rendered"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <program.cue>",
		Short: "Compile a program description and print its graph",
		Long: `Compile a CUE program description and print the graph in the
diagnostic text form. The text is stable for a given graph shape but
is not a machine-readable serialization.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runRender(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	prog, err := loadProgram(path)
	if err != nil {
		return reportFailure(formatter, err)
	}

	rendered := ir.Render(prog.Prog)
	if formatter.Format == "json" {
		return formatter.Success(RenderResult{Program: prog.Name, Rendered: rendered})
	}
	fmt.Fprintln(formatter.Writer, rendered)
	return nil
}
