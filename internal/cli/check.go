package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tapirlang/tapir/internal/compiler"
	"github.com/tapirlang/tapir/internal/ir"
)

// CheckResult holds graph validation results.
type CheckResult struct {
	Valid   bool   `json:"valid"`
	Program string `json:"program,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <program.cue>",
		Short: "Compile a program description and validate its graph",
		Long: `Compile a CUE program description and run the structural validator
on the resulting graph: single definition per variable, no reads
before definition, resolvable closures. No evaluation happens.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runCheck(opts *RootOptions, path string, cmd *cobra.Command) error {
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
	formatter.VerboseLog("Compiled %s (%d equation(s))", path, len(prog.Prog.Eqns))

	if err := ir.Check(prog.Prog); err != nil {
		code := string(ir.MalformedCodeOf(err))
		if code == "" {
			code = errCodeCheck
		}
		_ = formatter.Error(code, err.Error(), nil)
		return NewExitError(ExitFailure, fmt.Sprintf("check failed: %v", err))
	}

	if formatter.Format == "json" {
		return formatter.Success(CheckResult{Valid: true, Program: prog.Name})
	}
	fmt.Fprintln(formatter.Writer, "✓ program valid")
	return nil
}

// Error code constants for CLI output.
const (
	errCodeCompile  = "COMPILE_ERROR"
	errCodeCheck    = "MALFORMED"
	errCodeEval     = "EVAL_ERROR"
	errCodeInput    = "BAD_INPUT"
	errCodeNotFound = "NOT_FOUND"
)

// loadProgram compiles a program description file, mapping missing
// files to command errors and compile failures to check failures.
func loadProgram(path string) (*compiler.Program, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("program file not found: %s", path)}
	}
	prog, err := compiler.CompileFile(path)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "compilation failed", err)
	}
	return prog, nil
}

// reportFailure prints a load/compile failure through the formatter and
// passes the exit error through.
func reportFailure(formatter *OutputFormatter, err error) error {
	code := errCodeCompile
	if GetExitCode(err) == ExitCommandError {
		code = errCodeNotFound
	}
	_ = formatter.Error(code, err.Error(), nil)
	return err
}
