package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tapirlang/tapir/internal/ir"
	"github.com/tapirlang/tapir/internal/trace"
)

// EvalResult holds evaluation results.
type EvalResult struct {
	Program string `json:"program,omitempty"`
	Outputs []any  `json:"outputs"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	var inputs []string

	cmd := &cobra.Command{
		Use:   "eval <program.cue>",
		Short: "Evaluate a program description on concrete inputs",
		Long: `Compile and validate a CUE program description, bind the --in
values to its declared inputs, and evaluate the graph.

Input values are name=value pairs: integers (42), floats (1.5),
booleans (true), and unsigned words (u32:7).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(rootOpts, args[0], inputs, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&inputs, "in", nil, "input binding name=value (repeatable)")

	return cmd
}

func runEval(opts *RootOptions, path string, inputs []string, cmd *cobra.Command) error {
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
	if err := ir.Check(prog.Prog); err != nil {
		_ = formatter.Error(string(ir.MalformedCodeOf(err)), err.Error(), nil)
		return NewExitError(ExitFailure, fmt.Sprintf("check failed: %v", err))
	}

	args, err := bindInputs(prog.Inputs, inputs)
	if err != nil {
		_ = formatter.Error(errCodeInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "bad input binding", err)
	}

	formatter.VerboseLog("Evaluating %s with %d input(s)", path, len(args))
	outs, err := ir.Eval(trace.NewState(), prog.Prog, prog.Consts, nil, args)
	if err != nil {
		_ = formatter.Error(errCodeEval, err.Error(), nil)
		return WrapExitError(ExitFailure, "evaluation failed", err)
	}

	if formatter.Format == "json" {
		result := EvalResult{Program: prog.Name, Outputs: make([]any, len(outs))}
		copy(result.Outputs, outs)
		return formatter.Success(result)
	}
	for _, out := range outs {
		fmt.Fprintln(formatter.Writer, out)
	}
	return nil
}

// bindInputs resolves name=value pairs against the declared input
// names, in declaration order.
func bindInputs(names []string, pairs []string) ([]trace.Value, error) {
	bound := map[string]trace.Value{}
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("input %q is not a name=value pair", pair)
		}
		val, err := parseScalar(raw)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", name, err)
		}
		bound[name] = val
	}

	args := make([]trace.Value, len(names))
	for i, name := range names {
		val, ok := bound[name]
		if !ok {
			return nil, fmt.Errorf("no value for input %q", name)
		}
		args[i] = val
		delete(bound, name)
	}
	for name := range bound {
		return nil, fmt.Errorf("unknown input %q", name)
	}
	return args, nil
}

// parseScalar parses a scalar literal from command-line text.
func parseScalar(raw string) (trace.Value, error) {
	if word, ok := strings.CutPrefix(raw, "u32:"); ok {
		u, err := strconv.ParseUint(word, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid unsigned word %q", word)
		}
		return uint32(u), nil
	}
	if raw == "true" || raw == "false" {
		return raw == "true", nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i, nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f, nil
	}
	return nil, fmt.Errorf("invalid scalar %q", raw)
}
