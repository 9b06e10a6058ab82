package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tapirlang/tapir/internal/harness"
)

// TestResult holds scenario run results.
type TestResult struct {
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
	Failures []TestFailure `json:"failures,omitempty"`
}

// TestFailure describes one failed scenario.
type TestFailure struct {
	Scenario string `json:"scenario"`
	Message  string `json:"message"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test <scenario.yaml|dir>...",
		Short: "Run YAML evaluation scenarios",
		Long: `Run one or more evaluation scenarios. Directory arguments are
scanned for *.yaml files. Each scenario compiles its program, validates
the graph, evaluates it, and checks the expected outputs or the
expected failure.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runTest(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	paths, err := collectScenarioFiles(args)
	if err != nil {
		_ = formatter.Error(errCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "scenario discovery failed", err)
	}

	result := TestResult{}
	for _, path := range paths {
		name := filepath.Base(path)
		scenario, err := harness.LoadScenario(path)
		if err == nil {
			name = scenario.Name
			_, err = harness.Run(scenario)
		}
		if err != nil {
			result.Failed++
			result.Failures = append(result.Failures, TestFailure{Scenario: name, Message: err.Error()})
			if formatter.Format == "text" {
				fmt.Fprintf(formatter.Writer, "✗ %s\n  %v\n", name, err)
			}
			continue
		}
		result.Passed++
		if formatter.Format == "text" {
			fmt.Fprintf(formatter.Writer, "✓ %s\n", name)
		}
	}

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(formatter.Writer, "\n%d passed, %d failed\n", result.Passed, result.Failed)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// collectScenarioFiles expands directories into their *.yaml files.
func collectScenarioFiles(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("scenario path not found: %s", arg)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(arg, "*.yaml"))
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no scenario files found in %s", arg)
		}
		sort.Strings(matches)
		paths = append(paths, matches...)
	}
	return paths, nil
}
