package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/tapirlang/tapir/internal/ir"
)

// Snapshot renders a scenario result as stable text: the scenario name,
// the compiled graph, and the outputs in order. The rendered graph uses
// compact first-appearance naming, so snapshots do not depend on arena
// ids.
func Snapshot(name string, result *Result) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "scenario: %s\n", name)
	sb.WriteString("program:\n")
	sb.WriteString(ir.Render(result.Program.Prog))
	sb.WriteString("\noutputs:\n")
	for _, out := range result.Outputs {
		fmt.Fprintf(&sb, "- %v\n", out)
	}
	return []byte(sb.String())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// want_error scenarios have no snapshot; they pass when the expected
// failure occurs.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, Snapshot(scenario.Name, result))
	return nil
}
