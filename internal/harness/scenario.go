package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tapirlang/tapir/internal/compiler"
	"github.com/tapirlang/tapir/internal/ir"
	"github.com/tapirlang/tapir/internal/trace"
)

// Scenario defines an evaluation test scenario: a program description,
// input values, and either expected outputs or an expected failure.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Program is the path to the CUE program description, relative to
	// the scenario file location.
	Program string `yaml:"program"`

	// Inputs maps declared input names to scalar values.
	Inputs map[string]any `yaml:"inputs,omitempty"`

	// Outputs lists the expected results, in program output order.
	// Ignored when WantError is set.
	Outputs []any `yaml:"outputs,omitempty"`

	// WantError, when non-empty, asserts that compilation, validation
	// or evaluation fails with an error containing this substring.
	WantError string `yaml:"want_error,omitempty"`
}

// Result captures a successful scenario execution.
type Result struct {
	Program *compiler.Program
	Outputs []trace.Value
}

// LoadScenario reads and parses a scenario YAML file. Program paths are
// resolved relative to the scenario file. Unknown YAML fields are
// rejected to catch typos.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Program != "" && !filepath.IsAbs(scenario.Program) {
		scenario.Program = filepath.Join(filepath.Dir(path), scenario.Program)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Program == "" {
		return fmt.Errorf("program is required")
	}
	if _, err := os.Stat(s.Program); os.IsNotExist(err) {
		return fmt.Errorf("program file not found: %s", s.Program)
	}
	if len(s.Outputs) == 0 && s.WantError == "" {
		return fmt.Errorf("either outputs or want_error is required")
	}
	return nil
}

// Run executes a scenario end to end. For want_error scenarios a nil
// Result and nil error mean the expected failure occurred.
func Run(s *Scenario) (*Result, error) {
	outs, prog, err := execute(s)
	if s.WantError != "" {
		if err == nil {
			return nil, fmt.Errorf("scenario %s: expected error containing %q, got none", s.Name, s.WantError)
		}
		if !strings.Contains(err.Error(), s.WantError) {
			return nil, fmt.Errorf("scenario %s: expected error containing %q, got: %v", s.Name, s.WantError, err)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}

	if len(outs) != len(s.Outputs) {
		return nil, fmt.Errorf("scenario %s: got %d outputs, want %d", s.Name, len(outs), len(s.Outputs))
	}
	for i, want := range s.Outputs {
		if got, expected := outs[i], normalizeScalar(want); got != expected {
			return nil, fmt.Errorf("scenario %s: output %d is %v (%T), want %v (%T)", s.Name, i, got, got, expected, expected)
		}
	}
	return &Result{Program: prog, Outputs: outs}, nil
}

func execute(s *Scenario) ([]trace.Value, *compiler.Program, error) {
	prog, err := compiler.CompileFile(s.Program)
	if err != nil {
		return nil, nil, err
	}
	if err := ir.Check(prog.Prog); err != nil {
		return nil, nil, err
	}

	args := make([]trace.Value, len(prog.Inputs))
	for i, name := range prog.Inputs {
		raw, ok := s.Inputs[name]
		if !ok {
			return nil, nil, fmt.Errorf("scenario provides no value for input %q", name)
		}
		args[i] = normalizeScalar(raw)
	}
	for name := range s.Inputs {
		if !declaredInput(prog, name) {
			return nil, nil, fmt.Errorf("scenario sets unknown input %q", name)
		}
	}

	outs, err := ir.Eval(trace.NewState(), prog.Prog, prog.Consts, nil, args)
	if err != nil {
		return nil, nil, err
	}
	return outs, prog, nil
}

func declaredInput(prog *compiler.Program, name string) bool {
	for _, in := range prog.Inputs {
		if in == name {
			return true
		}
	}
	return false
}

// normalizeScalar maps YAML scalars onto kernel value types. Unsigned
// words use the same "u32:" string form the CLI accepts, since YAML
// integers have no 32-bit unsigned flavor.
func normalizeScalar(v any) trace.Value {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int64:
		return x
	case uint64:
		return int64(x)
	case float64:
		return x
	case bool:
		return x
	case string:
		if word, ok := strings.CutPrefix(x, "u32:"); ok {
			if u, err := strconv.ParseUint(word, 0, 32); err == nil {
				return uint32(u)
			}
		}
		return x
	default:
		return v
	}
}
