package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/tapirlang/tapir/internal/ir"
	"github.com/tapirlang/tapir/internal/kernel"
	"github.com/tapirlang/tapir/internal/trace"
)

// Program is a compiled program description: the graph plus the values
// bound to its constant variables, in order.
type Program struct {
	Name   string
	Prog   *ir.Prog
	Consts []trace.Value

	// Inputs holds the declared input names, in variable order.
	Inputs []string
}

// CompileFile compiles the program description in a CUE file.
func CompileFile(path string) (*Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &CompileError{
			Field:   "program",
			Message: fmt.Sprintf("reading %s: %v", path, err),
		}
	}
	return CompileString(string(src), path)
}

// CompileString compiles the program description in CUE source text.
// filename is used for error positions only.
func CompileString(src, filename string) (*Program, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	progVal := v.LookupPath(cue.ParsePath("program"))
	if !progVal.Exists() {
		return nil, &CompileError{
			Field:   "program",
			Message: "program struct is required",
			Pos:     v.Pos(),
		}
	}
	return Compile(progVal)
}

// Compile parses a CUE value into a Program.
//
// The CUE value should be the program struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`program: { ... }`)
//	prog, err := compiler.Compile(v.LookupPath(cue.ParsePath("program")))
func Compile(v cue.Value) (*Program, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	prog := &Program{}
	arena := ir.NewArena()
	graph := &ir.Prog{}
	scope := map[string]*ir.Var{}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if nameVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		prog.Name = name
	}

	// Constants (optional struct, declaration order).
	constsVal := v.LookupPath(cue.ParsePath("constants"))
	if constsVal.Exists() {
		iter, err := constsVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			label := iter.Label()
			if _, exists := scope[label]; exists {
				return nil, &CompileError{
					Field:   "constants",
					Message: fmt.Sprintf("duplicate definition of %q", label),
					Pos:     iter.Value().Pos(),
				}
			}
			val, err := scalarValue(iter.Value())
			if err != nil {
				return nil, err
			}
			cv := arena.NewVar()
			scope[label] = cv
			graph.ConstVars = append(graph.ConstVars, cv)
			prog.Consts = append(prog.Consts, val)
		}
	}

	// Inputs (optional list of names).
	inputsVal := v.LookupPath(cue.ParsePath("inputs"))
	if inputsVal.Exists() {
		iter, err := inputsVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			label, err := iter.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			if _, exists := scope[label]; exists {
				return nil, &CompileError{
					Field:   "inputs",
					Message: fmt.Sprintf("duplicate definition of %q", label),
					Pos:     iter.Value().Pos(),
				}
			}
			iv := arena.NewVar()
			scope[label] = iv
			graph.InVars = append(graph.InVars, iv)
			prog.Inputs = append(prog.Inputs, label)
		}
	}

	// Equations (required, at least one).
	eqnsVal := v.LookupPath(cue.ParsePath("equations"))
	if !eqnsVal.Exists() {
		return nil, &CompileError{
			Field:   "equations",
			Message: "at least one equation is required",
			Pos:     v.Pos(),
		}
	}
	eqnIter, err := eqnsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for eqnIter.Next() {
		eqn, err := compileEqn(eqnIter.Value(), arena, scope, graph)
		if err != nil {
			return nil, err
		}
		graph.Eqns = append(graph.Eqns, eqn)
	}
	if len(graph.Eqns) == 0 {
		return nil, &CompileError{
			Field:   "equations",
			Message: "at least one equation is required",
			Pos:     eqnsVal.Pos(),
		}
	}

	// Outputs (required).
	outsVal := v.LookupPath(cue.ParsePath("outputs"))
	if !outsVal.Exists() {
		return nil, &CompileError{
			Field:   "outputs",
			Message: "outputs are required",
			Pos:     v.Pos(),
		}
	}
	outIter, err := outsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for outIter.Next() {
		atom, err := resolveAtom(outIter.Value(), "outputs", scope)
		if err != nil {
			return nil, err
		}
		graph.OutVars = append(graph.OutVars, atom)
	}

	prog.Prog = graph
	return prog, nil
}

func compileEqn(v cue.Value, arena *ir.Arena, scope map[string]*ir.Var, graph *ir.Prog) (ir.Eqn, error) {
	opVal := v.LookupPath(cue.ParsePath("op"))
	if !opVal.Exists() {
		return ir.Eqn{}, &CompileError{
			Field:   "equations",
			Message: "equation op is required",
			Pos:     v.Pos(),
		}
	}
	opName, err := opVal.String()
	if err != nil {
		return ir.Eqn{}, formatCUEError(err)
	}
	prim, ok := kernel.Lookup(opName)
	if !ok {
		return ir.Eqn{}, &CompileError{
			Field:   "op",
			Message: fmt.Sprintf("unknown operation %q", opName),
			Pos:     opVal.Pos(),
		}
	}

	var in []ir.Atom
	inVal := v.LookupPath(cue.ParsePath("in"))
	if inVal.Exists() {
		iter, err := inVal.List()
		if err != nil {
			return ir.Eqn{}, formatCUEError(err)
		}
		for iter.Next() {
			atom, err := resolveAtom(iter.Value(), "in", scope)
			if err != nil {
				return ir.Eqn{}, err
			}
			in = append(in, atom)
		}
	}

	outVal := v.LookupPath(cue.ParsePath("out"))
	if !outVal.Exists() {
		return ir.Eqn{}, &CompileError{
			Field:   "equations",
			Message: "equation out is required",
			Pos:     v.Pos(),
		}
	}
	var outNames []string
	if name, err := outVal.String(); err == nil {
		outNames = []string{name}
	} else {
		iter, err := outVal.List()
		if err != nil {
			return ir.Eqn{}, &CompileError{
				Field:   "out",
				Message: "out must be a name or a list of names",
				Pos:     outVal.Pos(),
			}
		}
		for iter.Next() {
			name, err := iter.Value().String()
			if err != nil {
				return ir.Eqn{}, formatCUEError(err)
			}
			outNames = append(outNames, name)
		}
	}
	if !prim.MultipleResults() && len(outNames) != 1 {
		return ir.Eqn{}, &CompileError{
			Field:   "out",
			Message: fmt.Sprintf("%s yields a single result, got %d out names", opName, len(outNames)),
			Pos:     outVal.Pos(),
		}
	}
	out := make([]*ir.Var, len(outNames))
	for i, name := range outNames {
		if name == "_" {
			out[i] = ir.UnitVar
			continue
		}
		if _, exists := scope[name]; exists {
			return ir.Eqn{}, &CompileError{
				Field:   "out",
				Message: fmt.Sprintf("duplicate definition of %q", name),
				Pos:     outVal.Pos(),
			}
		}
		ov := arena.NewVar()
		scope[name] = ov
		out[i] = ov
	}

	var params trace.Params
	paramsVal := v.LookupPath(cue.ParsePath("params"))
	if paramsVal.Exists() {
		params = trace.Params{}
		iter, err := paramsVal.Fields()
		if err != nil {
			return ir.Eqn{}, formatCUEError(err)
		}
		for iter.Next() {
			if str, err := iter.Value().String(); err == nil {
				params[iter.Label()] = str
				continue
			}
			val, err := scalarValue(iter.Value())
			if err != nil {
				return ir.Eqn{}, err
			}
			params[iter.Label()] = val
		}
	}

	return arena.NewEqn(in, out, prim, nil, params), nil
}

// resolveAtom turns a CUE operand into a variable reference or an
// embedded literal.
func resolveAtom(v cue.Value, field string, scope map[string]*ir.Var) (ir.Atom, error) {
	if name, err := v.String(); err == nil {
		ref, ok := scope[name]
		if !ok {
			return nil, &CompileError{
				Field:   field,
				Message: fmt.Sprintf("undefined name %q", name),
				Pos:     v.Pos(),
			}
		}
		return ref, nil
	}
	val, err := scalarValue(v)
	if err != nil {
		return nil, err
	}
	return ir.NewLiteral(val), nil
}

// scalarValue converts a concrete CUE scalar to a kernel value.
func scalarValue(v cue.Value) (trace.Value, error) {
	switch v.Kind() {
	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return i, nil
	case cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return f, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return b, nil
	default:
		return nil, &CompileError{
			Field:   "value",
			Message: fmt.Sprintf("unsupported value kind: %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}
