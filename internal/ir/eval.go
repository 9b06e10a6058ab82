package ir

import (
	"fmt"

	"github.com/tapirlang/tapir/internal/trace"
)

// Eval executes a program graph as a plain interpreter: equations in
// order, one environment frame per invocation. Because primitive
// application goes through Bind, evaluating under an active trace
// re-stages the graph instead of computing it.
//
// The environment is pre-bound with consts for ConstVars, free for
// FreeVars and args for InVars, plus the implicit unit binding.
func Eval(st *trace.State, p *Prog, consts, free, args []trace.Value) ([]trace.Value, error) {
	if len(consts) != len(p.ConstVars) {
		return nil, newArityError(p, "%d constants for %d constant variables", len(consts), len(p.ConstVars))
	}
	if len(free) != len(p.FreeVars) {
		return nil, newArityError(p, "%d free values for %d free variables", len(free), len(p.FreeVars))
	}
	if len(args) != len(p.InVars) {
		return nil, newArityError(p, "%d arguments for %d inputs", len(args), len(p.InVars))
	}

	env := map[*Var]trace.Value{UnitVar: trace.UnitValue}
	bind := func(vs []*Var, vals []trace.Value) {
		for i, v := range vs {
			env[v] = vals[i]
		}
	}
	bind(p.ConstVars, consts)
	bind(p.FreeVars, free)
	bind(p.InVars, args)

	read := func(a Atom) (trace.Value, error) {
		switch ref := a.(type) {
		case *Literal:
			return ref.Value(), nil
		case *Var:
			val, ok := env[ref]
			if !ok {
				return nil, newUndefinedVarError(ref, p)
			}
			return val, nil
		default:
			return nil, &MalformedError{
				Code:    CodeUndefinedVar,
				Message: fmt.Sprintf("unknown atom kind %T", a),
				Prog:    Render(p),
			}
		}
	}
	readAll := func(atoms []Atom) ([]trace.Value, error) {
		vals := make([]trace.Value, len(atoms))
		for i, a := range atoms {
			val, err := read(a)
			if err != nil {
				return nil, err
			}
			vals[i] = val
		}
		return vals, nil
	}

	for i := range p.Eqns {
		eqn := &p.Eqns[i]
		in, err := readAll(eqn.In)
		if err != nil {
			return nil, err
		}

		var outs []trace.Value
		switch len(eqn.Subs) {
		case 0:
			outs, err = eqn.Prim.Bind(st, in, eqn.Params)
		case 1:
			// The sub-program closes over its constant and free
			// bindings as read from this frame; call-time inputs
			// arrive as the callable's arguments.
			sub := eqn.Subs[0]
			subConsts, rerr := readAll(sub.Consts)
			if rerr != nil {
				return nil, rerr
			}
			subFree, rerr := readAll(sub.Free)
			if rerr != nil {
				return nil, rerr
			}
			f := &trace.Callable{
				Name: eqn.Prim.Name(),
				F: func(st *trace.State, callArgs []trace.Value) ([]trace.Value, error) {
					return Eval(st, sub.Prog, subConsts, subFree, callArgs)
				},
			}
			outs, err = trace.CallBind(st, eqn.Prim, f, in, eqn.Params)
		default:
			return nil, &MalformedError{
				Code:    CodeUnsupportedEqn,
				Message: fmt.Sprintf("equation %d binds %d sub-programs, at most 1 supported", eqn.ID, len(eqn.Subs)),
				Prog:    Render(p),
			}
		}
		if err != nil {
			return nil, fmt.Errorf("eval %s (eqn %d): %w", eqn.Prim.Name(), eqn.ID, err)
		}

		if eqn.Prim.MultipleResults() {
			if len(outs) != len(eqn.Out) {
				return nil, newArityError(p, "%s produced %d results for %d outputs", eqn.Prim.Name(), len(outs), len(eqn.Out))
			}
			for j, v := range eqn.Out {
				if v != UnitVar {
					env[v] = outs[j]
				}
			}
		} else {
			if len(outs) != 1 {
				return nil, newArityError(p, "%s produced %d results, expected 1", eqn.Prim.Name(), len(outs))
			}
			if eqn.Out[0] != UnitVar {
				env[eqn.Out[0]] = outs[0]
			}
		}
	}

	return readAll(p.OutVars)
}
